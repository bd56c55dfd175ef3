package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventNicknameSet confirms set-nickname to the sender.
	EventNicknameSet EventKind = iota
	// EventNicknameGet answers get-nickname.
	EventNicknameGet
	// EventRoomCreated returns the id of a freshly created room.
	EventRoomCreated
	// EventRoomExists delivers full history and room info to a client opening a room.
	EventRoomExists
	// EventRoomJoined confirms join-room.
	EventRoomJoined
	// EventRoomInfoUpdated carries a room snapshot to its live clients.
	EventRoomInfoUpdated
	// EventReceiveMessage carries a new chat message to a room.
	EventReceiveMessage
	// EventUserTyping relays a typing signal.
	EventUserTyping
	// EventUserStopTyping relays the end of a typing signal.
	EventUserStopTyping
	// EventRoomList delivers the caller's partitioned room list.
	EventRoomList
	// EventUpdateRoomList tells every connection its room list is stale.
	EventUpdateRoomList
	// EventFailure reports a domain error (Error.Code is the event name).
	EventFailure
	// EventProtocolError reports a malformed or rejected request.
	EventProtocolError
)

var eventNames = map[EventKind]string{
	EventNicknameSet:     "nickname-set",
	EventNicknameGet:     "nickname-get",
	EventRoomCreated:     "room-created",
	EventRoomExists:      "room-exists",
	EventRoomJoined:      "room-joined",
	EventRoomInfoUpdated: "room-info-updated",
	EventReceiveMessage:  "receive-message",
	EventUserTyping:      "user-typing",
	EventUserStopTyping:  "user-stop-typing",
	EventRoomList:        "room-list",
	EventUpdateRoomList:  "update-room-list",
	EventProtocolError:   "error",
}

// Name returns the wire name of the event.
func (e *Event) Name() string {
	if e.Kind == EventFailure && e.Error != nil {
		return e.Error.Code
	}
	if name, ok := eventNames[e.Kind]; ok {
		return name
	}
	return "unknown"
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	UserID   string
	Nickname string
	Message  Message
	Messages []Message // For EventRoomExists
	Info     *RoomInfo // For EventRoomExists, EventRoomInfoUpdated
	List     *RoomList // For EventRoomList
	Error    *CoreError
}
