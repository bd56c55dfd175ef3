package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSetNickname binds the connection to a durable user id.
	CommandSetNickname CommandKind = iota
	// CommandGetNickname asks for the nickname bound to the connection.
	CommandGetNickname
	// CommandCreateRoom creates a room with the sender as first participant.
	CommandCreateRoom
	// CommandRoomExists opens a room the client navigated to and returns its full state.
	CommandRoomExists
	// CommandJoinRoom joins a room from the lobby.
	CommandJoinRoom
	// CommandLeaveRoom detaches the connection from a room's live clients.
	CommandLeaveRoom
	// CommandSendMessage appends a chat message to a room.
	CommandSendMessage
	// CommandTyping relays a typing signal to the rest of the room.
	CommandTyping
	// CommandStopTyping relays the end of a typing signal.
	CommandStopTyping
	// CommandUpdateRoomList asks for the caller's partitioned room list.
	CommandUpdateRoomList
)

var commandNames = map[CommandKind]string{
	CommandSetNickname:    "set-nickname",
	CommandGetNickname:    "get-nickname",
	CommandCreateRoom:     "create-room",
	CommandRoomExists:     "room-exists",
	CommandJoinRoom:       "join-room",
	CommandLeaveRoom:      "leave-room",
	CommandSendMessage:    "send-message",
	CommandTyping:         "typing",
	CommandStopTyping:     "stop-typing",
	CommandUpdateRoomList: "update-room-list",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command represents an action requested by a client.
type Command struct {
	Kind            CommandKind
	Room            string
	UserID          string
	Nickname        string
	Name            string
	Text            string
	MaxParticipants int
}
