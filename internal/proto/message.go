package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
// Data is omitted for events that carry no payload.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Inbound event names.
const (
	InboundSetNickname    = "set-nickname"
	InboundGetNickname    = "get-nickname"
	InboundCreateRoom     = "create-room"
	InboundRoomExists     = "room-exists"
	InboundJoinRoom       = "join-room"
	InboundLeaveRoom      = "leave-room"
	InboundSendMessage    = "send-message"
	InboundTyping         = "typing"
	InboundStopTyping     = "stop-typing"
	InboundUpdateRoomList = "update-room-list"
)

// OutboundError is the name of the generic error event.
const OutboundError = "error"

// SetNicknameData binds the connection to a durable user id.
type SetNicknameData struct {
	Nickname string `json:"nickname"`
	UserID   string `json:"userId"`
}

// CreateRoomData requests a new room. Zero MaxParticipants means the server default.
type CreateRoomData struct {
	MaxParticipants int    `json:"maxParticipants"`
	Name            string `json:"name"`
}

// RoomRef names a room for room-exists, join-room and leave-room.
type RoomRef struct {
	RoomID string `json:"roomId"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// TypingData is relayed for typing and stop-typing.
type TypingData struct {
	RoomID   string `json:"roomId"`
	Nickname string `json:"nickname"`
}

// Message is a chat message as stored and broadcast.
type Message struct {
	Message   string `json:"message"`
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Timestamp string `json:"timestamp"`
}

// Participant is one row of RoomInfo.
type Participant struct {
	Nickname string `json:"nickname"`
	IsOnline bool   `json:"isOnline"`
}

// RoomInfo is the room snapshot sent on room-exists and room-info-updated.
type RoomInfo struct {
	Name                string        `json:"name"`
	MaxParticipants     int           `json:"maxParticipants"`
	CurrentParticipants int           `json:"currentParticipants"`
	Participants        []Participant `json:"participants"`
}

// RoomExistsData answers room-exists with the full history.
type RoomExistsData struct {
	Messages []Message `json:"messages"`
	RoomInfo RoomInfo  `json:"roomInfo"`
}

// RoomSummary is one entry of a room list.
type RoomSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Clients         []string `json:"clients"`
	Participants    []string `json:"participants"`
	MaxParticipants int      `json:"maxParticipants"`
}

// RoomList partitions rooms for the receiving user.
type RoomList struct {
	MyRooms        []RoomSummary `json:"myRooms"`
	AvailableRooms []RoomSummary `json:"availableRooms"`
	FullRooms      []RoomSummary `json:"fullRooms"`
}

// UserTypingData is relayed to the rest of the room.
type UserTypingData struct {
	Nickname string `json:"nickname"`
	UserID   string `json:"userId,omitempty"`
}

// UserStopTypingData is relayed to the rest of the room.
type UserStopTypingData struct {
	Nickname string `json:"nickname"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
