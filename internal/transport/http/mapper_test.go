package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

func TestInboundToCommand(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		data     string
		wantKind core.CommandKind
		check    func(*testing.T, *core.Command)
		wantErr  string
	}{
		{
			name: "set nickname", event: "set-nickname", data: `{"nickname":"Alice","userId":"u1"}`,
			wantKind: core.CommandSetNickname,
			check: func(t *testing.T, c *core.Command) {
				if c.UserID != "u1" || c.Nickname != "Alice" {
					t.Fatalf("unexpected command: %+v", c)
				}
			},
		},
		{name: "set nickname without user", event: "set-nickname", data: `{"nickname":"Alice"}`, wantErr: core.ErrCodeBadRequest},
		{name: "get nickname", event: "get-nickname", wantKind: core.CommandGetNickname},
		{
			name: "create room", event: "create-room", data: `{"maxParticipants":4,"name":"Lobby"}`,
			wantKind: core.CommandCreateRoom,
			check: func(t *testing.T, c *core.Command) {
				if c.Name != "Lobby" || c.MaxParticipants != 4 {
					t.Fatalf("unexpected command: %+v", c)
				}
			},
		},
		{name: "create room bad capacity type", event: "create-room", data: `{"maxParticipants":"many","name":"x"}`, wantErr: core.ErrCodeBadRequest},
		{name: "room exists", event: "room-exists", data: `{"roomId":"r1"}`, wantKind: core.CommandRoomExists},
		{name: "join room", event: "join-room", data: `{"roomId":"r1"}`, wantKind: core.CommandJoinRoom},
		{name: "leave room", event: "leave-room", data: `{"roomId":"r1"}`, wantKind: core.CommandLeaveRoom},
		{name: "join without room", event: "join-room", data: `{}`, wantErr: core.ErrCodeBadRequest},
		{
			name: "send message", event: "send-message", data: `{"roomId":"r1","message":"hi"}`,
			wantKind: core.CommandSendMessage,
			check: func(t *testing.T, c *core.Command) {
				if c.Room != "r1" || c.Text != "hi" {
					t.Fatalf("unexpected command: %+v", c)
				}
			},
		},
		{name: "send without data", event: "send-message", wantErr: core.ErrCodeBadRequest},
		{name: "typing", event: "typing", data: `{"roomId":"r1","nickname":"Bob"}`, wantKind: core.CommandTyping},
		{name: "stop typing", event: "stop-typing", data: `{"roomId":"r1","nickname":"Bob"}`, wantKind: core.CommandStopTyping},
		{name: "update room list", event: "update-room-list", wantKind: core.CommandUpdateRoomList},
		{name: "unknown", event: "dance", wantErr: core.ErrCodeUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := proto.Inbound{Event: tt.event}
			if tt.data != "" {
				in.Data = json.RawMessage(tt.data)
			}
			cmd, perr := inboundToCommand(in)
			if tt.wantErr != "" {
				if perr == nil || perr.Code != tt.wantErr {
					t.Fatalf("expected error %s, got %+v (cmd %+v)", tt.wantErr, perr, cmd)
				}
				return
			}
			if perr != nil {
				t.Fatalf("unexpected error: %+v", perr)
			}
			if cmd.Kind != tt.wantKind {
				t.Fatalf("kind = %v, want %v", cmd.Kind, tt.wantKind)
			}
			if tt.check != nil {
				tt.check(t, cmd)
			}
		})
	}
}

func TestOutboundWireFormat(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 789_000_000, time.UTC)
	info := &core.RoomInfo{
		Name:                "Lobby",
		MaxParticipants:     2,
		CurrentParticipants: 1,
		Participants:        []core.ParticipantInfo{{Nickname: "Alice", IsOnline: true}},
	}

	tests := []struct {
		name  string
		event *core.Event
		want  string
	}{
		{
			name:  "nickname set",
			event: &core.Event{Kind: core.EventNicknameSet, Nickname: "Alice"},
			want:  `{"event":"nickname-set","data":"Alice"}`,
		},
		{
			name:  "room created",
			event: &core.Event{Kind: core.EventRoomCreated, Room: "r1"},
			want:  `{"event":"room-created","data":"r1"}`,
		},
		{
			name:  "room info",
			event: &core.Event{Kind: core.EventRoomInfoUpdated, Room: "r1", Info: info},
			want:  `{"event":"room-info-updated","data":{"name":"Lobby","maxParticipants":2,"currentParticipants":1,"participants":[{"nickname":"Alice","isOnline":true}]}}`,
		},
		{
			name: "room exists",
			event: &core.Event{Kind: core.EventRoomExists, Room: "r1", Info: info, Messages: []core.Message{
				{Text: "hi", UserID: "u1", Nickname: "Alice", Timestamp: ts},
			}},
			want: `{"event":"room-exists","data":{"messages":[{"message":"hi","id":"u1","nickname":"Alice","timestamp":"2024-03-09T14:05:06.789Z"}],"roomInfo":{"name":"Lobby","maxParticipants":2,"currentParticipants":1,"participants":[{"nickname":"Alice","isOnline":true}]}}}`,
		},
		{
			name:  "receive message",
			event: &core.Event{Kind: core.EventReceiveMessage, Message: core.Message{Text: "hi", UserID: "u1", Nickname: "Alice", Timestamp: ts}},
			want:  `{"event":"receive-message","data":{"message":"hi","id":"u1","nickname":"Alice","timestamp":"2024-03-09T14:05:06.789Z"}}`,
		},
		{
			name:  "user typing",
			event: &core.Event{Kind: core.EventUserTyping, Nickname: "Bob", UserID: "u2"},
			want:  `{"event":"user-typing","data":{"nickname":"Bob","userId":"u2"}}`,
		},
		{
			name:  "user stop typing",
			event: &core.Event{Kind: core.EventUserStopTyping, Nickname: "Bob"},
			want:  `{"event":"user-stop-typing","data":{"nickname":"Bob"}}`,
		},
		{
			name: "room list",
			event: &core.Event{Kind: core.EventRoomList, List: &core.RoomList{
				Mine: []core.RoomSummary{{ID: "r1", Name: "Lobby", Clients: []string{"c1"}, Participants: []string{"u1"}, MaxParticipants: 2}},
			}},
			want: `{"event":"room-list","data":{"myRooms":[{"id":"r1","name":"Lobby","clients":["c1"],"participants":["u1"],"maxParticipants":2}],"availableRooms":[],"fullRooms":[]}}`,
		},
		{
			name:  "update room list",
			event: &core.Event{Kind: core.EventUpdateRoomList},
			want:  `{"event":"update-room-list"}`,
		},
		{
			name:  "domain failure",
			event: &core.Event{Kind: core.EventFailure, Error: &core.CoreError{Code: core.ErrCodeRoomFull, Message: "room full"}},
			want:  `{"event":"room-full"}`,
		},
		{
			name:  "protocol error",
			event: &core.Event{Kind: core.EventProtocolError, Error: &core.CoreError{Code: core.ErrCodeInvalidCapacity, Message: "invalid max participants"}},
			want:  `{"event":"error","data":{"code":"invalid_max_participants","msg":"invalid max participants"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(outboundFromEvent(tt.event))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("wire format mismatch\n got: %s\nwant: %s", got, tt.want)
			}
		})
	}
}
