package http

import (
	"bytes"
	"encoding/json"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Event {
	case proto.InboundSetNickname:
		var data proto.SetNicknameData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.UserID == "" || data.Nickname == "" {
			return nil, badRequest("nickname and userId are required")
		}
		return &core.Command{Kind: core.CommandSetNickname, UserID: data.UserID, Nickname: data.Nickname}, nil
	case proto.InboundGetNickname:
		return &core.Command{Kind: core.CommandGetNickname}, nil
	case proto.InboundUpdateRoomList:
		return &core.Command{Kind: core.CommandUpdateRoomList}, nil
	case proto.InboundCreateRoom:
		var data proto.CreateRoomData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandCreateRoom, Name: data.Name, MaxParticipants: data.MaxParticipants}, nil
	case proto.InboundRoomExists, proto.InboundJoinRoom, proto.InboundLeaveRoom:
		var data proto.RoomRef
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		kind := core.CommandRoomExists
		switch inbound.Event {
		case proto.InboundJoinRoom:
			kind = core.CommandJoinRoom
		case proto.InboundLeaveRoom:
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, Room: data.RoomID}, nil
	case proto.InboundSendMessage:
		var data proto.SendMessageData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		return &core.Command{Kind: core.CommandSendMessage, Room: data.RoomID, Text: data.Message}, nil
	case proto.InboundTyping, proto.InboundStopTyping:
		var data proto.TypingData
		if perr := decode(inbound.Data, &data); perr != nil {
			return nil, perr
		}
		if data.RoomID == "" {
			return nil, badRequest("roomId is required")
		}
		kind := core.CommandTyping
		if inbound.Event == proto.InboundStopTyping {
			kind = core.CommandStopTyping
		}
		return &core.Command{Kind: kind, Room: data.RoomID, Nickname: data.Nickname}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeUnknownEvent, Msg: "unknown event " + inbound.Event}
	}
}

func decode(raw json.RawMessage, v any) *proto.Error {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return badRequest("data is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return badRequest("invalid data: " + err.Error())
	}
	return nil
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Event: event.Name()}

	switch event.Kind {
	case core.EventNicknameSet, core.EventNicknameGet:
		out.Data = event.Nickname
	case core.EventRoomCreated, core.EventRoomJoined:
		out.Data = event.Room
	case core.EventRoomExists:
		out.Data = proto.RoomExistsData{
			Messages: messagesToProto(event.Messages),
			RoomInfo: roomInfoToProto(event.Info),
		}
	case core.EventRoomInfoUpdated:
		out.Data = roomInfoToProto(event.Info)
	case core.EventReceiveMessage:
		out.Data = messageToProto(event.Message)
	case core.EventUserTyping:
		out.Data = proto.UserTypingData{Nickname: event.Nickname, UserID: event.UserID}
	case core.EventUserStopTyping:
		out.Data = proto.UserStopTypingData{Nickname: event.Nickname}
	case core.EventRoomList:
		out.Data = roomListToProto(event.List)
	case core.EventProtocolError:
		if event.Error == nil {
			out.Data = proto.Error{Code: "unknown", Msg: "unknown error"}
			break
		}
		out.Data = proto.Error{Code: event.Error.Code, Msg: event.Error.Message}
	}
	// EventUpdateRoomList and domain failures carry no payload.
	return out
}

func messageToProto(m core.Message) proto.Message {
	return proto.Message{
		Message:   m.Text,
		ID:        m.UserID,
		Nickname:  m.Nickname,
		Timestamp: core.FormatTime(m.Timestamp),
	}
}

func messagesToProto(msgs []core.Message) []proto.Message {
	out := make([]proto.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageToProto(m))
	}
	return out
}

func roomInfoToProto(info *core.RoomInfo) proto.RoomInfo {
	if info == nil {
		return proto.RoomInfo{Participants: []proto.Participant{}}
	}
	out := proto.RoomInfo{
		Name:                info.Name,
		MaxParticipants:     info.MaxParticipants,
		CurrentParticipants: info.CurrentParticipants,
		Participants:        make([]proto.Participant, 0, len(info.Participants)),
	}
	for _, p := range info.Participants {
		out.Participants = append(out.Participants, proto.Participant{Nickname: p.Nickname, IsOnline: p.IsOnline})
	}
	return out
}

func summariesToProto(rooms []core.RoomSummary) []proto.RoomSummary {
	out := make([]proto.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, proto.RoomSummary{
			ID:              r.ID,
			Name:            r.Name,
			Clients:         nonNil(r.Clients),
			Participants:    nonNil(r.Participants),
			MaxParticipants: r.MaxParticipants,
		})
	}
	return out
}

func roomListToProto(list *core.RoomList) proto.RoomList {
	if list == nil {
		return proto.RoomList{
			MyRooms:        []proto.RoomSummary{},
			AvailableRooms: []proto.RoomSummary{},
			FullRooms:      []proto.RoomSummary{},
		}
	}
	return proto.RoomList{
		MyRooms:        summariesToProto(list.Mine),
		AvailableRooms: summariesToProto(list.Available),
		FullRooms:      summariesToProto(list.Full),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
