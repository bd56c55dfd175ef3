package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/roomchat-server/internal/presence"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type session struct {
	conn     *websocket.Conn
	nickname string
	typing   *presence.Tracker

	mu   sync.Mutex
	room string
}

func (s *session) currentRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *session) setRoom(id string) {
	s.mu.Lock()
	s.room = id
	s.mu.Unlock()
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	userID := flag.String("user-id", uuid.NewString(), "durable user id")
	nickname := flag.String("nick", "cli-user", "nickname")
	room := flag.String("room", "", "room id to open; a new room is created when empty")
	name := flag.String("name", "cli room", "name of the room to create")
	maxParticipants := flag.Int("max", 0, "capacity of the room to create (0 = server default)")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	s := &session{
		conn:     conn,
		nickname: *nickname,
		typing:   presence.NewTracker(presence.DefaultTTL, nil),
		room:     *room,
	}

	if err := s.send(ctx, proto.InboundSetNickname, proto.SetNicknameData{Nickname: *nickname, UserID: *userID}); err != nil {
		return err
	}
	if *room == "" {
		err = s.send(ctx, proto.InboundCreateRoom, proto.CreateRoomData{Name: *name, MaxParticipants: *maxParticipants})
	} else {
		err = s.send(ctx, proto.InboundRoomExists, proto.RoomRef{RoomID: *room})
	}
	if err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s (%s)\n", *addr, *nickname, *userID)
	fmt.Println("Type messages and press Enter to send. Commands: /typing /rooms /join <id> /leave /nick <name>. Ctrl+C to exit.")

	go s.typing.Run(ctx, presence.DefaultSweepInterval, func(expired []presence.Entry) {
		for _, e := range expired {
			fmt.Printf("  %s stopped typing\n", e.Nickname)
		}
	})

	go func() {
		defer cancel()
		s.readLoop(ctx)
	}()

	s.writeLoop(ctx, *userID)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func (s *session) send(ctx context.Context, event string, data any) error {
	in := proto.Inbound{Event: event}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", event, err)
		}
		in.Data = payload
	}
	if err := wsjson.Write(ctx, s.conn, in); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

func (s *session) readLoop(ctx context.Context) {
	for {
		var f frame
		if err := wsjson.Read(ctx, s.conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}
		if err := s.handle(ctx, f); err != nil {
			log.Printf("%s: %v", f.Event, err)
		}
	}
}

func (s *session) handle(ctx context.Context, f frame) error {
	switch f.Event {
	case "room-created":
		var id string
		if err := json.Unmarshal(f.Data, &id); err != nil {
			return err
		}
		fmt.Printf("created room %s\n", id)
		s.setRoom(id)
		return s.send(ctx, proto.InboundRoomExists, proto.RoomRef{RoomID: id})
	case "room-exists":
		var data proto.RoomExistsData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return err
		}
		printRoomInfo(data.RoomInfo)
		for _, m := range data.Messages {
			printMessage(m)
		}
	case "room-info-updated":
		var info proto.RoomInfo
		if err := json.Unmarshal(f.Data, &info); err != nil {
			return err
		}
		printRoomInfo(info)
	case "receive-message":
		var m proto.Message
		if err := json.Unmarshal(f.Data, &m); err != nil {
			return err
		}
		s.typing.Stop(s.currentRoom(), m.Nickname)
		printMessage(m)
	case "user-typing":
		var data proto.UserTypingData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return err
		}
		if s.typing.Touch(s.currentRoom(), data.Nickname, "") {
			fmt.Printf("  %s is typing...\n", data.Nickname)
		}
	case "user-stop-typing":
		var data proto.UserStopTypingData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return err
		}
		if s.typing.Stop(s.currentRoom(), data.Nickname) {
			fmt.Printf("  %s stopped typing\n", data.Nickname)
		}
	case "room-list":
		var list proto.RoomList
		if err := json.Unmarshal(f.Data, &list); err != nil {
			return err
		}
		printRoomList(list)
	case "update-room-list", "nickname-set", "room-joined":
		// Nothing to show.
	case proto.OutboundError:
		var perr proto.Error
		if err := json.Unmarshal(f.Data, &perr); err != nil {
			return err
		}
		fmt.Printf("! %s: %s\n", perr.Code, perr.Msg)
	default:
		fmt.Printf("! %s\n", f.Event)
	}
	return nil
}

func (s *session) writeLoop(ctx context.Context, userID string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := s.command(ctx, userID, strings.TrimSpace(line)); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}

func (s *session) command(ctx context.Context, userID, line string) error {
	if line == "" {
		return nil
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	room := s.currentRoom()

	switch cmd {
	case "/typing":
		return s.send(ctx, proto.InboundTyping, proto.TypingData{RoomID: room, Nickname: s.nickname})
	case "/rooms":
		return s.send(ctx, proto.InboundUpdateRoomList, nil)
	case "/join":
		if arg == "" {
			fmt.Println("usage: /join <room id>")
			return nil
		}
		s.setRoom(arg)
		return s.send(ctx, proto.InboundRoomExists, proto.RoomRef{RoomID: arg})
	case "/leave":
		return s.send(ctx, proto.InboundLeaveRoom, proto.RoomRef{RoomID: room})
	case "/nick":
		if arg == "" {
			fmt.Println("usage: /nick <name>")
			return nil
		}
		s.nickname = arg
		return s.send(ctx, proto.InboundSetNickname, proto.SetNicknameData{Nickname: arg, UserID: userID})
	}

	if room == "" {
		fmt.Println("no room yet")
		return nil
	}
	if err := s.send(ctx, proto.InboundSendMessage, proto.SendMessageData{RoomID: room, Message: line}); err != nil {
		return err
	}
	return s.send(ctx, proto.InboundStopTyping, proto.TypingData{RoomID: room, Nickname: s.nickname})
}

func printMessage(m proto.Message) {
	ts := m.Timestamp
	if t, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
		ts = t.Local().Format("15:04:05")
	}
	fmt.Printf("[%s] %s: %s\n", ts, m.Nickname, m.Message)
}

func printRoomInfo(info proto.RoomInfo) {
	names := make([]string, 0, len(info.Participants))
	for _, p := range info.Participants {
		status := "offline"
		if p.IsOnline {
			status = "online"
		}
		names = append(names, fmt.Sprintf("%s (%s)", p.Nickname, status))
	}
	fmt.Printf("== %s %d/%d: %s\n", info.Name, info.CurrentParticipants, info.MaxParticipants, strings.Join(names, ", "))
}

func printRoomList(list proto.RoomList) {
	section := func(title string, rooms []proto.RoomSummary) {
		fmt.Printf("%s:\n", title)
		for _, r := range rooms {
			fmt.Printf("  %s  %s  %d/%d\n", r.ID, r.Name, len(r.Participants), r.MaxParticipants)
		}
	}
	section("my rooms", list.MyRooms)
	section("available", list.AvailableRooms)
	section("full", list.FullRooms)
}
