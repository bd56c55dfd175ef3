package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// client is one scripted connection.
type client struct {
	name string
	conn *websocket.Conn
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run drives two connections through create, open, message and capacity checks.
func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	alice, err := dial(ctx, *addr, "alice")
	if err != nil {
		return err
	}
	defer alice.conn.Close(websocket.StatusNormalClosure, "bye")
	bob, err := dial(ctx, *addr, "bob")
	if err != nil {
		return err
	}
	defer bob.conn.Close(websocket.StatusNormalClosure, "bye")

	if err := alice.identify(ctx); err != nil {
		return err
	}
	if err := bob.identify(ctx); err != nil {
		return err
	}

	if err := alice.send(ctx, proto.InboundCreateRoom, proto.CreateRoomData{Name: "smoke", MaxParticipants: 2}); err != nil {
		return err
	}
	var roomID string
	if err := alice.expect(ctx, "room-created", &roomID); err != nil {
		return err
	}
	fmt.Printf("room created: %s\n", roomID)

	if err := bob.send(ctx, proto.InboundRoomExists, proto.RoomRef{RoomID: roomID}); err != nil {
		return err
	}
	var opened proto.RoomExistsData
	if err := bob.expect(ctx, "room-exists", &opened); err != nil {
		return err
	}
	fmt.Printf("bob opened %q: %d/%d participants\n", opened.RoomInfo.Name,
		opened.RoomInfo.CurrentParticipants, opened.RoomInfo.MaxParticipants)

	if err := alice.send(ctx, proto.InboundSendMessage, proto.SendMessageData{RoomID: roomID, Message: *text}); err != nil {
		return err
	}
	var msg proto.Message
	if err := bob.expect(ctx, "receive-message", &msg); err != nil {
		return err
	}
	if msg.Message != *text {
		return fmt.Errorf("bob received %q, want %q", msg.Message, *text)
	}
	fmt.Printf("message: %s at %s: %q\n", msg.Nickname, msg.Timestamp, msg.Message)

	carol, err := dial(ctx, *addr, "carol")
	if err != nil {
		return err
	}
	defer carol.conn.Close(websocket.StatusNormalClosure, "bye")
	if err := carol.identify(ctx); err != nil {
		return err
	}
	if err := carol.send(ctx, proto.InboundJoinRoom, proto.RoomRef{RoomID: roomID}); err != nil {
		return err
	}
	if err := carol.expect(ctx, "room-full", nil); err != nil {
		return err
	}
	fmt.Println("capacity enforced: carol got room-full")
	return nil
}

func dial(ctx context.Context, addr, name string) (*client, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", name, err)
	}
	return &client{name: name, conn: conn}, nil
}

func (c *client) identify(ctx context.Context) error {
	data := proto.SetNicknameData{Nickname: c.name, UserID: "smoke-" + uuid.NewString()}
	if err := c.send(ctx, proto.InboundSetNickname, data); err != nil {
		return err
	}
	return c.expect(ctx, "nickname-set", nil)
}

func (c *client) send(ctx context.Context, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	if err := wsjson.Write(ctx, c.conn, proto.Inbound{Event: event, Data: payload}); err != nil {
		return fmt.Errorf("%s send %s: %w", c.name, event, err)
	}
	return nil
}

// expect skips frames until event arrives and decodes its data into v.
// An "error" frame fails the run.
func (c *client) expect(ctx context.Context, event string, v any) error {
	for {
		var f frame
		if err := wsjson.Read(ctx, c.conn, &f); err != nil {
			return fmt.Errorf("%s waiting for %s: %w", c.name, event, err)
		}
		switch f.Event {
		case event:
			if v == nil {
				return nil
			}
			if err := json.Unmarshal(f.Data, v); err != nil {
				return fmt.Errorf("%s decode %s: %w", c.name, event, err)
			}
			return nil
		case proto.OutboundError:
			return fmt.Errorf("%s got error frame: %s", c.name, f.Data)
		}
	}
}
