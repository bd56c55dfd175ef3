package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

type rawOutbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*core.Hub, *httptest.Server) {
	t.Helper()

	hub := core.NewHub(core.HubOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.Addr = ":0"
	if mutate != nil {
		mutate(&cfg)
	}

	disabledLogger := zerolog.Nop()
	server := NewServer(hub, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return hub, ts
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + wsPath
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, data any) {
	t.Helper()

	in := proto.Inbound{Event: event}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s: %v", event, err)
		}
		in.Data = payload
	}
	if err := wsjson.Write(ctx, conn, in); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	return readUntilWhere(t, ctx, conn, event, func(json.RawMessage) bool { return true })
}

// readUntilWhere skips frames until one named event satisfies match.
func readUntilWhere(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for {
		var out rawOutbound
		if err := wsjson.Read(readCtx, conn, &out); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if out.Event == event && match(out.Data) {
			return out.Data
		}
	}
}

// identify sends set-nickname and waits for both replies.
func identify(t *testing.T, ctx context.Context, conn *websocket.Conn, userID, nickname string) {
	t.Helper()

	send(t, ctx, conn, proto.InboundSetNickname, proto.SetNicknameData{Nickname: nickname, UserID: userID})
	var got string
	if err := json.Unmarshal(readUntil(t, ctx, conn, "nickname-set"), &got); err != nil || got != nickname {
		t.Fatalf("nickname-set = %q, %v", got, err)
	}
	readUntil(t, ctx, conn, "room-list")
}

func decodeInto[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

// waitEvent reads c.Events until an event of kind arrives.
func waitEvent(t *testing.T, c *core.Client, kind core.EventKind) *core.Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events:
			if !ok {
				t.Fatalf("events closed while waiting for %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("expected event kind %v not received", kind)
		}
	}
}
