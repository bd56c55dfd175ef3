package core

import (
	"context"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	return mustEventWhere(t, ch, kind, func(*Event) bool { return true })
}

// mustEventWhere skips events until one of the given kind satisfies match.
func mustEventWhere(t *testing.T, ch <-chan *Event, kind EventKind, match func(*Event) bool) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind && match(ev) {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func noEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event %s: %+v", ev.Name(), ev)
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func startHub(t *testing.T, opts HubOptions) *Hub {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(opts)
	go hub.Run(ctx)
	return hub
}

// connect registers a client and binds it to userID.
func connect(t *testing.T, hub *Hub, connID, userID, nickname string) *Client {
	t.Helper()

	c := NewClient(connID)
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandSetNickname, UserID: userID, Nickname: nickname}
	mustEvent(t, c.Events, EventNicknameSet)
	mustEvent(t, c.Events, EventRoomList)
	return c
}

func createRoom(t *testing.T, c *Client, name string, maxParticipants int) string {
	t.Helper()

	c.Commands <- &Command{Kind: CommandCreateRoom, Name: name, MaxParticipants: maxParticipants}
	ev := mustEvent(t, c.Events, EventRoomCreated)
	if ev.Room == "" {
		t.Fatalf("room-created without id: %+v", ev)
	}
	return ev.Room
}

func participant(info *RoomInfo, nickname string) (ParticipantInfo, bool) {
	for _, p := range info.Participants {
		if p.Nickname == nickname {
			return p, true
		}
	}
	return ParticipantInfo{}, false
}
