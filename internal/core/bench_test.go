package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(HubOptions{DefaultMaxParticipants: recipients + 1})
	go hub.Run(ctx)

	sender := NewClient("sender")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandSetNickname, UserID: "sender", Nickname: "sender"}
	sender.Commands <- &Command{Kind: CommandCreateRoom, Name: "bench"}
	var roomID string
	for ev := range sender.Events {
		if ev.Kind == EventRoomCreated {
			roomID = ev.Room
			break
		}
	}
	go func() {
		for range sender.Events {
		}
	}()

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		id := fmt.Sprintf("c%d", i)
		c := NewClient(id)
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandSetNickname, UserID: id, Nickname: id}
		c.Commands <- &Command{Kind: CommandJoinRoom, Room: roomID}
		clients = append(clients, c)
	}

	target := clients[len(clients)-1]
	for ev := range target.Events {
		if ev.Kind == EventRoomJoined {
			break
		}
	}

	// Drain events for all but the target to avoid channel backpressure.
	for _, c := range clients[:len(clients)-1] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendMessage, Room: roomID, Text: "payload"}
		for ev := range target.Events {
			if ev.Kind == EventReceiveMessage {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }

func benchmarkListForUser(b *testing.B, rooms int) {
	dir, reg := newTestRegistry()
	for i := range rooms {
		owner := fmt.Sprintf("u%d", i)
		dir.SetNickname(owner, "c-"+owner, owner)
		room, err := reg.CreateRoom(owner, "c-"+owner, "room", 2)
		if err != nil {
			b.Fatal(err)
		}
		// Rooms cycle through: the viewer's own, full without the viewer, open.
		switch i % 3 {
		case 0:
			_, _ = reg.JoinAsParticipant(room.ID, "viewer", "c-viewer")
		case 1:
			_, _ = reg.JoinAsParticipant(room.ID, fmt.Sprintf("g%d", i), fmt.Sprintf("c-g%d", i))
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reg.ListForUser("viewer")
	}
}

func BenchmarkListForUser_100(b *testing.B)  { benchmarkListForUser(b, 100) }
func BenchmarkListForUser_1000(b *testing.B) { benchmarkListForUser(b, 1000) }
