package core

import "context"

// Stats is a point-in-time count of hub state.
type Stats struct {
	Rooms       int
	Users       int
	Connections int
}

// do runs fn on the hub goroutine and waits for it.
func (h *Hub) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		fn()
		close(finished)
	}
	select {
	case h.queries <- wrapped:
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RoomInfo returns a snapshot of one room.
func (h *Hub) RoomInfo(ctx context.Context, roomID string) (RoomInfo, error) {
	var (
		info RoomInfo
		err  error
	)
	if qerr := h.do(ctx, func() { info, err = h.reg.Snapshot(roomID) }); qerr != nil {
		return RoomInfo{}, qerr
	}
	return info, err
}

// RoomList partitions all rooms from userID's point of view.
func (h *Hub) RoomList(ctx context.Context, userID string) (RoomList, error) {
	var list RoomList
	if err := h.do(ctx, func() { list = h.reg.ListForUser(userID) }); err != nil {
		return RoomList{}, err
	}
	return list, nil
}

// Rooms lists every room in creation order.
func (h *Hub) Rooms(ctx context.Context) ([]RoomSummary, error) {
	var out []RoomSummary
	if err := h.do(ctx, func() { out = h.reg.Summaries() }); err != nil {
		return nil, err
	}
	return out, nil
}

// History returns a copy of a room's messages.
func (h *Hub) History(ctx context.Context, roomID string) ([]Message, error) {
	var (
		out []Message
		err error
	)
	qerr := h.do(ctx, func() {
		room, ok := h.reg.Lookup(roomID)
		if !ok {
			err = ErrRoomNotFound
			return
		}
		out = room.Messages()
	})
	if qerr != nil {
		return nil, qerr
	}
	return out, err
}

// Stats counts rooms, known users and live connections.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := h.do(ctx, func() {
		s = Stats{Rooms: h.reg.Len(), Users: h.dir.Len(), Connections: len(h.clients)}
	})
	return s, err
}
