package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/presence"
	"github.com/vovakirdan/roomchat-server/internal/store"
)

// DefaultMaxParticipants is the capacity of a room created without one.
const DefaultMaxParticipants = 2

// HubOptions configures a Hub. Zero values pick defaults.
type HubOptions struct {
	// Gateway persists rooms, histories and users. Nil disables persistence.
	Gateway *store.Gateway
	Logger  *zerolog.Logger
	// Now is the clock used for timestamps and typing expiry.
	Now       func() time.Time
	NewRoomID func() string

	DefaultMaxParticipants int
	// MaxParticipantsLimit caps the capacity of new rooms; 0 means no cap.
	MaxParticipantsLimit int

	// TypingTTL enables server-side typing expiry when positive.
	TypingTTL     time.Duration
	SweepInterval time.Duration
}

// inbound is one entry of the hub's FIFO. A nil cmd marks the end of the
// client's command stream, so the disconnect runs after everything it sent.
type inbound struct {
	client *Client
	cmd    *Command
}

// Hub is the event router. A single goroutine (Run) owns the Directory and
// Registry and handles one inbound event completely, persistence included,
// before taking the next one.
type Hub struct {
	dir    *Directory
	reg    *Registry
	typing *presence.Tracker
	gw     *store.Gateway
	log    zerolog.Logger
	now    func() time.Time

	defaultMax    int
	maxLimit      int
	sweepInterval time.Duration

	clients  map[string]*Client
	register chan *Client
	inbound  chan inbound
	queries  chan func()
	done     chan struct{}
}

// NewHub creates a new chat hub instance.
func NewHub(opts HubOptions) *Hub {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewRoomID
	if newID == nil {
		newID = defaultRoomID(now)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "hub").Logger()
	}
	defaultMax := opts.DefaultMaxParticipants
	if defaultMax < MinParticipants {
		defaultMax = DefaultMaxParticipants
	}

	dir := NewDirectory(now)
	h := &Hub{
		dir:        dir,
		reg:        NewRegistry(dir, newID),
		gw:         opts.Gateway,
		log:        log,
		now:        now,
		defaultMax: defaultMax,
		maxLimit:   opts.MaxParticipantsLimit,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		inbound:    make(chan inbound, 256),
		queries:    make(chan func()),
		done:       make(chan struct{}),
	}
	if opts.TypingTTL > 0 {
		h.typing = presence.NewTracker(opts.TypingTTL, now)
		h.sweepInterval = opts.SweepInterval
		if h.sweepInterval <= 0 {
			h.sweepInterval = presence.DefaultSweepInterval
		}
	}
	return h
}

func defaultRoomID(now func() time.Time) func() string {
	var seq int
	return func() string {
		seq++
		return fmt.Sprintf("room-%d-%d", now().UnixNano(), seq)
	}
}

// Restore loads persisted rooms, their histories and the user directory.
// Call it before Run.
func (h *Hub) Restore(ctx context.Context) error {
	if h.gw == nil {
		return nil
	}
	rooms, err := h.gw.LoadRooms(ctx)
	if err != nil {
		return fmt.Errorf("restore rooms: %w", err)
	}
	for _, rec := range rooms {
		history, err := h.gw.LoadHistory(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("restore history of %s: %w", rec.ID, err)
		}
		h.reg.Restore(rec, history)
	}
	users, err := h.gw.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("restore users: %w", err)
	}
	h.dir.Restore(users)

	h.log.Info().Int("rooms", h.reg.Len()).Int("users", h.dir.Len()).Msg("state restored")
	return nil
}

// Run processes events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var sweep <-chan time.Time
	if h.typing != nil {
		ticker := time.NewTicker(h.sweepInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.clients[c.ID] = c
			h.log.Debug().Str("conn_id", c.ID).Msg("client registered")
		case in := <-h.inbound:
			if in.cmd == nil {
				h.handleDisconnect(ctx, in.client)
				continue
			}
			h.dispatch(ctx, in.client, in.cmd)
		case fn := <-h.queries:
			fn()
		case <-sweep:
			h.expireTyping()
		}
	}
}

// RegisterClient adds a connection and starts forwarding its commands.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		return
	}
	go h.pump(c)
}

// UnregisterClient closes the client's command stream. The disconnect
// transition runs after every command already sent.
func (h *Hub) UnregisterClient(c *Client) {
	c.closeCommands()
}

func (h *Hub) pump(c *Client) {
	for cmd := range c.Commands {
		if cmd == nil {
			continue
		}
		select {
		case h.inbound <- inbound{client: c, cmd: cmd}:
		case <-h.done:
			return
		}
	}
	select {
	case h.inbound <- inbound{client: c}:
	case <-h.done:
	}
}

func (h *Hub) shutdown() {
	for id, c := range h.clients {
		close(c.Events)
		delete(h.clients, id)
	}
	h.log.Info().Msg("hub stopped")
}

func (h *Hub) dispatch(ctx context.Context, c *Client, cmd *Command) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	h.log.Debug().Str("conn_id", c.ID).Str("event", cmd.Kind.String()).Str("room_id", cmd.Room).Msg("inbound")

	switch cmd.Kind {
	case CommandSetNickname:
		h.handleSetNickname(ctx, c, cmd)
	case CommandGetNickname:
		h.handleGetNickname(c)
	case CommandCreateRoom:
		h.handleCreateRoom(ctx, c, cmd)
	case CommandRoomExists:
		h.handleRoomExists(ctx, c, cmd)
	case CommandJoinRoom:
		h.handleJoinRoom(ctx, c, cmd)
	case CommandLeaveRoom:
		h.handleLeaveRoom(c, cmd)
	case CommandSendMessage:
		h.handleSendMessage(ctx, c, cmd)
	case CommandTyping:
		h.handleTyping(c, cmd)
	case CommandStopTyping:
		h.handleStopTyping(c, cmd)
	case CommandUpdateRoomList:
		h.handleUpdateRoomList(c)
	default:
		h.protocolError(c, ErrCodeUnknownEvent, "unknown command")
	}
}

func (h *Hub) handleSetNickname(ctx context.Context, c *Client, cmd *Command) {
	if cmd.UserID == "" || strings.TrimSpace(cmd.Nickname) == "" {
		h.protocolError(c, ErrCodeBadRequest, "nickname and userId are required")
		return
	}
	previous, known := h.dir.Lookup(cmd.UserID)

	rb := h.dir.SetNickname(cmd.UserID, c.ID, cmd.Nickname)
	h.saveUsers(ctx)

	changed := make(map[string]struct{})
	if rb.PreviousConn != "" {
		h.forgetTyping(rb.PreviousConn)
		for _, roomID := range h.reg.DetachEverywhere(rb.PreviousConn) {
			changed[roomID] = struct{}{}
		}
	}
	if rb.DisplacedUser != "" {
		for _, roomID := range h.reg.RoomsWithClient(c.ID) {
			changed[roomID] = struct{}{}
		}
	}
	if known && previous.Nickname != cmd.Nickname {
		for _, s := range h.reg.ListForUser(cmd.UserID).Mine {
			changed[s.ID] = struct{}{}
		}
	}
	for _, roomID := range h.reg.order {
		if _, ok := changed[roomID]; ok {
			h.broadcastRoomInfo(roomID)
		}
	}

	h.log.Debug().Str("conn_id", c.ID).Str("user_id", cmd.UserID).Bool("created", rb.Created).Msg("nickname set")
	h.send(c, &Event{Kind: EventNicknameSet, Nickname: cmd.Nickname})
	list := h.reg.ListForUser(cmd.UserID)
	h.send(c, &Event{Kind: EventRoomList, List: &list})
}

func (h *Hub) handleGetNickname(c *Client) {
	userID, ok := h.dir.Resolve(c.ID)
	if !ok {
		h.fail(c, ErrIdentityRequired)
		return
	}
	h.send(c, &Event{Kind: EventNicknameGet, UserID: userID, Nickname: h.dir.NicknameOf(userID)})
}

func (h *Hub) handleCreateRoom(ctx context.Context, c *Client, cmd *Command) {
	userID, ok := h.dir.Resolve(c.ID)
	if !ok {
		h.fail(c, ErrIdentityRequired)
		return
	}
	if strings.TrimSpace(cmd.Name) == "" {
		h.fail(c, ErrInvalidName)
		return
	}
	maxParticipants := cmd.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = h.defaultMax
	}
	if h.maxLimit > 0 && maxParticipants > h.maxLimit {
		h.fail(c, fmt.Errorf("%w: limit is %d", ErrInvalidCapacity, h.maxLimit))
		return
	}

	room, err := h.reg.CreateRoom(userID, c.ID, cmd.Name, maxParticipants)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.saveRooms(ctx)

	h.log.Info().Str("room_id", room.ID).Str("user_id", userID).Int("max_participants", room.MaxParticipants).Msg("room created")
	h.send(c, &Event{Kind: EventRoomCreated, Room: room.ID})
	h.emitAll(&Event{Kind: EventUpdateRoomList})
}

func (h *Hub) handleRoomExists(ctx context.Context, c *Client, cmd *Command) {
	room, userID, ok := h.guardRoomAndIdentity(c, cmd.Room)
	if !ok {
		return
	}
	added, err := h.reg.JoinAsParticipant(room.ID, userID, c.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if added {
		h.saveRooms(ctx)
	}
	info, _ := h.reg.Snapshot(room.ID)

	h.send(c, &Event{Kind: EventRoomExists, Room: room.ID, Messages: room.Messages(), Info: &info})
	h.emitRoom(room.ID, &Event{Kind: EventRoomInfoUpdated, Room: room.ID, Info: &info}, "")
	h.emitAll(&Event{Kind: EventUpdateRoomList})
}

func (h *Hub) handleJoinRoom(ctx context.Context, c *Client, cmd *Command) {
	room, userID, ok := h.guardRoomAndIdentity(c, cmd.Room)
	if !ok {
		return
	}
	added, err := h.reg.JoinAsParticipant(room.ID, userID, c.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	if added {
		h.saveRooms(ctx)
	}

	h.send(c, &Event{Kind: EventRoomJoined, Room: room.ID})
	h.broadcastRoomInfo(room.ID)
	h.emitAll(&Event{Kind: EventUpdateRoomList})
}

func (h *Hub) handleLeaveRoom(c *Client, cmd *Command) {
	room, _, ok := h.guardRoomAndIdentity(c, cmd.Room)
	if !ok {
		return
	}
	_, _ = h.reg.DetachLiveClient(room.ID, c.ID)

	h.broadcastRoomInfo(room.ID)
	h.emitAll(&Event{Kind: EventUpdateRoomList})
}

func (h *Hub) handleSendMessage(ctx context.Context, c *Client, cmd *Command) {
	room, userID, ok := h.guardRoomAndIdentity(c, cmd.Room)
	if !ok {
		return
	}
	msg := Message{
		Text:      cmd.Text,
		UserID:    userID,
		Nickname:  h.dir.NicknameOf(userID),
		Timestamp: h.now(),
	}
	added, _ := h.reg.EnsureMember(room.ID, userID, c.ID)
	_ = h.reg.RecordMessage(room.ID, msg)

	h.saveHistory(ctx, room.ID)
	if added {
		h.saveRooms(ctx)
	}
	h.emitRoom(room.ID, &Event{Kind: EventReceiveMessage, Room: room.ID, Message: msg}, "")
}

func (h *Hub) handleTyping(c *Client, cmd *Command) {
	userID, _ := h.dir.Resolve(c.ID)
	h.emitRoom(cmd.Room, &Event{Kind: EventUserTyping, Room: cmd.Room, Nickname: cmd.Nickname, UserID: userID}, c.ID)

	if h.typing != nil {
		if _, ok := h.reg.Lookup(cmd.Room); ok {
			h.typing.Touch(cmd.Room, cmd.Nickname, c.ID)
		}
	}
}

func (h *Hub) handleStopTyping(c *Client, cmd *Command) {
	h.emitRoom(cmd.Room, &Event{Kind: EventUserStopTyping, Room: cmd.Room, Nickname: cmd.Nickname}, c.ID)
	if h.typing != nil {
		h.typing.Stop(cmd.Room, cmd.Nickname)
	}
}

func (h *Hub) handleUpdateRoomList(c *Client) {
	userID, ok := h.dir.Resolve(c.ID)
	if !ok {
		h.fail(c, ErrIdentityRequired)
		return
	}
	list := h.reg.ListForUser(userID)
	h.send(c, &Event{Kind: EventRoomList, List: &list})
}

// handleDisconnect is the terminal transition of a connection: live
// membership is dropped everywhere, durable membership is untouched.
func (h *Hub) handleDisconnect(ctx context.Context, c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.Events)

	userID, known := h.dir.MarkDisconnected(c.ID)
	if known {
		h.saveUsers(ctx)
	}
	h.forgetTyping(c.ID)

	touched := h.reg.DetachEverywhere(c.ID)
	for _, roomID := range touched {
		h.broadcastRoomInfo(roomID)
	}
	if known || len(touched) > 0 {
		h.emitAll(&Event{Kind: EventUpdateRoomList})
	}
	h.log.Debug().Str("conn_id", c.ID).Str("user_id", userID).Int("rooms", len(touched)).Msg("client disconnected")
}

func (h *Hub) guardRoomAndIdentity(c *Client, roomID string) (*Room, string, bool) {
	room, ok := h.reg.Lookup(roomID)
	if !ok {
		h.fail(c, ErrRoomNotFound)
		return nil, "", false
	}
	userID, ok := h.dir.Resolve(c.ID)
	if !ok {
		h.fail(c, ErrIdentityRequired)
		return nil, "", false
	}
	return room, userID, true
}

func (h *Hub) expireTyping() {
	for _, e := range h.typing.Sweep() {
		h.emitRoom(e.Room, &Event{Kind: EventUserStopTyping, Room: e.Room, Nickname: e.Nickname}, e.ConnID)
	}
}

func (h *Hub) forgetTyping(connID string) {
	if h.typing == nil {
		return
	}
	for _, e := range h.typing.ForgetConn(connID) {
		h.emitRoom(e.Room, &Event{Kind: EventUserStopTyping, Room: e.Room, Nickname: e.Nickname}, connID)
	}
}

func (h *Hub) broadcastRoomInfo(roomID string) {
	info, err := h.reg.Snapshot(roomID)
	if err != nil {
		return
	}
	h.emitRoom(roomID, &Event{Kind: EventRoomInfoUpdated, Room: roomID, Info: &info}, "")
}

// emitRoom delivers ev to the room's live clients except exceptConn.
func (h *Hub) emitRoom(roomID string, ev *Event, exceptConn string) {
	room, ok := h.reg.Lookup(roomID)
	if !ok {
		return
	}
	for _, connID := range room.clients {
		if connID == exceptConn {
			continue
		}
		if c, ok := h.clients[connID]; ok {
			h.send(c, ev)
		}
	}
}

func (h *Hub) emitAll(ev *Event) {
	for _, c := range h.clients {
		h.send(c, ev)
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
		h.log.Warn().Str("conn_id", c.ID).Str("event", ev.Name()).Msg("client buffer full, event dropped")
	}
}

func (h *Hub) fail(c *Client, err error) {
	ce := errorFor(err)
	kind := EventFailure
	if ce.generic() {
		kind = EventProtocolError
	}
	h.send(c, &Event{Kind: kind, Error: ce})
}

func (h *Hub) protocolError(c *Client, code, msg string) {
	h.send(c, &Event{Kind: EventProtocolError, Error: coreError(code, msg)})
}

func (h *Hub) saveRooms(ctx context.Context) {
	if h.gw == nil {
		return
	}
	if err := h.gw.SaveRooms(ctx, h.reg.Records()); err != nil {
		h.log.Warn().Err(err).Str("key", store.KeyRooms).Msg("persist failed")
	}
}

func (h *Hub) saveUsers(ctx context.Context) {
	if h.gw == nil {
		return
	}
	if err := h.gw.SaveUsers(ctx, h.dir.Records()); err != nil {
		h.log.Warn().Err(err).Str("key", store.KeyUsers).Msg("persist failed")
	}
}

func (h *Hub) saveHistory(ctx context.Context, roomID string) {
	if h.gw == nil {
		return
	}
	records, err := h.reg.HistoryRecords(roomID)
	if err != nil {
		return
	}
	if err := h.gw.SaveHistory(ctx, roomID, records); err != nil {
		h.log.Warn().Err(err).Str("key", store.HistoryKey(roomID)).Msg("persist failed")
	}
}
