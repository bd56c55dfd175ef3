package core

import (
	"fmt"
	"strings"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

// MinParticipants is the smallest capacity a room can be created with.
const MinParticipants = 2

// ParticipantInfo is one row of a room snapshot.
type ParticipantInfo struct {
	Nickname string
	IsOnline bool
}

// RoomInfo is a read-only projection of a room.
type RoomInfo struct {
	Name                string
	MaxParticipants     int
	CurrentParticipants int
	Participants        []ParticipantInfo
}

// RoomSummary is a room as listed in the lobby.
type RoomSummary struct {
	ID              string
	Name            string
	Clients         []string
	Participants    []string
	MaxParticipants int
}

// RoomList partitions all rooms from one user's point of view.
// Mine, Available and Full are pairwise disjoint and cover every room.
type RoomList struct {
	Mine      []RoomSummary
	Available []RoomSummary
	Full      []RoomSummary
}

// Registry owns the rooms in creation order.
type Registry struct {
	dir   *Directory
	rooms map[string]*Room
	order []string
	newID func() string
}

// NewRegistry builds an empty registry resolving nicknames and live handles through dir.
func NewRegistry(dir *Directory, newID func() string) *Registry {
	return &Registry{
		dir:   dir,
		rooms: make(map[string]*Room),
		newID: newID,
	}
}

// CreateRoom registers a room with the requester as sole participant and live client.
func (r *Registry) CreateRoom(userID, connID, name string, maxParticipants int) (*Room, error) {
	if userID == "" {
		return nil, ErrIdentityRequired
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if maxParticipants < MinParticipants {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, maxParticipants)
	}

	id := r.newID()
	for _, taken := r.rooms[id]; taken; _, taken = r.rooms[id] {
		id = r.newID()
	}

	room := NewRoom(id, name, maxParticipants)
	room.AddParticipant(userID)
	room.AddClient(connID)
	r.add(room)
	return room, nil
}

// Lookup returns the room with the given id.
func (r *Registry) Lookup(roomID string) (*Room, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

// Len returns the number of rooms.
func (r *Registry) Len() int {
	return len(r.order)
}

// JoinAsParticipant admits userID (checking capacity only if not yet a member)
// and attaches connID as a live client. Reports whether participants changed.
func (r *Registry) JoinAsParticipant(roomID, userID, connID string) (bool, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	if userID == "" {
		return false, ErrIdentityRequired
	}
	added := false
	if !room.HasParticipant(userID) {
		if room.Full() {
			return false, ErrRoomFull
		}
		added = room.AddParticipant(userID)
	}
	room.AddClient(connID)
	return added, nil
}

// EnsureMember makes userID a participant and connID a live client without a
// capacity check. Used on send: capacity is enforced at join time only.
func (r *Registry) EnsureMember(roomID, userID, connID string) (bool, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	added := room.AddParticipant(userID)
	room.AddClient(connID)
	return added, nil
}

// DetachLiveClient removes connID from the room's live clients.
func (r *Registry) DetachLiveClient(roomID, connID string) (bool, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	return room.RemoveClient(connID), nil
}

// DetachEverywhere removes connID from every room and returns the ids of
// the rooms it was live in, in registry order.
func (r *Registry) DetachEverywhere(connID string) []string {
	var touched []string
	for _, id := range r.order {
		if r.rooms[id].RemoveClient(connID) {
			touched = append(touched, id)
		}
	}
	return touched
}

// RoomsWithClient returns the ids of rooms where connID is live.
func (r *Registry) RoomsWithClient(connID string) []string {
	var out []string
	for _, id := range r.order {
		if r.rooms[id].HasClient(connID) {
			out = append(out, id)
		}
	}
	return out
}

// Snapshot projects a room. A participant is online iff their current
// connection handle is among the room's live clients.
func (r *Registry) Snapshot(roomID string) (RoomInfo, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	info := RoomInfo{
		Name:                room.Name,
		MaxParticipants:     room.MaxParticipants,
		CurrentParticipants: room.ParticipantCount(),
		Participants:        make([]ParticipantInfo, 0, room.ParticipantCount()),
	}
	for _, userID := range room.participants {
		conn := r.dir.ConnectionOf(userID)
		info.Participants = append(info.Participants, ParticipantInfo{
			Nickname: r.dir.NicknameOf(userID),
			IsOnline: conn != "" && room.HasClient(conn),
		})
	}
	return info, nil
}

// ListForUser partitions all rooms for userID.
func (r *Registry) ListForUser(userID string) RoomList {
	list := RoomList{
		Mine:      []RoomSummary{},
		Available: []RoomSummary{},
		Full:      []RoomSummary{},
	}
	for _, id := range r.order {
		room := r.rooms[id]
		switch {
		case room.HasParticipant(userID):
			list.Mine = append(list.Mine, summarize(room))
		case room.Full():
			list.Full = append(list.Full, summarize(room))
		default:
			list.Available = append(list.Available, summarize(room))
		}
	}
	return list
}

// Summaries lists every room in creation order.
func (r *Registry) Summaries() []RoomSummary {
	out := make([]RoomSummary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, summarize(r.rooms[id]))
	}
	return out
}

// RecordMessage appends msg to the room's history.
func (r *Registry) RecordMessage(roomID string, msg Message) error {
	room, ok := r.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	room.appendMessage(msg)
	return nil
}

// Records returns the persisted form of the rooms: metadata only.
func (r *Registry) Records() []store.RoomRecord {
	out := make([]store.RoomRecord, 0, len(r.order))
	for _, id := range r.order {
		room := r.rooms[id]
		out = append(out, store.RoomRecord{
			ID:              room.ID,
			Name:            room.Name,
			Participants:    room.Participants(),
			MaxParticipants: room.MaxParticipants,
		})
	}
	return out
}

// HistoryRecords returns the persisted form of a room's history.
func (r *Registry) HistoryRecords(roomID string) ([]store.MessageRecord, error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	out := make([]store.MessageRecord, 0, len(room.messages))
	for _, m := range room.messages {
		out = append(out, m.record())
	}
	return out, nil
}

// Restore adds a persisted room with its history. Live clients start empty.
func (r *Registry) Restore(rec store.RoomRecord, history []store.MessageRecord) {
	room := NewRoom(rec.ID, rec.Name, rec.MaxParticipants)
	for _, userID := range rec.Participants {
		room.AddParticipant(userID)
	}
	for _, m := range history {
		room.appendMessage(messageFromRecord(m))
	}
	r.add(room)
}

func (r *Registry) add(room *Room) {
	if _, exists := r.rooms[room.ID]; !exists {
		r.order = append(r.order, room.ID)
	}
	r.rooms[room.ID] = room
}

func summarize(room *Room) RoomSummary {
	return RoomSummary{
		ID:              room.ID,
		Name:            room.Name,
		Clients:         room.Clients(),
		Participants:    room.Participants(),
		MaxParticipants: room.MaxParticipants,
	}
}
