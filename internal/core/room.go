package core

// Room keeps two membership sets that are never conflated:
// participants (durable, first-join order, counted against capacity) and
// clients (live connection handles subscribed to the room's broadcasts).
type Room struct {
	ID              string
	Name            string
	MaxParticipants int

	participants []string
	members      map[string]struct{}
	clients      []string
	clientSet    map[string]struct{}
	messages     []Message
}

// NewRoom constructs a room with no participants or clients.
func NewRoom(id, name string, maxParticipants int) *Room {
	return &Room{
		ID:              id,
		Name:            name,
		MaxParticipants: maxParticipants,
		participants:    []string{},
		members:         make(map[string]struct{}),
		clients:         []string{},
		clientSet:       make(map[string]struct{}),
		messages:        []Message{},
	}
}

// HasParticipant reports durable membership.
func (r *Room) HasParticipant(userID string) bool {
	_, ok := r.members[userID]
	return ok
}

// AddParticipant appends a user to the participants. Returns true if newly added.
func (r *Room) AddParticipant(userID string) bool {
	if r.HasParticipant(userID) {
		return false
	}
	r.members[userID] = struct{}{}
	r.participants = append(r.participants, userID)
	return true
}

// HasClient reports whether a connection is live in the room.
func (r *Room) HasClient(connID string) bool {
	_, ok := r.clientSet[connID]
	return ok
}

// AddClient inserts a connection. Returns true if newly added.
func (r *Room) AddClient(connID string) bool {
	if r.HasClient(connID) {
		return false
	}
	r.clientSet[connID] = struct{}{}
	r.clients = append(r.clients, connID)
	return true
}

// RemoveClient deletes a connection. Returns true if removed.
func (r *Room) RemoveClient(connID string) bool {
	if !r.HasClient(connID) {
		return false
	}
	delete(r.clientSet, connID)
	for i, id := range r.clients {
		if id == connID {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			break
		}
	}
	return true
}

// Full reports whether the participants reached capacity.
func (r *Room) Full() bool {
	return len(r.participants) >= r.MaxParticipants
}

// ParticipantCount returns the number of durable members.
func (r *Room) ParticipantCount() int {
	return len(r.participants)
}

// Participants returns a copy of the participants in first-join order.
func (r *Room) Participants() []string {
	return append([]string{}, r.participants...)
}

// Clients returns a copy of the live connection handles.
func (r *Room) Clients() []string {
	return append([]string{}, r.clients...)
}

// Messages returns a copy of the history in append order.
func (r *Room) Messages() []Message {
	return append([]Message{}, r.messages...)
}

func (r *Room) appendMessage(msg Message) {
	r.messages = append(r.messages, msg)
}
