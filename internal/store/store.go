package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by BlobStore.Load when the key has never been saved.
var ErrNotFound = errors.New("blob not found")

// Keys of the persisted aggregates.
const (
	KeyRooms = "rooms"
	KeyUsers = "users"

	historyKeyPrefix = "chat_history:"
)

// HistoryKey returns the key of a room's message history blob.
func HistoryKey(roomID string) string {
	return historyKeyPrefix + roomID
}

// BlobStore keeps whole-object snapshots keyed by name.
// Save must replace the previous value atomically: a reader sees either
// the old blob or the new one, never a mix.
type BlobStore interface {
	// Load returns the blob stored under key or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the blob stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Close releases the underlying resources.
	Close() error
}

// RoomRecord is the persisted room metadata. Live clients and messages
// are not part of it.
type RoomRecord struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Participants    []string `json:"participants"`
	MaxParticipants int      `json:"maxParticipants"`
}

// MessageRecord is one entry of a room's persisted history.
type MessageRecord struct {
	Message   string `json:"message"`
	ID        string `json:"id"`
	Nickname  string `json:"nickname"`
	Timestamp string `json:"timestamp"`
}

// UserRecord is one entry of the persisted user directory, keyed by user id.
type UserRecord struct {
	SocketID string `json:"socketId"`
	Nickname string `json:"nickname"`
	LastSeen string `json:"lastSeen"`
}
