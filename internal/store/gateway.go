package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Gateway reads and writes the three persisted aggregates as JSON blobs.
type Gateway struct {
	blobs BlobStore
}

// NewGateway wraps a BlobStore.
func NewGateway(blobs BlobStore) *Gateway {
	return &Gateway{blobs: blobs}
}

// LoadRooms returns the persisted rooms in their saved order.
// A missing blob yields an empty slice.
func (g *Gateway) LoadRooms(ctx context.Context) ([]RoomRecord, error) {
	rooms := []RoomRecord{}
	if err := g.load(ctx, KeyRooms, &rooms); err != nil {
		return nil, err
	}
	for i := range rooms {
		if rooms[i].Participants == nil {
			rooms[i].Participants = []string{}
		}
	}
	return rooms, nil
}

// SaveRooms replaces the rooms aggregate.
func (g *Gateway) SaveRooms(ctx context.Context, rooms []RoomRecord) error {
	if rooms == nil {
		rooms = []RoomRecord{}
	}
	return g.save(ctx, KeyRooms, rooms)
}

// LoadHistory returns the persisted history of a room.
func (g *Gateway) LoadHistory(ctx context.Context, roomID string) ([]MessageRecord, error) {
	messages := []MessageRecord{}
	if err := g.load(ctx, HistoryKey(roomID), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SaveHistory replaces the history of a room.
func (g *Gateway) SaveHistory(ctx context.Context, roomID string, messages []MessageRecord) error {
	if messages == nil {
		messages = []MessageRecord{}
	}
	return g.save(ctx, HistoryKey(roomID), messages)
}

// LoadUsers returns the persisted user directory.
func (g *Gateway) LoadUsers(ctx context.Context) (map[string]UserRecord, error) {
	users := map[string]UserRecord{}
	if err := g.load(ctx, KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveUsers replaces the user directory.
func (g *Gateway) SaveUsers(ctx context.Context, users map[string]UserRecord) error {
	if users == nil {
		users = map[string]UserRecord{}
	}
	return g.save(ctx, KeyUsers, users)
}

// Close closes the underlying BlobStore.
func (g *Gateway) Close() error {
	return g.blobs.Close()
}

func (g *Gateway) load(ctx context.Context, key string, dst any) error {
	data, err := g.blobs.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (g *Gateway) save(ctx context.Context, key string, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := g.blobs.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
