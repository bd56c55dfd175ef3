// Package memory is a process-local store.BlobStore.
package memory

import (
	"context"
	"sync"

	"github.com/vovakirdan/roomchat-server/internal/store"
)

// Store keeps blobs in a map. Values are copied on the way in and out.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ store.BlobStore = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

// Keys returns the number of stored blobs.
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func (s *Store) Close() error {
	return nil
}
