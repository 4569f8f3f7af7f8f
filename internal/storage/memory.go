package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory BlobStore for tests.
type MemStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Upload(_ context.Context, data []byte, contentType string) (string, string, error) {
	if err := validateBlob(data, contentType); err != nil {
		return "", "", err
	}
	id := uuid.NewString() + extensionFor(contentType)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = append([]byte{}, data...)
	return "mem://" + id, id, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, id)
	return nil
}

// Len reports how many blobs are currently stored.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
