package ingest

import (
	"context"
	"strings"
	"sync"
)

const memoryScheme = "photo://"

// MemoryStore keeps photos in process memory for the session's lifetime.
type MemoryStore struct {
	mu     sync.RWMutex
	photos map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{photos: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, hash, _ string, data []byte) (string, error) {
	ref := memoryScheme + hash
	cp := append([]byte(nil), data...)
	m.mu.Lock()
	m.photos[ref] = cp
	m.mu.Unlock()
	return ref, nil
}

func (m *MemoryStore) Get(_ context.Context, ref string) ([]byte, error) {
	m.mu.RLock()
	b, ok := m.photos[ref]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownRef
	}
	return b, nil
}

func (m *MemoryStore) Owns(ref string) bool { return strings.HasPrefix(ref, memoryScheme) }

// Forget drops a photo once no scan or saved item needs it.
func (m *MemoryStore) Forget(ref string) {
	m.mu.Lock()
	delete(m.photos, ref)
	m.mu.Unlock()
}
