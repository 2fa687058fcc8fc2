package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store with TTL expiry, used for tests and
// storeless deployments.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	state     []byte
	aux       []byte
	expiresAt time.Time
}

// NewMemory creates an in-memory store. A zero ttl disables expiry.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]memoryEntry)}
}

// Save stores the blobs under the session id
func (m *Memory) Save(_ context.Context, sessionID string, state, aux []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{
		state: append([]byte(nil), state...),
		aux:   append([]byte(nil), aux...),
	}
	if m.ttl > 0 {
		entry.expiresAt = time.Now().Add(m.ttl)
	}
	m.entries[sessionID] = entry
	return nil
}

// Load returns the blobs for the session id, or ErrNotFound
func (m *Memory) Load(_ context.Context, sessionID string) ([]byte, []byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[sessionID]
	m.mu.RUnlock()

	if !ok {
		return nil, nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, sessionID)
		m.mu.Unlock()
		return nil, nil, ErrNotFound
	}
	// Callers get copies, never the stored backing arrays.
	state := append([]byte(nil), entry.state...)
	aux := append([]byte(nil), entry.aux...)
	return state, aux, nil
}

// Delete removes the session's blobs
func (m *Memory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}
