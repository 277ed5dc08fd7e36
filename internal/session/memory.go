package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore is an in-process session store. Entries older than the idle TTL
// are evicted lazily on access, so an abandoned flow does not occupy its slot
// forever.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a memory store with the given idle TTL.
// A TTL of zero disables eviction.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// Get returns the contact's session, or nil when idle or expired.
func (m *MemoryStore) Get(_ context.Context, contactID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[contactID]
	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && m.now().After(entry.expiresAt) {
		delete(m.entries, contactID)
		return nil, nil
	}
	return entry.session, nil
}

// Put stores the session and refreshes its idle deadline.
func (m *MemoryStore) Put(_ context.Context, contactID string, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[contactID] = memoryEntry{
		session:   s,
		expiresAt: m.now().Add(m.ttl),
	}
	return nil
}

// Delete removes the contact's session.
func (m *MemoryStore) Delete(_ context.Context, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, contactID)
	return nil
}
