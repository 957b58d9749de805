// Package cache provides a keyed read-through cache for server state that the
// frontend polls repeatedly: availability results, schedule lists, entity
// lists. Each write path invalidates exactly the keys it affects, using the
// key builders below.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store is a cache backend. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
}

// Key builders. Availability entries are keyed per doctor/date/specialty so a
// schedule or booking write for one doctor only evicts that doctor's entries.

func AvailabilityKey(doctorID, date, specialtyID string) string {
	return "avail:" + doctorID + ":" + date + ":" + specialtyID
}

func DoctorPrefix(doctorID string) string {
	return "avail:" + doctorID + ":"
}

// Entity lists are keyed per filter/page under a shared prefix. Reads go
// through ListKey; writes evict every cached page with ListPrefix, since a
// single row change can move between filtered pages.

func ListKey(entity string, parts ...string) string {
	return ListPrefix(entity) + strings.Join(parts, ":")
}

func ListPrefix(entity string) string {
	return "list:" + entity + ":"
}

// DefaultListTTL bounds staleness of cached entity lists between write
// evictions.
const DefaultListTTL = time.Minute

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-memory Store with lazy expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*entry)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.data, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = &entry{data: value, expiresAt: time.Now().Add(ttl)}
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) DeleteByPrefix(_ context.Context, prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// StartCleanup runs a background goroutine that periodically removes expired
// entries. It stops when the context is cancelled.
func (m *Memory) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.mu.Lock()
				now := time.Now()
				for k, e := range m.entries {
					if now.After(e.expiresAt) {
						delete(m.entries, k)
					}
				}
				m.mu.Unlock()
			}
		}
	}()
}
