package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/places"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

// ErrNotFound is returned when a search id is unknown or has been evicted.
var ErrNotFound = errors.New("search not found")

// Record pairs the slots that produced a search with its full ranked
// results. Immutable once saved.
type Record struct {
	Slots   session.Slots      `json:"slots"`
	Results []places.Candidate `json:"results"`
}

// Store keeps completed searches for the dashboard. Saved records are
// read-only; retention is implementation-defined (capacity or TTL bounded).
type Store interface {
	Save(ctx context.Context, searchID string, rec Record) error
	Lookup(ctx context.Context, searchID string) (Record, error)
}

// Memory is an in-process store with FIFO eviction once capacity is
// reached. capacity <= 0 means unbounded.
type Memory struct {
	mu       sync.RWMutex
	records  map[string]Record
	order    []string
	capacity int
}

// NewMemory creates a capacity-bounded in-memory store.
func NewMemory(capacity int) *Memory {
	return &Memory{
		records:  make(map[string]Record),
		capacity: capacity,
	}
}

func (m *Memory) Save(_ context.Context, searchID string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[searchID]; !exists {
		m.order = append(m.order, searchID)
	}
	m.records[searchID] = rec

	for m.capacity > 0 && len(m.order) > m.capacity {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.records, oldest)
	}
	return nil
}

func (m *Memory) Lookup(_ context.Context, searchID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[searchID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Len returns the number of retained searches.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
