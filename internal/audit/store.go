package audit

import (
	"context"
	"sync"

	id "udyam/pkg/domain"
)

// Store persists audit events. It is append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAdmin(ctx context.Context, adminID id.AdminID) ([]Event, error)
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// InMemoryStore keeps events in memory, oldest first.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByAdmin(_ context.Context, adminID id.AdminID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.AdminID == adminID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Recent returns up to limit of the newest events, newest first.
func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
