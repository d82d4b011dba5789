package admin

import (
	"context"
	"sync"

	id "udyam/pkg/domain"
	"udyam/pkg/platform/sentinel"
)

// InMemoryStore keeps admin accounts in process memory. Used in tests and
// dev mode.
type InMemoryStore struct {
	mu         sync.RWMutex
	admins     map[id.AdminID]*Admin
	byUsername map[string]id.AdminID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		admins:     make(map[id.AdminID]*Admin),
		byUsername: make(map[string]id.AdminID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, a *Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUsername[a.Username]; exists {
		return sentinel.ErrConflict
	}
	s.admins[a.ID] = cloneAdmin(a)
	s.byUsername[a.Username] = a.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, a *Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.admins[a.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.admins[a.ID] = cloneAdmin(a)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, adminID id.AdminID) (*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[adminID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAdmin(a), nil
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	adminID, ok := s.byUsername[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAdmin(s.admins[adminID]), nil
}

func cloneAdmin(a *Admin) *Admin {
	out := *a
	out.Permissions = append([]Permission{}, a.Permissions...)
	out.ActivityLog = append([]ActivityEntry{}, a.ActivityLog...)
	if a.LastLogin != nil {
		last := *a.LastLogin
		out.LastLogin = &last
	}
	if a.LockUntil != nil {
		lock := *a.LockUntil
		out.LockUntil = &lock
	}
	return &out
}
