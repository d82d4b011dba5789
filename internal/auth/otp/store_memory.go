package otp

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps challenges in process memory. Lapsed entries are
// dropped lazily on read.
type InMemoryStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
	clock      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		challenges: make(map[string]Challenge),
		clock:      time.Now,
	}
}

func (s *InMemoryStore) Save(_ context.Context, phone string, challenge Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[phone] = challenge
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, phone string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.challenges[phone]
	if !ok {
		return nil, nil
	}
	if challenge.Expired(s.clock()) {
		delete(s.challenges, phone)
		return nil, nil
	}
	return &challenge, nil
}

func (s *InMemoryStore) RecordAttempt(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.challenges[phone]
	if !ok {
		return nil
	}
	challenge.Attempts++
	s.challenges[phone] = challenge
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, phone)
	return nil
}
