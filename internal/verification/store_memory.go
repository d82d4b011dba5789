package verification

import (
	"context"
	"sync"
	"time"

	id "udyam/pkg/domain"
	"udyam/pkg/platform/sentinel"
)

// InMemoryStore keeps verification records in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	records  map[id.VerificationID]*Verification
	bySeller map[id.SellerID]id.VerificationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:  make(map[id.VerificationID]*Verification),
		bySeller: make(map[id.SellerID]id.VerificationID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, v *Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.bySeller[v.SellerID]; ok && existing != v.ID {
		return sentinel.ErrConflict
	}
	s.records[v.ID] = cloneVerification(v)
	s.bySeller[v.SellerID] = v.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, verificationID id.VerificationID) (*Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[verificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneVerification(v), nil
}

func (s *InMemoryStore) FindBySeller(_ context.Context, sellerID id.SellerID) (*Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	verificationID, ok := s.bySeller[sellerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneVerification(s.records[verificationID]), nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (map[Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Status]int)
	for _, v := range s.records {
		counts[v.Status]++
	}
	return counts, nil
}

func (s *InMemoryStore) CountDecidedSince(_ context.Context, status Status, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, v := range s.records {
		if v.Status != status {
			continue
		}
		if v.ReviewedAt != nil && !v.ReviewedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func cloneVerification(v *Verification) *Verification {
	out := *v
	out.Documents = append([]string{}, v.Documents...)
	out.AlternateDocuments = append([]AlternateDocument{}, v.AlternateDocuments...)
	out.History = append([]HistoryEntry{}, v.History...)
	if v.ReviewedAt != nil {
		reviewed := *v.ReviewedAt
		out.ReviewedAt = &reviewed
	}
	if v.ProvisionalDetails.ExpiryDate != nil {
		expiry := *v.ProvisionalDetails.ExpiryDate
		out.ProvisionalDetails.ExpiryDate = &expiry
	}
	return &out
}
