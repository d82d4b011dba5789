package seller

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	id "udyam/pkg/domain"
	"udyam/pkg/platform/sentinel"
)

// InMemoryStore keeps sellers in process memory. Used in tests and dev mode.
type InMemoryStore struct {
	mu      sync.RWMutex
	sellers map[id.SellerID]*Seller
	byPhone map[string]id.SellerID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sellers: make(map[id.SellerID]*Seller),
		byPhone: make(map[string]id.SellerID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, seller *Seller) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byPhone[seller.Phone]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.sellers[seller.ID]; exists {
		return sentinel.ErrConflict
	}
	s.sellers[seller.ID] = clone(seller)
	s.byPhone[seller.Phone] = seller.ID
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, seller *Seller) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sellers[seller.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.sellers[seller.ID] = clone(seller)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, sellerID id.SellerID) (*Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seller, ok := s.sellers[sellerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(seller), nil
}

func (s *InMemoryStore) FindByPhone(_ context.Context, phone string) (*Seller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sellerID, ok := s.byPhone[phone]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.sellers[sellerID]), nil
}

func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]*Seller, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*Seller, 0, len(s.sellers))
	for _, seller := range s.sellers {
		if matches(seller, filter) {
			matched = append(matched, seller)
		}
	}
	// Newest first, id as tiebreaker for a stable page order.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	if filter.Offset >= total {
		return []*Seller{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	page := make([]*Seller, len(matched))
	for i, seller := range matched {
		page[i] = clone(seller)
	}
	return page, total, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts StatusCounts
	for _, seller := range s.sellers {
		switch seller.VerificationStatus {
		case VerificationPending:
			counts.Pending++
		case VerificationProvisional:
			counts.Provisional++
		case VerificationVerified:
			counts.Verified++
		}
	}
	return counts, nil
}

func (s *InMemoryStore) CountRegisteredSince(_ context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, seller := range s.sellers {
		if !seller.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) RegistrationTrend(_ context.Context, since time.Time) ([]DailyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDay := make(map[time.Time]int)
	for _, seller := range s.sellers {
		if seller.CreatedAt.Before(since) {
			continue
		}
		day := seller.CreatedAt.UTC().Truncate(24 * time.Hour)
		byDay[day]++
	}
	trend := make([]DailyCount, 0, len(byDay))
	for day, count := range byDay {
		trend = append(trend, DailyCount{Date: day, Count: count})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date.Before(trend[j].Date) })
	return trend, nil
}

func (s *InMemoryStore) CategoryDistribution(_ context.Context) ([]Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byCategory := make(map[string]int)
	for _, seller := range s.sellers {
		for _, c := range seller.Categories {
			byCategory[string(c)]++
		}
	}
	return toDistribution(byCategory), nil
}

func (s *InMemoryStore) RegionDistribution(_ context.Context) ([]Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byRegion := make(map[string]int)
	for _, seller := range s.sellers {
		if seller.Region == "" {
			continue
		}
		byRegion[seller.Region]++
	}
	return toDistribution(byRegion), nil
}

func toDistribution(counts map[string]int) []Distribution {
	out := make([]Distribution, 0, len(counts))
	for key, count := range counts {
		out = append(out, Distribution{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func matches(seller *Seller, filter ListFilter) bool {
	if filter.Status != "" && seller.VerificationStatus != filter.Status {
		return false
	}
	if filter.Category != "" && !hasCategory(seller, filter.Category) {
		return false
	}
	if filter.Region != "" && !strings.EqualFold(seller.Region, filter.Region) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(seller.Name), needle) &&
			!strings.Contains(seller.Phone, filter.Search) &&
			!strings.Contains(strings.ToLower(seller.UnionMembership.ID), needle) {
			return false
		}
	}
	return true
}

func hasCategory(seller *Seller, category Category) bool {
	for _, c := range seller.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func clone(seller *Seller) *Seller {
	out := *seller
	out.Categories = append([]Category{}, seller.Categories...)
	out.DocumentPaths = append([]string{}, seller.DocumentPaths...)
	out.AlternateDocuments = append([]AlternateDocument{}, seller.AlternateDocuments...)
	out.SupportTickets = append([]SupportTicket{}, seller.SupportTickets...)
	if seller.UnionMembership.IssueDate != nil {
		issue := *seller.UnionMembership.IssueDate
		out.UnionMembership.IssueDate = &issue
	}
	if seller.UnionMembership.ExpiryDate != nil {
		expiry := *seller.UnionMembership.ExpiryDate
		out.UnionMembership.ExpiryDate = &expiry
	}
	return &out
}
