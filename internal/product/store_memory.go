package product

import (
	"context"
	"sort"
	"strings"
	"sync"

	"udyam/internal/seller"
	id "udyam/pkg/domain"
	"udyam/pkg/platform/sentinel"
)

// sellerFinder resolves seller verification status for the verified-only
// listing filter.
type sellerFinder interface {
	FindByID(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error)
}

// InMemoryStore keeps products in process memory. Used in tests and dev mode.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[id.ProductID]*Product
	sellers  sellerFinder
}

func NewInMemoryStore(sellers sellerFinder) *InMemoryStore {
	return &InMemoryStore{
		products: make(map[id.ProductID]*Product),
		sellers:  sellers,
	}
}

func (s *InMemoryStore) Create(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, productID id.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[productID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.products, productID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, productID id.ProductID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (s *InMemoryStore) List(ctx context.Context, filter ListFilter) ([]*Product, int, error) {
	s.mu.RLock()
	candidates := make([]*Product, 0, len(s.products))
	for _, p := range s.products {
		if matchesProduct(p, filter) {
			candidates = append(candidates, p)
		}
	}
	s.mu.RUnlock()

	matched := candidates[:0]
	for _, p := range candidates {
		if filter.VerifiedOnly {
			sl, err := s.sellers.FindByID(ctx, p.SellerID)
			if err != nil || sl.VerificationStatus != seller.VerificationVerified {
				continue
			}
		}
		matched = append(matched, p)
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
		return []*Product{}, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	page := make([]*Product, len(matched))
	for i, p := range matched {
		page[i] = cloneProduct(p)
	}
	return page, total, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total, active := 0, 0
	for _, p := range s.products {
		total++
		if p.Status == StatusActive {
			active++
		}
	}
	return total, active, nil
}

func matchesProduct(p *Product, filter ListFilter) bool {
	if !filter.SellerID.IsZero() && p.SellerID != filter.SellerID {
		return false
	}
	if filter.Status != "" && p.Status != filter.Status {
		return false
	}
	if filter.Category != "" && p.Category != filter.Category {
		return false
	}
	if filter.MinPrice != nil && p.Price < *filter.MinPrice {
		return false
	}
	if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) &&
			!hasTag(p, needle) {
			return false
		}
	}
	return true
}

func hasTag(p *Product, needle string) bool {
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func cloneProduct(p *Product) *Product {
	out := *p
	out.Tags = append([]string{}, p.Tags...)
	out.Images = append([]string{}, p.Images...)
	out.Specifications = make(map[string]string, len(p.Specifications))
	for k, v := range p.Specifications {
		out.Specifications[k] = v
	}
	return &out
}
