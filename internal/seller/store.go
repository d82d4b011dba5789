package seller

import (
	"context"
	"time"

	id "udyam/pkg/domain"
)

// ListFilter narrows and pages admin seller listings. Zero values mean "no
// constraint". Search matches name, phone and union membership id.
type ListFilter struct {
	Status   VerificationStatus
	Category Category
	Region   string
	Search   string
	Limit    int
	Offset   int
}

// StatusCounts aggregates sellers per verification status for the dashboard.
type StatusCounts struct {
	Pending     int
	Provisional int
	Verified    int
}

func (c StatusCounts) Total() int {
	return c.Pending + c.Provisional + c.Verified
}

// DailyCount is one day of the registration trend, keyed by UTC date.
type DailyCount struct {
	Date  time.Time
	Count int
}

// Distribution is one bucket of a grouped count, sorted by count descending.
type Distribution struct {
	Key   string
	Count int
}

type Store interface {
	// Create persists a new seller. Returns sentinel.ErrConflict when the
	// phone is already registered.
	Create(ctx context.Context, s *Seller) error
	Update(ctx context.Context, s *Seller) error
	FindByID(ctx context.Context, sellerID id.SellerID) (*Seller, error)
	FindByPhone(ctx context.Context, phone string) (*Seller, error)
	List(ctx context.Context, filter ListFilter) ([]*Seller, int, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)
	CountRegisteredSince(ctx context.Context, since time.Time) (int, error)

	// RegistrationTrend groups registrations since the cutoff by UTC day,
	// oldest first. Days with no registrations are omitted.
	RegistrationTrend(ctx context.Context, since time.Time) ([]DailyCount, error)
	// CategoryDistribution counts sellers per category. A seller with several
	// categories contributes to each.
	CategoryDistribution(ctx context.Context) ([]Distribution, error)
	RegionDistribution(ctx context.Context) ([]Distribution, error)
}
