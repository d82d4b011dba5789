package product

import (
	"context"

	"udyam/internal/seller"
	id "udyam/pkg/domain"
)

// ListFilter narrows and pages product listings. Zero values mean "no
// constraint". VerifiedOnly restricts results to products whose seller holds
// verified status; the public listing always sets it.
type ListFilter struct {
	SellerID     id.SellerID
	Status       Status
	Category     seller.Category
	MinPrice     *float64
	MaxPrice     *float64
	Search       string
	VerifiedOnly bool
	Limit        int
	Offset       int
}

type Store interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	// Delete removes the listing. Returns sentinel.ErrNotFound when absent.
	Delete(ctx context.Context, productID id.ProductID) error
	FindByID(ctx context.Context, productID id.ProductID) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, int, error)
	Count(ctx context.Context) (total, active int, err error)
}
