package verification

import (
	"context"
	"time"

	id "udyam/pkg/domain"
)

type Store interface {
	// Save upserts the record keyed by its id. The seller keeps at most one
	// verification record; FindBySeller resolves the 1:1 association.
	Save(ctx context.Context, v *Verification) error
	FindByID(ctx context.Context, verificationID id.VerificationID) (*Verification, error)
	FindBySeller(ctx context.Context, sellerID id.SellerID) (*Verification, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	CountDecidedSince(ctx context.Context, status Status, since time.Time) (int, error)
}
