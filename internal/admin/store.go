package admin

import (
	"context"

	id "udyam/pkg/domain"
)

type Store interface {
	// Create persists a new admin. Returns sentinel.ErrConflict when the
	// username is taken.
	Create(ctx context.Context, a *Admin) error
	Update(ctx context.Context, a *Admin) error
	FindByID(ctx context.Context, adminID id.AdminID) (*Admin, error)
	FindByUsername(ctx context.Context, username string) (*Admin, error)
}
