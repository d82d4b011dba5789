// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and handlers read them. Keeping the
// package free of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	sellerID := requestcontext.SellerID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "udyam/pkg/domain"
)

type (
	sellerIDKey    struct{}
	adminIDKey     struct{}
	permissionsKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// SellerID retrieves the authenticated seller ID from the context.
// Returns the zero value if not set.
func SellerID(ctx context.Context) id.SellerID {
	if sellerID, ok := ctx.Value(sellerIDKey{}).(id.SellerID); ok {
		return sellerID
	}
	return id.SellerID{}
}

// WithSellerID injects a seller ID into the context.
func WithSellerID(ctx context.Context, sellerID id.SellerID) context.Context {
	return context.WithValue(ctx, sellerIDKey{}, sellerID)
}

// AdminID retrieves the authenticated admin ID from the context.
func AdminID(ctx context.Context) id.AdminID {
	if adminID, ok := ctx.Value(adminIDKey{}).(id.AdminID); ok {
		return adminID
	}
	return id.AdminID{}
}

// WithAdminID injects an admin ID into the context.
func WithAdminID(ctx context.Context, adminID id.AdminID) context.Context {
	return context.WithValue(ctx, adminIDKey{}, adminID)
}

// Permissions retrieves the authenticated admin's permission set.
func Permissions(ctx context.Context) []string {
	if perms, ok := ctx.Value(permissionsKey{}).([]string); ok {
		return perms
	}
	return nil
}

// WithPermissions injects an admin permission set into the context.
func WithPermissions(ctx context.Context, perms []string) context.Context {
	return context.WithValue(ctx, permissionsKey{}, perms)
}

// RequestID retrieves the request ID from the context, or "" if unset.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context, falling back to
// time.Now so non-HTTP callers (tests, workers) never see a zero time. All
// operations within one request observe the same "now", which keeps
// provisional-expiry math and history timestamps consistent.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
