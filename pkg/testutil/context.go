package testutil

import (
	"net/http"
	"time"

	id "udyam/pkg/domain"
	"udyam/pkg/requestcontext"
)

// WithSellerAuth stamps a request with an authenticated seller, simulating
// what the auth middleware does after token validation. Invalid IDs are
// silently ignored.
func WithSellerAuth(req *http.Request, sellerID string) *http.Request {
	parsed, err := id.ParseSellerID(sellerID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithSellerID(req.Context(), parsed))
}

// WithAdminAuth stamps a request with an authenticated admin and its
// permission set.
func WithAdminAuth(req *http.Request, adminID string, permissions []string) *http.Request {
	parsed, err := id.ParseAdminID(adminID)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithAdminID(req.Context(), parsed)
	ctx = requestcontext.WithPermissions(ctx, permissions)
	return req.WithContext(ctx)
}

// WithFrozenTime pins the request-scoped clock, keeping expiry math
// deterministic in handler tests.
func WithFrozenTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
