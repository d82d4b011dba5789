package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	jwttoken "udyam/internal/jwt_token"
	"udyam/pkg/requestcontext"
)

// SellerTokenValidator validates seller access tokens.
type SellerTokenValidator interface {
	ValidateSellerToken(tokenString string) (*jwttoken.SellerClaims, error)
}

// AdminTokenValidator validates admin access tokens.
type AdminTokenValidator interface {
	ValidateAdminToken(tokenString string) (*jwttoken.AdminClaims, error)
}

func bearerToken(r *http.Request) (string, bool) {
	return strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

// RequireSellerAuth authenticates sellers via Bearer token and injects the
// seller ID into the request context.
func RequireSellerAuth(validator SellerTokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateSellerToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithSellerID(ctx, claims.Seller())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminAuth authenticates admins via Bearer token and injects the
// admin ID and permission set into the request context.
func RequireAdminAuth(validator AdminTokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized admin access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateAdminToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized admin access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithAdminID(ctx, claims.Admin())
			ctx = requestcontext.WithPermissions(ctx, claims.Permissions)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates a route on an admin permission. The super-admin
// role bypasses individual permission checks; the validator encodes that by
// including every permission in its claims.
func RequirePermission(permission string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !slices.Contains(requestcontext.Permissions(ctx), permission) {
				logger.WarnContext(ctx, "forbidden admin action",
					"request_id", requestcontext.RequestID(ctx),
					"admin_id", requestcontext.AdminID(ctx),
					"permission", permission,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"permission '` + permission + `' required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
