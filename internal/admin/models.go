package admin

import (
	"strings"
	"time"

	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/secrets"
)

// Role determines an admin's default capabilities.
type Role string

const (
	RoleSuperAdmin Role = "super-admin"
	RoleAdmin      Role = "admin"
	RoleModerator  Role = "moderator"
)

func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleModerator
}

// Permission gates individual admin operations.
type Permission string

const (
	PermVerifySellers    Permission = "verify-sellers"
	PermManageMembership Permission = "manage-membership"
	PermViewAnalytics    Permission = "view-analytics"
	PermManageProducts   Permission = "manage-products"
	PermSupportTickets   Permission = "support-tickets"
)

// AllPermissions is the full permission set, granted to super-admins.
var AllPermissions = []Permission{
	PermVerifySellers, PermManageMembership, PermViewAnalytics,
	PermManageProducts, PermSupportTickets,
}

func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

const (
	// MaxLoginAttempts failed logins lock the account for LockDuration.
	MaxLoginAttempts = 5
	LockDuration     = 2 * time.Hour
)

// ActivityEntry is one append-only audit record of an admin action.
type ActivityEntry struct {
	Action    string
	Target    string
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Admin is one back-office account.
type Admin struct {
	ID           id.AdminID
	Username     string
	PasswordHash string
	Role         Role
	Permissions  []Permission
	IsActive     bool

	LastLogin     *time.Time
	LoginAttempts int
	LockUntil     *time.Time

	ActivityLog []ActivityEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an active admin account with a hashed password.
func New(username, password string, role Role, permissions []Permission, now time.Time) (*Admin, error) {
	username = strings.TrimSpace(username)
	if n := len(username); n < 3 || n > 50 {
		return nil, dErrors.New(dErrors.CodeValidation, "username must be between 3 and 50 characters")
	}
	if len(password) < 6 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	if role == "" {
		role = RoleAdmin
	}
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid role %q", string(role))
	}
	for _, p := range permissions {
		if !p.Valid() {
			return nil, dErrors.Newf(dErrors.CodeValidation, "invalid permission %q", string(p))
		}
	}
	hash, err := secrets.Hash(password)
	if err != nil {
		return nil, err
	}
	return &Admin{
		ID:           id.NewAdminID(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Permissions:  append([]Permission{}, permissions...),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsLocked reports whether the account is under a failed-login lockout.
func (a *Admin) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// RecordFailedLogin counts a failed attempt, locking the account once the
// budget is spent. A lapsed lock restarts the count at one.
func (a *Admin) RecordFailedLogin(now time.Time) {
	if a.LockUntil != nil && !a.LockUntil.After(now) {
		a.LockUntil = nil
		a.LoginAttempts = 1
		a.UpdatedAt = now
		return
	}
	a.LoginAttempts++
	if a.LoginAttempts >= MaxLoginAttempts && !a.IsLocked(now) {
		until := now.Add(LockDuration)
		a.LockUntil = &until
	}
	a.UpdatedAt = now
}

// RecordLogin resets the lockout state and stamps the login time.
func (a *Admin) RecordLogin(now time.Time) {
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.LastLogin = &now
	a.UpdatedAt = now
}

// EffectivePermissions is the permission set carried in tokens. Super-admins
// hold every permission regardless of the stored set.
func (a *Admin) EffectivePermissions() []Permission {
	if a.Role == RoleSuperAdmin {
		return append([]Permission{}, AllPermissions...)
	}
	return append([]Permission{}, a.Permissions...)
}

// LogActivity appends one audit entry. The log is append-only.
func (a *Admin) LogActivity(action, target, ipAddress, userAgent string, now time.Time) {
	a.ActivityLog = append(a.ActivityLog, ActivityEntry{
		Action:    action,
		Target:    target,
		Timestamp: now,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
	a.UpdatedAt = now
}
