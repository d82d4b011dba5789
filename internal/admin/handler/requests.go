package handler

import (
	"strings"

	"udyam/internal/admin"
	"udyam/internal/seller"
	"udyam/internal/verification"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
)

// LoginRequest is the body for POST /admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "username and password are required")
	}
	return nil
}

// VerifyRequest is the body for PUT /admin/verify/{sellerID}.
type VerifyRequest struct {
	Action          string `json:"action"`
	Notes           string `json:"notes"`
	RejectionReason string `json:"rejection_reason"`
}

func (r *VerifyRequest) Decision(adminID id.AdminID) (verification.Decision, error) {
	action := verification.DecisionAction(strings.TrimSpace(r.Action))
	if !action.Valid() {
		return verification.Decision{}, dErrors.Newf(dErrors.CodeValidation,
			"action must be one of approve, reject, provisional")
	}
	return verification.Decision{
		Action:          action,
		Notes:           strings.TrimSpace(r.Notes),
		RejectionReason: strings.TrimSpace(r.RejectionReason),
		AdminID:         adminID,
	}, nil
}

// MembershipRequest is the body for PUT /admin/membership/{sellerID}.
type MembershipRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (r *MembershipRequest) MembershipStatus() seller.MembershipStatus {
	return seller.MembershipStatus(strings.TrimSpace(r.Status))
}

// CreateAdminRequest is the body for POST /admin/accounts.
type CreateAdminRequest struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (r *CreateAdminRequest) PermissionList() []admin.Permission {
	permissions := make([]admin.Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		permissions = append(permissions, admin.Permission(p))
	}
	return permissions
}
