package handler

import (
	"time"

	"udyam/internal/seller"
	"udyam/internal/verification"
)

// SellerResponse is the wire representation of a seller profile. Document
// paths stay server-side; only counts are exposed.
type SellerResponse struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
	Village string `json:"village,omitempty"`

	Categories []string `json:"categories,omitempty"`
	Language   string   `json:"language,omitempty"`
	Scale      string   `json:"scale,omitempty"`
	Capacity   string   `json:"capacity,omitempty"`

	HasDocuments       bool   `json:"has_documents"`
	DocumentType       string `json:"document_type,omitempty"`
	DocumentCount      int    `json:"document_count"`
	AlternateDocuments int    `json:"alternate_document_count"`

	VerificationStatus string             `json:"verification_status"`
	UnionMembership    MembershipResponse `json:"union_membership"`
	ReferralCode       string             `json:"referral_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MembershipResponse is the union membership portion of the response.
type MembershipResponse struct {
	ID         string     `json:"id"`
	IssueDate  *time.Time `json:"issue_date,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	Status     string     `json:"status"`
}

// FromSeller converts a domain seller to its HTTP representation.
func FromSeller(s *seller.Seller) *SellerResponse {
	categories := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		categories = append(categories, string(c))
	}
	return &SellerResponse{
		ID:                 s.ID.String(),
		Phone:              s.Phone,
		Name:               s.Name,
		Email:              s.Email,
		Region:             s.Region,
		City:               s.City,
		Village:            s.Village,
		Categories:         categories,
		Language:           string(s.Language),
		Scale:              string(s.Scale),
		Capacity:           s.Capacity,
		HasDocuments:       s.HasDocuments,
		DocumentType:       string(s.DocumentType),
		DocumentCount:      len(s.DocumentPaths),
		AlternateDocuments: len(s.AlternateDocuments),
		VerificationStatus: string(s.VerificationStatus),
		UnionMembership: MembershipResponse{
			ID:         s.UnionMembership.ID,
			IssueDate:  s.UnionMembership.IssueDate,
			ExpiryDate: s.UnionMembership.ExpiryDate,
			Status:     string(s.UnionMembership.Status),
		},
		ReferralCode: s.ReferralCode,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// TicketResponse is the wire representation of a support ticket.
type TicketResponse struct {
	ID          string    `json:"id"`
	Issue       string    `json:"issue"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromTicket converts a domain support ticket to its HTTP representation.
func FromTicket(t seller.SupportTicket) TicketResponse {
	return TicketResponse{
		ID:          t.ID.String(),
		Issue:       t.Issue,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// StatusResponse is the response for GET /seller/verification-status.
type StatusResponse struct {
	Seller               *SellerResponse          `json:"seller"`
	Verification         *VerificationResponse    `json:"verification,omitempty"`
	Provisional          *ProvisionalInfoResponse `json:"provisional,omitempty"`
	IsProvisionalExpired bool                     `json:"is_provisional_expired"`
	CanRenew             bool                     `json:"can_renew"`
}

// VerificationResponse is the verification record portion of the status
// response.
type VerificationResponse struct {
	ID              string            `json:"id"`
	Status          string            `json:"status"`
	DocumentType    string            `json:"document_type,omitempty"`
	DocumentCount   int               `json:"document_count"`
	AdminNotes      string            `json:"admin_notes,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	History         []HistoryResponse `json:"history"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// HistoryResponse is one audit trail entry.
type HistoryResponse struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

// ProvisionalInfoResponse summarizes the provisional membership state.
type ProvisionalInfoResponse struct {
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	RenewalCount int        `json:"renewal_count"`
	MaxRenewals  int        `json:"max_renewals"`
}

// FromStatusReport converts the verification read model to its HTTP
// representation.
func FromStatusReport(report *verification.StatusReport) *StatusResponse {
	resp := &StatusResponse{
		Seller:               FromSeller(report.Seller),
		IsProvisionalExpired: report.IsProvisionalExpired,
		CanRenew:             report.CanRenew,
	}
	if v := report.Verification; v != nil {
		resp.Verification = FromVerification(v)
		if v.ProvisionalDetails.IsProvisional {
			resp.Provisional = &ProvisionalInfoResponse{
				ExpiryDate:   v.ProvisionalDetails.ExpiryDate,
				RenewalCount: v.ProvisionalDetails.RenewalCount,
				MaxRenewals:  v.ProvisionalDetails.MaxRenewals,
			}
		}
	}
	return resp
}

// FromVerification converts one verification record.
func FromVerification(v *verification.Verification) *VerificationResponse {
	history := make([]HistoryResponse, 0, len(v.History))
	for _, entry := range v.History {
		history = append(history, HistoryResponse{
			Action:    string(entry.Action),
			Timestamp: entry.Timestamp,
			Notes:     entry.Notes,
		})
	}
	return &VerificationResponse{
		ID:              v.ID.String(),
		Status:          string(v.Status),
		DocumentType:    string(v.DocumentType),
		DocumentCount:   len(v.Documents),
		AdminNotes:      v.AdminNotes,
		RejectionReason: v.RejectionReason,
		ReviewedAt:      v.ReviewedAt,
		History:         history,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}
