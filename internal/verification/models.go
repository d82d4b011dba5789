// Package verification owns the membership review record and the transition
// rules that keep it in sync with the seller projection.
package verification

import (
	"time"

	"udyam/internal/seller"
	id "udyam/pkg/domain"
)

// Status is the review state of a verification record.
type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusUnderReview Status = "under-review"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected || s == StatusUnderReview
}

// HistoryAction labels one entry in the append-only review ledger.
type HistoryAction string

const (
	ActionSubmitted   HistoryAction = "submitted"
	ActionUnderReview HistoryAction = "under-review"
	ActionApproved    HistoryAction = "approved"
	ActionRejected    HistoryAction = "rejected"
	ActionResubmitted HistoryAction = "resubmitted"
)

// HistoryEntry is one immutable ledger line. AdminID is zero for
// seller-initiated actions.
type HistoryEntry struct {
	Action    HistoryAction
	Timestamp time.Time
	AdminID   id.AdminID
	Notes     string
}

// ProvisionalDetails tracks a time-boxed membership grant.
type ProvisionalDetails struct {
	IsProvisional bool
	ExpiryDate    *time.Time
	RenewalCount  int
	MaxRenewals   int
}

// DefaultMaxRenewals caps how many times a provisional grant may be renewed.
const DefaultMaxRenewals = 2

// ProvisionalWindow is the fixed validity of a provisional union membership.
// Every grant path uses this same window.
const ProvisionalWindow = 90 * 24 * time.Hour

// AlternateDocument is supporting evidence with its upload time recorded.
type AlternateDocument struct {
	Type        seller.AlternateDocumentType
	Path        string
	Description string
	UploadedAt  time.Time
}

// Verification is the authoritative decision ledger for one seller. The
// seller's own verificationStatus and unionMembership fields are a projection
// of this record; both are mutated by the same transition.
type Verification struct {
	ID           id.VerificationID
	SellerID     id.SellerID
	DocumentType seller.DocumentType

	Documents          []string
	AlternateDocuments []AlternateDocument

	Status          Status
	AdminNotes      string
	RejectionReason string
	ReviewedBy      id.AdminID
	ReviewedAt      *time.Time

	History            []HistoryEntry
	ProvisionalDetails ProvisionalDetails

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a verification record for a seller. DocumentType None marks the
// alternate-document path.
func New(sellerID id.SellerID, documentType seller.DocumentType, now time.Time) *Verification {
	if documentType == "" {
		documentType = seller.DocumentTypeNone
	}
	return &Verification{
		ID:           id.NewVerificationID(),
		SellerID:     sellerID,
		DocumentType: documentType,
		Status:       StatusPending,
		ProvisionalDetails: ProvisionalDetails{
			MaxRenewals: DefaultMaxRenewals,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddHistory appends one ledger entry. History only ever grows.
func (v *Verification) AddHistory(action HistoryAction, adminID id.AdminID, notes string, now time.Time) {
	v.History = append(v.History, HistoryEntry{
		Action:    action,
		Timestamp: now,
		AdminID:   adminID,
		Notes:     notes,
	})
	v.UpdatedAt = now
}

// CanRenewProvisional reports whether another renewal is allowed. This is an
// advisory read-side check; no renewal execution path exists.
func (v *Verification) CanRenewProvisional() bool {
	if !v.ProvisionalDetails.IsProvisional {
		return false
	}
	return v.ProvisionalDetails.RenewalCount < v.ProvisionalDetails.MaxRenewals
}

// IsProvisionalExpired reports whether the grant lapsed. Computed on read;
// nothing downgrades the seller automatically.
func (v *Verification) IsProvisionalExpired(now time.Time) bool {
	if !v.ProvisionalDetails.IsProvisional || v.ProvisionalDetails.ExpiryDate == nil {
		return false
	}
	return now.After(*v.ProvisionalDetails.ExpiryDate)
}

// hasRejection reports whether the ledger records a prior rejection. Used to
// pick between submitted and resubmitted on a fresh submission.
func (v *Verification) hasRejection() bool {
	for _, entry := range v.History {
		if entry.Action == ActionRejected {
			return true
		}
	}
	return false
}
