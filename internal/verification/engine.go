package verification

import (
	"time"

	"udyam/internal/seller"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
)

// The transition functions below are pure: they mutate the seller projection
// and the verification record in memory and leave persistence to the caller.
// Every grant path uses the same fixed provisional window.

// DecisionAction is an admin review verdict.
type DecisionAction string

const (
	DecisionApprove     DecisionAction = "approve"
	DecisionReject      DecisionAction = "reject"
	DecisionProvisional DecisionAction = "provisional"
)

func (a DecisionAction) Valid() bool {
	return a == DecisionApprove || a == DecisionReject || a == DecisionProvisional
}

// Decision carries one admin verdict into ApplyAdminDecision.
type Decision struct {
	Action          DecisionAction
	Notes           string
	RejectionReason string
	AdminID         id.AdminID
}

// ApplyRegistration finalizes onboarding after the profile is filled in. With
// documents declared the seller stays pending until documents arrive; without
// them the seller is granted provisional membership immediately.
func ApplyRegistration(s *seller.Seller, v *Verification, hasDocuments bool, documentType seller.DocumentType, altDocs []AlternateDocument, now time.Time) *Verification {
	s.HasDocuments = hasDocuments
	s.DocumentType = documentType

	if v == nil {
		v = New(s.ID, documentType, now)
	}
	v.DocumentType = s.DocumentType

	if hasDocuments {
		s.VerificationStatus = seller.VerificationPending
		v.Status = StatusPending
		v.AddHistory(historyActionForSubmission(v), id.AdminID{}, "registration completed, documents declared", now)
	} else {
		grantProvisional(s, v, now, false)
		appendAlternateDocuments(s, v, altDocs, now)
		v.AddHistory(historyActionForSubmission(v), id.AdminID{}, "registration completed without identity documents", now)
	}

	s.UpdatedAt = now
	v.UpdatedAt = now
	return v
}

// ApplyDocumentSubmission records a standard identity-document upload.
// Re-enterable: repeated submissions keep appending paths and reset the
// review to pending.
func ApplyDocumentSubmission(s *seller.Seller, v *Verification, paths []string, documentType seller.DocumentType, now time.Time) *Verification {
	if documentType == "" {
		documentType = s.DocumentType
	}
	if documentType == "" || documentType == seller.DocumentTypeNone {
		documentType = seller.DocumentTypePAN
	}

	s.DocumentPaths = append(s.DocumentPaths, paths...)
	s.HasDocuments = true
	s.DocumentType = documentType
	s.VerificationStatus = seller.VerificationPending

	if v == nil {
		v = New(s.ID, documentType, now)
	}
	action := historyActionForSubmission(v)
	v.Documents = append(v.Documents, paths...)
	v.DocumentType = documentType
	v.Status = StatusPending
	v.AddHistory(action, id.AdminID{}, "identity documents submitted", now)

	s.UpdatedAt = now
	v.UpdatedAt = now
	return v
}

// ApplyAlternateSubmission records supporting evidence on the no-standard-ID
// path and grants provisional membership. An existing expiry date is kept;
// only the first grant starts the window.
func ApplyAlternateSubmission(s *seller.Seller, v *Verification, altDocs []AlternateDocument, now time.Time) *Verification {
	if v == nil {
		v = New(s.ID, seller.DocumentTypeNone, now)
	}
	action := historyActionForSubmission(v)

	grantProvisional(s, v, now, false)
	appendAlternateDocuments(s, v, altDocs, now)
	v.AddHistory(action, id.AdminID{}, "alternate documents submitted", now)

	s.UpdatedAt = now
	v.UpdatedAt = now
	return v
}

// ApplyAdminDecision implements the three admin verdicts. Rejection reverts
// the seller to pending rather than a terminal state; a missing verification
// record is created on the fly so rejection is valid as a first-ever action.
func ApplyAdminDecision(s *seller.Seller, v *Verification, decision Decision, now time.Time) (*Verification, error) {
	if !decision.Action.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid action %q", string(decision.Action))
	}

	if v == nil {
		v = New(s.ID, s.DocumentType, now)
	}

	switch decision.Action {
	case DecisionApprove:
		s.VerificationStatus = seller.VerificationVerified
		s.UnionMembership.Status = seller.MembershipActive
		if s.UnionMembership.IssueDate == nil {
			issue := now
			s.UnionMembership.IssueDate = &issue
		}
		v.Status = StatusApproved
		v.AddHistory(ActionApproved, decision.AdminID, decision.Notes, now)

	case DecisionReject:
		s.VerificationStatus = seller.VerificationPending
		v.Status = StatusRejected
		v.RejectionReason = decision.RejectionReason
		v.AddHistory(ActionRejected, decision.AdminID, decision.Notes, now)

	case DecisionProvisional:
		// Unlike the seller-initiated path, an explicit admin grant always
		// restarts the window.
		grantProvisional(s, v, now, true)
		v.AddHistory(ActionUnderReview, decision.AdminID, decision.Notes, now)
	}

	v.AdminNotes = decision.Notes
	v.ReviewedBy = decision.AdminID
	reviewed := now
	v.ReviewedAt = &reviewed

	s.UpdatedAt = now
	v.UpdatedAt = now
	return v, nil
}

// grantProvisional moves the pair into the provisional state. When recompute
// is false an existing expiry date survives resubmission.
func grantProvisional(s *seller.Seller, v *Verification, now time.Time, recompute bool) {
	s.VerificationStatus = seller.VerificationProvisional
	s.UnionMembership.Status = seller.MembershipActive
	if s.UnionMembership.IssueDate == nil {
		issue := now
		s.UnionMembership.IssueDate = &issue
	}

	if recompute || s.UnionMembership.ExpiryDate == nil {
		expiry := now.Add(ProvisionalWindow)
		s.UnionMembership.ExpiryDate = &expiry
	}

	v.Status = StatusUnderReview
	v.ProvisionalDetails.IsProvisional = true
	v.ProvisionalDetails.ExpiryDate = s.UnionMembership.ExpiryDate
	if v.ProvisionalDetails.MaxRenewals == 0 {
		v.ProvisionalDetails.MaxRenewals = DefaultMaxRenewals
	}
}

func appendAlternateDocuments(s *seller.Seller, v *Verification, altDocs []AlternateDocument, now time.Time) {
	for _, doc := range altDocs {
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = now
		}
		v.AlternateDocuments = append(v.AlternateDocuments, doc)
		s.AlternateDocuments = append(s.AlternateDocuments, seller.AlternateDocument{
			Type:        doc.Type,
			Path:        doc.Path,
			Description: doc.Description,
		})
	}
}

// historyActionForSubmission distinguishes a first submission from one that
// follows a rejection.
func historyActionForSubmission(v *Verification) HistoryAction {
	if v.hasRejection() {
		return ActionResubmitted
	}
	return ActionSubmitted
}
