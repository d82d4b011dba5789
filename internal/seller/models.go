// Package seller holds the seller record, its union membership projection and
// the enums governing registration.
package seller

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
)

// Category labels the kind of business a seller runs.
type Category string

const (
	CategoryAgriculture    Category = "Agriculture"
	CategoryHandicrafts    Category = "Handicrafts"
	CategoryServices       Category = "Services"
	CategoryManufacturing  Category = "Manufacturing"
	CategoryTextiles       Category = "Textiles"
	CategoryFoodProcessing Category = "Food Processing"
	CategoryTechnology     Category = "Technology"
	CategoryOther          Category = "Other"
)

var validCategories = map[Category]struct{}{
	CategoryAgriculture: {}, CategoryHandicrafts: {}, CategoryServices: {},
	CategoryManufacturing: {}, CategoryTextiles: {}, CategoryFoodProcessing: {},
	CategoryTechnology: {}, CategoryOther: {},
}

func (c Category) Valid() bool {
	_, ok := validCategories[c]
	return ok
}

// Scale is the declared size of the business.
type Scale string

const (
	ScaleMicro  Scale = "Micro"
	ScaleSmall  Scale = "Small"
	ScaleMedium Scale = "Medium"
)

func (s Scale) Valid() bool {
	return s == ScaleMicro || s == ScaleSmall || s == ScaleMedium
}

// Language is the seller's preferred communication language.
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageHindi   Language = "Hindi"
	LanguageBoth    Language = "Both"
)

func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageHindi || l == LanguageBoth
}

// DocumentType is the declared identity document. DocumentTypeNone marks the
// alternate-document path.
type DocumentType string

const (
	DocumentTypePAN            DocumentType = "PAN"
	DocumentTypeAadhaar        DocumentType = "Aadhaar"
	DocumentTypeVoterID        DocumentType = "Voter ID"
	DocumentTypeDrivingLicense DocumentType = "Driving License"
	DocumentTypeRationCard     DocumentType = "Ration Card"
	DocumentTypeNone           DocumentType = "None"
)

var validDocumentTypes = map[DocumentType]struct{}{
	DocumentTypePAN: {}, DocumentTypeAadhaar: {}, DocumentTypeVoterID: {},
	DocumentTypeDrivingLicense: {}, DocumentTypeRationCard: {}, DocumentTypeNone: {},
}

func (d DocumentType) Valid() bool {
	_, ok := validDocumentTypes[d]
	return ok
}

// AlternateDocumentType labels supporting evidence for sellers without a
// standard identity document.
type AlternateDocumentType string

const (
	AlternateDocShopLicense     AlternateDocumentType = "Shop License"
	AlternateDocCommunityLetter AlternateDocumentType = "Community Letter"
	AlternateDocWorkPhoto       AlternateDocumentType = "Work Photo"
	AlternateDocOther           AlternateDocumentType = "Other"
)

func (a AlternateDocumentType) Valid() bool {
	switch a {
	case AlternateDocShopLicense, AlternateDocCommunityLetter, AlternateDocWorkPhoto, AlternateDocOther:
		return true
	}
	return false
}

// VerificationStatus is the externally visible membership gate on the seller
// record. It is a projection kept in sync by the verification transitions.
type VerificationStatus string

const (
	VerificationPending     VerificationStatus = "pending"
	VerificationProvisional VerificationStatus = "provisional"
	VerificationVerified    VerificationStatus = "verified"
)

func (v VerificationStatus) Valid() bool {
	return v == VerificationPending || v == VerificationProvisional || v == VerificationVerified
}

// MembershipStatus tracks the union membership card state.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipSuspended MembershipStatus = "suspended"
)

func (m MembershipStatus) Valid() bool {
	return m == MembershipActive || m == MembershipExpired || m == MembershipSuspended
}

// TicketStatus tracks a support ticket through its lifecycle.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in-progress"
	TicketResolved   TicketStatus = "resolved"
)

func (t TicketStatus) Valid() bool {
	return t == TicketOpen || t == TicketInProgress || t == TicketResolved
}

// UnionMembership is the membership card issued to a seller. ID is minted
// exactly once at first persistence and never regenerated. ExpiryDate is set
// only for provisional grants.
type UnionMembership struct {
	ID         string
	IssueDate  *time.Time
	ExpiryDate *time.Time
	Status     MembershipStatus
	// Reason records why an admin last overrode the status.
	Reason string
}

// AlternateDocument describes one piece of supporting evidence on the
// no-standard-document path.
type AlternateDocument struct {
	Type        AlternateDocumentType
	Path        string
	Description string
}

// SupportTicket is one issue report raised by a seller. Tickets are appended,
// never removed.
type SupportTicket struct {
	ID          id.TicketID
	Issue       string
	Description string
	Status      TicketStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Seller is one registrant. Phone is the unique immutable key.
type Seller struct {
	ID    id.SellerID
	Phone string
	Name  string
	Email string

	Region  string
	City    string
	Village string

	Categories []Category
	Language   Language
	Scale      Scale
	Capacity   string

	HasDocuments       bool
	DocumentType       DocumentType
	DocumentPaths      []string
	AlternateDocuments []AlternateDocument

	VerificationStatus VerificationStatus
	UnionMembership    UnionMembership
	ReferralCode       string
	SupportTickets     []SupportTicket

	CreatedAt time.Time
	UpdatedAt time.Time
}

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidatePhone checks an E.164-shaped phone number.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid phone number")
	}
	return nil
}

// New creates a pending seller keyed by phone. Union id and referral code are
// minted here so the first persistence carries them; they are never touched
// again.
func New(phone string, now time.Time) (*Seller, error) {
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}
	s := &Seller{
		ID:                 id.NewSellerID(),
		Phone:              phone,
		Language:           LanguageEnglish,
		VerificationStatus: VerificationPending,
		UnionMembership:    UnionMembership{Status: MembershipActive},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.mintIdentity(now)
	return s, nil
}

// mintIdentity assigns the union membership id and referral code if absent.
func (s *Seller) mintIdentity(now time.Time) {
	if s.UnionMembership.ID == "" {
		s.UnionMembership.ID = generateUnionID(now)
	}
	if s.ReferralCode == "" {
		s.ReferralCode = generateReferralCode()
	}
}

// generateUnionID mints a membership id of the shape UU<2-digit-year><6 digits>.
func generateUnionID(now time.Time) string {
	return fmt.Sprintf("UU%02d%06d", now.Year()%100, 100000+rand.IntN(900000))
}

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateReferralCode() string {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteByte(referralAlphabet[rand.IntN(len(referralAlphabet))])
	}
	return b.String()
}

// ProfileUpdate carries the fields a seller may change after registration.
// Nil pointers mean "leave unchanged". Phone, verification status, membership
// and referral code are deliberately absent.
type ProfileUpdate struct {
	Name       *string
	Email      *string
	Region     *string
	City       *string
	Village    *string
	Categories []Category
	Language   *Language
	Scale      *Scale
	Capacity   *string
}

// Validate rejects enum values outside the registration vocabulary.
func (u ProfileUpdate) Validate() error {
	for _, c := range u.Categories {
		if !c.Valid() {
			return dErrors.Newf(dErrors.CodeValidation, "invalid category %q", string(c))
		}
	}
	if u.Language != nil && !u.Language.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid language %q", string(*u.Language))
	}
	if u.Scale != nil && !u.Scale.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid scale %q", string(*u.Scale))
	}
	return nil
}

// Apply copies the populated update fields onto the seller.
func (s *Seller) Apply(u ProfileUpdate, now time.Time) {
	if u.Name != nil {
		s.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		s.Email = strings.ToLower(strings.TrimSpace(*u.Email))
	}
	if u.Region != nil {
		s.Region = strings.TrimSpace(*u.Region)
	}
	if u.City != nil {
		s.City = strings.TrimSpace(*u.City)
	}
	if u.Village != nil {
		s.Village = strings.TrimSpace(*u.Village)
	}
	if u.Categories != nil {
		s.Categories = u.Categories
	}
	if u.Language != nil {
		s.Language = *u.Language
	}
	if u.Scale != nil {
		s.Scale = *u.Scale
	}
	if u.Capacity != nil {
		s.Capacity = strings.TrimSpace(*u.Capacity)
	}
	s.UpdatedAt = now
}

// AddSupportTicket appends a new open ticket.
func (s *Seller) AddSupportTicket(issue, description string, now time.Time) (*SupportTicket, error) {
	issue = strings.TrimSpace(issue)
	if issue == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "issue is required")
	}
	ticket := SupportTicket{
		ID:          id.NewTicketID(),
		Issue:       issue,
		Description: strings.TrimSpace(description),
		Status:      TicketOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.SupportTickets = append(s.SupportTickets, ticket)
	s.UpdatedAt = now
	return &ticket, nil
}

// UpdateSupportTicket moves a ticket to a new status.
func (s *Seller) UpdateSupportTicket(ticketID id.TicketID, status TicketStatus, now time.Time) error {
	if !status.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid ticket status %q", string(status))
	}
	for i := range s.SupportTickets {
		if s.SupportTickets[i].ID == ticketID {
			s.SupportTickets[i].Status = status
			s.SupportTickets[i].UpdatedAt = now
			s.UpdatedAt = now
			return nil
		}
	}
	return dErrors.New(dErrors.CodeNotFound, "support ticket not found")
}
