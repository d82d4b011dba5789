package handler

import (
	"strings"

	"udyam/internal/seller"
	"udyam/internal/verification"
	dErrors "udyam/pkg/domain-errors"
	strutil "udyam/pkg/platform/strings"
)

// RegisterRequest is the HTTP request body for POST /seller/register.
type RegisterRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email,omitempty"`
	Region     string   `json:"region"`
	City       string   `json:"city,omitempty"`
	Village    string   `json:"village,omitempty"`
	Categories []string `json:"categories"`
	Language   string   `json:"language,omitempty"`
	Scale      string   `json:"scale,omitempty"`
	Capacity   string   `json:"capacity,omitempty"`

	HasDocuments bool   `json:"has_documents"`
	DocumentType string `json:"document_type,omitempty"`
}

// Validate checks required fields and parses enums.
func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	r.Region = strings.TrimSpace(r.Region)
	if r.Region == "" {
		return dErrors.New(dErrors.CodeValidation, "region is required")
	}
	r.Categories = strutil.DedupeAndTrim(r.Categories)
	if len(r.Categories) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one category is required")
	}
	if r.HasDocuments && r.DocumentType != "" {
		if !seller.DocumentType(r.DocumentType).Valid() {
			return dErrors.Newf(dErrors.CodeValidation, "invalid document type %q", r.DocumentType)
		}
	}
	return nil
}

// Input builds the registration input for the verification service. Enum
// validity beyond document type is enforced by ProfileUpdate.Validate inside
// the service.
func (r *RegisterRequest) Input() verification.RegistrationInput {
	categories := make([]seller.Category, 0, len(r.Categories))
	for _, c := range r.Categories {
		categories = append(categories, seller.Category(c))
	}
	profile := seller.ProfileUpdate{
		Name:       &r.Name,
		Region:     &r.Region,
		Categories: categories,
	}
	if r.Email != "" {
		profile.Email = &r.Email
	}
	if r.City != "" {
		profile.City = &r.City
	}
	if r.Village != "" {
		profile.Village = &r.Village
	}
	if r.Language != "" {
		lang := seller.Language(r.Language)
		profile.Language = &lang
	}
	if r.Scale != "" {
		scale := seller.Scale(r.Scale)
		profile.Scale = &scale
	}
	if r.Capacity != "" {
		profile.Capacity = &r.Capacity
	}
	return verification.RegistrationInput{
		Profile:      profile,
		HasDocuments: r.HasDocuments,
		DocumentType: seller.DocumentType(r.DocumentType),
	}
}

// UpdateProfileRequest is the HTTP request body for PUT /seller/profile.
// Absent fields are left untouched.
type UpdateProfileRequest struct {
	Name       *string  `json:"name,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Region     *string  `json:"region,omitempty"`
	City       *string  `json:"city,omitempty"`
	Village    *string  `json:"village,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Language   *string  `json:"language,omitempty"`
	Scale      *string  `json:"scale,omitempty"`
	Capacity   *string  `json:"capacity,omitempty"`
}

// Update builds the domain profile update. Enum validation happens in
// ProfileUpdate.Validate.
func (r *UpdateProfileRequest) Update() seller.ProfileUpdate {
	update := seller.ProfileUpdate{
		Name:     r.Name,
		Email:    r.Email,
		Region:   r.Region,
		City:     r.City,
		Village:  r.Village,
		Capacity: r.Capacity,
	}
	if cats := strutil.DedupeAndTrim(r.Categories); len(cats) > 0 {
		categories := make([]seller.Category, 0, len(cats))
		for _, c := range cats {
			categories = append(categories, seller.Category(c))
		}
		update.Categories = categories
	}
	if r.Language != nil {
		lang := seller.Language(*r.Language)
		update.Language = &lang
	}
	if r.Scale != nil {
		scale := seller.Scale(*r.Scale)
		update.Scale = &scale
	}
	return update
}

// ReportIssueRequest is the HTTP request body for POST /seller/report-issue.
type ReportIssueRequest struct {
	Issue       string `json:"issue"`
	Description string `json:"description,omitempty"`
}

func (r *ReportIssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Issue = strings.TrimSpace(r.Issue)
	if r.Issue == "" {
		return dErrors.New(dErrors.CodeValidation, "issue is required")
	}
	return nil
}
