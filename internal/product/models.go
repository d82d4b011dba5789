package product

import (
	"strings"
	"time"

	"udyam/internal/seller"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	strutil "udyam/pkg/platform/strings"
)

// Status is the lifecycle state of a product listing.
type Status string

const (
	StatusActive       Status = "active"
	StatusInactive     Status = "inactive"
	StatusOutOfStock   Status = "out-of-stock"
	StatusDiscontinued Status = "discontinued"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOutOfStock, StatusDiscontinued:
		return true
	}
	return false
}

// Currency restricts pricing to the supported denominations.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
)

func (c Currency) Valid() bool {
	return c == CurrencyINR || c == CurrencyUSD
}

// Product is one listing owned by a seller. Categories reuse the seller
// registration vocabulary.
type Product struct {
	ID       id.ProductID
	SellerID id.SellerID

	Name        string
	Description string
	Category    seller.Category
	Tags        []string

	Price    float64
	Currency Currency

	MaxUnits       int
	AvailableUnits int
	LeadTime       string

	Status         Status
	Images         []string
	Specifications map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAvailable reports whether the listing can currently be ordered.
func (p *Product) IsAvailable() bool {
	return p.Status == StatusActive && p.AvailableUnits > 0
}

// NewInput carries the fields required to create a listing.
type NewInput struct {
	Name           string
	Description    string
	Category       seller.Category
	Tags           []string
	Price          float64
	Currency       Currency
	MaxUnits       int
	LeadTime       string
	Specifications map[string]string
}

func (in *NewInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if n := len(in.Name); n < 2 || n > 200 {
		return dErrors.New(dErrors.CodeValidation, "product name must be between 2 and 200 characters")
	}
	in.Description = strings.TrimSpace(in.Description)
	if n := len(in.Description); n < 10 || n > 1000 {
		return dErrors.New(dErrors.CodeValidation, "description must be between 10 and 1000 characters")
	}
	if !in.Category.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid category %q", string(in.Category))
	}
	if in.Price < 0 {
		return dErrors.New(dErrors.CodeValidation, "price must be a positive number")
	}
	if in.Currency != "" && !in.Currency.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid currency %q", string(in.Currency))
	}
	if in.MaxUnits < 1 {
		return dErrors.New(dErrors.CodeValidation, "maximum units must be at least 1")
	}
	in.LeadTime = strings.TrimSpace(in.LeadTime)
	if n := len(in.LeadTime); n < 1 || n > 100 {
		return dErrors.New(dErrors.CodeValidation, "lead time is required")
	}
	in.Tags = strutil.DedupeAndTrimLower(in.Tags)
	for _, tag := range in.Tags {
		if len(tag) > 50 {
			return dErrors.New(dErrors.CodeValidation, "tags must be at most 50 characters")
		}
	}
	return nil
}

// New creates an active listing. Available units start at the maximum.
func New(sellerID id.SellerID, in NewInput, now time.Time) (*Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	currency := in.Currency
	if currency == "" {
		currency = CurrencyINR
	}
	specs := in.Specifications
	if specs == nil {
		specs = map[string]string{}
	}
	return &Product{
		ID:             id.NewProductID(),
		SellerID:       sellerID,
		Name:           in.Name,
		Description:    in.Description,
		Category:       in.Category,
		Tags:           append([]string{}, in.Tags...),
		Price:          in.Price,
		Currency:       currency,
		MaxUnits:       in.MaxUnits,
		AvailableUnits: in.MaxUnits,
		LeadTime:       in.LeadTime,
		Status:         StatusActive,
		Images:         []string{},
		Specifications: specs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Update carries optional listing changes; nil fields are left untouched.
type Update struct {
	Name           *string
	Description    *string
	Category       *seller.Category
	Tags           []string
	Price          *float64
	MaxUnits       *int
	AvailableUnits *int
	LeadTime       *string
	Status         *Status
	Specifications map[string]string
}

func (u Update) Validate() error {
	if u.Name != nil {
		if n := len(strings.TrimSpace(*u.Name)); n < 2 || n > 200 {
			return dErrors.New(dErrors.CodeValidation, "product name must be between 2 and 200 characters")
		}
	}
	if u.Description != nil {
		if n := len(strings.TrimSpace(*u.Description)); n < 10 || n > 1000 {
			return dErrors.New(dErrors.CodeValidation, "description must be between 10 and 1000 characters")
		}
	}
	if u.Category != nil && !u.Category.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid category %q", string(*u.Category))
	}
	if u.Price != nil && *u.Price < 0 {
		return dErrors.New(dErrors.CodeValidation, "price must be a positive number")
	}
	if u.MaxUnits != nil && *u.MaxUnits < 1 {
		return dErrors.New(dErrors.CodeValidation, "maximum units must be at least 1")
	}
	if u.AvailableUnits != nil && *u.AvailableUnits < 0 {
		return dErrors.New(dErrors.CodeValidation, "available units cannot be negative")
	}
	if u.LeadTime != nil {
		if n := len(strings.TrimSpace(*u.LeadTime)); n < 1 || n > 100 {
			return dErrors.New(dErrors.CodeValidation, "lead time is required")
		}
	}
	if u.Status != nil && !u.Status.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid status %q", string(*u.Status))
	}
	return nil
}

// Apply copies the populated update fields onto the product.
func (p *Product) Apply(u Update, now time.Time) {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		p.Description = strings.TrimSpace(*u.Description)
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Tags != nil {
		p.Tags = append([]string{}, u.Tags...)
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.MaxUnits != nil {
		p.MaxUnits = *u.MaxUnits
	}
	if u.AvailableUnits != nil {
		p.AvailableUnits = *u.AvailableUnits
	}
	if u.LeadTime != nil {
		p.LeadTime = strings.TrimSpace(*u.LeadTime)
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Specifications != nil {
		p.Specifications = u.Specifications
	}
	p.UpdatedAt = now
}

// AddImages appends stored image paths to the listing.
func (p *Product) AddImages(paths []string, now time.Time) {
	p.Images = append(p.Images, paths...)
	p.UpdatedAt = now
}
