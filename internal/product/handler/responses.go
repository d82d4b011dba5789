package handler

import (
	"time"

	"udyam/internal/product"
)

// ProductResponse is the wire representation of a product listing.
type ProductResponse struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`

	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`

	Price    float64 `json:"price"`
	Currency string  `json:"currency"`

	MaxUnits       int    `json:"max_units"`
	AvailableUnits int    `json:"available_units"`
	LeadTime       string `json:"lead_time"`

	Status      string            `json:"status"`
	IsAvailable bool              `json:"is_available"`
	ImageCount  int               `json:"image_count"`
	Specs       map[string]string `json:"specifications,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromProduct converts a domain product to its HTTP representation.
func FromProduct(p *product.Product) *ProductResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return &ProductResponse{
		ID:             p.ID.String(),
		SellerID:       p.SellerID.String(),
		Name:           p.Name,
		Description:    p.Description,
		Category:       string(p.Category),
		Tags:           tags,
		Price:          p.Price,
		Currency:       string(p.Currency),
		MaxUnits:       p.MaxUnits,
		AvailableUnits: p.AvailableUnits,
		LeadTime:       p.LeadTime,
		Status:         string(p.Status),
		IsAvailable:    p.IsAvailable(),
		ImageCount:     len(p.Images),
		Specs:          p.Specifications,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ListResponse pages product listings.
type ListResponse struct {
	Products   []*ProductResponse `json:"products"`
	Pagination Pagination         `json:"pagination"`
}

// Pagination reports the page window and total matches.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FromProducts converts a page of products.
func FromProducts(products []*product.Product, total, limit, offset int) *ListResponse {
	out := make([]*ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return &ListResponse{
		Products:   out,
		Pagination: Pagination{Total: total, Limit: limit, Offset: offset},
	}
}
