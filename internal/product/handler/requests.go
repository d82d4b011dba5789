package handler

import (
	"net/http"
	"strconv"

	"udyam/internal/product"
	"udyam/internal/seller"
)

// CreateRequest is the HTTP request body for POST /products.
type CreateRequest struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Category       string            `json:"category"`
	Tags           []string          `json:"tags,omitempty"`
	Price          float64           `json:"price"`
	Currency       string            `json:"currency,omitempty"`
	MaxUnits       int               `json:"max_units"`
	LeadTime       string            `json:"lead_time"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

func (r *CreateRequest) Input() product.NewInput {
	return product.NewInput{
		Name:           r.Name,
		Description:    r.Description,
		Category:       seller.Category(r.Category),
		Tags:           r.Tags,
		Price:          r.Price,
		Currency:       product.Currency(r.Currency),
		MaxUnits:       r.MaxUnits,
		LeadTime:       r.LeadTime,
		Specifications: r.Specifications,
	}
}

// UpdateRequest is the HTTP request body for PUT /products/{id}. Absent
// fields are left untouched.
type UpdateRequest struct {
	Name           *string           `json:"name,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Category       *string           `json:"category,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Price          *float64          `json:"price,omitempty"`
	MaxUnits       *int              `json:"max_units,omitempty"`
	AvailableUnits *int              `json:"available_units,omitempty"`
	LeadTime       *string           `json:"lead_time,omitempty"`
	Status         *string           `json:"status,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

func (r *UpdateRequest) Update() product.Update {
	update := product.Update{
		Name:           r.Name,
		Description:    r.Description,
		Tags:           r.Tags,
		Price:          r.Price,
		MaxUnits:       r.MaxUnits,
		AvailableUnits: r.AvailableUnits,
		LeadTime:       r.LeadTime,
		Specifications: r.Specifications,
	}
	if r.Category != nil {
		c := seller.Category(*r.Category)
		update.Category = &c
	}
	if r.Status != nil {
		s := product.Status(*r.Status)
		update.Status = &s
	}
	return update
}

// listFilter builds a product filter from query parameters. Invalid numbers
// are ignored rather than rejected, matching lenient query handling.
func listFilter(r *http.Request) product.ListFilter {
	q := r.URL.Query()
	filter := product.ListFilter{
		Status:   product.Status(q.Get("status")),
		Category: seller.Category(q.Get("category")),
		Search:   q.Get("search"),
	}
	switch q.Get("status") {
	case "":
		filter.Status = product.StatusActive
	case "all":
		filter.Status = ""
	}
	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil {
		filter.MaxPrice = &v
	}
	limit := 20
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	filter.Limit = limit
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 1 {
		filter.Offset = (v - 1) * limit
	}
	return filter
}
