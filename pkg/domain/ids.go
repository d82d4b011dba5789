// Package domain holds strongly typed identifiers shared across modules.
// Wrapping uuid.UUID in distinct types prevents a seller ID from being passed
// where an admin ID is expected; the compiler does the checking.
package domain

import (
	"github.com/google/uuid"

	dErrors "udyam/pkg/domain-errors"
)

type (
	// SellerID identifies a registered seller.
	SellerID uuid.UUID
	// AdminID identifies an admin account.
	AdminID uuid.UUID
	// VerificationID identifies a verification record.
	VerificationID uuid.UUID
	// ProductID identifies a product listing.
	ProductID uuid.UUID
	// TicketID identifies a support ticket on a seller.
	TicketID uuid.UUID
)

func (id SellerID) String() string       { return uuid.UUID(id).String() }
func (id AdminID) String() string        { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id ProductID) String() string      { return uuid.UUID(id).String() }
func (id TicketID) String() string       { return uuid.UUID(id).String() }

func (id SellerID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AdminID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProductID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TicketID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }

// The ID types marshal as their canonical string form. Defined types do not
// inherit uuid.UUID's methods, so the text round-trip is spelled out here.

func (id SellerID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id AdminID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id VerificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ProductID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id TicketID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }

func (id *SellerID) UnmarshalText(text []byte) error       { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *AdminID) UnmarshalText(text []byte) error        { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *VerificationID) UnmarshalText(text []byte) error { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *ProductID) UnmarshalText(text []byte) error      { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *TicketID) UnmarshalText(text []byte) error       { return (*uuid.UUID)(id).UnmarshalText(text) }

// NewSellerID mints a random seller ID.
func NewSellerID() SellerID { return SellerID(uuid.New()) }

// NewAdminID mints a random admin ID.
func NewAdminID() AdminID { return AdminID(uuid.New()) }

// NewVerificationID mints a random verification ID.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// NewProductID mints a random product ID.
func NewProductID() ProductID { return ProductID(uuid.New()) }

// NewTicketID mints a random ticket ID.
func NewTicketID() TicketID { return TicketID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Invalid input is rejected at the trust boundary so domain
// code never sees a zero ID masquerading as a real one.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id is not a valid UUID", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s id must not be the nil UUID", kind)
	}
	return parsed, nil
}

// ParseSellerID parses and validates a seller ID from its string form.
func ParseSellerID(raw string) (SellerID, error) {
	parsed, err := parseUUID(raw, "seller")
	return SellerID(parsed), err
}

// ParseAdminID parses and validates an admin ID from its string form.
func ParseAdminID(raw string) (AdminID, error) {
	parsed, err := parseUUID(raw, "admin")
	return AdminID(parsed), err
}

// ParseVerificationID parses and validates a verification ID from its string form.
func ParseVerificationID(raw string) (VerificationID, error) {
	parsed, err := parseUUID(raw, "verification")
	return VerificationID(parsed), err
}

// ParseProductID parses and validates a product ID from its string form.
func ParseProductID(raw string) (ProductID, error) {
	parsed, err := parseUUID(raw, "product")
	return ProductID(parsed), err
}

// ParseTicketID parses and validates a ticket ID from its string form.
func ParseTicketID(raw string) (TicketID, error) {
	parsed, err := parseUUID(raw, "ticket")
	return TicketID(parsed), err
}
