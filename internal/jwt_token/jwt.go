package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
)

// SellerClaims represents the JWT claims for seller access tokens.
type SellerClaims struct {
	SellerID           string `json:"seller_id"`
	Phone              string `json:"phone"`
	VerificationStatus string `json:"verification_status"`
	jwt.RegisteredClaims
}

// Seller returns the typed seller ID from the claims. Returns the zero ID if
// the claim is malformed; ValidateSellerToken rejects that case up front.
func (c *SellerClaims) Seller() id.SellerID {
	sellerID, err := id.ParseSellerID(c.SellerID)
	if err != nil {
		return id.SellerID{}
	}
	return sellerID
}

// AdminClaims represents the JWT claims for admin access tokens. Permissions
// are embedded so route middleware can gate actions without a store lookup;
// super-admins carry the full permission set.
type AdminClaims struct {
	AdminID     string   `json:"admin_id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Admin returns the typed admin ID from the claims.
func (c *AdminClaims) Admin() id.AdminID {
	adminID, err := id.ParseAdminID(c.AdminID)
	if err != nil {
		return id.AdminID{}
	}
	return adminID
}

// Service handles JWT creation and validation for both token audiences.
type Service struct {
	signingKey []byte
	issuer     string
}

func New(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateSellerToken issues a seller access token.
func (s *Service) GenerateSellerToken(sellerID id.SellerID, phone, verificationStatus string, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, SellerClaims{
		SellerID:           sellerID.String(),
		Phone:              phone,
		VerificationStatus: verificationStatus,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{"seller"},
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// GenerateAdminToken issues an admin access token.
func (s *Service) GenerateAdminToken(adminID id.AdminID, username, role string, permissions []string, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		AdminID:     adminID.String(),
		Username:    username,
		Role:        role,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{"admin"},
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

func (s *Service) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrTokenUnverifiable
	}
	return s.signingKey, nil
}

func translateParseError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	}
	return dErrors.New(dErrors.CodeUnauthorized, "invalid token")
}

// ValidateSellerToken parses and validates a seller access token.
func (s *Service) ValidateSellerToken(tokenString string) (*SellerClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SellerClaims{}, s.keyFunc,
		jwt.WithAudience("seller"))
	if err != nil {
		return nil, translateParseError(err)
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*SellerClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Seller().IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// ValidateAdminToken parses and validates an admin access token.
func (s *Service) ValidateAdminToken(tokenString string) (*AdminClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, s.keyFunc,
		jwt.WithAudience("admin"))
	if err != nil {
		return nil, translateParseError(err)
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Admin().IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
