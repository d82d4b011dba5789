// Package auth implements phone-OTP login for sellers. First successful
// verification creates the seller record; the union id and referral code are
// minted with it.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"udyam/internal/auth/otp"
	jwttoken "udyam/internal/jwt_token"
	"udyam/internal/platform/config"
	"udyam/internal/platform/metrics"
	"udyam/internal/ratelimit"
	"udyam/internal/seller"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/requestcontext"
)

// SellerStore is the slice of the seller store login needs.
type SellerStore interface {
	FindByPhone(ctx context.Context, phone string) (*seller.Seller, error)
	FindByID(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error)
	Create(ctx context.Context, s *seller.Seller) error
}

// Service owns the OTP login flow and seller token issuance.
type Service struct {
	sellers  SellerStore
	store    otp.Store
	sender   otp.Sender
	tokens   *jwttoken.Service
	limiter  ratelimit.Limiter
	cfg      config.OTPConfig
	tokenTTL time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	devMode  bool
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(s *Service) {
		s.limiter = limiter
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDevMode echoes the issued code back to the caller. Never enabled in
// production configs.
func WithDevMode(enabled bool) Option {
	return func(s *Service) {
		s.devMode = enabled
	}
}

func New(sellers SellerStore, store otp.Store, sender otp.Sender, tokens *jwttoken.Service, cfg config.OTPConfig, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		sellers:  sellers,
		store:    store,
		sender:   sender,
		tokens:   tokens,
		cfg:      cfg,
		tokenTTL: tokenTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendOTP issues a code for the phone. Sends are rate limited per phone, and
// a still-valid code blocks reissue. The returned code is empty outside dev
// mode.
func (s *Service) SendOTP(ctx context.Context, phone string) (string, error) {
	if err := seller.ValidatePhone(phone); err != nil {
		return "", err
	}

	if s.limiter != nil {
		result, err := s.limiter.Allow(ctx, "otp:send:"+phone, s.cfg.SendLimit, s.cfg.SendWindow)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "rate limit check failed")
		}
		if !result.Allowed {
			return "", dErrors.New(dErrors.CodeBadRequest, "too many OTP requests, please try again later")
		}
	}

	existing, err := s.store.Find(ctx, phone)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check outstanding OTP")
	}
	now := requestcontext.Now(ctx)
	if existing != nil && !existing.Expired(now) {
		return "", dErrors.New(dErrors.CodeBadRequest, "OTP already sent, please wait before requesting a new one")
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate OTP")
	}
	challenge := otp.Challenge{
		Code:        code,
		ExpiresAt:   now.Add(s.cfg.TTL),
		MaxAttempts: s.cfg.MaxAttempts,
	}
	if err := s.store.Save(ctx, phone, challenge); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store OTP")
	}
	if err := s.sender.Send(ctx, phone, code); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to send OTP")
	}

	s.logger.Info("otp sent",
		"request_id", requestcontext.RequestID(ctx),
		"phone", phone)
	if s.devMode {
		return code, nil
	}
	return "", nil
}

// LoginResult carries the outcome of a successful verification.
type LoginResult struct {
	Token     string
	Seller    *seller.Seller
	NewSeller bool
}

// VerifyOTP checks the code and logs the seller in, creating the record on
// first login. Codes are single use; three wrong guesses burn the challenge.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (*LoginResult, error) {
	if err := seller.ValidatePhone(phone); err != nil {
		return nil, err
	}

	challenge, err := s.store.Find(ctx, phone)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load OTP")
	}
	now := requestcontext.Now(ctx)
	if challenge == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "OTP not found or expired")
	}
	if challenge.Expired(now) {
		_ = s.store.Delete(ctx, phone)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "OTP has expired")
	}
	if challenge.Exhausted() {
		_ = s.store.Delete(ctx, phone)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "too many incorrect attempts, please request a new OTP")
	}
	if challenge.Code != code {
		if err := s.store.RecordAttempt(ctx, phone); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record OTP attempt")
		}
		remaining := challenge.MaxAttempts - challenge.Attempts - 1
		return nil, dErrors.Newf(dErrors.CodeUnauthorized, "invalid OTP, %d attempts remaining", remaining)
	}

	if err := s.store.Delete(ctx, phone); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume OTP")
	}

	sl, created, err := s.findOrCreateSeller(ctx, phone, now)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateSellerToken(sl.ID, sl.Phone, string(sl.VerificationStatus), s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.Info("seller logged in",
		"request_id", requestcontext.RequestID(ctx),
		"seller_id", sl.ID,
		"new_seller", created)
	return &LoginResult{Token: token, Seller: sl, NewSeller: created}, nil
}

// RefreshToken issues a fresh token reflecting the seller's current
// verification status.
func (s *Service) RefreshToken(ctx context.Context, sellerID id.SellerID) (string, *seller.Seller, error) {
	sl, err := s.loadSeller(ctx, sellerID)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.GenerateSellerToken(sl.ID, sl.Phone, string(sl.VerificationStatus), s.tokenTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return token, sl, nil
}

// CurrentSeller resolves the authenticated seller.
func (s *Service) CurrentSeller(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error) {
	return s.loadSeller(ctx, sellerID)
}

func (s *Service) findOrCreateSeller(ctx context.Context, phone string, now time.Time) (*seller.Seller, bool, error) {
	sl, err := s.sellers.FindByPhone(ctx, phone)
	if err == nil {
		return sl, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up seller")
	}

	sl, err = seller.New(phone, now)
	if err != nil {
		return nil, false, err
	}
	if err := s.sellers.Create(ctx, sl); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent first login for the same phone.
			existing, findErr := s.sellers.FindByPhone(ctx, phone)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create seller")
	}
	s.metrics.IncrementSellersCreated()
	return sl, true, nil
}

func (s *Service) loadSeller(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error) {
	sl, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller")
	}
	return sl, nil
}
