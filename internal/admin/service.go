package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"udyam/internal/audit"
	jwttoken "udyam/internal/jwt_token"
	"udyam/internal/product"
	"udyam/internal/seller"
	"udyam/internal/verification"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/requestcontext"
	"udyam/pkg/secrets"
)

// SellerStore is the slice of the seller store the admin module needs.
type SellerStore interface {
	FindByID(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error)
	Update(ctx context.Context, s *seller.Seller) error
	List(ctx context.Context, filter seller.ListFilter) ([]*seller.Seller, int, error)
	CountByStatus(ctx context.Context) (seller.StatusCounts, error)
	RegistrationTrend(ctx context.Context, since time.Time) ([]seller.DailyCount, error)
	CategoryDistribution(ctx context.Context) ([]seller.Distribution, error)
	RegionDistribution(ctx context.Context) ([]seller.Distribution, error)
}

// VerificationStore is the slice of the verification store the admin module
// needs.
type VerificationStore interface {
	FindBySeller(ctx context.Context, sellerID id.SellerID) (*verification.Verification, error)
	CountByStatus(ctx context.Context) (map[verification.Status]int, error)
	CountDecidedSince(ctx context.Context, status verification.Status, since time.Time) (int, error)
}

// ProductStore is the slice of the product store the admin module needs.
type ProductStore interface {
	List(ctx context.Context, filter product.ListFilter) ([]*product.Product, int, error)
	Count(ctx context.Context) (total, active int, err error)
}

// ClientInfo identifies the caller for the activity log.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// Service owns admin accounts and the back-office read models.
type Service struct {
	store         Store
	sellers       SellerStore
	verifications VerificationStore
	products      ProductStore
	tokens        *jwttoken.Service
	tokenTTL      time.Duration
	audit         *audit.Publisher
	logger        *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAudit mirrors admin actions onto the shared audit trail in addition
// to the per-account activity log.
func WithAudit(publisher *audit.Publisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func NewService(store Store, sellers SellerStore, verifications VerificationStore, products ProductStore, tokens *jwttoken.Service, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		store:         store,
		sellers:       sellers,
		verifications: verifications,
		products:      products,
		tokens:        tokens,
		tokenTTL:      tokenTTL,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount registers a new admin account.
func (s *Service) CreateAccount(ctx context.Context, username, password string, role Role, permissions []Permission) (*Admin, error) {
	a, err := New(username, password, role, permissions, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create admin")
	}
	return a, nil
}

// GetAccount loads one admin account.
func (s *Service) GetAccount(ctx context.Context, adminID id.AdminID) (*Admin, error) {
	a, err := s.store.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "admin not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	return a, nil
}

// LoginResult carries the outcome of a successful admin login.
type LoginResult struct {
	Token string
	Admin *Admin
}

// Login verifies credentials and issues an admin token. Five consecutive
// failures lock the account for two hours.
func (s *Service) Login(ctx context.Context, username, password string, client ClientInfo) (*LoginResult, error) {
	now := requestcontext.Now(ctx)

	a, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	if !a.IsActive {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if a.IsLocked(now) {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is temporarily locked due to too many failed attempts")
	}

	if err := secrets.Verify(password, a.PasswordHash); err != nil {
		a.RecordFailedLogin(now)
		if updateErr := s.store.Update(ctx, a); updateErr != nil {
			s.logger.ErrorContext(ctx, "failed to record login attempt",
				"request_id", requestcontext.RequestID(ctx),
				"error", updateErr.Error())
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	a.RecordLogin(now)
	a.LogActivity("login", "system", client.IPAddress, client.UserAgent, now)
	if err := s.store.Update(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login")
	}
	s.emitAudit(ctx, a.ID, "login", "system", client)

	permissions := make([]string, 0, len(a.EffectivePermissions()))
	for _, p := range a.EffectivePermissions() {
		permissions = append(permissions, string(p))
	}
	token, err := s.tokens.GenerateAdminToken(a.ID, a.Username, string(a.Role), permissions, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "admin logged in",
		"request_id", requestcontext.RequestID(ctx),
		"admin_id", a.ID,
		"username", a.Username)
	return &LoginResult{Token: token, Admin: a}, nil
}

// RecordActivity appends an audit entry to the admin's activity log.
func (s *Service) RecordActivity(ctx context.Context, adminID id.AdminID, action, target string, client ClientInfo) error {
	a, err := s.store.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "admin not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load admin")
	}
	a.LogActivity(action, target, client.IPAddress, client.UserAgent, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, a); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record activity")
	}
	s.emitAudit(ctx, adminID, action, target, client)
	return nil
}

func (s *Service) emitAudit(ctx context.Context, adminID id.AdminID, action, target string, client ClientInfo) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		AdminID:   adminID,
		Action:    action,
		Target:    target,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", action,
			"error", err.Error())
	}
}

// SellerSummary joins a seller with its verification record for listings.
type SellerSummary struct {
	Seller       *seller.Seller
	Verification *verification.Verification
}

// ListSellers pages sellers with their verification records attached.
func (s *Service) ListSellers(ctx context.Context, filter seller.ListFilter) ([]SellerSummary, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, dErrors.Newf(dErrors.CodeValidation, "invalid status %q", string(filter.Status))
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, 0, dErrors.Newf(dErrors.CodeValidation, "invalid category %q", string(filter.Category))
	}
	sellers, total, err := s.sellers.List(ctx, filter)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sellers")
	}
	summaries := make([]SellerSummary, len(sellers))
	for i, sl := range sellers {
		summaries[i] = SellerSummary{Seller: sl}
		v, err := s.verifications.FindBySeller(ctx, sl.ID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
		}
		summaries[i].Verification = v
	}
	return summaries, total, nil
}

// SellerDetail joins the seller, its verification record and its products.
type SellerDetail struct {
	Seller       *seller.Seller
	Verification *verification.Verification
	Products     []*product.Product
}

// GetSellerDetail loads the full admin view of one seller.
func (s *Service) GetSellerDetail(ctx context.Context, sellerID id.SellerID) (*SellerDetail, error) {
	sl, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller")
	}

	detail := &SellerDetail{Seller: sl}
	v, err := s.verifications.FindBySeller(ctx, sellerID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	detail.Verification = v

	products, _, err := s.products.List(ctx, product.ListFilter{SellerID: sellerID})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load products")
	}
	detail.Products = products
	return detail, nil
}

// UpdateMembership overrides a seller's union membership status. The
// expiry-driven membership state is advisory; this override is the only
// authoritative status change outside the verification engine.
func (s *Service) UpdateMembership(ctx context.Context, adminID id.AdminID, sellerID id.SellerID, status seller.MembershipStatus, reason string, client ClientInfo) (*seller.Seller, error) {
	if !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid membership status %q", string(status))
	}
	if len(reason) > 500 {
		return nil, dErrors.New(dErrors.CodeValidation, "reason must be less than 500 characters")
	}

	sl, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller")
	}

	now := requestcontext.Now(ctx)
	sl.UnionMembership.Status = status
	if reason != "" {
		sl.UnionMembership.Reason = reason
	}
	sl.UpdatedAt = now
	if err := s.sellers.Update(ctx, sl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update membership")
	}

	if err := s.RecordActivity(ctx, adminID, "membership-"+string(status), sellerID.String(), client); err != nil {
		s.logger.WarnContext(ctx, "failed to log membership change",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error())
	}
	return sl, nil
}

// DashboardStats aggregates the headline numbers for the admin dashboard.
type DashboardStats struct {
	TotalSellers       int
	VerifiedSellers    int
	ProvisionalSellers int
	PendingSellers     int
	TotalProducts      int
	ActiveProducts     int
	PendingReviews     int

	RecentSellers  []*seller.Seller
	RecentProducts []*product.Product
}

// Dashboard gathers statistics; the independent counts run concurrently.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.sellers.CountByStatus(gctx)
		if err != nil {
			return err
		}
		stats.TotalSellers = counts.Total()
		stats.VerifiedSellers = counts.Verified
		stats.ProvisionalSellers = counts.Provisional
		stats.PendingSellers = counts.Pending
		return nil
	})
	g.Go(func() error {
		total, active, err := s.products.Count(gctx)
		if err != nil {
			return err
		}
		stats.TotalProducts = total
		stats.ActiveProducts = active
		return nil
	})
	g.Go(func() error {
		queue, err := s.verifications.CountByStatus(gctx)
		if err != nil {
			return err
		}
		stats.PendingReviews = queue[verification.StatusPending] + queue[verification.StatusUnderReview]
		return nil
	})
	g.Go(func() error {
		recent, _, err := s.sellers.List(gctx, seller.ListFilter{Limit: 5})
		if err != nil {
			return err
		}
		stats.RecentSellers = recent
		return nil
	})
	g.Go(func() error {
		recent, _, err := s.products.List(gctx, product.ListFilter{Limit: 5})
		if err != nil {
			return err
		}
		stats.RecentProducts = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dashboard")
	}
	return &stats, nil
}

// AnalyticsPeriod selects the analytics window.
type AnalyticsPeriod string

const (
	Period7Days  AnalyticsPeriod = "7d"
	Period30Days AnalyticsPeriod = "30d"
	Period90Days AnalyticsPeriod = "90d"
)

func (p AnalyticsPeriod) duration() time.Duration {
	switch p {
	case Period7Days:
		return 7 * 24 * time.Hour
	case Period90Days:
		return 90 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// Analytics reports the registration trend and distributions for a window.
type Analytics struct {
	Period               AnalyticsPeriod
	RegistrationTrend    []seller.DailyCount
	CategoryDistribution []seller.Distribution
	RegionDistribution   []seller.Distribution
	DecisionCounts       map[verification.Status]int
}

// decidedStatuses are the outcomes a review can land on. Pending records
// carry no review timestamp, so only these are counted against the window.
var decidedStatuses = []verification.Status{
	verification.StatusApproved,
	verification.StatusRejected,
	verification.StatusUnderReview,
}

// GetAnalytics builds the analytics read model; the independent aggregates
// run concurrently.
func (s *Service) GetAnalytics(ctx context.Context, period AnalyticsPeriod) (*Analytics, error) {
	switch period {
	case Period7Days, Period30Days, Period90Days:
	case "":
		period = Period30Days
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid period %q", string(period))
	}
	since := requestcontext.Now(ctx).Add(-period.duration())

	analytics := &Analytics{Period: period}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		trend, err := s.sellers.RegistrationTrend(gctx, since)
		if err != nil {
			return err
		}
		analytics.RegistrationTrend = trend
		return nil
	})
	g.Go(func() error {
		dist, err := s.sellers.CategoryDistribution(gctx)
		if err != nil {
			return err
		}
		analytics.CategoryDistribution = dist
		return nil
	})
	g.Go(func() error {
		dist, err := s.sellers.RegionDistribution(gctx)
		if err != nil {
			return err
		}
		analytics.RegionDistribution = dist
		return nil
	})
	g.Go(func() error {
		counts := make(map[verification.Status]int, len(decidedStatuses))
		for _, status := range decidedStatuses {
			n, err := s.verifications.CountDecidedSince(gctx, status, since)
			if err != nil {
				return err
			}
			counts[status] = n
		}
		analytics.DecisionCounts = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load analytics")
	}
	return analytics, nil
}
