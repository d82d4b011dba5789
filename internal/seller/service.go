package seller

import (
	"context"
	"errors"
	"log/slog"

	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/requestcontext"
)

// Service covers the seller's own profile and support surface. Verification
// transitions live in the verification service.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Profile loads the seller's full record.
func (s *Service) Profile(ctx context.Context, sellerID id.SellerID) (*Seller, error) {
	return s.load(ctx, sellerID)
}

// UpdateProfile applies the allowed profile fields. The phone, verification
// state, membership and referral code are not reachable from here.
func (s *Service) UpdateProfile(ctx context.Context, sellerID id.SellerID, update ProfileUpdate) (*Seller, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	sl, err := s.load(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	sl.Apply(update, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, sl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}

	s.logger.Info("profile updated",
		"request_id", requestcontext.RequestID(ctx),
		"seller_id", sellerID)
	return sl, nil
}

// ReportIssue opens a support ticket on the seller.
func (s *Service) ReportIssue(ctx context.Context, sellerID id.SellerID, issue, description string) (*SupportTicket, error) {
	sl, err := s.load(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	ticket, err := sl.AddSupportTicket(issue, description, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, sl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save support ticket")
	}

	s.logger.Info("support ticket opened",
		"request_id", requestcontext.RequestID(ctx),
		"seller_id", sellerID,
		"ticket_id", ticket.ID)
	return ticket, nil
}

// SupportTickets lists the seller's tickets.
func (s *Service) SupportTickets(ctx context.Context, sellerID id.SellerID) ([]SupportTicket, error) {
	sl, err := s.load(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return sl.SupportTickets, nil
}

func (s *Service) load(ctx context.Context, sellerID id.SellerID) (*Seller, error) {
	sl, err := s.store.FindByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "seller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load seller")
	}
	return sl, nil
}
