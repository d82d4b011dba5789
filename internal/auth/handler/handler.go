package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"udyam/internal/auth"
	"udyam/internal/platform/middleware"
	"udyam/internal/seller"
	sellerhandler "udyam/internal/seller/handler"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/platform/httputil"
	"udyam/pkg/requestcontext"
)

// Service covers the OTP login flow.
type Service interface {
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, phone, code string) (*auth.LoginResult, error)
	RefreshToken(ctx context.Context, sellerID id.SellerID) (string, *seller.Seller, error)
	CurrentSeller(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error)
}

// Handler serves the authentication endpoints.
type Handler struct {
	logger    *slog.Logger
	auth      Service
	validator middleware.SellerTokenValidator
}

// New creates an auth Handler.
func New(auth Service, validator middleware.SellerTokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		auth:      auth,
		validator: validator,
	}
}

// Register mounts the auth routes. send-otp and verify-otp are public;
// the rest require a valid seller token.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/send-otp", h.handleSendOTP)
		r.Post("/verify-otp", h.handleVerifyOTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSellerAuth(h.validator, h.logger))
			r.Post("/refresh-token", h.handleRefreshToken)
			r.Post("/logout", h.handleLogout)
			r.Get("/me", h.handleMe)
		})
	})
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

type sendOTPResponse struct {
	Message string `json:"message"`
	// Code is only populated in development mode.
	Code string `json:"code,omitempty"`
}

func (h *Handler) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[sendOTPRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)

	code, err := h.auth.SendOTP(ctx, req.Phone)
	if err != nil {
		h.logger.WarnContext(ctx, "send otp failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sendOTPResponse{
		Message: "OTP sent successfully",
		Code:    code,
	})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type loginResponse struct {
	Token     string                        `json:"token"`
	NewSeller bool                          `json:"new_seller"`
	Seller    *sellerhandler.SellerResponse `json:"seller"`
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[verifyOTPRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	req.OTP = strings.TrimSpace(req.OTP)
	if req.OTP == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "otp is required"))
		return
	}

	result, err := h.auth.VerifyOTP(ctx, req.Phone, req.OTP)
	if err != nil {
		h.logger.WarnContext(ctx, "verify otp failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		NewSeller: result.NewSeller,
		Seller:    sellerhandler.FromSeller(result.Seller),
	})
}

func (h *Handler) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, sl, err := h.auth.RefreshToken(ctx, requestcontext.SellerID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "refresh token failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Token:  token,
		Seller: sellerhandler.FromSeller(sl),
	})
}

type logoutResponse struct {
	Message string `json:"message"`
}

// Tokens are stateless, so logout is an acknowledgment; the client discards
// its copy.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, logoutResponse{
		Message: "logged out successfully",
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sl, err := h.auth.CurrentSeller(ctx, requestcontext.SellerID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sellerhandler.FromSeller(sl))
}
