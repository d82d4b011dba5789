package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"udyam/internal/admin"
	"udyam/internal/platform/middleware"
	"udyam/internal/seller"
	sellerhandler "udyam/internal/seller/handler"
	"udyam/internal/verification"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/platform/httputil"
	"udyam/pkg/requestcontext"
)

// Service covers the back-office operations.
type Service interface {
	Login(ctx context.Context, username, password string, client admin.ClientInfo) (*admin.LoginResult, error)
	CreateAccount(ctx context.Context, username, password string, role admin.Role, permissions []admin.Permission) (*admin.Admin, error)
	GetAccount(ctx context.Context, adminID id.AdminID) (*admin.Admin, error)
	RecordActivity(ctx context.Context, adminID id.AdminID, action, target string, client admin.ClientInfo) error
	ListSellers(ctx context.Context, filter seller.ListFilter) ([]admin.SellerSummary, int, error)
	GetSellerDetail(ctx context.Context, sellerID id.SellerID) (*admin.SellerDetail, error)
	UpdateMembership(ctx context.Context, adminID id.AdminID, sellerID id.SellerID, status seller.MembershipStatus, reason string, client admin.ClientInfo) (*seller.Seller, error)
	Dashboard(ctx context.Context) (*admin.DashboardStats, error)
	GetAnalytics(ctx context.Context, period admin.AnalyticsPeriod) (*admin.Analytics, error)
}

// VerificationService applies admin verdicts to sellers.
type VerificationService interface {
	Decide(ctx context.Context, sellerID id.SellerID, decision verification.Decision) (*seller.Seller, *verification.Verification, error)
}

// Handler serves the admin endpoints.
type Handler struct {
	logger        *slog.Logger
	service       Service
	verifications VerificationService
	validator     middleware.AdminTokenValidator
}

// New creates an admin Handler.
func New(service Service, verifications VerificationService, validator middleware.AdminTokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		service:       service,
		verifications: verifications,
		validator:     validator,
	}
}

// Register mounts the admin routes. Login is public; everything else
// requires an admin token, and the mutating routes a specific permission.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminAuth(h.validator, h.logger))
			r.Get("/me", h.handleMe)
			r.Post("/accounts", h.handleCreateAccount)
			r.Get("/dashboard", h.handleDashboard)

			r.With(middleware.RequirePermission(string(admin.PermVerifySellers), h.logger)).
				Get("/sellers", h.handleListSellers)
			r.With(middleware.RequirePermission(string(admin.PermVerifySellers), h.logger)).
				Get("/sellers/{sellerID}", h.handleSellerDetail)
			r.With(middleware.RequirePermission(string(admin.PermVerifySellers), h.logger)).
				Put("/verify/{sellerID}", h.handleVerify)
			r.With(middleware.RequirePermission(string(admin.PermManageMembership), h.logger)).
				Put("/membership/{sellerID}", h.handleMembership)
			r.With(middleware.RequirePermission(string(admin.PermViewAnalytics), h.logger)).
				Get("/analytics", h.handleAnalytics)
		})
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, req.Username, req.Password, clientInfo(r))
	if err != nil {
		h.writeServiceError(ctx, w, "admin login failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		Admin: fromAdmin(result.Admin),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, err := h.service.GetAccount(ctx, requestcontext.AdminID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load admin", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromAdmin(a))
}

// handleCreateAccount registers a new admin. Only super-admins may do this;
// the role lives on the account, not in the token, so the caller is loaded.
func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller, err := h.service.GetAccount(ctx, requestcontext.AdminID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load admin", err)
		return
	}
	if caller.Role != admin.RoleSuperAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "super-admin role required"))
		return
	}

	req, ok := httputil.Decode[CreateAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	a, err := h.service.CreateAccount(ctx, req.Username, req.Password, admin.Role(req.Role), req.PermissionList())
	if err != nil {
		h.writeServiceError(ctx, w, "admin creation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromAdmin(a))
}

func (h *Handler) handleListSellers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := sellerFilter(r)

	summaries, total, err := h.service.ListSellers(ctx, filter)
	if err != nil {
		h.writeServiceError(ctx, w, "seller listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sellerListResponse{
		Sellers: fromSummaries(summaries),
		Pagination: paginationResponse{
			Total:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	})
}

func (h *Handler) handleSellerDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetSellerDetail(ctx, sellerID)
	if err != nil {
		h.writeServiceError(ctx, w, "seller detail failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromDetail(detail))
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	adminID := requestcontext.AdminID(ctx)

	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	decision, err := req.Decision(adminID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sl, v, err := h.verifications.Decide(ctx, sellerID, decision)
	if err != nil {
		h.writeServiceError(ctx, w, "verification decision failed", err)
		return
	}

	if err := h.service.RecordActivity(ctx, adminID, "verify-"+string(decision.Action), sellerID.String(), clientInfo(r)); err != nil {
		h.logger.WarnContext(ctx, "failed to log verification decision",
			"request_id", requestID,
			"error", err.Error(),
		)
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{
		Seller:       sellerhandler.FromSeller(sl),
		Verification: sellerhandler.FromVerification(v),
	})
}

func (h *Handler) handleMembership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[MembershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sl, err := h.service.UpdateMembership(ctx, requestcontext.AdminID(ctx), sellerID, req.MembershipStatus(), req.Reason, clientInfo(r))
	if err != nil {
		h.writeServiceError(ctx, w, "membership update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sellerhandler.FromSeller(sl))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Dashboard(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "dashboard failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromDashboard(stats))
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period := admin.AnalyticsPeriod(r.URL.Query().Get("period"))

	analytics, err := h.service.GetAnalytics(ctx, period)
	if err != nil {
		h.writeServiceError(ctx, w, "analytics failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromAnalytics(analytics))
}

func (h *Handler) sellerID(w http.ResponseWriter, r *http.Request) (id.SellerID, bool) {
	sellerID, err := id.ParseSellerID(chi.URLParam(r, "sellerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid seller id"))
		return id.SellerID{}, false
	}
	return sellerID, true
}

// sellerFilter parses the admin listing query parameters. Unknown status or
// category values pass through; the service rejects them.
func sellerFilter(r *http.Request) seller.ListFilter {
	query := r.URL.Query()
	filter := seller.ListFilter{
		Status:   seller.VerificationStatus(query.Get("status")),
		Category: seller.Category(query.Get("category")),
		Region:   query.Get("region"),
		Search:   query.Get("search"),
		Limit:    20,
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		filter.Limit = min(limit, 100)
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 1 {
		filter.Offset = (page - 1) * filter.Limit
	}
	return filter
}

func clientInfo(r *http.Request) admin.ClientInfo {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return admin.ClientInfo{IPAddress: host, UserAgent: r.UserAgent()}
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.GetCode(err)
	if code == dErrors.CodeInternal || code == dErrors.CodePartialWrite {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
