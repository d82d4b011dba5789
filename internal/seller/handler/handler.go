package handler

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"udyam/internal/platform/middleware"
	"udyam/internal/seller"
	"udyam/internal/verification"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/platform/httputil"
	"udyam/pkg/requestcontext"
)

// multipart form memory ceiling; larger parts spill to temp files.
const maxMultipartMemory = 10 << 20

// ProfileService covers the profile and support ticket operations.
type ProfileService interface {
	Profile(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error)
	UpdateProfile(ctx context.Context, sellerID id.SellerID, update seller.ProfileUpdate) (*seller.Seller, error)
	ReportIssue(ctx context.Context, sellerID id.SellerID, issue, description string) (*seller.SupportTicket, error)
	SupportTickets(ctx context.Context, sellerID id.SellerID) ([]seller.SupportTicket, error)
}

// VerificationService covers registration, document submission and status
// reads.
type VerificationService interface {
	CompleteRegistration(ctx context.Context, sellerID id.SellerID, input verification.RegistrationInput) (*seller.Seller, *verification.Verification, error)
	SubmitDocuments(ctx context.Context, sellerID id.SellerID, documentType seller.DocumentType, uploads []verification.FileUpload) (*seller.Seller, *verification.Verification, error)
	SubmitAlternateDocuments(ctx context.Context, sellerID id.SellerID, entries []verification.AlternateUpload) (*seller.Seller, *verification.Verification, error)
	Status(ctx context.Context, sellerID id.SellerID) (*verification.StatusReport, error)
}

// Handler serves the seller-facing endpoints.
type Handler struct {
	logger        *slog.Logger
	profiles      ProfileService
	verifications VerificationService
	validator     middleware.SellerTokenValidator
}

// New creates a seller Handler.
func New(profiles ProfileService, verifications VerificationService, validator middleware.SellerTokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		profiles:      profiles,
		verifications: verifications,
		validator:     validator,
	}
}

// Register mounts the seller routes. All routes require a seller token.
func (h *Handler) Register(r chi.Router) {
	r.Route("/seller", func(r chi.Router) {
		r.Use(middleware.RequireSellerAuth(h.validator, h.logger))
		r.Post("/register", h.handleRegister)
		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleUpdateProfile)
		r.Post("/upload-documents", h.handleUploadDocuments)
		r.Post("/alternate-documents", h.handleAlternateDocuments)
		r.Get("/verification-status", h.handleVerificationStatus)
		r.Post("/report-issue", h.handleReportIssue)
		r.Get("/support-tickets", h.handleSupportTickets)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	sl, _, err := h.verifications.CompleteRegistration(ctx, requestcontext.SellerID(ctx), req.Input())
	if err != nil {
		h.writeServiceError(ctx, w, "registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSeller(sl))
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sl, err := h.profiles.Profile(ctx, requestcontext.SellerID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSeller(sl))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[UpdateProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sl, err := h.profiles.UpdateProfile(ctx, requestcontext.SellerID(ctx), req.Update())
	if err != nil {
		h.writeServiceError(ctx, w, "profile update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSeller(sl))
}

func (h *Handler) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	files, done := h.multipartFiles(w, r, "documents")
	if done {
		return
	}
	uploads, closers := toFileUploads(files)
	defer closeAll(closers)

	if reasons := verification.ValidateUploads(uploads); len(reasons) > 0 {
		httputil.WriteValidationErrors(w, reasons)
		return
	}

	documentType := seller.DocumentType(r.FormValue("documentType"))
	sl, v, err := h.verifications.SubmitDocuments(ctx, requestcontext.SellerID(ctx), documentType, uploads)
	if err != nil {
		h.writeServiceError(ctx, w, "document upload failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromStatusReportParts(sl, v))
}

func (h *Handler) handleAlternateDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	files, done := h.multipartFiles(w, r, "alternateDocuments")
	if done {
		return
	}
	uploads, closers := toFileUploads(files)
	defer closeAll(closers)

	if reasons := verification.ValidateUploads(uploads); len(reasons) > 0 {
		httputil.WriteValidationErrors(w, reasons)
		return
	}

	types := r.Form["types"]
	descriptions := r.Form["descriptions"]
	entries := make([]verification.AlternateUpload, len(uploads))
	for i, u := range uploads {
		entry := verification.AlternateUpload{
			File: u,
			Type: seller.AlternateDocOther,
		}
		if i < len(types) && types[i] != "" {
			entry.Type = seller.AlternateDocumentType(types[i])
			if !entry.Type.Valid() {
				httputil.WriteError(w, dErrors.Newf(dErrors.CodeValidation, "invalid alternate document type %q", types[i]))
				return
			}
		}
		if i < len(descriptions) {
			entry.Description = descriptions[i]
		}
		entries[i] = entry
	}

	sl, v, err := h.verifications.SubmitAlternateDocuments(ctx, requestcontext.SellerID(ctx), entries)
	if err != nil {
		h.writeServiceError(ctx, w, "alternate document upload failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromStatusReportParts(sl, v))
}

func (h *Handler) handleVerificationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.verifications.Status(ctx, requestcontext.SellerID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load verification status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromStatusReport(report))
}

func (h *Handler) handleReportIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[ReportIssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ticket, err := h.profiles.ReportIssue(ctx, requestcontext.SellerID(ctx), req.Issue, req.Description)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to report issue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromTicket(*ticket))
}

func (h *Handler) handleSupportTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tickets, err := h.profiles.SupportTickets(ctx, requestcontext.SellerID(ctx))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load support tickets", err)
		return
	}
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, FromTicket(t))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// multipartFiles parses the form and pulls the named file parts. The bool
// result reports whether a response has already been written.
func (h *Handler) multipartFiles(w http.ResponseWriter, r *http.Request, field string) ([]*multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return nil, true
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		httputil.WriteValidationErrors(w, []string{"No files provided"})
		return nil, true
	}
	return files, false
}

// toFileUploads opens each part. Parts that fail to open surface later as
// nil readers; callers always get one closer per opened part.
func toFileUploads(files []*multipart.FileHeader) ([]verification.FileUpload, []multipart.File) {
	uploads := make([]verification.FileUpload, 0, len(files))
	closers := make([]multipart.File, 0, len(files))
	for _, fh := range files {
		u := verification.FileUpload{
			Name:     fh.Filename,
			Mimetype: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
		}
		if f, err := fh.Open(); err == nil {
			u.Content = f
			closers = append(closers, f)
		}
		uploads = append(uploads, u)
	}
	return uploads, closers
}

func closeAll(closers []multipart.File) {
	for _, c := range closers {
		_ = c.Close()
	}
}

// FromStatusReportParts builds a submission response from the freshly
// persisted pair. Expiry advice is not recomputed here; clients poll
// verification-status for that.
func FromStatusReportParts(sl *seller.Seller, v *verification.Verification) *StatusResponse {
	return FromStatusReport(&verification.StatusReport{
		Seller:       sl,
		Verification: v,
		CanRenew:     v != nil && v.CanRenewProvisional(),
	})
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
