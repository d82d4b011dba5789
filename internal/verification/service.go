package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"udyam/internal/seller"
	"udyam/internal/upload"
	"udyam/internal/verification/metrics"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/platform/tx"
	"udyam/pkg/requestcontext"
)

// SellerStore is the slice of the seller store the verification flows need.
type SellerStore interface {
	FindByID(ctx context.Context, sellerID id.SellerID) (*seller.Seller, error)
	Update(ctx context.Context, s *seller.Seller) error
}

// Service drives the verification transitions and persists the seller
// projection and the verification record together. With a SQL database both
// writes share one transaction; in-memory stores do two sequential saves.
type Service struct {
	sellers   SellerStore
	store     Store
	db        *sql.DB
	uploadDir string
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDB enables transactional dual writes against SQL-backed stores.
func WithDB(db *sql.DB) Option {
	return func(s *Service) {
		s.db = db
	}
}

func NewService(sellers SellerStore, store Store, uploadDir string, opts ...Option) *Service {
	s := &Service{
		sellers:   sellers,
		store:     store,
		uploadDir: uploadDir,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileUpload is one incoming multipart file with its content still unread.
type FileUpload struct {
	Name     string
	Mimetype string
	Size     int64
	Content  io.Reader
}

// AlternateUpload pairs an incoming file with its evidence descriptor.
type AlternateUpload struct {
	File        FileUpload
	Type        seller.AlternateDocumentType
	Description string
}

// RegistrationInput finalizes onboarding: profile fields plus the document
// declaration. Alternate documents at this stage are descriptors only; files
// arrive through SubmitAlternateDocuments.
type RegistrationInput struct {
	Profile            seller.ProfileUpdate
	HasDocuments       bool
	DocumentType       seller.DocumentType
	AlternateDocuments []AlternateUpload
}

// CompleteRegistration applies the profile and runs the registration
// transition. Sellers without documents leave with a provisional membership.
func (s *Service) CompleteRegistration(ctx context.Context, sellerID id.SellerID, input RegistrationInput) (*seller.Seller, *Verification, error) {
	if err := input.Profile.Validate(); err != nil {
		return nil, nil, err
	}
	if input.DocumentType != "" && !input.DocumentType.Valid() {
		return nil, nil, dErrors.Newf(dErrors.CodeValidation, "invalid document type %q", string(input.DocumentType))
	}
	documentType := input.DocumentType
	if !input.HasDocuments {
		documentType = seller.DocumentTypeNone
	}

	now := requestcontext.Now(ctx)
	sl, err := s.loadSeller(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.findVerification(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}

	sl.Apply(input.Profile, now)

	var altDocs []AlternateDocument
	for _, alt := range input.AlternateDocuments {
		if !alt.Type.Valid() {
			return nil, nil, dErrors.Newf(dErrors.CodeValidation, "invalid alternate document type %q", string(alt.Type))
		}
		altDocs = append(altDocs, AlternateDocument{
			Type:        alt.Type,
			Description: alt.Description,
			UploadedAt:  now,
		})
	}

	v = ApplyRegistration(sl, v, input.HasDocuments, documentType, altDocs, now)

	if err := s.persistPair(ctx, sl, v); err != nil {
		return nil, nil, err
	}

	s.metrics.IncrementSubmission("registration")
	if !input.HasDocuments {
		s.metrics.IncrementProvisionalGrant()
	}
	s.logger.Info("registration completed",
		"request_id", requestcontext.RequestID(ctx),
		"seller_id", sellerID,
		"has_documents", input.HasDocuments,
		"verification_status", sl.VerificationStatus)
	return sl, v, nil
}

// SubmitDocuments validates and stores standard identity documents, then runs
// the document-submission transition. The whole batch is accepted or none of
// it; written files are removed if anything downstream fails.
func (s *Service) SubmitDocuments(ctx context.Context, sellerID id.SellerID, documentType seller.DocumentType, uploads []FileUpload) (*seller.Seller, *Verification, error) {
	if documentType != "" && !documentType.Valid() {
		return nil, nil, dErrors.Newf(dErrors.CodeValidation, "invalid document type %q", string(documentType))
	}

	now := requestcontext.Now(ctx)
	sl, err := s.loadSeller(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.findVerification(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}

	paths, err := s.storeFiles(uploads)
	if err != nil {
		return nil, nil, err
	}

	v = ApplyDocumentSubmission(sl, v, paths, documentType, now)

	if err := s.persistPair(ctx, sl, v); err != nil {
		upload.Cleanup(s.logger, paths)
		return nil, nil, err
	}

	s.metrics.IncrementSubmission("documents")
	s.logger.Info("identity documents submitted",
		"request_id", requestcontext.RequestID(ctx),
		"seller_id", sellerID,
		"count", len(paths))
	return sl, v, nil
}

// SubmitAlternateDocuments validates and stores supporting evidence for
// sellers without a standard identity document and grants provisional
// membership.
func (s *Service) SubmitAlternateDocuments(ctx context.Context, sellerID id.SellerID, entries []AlternateUpload) (*seller.Seller, *Verification, error) {
	for _, entry := range entries {
		if !entry.Type.Valid() {
			return nil, nil, dErrors.Newf(dErrors.CodeValidation, "invalid alternate document type %q", string(entry.Type))
		}
	}

	now := requestcontext.Now(ctx)
	sl, err := s.loadSeller(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.findVerification(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}

	files := make([]FileUpload, len(entries))
	for i, entry := range entries {
		files[i] = entry.File
	}
	paths, err := s.storeFiles(files)
	if err != nil {
		return nil, nil, err
	}

	altDocs := make([]AlternateDocument, len(entries))
	for i, entry := range entries {
		altDocs[i] = AlternateDocument{
			Type:        entry.Type,
			Path:        paths[i],
			Description: entry.Description,
			UploadedAt:  now,
		}
	}

	v = ApplyAlternateSubmission(sl, v, altDocs, now)

	if err := s.persistPair(ctx, sl, v); err != nil {
		upload.Cleanup(s.logger, paths)
		return nil, nil, err
	}

	s.metrics.IncrementSubmission("alternate")
	s.metrics.IncrementProvisionalGrant()
	s.logger.Info("alternate documents submitted",
		"request_id", requestcontext.RequestID(ctx),
		"seller_id", sellerID,
		"count", len(paths))
	return sl, v, nil
}

// Decide applies one admin verdict to a seller. A missing verification record
// is created on the fly, so rejection works as a first-ever admin action.
func (s *Service) Decide(ctx context.Context, sellerID id.SellerID, decision Decision) (*seller.Seller, *Verification, error) {
	now := requestcontext.Now(ctx)
	sl, err := s.loadSeller(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}
	v, err := s.findVerification(ctx, sellerID)
	if err != nil {
		return nil, nil, err
	}

	v, err = ApplyAdminDecision(sl, v, decision, now)
	if err != nil {
		return nil, nil, err
	}

	if err := s.persistPair(ctx, sl, v); err != nil {
		return nil, nil, err
	}

	s.metrics.IncrementDecision(string(decision.Action))
	if decision.Action == DecisionProvisional {
		s.metrics.IncrementProvisionalGrant()
	}
	s.logger.Info("admin decision applied",
		"request_id", requestcontext.RequestID(ctx),
		"seller_id", sellerID,
		"admin_id", decision.AdminID,
		"action", decision.Action)
	return sl, v, nil
}

// StatusReport is the seller-facing view of the review state. Expiry and
// renewal capability are computed on read; nothing changes state here.
type StatusReport struct {
	Seller               *seller.Seller
	Verification         *Verification
	IsProvisionalExpired bool
	CanRenew             bool
}

// Status builds the read model for one seller.
func (s *Service) Status(ctx context.Context, sellerID id.SellerID) (*StatusReport, error) {
	now := requestcontext.Now(ctx)
	sl, err := s.loadSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	v, err := s.findVerification(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{Seller: sl, Verification: v}
	if v != nil && v.ProvisionalDetails.IsProvisional {
		report.IsProvisionalExpired = v.IsProvisionalExpired(now)
		report.CanRenew = v.CanRenewProvisional()
	}
	return report, nil
}

// ValidateUploads runs batch validation on upload metadata. All reasons are
// reported; the submission is all-or-nothing.
func ValidateUploads(files []FileUpload) []string {
	candidates := make([]upload.File, len(files))
	for i, f := range files {
		candidates[i] = upload.File{
			OriginalName: f.Name,
			Mimetype:     f.Mimetype,
			Size:         f.Size,
		}
	}
	result := upload.ValidateBatch(candidates)
	if result.IsValid {
		return nil
	}
	return result.Errors
}

// storeFiles writes validated uploads into the upload directory under secure
// names. Already-written files are removed when a later write fails.
func (s *Service) storeFiles(files []FileUpload) ([]string, error) {
	if reasons := ValidateUploads(files); reasons != nil {
		return nil, dErrors.New(dErrors.CodeValidation, strings.Join(reasons, "; "))
	}
	if err := upload.EnsureDir(s.uploadDir); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to prepare upload directory")
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		name := upload.GenerateSecureFilename(f.Name, f.Mimetype)
		path := filepath.Join(s.uploadDir, name)
		if err := writeFile(path, f.Content); err != nil {
			upload.Cleanup(s.logger, paths)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store uploaded file")
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, content io.Reader) error {
	// A part that failed to open upstream arrives without a reader.
	if content == nil {
		return fmt.Errorf("write %s: missing content reader", path)
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(out, content); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
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

// findVerification resolves the seller's record; absence is not an error, the
// transitions create one when needed.
func (s *Service) findVerification(ctx context.Context, sellerID id.SellerID) (*Verification, error) {
	v, err := s.store.FindBySeller(ctx, sellerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification record")
	}
	return v, nil
}

// persistPair writes the seller projection and the verification record. With
// a SQL database both writes commit atomically; otherwise the second failure
// leaves a recorded inconsistency.
func (s *Service) persistPair(ctx context.Context, sl *seller.Seller, v *Verification) error {
	return tx.Execute(ctx, s.db, func(ctx context.Context) error {
		if err := s.sellers.Update(ctx, sl); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save seller")
		}
		if err := s.store.Save(ctx, v); err != nil {
			if s.db == nil {
				s.metrics.IncrementPartialWrite()
				s.logger.Error("verification write failed after seller save",
					"seller_id", sl.ID, "verification_id", v.ID, "error", err)
				return dErrors.Wrap(err, dErrors.CodePartialWrite, "seller saved but verification record write failed")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification record")
		}
		return nil
	})
}
