package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"udyam/internal/upload"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/requestcontext"
)

// Service owns the product listing lifecycle. Mutations are restricted to
// the owning seller.
type Service struct {
	store     Store
	uploadDir string
	logger    *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, uploadDir string, opts ...Option) *Service {
	s := &Service{
		store:     store,
		uploadDir: uploadDir,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a new listing owned by the seller.
func (s *Service) Create(ctx context.Context, sellerID id.SellerID, in NewInput) (*Product, error) {
	now := requestcontext.Now(ctx)
	p, err := New(sellerID, in, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create product")
	}
	s.logger.InfoContext(ctx, "product created",
		"request_id", requestcontext.RequestID(ctx),
		"product_id", p.ID,
		"seller_id", sellerID)
	return p, nil
}

// Update applies changes to a listing after an ownership check.
func (s *Service) Update(ctx context.Context, sellerID id.SellerID, productID id.ProductID, update Update) (*Product, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	p, err := s.loadOwned(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	p.Apply(update, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update product")
	}
	return p, nil
}

// Delete removes a listing after an ownership check.
func (s *Service) Delete(ctx context.Context, sellerID id.SellerID, productID id.ProductID) error {
	if _, err := s.loadOwned(ctx, sellerID, productID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, productID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete product")
	}
	s.logger.InfoContext(ctx, "product deleted",
		"request_id", requestcontext.RequestID(ctx),
		"product_id", productID,
		"seller_id", sellerID)
	return nil
}

// Get loads one listing.
func (s *Service) Get(ctx context.Context, productID id.ProductID) (*Product, error) {
	p, err := s.store.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load product")
	}
	return p, nil
}

// ListPublic lists products of verified sellers. Callers choose the status
// constraint; an empty status means all statuses.
func (s *Service) ListPublic(ctx context.Context, filter ListFilter) ([]*Product, int, error) {
	filter.VerifiedOnly = true
	return s.list(ctx, filter)
}

// ListBySeller lists one seller's products for public viewing.
func (s *Service) ListBySeller(ctx context.Context, sellerID id.SellerID, filter ListFilter) ([]*Product, int, error) {
	filter.SellerID = sellerID
	return s.list(ctx, filter)
}

// MyProducts lists the authenticated seller's own products, all statuses
// unless narrowed.
func (s *Service) MyProducts(ctx context.Context, sellerID id.SellerID, filter ListFilter) ([]*Product, int, error) {
	filter.SellerID = sellerID
	filter.VerifiedOnly = false
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]*Product, int, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, 0, dErrors.Newf(dErrors.CodeValidation, "invalid category %q", string(filter.Category))
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, dErrors.Newf(dErrors.CodeValidation, "invalid status %q", string(filter.Status))
	}
	products, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list products")
	}
	return products, total, nil
}

// ImageUpload is one incoming product image.
type ImageUpload struct {
	Name     string
	Mimetype string
	Size     int64
	Content  io.Reader
}

// ValidateImages runs batch validation on image metadata. All reasons are
// reported.
func ValidateImages(images []ImageUpload) []string {
	candidates := make([]upload.File, len(images))
	for i, img := range images {
		candidates[i] = upload.File{
			OriginalName: img.Name,
			Mimetype:     img.Mimetype,
			Size:         img.Size,
		}
	}
	result := upload.ValidateBatch(candidates)
	if result.IsValid {
		return nil
	}
	return result.Errors
}

// AddImages stores the images and attaches them to the listing after an
// ownership check. Stored files are removed when persistence fails.
func (s *Service) AddImages(ctx context.Context, sellerID id.SellerID, productID id.ProductID, images []ImageUpload) (*Product, error) {
	p, err := s.loadOwned(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	if reasons := ValidateImages(images); reasons != nil {
		return nil, dErrors.New(dErrors.CodeValidation, strings.Join(reasons, "; "))
	}
	if err := upload.EnsureDir(s.uploadDir); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to prepare upload directory")
	}

	paths := make([]string, 0, len(images))
	for _, img := range images {
		name := upload.GenerateSecureFilename(img.Name, img.Mimetype)
		path := filepath.Join(s.uploadDir, name)
		if err := writeImage(path, img.Content); err != nil {
			upload.Cleanup(s.logger, paths)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store image")
		}
		paths = append(paths, path)
	}

	p.AddImages(paths, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, p); err != nil {
		upload.Cleanup(s.logger, paths)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach images")
	}
	return p, nil
}

func writeImage(path string, content io.Reader) error {
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

// loadOwned loads the product and enforces ownership.
func (s *Service) loadOwned(ctx context.Context, sellerID id.SellerID, productID id.ProductID) (*Product, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.SellerID != sellerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "not authorized to modify this product")
	}
	return p, nil
}
