package handler

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"udyam/internal/platform/middleware"
	"udyam/internal/product"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/platform/httputil"
	"udyam/pkg/requestcontext"
)

const maxMultipartMemory = 10 << 20

// Service covers the product listing operations.
type Service interface {
	Create(ctx context.Context, sellerID id.SellerID, in product.NewInput) (*product.Product, error)
	Update(ctx context.Context, sellerID id.SellerID, productID id.ProductID, update product.Update) (*product.Product, error)
	Delete(ctx context.Context, sellerID id.SellerID, productID id.ProductID) error
	Get(ctx context.Context, productID id.ProductID) (*product.Product, error)
	ListPublic(ctx context.Context, filter product.ListFilter) ([]*product.Product, int, error)
	ListBySeller(ctx context.Context, sellerID id.SellerID, filter product.ListFilter) ([]*product.Product, int, error)
	MyProducts(ctx context.Context, sellerID id.SellerID, filter product.ListFilter) ([]*product.Product, int, error)
	AddImages(ctx context.Context, sellerID id.SellerID, productID id.ProductID, images []product.ImageUpload) (*product.Product, error)
}

// Handler serves the product endpoints. Listing and detail reads are public;
// mutations require a seller token.
type Handler struct {
	logger    *slog.Logger
	products  Service
	validator middleware.SellerTokenValidator
}

// New creates a product Handler.
func New(products Service, validator middleware.SellerTokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		products:  products,
		validator: validator,
	}
}

// Register mounts the product routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/seller/{sellerID}", h.handleListBySeller)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSellerAuth(h.validator, h.logger))
			r.Post("/", h.handleCreate)
			r.Get("/my-products", h.handleMyProducts)
			r.Put("/{productID}", h.handleUpdate)
			r.Delete("/{productID}", h.handleDelete)
			r.Post("/{productID}/images", h.handleAddImages)
		})

		r.Get("/{productID}", h.handleGet)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.Decode[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.products.Create(ctx, requestcontext.SellerID(ctx), req.Input())
	if err != nil {
		h.writeServiceError(ctx, w, "product creation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromProduct(p))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	p, err := h.products.Get(ctx, productID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProduct(p))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.products.Update(ctx, requestcontext.SellerID(ctx), productID, req.Update())
	if err != nil {
		h.writeServiceError(ctx, w, "product update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProduct(p))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	if err := h.products.Delete(ctx, requestcontext.SellerID(ctx), productID); err != nil {
		h.writeServiceError(ctx, w, "product deletion failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		httputil.WriteValidationErrors(w, []string{"No files provided"})
		return
	}

	images, closers := toImageUploads(files)
	defer closeAll(closers)

	if reasons := product.ValidateImages(images); len(reasons) > 0 {
		httputil.WriteValidationErrors(w, reasons)
		return
	}

	p, err := h.products.AddImages(ctx, requestcontext.SellerID(ctx), productID, images)
	if err != nil {
		h.writeServiceError(ctx, w, "image upload failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProduct(p))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := listFilter(r)
	products, total, err := h.products.ListPublic(ctx, filter)
	if err != nil {
		h.writeServiceError(ctx, w, "product listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProducts(products, total, filter.Limit, filter.Offset))
}

func (h *Handler) handleListBySeller(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sellerID, err := id.ParseSellerID(chi.URLParam(r, "sellerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid seller id"))
		return
	}
	filter := listFilter(r)
	products, total, err := h.products.ListBySeller(ctx, sellerID, filter)
	if err != nil {
		h.writeServiceError(ctx, w, "product listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProducts(products, total, filter.Limit, filter.Offset))
}

func (h *Handler) handleMyProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := listFilter(r)
	// Sellers see all of their own listings unless they narrow explicitly.
	if r.URL.Query().Get("status") == "" {
		filter.Status = ""
	}
	products, total, err := h.products.MyProducts(ctx, requestcontext.SellerID(ctx), filter)
	if err != nil {
		h.writeServiceError(ctx, w, "product listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProducts(products, total, filter.Limit, filter.Offset))
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (id.ProductID, bool) {
	productID, err := id.ParseProductID(chi.URLParam(r, "productID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product id"))
		return id.ProductID{}, false
	}
	return productID, true
}

func toImageUploads(files []*multipart.FileHeader) ([]product.ImageUpload, []multipart.File) {
	images := make([]product.ImageUpload, 0, len(files))
	closers := make([]multipart.File, 0, len(files))
	for _, fh := range files {
		img := product.ImageUpload{
			Name:     fh.Filename,
			Mimetype: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
		}
		if f, err := fh.Open(); err == nil {
			img.Content = f
			closers = append(closers, f)
		}
		images = append(images, img)
	}
	return images, closers
}

func closeAll(closers []multipart.File) {
	for _, c := range closers {
		_ = c.Close()
	}
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.GetCode(err)
	if code == dErrors.CodeInternal {
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
