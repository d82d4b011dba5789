package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "udyam/internal/jwt_token"
	"udyam/internal/platform/middleware"
	"udyam/internal/seller"
	"udyam/internal/verification"
)

type testEnv struct {
	router  chi.Router
	tokens  *jwttoken.Service
	sellers *seller.InMemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwttoken.New("test-key", "udyam-test")
	sellers := seller.NewInMemoryStore()

	profiles := seller.NewService(sellers, seller.WithLogger(logger))
	verifications := verification.NewService(sellers, verification.NewInMemoryStore(), t.TempDir(),
		verification.WithLogger(logger))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	New(profiles, verifications, tokens, logger).Register(router)
	return &testEnv{router: router, tokens: tokens, sellers: sellers}
}

// seedSeller creates a pending seller and returns it with a valid token.
func (e *testEnv) seedSeller(t *testing.T, phone string) (*seller.Seller, string) {
	t.Helper()
	sl, err := seller.New(phone, time.Now())
	require.NoError(t, err)
	require.NoError(t, e.sellers.Create(t.Context(), sl))

	token, err := e.tokens.GenerateSellerToken(sl.ID, sl.Phone, string(sl.VerificationStatus), time.Hour)
	require.NoError(t, err)
	return sl, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, method, path, token, bytes.NewReader(body), "application/json")
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/seller/profile", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedSeller(t, "+919812345678")

	t.Run("with documents stays pending", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPost, "/seller/register", token, map[string]any{
			"name":          "Asha Devi",
			"region":        "Bihar",
			"categories":    []string{"Handicrafts"},
			"has_documents": true,
			"document_type": "PAN",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeBody[SellerResponse](t, rec)
		assert.Equal(t, "pending", resp.VerificationStatus)
		assert.Equal(t, "Asha Devi", resp.Name)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPost, "/seller/register", token, map[string]any{
			"region":     "Bihar",
			"categories": []string{"Handicrafts"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid document type rejected", func(t *testing.T) {
		rec := env.doJSON(t, http.MethodPost, "/seller/register", token, map[string]any{
			"name":          "Asha Devi",
			"region":        "Bihar",
			"categories":    []string{"Handicrafts"},
			"has_documents": true,
			"document_type": "Passport",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRegisterWithoutDocumentsGrantsProvisional(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedSeller(t, "+919812345678")

	rec := env.doJSON(t, http.MethodPost, "/seller/register", token, map[string]any{
		"name":          "Asha Devi",
		"region":        "Bihar",
		"categories":    []string{"Handicrafts", "Textiles"},
		"has_documents": false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[SellerResponse](t, rec)
	assert.Equal(t, "provisional", resp.VerificationStatus)
	require.NotNil(t, resp.UnionMembership.ExpiryDate)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	sl, token := env.seedSeller(t, "+919812345678")

	rec := env.do(t, http.MethodGet, "/seller/profile", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[SellerResponse](t, rec)
	assert.Equal(t, sl.ID.String(), resp.ID)

	rec = env.doJSON(t, http.MethodPut, "/seller/profile", token, map[string]any{
		"city":  "Patna",
		"email": "  ASHA@Example.COM ",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[SellerResponse](t, rec)
	assert.Equal(t, "Patna", resp.City)
	assert.Equal(t, "asha@example.com", resp.Email)

	rec = env.doJSON(t, http.MethodPut, "/seller/profile", token, map[string]any{
		"scale": "galactic",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// multipartBody builds a multipart form with the given file parts and values.
func multipartBody(t *testing.T, field string, files []struct {
	name, mimetype, content string
}, values map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.name))
		h.Set("Content-Type", f.mimetype)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	for key, vals := range values {
		for _, v := range vals {
			require.NoError(t, w.WriteField(key, v))
		}
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestUploadDocuments(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedSeller(t, "+919812345678")

	t.Run("valid upload recorded", func(t *testing.T) {
		body, contentType := multipartBody(t, "documents", []struct {
			name, mimetype, content string
		}{
			{"pan.png", "image/png", "fake-png-bytes"},
		}, map[string][]string{"documentType": {"PAN"}})

		rec := env.do(t, http.MethodPost, "/seller/upload-documents", token, body, contentType)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decodeBody[StatusResponse](t, rec)
		require.NotNil(t, resp.Verification)
		assert.Equal(t, "pending", resp.Verification.Status)
		assert.Equal(t, 1, resp.Verification.DocumentCount)
		assert.Equal(t, "PAN", resp.Verification.DocumentType)
	})

	t.Run("disallowed type surfaces every reason", func(t *testing.T) {
		body, contentType := multipartBody(t, "documents", []struct {
			name, mimetype, content string
		}{
			{"malware.exe", "application/x-msdownload", "nope"},
		}, nil)

		rec := env.do(t, http.MethodPost, "/seller/upload-documents", token, body, contentType)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp struct {
			Details []string `json:"details"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Details, 1)
		assert.Contains(t, resp.Details[0], "Invalid file type")
		assert.Contains(t, resp.Details[0], "security reasons")
	})

	t.Run("no files", func(t *testing.T) {
		body, contentType := multipartBody(t, "documents", nil, map[string][]string{"documentType": {"PAN"}})
		rec := env.do(t, http.MethodPost, "/seller/upload-documents", token, body, contentType)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No files provided")
	})
}

func TestAlternateDocuments(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedSeller(t, "+919812345678")

	body, contentType := multipartBody(t, "alternateDocuments", []struct {
		name, mimetype, content string
	}{
		{"shop.jpg", "image/jpeg", "fake-jpg"},
		{"stall.jpg", "image/jpeg", "fake-jpg-2"},
	}, map[string][]string{
		"types":        {"Shop License", "Work Photo"},
		"descriptions": {"storefront", ""},
	})

	rec := env.do(t, http.MethodPost, "/seller/alternate-documents", token, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[StatusResponse](t, rec)
	assert.Equal(t, "provisional", resp.Seller.VerificationStatus)
	require.NotNil(t, resp.Provisional)
	require.NotNil(t, resp.Provisional.ExpiryDate)
	assert.Equal(t, 2, resp.Seller.AlternateDocuments)
}

func TestAlternateDocumentsInvalidType(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedSeller(t, "+919812345678")

	body, contentType := multipartBody(t, "alternateDocuments", []struct {
		name, mimetype, content string
	}{
		{"shop.jpg", "image/jpeg", "fake-jpg"},
	}, map[string][]string{"types": {"Notarized Deed"}})

	rec := env.do(t, http.MethodPost, "/seller/alternate-documents", token, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerificationStatus(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedSeller(t, "+919812345678")

	rec := env.do(t, http.MethodGet, "/seller/verification-status", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[StatusResponse](t, rec)
	assert.Equal(t, "pending", resp.Seller.VerificationStatus)
	assert.Nil(t, resp.Verification)
	assert.False(t, resp.IsProvisionalExpired)
}

func TestSupportTickets(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedSeller(t, "+919812345678")

	rec := env.doJSON(t, http.MethodPost, "/seller/report-issue", token, map[string]string{
		"issue":       "Payment not received",
		"description": "Order #42 settled but no payout",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	ticket := decodeBody[TicketResponse](t, rec)
	assert.Equal(t, "open", ticket.Status)
	assert.Equal(t, "Payment not received", ticket.Issue)

	rec = env.do(t, http.MethodGet, "/seller/support-tickets", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	tickets := decodeBody[[]TicketResponse](t, rec)
	require.Len(t, tickets, 1)
	assert.Equal(t, ticket.ID, tickets[0].ID)

	rec = env.doJSON(t, http.MethodPost, "/seller/report-issue", token, map[string]string{"issue": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
