package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"udyam/internal/auth"
	"udyam/internal/auth/otp"
	jwttoken "udyam/internal/jwt_token"
	"udyam/internal/platform/config"
	"udyam/internal/platform/middleware"
	"udyam/internal/seller"
)

func newAuthRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwttoken.New("test-key", "udyam-test")
	service := auth.New(
		seller.NewInMemoryStore(),
		otp.NewInMemoryStore(),
		otp.NewLogSender(logger),
		tokens,
		config.OTPConfig{
			TTL:         5 * time.Minute,
			MaxAttempts: 3,
			SendWindow:  15 * time.Minute,
			SendLimit:   3,
		},
		24*time.Hour,
		auth.WithDevMode(true),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	New(service, tokens, logger).Register(router)
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, payload any, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router http.Handler, phone string) (string, map[string]any) {
	t.Helper()
	rec := postJSON(t, router, "/auth/send-otp", map[string]string{"phone": phone}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sent struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sent))
	require.Len(t, sent.Code, 6)

	rec = postJSON(t, router, "/auth/verify-otp", map[string]string{"phone": phone, "otp": sent.Code}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Token  string         `json:"token"`
		Seller map[string]any `json:"seller"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.NotEmpty(t, result.Token)
	return result.Token, result.Seller
}

func TestSendOTPRejectsBadPhone(t *testing.T) {
	router := newAuthRouter(t)
	rec := postJSON(t, router, "/auth/send-otp", map[string]string{"phone": "abc"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	router := newAuthRouter(t)
	rec := postJSON(t, router, "/auth/send-otp", map[string]string{"phone": "+919812345678"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/auth/verify-otp", map[string]string{"phone": "+919812345678", "otp": "000000"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFlow(t *testing.T) {
	router := newAuthRouter(t)
	token, sl := login(t, router, "+919812345678")

	assert.Equal(t, "pending", sl["verification_status"])
	membership, ok := sl["union_membership"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, membership["id"])

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&me))
	assert.Equal(t, sl["id"], me["id"])
}

func TestRefreshToken(t *testing.T) {
	router := newAuthRouter(t)
	token, _ := login(t, router, "+919812345678")

	rec := postJSON(t, router, "/auth/refresh-token", map[string]string{}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshed struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&refreshed))
	assert.NotEmpty(t, refreshed.Token)
}

func TestLogout(t *testing.T) {
	router := newAuthRouter(t)
	token, _ := login(t, router, "+919812345678")

	rec := postJSON(t, router, "/auth/logout", map[string]string{}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "logged out successfully", body.Message)

	// Nothing is revoked server-side; the token keeps working until it
	// expires.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	meRec := httptest.NewRecorder()
	router.ServeHTTP(meRec, req)
	assert.Equal(t, http.StatusOK, meRec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, router, "/auth/refresh-token", map[string]string{}, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, router, "/auth/logout", map[string]string{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
