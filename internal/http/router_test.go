package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/expenditure-manager/internal/auth"
	"gitlab.com/yelinaung/expenditure-manager/internal/ledger"
)

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/healthz", nil, "")

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireSession(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + testToken},
		{"unknown token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			api.handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Please sign in.", errorOf(t, rec))
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transactions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/transactions", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", &ledger.ValidationError{Message: "Please enter a valid amount."}, http.StatusBadRequest, "Please enter a valid amount."},
		{"not found", ledger.ErrNotFound, http.StatusNotFound, "not found"},
		{"expired", auth.ErrExpiredToken, http.StatusUnauthorized, "Your session has expired. Please sign in again."},
		{"email taken", auth.ErrEmailTaken, http.StatusConflict, "An account with this email already exists."},
		{"invalid email", auth.ErrInvalidEmail, http.StatusBadRequest, "Please enter a valid email address."},
		{"store", errors.New("connection refused"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantError, errorOf(t, rec))
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Bearer  abc ")
	assert.Equal(t, "abc", bearerToken(req))
}
