// ABOUTME: Tests for the HTTP bearer-token middleware
// ABOUTME: Covers accepted tokens, rejection paths, and context propagation

package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestMiddleware(t *testing.T) (*JWTVerifier, func(http.Handler) http.Handler) {
	t.Helper()
	verifier := NewJWTVerifier([]byte("test-secret-key-for-jwt-signing"))
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	return verifier, HTTPAuthMiddleware(verifier, logger)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestHTTPAuthMiddleware_ValidToken(t *testing.T) {
	verifier, middleware := newTestMiddleware(t)

	token, err := verifier.Generate("connector-teams-1", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var gotConnectorID string
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotConnectorID = ConnectorID(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotConnectorID != "connector-teams-1" {
		t.Errorf("ConnectorID = %q, want %q", gotConnectorID, "connector-teams-1")
	}
}

func TestHTTPAuthMiddleware_Rejections(t *testing.T) {
	_, middleware := newTestMiddleware(t)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic dXNlcjpwYXNz"},
		{name: "empty token", header: "Bearer "},
		{name: "invalid token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestHTTPAuthMiddleware_ExpiredToken(t *testing.T) {
	verifier, middleware := newTestMiddleware(t)

	token, err := verifier.Generate("connector-teams-1", -time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
