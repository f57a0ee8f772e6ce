// ABOUTME: HTTP middleware for JWT authentication on the event endpoint
// ABOUTME: Extracts a bearer token and verifies the connector identity

package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// connectorIDKey is the context key carrying the authenticated connector ID.
type contextKey string

const connectorIDKey contextKey = "connector_id"

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// ConnectorID returns the authenticated connector ID from the request
// context, or empty string if the request was not authenticated.
func ConnectorID(r *http.Request) string {
	id, _ := r.Context().Value(connectorIDKey).(string)
	return id
}

// HTTPAuthMiddleware creates an HTTP middleware that extracts and validates
// JWT bearer tokens. The authentication failure responses are the only paths
// in the relay that return a non-200 status to the upstream connector.
func HTTPAuthMiddleware(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				http.Error(w, `{"error":"`+errMsg+`"}`, http.StatusUnauthorized)
				return
			}

			connectorID, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("rejected request with invalid token", "error", err)
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := withConnectorID(r.Context(), connectorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
