// ABOUTME: Directory lookup resolving a conversation member to an email address
// ABOUTME: Client-credentials OAuth exchange followed by a member-details query

package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2389/teams-relay/internal/store"
)

// Resolver looks up member email addresses through the channel directory.
// It acquires a bearer token via client-credentials OAuth exchange and then
// queries the per-conversation member-details endpoint.
type Resolver struct {
	tokenURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewResolver creates a Resolver using the given token endpoint.
// A nil httpClient falls back to a client with a 10 second timeout.
func NewResolver(tokenURL string, httpClient *http.Client, logger *slog.Logger) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		tokenURL:   tokenURL,
		httpClient: httpClient,
		logger:     logger.With("component", "identity"),
	}
}

// tokenResponse is the OAuth token endpoint response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// memberResponse is the member-details endpoint response body.
type memberResponse struct {
	Email string `json:"email"`
}

// ResolveEmail returns the email address of a conversation member.
// Both the token exchange and the member-details query are non-fatal for
// the caller: on any failure an error is returned and the caller proceeds
// with an absent email.
func (r *Resolver) ResolveEmail(ctx context.Context, conversationID, memberID string, creds *store.Credentials) (string, error) {
	token, err := r.acquireToken(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("acquiring directory token: %w", err)
	}

	memberURL := fmt.Sprintf("%s/conversations/%s/members/%s",
		strings.TrimSuffix(creds.TeamsBaseURL, "/"),
		url.PathEscape(conversationID),
		url.PathEscape(memberID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, memberURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating member-details request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying member details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		r.logger.Error("member details lookup failed",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return "", fmt.Errorf("member details returned status %d", resp.StatusCode)
	}

	var member memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return "", fmt.Errorf("decoding member details: %w", err)
	}

	return member.Email, nil
}

// acquireToken performs the client-credentials grant against the token endpoint.
func (r *Resolver) acquireToken(ctx context.Context, creds *store.Credentials) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {creds.TeamsClientID},
		"client_secret": {creds.TeamsClientSecret},
		"scope":         {creds.TeamsScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	return tok.AccessToken, nil
}
