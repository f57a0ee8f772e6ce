// ABOUTME: Credential record access for per-client channel OAuth settings
// ABOUTME: Provides keyed lookup and provisioning upsert for the credentials table

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetCredentials retrieves the credential record for a client identifier.
// Returns ErrNotFound if no record exists.
func (s *SQLiteStore) GetCredentials(ctx context.Context, clientID string) (*Credentials, error) {
	query := `
		SELECT client_id, teams_client_id, teams_client_secret, teams_scope,
		       teams_base_url, translation_enabled, updated_at
		FROM credentials
		WHERE client_id = ?
	`

	creds := &Credentials{}
	var translationEnabled int
	var updatedAt string

	err := s.db.QueryRowContext(ctx, query, clientID).Scan(
		&creds.ClientID,
		&creds.TeamsClientID,
		&creds.TeamsClientSecret,
		&creds.TeamsScope,
		&creds.TeamsBaseURL,
		&translationEnabled,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}

	creds.TranslationEnabled = translationEnabled != 0
	creds.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return creds, nil
}

// PutCredentials inserts or replaces a credential record. Provisioning
// happens out-of-band; this exists for seeding and tests.
func (s *SQLiteStore) PutCredentials(ctx context.Context, creds *Credentials) error {
	query := `
		INSERT INTO credentials (
			client_id, teams_client_id, teams_client_secret, teams_scope,
			teams_base_url, translation_enabled, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			teams_client_id     = excluded.teams_client_id,
			teams_client_secret = excluded.teams_client_secret,
			teams_scope         = excluded.teams_scope,
			teams_base_url      = excluded.teams_base_url,
			translation_enabled = excluded.translation_enabled,
			updated_at          = excluded.updated_at
	`

	translationEnabled := 0
	if creds.TranslationEnabled {
		translationEnabled = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		creds.ClientID,
		creds.TeamsClientID,
		creds.TeamsClientSecret,
		creds.TeamsScope,
		creds.TeamsBaseURL,
		translationEnabled,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting credentials: %w", err)
	}
	return nil
}
