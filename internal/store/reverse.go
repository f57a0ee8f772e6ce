// ABOUTME: Reverse identity index mapping account identifiers to conversations
// ABOUTME: Denormalized, rebuilt on every event; always derivable from conversations

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UpsertReverseIndex writes the account → conversation mapping. The write is
// unconditional and idempotent; it is rebuilt on every event referencing the
// account identifier.
func (s *SQLiteStore) UpsertReverseIndex(ctx context.Context, accountID, conversationID string) error {
	query := `
		INSERT INTO reverse_index (account_id, conversation_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			updated_at      = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		accountID, conversationID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting reverse index: %w", err)
	}
	return nil
}

// GetReverseIndex retrieves the conversation mapping for an account
// identifier. Returns ErrNotFound if no mapping exists.
func (s *SQLiteStore) GetReverseIndex(ctx context.Context, accountID string) (*ReverseIndexEntry, error) {
	query := `
		SELECT account_id, conversation_id, updated_at
		FROM reverse_index
		WHERE account_id = ?
	`

	entry := &ReverseIndexEntry{}
	var updatedAt string

	err := s.db.QueryRowContext(ctx, query, accountID).Scan(
		&entry.AccountID,
		&entry.ConversationID,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying reverse index: %w", err)
	}

	entry.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return entry, nil
}
