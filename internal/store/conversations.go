// ABOUTME: Conversation identity record access with transcript append support
// ABOUTME: Provides first-contact creation and incremental mutation of conversations

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GetConversation retrieves the conversation identity record for a
// conversation identifier. Returns ErrNotFound if no record exists.
func (s *SQLiteStore) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	query := `
		SELECT conversation_id, account_id, email, display_name, member_id,
		       chat_transcript, latest_message, created_at, updated_at
		FROM conversations
		WHERE conversation_id = ?
	`

	conv := &Conversation{}
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, query, conversationID).Scan(
		&conv.ConversationID,
		&conv.AccountID,
		&conv.Email,
		&conv.DisplayName,
		&conv.MemberID,
		&conv.ChatTranscript,
		&conv.LatestMessage,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	if conv.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if conv.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return conv, nil
}

// CreateConversation inserts a new conversation identity record.
// Concurrent first-contact events may race on creation; the insert uses
// OR REPLACE so the last writer wins, which is benign because both writers
// derive the same account identifier.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now

	query := `
		INSERT OR REPLACE INTO conversations (
			conversation_id, account_id, email, display_name, member_id,
			chat_transcript, latest_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		conv.ConversationID,
		conv.AccountID,
		conv.Email,
		conv.DisplayName,
		conv.MemberID,
		conv.ChatTranscript,
		conv.LatestMessage,
		conv.CreatedAt.Format(time.RFC3339),
		conv.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	s.logger.Debug("created conversation",
		"conversation_id", conv.ConversationID,
		"account_id", conv.AccountID,
	)
	return nil
}

// AppendTranscript appends a line to the conversation's chat transcript,
// separated from existing content by a newline.
func (s *SQLiteStore) AppendTranscript(ctx context.Context, conversationID, line string) error {
	query := `
		UPDATE conversations
		SET chat_transcript = CASE
				WHEN chat_transcript = '' THEN ?
				ELSE chat_transcript || char(10) || ?
			END,
			updated_at = ?
		WHERE conversation_id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		line, line, time.Now().UTC().Format(time.RFC3339), conversationID)
	if err != nil {
		return fmt.Errorf("appending transcript: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking transcript update: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLatestMessage updates the latest message seen on a conversation.
func (s *SQLiteStore) SetLatestMessage(ctx context.Context, conversationID, message string) error {
	query := `
		UPDATE conversations
		SET latest_message = ?, updated_at = ?
		WHERE conversation_id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		message, time.Now().UTC().Format(time.RFC3339), conversationID)
	if err != nil {
		return fmt.Errorf("updating latest message: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking latest message update: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
