// ABOUTME: Store interface and data types for teams-relay persistence
// ABOUTME: Defines Credentials, Conversation, ReverseIndexEntry and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Credentials maps an inbound client identifier to channel-specific OAuth
// credentials and feature flags. Records are provisioned out-of-band and
// read-only to the dispatcher.
type Credentials struct {
	ClientID           string
	TeamsClientID      string
	TeamsClientSecret  string
	TeamsScope         string
	TeamsBaseURL       string
	TranslationEnabled bool
	UpdatedAt          time.Time
}

// Conversation links a channel conversation to a stable pseudonymous account
// identifier, the member's cached email and display name, and an append-only
// chat transcript. Records are created on first contact and never deleted.
type Conversation struct {
	ConversationID string
	AccountID      string
	Email          string
	DisplayName    string
	MemberID       string
	ChatTranscript string
	LatestMessage  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReverseIndexEntry maps an account identifier back to its conversation, for
// downstream services that only know the account identifier. It is a
// denormalized index rebuilt on every event, not a source of truth.
type ReverseIndexEntry struct {
	AccountID      string
	ConversationID string
	UpdatedAt      time.Time
}

// Store defines the interface for relay persistence
type Store interface {
	// Credentials (provisioned out-of-band, read-only to the dispatcher)
	GetCredentials(ctx context.Context, clientID string) (*Credentials, error)
	PutCredentials(ctx context.Context, creds *Credentials) error

	// Conversations
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)
	CreateConversation(ctx context.Context, conv *Conversation) error
	AppendTranscript(ctx context.Context, conversationID, line string) error
	SetLatestMessage(ctx context.Context, conversationID, message string) error

	// Reverse index
	UpsertReverseIndex(ctx context.Context, accountID, conversationID string) error
	GetReverseIndex(ctx context.Context, accountID string) (*ReverseIndexEntry, error)

	// Close releases any resources held by the store
	Close() error
}
