// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu            sync.RWMutex
	credentials   map[string]*Credentials      // keyed by client ID
	conversations map[string]*Conversation     // keyed by conversation ID
	reverse       map[string]ReverseIndexEntry // keyed by account ID

	// CreateFailures makes the next N CreateConversation calls fail,
	// for exercising the single-retry path.
	CreateFailures int
	createErr      error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		credentials:   make(map[string]*Credentials),
		conversations: make(map[string]*Conversation),
		reverse:       make(map[string]ReverseIndexEntry),
	}
}

// FailCreates makes the next n CreateConversation calls return err.
func (m *MockStore) FailCreates(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateFailures = n
	m.createErr = err
}

// GetCredentials retrieves a credential record by client ID.
func (m *MockStore) GetCredentials(ctx context.Context, clientID string) (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.credentials[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	result := *c
	return &result, nil
}

// PutCredentials stores a credential record.
func (m *MockStore) PutCredentials(ctx context.Context, creds *Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *creds
	c.UpdatedAt = time.Now().UTC()
	m.credentials[c.ClientID] = &c
	return nil
}

// GetConversation retrieves a conversation record by conversation ID.
func (m *MockStore) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	result := *c
	return &result, nil
}

// CreateConversation stores a new conversation record.
func (m *MockStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateFailures > 0 {
		m.CreateFailures--
		return m.createErr
	}

	c := *conv
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	m.conversations[c.ConversationID] = &c
	return nil
}

// AppendTranscript appends a line to the conversation transcript.
func (m *MockStore) AppendTranscript(ctx context.Context, conversationID, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	if c.ChatTranscript == "" {
		c.ChatTranscript = line
	} else {
		c.ChatTranscript = c.ChatTranscript + "\n" + line
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetLatestMessage updates the latest message on a conversation.
func (m *MockStore) SetLatestMessage(ctx context.Context, conversationID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	c.LatestMessage = message
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// UpsertReverseIndex writes the account → conversation mapping.
func (m *MockStore) UpsertReverseIndex(ctx context.Context, accountID, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reverse[accountID] = ReverseIndexEntry{
		AccountID:      accountID,
		ConversationID: conversationID,
		UpdatedAt:      time.Now().UTC(),
	}
	return nil
}

// GetReverseIndex retrieves the reverse index entry for an account ID.
func (m *MockStore) GetReverseIndex(ctx context.Context, accountID string) (*ReverseIndexEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.reverse[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	result := e
	return &result, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
