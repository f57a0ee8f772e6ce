// ABOUTME: Tests for conversation identity records and the reverse index
// ABOUTME: Covers creation, transcript appends, latest message, and upserts

package store

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	conv := &Conversation{
		ConversationID: "19:meeting_abc@thread.v2",
		AccountID:      "f2b5c7b9e6a1",
		Email:          "casey@example.com",
		DisplayName:    "Casey Iver",
		MemberID:       "29:1abc",
	}

	err := store.CreateConversation(ctx, conv)
	require.NoError(t, err)

	got, err := store.GetConversation(ctx, "19:meeting_abc@thread.v2")
	require.NoError(t, err)
	assert.Equal(t, "f2b5c7b9e6a1", got.AccountID)
	assert.Equal(t, "casey@example.com", got.Email)
	assert.Equal(t, "Casey Iver", got.DisplayName)
	assert.Equal(t, "29:1abc", got.MemberID)
	assert.Empty(t, got.ChatTranscript)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestConversation_GetNotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.GetConversation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversation_CreateRaceLastWriterWins(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	first := &Conversation{
		ConversationID: "conv-1",
		AccountID:      "acct-1",
		Email:          "first@example.com",
	}
	require.NoError(t, store.CreateConversation(ctx, first))

	// A concurrent first-contact event writes the same record again.
	second := &Conversation{
		ConversationID: "conv-1",
		AccountID:      "acct-1",
		Email:          "second@example.com",
	}
	require.NoError(t, store.CreateConversation(ctx, second))

	got, err := store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", got.Email)
	assert.Equal(t, "acct-1", got.AccountID)
}

func TestAppendTranscript_Ordering(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	conv := &Conversation{ConversationID: "conv-1", AccountID: "acct-1"}
	require.NoError(t, store.CreateConversation(ctx, conv))

	var want []string
	for i := 0; i < 5; i++ {
		line := fmt.Sprintf("10:00:0%d 01-02-2026 [User]: message %d", i, i)
		require.NoError(t, store.AppendTranscript(ctx, "conv-1", line))
		want = append(want, line)
	}

	got, err := store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)

	lines := strings.Split(got.ChatTranscript, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, want, lines)
}

func TestAppendTranscript_NoLeadingNewline(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	conv := &Conversation{ConversationID: "conv-1", AccountID: "acct-1"}
	require.NoError(t, store.CreateConversation(ctx, conv))
	require.NoError(t, store.AppendTranscript(ctx, "conv-1", "first line"))

	got, err := store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "first line", got.ChatTranscript)
}

func TestAppendTranscript_MissingConversation(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	err := store.AppendTranscript(context.Background(), "missing", "line")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetLatestMessage(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	conv := &Conversation{ConversationID: "conv-1", AccountID: "acct-1"}
	require.NoError(t, store.CreateConversation(ctx, conv))

	require.NoError(t, store.SetLatestMessage(ctx, "conv-1", "printer on fire"))

	got, err := store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "printer on fire", got.LatestMessage)
}

func TestSetLatestMessage_MissingConversation(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	err := store.SetLatestMessage(context.Background(), "missing", "msg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReverseIndex_UpsertAndGet(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.UpsertReverseIndex(ctx, "acct-1", "conv-1"))

	entry, err := store.GetReverseIndex(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", entry.ConversationID)
}

func TestReverseIndex_UpsertIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.UpsertReverseIndex(ctx, "acct-1", "conv-1"))
	require.NoError(t, store.UpsertReverseIndex(ctx, "acct-1", "conv-1"))
	require.NoError(t, store.UpsertReverseIndex(ctx, "acct-1", "conv-2"))

	entry, err := store.GetReverseIndex(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-2", entry.ConversationID)
}

func TestReverseIndex_GetNotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.GetReverseIndex(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
