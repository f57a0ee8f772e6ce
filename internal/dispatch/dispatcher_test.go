// ABOUTME: Tests for the event dispatcher pipeline
// ABOUTME: Covers classification, identity resolution, retries, and the 200 boundary

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/teams-relay/internal/identity"
	"github.com/2389/teams-relay/internal/invoke"
	"github.com/2389/teams-relay/internal/store"
)

// stubResolver is an EmailResolver returning a fixed result.
type stubResolver struct {
	email string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubResolver) ResolveEmail(ctx context.Context, conversationID, memberID string, creds *store.Credentials) (string, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.email, s.err
}

// fixedNow is the deterministic timestamp used for transcript assertions.
var fixedNow = time.Date(2026, 2, 1, 10, 30, 45, 0, time.UTC)

type testEnv struct {
	dispatcher *Dispatcher
	store      *store.MockStore
	invoker    *invoke.RecordingInvoker
	resolver   *stubResolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mockStore := store.NewMockStore()
	recorder := invoke.NewRecordingInvoker()
	resolver := &stubResolver{email: "casey@example.com"}

	require.NoError(t, mockStore.PutCredentials(context.Background(), &store.Credentials{
		ClientID:          "acme",
		TeamsClientID:     "app-id",
		TeamsClientSecret: "app-secret",
		TeamsScope:        "scope",
		TeamsBaseURL:      "https://example.com",
	}))

	d := New(mockStore, resolver, recorder, nil, nil)
	d.now = func() time.Time { return fixedNow }

	return &testEnv{dispatcher: d, store: mockStore, invoker: recorder, resolver: resolver}
}

func textEvent(text string) *InboundEvent {
	return &InboundEvent{
		Payload: Payload{
			Type:         PayloadTypeMessage,
			From:         Sender{Name: "Casey Iver", ID: "29:1abc"},
			Conversation: ConversationRef{ID: "conv-1"},
			Text:         &text,
		},
		ITSM:     "jira",
		ClientID: "acme",
	}
}

func TestHandle_UnsupportedEventType(t *testing.T) {
	env := newTestEnv(t)

	ack := env.dispatcher.Handle(context.Background(), &InboundEvent{
		Payload:  Payload{Type: "conversationUpdate", Conversation: ConversationRef{ID: "conv-1"}},
		ClientID: "acme",
	})

	assert.Equal(t, 200, ack.StatusCode)
	assert.Equal(t, "handled", ack.Body)
	assert.Empty(t, env.invoker.Invocations())
	_, err := env.store.GetConversation(context.Background(), "conv-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandle_UnknownClient(t *testing.T) {
	env := newTestEnv(t)

	ev := textEvent("hello")
	ev.ClientID = "ghost"
	ack := env.dispatcher.Handle(context.Background(), ev)

	assert.Equal(t, 200, ack.StatusCode)
	assert.Equal(t, "handled", ack.Body)
	assert.Empty(t, env.invoker.Invocations(), "no downstream target may be called")
	assert.Zero(t, env.resolver.calls.Load())

	_, err := env.store.GetConversation(context.Background(), "conv-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.store.GetReverseIndex(context.Background(), identity.AccountID("conv-1"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandle_MessageFanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ack := env.dispatcher.Handle(ctx, textEvent("  my printer is on fire  "))
	require.Equal(t, 200, ack.StatusCode)
	require.Equal(t, "handled", ack.Body)

	accountID := identity.AccountID("conv-1")

	// AI handler receives the trimmed text under the routing key.
	aiCalls := env.invoker.ByTarget(invoke.TargetAIHandler)
	require.Len(t, aiCalls, 1)
	assert.Equal(t, "async", aiCalls[0].Mode)
	assert.Equal(t, accountID+"_TEAMS_jira_acme", aiCalls[0].Payload["user"])
	assert.Equal(t, "my printer is on fire", aiCalls[0].Payload["message"])
	assert.Equal(t, "Casey Iver", aiCalls[0].Payload["user_name"])
	assert.Equal(t, "casey@example.com", aiCalls[0].Payload["email"])
	assert.Equal(t, "acme", aiCalls[0].Payload["client_id"])

	// Ticketing receives a TICKET_CREATION envelope.
	ticketCalls := env.invoker.ByTarget(invoke.TargetTicketing)
	require.Len(t, ticketCalls, 1)
	assert.Equal(t, "jira", ticketCalls[0].Payload["itsm"])
	inner := ticketCalls[0].Payload["payload"].(map[string]any)
	assert.Equal(t, "TICKET_CREATION", inner["event"])
	assert.Equal(t, "teams", inner["source"])
	assert.Equal(t, "conv-1", inner["conversation_id"])
	assert.Equal(t, accountID, inner["account_id"])
	assert.Equal(t, "my printer is on fire", inner["message"])
	assert.Equal(t, "casey@example.com", inner["email"])

	// Conversation record and reverse index are persisted.
	conv, err := env.store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, accountID, conv.AccountID)
	assert.Equal(t, "10:30:45 01-02-2026 [User]: my printer is on fire", conv.ChatTranscript)
	assert.Equal(t, "my printer is on fire", conv.LatestMessage)

	entry, err := env.store.GetReverseIndex(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", entry.ConversationID)
}

func TestHandle_IdentityReusedOnSecondEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.dispatcher.Handle(ctx, textEvent("first"))
	env.dispatcher.Handle(ctx, textEvent("second"))

	assert.Equal(t, int32(1), env.resolver.calls.Load(),
		"directory lookup must happen only on first contact")

	conv, err := env.store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, identity.AccountID("conv-1"), conv.AccountID)
}

func TestHandle_AccountIDDeterministic(t *testing.T) {
	envA := newTestEnv(t)
	envB := newTestEnv(t)
	ctx := context.Background()

	envA.dispatcher.Handle(ctx, textEvent("hello"))
	envB.dispatcher.Handle(ctx, textEvent("hello"))

	convA, err := envA.store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	convB, err := envB.store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, convA.AccountID, convB.AccountID)
}

func TestHandle_EmailResolutionFailureDegrades(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.email = ""
	env.resolver.err = errors.New("directory unavailable")
	ctx := context.Background()

	ack := env.dispatcher.Handle(ctx, textEvent("hello"))
	assert.Equal(t, "handled", ack.Body)

	conv, err := env.store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, conv.Email)

	ticketCalls := env.invoker.ByTarget(invoke.TargetTicketing)
	require.Len(t, ticketCalls, 1)
	inner := ticketCalls[0].Payload["payload"].(map[string]any)
	assert.Equal(t, "", inner["email"])
}

func TestHandle_CreateRetriedOnce(t *testing.T) {
	env := newTestEnv(t)
	env.store.FailCreates(1, errors.New("transient write failure"))

	ack := env.dispatcher.Handle(context.Background(), textEvent("hello"))
	assert.Equal(t, "handled", ack.Body)

	conv, err := env.store.GetConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, identity.AccountID("conv-1"), conv.AccountID)
}

func TestHandle_CreateSecondFailurePropagates(t *testing.T) {
	env := newTestEnv(t)
	env.store.FailCreates(2, errors.New("persistent write failure"))

	ack := env.dispatcher.Handle(context.Background(), textEvent("hello"))
	assert.Equal(t, 200, ack.StatusCode, "boundary must never signal failure")
	assert.Equal(t, "lambda execution.", ack.Body)
	assert.Empty(t, env.invoker.Invocations(), "no fan-out after identity failure")
}

func TestHandle_ConcurrentFirstContactSharesLookup(t *testing.T) {
	env := newTestEnv(t)
	env.resolver.delay = 50 * time.Millisecond
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.dispatcher.Handle(ctx, textEvent("hello"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), env.resolver.calls.Load(),
		"concurrent first-contact events must share one directory lookup")

	conv, err := env.store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, identity.AccountID("conv-1"), conv.AccountID)
}

func TestHandle_InvokeEventIsConsentNoOp(t *testing.T) {
	env := newTestEnv(t)

	ack := env.dispatcher.Handle(context.Background(), &InboundEvent{
		Payload: Payload{
			Type:         PayloadTypeInvoke,
			From:         Sender{Name: "Casey Iver", ID: "29:1abc"},
			Conversation: ConversationRef{ID: "conv-1"},
			Value:        json.RawMessage(`{"action":"accept"}`),
		},
		ITSM:     "jira",
		ClientID: "acme",
	})

	assert.Equal(t, "handled", ack.Body)
	assert.Empty(t, env.invoker.Invocations(), "consent flow forwards nothing")

	// Identity is still resolved and indexed for invoke events.
	_, err := env.store.GetConversation(context.Background(), "conv-1")
	assert.NoError(t, err)
}

func TestHandle_TranscriptOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	messages := []string{"one", "two", "three", "four"}
	for _, m := range messages {
		env.dispatcher.Handle(ctx, textEvent(m))
	}

	conv, err := env.store.GetConversation(ctx, "conv-1")
	require.NoError(t, err)

	want := "10:30:45 01-02-2026 [User]: one\n" +
		"10:30:45 01-02-2026 [User]: two\n" +
		"10:30:45 01-02-2026 [User]: three\n" +
		"10:30:45 01-02-2026 [User]: four"
	assert.Equal(t, want, conv.ChatTranscript)
	assert.Equal(t, "four", conv.LatestMessage)
}

func TestHandle_PanicConvertedToAck(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.now = nil // forces a nil deref inside forwardToAI

	ack := env.dispatcher.Handle(context.Background(), textEvent("hello"))
	assert.Equal(t, 200, ack.StatusCode)
	assert.Equal(t, "lambda execution.", ack.Body)
}
