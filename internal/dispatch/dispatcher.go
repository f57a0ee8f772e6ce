// ABOUTME: Event dispatcher orchestrating identity resolution and fan-out
// ABOUTME: Classifies inbound events and drives AI, ticketing, and translation targets

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/2389/teams-relay/internal/identity"
	"github.com/2389/teams-relay/internal/inflight"
	"github.com/2389/teams-relay/internal/invoke"
	"github.com/2389/teams-relay/internal/store"
)

// Store defines what the dispatcher needs from storage
type Store interface {
	GetCredentials(ctx context.Context, clientID string) (*store.Credentials, error)
	GetConversation(ctx context.Context, conversationID string) (*store.Conversation, error)
	CreateConversation(ctx context.Context, conv *store.Conversation) error
	AppendTranscript(ctx context.Context, conversationID, line string) error
	SetLatestMessage(ctx context.Context, conversationID, message string) error
	UpsertReverseIndex(ctx context.Context, accountID, conversationID string) error
}

// EmailResolver defines what the dispatcher needs from the directory lookup
type EmailResolver interface {
	ResolveEmail(ctx context.Context, conversationID, memberID string, creds *store.Credentials) (string, error)
}

// Recorder counts event and identity-lookup outcomes. A nil Recorder
// disables recording.
type Recorder interface {
	RecordEvent(eventType, outcome string)
	RecordIdentityLookup(outcome string)
}

// Dispatcher is the orchestration core: it classifies the inbound event,
// drives identity resolution, and fans the event out to downstream targets.
type Dispatcher struct {
	store    Store
	resolver EmailResolver
	invoker  invoke.Invoker
	guard    *inflight.Guard[*store.Conversation]
	recorder Recorder
	logger   *slog.Logger

	// now is injectable for deterministic transcript timestamps in tests.
	now func() time.Time
}

// New creates a Dispatcher.
func New(s Store, resolver EmailResolver, invoker invoke.Invoker, recorder Recorder, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:    s,
		resolver: resolver,
		invoker:  invoker,
		guard:    inflight.NewGuard[*store.Conversation](),
		recorder: recorder,
		logger:   logger.With("component", "dispatch"),
		now:      time.Now,
	}
}

// Handle processes one inbound event and returns an acknowledgment.
// By contract the acknowledgment is always 200: the upstream connector
// retries on non-2xx and replays are not safe. All failure detail lives in
// logs and metrics.
func (d *Dispatcher) Handle(ctx context.Context, ev *InboundEvent) (ack *Ack) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic during event processing",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			d.recordEvent(ev.Payload.Type, "panic")
			ack = &Ack{StatusCode: 200, Body: "lambda execution."}
		}
	}()

	if err := d.process(ctx, ev); err != nil {
		d.logger.Error("event processing failed",
			"client_id", ev.ClientID,
			"conversation_id", ev.Payload.Conversation.ID,
			"error", err,
		)
		d.recordEvent(ev.Payload.Type, "error")
		return &Ack{StatusCode: 200, Body: "lambda execution."}
	}

	d.recordEvent(ev.Payload.Type, "ok")
	return &Ack{StatusCode: 200, Body: "handled"}
}

// process runs the dispatch pipeline; any returned error is absorbed at the
// Handle boundary.
func (d *Dispatcher) process(ctx context.Context, ev *InboundEvent) error {
	eventType := ev.Payload.Type
	if eventType != PayloadTypeMessage && eventType != PayloadTypeInvoke {
		d.logger.Info("received unsupported event type, acknowledging",
			"type", eventType,
		)
		return nil
	}

	creds, err := d.store.GetCredentials(ctx, ev.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Malformed configuration is not retried: acknowledge with no
			// further processing.
			d.logger.Error("no credential record for client", "client_id", ev.ClientID)
			return nil
		}
		return fmt.Errorf("loading credentials: %w", err)
	}

	conv, err := d.resolveConversation(ctx, ev, creds)
	if err != nil {
		return err
	}

	if err := d.store.UpsertReverseIndex(ctx, conv.AccountID, conv.ConversationID); err != nil {
		return fmt.Errorf("upserting reverse index: %w", err)
	}

	switch eventType {
	case PayloadTypeMessage:
		return d.handleMessage(ctx, ev, conv, creds)
	case PayloadTypeInvoke:
		d.handleAttachmentConsent(ev)
		return nil
	}
	return nil
}

// resolveConversation returns the identity record for the event's
// conversation, creating it on first contact. Concurrent first-contact
// events for the same conversation share one directory lookup through the
// in-flight guard.
func (d *Dispatcher) resolveConversation(ctx context.Context, ev *InboundEvent, creds *store.Credentials) (*store.Conversation, error) {
	conversationID := ev.Payload.Conversation.ID

	conv, err := d.store.GetConversation(ctx, conversationID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	conv, shared, err := d.guard.Do(conversationID, func() (*store.Conversation, error) {
		return d.createConversation(ctx, ev, creds)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		d.logger.Debug("first-contact resolution shared with concurrent event",
			"conversation_id", conversationID,
		)
	}
	return conv, nil
}

// createConversation derives the account ID, resolves the member's email,
// and persists the new identity record. The store write is retried exactly
// once; a second failure propagates.
func (d *Dispatcher) createConversation(ctx context.Context, ev *InboundEvent, creds *store.Credentials) (*store.Conversation, error) {
	conversationID := ev.Payload.Conversation.ID
	accountID := identity.AccountID(conversationID)

	email, err := d.resolver.ResolveEmail(ctx, conversationID, ev.Payload.From.ID, creds)
	if err != nil {
		// Directory failures degrade to an absent email, never abort the event.
		d.logger.Warn("email resolution failed, proceeding without email",
			"conversation_id", conversationID,
			"error", err,
		)
		d.recordIdentityLookup("error")
		email = ""
	} else {
		d.recordIdentityLookup("ok")
	}

	conv := &store.Conversation{
		ConversationID: conversationID,
		AccountID:      accountID,
		Email:          email,
		DisplayName:    ev.Payload.From.Name,
		MemberID:       ev.Payload.From.ID,
	}

	if err := d.store.CreateConversation(ctx, conv); err != nil {
		d.logger.Error("conversation create failed, retrying once",
			"conversation_id", conversationID,
			"error", err,
		)
		if err := d.store.CreateConversation(ctx, conv); err != nil {
			return nil, fmt.Errorf("creating conversation after retry: %w", err)
		}
	}

	d.logger.Info("created conversation identity",
		"conversation_id", conversationID,
		"account_id", accountID,
	)
	return conv, nil
}

// handleMessage forwards a message event to the AI handler and ticketing
// target, then processes attachments.
func (d *Dispatcher) handleMessage(ctx context.Context, ev *InboundEvent, conv *store.Conversation, creds *store.Credentials) error {
	var message string
	if ev.Payload.Text != nil {
		message = strings.TrimSpace(*ev.Payload.Text)
		if err := d.forwardToAI(ctx, ev, conv, creds, message); err != nil {
			return err
		}
	} else {
		// Text-less messages carry files; the synthesized message exists
		// for ticketing only and is never sent to the AI handler.
		message = fileReceivedMessage
	}

	d.createTicket(ctx, ev, conv, message)

	if len(ev.Payload.Attachments) > 0 {
		d.forwardAttachments(ctx, ev, conv)
	}
	return nil
}

// handleAttachmentConsent is the consent flow placeholder for invoke
// events. Upload handling lives in the channel connector; nothing to do
// here yet beyond acknowledging.
func (d *Dispatcher) handleAttachmentConsent(ev *InboundEvent) {
	d.logger.Info("received attachment consent event",
		"conversation_id", ev.Payload.Conversation.ID,
		"client_id", ev.ClientID,
		"value", string(ev.Payload.Value),
	)
}

// routingKey builds the composite key the AI service uses to address
// replies back to the correct channel, tenant, and conversation.
func routingKey(accountID, itsm, clientID string) string {
	return accountID + "_TEAMS_" + itsm + "_" + clientID
}

func (d *Dispatcher) recordEvent(eventType, outcome string) {
	if d.recorder != nil {
		d.recorder.RecordEvent(eventType, outcome)
	}
}

func (d *Dispatcher) recordIdentityLookup(outcome string) {
	if d.recorder != nil {
		d.recorder.RecordIdentityLookup(outcome)
	}
}
