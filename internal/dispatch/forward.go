// ABOUTME: Downstream forwarding: AI handler, ticketing, translation, attachments
// ABOUTME: Implements fan-out payload construction and transcript persistence

package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2389/teams-relay/internal/invoke"
	"github.com/2389/teams-relay/internal/store"
)

// transcriptTimeFormat renders transcript line timestamps as
// "HH:MM:SS DD-MM-YYYY".
const transcriptTimeFormat = "15:04:05 02-01-2006"

// forwardToAI optionally translates the message, forwards it to the AI
// handler, and persists it to the transcript. The AI invocation is
// fire-and-forget; the transcript append happens regardless of its outcome.
func (d *Dispatcher) forwardToAI(ctx context.Context, ev *InboundEvent, conv *store.Conversation, creds *store.Credentials, message string) error {
	if creds.TranslationEnabled {
		translated, err := d.translate(ctx, conv.AccountID, message)
		if err != nil {
			// Translation degrades to the untranslated message.
			d.logger.Warn("translation failed, forwarding original message",
				"conversation_id", conv.ConversationID,
				"error", err,
			)
		} else {
			message = translated
		}
	}

	d.invoker.Fire(ctx, invoke.TargetAIHandler, aiMessagePayload{
		User:     routingKey(conv.AccountID, ev.ITSM, ev.ClientID),
		Message:  message,
		UserName: conv.DisplayName,
		Email:    conv.Email,
		ClientID: ev.ClientID,
	})

	line := fmt.Sprintf("%s [User]: %s", d.now().Format(transcriptTimeFormat), message)
	if err := d.store.AppendTranscript(ctx, conv.ConversationID, line); err != nil {
		return fmt.Errorf("appending transcript: %w", err)
	}
	if err := d.store.SetLatestMessage(ctx, conv.ConversationID, message); err != nil {
		return fmt.Errorf("updating latest message: %w", err)
	}
	return nil
}

// translate invokes the translation target synchronously and returns the
// translated message.
func (d *Dispatcher) translate(ctx context.Context, accountID, message string) (string, error) {
	body, err := d.invoker.Call(ctx, invoke.TargetTranslation, translationRequest{
		Message: message,
		UserID:  accountID,
		Source:  "user",
	})
	if err != nil {
		return "", err
	}

	var resp translationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding translation response: %w", err)
	}
	if resp.TranslatedMessage == "" {
		return "", fmt.Errorf("translation response missing translated_message")
	}
	return resp.TranslatedMessage, nil
}

// createTicket forwards the message to the ticketing target.
func (d *Dispatcher) createTicket(ctx context.Context, ev *InboundEvent, conv *store.Conversation, message string) {
	d.logger.Info("forwarding ticket creation", "itsm", ev.ITSM,
		"conversation_id", conv.ConversationID)

	d.invoker.Fire(ctx, invoke.TargetTicketing, ticketEnvelope{
		ITSM: ev.ITSM,
		Payload: ticketCreationPayload{
			ClientID:       ev.ClientID,
			Event:          eventTicketCreation,
			ConversationID: conv.ConversationID,
			Source:         sourceChannel,
			AccountID:      conv.AccountID,
			Message:        message,
			Email:          conv.Email,
		},
	})
}

// forwardAttachments classifies each attachment and fires the AI and
// ticketing invocations for the ones that carry usable file metadata.
// Unclassifiable attachments are skipped; partial processing is acceptable.
func (d *Dispatcher) forwardAttachments(ctx context.Context, ev *InboundEvent, conv *store.Conversation) {
	for _, att := range ev.Payload.Attachments {
		file, ok := classifyAttachment(att)
		if !ok {
			d.logger.Info("skipping attachment with unsupported content type",
				"content_type", att.ContentType,
				"conversation_id", conv.ConversationID,
			)
			continue
		}

		d.invoker.Fire(ctx, invoke.TargetAIHandler, aiFilePayload{
			User:     routingKey(conv.AccountID, ev.ITSM, ev.ClientID),
			IsFile:   true,
			FileType: file.Type,
			FileLink: file.Link,
			FileName: file.Name,
			UserName: conv.DisplayName,
			Email:    conv.Email,
			Source:   sourceChannel,
			ClientID: ev.ClientID,
		})

		d.invoker.Fire(ctx, invoke.TargetTicketing, ticketEnvelope{
			ITSM: ev.ITSM,
			Payload: ticketAttachmentPayload{
				Event:          eventTicketAttachment,
				Source:         sourceChannel,
				AccountID:      conv.AccountID,
				ConversationID: conv.ConversationID,
				ClientID:       ev.ClientID,
				Email:          conv.Email,
				FileType:       file.Type,
				FileName:       file.Name,
				FileLink:       file.Link,
			},
		})
	}
}
