// ABOUTME: Inbound event types and downstream payload shapes
// ABOUTME: Defines the channel-agnostic event envelope and wire formats

package dispatch

import "encoding/json"

// Payload types the dispatcher processes; anything else is acknowledged
// and dropped.
const (
	PayloadTypeMessage = "message"
	PayloadTypeInvoke  = "invoke"
)

// Downstream ticketing event names.
const (
	eventTicketCreation   = "TICKET_CREATION"
	eventTicketAttachment = "TICKET_ATTACHMENT"
)

// sourceChannel identifies the originating channel in downstream payloads.
const sourceChannel = "teams"

// fileReceivedMessage is the synthesized ticket message for text-less
// message events. It is never sent to the AI handler.
const fileReceivedMessage = "Received File from the user"

// Content type of Teams file-download attachments.
const contentTypeFileDownload = "application/vnd.microsoft.teams.file.download.info"

// InboundEvent is the envelope delivered by the upstream channel connector.
type InboundEvent struct {
	Payload  Payload `json:"payload"`
	ITSM     string  `json:"itsm"`
	ClientID string  `json:"client_id"`
}

// Payload is the channel event body.
type Payload struct {
	Type         string            `json:"type"`
	From         Sender            `json:"from"`
	Conversation ConversationRef   `json:"conversation"`
	Text         *string           `json:"text,omitempty"`
	Attachments  []Attachment      `json:"attachments,omitempty"`
	Value        json.RawMessage   `json:"value,omitempty"` // consent response body, logged on invoke events
}

// Sender identifies the sending member on the channel.
type Sender struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ConversationRef identifies the chat thread on the channel.
type ConversationRef struct {
	ID string `json:"id"`
}

// Attachment is one attachment on a message payload.
type Attachment struct {
	ContentType string             `json:"contentType"`
	Name        string             `json:"name,omitempty"`
	Content     *AttachmentContent `json:"content,omitempty"`
	ContentURL  string             `json:"contentUrl,omitempty"`
}

// AttachmentContent is the nested content structure of file-download
// attachments.
type AttachmentContent struct {
	DownloadURL string `json:"downloadUrl"`
	FileType    string `json:"fileType"`
}

// Ack is the acknowledgment returned to the upstream connector. StatusCode
// is 200 on every path by contract: the upstream retries on non-2xx, and
// replayed events would repeat non-idempotent side effects.
type Ack struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// fileRef is a classified attachment ready for forwarding.
type fileRef struct {
	Name string
	Link string
	Type string
}

// classifyAttachment extracts file metadata from an attachment by content
// type. Returns false for content types that are not forwarded.
func classifyAttachment(att Attachment) (fileRef, bool) {
	switch att.ContentType {
	case contentTypeFileDownload:
		if att.Content == nil {
			return fileRef{}, false
		}
		return fileRef{
			Name: att.Name,
			Link: att.Content.DownloadURL,
			Type: att.Content.FileType,
		}, true
	case "image/*":
		return fileRef{
			Name: "attachment.png",
			Link: att.ContentURL,
			Type: "png",
		}, true
	default:
		return fileRef{}, false
	}
}

// aiMessagePayload is the fire-and-forget payload sent to the AI handler
// for a text message.
type aiMessagePayload struct {
	User     string `json:"user"`
	Message  string `json:"message"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	ClientID string `json:"client_id"`
}

// aiFilePayload is the fire-and-forget payload sent to the AI handler for
// a classified attachment.
type aiFilePayload struct {
	User     string `json:"user"`
	IsFile   bool   `json:"is_file"`
	FileType string `json:"file_type"`
	FileLink string `json:"file_link"`
	FileName string `json:"file_name"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Source   string `json:"source"`
	ClientID string `json:"client_id"`
}

// ticketEnvelope wraps ticketing payloads with the ITSM selector.
type ticketEnvelope struct {
	ITSM    string `json:"itsm"`
	Payload any    `json:"payload"`
}

// ticketCreationPayload asks the ticketing handler to open a ticket.
type ticketCreationPayload struct {
	ClientID       string `json:"client_id"`
	Event          string `json:"event"`
	ConversationID string `json:"conversation_id"`
	Source         string `json:"source"`
	AccountID      string `json:"account_id"`
	Message        string `json:"message"`
	Email          string `json:"email"`
}

// ticketAttachmentPayload attaches a file to the conversation's ticket.
type ticketAttachmentPayload struct {
	Event          string `json:"event"`
	Source         string `json:"source"`
	AccountID      string `json:"account_id"`
	ConversationID string `json:"conversation_id"`
	ClientID       string `json:"client_id"`
	Email          string `json:"email"`
	FileType       string `json:"file_type"`
	FileName       string `json:"file_name"`
	FileLink       string `json:"file_link"`
}

// translationRequest is the synchronous request to the translation target.
type translationRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Source  string `json:"source"`
}

// translationResponse is the translation target's reply.
type translationResponse struct {
	TranslatedMessage string `json:"translated_message"`
}
