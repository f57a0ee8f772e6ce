// ABOUTME: HTTP handlers for the inbound event endpoint and health checks
// ABOUTME: Implements the always-acknowledge contract toward the connector

package relay

import (
	"encoding/json"
	"net/http"

	"github.com/2389/teams-relay/internal/auth"
	"github.com/2389/teams-relay/internal/dispatch"
)

// ackFailureBody is the acknowledgment body for events that could not be
// processed. The status stays 200 so the connector never redelivers.
const ackFailureBody = "lambda execution."

// handleEvents accepts one inbound event, dispatches it, and acknowledges.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	logger := s.logger
	if connectorID := auth.ConnectorID(r); connectorID != "" {
		logger = logger.With("connector_id", connectorID)
	}

	var event dispatch.InboundEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		// Undecodable bodies are acknowledged too: redelivery cannot fix them.
		logger.Error("failed to decode inbound event", "error", err)
		s.writeAck(w, dispatch.Ack{StatusCode: http.StatusOK, Body: ackFailureBody})
		return
	}

	logger.Debug("received event",
		"type", event.Payload.Type,
		"client_id", event.ClientID,
		"conversation_id", event.Payload.Conversation.ID,
	)

	ack := s.dispatcher.Handle(r.Context(), &event)
	s.writeAck(w, *ack)
}

// writeAck writes the acknowledgment JSON. The HTTP status mirrors the ack
// status code, which is 200 on every dispatch path.
func (s *Server) writeAck(w http.ResponseWriter, ack dispatch.Ack) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ack.StatusCode)
	if err := json.NewEncoder(w).Encode(ack); err != nil {
		s.logger.Error("failed to write acknowledgment", "error", err)
	}
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
