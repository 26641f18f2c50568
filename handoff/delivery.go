package handoff

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

const maxDeliveryBytes = 1 << 20

// Verifier authenticates a signed delivery.
type Verifier interface {
	Verify(signature string, body []byte, url string) error
}

// DeliveryHandler receives handoff messages pushed by QStash and logs them
// for the operators on call.
type DeliveryHandler struct {
	verifier        Verifier
	signatureHeader string
	url             string
}

func NewDeliveryHandler(verifier Verifier, signatureHeader, url string) *DeliveryHandler {
	return &DeliveryHandler{
		verifier:        verifier,
		signatureHeader: signatureHeader,
		url:             url,
	}
}

func (h *DeliveryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxDeliveryBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unable to read body"})
		return
	}

	if err := h.verifier.Verify(r.Header.Get(h.signatureHeader), body, h.url); err != nil {
		logger.Warn().Err(err).Msg("rejected handoff delivery")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	msg, err := DecodeMessage(body)
	if err != nil {
		logger.Warn().Err(err).Msg("malformed handoff delivery")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	logger.Info().
		Str("session_id", msg.SessionID).
		Str("user_id", msg.UserID).
		Str("user_message", msg.UserMessage).
		Strs("conversation_history", msg.ConversationHistory).
		Msg("human handoff requested")

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// DecodeMessage parses a handoff payload. session_id is mandatory.
func DecodeMessage(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, errors.New("invalid handoff payload")
	}
	if msg.SessionID == "" {
		return Message{}, errors.New("session_id is required")
	}
	if msg.ConversationHistory == nil {
		msg.ConversationHistory = []string{}
	}
	return msg, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
