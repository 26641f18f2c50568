package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/eazybank-support/agent/agents/orchestrator"
)

const (
	SessionPrefix       = "session_eazybank_support_"
	maxChatRequestBytes = 64 << 10
)

// Assistant answers one chat message within a session.
type Assistant interface {
	HandleMessage(ctx context.Context, sessionID, userID, text string) (string, error)
}

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type ChatHandler struct {
	assistant Assistant
	newID     func() string
}

func NewChatHandler(assistant Assistant) *ChatHandler {
	return &ChatHandler{
		assistant: assistant,
		newID:     NewSessionID,
	}
}

// NewSessionID mints a session id for a new conversation.
func NewSessionID() string {
	return SessionPrefix + uuid.NewString()
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = h.newID()
	}

	reply, err := h.assistant.HandleMessage(r.Context(), sessionID, req.UserID, req.Message)
	if err != nil {
		if errors.Is(err, orchestrator.ErrInvalidMessage) || errors.Is(err, orchestrator.ErrInvalidSession) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error().Err(err).Str("session_id", sessionID).Msg("chat message failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{SessionID: sessionID, Reply: reply})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
