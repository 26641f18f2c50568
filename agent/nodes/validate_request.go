package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
	statex "github.com/tanpawarit/eazybank-support/agent/state"
)

var (
	ErrInvalidMessage     = errors.New("message is empty")
	ErrInvalidSession     = errors.New("session id is empty")
	ErrToolRoundsExceeded = errors.New("tool rounds exceeded")
)

type GraphInput struct {
	SessionID string
	UserID    string
	Text      string
}

type GraphOutput struct {
	Agent contractx.AgentType
	Reply string
}

type GraphState struct {
	SessionID string
	UserID    string
	Text      string
	Now       time.Time

	Conversation *statex.Conversation
	Route        contractx.RouteResponse

	Agent      contractx.AgentType
	ToolRounds int
	Message    string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		UserID:    strings.TrimSpace(in.UserID),
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
