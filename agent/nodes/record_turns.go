package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
	statex "github.com/tanpawarit/eazybank-support/agent/state"
)

// RecordTurns appends the user message and the answer to the transcript.
func RecordTurns(in *GraphState) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("%w: agent=%s returned empty message", contractx.ErrValidation, in.Agent)
	}

	if err := in.Conversation.Append(statex.RoleUser, "", in.Text, in.Now); err != nil {
		return nil, fmt.Errorf("record user turn: %w", err)
	}
	if err := in.Conversation.Append(statex.RoleAssistant, string(in.Agent), in.Message, in.Now); err != nil {
		return nil, fmt.Errorf("record assistant turn: %w", err)
	}
	return in, nil
}
