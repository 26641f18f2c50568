package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
)

func RouteMessage(
	ctx context.Context,
	in *GraphState,
	router contractx.Router,
	historyWindow int,
) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}

	resp, err := router.Route(ctx, contractx.RouteRequest{
		UserMessage: in.Text,
		ActiveAgent: contractx.AgentType(in.Conversation.ActiveAgent),
		History:     in.Conversation.Recent(historyWindow),
		Now:         in.Now,
	})
	if err != nil {
		return nil, err
	}

	in.Route = resp
	in.Agent = resp.Agent
	if resp.Agent == contractx.AgentTypeRoot {
		in.Message = resp.Reply
	}
	return in, nil
}

// NeedsSpecialist reports whether the routed message must be dispatched.
func NeedsSpecialist(in *GraphState) bool {
	return in != nil && in.Agent.IsSpecialist()
}
