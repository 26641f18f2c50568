package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
)

// DispatchSpecialist runs the routed specialist, executing at most
// maxToolRounds batches of tool requests before it must answer.
func DispatchSpecialist(
	ctx context.Context,
	in *GraphState,
	models contractx.Registry,
	tools contractx.ToolGateway,
	historyWindow int,
	maxToolRounds int,
) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: graph conversation is nil", contractx.ErrValidation)
	}

	specialist, ok := models.Specialist(in.Agent)
	if !ok {
		return nil, fmt.Errorf("%w: agent=%s", contractx.ErrUnknownAgent, in.Agent)
	}

	scope := contractx.ToolScope{
		Agent:     in.Agent,
		SessionID: in.SessionID,
		UserID:    in.UserID,
	}
	req := contractx.SpecialistRequest{
		SessionID:   in.SessionID,
		UserID:      in.UserID,
		UserMessage: in.Text,
		Summary:     in.Route.Summary,
		History:     in.Conversation.Recent(historyWindow),
	}

	for {
		resp, err := specialist.Run(ctx, req)
		if err != nil {
			return nil, err
		}
		if len(resp.ToolRequests) == 0 {
			in.Message = strings.TrimSpace(resp.Message)
			return in, nil
		}
		if in.ToolRounds >= maxToolRounds {
			return nil, fmt.Errorf("%w: %w: agent=%s max=%d", contractx.ErrSchemaViolation, ErrToolRoundsExceeded, in.Agent, maxToolRounds)
		}

		results, err := tools.Execute(ctx, scope, resp.ToolRequests)
		if err != nil {
			return nil, err
		}
		in.ToolRounds++
		req.ToolResults = append(req.ToolResults, results...)
	}
}
