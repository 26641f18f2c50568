package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
	statex "github.com/tanpawarit/eazybank-support/agent/state"
)

type routerImpl struct {
	runner compose.Runnable[map[string]any, routerLLMOutput]
}

type routerLLMOutput struct {
	Agent   string `json:"agent"`
	Reply   string `json:"reply,omitempty"`
	Summary string `json:"summary,omitempty"`
}

func newRouter(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*routerImpl, error) {
	runner, err := compileJSONGraph[routerLLMOutput](ctx, chatModel, systemPrompt, "root.route_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile router graph: %v", contractx.ErrModelInvoke, err)
	}
	return &routerImpl{runner: runner}, nil
}

func (r *routerImpl) Route(ctx context.Context, req contractx.RouteRequest) (contractx.RouteResponse, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.RouteResponse{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"user_message": req.UserMessage,
		"active_agent": req.ActiveAgent,
		"history":      summarizeHistory(req.History),
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return contractx.RouteResponse{}, fmt.Errorf("%w: marshal router payload: %v", contractx.ErrValidation, err)
	}

	out, err := r.runner.Invoke(ctx, agentInput(string(inputBytes)))
	if err != nil {
		return contractx.RouteResponse{}, fmt.Errorf("%w: router invoke: %v", contractx.ErrModelInvoke, err)
	}

	return validateRouterOutput(out)
}

// validateRouterOutput treats an empty agent as root.
func validateRouterOutput(out routerLLMOutput) (contractx.RouteResponse, error) {
	agent := contractx.AgentType(strings.ToLower(strings.TrimSpace(out.Agent)))
	if agent == "" {
		agent = contractx.AgentTypeRoot
	}

	resp := contractx.RouteResponse{
		Agent:   agent,
		Reply:   strings.TrimSpace(out.Reply),
		Summary: strings.TrimSpace(out.Summary),
	}

	switch {
	case agent == contractx.AgentTypeRoot:
		if resp.Reply == "" {
			return contractx.RouteResponse{}, fmt.Errorf("%w: root answer must include reply", contractx.ErrSchemaViolation)
		}
		resp.Summary = ""
	case agent.IsSpecialist():
		resp.Reply = ""
	default:
		return contractx.RouteResponse{}, fmt.Errorf("%w: %w: agent=%q", contractx.ErrSchemaViolation, contractx.ErrUnknownAgent, agent)
	}
	return resp, nil
}

func summarizeHistory(turns []statex.Turn) []map[string]any {
	out := make([]map[string]any, 0, len(turns))
	for _, t := range turns {
		item := map[string]any{
			"role": t.Role,
			"text": t.Text,
		}
		if t.Agent != "" {
			item["agent"] = t.Agent
		}
		out = append(out, item)
	}
	return out
}
