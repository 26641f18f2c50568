package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
)

type specialistImpl struct {
	agentType        contractx.AgentType
	structuredRunner compose.Runnable[map[string]any, specialistLLMOutput]
	toolRunner       compose.Runnable[map[string]any, *schema.Message]
	runtimeRunner    compose.Runnable[contractx.SpecialistRequest, contractx.SpecialistResponse]
	allowedTools     map[string]struct{}
}

type specialistLLMOutput struct {
	Message string `json:"message"`
}

func newSpecialist(
	ctx context.Context,
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	tools []*schema.ToolInfo,
) (*specialistImpl, error) {
	structuredRunner, err := compileJSONGraph[specialistLLMOutput](ctx, chatModel, systemPrompt, string(agentType)+".answer_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile structured specialist graph: %v", contractx.ErrModelInvoke, err)
	}

	toolModel := chatModel
	if len(tools) > 0 {
		toolModel, err = chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for specialist=%s: %v", contractx.ErrModelInvoke, agentType, err)
		}
	}
	toolRunner, err := compileChatGraph(ctx, toolModel, systemPrompt, string(agentType)+".tool_planning_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile tool planner graph: %v", contractx.ErrModelInvoke, err)
	}

	allowedTools := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowedTools[t.Name] = struct{}{}
	}

	spec := &specialistImpl{
		agentType:        agentType,
		structuredRunner: structuredRunner,
		toolRunner:       toolRunner,
		allowedTools:     allowedTools,
	}

	runtimeRunner, err := spec.compileRuntimeGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: compile specialist runtime graph: %v", contractx.ErrModelInvoke, err)
	}
	spec.runtimeRunner = runtimeRunner

	return spec, nil
}

const (
	nodeCheckRequest  = "check_request"
	nodePlanTools     = "plan_tools"
	nodeComposeAnswer = "compose_answer"
)

// compileRuntimeGraph checks the request, then plans tool calls on the first
// pass and composes the customer answer once tool results are in.
func (s *specialistImpl) compileRuntimeGraph(ctx context.Context) (compose.Runnable[contractx.SpecialistRequest, contractx.SpecialistResponse], error) {
	graph := compose.NewGraph[contractx.SpecialistRequest, contractx.SpecialistResponse]()

	checkRequest := compose.InvokableLambda(func(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistRequest, error) {
		if strings.TrimSpace(req.UserMessage) == "" {
			return req, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
		}
		if strings.TrimSpace(req.SessionID) == "" {
			return req, fmt.Errorf("%w: session id is required", contractx.ErrValidation)
		}
		return req, nil
	})
	if err := graph.AddLambdaNode(nodeCheckRequest, checkRequest); err != nil {
		return nil, fmt.Errorf("add %s node: %w", nodeCheckRequest, err)
	}
	if err := graph.AddLambdaNode(nodePlanTools, compose.InvokableLambda(s.runToolPlanning)); err != nil {
		return nil, fmt.Errorf("add %s node: %w", nodePlanTools, err)
	}
	if err := graph.AddLambdaNode(nodeComposeAnswer, compose.InvokableLambda(s.runStructured)); err != nil {
		return nil, fmt.Errorf("add %s node: %w", nodeComposeAnswer, err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, req contractx.SpecialistRequest) (string, error) {
			if len(req.ToolResults) == 0 {
				return nodePlanTools, nil
			}
			return nodeComposeAnswer, nil
		},
		map[string]bool{nodePlanTools: true, nodeComposeAnswer: true},
	)
	if err := graph.AddBranch(nodeCheckRequest, branch); err != nil {
		return nil, fmt.Errorf("add specialist branch: %w", err)
	}

	if err := graph.AddEdge(compose.START, nodeCheckRequest); err != nil {
		return nil, fmt.Errorf("add edge start->%s: %w", nodeCheckRequest, err)
	}
	for _, node := range []string{nodePlanTools, nodeComposeAnswer} {
		if err := graph.AddEdge(node, compose.END); err != nil {
			return nil, fmt.Errorf("add edge %s->end: %w", node, err)
		}
	}

	return graph.Compile(ctx, compose.WithGraphName(string(s.agentType)+".runtime_graph"))
}

func (s *specialistImpl) Run(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	out, err := s.runtimeRunner.Invoke(ctx, req)
	if err != nil {
		return contractx.SpecialistResponse{}, err
	}
	return out, nil
}

func (s *specialistImpl) payload(mode string, req contractx.SpecialistRequest) (string, error) {
	payload := map[string]any{
		"mode":         mode,
		"user_message": req.UserMessage,
		"summary":      req.Summary,
		"history":      summarizeHistory(req.History),
	}
	if len(req.ToolResults) > 0 {
		payload["tool_results"] = req.ToolResults
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal specialist payload: %v", contractx.ErrValidation, err)
	}
	return string(input), nil
}

func (s *specialistImpl) runStructured(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	input, err := s.payload("finalize", req)
	if err != nil {
		return contractx.SpecialistResponse{}, err
	}

	out, err := s.structuredRunner.Invoke(ctx, agentInput(input))
	if err != nil {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: specialist invoke: %v", contractx.ErrModelInvoke, err)
	}

	message := strings.TrimSpace(out.Message)
	if message == "" {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: specialist message is empty", contractx.ErrSchemaViolation)
	}

	return contractx.SpecialistResponse{Message: message}, nil
}

func (s *specialistImpl) runToolPlanning(ctx context.Context, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	input, err := s.payload("act", req)
	if err != nil {
		return contractx.SpecialistResponse{}, err
	}

	msg, err := s.toolRunner.Invoke(ctx, agentInput(input))
	if err != nil {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: tool planning invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: empty tool planning response", contractx.ErrSchemaViolation)
	}

	toolRequests, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return contractx.SpecialistResponse{}, err
	}

	if len(toolRequests) == 0 {
		content := directMessage(msg.Content)
		if content == "" {
			return contractx.SpecialistResponse{}, fmt.Errorf("%w: act mode returned neither tool calls nor a message", contractx.ErrSchemaViolation)
		}
		return contractx.SpecialistResponse{
			Message: content,
		}, nil
	}

	for _, tr := range toolRequests {
		if _, ok := s.allowedTools[tr.Tool]; !ok {
			return contractx.SpecialistResponse{}, fmt.Errorf("%w: tool=%s is not allowed for agent=%s", contractx.ErrSchemaViolation, tr.Tool, s.agentType)
		}
	}

	return contractx.SpecialistResponse{
		ToolRequests: toolRequests,
	}, nil
}

// directMessage unwraps a structured answer given without tool calls.
func directMessage(content string) string {
	content = strings.TrimSpace(content)
	var out specialistLLMOutput
	if strings.HasPrefix(content, "{") && json.Unmarshal([]byte(content), &out) == nil {
		return strings.TrimSpace(out.Message)
	}
	return content
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			Tool: tool,
			Args: args,
		})
	}
	return reqs, nil
}
