package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
)

const (
	ToolGetUserDetails          = "get_user_details"
	ToolSearchRejectionPolicies = "search_rejection_policies"
	ToolSearchMarketNews        = "search_market_news"
	ToolPublishHandoff          = "publish_handoff"
)

// Executor runs one tool call. Tool failures go into ToolResult.Error; the
// returned error is reserved for failures that must abort the turn.
type Executor func(ctx context.Context, scope contractx.ToolScope, tool string, args map[string]any) (contractx.ToolResult, error)

type entry struct {
	info *schema.ToolInfo
	exec Executor
}

// Catalog owns the tools of every agent and executes their calls.
type Catalog struct {
	byAgent map[contractx.AgentType][]entry
}

var _ contractx.ToolGateway = (*Catalog)(nil)

// NewCatalog wires the account lookup and handoff tools. A nil dependency
// leaves its tool declared but unavailable.
func NewCatalog(accounts *AccountLookup, handoff HandoffPublisher) *Catalog {
	lookupInfo := defaultUserDetailsInfo()
	var lookupExec Executor
	if accounts != nil {
		lookupInfo = accounts.Info()
		lookupExec = accounts.Execute
	}

	var handoffExec Executor
	if handoff != nil {
		handoffExec = handoffExecutor(handoff)
	}

	return &Catalog{
		byAgent: map[contractx.AgentType][]entry{
			contractx.AgentTypeAccountStatus: {
				{info: lookupInfo, exec: lookupExec},
			},
			contractx.AgentTypeRejectionReason: {
				{
					info: &schema.ToolInfo{
						Name: ToolSearchRejectionPolicies,
						Desc: "Search EazyBank's account policy documents for the detailed meaning of a rejection reason.",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
							"query": {Type: schema.String, Desc: "Rejection reason or policy question", Required: true},
						}),
					},
				},
			},
			contractx.AgentTypeMarketInsights: {
				{
					info: &schema.ToolInfo{
						Name: ToolSearchMarketNews,
						Desc: "Search the web for EazyBank's latest stock price and market news.",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
							"query": {Type: schema.String, Desc: "Search query", Required: true},
						}),
					},
				},
			},
			contractx.AgentTypeHumanHandoff: {
				{
					info: &schema.ToolInfo{
						Name: ToolPublishHandoff,
						Desc: "Forward the customer's message and conversation history to the human agent queue.",
						ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
							"user_message": {Type: schema.String, Desc: "The customer's message that triggered the handoff", Required: true},
						}),
					},
					exec: handoffExec,
				},
			},
		},
	}
}

// InfosForAgent returns the tools agentType may call.
func (c *Catalog) InfosForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	if c == nil {
		return nil
	}
	entries := c.byAgent[agentType]
	infos := make([]*schema.ToolInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, e.info)
	}
	return infos
}

// Execute runs reqs in order for scope.Agent.
func (c *Catalog) Execute(ctx context.Context, scope contractx.ToolScope, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		name := strings.TrimSpace(req.Tool)
		exec := c.executorFor(scope.Agent, name)

		res, err := exec(ctx, scope, name, req.Args)
		if err != nil {
			return nil, fmt.Errorf("execute tool=%s for agent=%s: %w", name, scope.Agent, err)
		}
		if res.Tool == "" {
			res.Tool = name
		}

		log.Ctx(ctx).Debug().
			Str("agent", string(scope.Agent)).
			Str("session_id", scope.SessionID).
			Str("tool", name).
			Str("tool_error", res.Error).
			Msg("tool executed")

		results = append(results, res)
	}
	return results, nil
}

func (c *Catalog) executorFor(agentType contractx.AgentType, tool string) Executor {
	if c != nil {
		for _, e := range c.byAgent[agentType] {
			if e.info != nil && e.info.Name == tool && e.exec != nil {
				return e.exec
			}
		}
	}
	return DefaultExecutor(agentType)
}

func DefaultExecutor(agentType contractx.AgentType) Executor {
	return func(ctx context.Context, _ contractx.ToolScope, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agentType),
		}, nil
	}
}

func handoffExecutor(publisher HandoffPublisher) Executor {
	return func(ctx context.Context, scope contractx.ToolScope, tool string, args map[string]any) (contractx.ToolResult, error) {
		message, ok := args["user_message"].(string)
		if !ok || strings.TrimSpace(message) == "" {
			return contractx.ToolResult{
				Tool:  tool,
				Error: "user_message is required",
			}, nil
		}
		return contractx.ToolResult{
			Tool:   tool,
			Result: publisher.Publish(ctx, strings.TrimSpace(message), scope.SessionID),
		}, nil
	}
}

// HandoffPublisher forwards a conversation to human agents and reports the
// outcome as text.
type HandoffPublisher interface {
	Publish(ctx context.Context, userMessage, sessionID string) string
}
