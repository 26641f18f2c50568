package contract

import (
	"time"

	statex "github.com/tanpawarit/eazybank-support/agent/state"
)

type AgentType string

const (
	AgentTypeRoot            AgentType = "root"
	AgentTypeAccountStatus   AgentType = "account_status"
	AgentTypeRejectionReason AgentType = "rejection_reason"
	AgentTypeMarketInsights  AgentType = "market_insights"
	AgentTypeHumanHandoff    AgentType = "human_handoff"
)

// Specialists lists the agents the root agent may transfer to.
var Specialists = []AgentType{
	AgentTypeAccountStatus,
	AgentTypeRejectionReason,
	AgentTypeMarketInsights,
	AgentTypeHumanHandoff,
}

func (a AgentType) IsSpecialist() bool {
	for _, s := range Specialists {
		if a == s {
			return true
		}
	}
	return false
}

type RouteRequest struct {
	UserMessage string        `json:"user_message"`
	ActiveAgent AgentType     `json:"active_agent,omitempty"`
	History     []statex.Turn `json:"history,omitempty"`
	Now         time.Time     `json:"now"`
}

// RouteResponse either transfers to Agent with a context Summary, or
// answers directly with Reply when Agent is root.
type RouteResponse struct {
	Agent   AgentType `json:"agent"`
	Reply   string    `json:"reply,omitempty"`
	Summary string    `json:"summary,omitempty"`
}

type SpecialistRequest struct {
	SessionID   string        `json:"session_id"`
	UserID      string        `json:"user_id"`
	UserMessage string        `json:"user_message"`
	Summary     string        `json:"summary,omitempty"`
	History     []statex.Turn `json:"history,omitempty"`
	ToolResults []ToolResult  `json:"tool_results,omitempty"`
}

type SpecialistResponse struct {
	Message      string        `json:"message"`
	ToolRequests []ToolRequest `json:"tool_requests,omitempty"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ToolScope identifies who a batch of tool requests runs for.
type ToolScope struct {
	Agent     AgentType
	SessionID string
	UserID    string
}
