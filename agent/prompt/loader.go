package prompt

import (
	_ "embed"
	"strings"

	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
)

var (
	//go:embed template/root.txt
	rootRaw string

	//go:embed template/account_status.txt
	accountStatusRaw string

	//go:embed template/rejection_reason.txt
	rejectionReasonRaw string

	//go:embed template/market_insights.txt
	marketInsightsRaw string

	//go:embed template/human_handoff.txt
	humanHandoffRaw string
)

// PromptSet holds the system prompt of every agent.
// Prompts are rendered with FString, so they must not contain braces.
type PromptSet struct {
	Root            string
	AccountStatus   string
	RejectionReason string
	MarketInsights  string
	HumanHandoff    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Root:            strings.TrimSpace(rootRaw),
		AccountStatus:   strings.TrimSpace(accountStatusRaw),
		RejectionReason: strings.TrimSpace(rejectionReasonRaw),
		MarketInsights:  strings.TrimSpace(marketInsightsRaw),
		HumanHandoff:    strings.TrimSpace(humanHandoffRaw),
	}
}

// For returns the prompt of agentType, or "" for an unknown agent.
func (p PromptSet) For(agentType contractx.AgentType) string {
	switch agentType {
	case contractx.AgentTypeRoot:
		return p.Root
	case contractx.AgentTypeAccountStatus:
		return p.AccountStatus
	case contractx.AgentTypeRejectionReason:
		return p.RejectionReason
	case contractx.AgentTypeMarketInsights:
		return p.MarketInsights
	case contractx.AgentTypeHumanHandoff:
		return p.HumanHandoff
	default:
		return ""
	}
}
