package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
	openrouterx "github.com/tanpawarit/eazybank-support/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	RootModel            string `envconfig:"ROOT_MODEL" split_words:"true"`
	AccountStatusModel   string `envconfig:"ACCOUNT_STATUS_MODEL" split_words:"true"`
	RejectionReasonModel string `envconfig:"REJECTION_REASON_MODEL" split_words:"true"`
	MarketInsightsModel  string `envconfig:"MARKET_INSIGHTS_MODEL" split_words:"true"`
	HumanHandoffModel    string `envconfig:"HUMAN_HANDOFF_MODEL" split_words:"true"`

	// Negative temperatures mean "use Temperature".
	RootTemperature            float32 `envconfig:"ROOT_TEMPERATURE" split_words:"true" default:"-1"`
	AccountStatusTemperature   float32 `envconfig:"ACCOUNT_STATUS_TEMPERATURE" split_words:"true" default:"-1"`
	RejectionReasonTemperature float32 `envconfig:"REJECTION_REASON_TEMPERATURE" split_words:"true" default:"-1"`
	MarketInsightsTemperature  float32 `envconfig:"MARKET_INSIGHTS_TEMPERATURE" split_words:"true" default:"-1"`
	HumanHandoffTemperature    float32 `envconfig:"HUMAN_HANDOFF_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxCompletionToken <= 0 {
		return fmt.Errorf("%w: max completion token must be > 0", contractx.ErrValidation)
	}
	return nil
}

func (c Config) override(agentType contractx.AgentType) (string, float32) {
	switch agentType {
	case contractx.AgentTypeRoot:
		return c.RootModel, c.RootTemperature
	case contractx.AgentTypeAccountStatus:
		return c.AccountStatusModel, c.AccountStatusTemperature
	case contractx.AgentTypeRejectionReason:
		return c.RejectionReasonModel, c.RejectionReasonTemperature
	case contractx.AgentTypeMarketInsights:
		return c.MarketInsightsModel, c.MarketInsightsTemperature
	case contractx.AgentTypeHumanHandoff:
		return c.HumanHandoffModel, c.HumanHandoffTemperature
	default:
		return "", -1
	}
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	overrideModel, overrideTemp := c.override(agentType)
	if v := strings.TrimSpace(overrideModel); v != "" {
		modelName = v
	}
	if overrideTemp >= 0 {
		temp = overrideTemp
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
