package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
	llmx "github.com/tanpawarit/eazybank-support/agent/llm"
	promptx "github.com/tanpawarit/eazybank-support/agent/prompt"
)

// ToolInfoSource declares the tools each specialist may call.
type ToolInfoSource interface {
	InfosForAgent(agentType contractx.AgentType) []*schema.ToolInfo
}

type registryImpl struct {
	router      contractx.Router
	specialists map[contractx.AgentType]contractx.Specialist
}

func (r *registryImpl) Router() contractx.Router {
	return r.router
}

func (r *registryImpl) Specialist(agent contractx.AgentType) (contractx.Specialist, bool) {
	s, ok := r.specialists[agent]
	return s, ok
}

func NewRegistry(ctx context.Context, cfg llmx.Config, tools ToolInfoSource) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	agents := append([]contractx.AgentType{contractx.AgentTypeRoot}, contractx.Specialists...)
	models := make(map[contractx.AgentType]einomodel.ToolCallingChatModel, len(agents))
	for _, agent := range agents {
		modelCfg := cfg.OpenRouterFor(agent)
		m, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agent, err)
		}
		models[agent] = m
	}

	return newRegistry(ctx, models, promptx.LoadPromptSet(), tools)
}

func newRegistry(
	ctx context.Context,
	models map[contractx.AgentType]einomodel.ToolCallingChatModel,
	prompts promptx.PromptSet,
	tools ToolInfoSource,
) (*registryImpl, error) {
	rootModel, ok := models[contractx.AgentTypeRoot]
	if !ok {
		return nil, fmt.Errorf("%w: no model for agent=%s", contractx.ErrValidation, contractx.AgentTypeRoot)
	}
	router, err := newRouter(ctx, rootModel, prompts.For(contractx.AgentTypeRoot))
	if err != nil {
		return nil, err
	}

	specialists := make(map[contractx.AgentType]contractx.Specialist, len(contractx.Specialists))
	for _, agent := range contractx.Specialists {
		m, ok := models[agent]
		if !ok {
			return nil, fmt.Errorf("%w: no model for agent=%s", contractx.ErrValidation, agent)
		}
		var infos []*schema.ToolInfo
		if tools != nil {
			infos = tools.InfosForAgent(agent)
		}
		spec, err := newSpecialist(ctx, agent, m, prompts.For(agent), infos)
		if err != nil {
			return nil, err
		}
		specialists[agent] = spec
	}

	return &registryImpl{
		router:      router,
		specialists: specialists,
	}, nil
}
