package contract

import "context"

type Router interface {
	Route(ctx context.Context, req RouteRequest) (RouteResponse, error)
}

type Specialist interface {
	Run(ctx context.Context, req SpecialistRequest) (SpecialistResponse, error)
}

type Registry interface {
	Router() Router
	Specialist(agent AgentType) (Specialist, bool)
}

type ToolGateway interface {
	Execute(ctx context.Context, scope ToolScope, reqs []ToolRequest) ([]ToolResult, error)
}
