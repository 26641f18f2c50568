package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/eazybank-support/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Message)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: agent returned empty message", contractx.ErrValidation)
	}
	return GraphOutput{Agent: in.Agent, Reply: reply}, nil
}
