package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Every agent graph renders its input under this key.
const inputKey = "input"

func agentTemplate(systemPrompt string) einoprompt.ChatTemplate {
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{"+inputKey+"}"),
	)
}

func agentInput(payload string) map[string]any {
	return map[string]any{inputKey: payload}
}

// linkChain wires START -> nodes... -> END.
func linkChain[I, O any](graph *compose.Graph[I, O], nodes ...string) error {
	prev := compose.START
	for _, next := range append(nodes, compose.END) {
		if err := graph.AddEdge(prev, next); err != nil {
			return fmt.Errorf("add edge %s->%s: %w", prev, next, err)
		}
		prev = next
	}
	return nil
}

// compileChatGraph is prompt -> model, returning the raw assistant message.
func compileChatGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", agentTemplate(systemPrompt)); err != nil {
		return nil, fmt.Errorf("%s: add prompt node: %w", graphName, err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("%s: add model node: %w", graphName, err)
	}
	if err := linkChain(graph, "prompt", "model"); err != nil {
		return nil, fmt.Errorf("%s: %w", graphName, err)
	}
	return graph.Compile(ctx, compose.WithGraphName(graphName))
}

// compileJSONGraph is prompt -> model -> parse_json, decoding the assistant
// content into T.
func compileJSONGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, T], error) {
	parser := schema.NewMessageJSONParser[T](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, T]()
	if err := graph.AddChatTemplateNode("prompt", agentTemplate(systemPrompt)); err != nil {
		return nil, fmt.Errorf("%s: add prompt node: %w", graphName, err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("%s: add model node: %w", graphName, err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("%s: add parser node: %w", graphName, err)
	}
	if err := linkChain(graph, "prompt", "model", "parse_json"); err != nil {
		return nil, fmt.Errorf("%s: %w", graphName, err)
	}
	return graph.Compile(ctx, compose.WithGraphName(graphName))
}
