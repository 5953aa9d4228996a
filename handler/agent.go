package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/sipsyai/flowengine/engine"
	"github.com/sipsyai/flowengine/flow"
	"github.com/sipsyai/flowengine/fsgateway"
	"github.com/sipsyai/flowengine/model"
)

// Agent is the handler for "agent"-typed nodes: it calls out to a
// configured model.ChatModel (spec.md §6 item 4, "Agent runner") and
// turns the response into a node Result. Node metadata drives the
// call: "provider" selects which bound ChatModel to use, "prompt"
// (required) and "systemPrompt" (optional) build the message list,
// "modelName" is recorded for cost lookup. If Gateway is set, a node
// may also set "contextFile" to have its contents read (path-validated
// against the gateway's root) and folded into the system prompt.
type Agent struct {
	Providers   map[string]model.ChatModel
	DefaultName string
	Gateway     *fsgateway.Gateway
}

// NewAgent returns an Agent dispatching across the given named
// providers (e.g. "anthropic", "openai", "google"). defaultName picks
// the provider used when a node's metadata omits "provider".
func NewAgent(providers map[string]model.ChatModel, defaultName string) *Agent {
	return &Agent{Providers: providers, DefaultName: defaultName}
}

// NewAgentWithGateway is NewAgent plus a filesystem gateway, enabling
// the node-level "contextFile" metadata field; the gateway is the
// filesystem collaborator of spec.md §6 item 6 (the engine never touches the filesystem directly; only the
// agent handler does, and only through the gateway's path validation).
func NewAgentWithGateway(providers map[string]model.ChatModel, defaultName string, gw *fsgateway.Gateway) *Agent {
	return &Agent{Providers: providers, DefaultName: defaultName, Gateway: gw}
}

func (a *Agent) Execute(ctx context.Context, node flow.Node, fctx *engine.Context) (engine.Result, error) {
	prompt, _ := node.Metadata["prompt"].(string)
	if prompt == "" {
		return engine.Result{Success: false, Error: "agent node missing metadata.prompt"}, nil
	}

	providerName, _ := node.Metadata["provider"].(string)
	if providerName == "" {
		providerName = a.DefaultName
	}
	provider, ok := a.Providers[providerName]
	if !ok {
		return engine.Result{Success: false, Error: fmt.Sprintf("agent node: unknown provider %q", providerName)}, nil
	}

	systemPrompt, _ := node.Metadata["systemPrompt"].(string)
	if contextFile, _ := node.Metadata["contextFile"].(string); contextFile != "" {
		if a.Gateway == nil {
			return engine.Result{Success: false, Error: "agent node requests contextFile but no filesystem gateway is configured"}, nil
		}
		b, err := a.Gateway.ReadFile(contextFile)
		if err != nil {
			return engine.Result{Success: false, Error: fmt.Sprintf("agent node: reading contextFile: %s", err)}, nil
		}
		systemPrompt = strings.TrimSpace(systemPrompt + "\n\n" + string(b))
	}

	var messages []model.Message
	if systemPrompt != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: interpolate(prompt, fctx.Data)})

	out, err := provider.Chat(ctx, messages, nil)
	if err != nil {
		return engine.Result{Success: false, Error: err.Error()}, nil
	}

	modelName, _ := node.Metadata["modelName"].(string)
	cost := engine.CalculateCost(modelName, out.InputTokens, out.OutputTokens)

	data := map[string]any{}
	if len(out.ToolCalls) > 0 {
		calls := make([]map[string]any, len(out.ToolCalls))
		for i, tc := range out.ToolCalls {
			calls[i] = map[string]any{"name": tc.Name, "input": tc.Input}
		}
		data["toolCalls"] = calls
	}

	return engine.Result{
		Success:    true,
		Output:     out.Text,
		Data:       data,
		TokensUsed: out.InputTokens + out.OutputTokens,
		Cost:       cost,
	}, nil
}

// interpolate substitutes "{{key}}" placeholders in a prompt template
// with string-formatted values from data. Unknown keys are left as-is
// rather than erroring — prompts are free text, not a strict template
// language.
func interpolate(prompt string, data map[string]any) string {
	if len(data) == 0 {
		return prompt
	}
	result := prompt
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", fmt.Sprintf("%v", v))
	}
	return result
}
