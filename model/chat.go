// Package model abstracts the LLM chat providers an "agent" node can
// be configured to call (spec.md §6 item 4, "Agent runner"). The Flow
// Engine never imports this package directly — only the agent
// handler in the handler package does.
package model

import "context"

// ChatModel is the common interface every provider adapter
// (anthropic, openai, google) implements, grounded on
// graph/model/chat.go's ChatModel contract.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error)
}

// Message is one turn in a conversation sent to a ChatModel.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolSpec describes a tool the model may call, using a JSON-Schema
// shaped Schema.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ChatOut is a provider-normalized chat completion, enriched with the
// token counts the Node Executor needs to fold into
// NodeExecution.TokensUsed/Cost — the teacher's ChatOut carries no
// usage data because graph/cost.go's CostTracker records usage out of
// band; this module has no such side channel, so usage travels with
// the result itself.
type ChatOut struct {
	Text         string
	ToolCalls    []ToolCall
	InputTokens  int
	OutputTokens int
}

// ToolCall is one tool invocation the model requested.
type ToolCall struct {
	Name  string
	Input map[string]any
}
