// Package flow defines the static, immutable shape of a workflow: a
// linear chain of typed nodes fetched once at execution start.
package flow

import "time"

// Flow is an immutable workflow definition fetched from the definition
// store at the start of an execution.
type Flow struct {
	ID       string
	Name     string
	IsActive bool
	Nodes    []Node
}

// NodeByID returns the node with the given ID, or false if absent.
func (f *Flow) NodeByID(id string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.NodeID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EntryNode returns the node execution should start from: the first
// node of type "input", falling back to the first node in the
// sequence. Returns false if the flow has no nodes.
func (f *Flow) EntryNode() (Node, bool) {
	for _, n := range f.Nodes {
		if n.Type == TypeInput {
			return n, true
		}
	}
	if len(f.Nodes) == 0 {
		return Node{}, false
	}
	return f.Nodes[0], true
}

// NodeType tags the variant of a FlowNode. The set is extensible:
// handlers register against arbitrary type strings, not just the three
// named here.
type NodeType string

const (
	TypeInput NodeType = "input"
	TypeAgent NodeType = "agent"
	// TypeOutput marks a terminal node. Not special-cased by the
	// engine — it is just another registered handler type.
	TypeOutput NodeType = "output"
)

// Node is a single entry in a Flow's linear chain.
type Node struct {
	NodeID     string
	Type       NodeType
	Name       string
	NextNodeID string // empty means this node terminates the flow

	// Metadata carries recognized keys (MetaDefaultOnError, MetaOptional,
	// MetaSkipOnError) as well as handler-specific, engine-opaque
	// settings (prompt, model, tool allowlist, ...).
	Metadata map[string]any

	// Agent-only fields. Zero-valued and ignored for other node types.
	RetryOnError bool
	MaxRetries   int
	Timeout      time.Duration
}

// Recognized metadata keys.
const (
	MetaDefaultOnError = "defaultOnError"
	MetaOptional       = "optional"
	MetaSkipOnError    = "skipOnError"
)

// DefaultOnError returns the node's configured default-on-error value
// and whether one was configured.
func (n Node) DefaultOnError() (any, bool) {
	if n.Metadata == nil {
		return nil, false
	}
	v, ok := n.Metadata[MetaDefaultOnError]
	return v, ok
}

// IsOptional reports whether the node is marked optional or
// skip-on-error, either of which permits skip-on-failure recovery.
func (n Node) IsOptional() bool {
	if n.Metadata == nil {
		return false
	}
	if b, ok := n.Metadata[MetaOptional].(bool); ok && b {
		return true
	}
	if b, ok := n.Metadata[MetaSkipOnError].(bool); ok && b {
		return true
	}
	return false
}

// TriggerType identifies how a FlowExecution was started.
type TriggerType string

const (
	TriggerManual   TriggerType = "manual"
	TriggerSchedule TriggerType = "schedule"
	TriggerWebhook  TriggerType = "webhook"
)
