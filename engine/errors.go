package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the graph/definition-level failures enumerated
// in spec.md §7 ("Definition errors", "Graph errors"). Grounded on
// graph/errors.go's package-level sentinel style.
var (
	ErrFlowNotFound         = errors.New("flow not found")
	ErrFlowInactive         = errors.New("flow is not active")
	ErrNoEntryNode          = errors.New("no entry node found in flow")
	ErrUnknownNextNode      = errors.New("next node not found in flow")
	ErrHandlerNotRegistered = errors.New("no handler registered for node type")
	ErrExecutionCancelled   = errors.New("execution was cancelled")
	ErrExecutionNotActive   = errors.New("execution is not active")
)

// Error is a structured engine-level error, analogous to the
// teacher's EngineError/NodeError: it carries a machine-readable code
// and wraps the underlying cause for errors.Is/As support.
type Error struct {
	Message string
	Code    string
	NodeID  string
	Cause   error
}

func (e *Error) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("node %s: %s", e.NodeID, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newFlowNotFound(flowID string) error {
	return &Error{Message: fmt.Sprintf("flow %s not found", flowID), Code: "FLOW_NOT_FOUND", Cause: ErrFlowNotFound}
}

func newFlowInactive(name string) error {
	return &Error{Message: fmt.Sprintf("flow %s is not active", name), Code: "FLOW_INACTIVE", Cause: ErrFlowInactive}
}

func newNoEntryNode() error {
	return &Error{Message: "no entry node found in flow", Code: "NO_ENTRY_NODE", Cause: ErrNoEntryNode}
}

func newHandlerNotRegistered(nodeType string) error {
	return &Error{Message: "No handler registered for node type: " + nodeType, Code: "HANDLER_NOT_REGISTERED", Cause: ErrHandlerNotRegistered}
}

func newNodeTimeout(nodeName string) error {
	return &Error{Message: fmt.Sprintf("Node %s timed out", nodeName), Code: "NODE_TIMEOUT"}
}

func newErrUnknownNextNode(nodeID string) error {
	return &Error{Message: fmt.Sprintf("next node %s not found in flow", nodeID), Code: "UNKNOWN_NEXT_NODE", Cause: ErrUnknownNextNode}
}
