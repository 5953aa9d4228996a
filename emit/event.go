// Package emit provides the update/event stream for flow executions:
// the single channel that carries every node- and execution-level
// transition to real-time subscribers (spec.md §3 FlowExecutionUpdate,
// §4.E "Event fan-out").
package emit

import "time"

// UpdateType enumerates the kinds of FlowExecutionUpdate (spec.md
// §3). Ordering guarantees (spec.md §5, P4) are expressed over this
// set.
type UpdateType string

const (
	ExecutionStarted   UpdateType = "execution_started"
	NodeStarted        UpdateType = "node_started"
	NodeCompleted      UpdateType = "node_completed"
	NodeFailed         UpdateType = "node_failed"
	LogUpdate          UpdateType = "log"
	ExecutionCompleted UpdateType = "execution_completed"
	ExecutionFailed    UpdateType = "execution_failed"
	ExecutionCancelled UpdateType = "execution_cancelled"
)

// Update is a single typed event on the execution-update stream.
type Update struct {
	Type        UpdateType
	ExecutionID string
	Timestamp   time.Time
	NodeID      string
	NodeType    string
	Data        map[string]any
}

// Emitter receives Updates from the Flow Engine and the Node Executor.
// Implementations must be non-blocking and thread-safe, since they may
// be called concurrently by many in-flight executions — grounded on
// graph/emit/emitter.go's Emitter contract.
type Emitter interface {
	Emit(u Update)
}
