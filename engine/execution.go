package engine

import (
	"sync"
	"time"

	"github.com/sipsyai/flowengine/classify"
	"github.com/sipsyai/flowengine/flow"
	"github.com/sipsyai/flowengine/retry"
)

// NodeStatus is the lifecycle state of a single NodeExecution.
type NodeStatus string

const (
	NodePending   NodeStatus = "pending"
	NodeRunning   NodeStatus = "running"
	NodeCompleted NodeStatus = "completed"
	NodeFailed    NodeStatus = "failed"
	NodeSkipped   NodeStatus = "skipped"
)

// NodeExecution is the record of one node's progress within a run
// (spec.md §3). Retries mutate the same record in place (invariant 1).
type NodeExecution struct {
	NodeID        string
	NodeType      string
	Status        NodeStatus
	StartedAt     time.Time
	CompletedAt   *time.Time
	ExecutionTime time.Duration
	Output        any
	TokensUsed    int
	Cost          float64
	Error         string
	ErrorDetails  *classify.FlowError
	RetryCount    int
}

// ExecStatus is the lifecycle state of a FlowExecution.
type ExecStatus string

const (
	ExecPending   ExecStatus = "pending"
	ExecRunning   ExecStatus = "running"
	ExecCompleted ExecStatus = "completed"
	ExecFailed    ExecStatus = "failed"
	ExecCancelled ExecStatus = "cancelled"
)

// Log is one structured line appended to FlowExecution.Logs (spec.md
// §4.E "Logging").
type Log struct {
	Timestamp time.Time
	Level     string
	Message   string
	NodeID    string
	Data      map[string]any
}

// FlowExecution is the persisted/persistable record of one run
// (spec.md §3). It is distinct from FlowExecutionContext, the live
// mutable state a running execution manipulates.
type FlowExecution struct {
	ID             string
	FlowID         string
	Status         ExecStatus
	Input          map[string]any
	Output         map[string]any
	Logs           []Log
	NodeExecutions []*NodeExecution
	TokensUsed     int
	Cost           float64
	TriggeredBy    flow.TriggerType
	TriggerData    map[string]any
	RetryCount     int
	StartedAt      time.Time
	CompletedAt    *time.Time
	ExecutionTime  time.Duration
	CurrentNodeID  string
	Error          string
	ErrorDetails   *classify.FlowError
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// nodeExecution returns the execution record for a node, creating
// and appending one if it doesn't exist yet.
func (fe *FlowExecution) nodeExecution(nodeID, nodeType string) *NodeExecution {
	for _, ne := range fe.NodeExecutions {
		if ne.NodeID == nodeID {
			return ne
		}
	}
	ne := &NodeExecution{NodeID: nodeID, NodeType: nodeType, Status: NodePending}
	fe.NodeExecutions = append(fe.NodeExecutions, ne)
	return ne
}

// Context is the live, mutable run state threaded through a single
// traversal (spec.md §3 FlowExecutionContext). It is owned and
// mutated by exactly one goroutine: the one running StartExecution for
// this id.
type Context struct {
	Flow      *flow.Flow
	Execution *FlowExecution

	Data      map[string]any
	Variables map[string]any

	StartTime time.Time

	mu          sync.Mutex
	isCancelled bool

	onUpdate func(u updatePayload)
	logFn    func(level, message, nodeID string, data map[string]any)

	retryStates map[string]retry.State
}

type updatePayload struct {
	typ      string
	nodeID   string
	nodeType string
	data     map[string]any
}

// Cancelled reports whether the execution has been flagged for
// cancellation. Safe for concurrent reads from the engine's cancel
// path.
func (c *Context) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCancelled
}

func (c *Context) setCancelled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isCancelled = true
}

// retryState returns the node's current retry state, creating one
// bounded by maxRetries on first access.
func (c *Context) retryState(nodeID string, maxRetries int) retry.State {
	if c.retryStates == nil {
		c.retryStates = make(map[string]retry.State)
	}
	s, ok := c.retryStates[nodeID]
	if !ok {
		s = retry.NewState(maxRetries)
		c.retryStates[nodeID] = s
	}
	return s
}

func (c *Context) setRetryState(nodeID string, s retry.State) {
	if c.retryStates == nil {
		c.retryStates = make(map[string]retry.State)
	}
	c.retryStates[nodeID] = s
}
