// Package engine implements the Flow Engine and Node Executor
// (spec.md §4.D/§4.E): the lifecycle owner that fetches a flow
// definition, traverses its nodes through registered handlers, drives
// retries through the classify/retry packages, and fans out updates.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/sipsyai/flowengine/classify"
	"github.com/sipsyai/flowengine/emit"
	"github.com/sipsyai/flowengine/flow"
	"github.com/sipsyai/flowengine/retry"
)

// StartRequest is the input to StartExecution (spec.md §6
// StartFlowExecutionRequest).
type StartRequest struct {
	FlowID      string
	Input       map[string]any
	TriggeredBy flow.TriggerType
	TriggerData map[string]any
}

// StartResult is the outcome of a completed, failed, or cancelled
// execution (spec.md §6 FlowExecutionResult). Not to be confused with
// handler Result, which is per-node.
type StartResult struct {
	Success        bool
	Status         ExecStatus
	Output         map[string]any
	ExecutionTime  time.Duration
	TokensUsed     int
	Cost           float64
	Error          string
	NodeExecutions []*NodeExecution
}

// Engine owns the active-set of in-flight executions and the
// collaborators the Node Executor and traversal loop share.
type Engine struct {
	opts     Options
	defs     DefinitionStore
	execs    ExecutionStore
	registry *Registry
	bus      *emit.Bus
	metrics  *Metrics

	backoff    *retry.Backoff
	controller *retry.Controller

	mu     sync.Mutex
	active map[string]*Context
}

// New wires an Engine from its required collaborators plus functional
// options, the same pattern graph.New(...Option) uses.
func New(defs DefinitionStore, execs ExecutionStore, registry *Registry, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	backoff := retry.NewBackoff(seedOrTime(o.BackoffSeed))

	return &Engine{
		opts:       o,
		defs:       defs,
		execs:      execs,
		registry:   registry,
		bus:        emit.NewBus(o.BusCapacity),
		metrics:    o.Metrics,
		backoff:    backoff,
		controller: retry.NewController(backoff),
		active:     make(map[string]*Context),
	}
}

func seedOrTime(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// RegisterNodeHandler binds a node type to a handler (spec.md §6 item
// 1, "Handler registry").
func (e *Engine) RegisterNodeHandler(nodeType string, h Handler) {
	e.registry.Register(nodeType, h)
}

// Subscribe joins the process-wide execution-update topic (spec.md
// §4.E "Event fan-out").
func (e *Engine) Subscribe() (<-chan emit.Update, func()) {
	return e.bus.Subscribe()
}

// GetActiveExecutionIds lists the executions currently in the active
// set.
func (e *Engine) GetActiveExecutionIds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	return ids
}

// GetExecutionStatus returns a snapshot of an active execution's
// state, or (nil, false) if it isn't active. The snapshot is a shallow
// copy: its Logs and NodeExecutions slices share elements with the
// live record.
func (e *Engine) GetExecutionStatus(id string) (*FlowExecution, bool) {
	e.mu.Lock()
	fctx, ok := e.active[id]
	e.mu.Unlock()
	if !ok {
		return nil, false
	}
	fctx.mu.Lock()
	defer fctx.mu.Unlock()
	snapshot := *fctx.Execution
	return &snapshot, true
}

// CancelExecution cooperatively cancels an active execution (spec.md
// §4.E cancelExecution). Returns false if the id isn't active.
func (e *Engine) CancelExecution(id string) bool {
	e.mu.Lock()
	fctx, ok := e.active[id]
	e.mu.Unlock()
	if !ok {
		return false
	}

	fctx.setCancelled()

	now := time.Now()
	fctx.Execution.Status = ExecCancelled
	fctx.Execution.CompletedAt = &now
	fctx.Execution.ExecutionTime = now.Sub(fctx.Execution.StartedAt)
	fctx.Execution.Error = "Execution was cancelled"

	e.persistUpdate(fctx)
	e.emitUpdate(fctx, updatePayload{typ: string(emit.ExecutionCancelled)})

	e.mu.Lock()
	delete(e.active, id)
	e.mu.Unlock()

	return true
}

// StartExecution runs a flow to completion, cancellation, or fatal
// failure (spec.md §4.E startExecution).
func (e *Engine) StartExecution(ctx context.Context, req StartRequest) (*StartResult, error) {
	executionID := uuid.NewString()

	f, err := e.defs.GetFlow(ctx, req.FlowID)
	if err != nil {
		return nil, fmt.Errorf("fetching flow %s: %w", req.FlowID, err)
	}
	if f == nil {
		return nil, newFlowNotFound(req.FlowID)
	}
	if !f.IsActive {
		return nil, newFlowInactive(f.Name)
	}

	now := time.Now()
	fe := &FlowExecution{
		ID:          executionID,
		FlowID:      req.FlowID,
		Status:      ExecRunning,
		Input:       req.Input,
		TriggeredBy: req.TriggeredBy,
		TriggerData: req.TriggerData,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	data := make(map[string]any, len(req.Input))
	for k, v := range req.Input {
		data[k] = v
	}
	variables := map[string]any{"input": req.Input}

	fctx := &Context{
		Flow:      f,
		Execution: fe,
		Data:      data,
		Variables: variables,
		StartTime: now,
	}
	fctx.onUpdate = func(u updatePayload) { e.publish(fctx, u) }
	fctx.logFn = func(level, message, nodeID string, data map[string]any) {
		e.logAndEmit(fctx, level, message, nodeID, data)
	}

	if err := e.execs.CreateFlowExecution(ctx, fe); err != nil {
		fctx.logFn("warn", "execution store create failed, continuing with local record: "+err.Error(), "", nil)
	}

	e.mu.Lock()
	e.active[executionID] = fctx
	e.mu.Unlock()
	e.metrics.setActiveExecutions(len(e.GetActiveExecutionIds()))

	e.emitUpdate(fctx, updatePayload{typ: string(emit.ExecutionStarted)})

	runErr := e.traverse(ctx, fctx)

	completedAt := time.Now()
	fe.CompletedAt = &completedAt
	fe.ExecutionTime = completedAt.Sub(fe.StartedAt)
	fe.UpdatedAt = completedAt

	result := &StartResult{
		ExecutionTime:  fe.ExecutionTime,
		TokensUsed:     fe.TokensUsed,
		Cost:           fe.Cost,
		NodeExecutions: fe.NodeExecutions,
	}

	switch {
	case fctx.Cancelled():
		fe.Status = ExecCancelled
		result.Status = ExecCancelled
		result.Error = "Execution was cancelled"
		e.emitUpdate(fctx, updatePayload{typ: string(emit.ExecutionCancelled)})
	case runErr != nil:
		fe.Status = ExecFailed
		fe.Error = runErr.Error()
		result.Status = ExecFailed
		result.Error = runErr.Error()
		e.emitUpdate(fctx, updatePayload{typ: string(emit.ExecutionFailed), data: map[string]any{"error": runErr.Error()}})
	default:
		fe.Status = ExecCompleted
		fe.Output = fctx.Data
		result.Success = true
		result.Status = ExecCompleted
		result.Output = fctx.Data
		e.emitUpdate(fctx, updatePayload{typ: string(emit.ExecutionCompleted)})
	}

	e.persistUpdate(fctx)

	e.mu.Lock()
	delete(e.active, executionID)
	e.mu.Unlock()
	e.metrics.setActiveExecutions(len(e.GetActiveExecutionIds()))

	return result, nil
}

// traverse runs the node-by-node loop described in spec.md §4.E
// "Traversal loop" until the flow terminates, is cancelled, or fails
// fatally.
func (e *Engine) traverse(ctx context.Context, fctx *Context) error {
	current, ok := fctx.Flow.EntryNode()
	if !ok {
		return newNoEntryNode()
	}

	for {
		if fctx.Cancelled() {
			return nil
		}

		outcome := e.runNode(ctx, current, fctx)

		if !outcome.success {
			classified := classify.Classify(outcome.errMsg, 0)
			if outcome.details != nil {
				classified = classified.WithStack(outcome.details.Stack).WithContext(outcome.details.Context)
			}

			policy := flow.PolicyFor(current)
			state := fctx.retryState(current.NodeID, policy.MaxRetries)
			ne := fctx.Execution.nodeExecution(current.NodeID, string(current.Type))

			action := e.controller.RecoveryAction(current, classified, state, policy)

			switch action {
			case classify.ActionRetry:
				e.metrics.incrementRetries(current.NodeID, string(classified.Category))
				attempt := state.RetryCount + 1
				delay := e.backoff.Delay(attempt, policy)
				state = retry.MarkWaiting(state, time.Now().Add(delay), classified)
				fctx.setRetryState(current.NodeID, state)

				e.logAndEmit(fctx, "warn",
					fmt.Sprintf("retrying node %s %s (attempt %d): %s", current.NodeID, humanize.Time(time.Now().Add(delay)), attempt, classified.Message),
					current.NodeID, map[string]any{"delayMs": delay.Milliseconds()})

				if !e.sleepCancellable(fctx, delay) {
					return nil
				}

				state = retry.RecordAttempt(state, false, delay, classified.Message)
				state.MaxRetries = policy.MaxRetries
				fctx.setRetryState(current.NodeID, state)
				ne.RetryCount = state.RetryCount
				ne.Status = NodePending
				continue

			case classify.ActionUseDefault:
				def, _ := current.DefaultOnError()
				fctx.Variables[current.NodeID] = def
				if m, ok := def.(map[string]any); ok {
					for k, v := range m {
						fctx.Data[k] = v
					}
				}
				// ne.Status stays NodeFailed (set by finishFailure):
				// the node itself failed, it was the flow that
				// recovered by substituting a default output.
				ne.Output = def
				e.logAndEmit(fctx, "info",
					fmt.Sprintf("node %s failed, substituting default output", current.NodeID),
					current.NodeID, map[string]any{"error": classified.Message})

			case classify.ActionSkip:
				ne.Status = NodeSkipped

			default: // classify.ActionFail
				fctx.Execution.ErrorDetails = classified
				return classified
			}
		} else {
			if outcome.result.Data != nil {
				for k, v := range outcome.result.Data {
					fctx.Data[k] = v
				}
			}
			fctx.Variables[current.NodeID] = outcome.result.Output
			fctx.Execution.TokensUsed += outcome.result.TokensUsed
			fctx.Execution.Cost += outcome.result.Cost
			e.metrics.addUsage(outcome.result.TokensUsed, outcome.result.Cost)

			if outcome.result.ContinueExecution != nil && !*outcome.result.ContinueExecution {
				return nil
			}
		}

		if current.NextNodeID == "" {
			return nil
		}
		next, ok := fctx.Flow.NodeByID(current.NextNodeID)
		if !ok {
			return newErrUnknownNextNode(current.NextNodeID)
		}
		current = next
	}
}

// sleepCancellable waits out d, returning early (with false) if the
// execution is cancelled mid-wait — the interruptible retry sleep
// spec.md §5 requires.
func (e *Engine) sleepCancellable(fctx *Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return true
		case <-ticker.C:
			if fctx.Cancelled() {
				return false
			}
		}
	}
}

// appendLog records a structured line on the execution's own log
// slice, with no side effects beyond that.
func (e *Engine) appendLog(fe *FlowExecution, level, message, nodeID string, data map[string]any) {
	fe.Logs = append(fe.Logs, Log{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		NodeID:    nodeID,
		Data:      data,
	})
}

// logAndEmit appends a log line and also emits a log-type update for
// live viewers. It backs both the engine's internal log calls and
// fctx.logFn, the handler-facing log hook on Context.
func (e *Engine) logAndEmit(fctx *Context, level, message, nodeID string, data map[string]any) {
	e.appendLog(fctx.Execution, level, message, nodeID, data)

	logData := map[string]any{"level": level, "message": message}
	for k, v := range data {
		logData[k] = v
	}
	e.emitUpdate(fctx, updatePayload{typ: string(emit.LogUpdate), nodeID: nodeID, data: logData})
}

func (e *Engine) persistUpdate(fctx *Context) {
	if err := e.execs.UpdateFlowExecution(context.Background(), fctx.Execution); err != nil {
		e.logAndEmit(fctx, "warn", "execution store update failed: "+err.Error(), "", nil)
	}
}

// emitUpdate fills in the common envelope fields and forwards the
// update to the execution's own sink.
func (e *Engine) emitUpdate(fctx *Context, p updatePayload) {
	if p.nodeID == "" {
		p.nodeID = fctx.Execution.CurrentNodeID
	}
	if fctx.onUpdate != nil {
		fctx.onUpdate(p)
	} else {
		e.publish(fctx, p)
	}
}

// publish is the single point where an updatePayload becomes an
// emit.Update and reaches both fan-out channels (spec.md §4.E "Event
// fan-out": the per-context sink and the process-wide bus).
func (e *Engine) publish(fctx *Context, p updatePayload) {
	u := emit.Update{
		Type:        emit.UpdateType(p.typ),
		ExecutionID: fctx.Execution.ID,
		Timestamp:   time.Now(),
		NodeID:      p.nodeID,
		NodeType:    p.nodeType,
		Data:        p.data,
	}
	e.bus.Emit(u)
	if e.opts.Emitter != nil {
		e.opts.Emitter.Emit(u)
	}
}
