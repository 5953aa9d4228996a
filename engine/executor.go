package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sipsyai/flowengine/emit"
	"github.com/sipsyai/flowengine/flow"
)

// nodeOutcome is the Node Executor's verdict for one attempt: either a
// successful Result, or a classified-ready failure (message + details).
type nodeOutcome struct {
	success bool
	result  Result
	errMsg  string
	details *HandlerErrorDetails
}

// runNode executes exactly one attempt of node under a deadline
// (spec.md §4.D). It never returns an error itself — failures are
// reported through nodeOutcome so the traversal loop can classify and
// decide on a recovery action.
func (e *Engine) runNode(ctx context.Context, node flow.Node, fctx *Context) nodeOutcome {
	ne := fctx.Execution.nodeExecution(node.NodeID, string(node.Type))
	ne.Status = NodeRunning
	ne.StartedAt = time.Now()
	fctx.Execution.CurrentNodeID = node.NodeID

	e.emitUpdate(fctx, updatePayload{
		typ:      string(emit.NodeStarted),
		nodeID:   node.NodeID,
		nodeType: string(node.Type),
	})

	timeout := e.opts.DefaultNodeTimeout
	if node.Type == flow.TypeAgent && node.Timeout > 0 {
		timeout = node.Timeout
	}

	handler, ok := e.registry.Lookup(string(node.Type))
	if !ok {
		return e.finishFailure(fctx, ne, node, newHandlerNotRegistered(string(node.Type)).Error(), nil)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type handlerOutcome struct {
		res Result
		err error
	}
	done := make(chan handlerOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- handlerOutcome{err: fmt.Errorf("panic in handler: %v", r), res: Result{
					ErrorDetails: &HandlerErrorDetails{Stack: string(debug.Stack())},
				}}
			}
		}()
		res, err := handler.Execute(runCtx, node, fctx)
		done <- handlerOutcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			details := out.res.ErrorDetails
			return e.finishFailure(fctx, ne, node, out.err.Error(), details)
		}
		if !out.res.Success {
			return e.finishFailure(fctx, ne, node, out.res.Error, out.res.ErrorDetails)
		}
		return e.finishSuccess(fctx, ne, node, out.res)

	case <-runCtx.Done():
		// The handler's eventual result, if any, is discarded: the
		// goroutine above is left running and will write to done, but
		// nobody reads it again.
		return e.finishFailure(fctx, ne, node, newNodeTimeout(node.Name).Error(), nil)
	}
}

func (e *Engine) finishSuccess(fctx *Context, ne *NodeExecution, node flow.Node, res Result) nodeOutcome {
	now := time.Now()
	ne.Status = NodeCompleted
	ne.CompletedAt = &now
	ne.ExecutionTime = now.Sub(ne.StartedAt)
	ne.Output = res.Output
	ne.TokensUsed = res.TokensUsed
	ne.Cost = res.Cost

	e.metrics.recordNodeDuration(node.NodeID, "completed", ne.ExecutionTime)

	e.emitUpdate(fctx, updatePayload{
		typ:      string(emit.NodeCompleted),
		nodeID:   node.NodeID,
		nodeType: string(node.Type),
		data: map[string]any{
			"output":     res.Output,
			"tokensUsed": res.TokensUsed,
			"cost":       res.Cost,
		},
	})

	return nodeOutcome{success: true, result: res}
}

func (e *Engine) finishFailure(fctx *Context, ne *NodeExecution, node flow.Node, errMsg string, details *HandlerErrorDetails) nodeOutcome {
	now := time.Now()
	ne.Status = NodeFailed
	ne.CompletedAt = &now
	ne.ExecutionTime = now.Sub(ne.StartedAt)
	ne.Error = errMsg

	e.metrics.recordNodeDuration(node.NodeID, "failed", ne.ExecutionTime)

	e.emitUpdate(fctx, updatePayload{
		typ:      string(emit.NodeFailed),
		nodeID:   node.NodeID,
		nodeType: string(node.Type),
		data:     map[string]any{"error": errMsg},
	})

	return nodeOutcome{success: false, errMsg: errMsg, details: details}
}
