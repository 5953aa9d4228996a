package engine

import (
	"context"

	"github.com/sipsyai/flowengine/flow"
)

// DefinitionStore is the external "definition store" collaborator
// (spec.md §6 item 1): fetches immutable Flow definitions by ID.
// Implementations return (nil, nil) for an unknown flow ID; the
// engine turns that into ErrFlowNotFound.
type DefinitionStore interface {
	GetFlow(ctx context.Context, flowID string) (*flow.Flow, error)
}

// ExecutionStore is the external "execution store" collaborator
// (spec.md §6 item 2). Both operations are best-effort from the
// engine's point of view: a Create failure falls back to an in-memory
// record, and an Update failure is logged and swallowed.
type ExecutionStore interface {
	CreateFlowExecution(ctx context.Context, fe *FlowExecution) error
	UpdateFlowExecution(ctx context.Context, fe *FlowExecution) error
}
