// Package handler implements the built-in node-type handlers the
// engine dispatches through its Registry (spec.md §6 item 3): input,
// agent, output, and the supplemented transform type.
package handler

import (
	"context"

	"github.com/sipsyai/flowengine/engine"
	"github.com/sipsyai/flowengine/flow"
)

// Input is the handler for "input"-typed nodes: the entry point of a
// flow. It performs no work of its own — the engine has already
// seeded context.Data/Variables from the execution's input — so Input
// just reports success with the accumulated data as its output,
// letting downstream nodes read from context.Variables["input"] or
// the merged context.Data.
type Input struct{}

func (Input) Execute(_ context.Context, _ flow.Node, fctx *engine.Context) (engine.Result, error) {
	return engine.Result{Success: true, Output: fctx.Data}, nil
}
