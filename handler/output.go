package handler

import (
	"context"

	"github.com/sipsyai/flowengine/engine"
	"github.com/sipsyai/flowengine/flow"
)

// outputFieldsKey names the metadata key an "output" node can use to
// select a subset of context.Data to surface as the flow's result,
// instead of the full accumulated data mapping.
const outputFieldsKey = "fields"

// Output is the handler for "output"-typed nodes: the terminal node
// of a flow. It snapshots context.Data (optionally narrowed to
// node.Metadata["fields"]) as its result.
type Output struct{}

func (Output) Execute(_ context.Context, node flow.Node, fctx *engine.Context) (engine.Result, error) {
	fields, _ := node.Metadata[outputFieldsKey].([]any)
	if len(fields) == 0 {
		return engine.Result{Success: true, Output: fctx.Data}, nil
	}

	snapshot := make(map[string]any, len(fields))
	for _, f := range fields {
		name, ok := f.(string)
		if !ok {
			continue
		}
		if v, ok := fctx.Data[name]; ok {
			snapshot[name] = v
		}
	}
	return engine.Result{Success: true, Output: snapshot}, nil
}
