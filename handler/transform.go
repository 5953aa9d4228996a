package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sipsyai/flowengine/engine"
	"github.com/sipsyai/flowengine/flow"
)

// TransformFunc is a pure function over the accumulated execution
// data, the supplemented node type this module adds beyond spec.md's
// named {input, agent, output} variants — a home for the teacher's
// NodeFunc[S]-style "plain function as a node" idea, adapted from
// typed state to the dynamic map[string]any this module's data model
// uses.
type TransformFunc func(data map[string]any, args map[string]any) (map[string]any, error)

var (
	transformsMu sync.RWMutex
	transforms   = map[string]TransformFunc{
		"pick":    transformPick,
		"rename":  transformRename,
		"toUpper": transformToUpper,
	}
)

// RegisterTransform adds (or overrides) a named transform, callable
// from a "transform" node's metadata.transform field.
func RegisterTransform(name string, fn TransformFunc) {
	transformsMu.Lock()
	defer transformsMu.Unlock()
	transforms[name] = fn
}

func lookupTransform(name string) (TransformFunc, bool) {
	transformsMu.RLock()
	defer transformsMu.RUnlock()
	fn, ok := transforms[name]
	return fn, ok
}

// Transform is the handler for "transform"-typed nodes: it applies a
// named pure function to context.Data and merges the result back in.
// node.Metadata must set "transform" (string) and may set "args"
// (map[string]any) passed through to the function.
type Transform struct{}

func (Transform) Execute(_ context.Context, node flow.Node, fctx *engine.Context) (engine.Result, error) {
	name, _ := node.Metadata["transform"].(string)
	if name == "" {
		return engine.Result{Success: false, Error: "transform node missing metadata.transform"}, nil
	}
	fn, ok := lookupTransform(name)
	if !ok {
		return engine.Result{Success: false, Error: fmt.Sprintf("unknown transform: %s", name)}, nil
	}
	args, _ := node.Metadata["args"].(map[string]any)

	out, err := fn(fctx.Data, args)
	if err != nil {
		return engine.Result{Success: false, Error: err.Error()}, nil
	}
	return engine.Result{Success: true, Output: out, Data: out}, nil
}

func transformPick(data map[string]any, args map[string]any) (map[string]any, error) {
	fieldsAny, _ := args["fields"].([]any)
	result := make(map[string]any, len(fieldsAny))
	for _, f := range fieldsAny {
		name, ok := f.(string)
		if !ok {
			continue
		}
		if v, ok := data[name]; ok {
			result[name] = v
		}
	}
	return result, nil
}

func transformRename(data map[string]any, args map[string]any) (map[string]any, error) {
	mapping, _ := args["mapping"].(map[string]any)
	result := make(map[string]any, len(data))
	for k, v := range data {
		result[k] = v
	}
	for from, toAny := range mapping {
		to, ok := toAny.(string)
		if !ok {
			continue
		}
		if v, ok := result[from]; ok {
			delete(result, from)
			result[to] = v
		}
	}
	return result, nil
}

func transformToUpper(data map[string]any, args map[string]any) (map[string]any, error) {
	field, _ := args["field"].(string)
	if field == "" {
		return nil, fmt.Errorf("toUpper transform requires args.field")
	}
	s, ok := data[field].(string)
	if !ok {
		return nil, fmt.Errorf("toUpper transform: field %q is not a string", field)
	}
	return map[string]any{field: strings.ToUpper(s)}, nil
}
