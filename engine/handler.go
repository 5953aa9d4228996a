package engine

import (
	"context"
	"sync"

	"github.com/sipsyai/flowengine/flow"
)

// Result is what a registered handler returns for one node attempt
// (spec.md §6 "Handler registry").
type Result struct {
	Success           bool
	Output            any
	Data              map[string]any
	TokensUsed        int
	Cost              float64
	Error             string
	ErrorDetails      *HandlerErrorDetails
	ContinueExecution *bool // nil means true
}

// HandlerErrorDetails carries structured diagnostics from a failed
// handler call (e.g. a captured stack trace), mirroring spec.md's
// "Unhandled exception... rendered as a failed result with the
// exception's message and stack as errorDetails".
type HandlerErrorDetails struct {
	Stack   string
	Context map[string]any
}

// Handler is the per-node-type execution unit (spec.md §6). It must
// respect ctx cancellation/deadline — the Node Executor races it
// against a timeout.
type Handler interface {
	Execute(ctx context.Context, node flow.Node, fctx *Context) (Result, error)
}

// HandlerFunc adapts a plain function to the Handler interface, the
// same convenience the teacher's NodeFunc[S] provides for Node[S].
type HandlerFunc func(ctx context.Context, node flow.Node, fctx *Context) (Result, error)

func (f HandlerFunc) Execute(ctx context.Context, node flow.Node, fctx *Context) (Result, error) {
	return f(ctx, node, fctx)
}

// Registry maps a node type string to its handler. Read-heavy after
// startup: registration happens once during wiring, lookups happen
// once per node attempt, so a RWMutex is enough (graph's handler
// registry equivalent has no teacher file to port from directly —
// this is a small map keyed by string, grounded on the handler-
// registry contract of spec.md §4.D/§6 rather than any one teacher
// file).
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a node type to a handler, overwriting any previous
// registration for that type.
func (r *Registry) Register(nodeType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[nodeType] = h
}

// Lookup returns the handler for a node type, if registered.
func (r *Registry) Lookup(nodeType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[nodeType]
	return h, ok
}
