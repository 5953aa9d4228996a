package engine

import (
	"time"

	"github.com/sipsyai/flowengine/emit"
)

// Options configures an Engine. Functional options (WithX) layer on
// top, the same chainable pattern the teacher exposes via
// graph/options.go's Option/WithMaxConcurrent/WithDefaultNodeTimeout.
type Options struct {
	// DefaultNodeTimeout bounds node execution when a node doesn't set
	// its own Timeout (spec.md §4.D: default 300s / 5 minutes).
	DefaultNodeTimeout time.Duration

	// Emitter receives every update of every execution, alongside the
	// process-wide bus (spec.md §4.E "Event fan-out").
	Emitter emit.Emitter

	// BusCapacity bounds the process-wide update bus's per-subscriber
	// buffer (spec.md §5 "bounded queues with drop-oldest").
	BusCapacity int

	// BackoffSeed seeds the retry jitter source. Fixed in tests for
	// determinism; left 0 (time-seeded) in production.
	BackoffSeed int64

	Metrics *Metrics
}

// Option is a functional option for New.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		DefaultNodeTimeout: 300 * time.Second,
		Emitter:            emit.NullEmitter{},
		BusCapacity:        256,
	}
}

// WithDefaultNodeTimeout overrides the engine-wide node timeout.
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(o *Options) { o.DefaultNodeTimeout = d }
}

// WithEmitter sets the engine-wide update sink that every execution's
// updates are forwarded to (e.g. an SSE writer).
func WithEmitter(e emit.Emitter) Option {
	return func(o *Options) { o.Emitter = e }
}

// WithBusCapacity sets the process-wide update bus's buffer size.
func WithBusCapacity(n int) Option {
	return func(o *Options) { o.BusCapacity = n }
}

// WithBackoffSeed fixes the retry jitter seed, for deterministic
// tests.
func WithBackoffSeed(seed int64) Option {
	return func(o *Options) { o.BackoffSeed = seed }
}

// WithMetrics attaches a Prometheus metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}
