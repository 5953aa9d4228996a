package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes Prometheus instrumentation for the Flow Engine,
// ported from graph/metrics.go's PrometheusMetrics and relabeled for
// flow/node executions instead of generic graph steps:
//
//   - flowengine_active_executions (gauge): executions currently in
//     the active set.
//   - flowengine_node_duration_ms (histogram): per-node execution time,
//     labeled by node_id and status (completed/failed).
//   - flowengine_node_retries_total (counter): retry attempts, labeled
//     by node_id and error category.
//   - flowengine_tokens_total / flowengine_cost_usd_total (counters):
//     cumulative LLM usage.
type Metrics struct {
	activeExecutions prometheus.Gauge
	nodeDuration     *prometheus.HistogramVec
	nodeRetries      *prometheus.CounterVec
	tokensTotal      prometheus.Counter
	costTotal        prometheus.Counter
}

// NewMetrics registers the flow engine's metrics with registry. Pass
// nil to use the default global registry, as
// graph.NewPrometheusMetrics does.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	f := promauto.With(registry)

	return &Metrics{
		activeExecutions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "flowengine",
			Name:      "active_executions",
			Help:      "Current number of flow executions in the active set",
		}),
		nodeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowengine",
			Name:      "node_duration_ms",
			Help:      "Node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000, 300000},
		}, []string{"node_id", "status"}),
		nodeRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowengine",
			Name:      "node_retries_total",
			Help:      "Cumulative node retry attempts",
		}, []string{"node_id", "category"}),
		tokensTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "flowengine",
			Name:      "tokens_total",
			Help:      "Cumulative LLM tokens consumed across all executions",
		}),
		costTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "flowengine",
			Name:      "cost_usd_total",
			Help:      "Cumulative estimated LLM cost in USD across all executions",
		}),
	}
}

func (m *Metrics) setActiveExecutions(n int) {
	if m == nil {
		return
	}
	m.activeExecutions.Set(float64(n))
}

func (m *Metrics) recordNodeDuration(nodeID, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodeDuration.WithLabelValues(nodeID, status).Observe(float64(d.Milliseconds()))
}

func (m *Metrics) incrementRetries(nodeID, category string) {
	if m == nil {
		return
	}
	m.nodeRetries.WithLabelValues(nodeID, category).Inc()
}

func (m *Metrics) addUsage(tokens int, cost float64) {
	if m == nil {
		return
	}
	if tokens > 0 {
		m.tokensTotal.Add(float64(tokens))
	}
	if cost > 0 {
		m.costTotal.Add(cost)
	}
}
