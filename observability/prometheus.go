package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NodeCollector exposes per-node execution counters and latencies in the
// Prometheus exposition format.
type NodeCollector struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewNodeCollector creates the node metrics and registers them on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewNodeCollector(reg prometheus.Registerer) (*NodeCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &NodeCollector{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "eradiate",
				Subsystem: "pipeline",
				Name:      "node_executions_total",
				Help:      "Total number of node computations",
			},
			[]string{"node", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "eradiate",
				Subsystem: "pipeline",
				Name:      "node_duration_seconds",
				Help:      "Node computation duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"node"},
		),
	}

	for _, col := range []prometheus.Collector{c.executions, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Observe records one node computation.
func (c *NodeCollector) Observe(node, status string, d time.Duration) {
	c.executions.WithLabelValues(node, status).Inc()
	c.duration.WithLabelValues(node).Observe(d.Seconds())
}
