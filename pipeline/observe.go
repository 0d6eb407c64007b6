package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/eradiate-pp/logger"
	"github.com/kbukum/eradiate-pp/observability"
)

// Observer is notified around every node computation. NodeStarted may return
// a derived context which is handed back to NodeFinished.
type Observer interface {
	NodeStarted(ctx context.Context, name string) context.Context
	NodeFinished(ctx context.Context, name string, d time.Duration, err error)
}

// RunObserver is optionally implemented by observers that also track whole
// executions.
type RunObserver interface {
	RunStarted(ctx context.Context, runID string, outputs []string) context.Context
	RunFinished(ctx context.Context, runID string, d time.Duration, err error)
}

const (
	statusOK    = "ok"
	statusError = "error"
)

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}

func (p *Pipeline) nodeStarted(ctx context.Context, name string) context.Context {
	for _, o := range p.observers {
		ctx = o.NodeStarted(ctx, name)
	}
	return ctx
}

func (p *Pipeline) nodeFinished(ctx context.Context, name string, d time.Duration, err error) {
	for i := len(p.observers) - 1; i >= 0; i-- {
		p.observers[i].NodeFinished(ctx, name, d, err)
	}
}

func (p *Pipeline) runStarted(ctx context.Context, runID string, outputs []string) context.Context {
	for _, o := range p.observers {
		if ro, ok := o.(RunObserver); ok {
			ctx = ro.RunStarted(ctx, runID, outputs)
		}
	}
	return ctx
}

func (p *Pipeline) runFinished(ctx context.Context, runID string, d time.Duration, err error) {
	for i := len(p.observers) - 1; i >= 0; i-- {
		if ro, ok := p.observers[i].(RunObserver); ok {
			ro.RunFinished(ctx, runID, d, err)
		}
	}
}

// LoggingObserver logs each node computation with its duration.
// Successful nodes are logged at debug level, failures at error level.
func LoggingObserver(log *logger.Logger) Observer {
	return &loggingObserver{log: log}
}

type loggingObserver struct {
	log *logger.Logger
}

func (o *loggingObserver) NodeStarted(ctx context.Context, _ string) context.Context { return ctx }

func (o *loggingObserver) NodeFinished(ctx context.Context, name string, d time.Duration, err error) {
	fields := logger.Fields(
		logger.FieldNode, name,
		logger.FieldDuration, d.Milliseconds(),
		logger.FieldStatus, status(err),
	)
	log := o.log.WithContext(ctx)
	if err != nil {
		log.Error("pipeline node failed", logger.MergeWithError(fields, err))
		return
	}
	log.Debug("pipeline node completed", fields)
}

// TracingObserver opens an OpenTelemetry span per execution and per node.
// Node spans are named "{prefix}.{node}".
func TracingObserver(prefix string) Observer {
	if prefix == "" {
		prefix = observability.SpanPipelineNode
	}
	return &tracingObserver{prefix: prefix}
}

type tracingObserver struct {
	prefix string
}

func (o *tracingObserver) RunStarted(ctx context.Context, runID string, outputs []string) context.Context {
	return observability.StartRunSpan(ctx, runID, outputs)
}

func (o *tracingObserver) RunFinished(ctx context.Context, _ string, _ time.Duration, err error) {
	observability.EndSpan(ctx, err)
}

func (o *tracingObserver) NodeStarted(ctx context.Context, name string) context.Context {
	return observability.StartNodeSpan(ctx, o.prefix+"."+name, name)
}

func (o *tracingObserver) NodeFinished(ctx context.Context, _ string, d time.Duration, err error) {
	observability.SetSpanAttribute(ctx, observability.AttrDurationMs, d.Milliseconds())
	observability.EndSpan(ctx, err)
}

// MetricsObserver records OpenTelemetry counters and histograms for nodes and
// executions.
func MetricsObserver(m *observability.Metrics) Observer {
	return &metricsObserver{metrics: m}
}

type metricsObserver struct {
	metrics *observability.Metrics
}

func (o *metricsObserver) RunStarted(ctx context.Context, _ string, _ []string) context.Context {
	o.metrics.RecordRunStart(ctx)
	return ctx
}

func (o *metricsObserver) RunFinished(ctx context.Context, _ string, d time.Duration, err error) {
	o.metrics.RecordRunEnd(ctx, status(err), d)
}

func (o *metricsObserver) NodeStarted(ctx context.Context, _ string) context.Context { return ctx }

func (o *metricsObserver) NodeFinished(ctx context.Context, name string, d time.Duration, err error) {
	if err != nil {
		o.metrics.RecordError(ctx, "execute", name)
	}
	o.metrics.RecordNode(ctx, name, status(err), d)
}

// PrometheusObserver feeds node computations into a Prometheus collector.
func PrometheusObserver(c *observability.NodeCollector) Observer {
	return &prometheusObserver{collector: c}
}

type prometheusObserver struct {
	collector *observability.NodeCollector
}

func (o *prometheusObserver) NodeStarted(ctx context.Context, _ string) context.Context { return ctx }

func (o *prometheusObserver) NodeFinished(_ context.Context, name string, d time.Duration, err error) {
	o.collector.Observe(name, status(err), d)
}
