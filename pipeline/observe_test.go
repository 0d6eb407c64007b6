package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/eradiate-pp/logger"
	"github.com/kbukum/eradiate-pp/observability"
)

type recordingObserver struct {
	started  []string
	finished []string
	failed   []string
	runs     []string
}

func (r *recordingObserver) NodeStarted(ctx context.Context, name string) context.Context {
	r.started = append(r.started, name)
	return ctx
}

func (r *recordingObserver) NodeFinished(_ context.Context, name string, _ time.Duration, err error) {
	r.finished = append(r.finished, name)
	if err != nil {
		r.failed = append(r.failed, name)
	}
}

func (r *recordingObserver) RunStarted(ctx context.Context, runID string, _ []string) context.Context {
	r.runs = append(r.runs, runID)
	return ctx
}

func (r *recordingObserver) RunFinished(context.Context, string, time.Duration, error) {}

func TestObserver_CalledOncePerComputedNode(t *testing.T) {
	rec := &recordingObserver{}
	p := New(WithObserver(rec))
	p.MustAddNode("a", constant(1))
	p.MustAddNode("b", plus("a", 1), DependsOn("a"))
	p.MustAddNode("c", plus("a", 2), DependsOn("a"))
	p.MustAddNode("d", sum("b", "c"), DependsOn("b", "c"))

	if _, err := p.Execute([]string{"d"}, map[string]any{"c": 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rec.started, []string{"a", "b", "d"}) {
		t.Errorf("unexpected computation order %v", rec.started)
	}
	if !reflect.DeepEqual(rec.started, rec.finished) {
		t.Errorf("started %v and finished %v differ", rec.started, rec.finished)
	}
	if len(rec.runs) != 1 || rec.runs[0] == "" {
		t.Errorf("expected one run with an id, got %v", rec.runs)
	}
}

func TestObserver_SeesFailure(t *testing.T) {
	rec := &recordingObserver{}
	p := New(WithObserver(rec))
	p.MustAddNode("bad", func(Inputs) (any, error) { return nil, stderrors.New("boom") })

	if _, err := p.Execute(nil, nil); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(rec.failed, []string{"bad"}) {
		t.Errorf("expected failure to be observed, got %v", rec.failed)
	}
}

func TestExtractSubgraph_CarriesObservers(t *testing.T) {
	rec := &recordingObserver{}
	p := New(WithObserver(rec))
	p.MustAddNode("a", constant(1))
	p.MustAddNode("b", plus("a", 1), DependsOn("a"))

	sub, err := p.ExtractSubgraph([]string{"b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := sub.Execute(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.started) != 2 {
		t.Errorf("expected observer to see subgraph nodes, got %v", rec.started)
	}
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	p := New(WithLogger(logger.Nop()), WithObserver(LoggingObserver(log)))
	p.MustAddNode("a", constant(1))
	p.MustAddNode("b", func(Inputs) (any, error) { return nil, stderrors.New("boom") }, DependsOn("a"))

	if _, err := p.Execute([]string{"b"}, nil); err == nil {
		t.Fatal("expected error")
	}
	out := buf.String()
	if !strings.Contains(out, `"message":"pipeline node completed"`) || !strings.Contains(out, `"node":"a"`) {
		t.Errorf("expected completion log for a, got %s", out)
	}
	if !strings.Contains(out, `"message":"pipeline node failed"`) || !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("expected failure log for b, got %s", out)
	}
	if !strings.Contains(out, `"run_id":`) {
		t.Errorf("expected run id on node logs, got %s", out)
	}
}

func TestTracingObserver(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	p := New(WithObserver(TracingObserver("eradiate")))
	p.MustAddNode("a", constant(1))
	p.MustAddNode("b", plus("a", 1), DependsOn("a"))

	if _, err := p.Execute([]string{"b"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	names := make(map[string]tracetest.SpanStub, len(spans))
	for _, s := range spans {
		names[s.Name] = s
	}
	for _, want := range []string{observability.SpanPipelineExecute, "eradiate.a", "eradiate.b"} {
		if _, ok := names[want]; !ok {
			t.Errorf("missing span %q in %v", want, spans)
		}
	}
	run := names[observability.SpanPipelineExecute]
	node := names["eradiate.b"]
	if node.Parent.SpanID() != run.SpanContext.SpanID() {
		t.Error("node spans should be children of the execution span")
	}
}

func TestMetricsObserver(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := New(WithObserver(MetricsObserver(metrics)))
	p.MustAddNode("a", constant(1))
	p.MustAddNode("b", plus("a", 1), DependsOn("a"))
	if _, err := p.Execute(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	if totals["pipeline.node.total"] != 2 {
		t.Errorf("expected 2 node computations, got %d", totals["pipeline.node.total"])
	}
	if totals["pipeline.run.total"] != 1 {
		t.Errorf("expected 1 execution, got %d", totals["pipeline.run.total"])
	}
}

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewNodeCollector(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := New(WithObserver(PrometheusObserver(collector)))
	p.MustAddNode("a", constant(1))
	p.MustAddNode("b", plus("a", 1), DependsOn("a"))
	p.MustAddNode("c", plus("a", 2), DependsOn("a"))
	if _, err := p.Execute(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := testutil.CollectAndCount(reg, "eradiate_pipeline_node_executions_total"); n != 3 {
		t.Errorf("expected 3 labelled series, got %d", n)
	}
}
