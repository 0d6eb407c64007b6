// Package observability provides OpenTelemetry tracing and metrics setup and a
// Prometheus collector for pipeline node executions.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("eradiate-pp")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx = observability.StartRunSpan(ctx, runID, outputs)
//	defer observability.EndSpan(ctx, err)
//
// Metrics:
//
//	cfg := observability.DefaultMeterConfig("eradiate-pp")
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("eradiate-pp"))
//	metrics.RecordNode(ctx, "brdf", "ok", duration)
//
// Prometheus:
//
//	nodes, err := observability.NewNodeCollector(prometheus.NewRegistry())
//	nodes.Observe("brdf", "ok", duration)
package observability
