// Package observability wires OpenTelemetry tracing and metrics.
//
// Tracing:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
//	defer observability.EndSpan(span, err)
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter())
//	pool := worker.New(cfg, log, metrics)
//
// Exporters are installed by Component when tracing.enabled or
// metrics.enabled is set; otherwise the global no-op providers apply.
package observability
