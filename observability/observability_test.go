package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/whisper-srt/logger"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	s, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range s.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_ObserverEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	m.JobQueued(3)
	m.JobQueued(4)
	m.JobStarted("a", 10*time.Millisecond)
	m.JobFinished("a", time.Second, nil)
	m.JobRejected("b")
	m.TaskFinished(context.Background(), "completed")
	m.Transcription(context.Background(), "sync", "ok")
	m.RecordRequest(context.Background(), "GET", "/tasks/:id", 200, time.Millisecond)

	data := collect(t, reader)
	if got := sumOf(t, data["tasks.submitted"]); got != 2 {
		t.Errorf("expected 2 submitted, got %d", got)
	}
	if got := sumOf(t, data["tasks.rejected"]); got != 1 {
		t.Errorf("expected 1 rejected, got %d", got)
	}
	if got := sumOf(t, data["tasks.finished"]); got != 1 {
		t.Errorf("expected 1 finished, got %d", got)
	}
	gauge, ok := data["worker.queue.depth"].(metricdata.Gauge[int64])
	if !ok || len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 4 {
		t.Errorf("expected queue depth gauge 4, got %+v", data["worker.queue.depth"])
	}
	if _, ok := data["worker.job.duration"].(metricdata.Histogram[float64]); !ok {
		t.Errorf("expected job duration histogram, got %T", data["worker.job.duration"])
	}
	if got := sumOf(t, data["http.requests"]); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	m.JobQueued(1)
	m.JobFinished("x", time.Second, errors.New("boom"))
}

func TestStartSpanAndEndSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanTranscribe)
	if TraceID(ctx) == "" {
		t.Error("expected trace id inside span")
	}
	EndSpan(span, errors.New("collaborator down"))

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != SpanTranscribe {
		t.Fatalf("unexpected spans %+v", spans)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected error event on span")
	}
	if TraceID(context.Background()) != "" {
		t.Error("expected empty trace id outside span")
	}
}

func TestSampler(t *testing.T) {
	if got := sampler(0).Description(); got != sdktrace.NeverSample().Description() {
		t.Errorf("rate 0 should never sample, got %s", got)
	}
	if got := sampler(1); got == nil {
		t.Error("expected sampler")
	}
}

func TestConfigDefaults(t *testing.T) {
	tc := TracingConfig{}
	tc.ApplyDefaults()
	if tc.Endpoint != "localhost:4318" || tc.SampleRate != 1.0 {
		t.Errorf("unexpected tracing defaults %+v", tc)
	}
	if err := (&TracingConfig{SampleRate: 2}).Validate(); err == nil {
		t.Error("expected sample rate > 1 to fail")
	}
	mc := MetricsConfig{}
	mc.ApplyDefaults()
	if mc.Interval != 15*time.Second {
		t.Errorf("unexpected metrics interval %v", mc.Interval)
	}
}

func TestComponent_DisabledIsNoop(t *testing.T) {
	c := NewComponent(TracingConfig{}, MetricsConfig{}, Resource{ServiceName: "svc"}, logger.NewNop())
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.tp != nil || c.mp != nil {
		t.Error("disabled telemetry must not install providers")
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestResourceBuild(t *testing.T) {
	r, err := Resource{ServiceName: "whisper-srt", ServiceVersion: "1.2.3", Environment: "test"}.build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	found := false
	for _, kv := range r.Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "whisper-srt" {
			found = true
		}
	}
	if !found {
		t.Error("expected service.name attribute")
	}
}
