package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg MetricsConfig, res Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	r, err := res.build()
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(r),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns the service meter from the global provider. Instruments
// created before InitMeter follow the provider once it is installed.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the task lifecycle and HTTP instruments. It implements
// worker.Observer so the pool reports queue activity directly.
type Metrics struct {
	tasksSubmitted  metric.Int64Counter
	tasksFinished   metric.Int64Counter
	tasksRejected   metric.Int64Counter
	queueDepth      metric.Int64Gauge
	queueWait       metric.Float64Histogram
	jobDuration     metric.Float64Histogram
	transcriptions  metric.Int64Counter
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// NewMetrics creates instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.tasksSubmitted, err = meter.Int64Counter("tasks.submitted",
		metric.WithDescription("Tasks accepted onto the worker queue")); err != nil {
		return nil, fmt.Errorf("creating tasks.submitted: %w", err)
	}
	if m.tasksFinished, err = meter.Int64Counter("tasks.finished",
		metric.WithDescription("Tasks resolved, by status")); err != nil {
		return nil, fmt.Errorf("creating tasks.finished: %w", err)
	}
	if m.tasksRejected, err = meter.Int64Counter("tasks.rejected",
		metric.WithDescription("Tasks refused by admission control")); err != nil {
		return nil, fmt.Errorf("creating tasks.rejected: %w", err)
	}
	if m.queueDepth, err = meter.Int64Gauge("worker.queue.depth",
		metric.WithDescription("Jobs waiting in the backlog")); err != nil {
		return nil, fmt.Errorf("creating worker.queue.depth: %w", err)
	}
	if m.queueWait, err = meter.Float64Histogram("worker.queue.wait",
		metric.WithDescription("Time jobs spent queued"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating worker.queue.wait: %w", err)
	}
	if m.jobDuration, err = meter.Float64Histogram("worker.job.duration",
		metric.WithDescription("Job run time"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating worker.job.duration: %w", err)
	}
	if m.transcriptions, err = meter.Int64Counter("transcriptions.total",
		metric.WithDescription("Collaborator calls, by mode and outcome")); err != nil {
		return nil, fmt.Errorf("creating transcriptions.total: %w", err)
	}
	if m.requestTotal, err = meter.Int64Counter("http.requests",
		metric.WithDescription("HTTP requests by route and status")); err != nil {
		return nil, fmt.Errorf("creating http.requests: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("http.request.duration",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating http.request.duration: %w", err)
	}
	return m, nil
}

// JobQueued records the backlog depth after an enqueue.
func (m *Metrics) JobQueued(depth int) {
	ctx := context.Background()
	m.tasksSubmitted.Add(ctx, 1)
	m.queueDepth.Record(ctx, int64(depth))
}

// JobStarted records queue wait time.
func (m *Metrics) JobStarted(_ string, waited time.Duration) {
	m.queueWait.Record(context.Background(), waited.Seconds())
}

// JobFinished records job run time.
func (m *Metrics) JobFinished(_ string, took time.Duration, err error) {
	m.jobDuration.Record(context.Background(), took.Seconds(),
		metric.WithAttributes(attribute.Bool("error", err != nil)))
}

// JobRejected counts admission refusals.
func (m *Metrics) JobRejected(_ string) {
	m.tasksRejected.Add(context.Background(), 1)
}

// TaskFinished counts a resolved task by terminal status.
func (m *Metrics) TaskFinished(ctx context.Context, status string) {
	m.tasksFinished.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

// Transcription counts one collaborator call.
func (m *Metrics) Transcription(ctx context.Context, mode, outcome string) {
	m.transcriptions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
}

// RecordRequest records one HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, took time.Duration) {
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
	m.requestDuration.Record(ctx, took.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}
