package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/whisper-srt/component"
	"github.com/kbukum/whisper-srt/logger"
)

// Component installs the tracer and meter providers on Start and flushes
// them on Stop. Disabled halves are skipped; the global no-op providers
// stay in place.
type Component struct {
	tracing TracingConfig
	metrics MetricsConfig
	res     Resource
	log     *logger.Logger

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the telemetry component.
func NewComponent(tracing TracingConfig, metrics MetricsConfig, res Resource, log *logger.Logger) *Component {
	tracing.ApplyDefaults()
	metrics.ApplyDefaults()
	return &Component{
		tracing: tracing,
		metrics: metrics,
		res:     res,
		log:     log.WithComponent("telemetry"),
	}
}

// Name returns the component name.
func (c *Component) Name() string { return "telemetry" }

// Start installs the enabled providers.
func (c *Component) Start(ctx context.Context) error {
	if c.tracing.Enabled {
		tp, err := InitTracer(ctx, c.tracing, c.res)
		if err != nil {
			return fmt.Errorf("tracer: %w", err)
		}
		c.tp = tp
		c.log.Info("tracer initialized", logger.Fields(
			"endpoint", c.tracing.Endpoint,
			"sample_rate", c.tracing.SampleRate,
		))
	}
	if c.metrics.Enabled {
		mp, err := InitMeter(ctx, c.metrics, c.res)
		if err != nil {
			return fmt.Errorf("meter: %w", err)
		}
		c.mp = mp
		c.log.Info("meter initialized", logger.Fields(
			"endpoint", c.metrics.Endpoint,
			"interval", c.metrics.Interval.String(),
		))
	}
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health always reports healthy; export failures are retried by the SDK.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name: "Telemetry",
		Type: "otel",
		Details: fmt.Sprintf("tracing=%t metrics=%t endpoint=%s",
			c.tracing.Enabled, c.metrics.Enabled, c.tracing.Endpoint),
	}
}
