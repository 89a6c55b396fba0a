package telemetry

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// SetupConfig groups the configuration of every telemetry signal.
type SetupConfig struct {
	Tracing      Config
	Metrics      MetricsConfig
	Logs         LogsConfig
	Profiler     ProfilerConfig
	SpanProfiles bool
}

// Telemetry holds the providers started by Setup.
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	Metrics  *OperationMetrics
}

// Setup starts the providers in dependency order. On error, everything
// already started is shut down.
func Setup(ctx context.Context, cfg SetupConfig, logger *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{}
	var err error

	fail := func(err error) (*Telemetry, error) {
		_ = t.Shutdown(ctx)
		return nil, err
	}

	if t.Tracer, err = NewTracerProvider(ctx, cfg.Tracing, logger); err != nil {
		return fail(err)
	}
	if t.Meter, err = NewMeterProvider(ctx, cfg.Metrics, logger); err != nil {
		return fail(err)
	}
	if t.Logs, err = NewLoggerProvider(ctx, cfg.Logs, logger); err != nil {
		return fail(err)
	}
	if t.Profiler, err = NewProfiler(cfg.Profiler, logger); err != nil {
		return fail(err)
	}
	if cfg.SpanProfiles && t.Profiler.IsEnabled() {
		t.Tracer.EnableSpanProfiles()
	}
	if t.Metrics, err = NewOperationMetrics(t.Meter.Meter(TracerName)); err != nil {
		return fail(err)
	}
	return t, nil
}

// Shutdown stops every started provider, profiler first.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
