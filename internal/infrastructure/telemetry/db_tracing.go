package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include query variables in spans (dev only)
	SlowQueryThresh time.Duration // default: 200ms
	DBName          string
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// RegisterDBTracing installs otelgorm on db plus callbacks that annotate
// query spans with row counts and slow-query events.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{}
	if cfg.DBName != "" {
		opts = append(opts, otelgorm.WithDBName(cfg.DBName))
	}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := &queryAnnotator{slowQueryThresh: cfg.SlowQueryThresh}
	if err := cb.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

type queryAnnotator struct {
	slowQueryThresh time.Duration
}

type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// register hooks around every processor. The after hooks run before
// otelgorm's own after hooks, which end the span.
func (c *queryAnnotator) register(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		callback gormRegister
		hook     func(*gorm.DB)
		name     string
	}{
		{cb.Create().Before("gorm:create"), c.before, "before_create"},
		{cb.Create().After("gorm:create").Before("otel:after:create"), c.after, "after_create"},
		{cb.Query().Before("gorm:query"), c.before, "before_query"},
		{cb.Query().After("gorm:query").Before("otel:after:select"), c.after, "after_query"},
		{cb.Update().Before("gorm:update"), c.before, "before_update"},
		{cb.Update().After("gorm:update").Before("otel:after:update"), c.after, "after_update"},
		{cb.Delete().Before("gorm:delete"), c.before, "before_delete"},
		{cb.Delete().After("gorm:delete").Before("otel:after:delete"), c.after, "after_delete"},
		{cb.Row().Before("gorm:row"), c.before, "before_row"},
		{cb.Row().After("gorm:row").Before("otel:after:row"), c.after, "after_row"},
		{cb.Raw().Before("gorm:raw"), c.before, "before_raw"},
		{cb.Raw().After("gorm:raw").Before("otel:after:raw"), c.after, "after_raw"},
	}
	for _, h := range hooks {
		if err := h.callback.Register("otel_timing:"+h.name, h.hook); err != nil {
			return err
		}
	}
	return nil
}

func (c *queryAnnotator) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (c *queryAnnotator) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > c.slowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("threshold_ms", c.slowQueryThresh.Milliseconds()),
			))
		}
	}
}
