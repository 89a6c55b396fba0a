package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

func observe(component, name string, rec Recorder, next Handler) Handler {
	return func(ctx context.Context, inv *Invocation) (any, error) {
		ctx, span := telemetry.StartServiceSpan(ctx, component, name,
			telemetry.WithAttribute(telemetry.SpanAttrResultMode, inv.Options.Mode.String()),
		)
		defer span.End()
		ctx = logger.WithOperation(ctx, component+"."+name)

		start := time.Now()
		out, err := next(ctx, inv)
		elapsed := time.Since(start)

		if rec != nil {
			rec.RecordOperation(ctx, component, name, err, elapsed.Seconds())
		}
		if err != nil {
			telemetry.RecordError(span, err)
			logger.L(ctx).Debug("Operation failed",
				zap.Duration("duration", elapsed),
				zap.Error(err),
			)
			return nil, err
		}
		logger.L(ctx).Debug("Operation completed", zap.Duration("duration", elapsed))
		return out, nil
	}
}
