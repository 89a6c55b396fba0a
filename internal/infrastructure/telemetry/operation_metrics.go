package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/storefront/backend/internal/domain/shared"
)

// OperationMetrics counts pipeline operations and storefront business events.
type OperationMetrics struct {
	calls        *Counter
	duration     *Histogram
	ordersTotal  *Counter
	orderAmount  *Histogram
	cacheLookups *Counter
}

// NewOperationMetrics creates the instruments on meter.
func NewOperationMetrics(meter metric.Meter) (*OperationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   OperationMetrics
		err error
	)
	if m.calls, err = NewCounter(meter, "shop_operation_calls_total", "Operations called, by outcome", "{calls}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "shop_operation_duration_seconds",
		Description: "Duration of wrapped operations",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.ordersTotal, err = NewCounter(meter, "shop_orders_created_total", "Orders created", "{orders}"); err != nil {
		return nil, err
	}
	if m.orderAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "shop_order_amount",
		Description: "Total amount of created orders",
		Unit:        "{currency}",
	}); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = NewCounter(meter, "shop_cache_lookups_total", "Result cache lookups, by outcome", "{lookups}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordOperation records one finished operation call.
func (m *OperationMetrics) RecordOperation(ctx context.Context, component, op string, err error, seconds float64) {
	attrs := []attribute.KeyValue{AttrComponent.String(component), AttrOperation.String(op)}
	m.calls.Inc(ctx, append(attrs, AttrOutcome.String(outcome(err)))...)
	m.duration.Record(ctx, seconds, attrs...)
}

// RecordOrderCreated records a created order and its total.
func (m *OperationMetrics) RecordOrderCreated(ctx context.Context, total decimal.Decimal) {
	m.ordersTotal.Inc(ctx)
	m.orderAmount.Record(ctx, total.InexactFloat64())
}

// RecordCacheLookup records a result cache hit or miss.
func (m *OperationMetrics) RecordCacheLookup(ctx context.Context, cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(ctx, AttrCache.String(cache), AttrOutcome.String(result))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

// MetricsError is returned when metrics cannot be set up.
type MetricsError struct {
	Message string
}

func (e *MetricsError) Error() string {
	return e.Message
}

// ErrMeterNil is returned when a nil meter is passed to a constructor.
var ErrMeterNil = &MetricsError{Message: "meter cannot be nil"}
