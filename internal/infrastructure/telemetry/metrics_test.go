package telemetry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

func newTestMetrics(t *testing.T) (*telemetry.OperationMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := telemetry.NewOperationMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumByOutcome(t *testing.T, data metricdata.Aggregation) map[string]int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)

	out := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(telemetry.AttrOutcome)
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestOperationMetrics_RecordOperation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOperation(ctx, "product", shared.OpDetail, nil, 0.002)
	m.RecordOperation(ctx, "product", shared.OpDetail, fmt.Errorf("wrapped: %w", shared.ErrNotFound), 0.001)
	m.RecordOperation(ctx, "product", shared.OpCreate, shared.NewValidationError("required", "name"), 0.001)
	m.RecordOperation(ctx, "product", shared.OpCreate, errors.New("db down"), 0.5)

	data := collect(t, reader)

	assert.Equal(t, map[string]int64{"ok": 1, "not_found": 1, "invalid": 1, "error": 1},
		sumByOutcome(t, data["shop_operation_calls_total"]))

	hist, ok := data["shop_operation_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		op, _ := dp.Attributes.Value(telemetry.AttrOperation)
		assert.Contains(t, []string{shared.OpDetail, shared.OpCreate}, op.AsString())
	}
	assert.Equal(t, uint64(4), count)
}

func TestOperationMetrics_Business(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOrderCreated(ctx, decimal.RequireFromString("31.50"))
	m.RecordCacheLookup(ctx, "products", true)
	m.RecordCacheLookup(ctx, "products", false)
	m.RecordCacheLookup(ctx, "products", false)

	data := collect(t, reader)

	orders := data["shop_orders_created_total"].(metricdata.Sum[int64])
	require.Len(t, orders.DataPoints, 1)
	assert.Equal(t, int64(1), orders.DataPoints[0].Value)

	amount := data["shop_order_amount"].(metricdata.Histogram[float64])
	require.Len(t, amount.DataPoints, 1)
	assert.InDelta(t, 31.5, amount.DataPoints[0].Sum, 0.0001)

	assert.Equal(t, map[string]int64{"hit": 1, "miss": 2}, sumByOutcome(t, data["shop_cache_lookups_total"]))
}

func TestNewOperationMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewOperationMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestCounterAndHistogram(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test")

	c, err := telemetry.NewCounter(meter, "test_counter", "test", "{n}")
	require.NoError(t, err)
	c.Add(context.Background(), 2, attribute.String("k", "v"))
	c.Inc(context.Background(), attribute.String("k", "v"))

	h, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{Name: "test_hist", Unit: "s", Boundaries: []float64{1, 2}})
	require.NoError(t, err)
	h.Record(context.Background(), 1.5)

	data := collect(t, reader)
	assert.Equal(t, int64(3), data["test_counter"].(metricdata.Sum[int64]).DataPoints[0].Value)
	assert.Equal(t, []float64{1, 2}, data["test_hist"].(metricdata.Histogram[float64]).DataPoints[0].Bounds)
}

func TestMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, mp.Meter("noop"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}
