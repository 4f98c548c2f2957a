package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "github.com/huertohogar/storefront/internal/services"

// StockMetrics records stock movements performed by the catalog.
type StockMetrics struct {
	reserved metric.Int64Counter
	released metric.Int64Counter
	rejected metric.Int64Counter
}

// NewStockMetrics registers the stock counters on meter, or the global meter provider when nil.
// Registration failures are logged and leave the affected counter disabled.
func NewStockMetrics(meter metric.Meter, logger *zap.Logger) *StockMetrics {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &StockMetrics{}
	var err error
	if m.reserved, err = meter.Int64Counter("catalog.stock.reserved",
		metric.WithUnit("{unit}"),
		metric.WithDescription("Units reserved from product stock")); err != nil {
		logger.Warn("metrics: unable to register reserved counter", zap.Error(err))
	}
	if m.released, err = meter.Int64Counter("catalog.stock.released",
		metric.WithUnit("{unit}"),
		metric.WithDescription("Units returned to product stock")); err != nil {
		logger.Warn("metrics: unable to register released counter", zap.Error(err))
	}
	if m.rejected, err = meter.Int64Counter("catalog.stock.rejected",
		metric.WithDescription("Reservations refused for insufficient stock")); err != nil {
		logger.Warn("metrics: unable to register rejected counter", zap.Error(err))
	}
	return m
}

// Reserved counts qty units taken from productID.
func (m *StockMetrics) Reserved(ctx context.Context, productID string, qty int) {
	if m == nil || m.reserved == nil {
		return
	}
	m.reserved.Add(ctx, int64(qty), metric.WithAttributes(attribute.String("product_id", productID)))
}

// Released counts qty units returned to productID.
func (m *StockMetrics) Released(ctx context.Context, productID string, qty int) {
	if m == nil || m.released == nil {
		return
	}
	m.released.Add(ctx, int64(qty), metric.WithAttributes(attribute.String("product_id", productID)))
}

// Rejected counts a refused reservation.
func (m *StockMetrics) Rejected(ctx context.Context, productID string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("product_id", productID)))
}
