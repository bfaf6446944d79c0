// Package instrumented оборачивает репозитории метриками Prometheus и трейсами OpenTelemetry.
package instrumented

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
	"github.com/vladislavdragonenkov/orderdal/internal/metrics"
)

const tracerName = "github.com/vladislavdragonenkov/orderdal/internal/storage/instrumented"

// OrderRepository — декоратор OrderDataProxy.
type OrderRepository struct {
	next    domain.OrderDataProxy
	metrics *metrics.RepositoryMetrics
	tracer  trace.Tracer
}

// NewOrderRepository оборачивает next. Метрики и провайдер трейсов обязательны.
func NewOrderRepository(next domain.OrderDataProxy, m *metrics.RepositoryMetrics, tp trace.TracerProvider) *OrderRepository {
	return &OrderRepository{
		next:    next,
		metrics: m,
		tracer:  tp.Tracer(tracerName),
	}
}

func (r *OrderRepository) start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append(attrs, attribute.String("db.operation", operation))...),
	)
	started := time.Now()

	return ctx, func(err error) {
		result := metrics.ResultOK
		switch {
		case err == nil:
		case domain.IsNotFound(err):
			result = metrics.ResultNotFound
			span.SetStatus(codes.Error, err.Error())
		default:
			result = metrics.ResultError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		r.metrics.RecordOperation(operation, result, time.Since(started))
		span.End()
	}
}

func (r *OrderRepository) GetAll(ctx context.Context) ([]domain.Order, error) {
	ctx, done := r.start(ctx, "get_all")
	orders, err := r.next.GetAll(ctx)
	if err == nil {
		r.metrics.RecordRows("get_all", len(orders))
	}
	done(err)
	return orders, err
}

func (r *OrderRepository) GetAllInfo(ctx context.Context, start, pageSize int) ([]domain.OrderInfo, error) {
	ctx, done := r.start(ctx, "get_all_info",
		attribute.Int("page.start", start),
		attribute.Int("page.size", pageSize),
	)
	infos, err := r.next.GetAllInfo(ctx, start, pageSize)
	if err == nil {
		r.metrics.RecordRows("get_all_info", len(infos))
	}
	done(err)
	return infos, err
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	ctx, done := r.start(ctx, "get_by_id", attribute.Int64("order.id", id))
	order, err := r.next.GetByID(ctx, id)
	done(err)
	return order, err
}

func (r *OrderRepository) GetByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	ctx, done := r.start(ctx, "get_by_customer", attribute.Int64("customer.id", customerID))
	orders, err := r.next.GetByCustomer(ctx, customerID)
	if err == nil {
		r.metrics.RecordRows("get_by_customer", len(orders))
	}
	done(err)
	return orders, err
}

func (r *OrderRepository) GetByProduct(ctx context.Context, productID int64) ([]domain.Order, error) {
	ctx, done := r.start(ctx, "get_by_product", attribute.Int64("product.id", productID))
	orders, err := r.next.GetByProduct(ctx, productID)
	if err == nil {
		r.metrics.RecordRows("get_by_product", len(orders))
	}
	done(err)
	return orders, err
}

func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, done := r.start(ctx, "insert", attribute.Int64("customer.id", order.CustomerID))
	inserted, err := r.next.Insert(ctx, order)
	done(err)
	return inserted, err
}

func (r *OrderRepository) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, done := r.start(ctx, "update", attribute.Int64("order.id", order.ID))
	updated, err := r.next.Update(ctx, order)
	done(err)
	return updated, err
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	ctx, done := r.start(ctx, "delete", attribute.Int64("order.id", id))
	err := r.next.Delete(ctx, id)
	done(err)
	return err
}

func (r *OrderRepository) SupportsTransactions() bool { return r.next.SupportsTransactions() }

func (r *OrderRepository) IsLatencyProne() bool { return r.next.IsLatencyProne() }

var _ domain.OrderDataProxy = (*OrderRepository)(nil)
