package memory

import (
	"context"

	"github.com/vladislavdragonenkov/orderdal/internal/async"
	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

// Асинхронные обёртки запускают синхронные методы в отдельной горутине.

func (r *OrderRepository) GetAllAsync(ctx context.Context) *async.Future[[]domain.Order] {
	return async.Run(ctx, r.GetAll)
}

func (r *OrderRepository) GetAllInfoAsync(ctx context.Context, start, pageSize int) *async.Future[[]domain.OrderInfo] {
	return async.Run(ctx, func(ctx context.Context) ([]domain.OrderInfo, error) {
		return r.GetAllInfo(ctx, start, pageSize)
	})
}

func (r *OrderRepository) GetByIDAsync(ctx context.Context, id int64) *async.Future[domain.Order] {
	return async.Run(ctx, func(ctx context.Context) (domain.Order, error) {
		return r.GetByID(ctx, id)
	})
}

func (r *OrderRepository) GetByCustomerAsync(ctx context.Context, customerID int64) *async.Future[[]domain.Order] {
	return async.Run(ctx, func(ctx context.Context) ([]domain.Order, error) {
		return r.GetByCustomer(ctx, customerID)
	})
}

func (r *OrderRepository) GetByProductAsync(ctx context.Context, productID int64) *async.Future[[]domain.Order] {
	return async.Run(ctx, func(ctx context.Context) ([]domain.Order, error) {
		return r.GetByProduct(ctx, productID)
	})
}

func (r *OrderRepository) InsertAsync(ctx context.Context, order domain.Order) *async.Future[domain.Order] {
	return async.Run(ctx, func(ctx context.Context) (domain.Order, error) {
		return r.Insert(ctx, order)
	})
}

func (r *OrderRepository) UpdateAsync(ctx context.Context, order domain.Order) *async.Future[domain.Order] {
	return async.Run(ctx, func(ctx context.Context) (domain.Order, error) {
		return r.Update(ctx, order)
	})
}

func (r *OrderRepository) DeleteAsync(ctx context.Context, id int64) *async.Future[struct{}] {
	return async.Run(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.Delete(ctx, id)
	})
}

var _ domain.AsyncOrderDataProxy = (*OrderRepository)(nil)
