package memory

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

// OrderItemRepository — in-memory реализация OrderItemDataProxy.
type OrderItemRepository struct {
	rows   *table[domain.OrderItem]
	logger *log.Entry
}

// NewOrderItemRepository возвращает репозиторий позиций поверх store.
func NewOrderItemRepository(store *Store, logger *log.Entry) *OrderItemRepository {
	if logger == nil {
		logger = log.WithField("component", "order-item-repository")
	}
	return &OrderItemRepository{rows: store.items, logger: logger}
}

func (r *OrderItemRepository) GetAll(_ context.Context) ([]domain.OrderItem, error) {
	r.logger.Debug("executing order item get all")
	return r.rows.all(), nil
}

func (r *OrderItemRepository) GetByID(_ context.Context, id int64) (domain.OrderItem, error) {
	r.logger.WithField("order_item_id", id).Debug("executing order item get by id")
	return r.rows.find(id)
}

// GetByOrder возвращает позиции заказа в порядке добавления.
func (r *OrderItemRepository) GetByOrder(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	r.logger.WithField("order_id", orderID).Debug("executing order item get by order")
	return r.rows.where(func(i domain.OrderItem) bool { return i.OrderID == orderID }), nil
}

func (r *OrderItemRepository) GetByProduct(_ context.Context, productID int64) ([]domain.OrderItem, error) {
	r.logger.WithField("product_id", productID).Debug("executing order item get by product")
	return r.rows.where(func(i domain.OrderItem) bool { return i.ProductID == productID }), nil
}

func (r *OrderItemRepository) Insert(_ context.Context, item domain.OrderItem) (domain.OrderItem, error) {
	r.logger.WithField("order_id", item.OrderID).Debug("inserting order item")
	return r.rows.insert(item), nil
}

func (r *OrderItemRepository) Update(_ context.Context, item domain.OrderItem) (domain.OrderItem, error) {
	r.logger.WithField("order_item_id", item.ID).Debug("updating order item")
	return r.rows.update(item)
}

func (r *OrderItemRepository) Delete(_ context.Context, id int64) error {
	r.logger.WithField("order_item_id", id).Debug("deleting order item")
	_, err := r.rows.remove(id)
	return err
}

var _ domain.OrderItemDataProxy = (*OrderItemRepository)(nil)
