package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

// OrderOption настраивает OrderRepository.
type OrderOption func(*OrderRepository)

// WithLogger задаёт logger репозитория.
func WithLogger(logger *log.Entry) OrderOption {
	return func(r *OrderRepository) {
		r.logger = logger
	}
}

// WithCustomers подменяет источник клиентов для read-модели.
func WithCustomers(customers domain.CustomerDataProxy) OrderOption {
	return func(r *OrderRepository) {
		r.customers = customers
	}
}

// WithOrderItems подменяет источник позиций заказа.
func WithOrderItems(items domain.OrderItemDataProxy) OrderOption {
	return func(r *OrderRepository) {
		r.items = items
	}
}

// WithOutbox включает запись событий об изменениях заказов в outbox.
func WithOutbox(outbox domain.OutboxRepository) OrderOption {
	return func(r *OrderRepository) {
		r.outbox = outbox
	}
}

// OrderRepository — mock-репозиторий заказов поверх in-memory Store.
//
// Имитирует работу с базой: наружу отдаются только копии строк,
// read-модель собирается из соседних репозиториев клиентов и позиций.
type OrderRepository struct {
	rows      *table[domain.Order]
	customers domain.CustomerDataProxy
	items     domain.OrderItemDataProxy
	outbox    domain.OutboxRepository
	logger    *log.Entry
}

// NewOrderRepository создаёт репозиторий заказов. По умолчанию клиенты и позиции
// читаются из того же store.
func NewOrderRepository(store *Store, options ...OrderOption) *OrderRepository {
	r := &OrderRepository{rows: store.orders}
	for _, option := range options {
		option(r)
	}

	if r.logger == nil {
		r.logger = log.WithField("component", "order-repository")
	}
	if r.customers == nil {
		r.customers = NewCustomerRepository(store, r.logger.WithField("repository", "customer"))
	}
	if r.items == nil {
		r.items = NewOrderItemRepository(store, r.logger.WithField("repository", "order_item"))
	}
	return r
}

// GetAll возвращает копии всех заказов в порядке добавления.
func (r *OrderRepository) GetAll(_ context.Context) ([]domain.Order, error) {
	r.logger.Debug("executing order get all")
	return r.rows.all(), nil
}

// GetAllInfo собирает страницу read-моделей заказов.
// Клиенты и позиции загружаются параллельно из соседних репозиториев.
func (r *OrderRepository) GetAllInfo(ctx context.Context, start, pageSize int) ([]domain.OrderInfo, error) {
	r.logger.WithFields(log.Fields{
		"start":     start,
		"page_size": pageSize,
	}).Debug("executing order get all info")

	orders := page(r.rows.all(), start, pageSize)
	result := make([]domain.OrderInfo, 0, len(orders))
	if len(orders) == 0 {
		return result, nil
	}

	var (
		customers []domain.Customer
		items     []domain.OrderItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if customers, err = r.customers.GetAll(gctx); err != nil {
			return fmt.Errorf("load customers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if items, err = r.items.GetAll(gctx); err != nil {
			return fmt.Errorf("load order items: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	itemsByOrder := make(map[int64][]domain.OrderItem)
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	for _, order := range orders {
		name, ok := names[order.CustomerID]
		if !ok {
			return nil, fmt.Errorf("order %d: %w: %w: %d", order.ID, domain.ErrBrokenReference, domain.ErrCustomerNotFound, order.CustomerID)
		}
		info, err := domain.NewOrderInfo(order, name, itemsByOrder[order.ID])
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", order.ID, err)
		}
		result = append(result, info)
	}

	return result, nil
}

// GetByID возвращает копию заказа или ErrOrderNotFound.
func (r *OrderRepository) GetByID(_ context.Context, id int64) (domain.Order, error) {
	r.logger.WithField("order_id", id).Debug("executing order get by id")
	return r.rows.find(id)
}

// GetByCustomer возвращает заказы клиента.
func (r *OrderRepository) GetByCustomer(_ context.Context, customerID int64) ([]domain.Order, error) {
	r.logger.WithField("customer_id", customerID).Debug("executing order get by customer")
	return r.rows.where(func(o domain.Order) bool { return o.CustomerID == customerID }), nil
}

// GetByProduct возвращает заказы, содержащие товар productID.
func (r *OrderRepository) GetByProduct(ctx context.Context, productID int64) ([]domain.Order, error) {
	r.logger.WithField("product_id", productID).Debug("executing order get by product")

	items, err := r.items.GetByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	orderIDs := make(map[int64]struct{}, len(items))
	for _, item := range items {
		orderIDs[item.OrderID] = struct{}{}
	}

	return r.rows.where(func(o domain.Order) bool {
		_, ok := orderIDs[o.ID]
		return ok
	}), nil
}

// Insert присваивает заказу следующий ID и сохраняет копию.
func (r *OrderRepository) Insert(_ context.Context, order domain.Order) (domain.Order, error) {
	r.logger.Debug("inserting order")
	inserted := r.rows.insert(order)
	r.recordChange(domain.EventOrderInserted, inserted)
	return inserted, nil
}

// Update переносит поля заказа в сохранённую строку.
func (r *OrderRepository) Update(_ context.Context, order domain.Order) (domain.Order, error) {
	r.logger.WithField("order_id", order.ID).Debug("updating order")
	updated, err := r.rows.update(order)
	if err != nil {
		return domain.Order{}, err
	}
	r.recordChange(domain.EventOrderUpdated, updated)
	return updated, nil
}

// Delete удаляет заказ по ID.
func (r *OrderRepository) Delete(_ context.Context, id int64) error {
	r.logger.WithField("order_id", id).Debug("deleting order")
	removed, err := r.rows.remove(id)
	if err != nil {
		return err
	}
	r.recordChange(domain.EventOrderDeleted, removed)
	return nil
}

// SupportsTransactions всегда true: флаг сохранён ради совместимости с реальным
// источником данных, механизма транзакций за ним нет.
func (r *OrderRepository) SupportsTransactions() bool { return true }

// IsLatencyProne всегда false для in-memory хранилища.
func (r *OrderRepository) IsLatencyProne() bool { return false }

type orderChangedPayload struct {
	OrderID    int64     `json:"order_id"`
	CustomerID int64     `json:"customer_id"`
	OrderDate  time.Time `json:"order_date"`
	OccurredAt time.Time `json:"occurred_at"`
}

// recordChange кладёт событие в outbox. Ошибка outbox не отменяет изменение:
// транзакций между таблицей и outbox нет.
func (r *OrderRepository) recordChange(eventType string, order domain.Order) {
	if r.outbox == nil {
		return
	}

	payload, err := json.Marshal(orderChangedPayload{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		OrderDate:  order.OrderDate,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		r.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to marshal order change event")
		return
	}

	if _, err := r.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		r.logger.WithError(err).WithFields(log.Fields{
			"order_id":   order.ID,
			"event_type": eventType,
		}).Warn("failed to enqueue order change event")
	}
}

var _ domain.OrderDataProxy = (*OrderRepository)(nil)
