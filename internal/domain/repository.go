package domain

import (
	"context"

	"github.com/vladislavdragonenkov/orderdal/internal/async"
)

// DefaultPageSize — размер страницы GetAllInfo, если клиент его не указал.
const DefaultPageSize = 20

// Capabilities описывает свойства источника данных.
type Capabilities interface {
	// SupportsTransactions сообщает, умеет ли источник работать в транзакции.
	SupportsTransactions() bool
	// IsLatencyProne сообщает, стоит ли ожидать заметных задержек на вызовах.
	IsLatencyProne() bool
}

// OrderDataProxy описывает требования к хранилищу заказов.
type OrderDataProxy interface {
	Capabilities

	// GetAll возвращает все заказы.
	GetAll(ctx context.Context) ([]Order, error)
	// GetAllInfo возвращает страницу read-моделей: пропускает start заказов и берёт pageSize.
	GetAllInfo(ctx context.Context, start, pageSize int) ([]OrderInfo, error)
	// GetByID возвращает заказ или ErrOrderNotFound.
	GetByID(ctx context.Context, id int64) (Order, error)
	GetByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	// GetByProduct возвращает заказы, в которых есть позиция с указанным товаром.
	GetByProduct(ctx context.Context, productID int64) ([]Order, error)
	// Insert присваивает заказу новый ID и сохраняет его копию.
	Insert(ctx context.Context, order Order) (Order, error)
	// Update переносит поля заказа в сохранённую запись или возвращает ErrOrderNotFound.
	Update(ctx context.Context, order Order) (Order, error)
	// Delete удаляет заказ или возвращает ErrOrderNotFound.
	Delete(ctx context.Context, id int64) error
}

// AsyncOrderDataProxy — асинхронные обёртки над OrderDataProxy.
type AsyncOrderDataProxy interface {
	GetAllAsync(ctx context.Context) *async.Future[[]Order]
	GetAllInfoAsync(ctx context.Context, start, pageSize int) *async.Future[[]OrderInfo]
	GetByIDAsync(ctx context.Context, id int64) *async.Future[Order]
	GetByCustomerAsync(ctx context.Context, customerID int64) *async.Future[[]Order]
	GetByProductAsync(ctx context.Context, productID int64) *async.Future[[]Order]
	InsertAsync(ctx context.Context, order Order) *async.Future[Order]
	UpdateAsync(ctx context.Context, order Order) *async.Future[Order]
	DeleteAsync(ctx context.Context, id int64) *async.Future[struct{}]
}

// CustomerDataProxy описывает требования к хранилищу клиентов.
type CustomerDataProxy interface {
	GetAll(ctx context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id int64) (Customer, error)
	Insert(ctx context.Context, customer Customer) (Customer, error)
	Update(ctx context.Context, customer Customer) (Customer, error)
	Delete(ctx context.Context, id int64) error
}

// OrderItemDataProxy описывает требования к хранилищу позиций заказа.
type OrderItemDataProxy interface {
	GetAll(ctx context.Context) ([]OrderItem, error)
	GetByID(ctx context.Context, id int64) (OrderItem, error)
	GetByOrder(ctx context.Context, orderID int64) ([]OrderItem, error)
	GetByProduct(ctx context.Context, productID int64) ([]OrderItem, error)
	Insert(ctx context.Context, item OrderItem) (OrderItem, error)
	Update(ctx context.Context, item OrderItem) (OrderItem, error)
	Delete(ctx context.Context, id int64) error
}
