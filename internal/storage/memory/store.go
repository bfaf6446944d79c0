package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

// Store держит таблицы заказов, клиентов и позиций.
// Несколько репозиториев над одним Store видят одни и те же данные.
type Store struct {
	orders    *table[domain.Order]
	customers *table[domain.Customer]
	items     *table[domain.OrderItem]
}

// NewStore создаёт изолированное хранилище, заполненное данными fixtures.
func NewStore(f Fixtures) *Store {
	return &Store{
		orders: newTable(
			func(o domain.Order) int64 { return o.ID },
			func(o *domain.Order, id int64) { o.ID = id },
			domain.ErrOrderNotFound,
			f.Orders,
		),
		customers: newTable(
			func(c domain.Customer) int64 { return c.ID },
			func(c *domain.Customer, id int64) { c.ID = id },
			domain.ErrCustomerNotFound,
			f.Customers,
		),
		items: newTable(
			func(i domain.OrderItem) int64 { return i.ID },
			func(i *domain.OrderItem, id int64) { i.ID = id },
			domain.ErrOrderItemNotFound,
			f.OrderItems,
		),
	}
}

var (
	sharedOnce  sync.Once
	sharedStore *Store
)

// Shared возвращает общее для процесса хранилище, заполненное встроенными fixtures
// при первом обращении.
func Shared() *Store {
	sharedOnce.Do(func() {
		f, err := DefaultFixtures(time.Now())
		if err != nil {
			panic("memory: embedded fixtures are invalid: " + err.Error())
		}
		sharedStore = NewStore(f)
	})
	return sharedStore
}

// Counts возвращает количество строк в каждой таблице (для health-check и логов).
func (s *Store) Counts() (orders, customers, items int) {
	return s.orders.count(), s.customers.count(), s.items.count()
}
