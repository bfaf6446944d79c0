package domain

// Customer — клиент, которому принадлежат заказы.
type Customer struct {
	ID   int64
	Name string
}
