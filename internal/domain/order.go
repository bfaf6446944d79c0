package domain

import "time"

// Order — строка таблицы заказов.
type Order struct {
	ID         int64
	CustomerID int64
	OrderDate  time.Time
}

// OrderInfo — денормализованная read-модель заказа для списков.
// Собирается из заказа, клиента и позиций заказа.
type OrderInfo struct {
	OrderID         int64
	OrderDate       time.Time
	CustomerName    string
	CustomerID      int64
	TotalMinor      int64
	Status          string
	HasShippedItems bool
}

// NewOrderInfo строит read-модель по заказу, имени клиента и его позициям.
func NewOrderInfo(order Order, customerName string, items []OrderItem) (OrderInfo, error) {
	status, err := StatusName(items)
	if err != nil {
		return OrderInfo{}, err
	}

	return OrderInfo{
		OrderID:         order.ID,
		OrderDate:       order.OrderDate,
		CustomerName:    customerName,
		CustomerID:      order.CustomerID,
		TotalMinor:      TotalMinor(items),
		Status:          status,
		HasShippedItems: HasShippedItems(items),
	}, nil
}
