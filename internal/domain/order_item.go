package domain

import "time"

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	// Quantity — количество единиц товара.
	Quantity int32
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// AmountMinor — сумма позиции (обычно Quantity * PriceMinor).
	AmountMinor int64
	StatusID    OrderStatusID

	SubmittedAt   time.Time
	ShippedAt     time.Time
	BackorderedAt time.Time
}

// State возвращает объект состояния позиции по её StatusID.
func (i OrderItem) State() (OrderState, error) {
	return StateFor(i.StatusID)
}

// TotalMinor суммирует AmountMinor всех позиций.
func TotalMinor(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.AmountMinor
	}
	return total
}

// HasShippedItems сообщает, есть ли среди позиций отгруженные.
// Позиции с неизвестным статусом не считаются отгруженными.
func HasShippedItems(items []OrderItem) bool {
	for _, item := range items {
		state, err := item.State()
		if err != nil {
			continue
		}
		if _, ok := state.(ShippedState); ok {
			return true
		}
	}
	return false
}
