package domain

import "fmt"

// OrderStatusID — идентификатор статуса позиции заказа.
type OrderStatusID int64

const (
	StatusPending     OrderStatusID = 1
	StatusSubmitted   OrderStatusID = 2
	StatusBackordered OrderStatusID = 3
	StatusShipped     OrderStatusID = 4
)

// OrderState описывает поведение позиции в конкретном статусе.
//
// Precedence задаёт приоритет при вычислении статуса всего заказа:
// заказ получает статус позиции с наибольшим приоритетом.
type OrderState interface {
	ID() OrderStatusID
	Name() string
	Precedence() int
	CanSubmit() bool
	CanShip() bool
	CanEdit() bool
	CanDelete() bool
}

// PendingState — позиция создана, но ещё не отправлена в обработку.
type PendingState struct{}

func (PendingState) ID() OrderStatusID { return StatusPending }
func (PendingState) Name() string      { return "Pending" }
func (PendingState) Precedence() int   { return 3 }
func (PendingState) CanSubmit() bool   { return true }
func (PendingState) CanShip() bool     { return false }
func (PendingState) CanEdit() bool     { return true }
func (PendingState) CanDelete() bool   { return true }

// SubmittedState — позиция отправлена на склад.
type SubmittedState struct{}

func (SubmittedState) ID() OrderStatusID { return StatusSubmitted }
func (SubmittedState) Name() string      { return "Submitted" }
func (SubmittedState) Precedence() int   { return 2 }
func (SubmittedState) CanSubmit() bool   { return false }
func (SubmittedState) CanShip() bool     { return true }
func (SubmittedState) CanEdit() bool     { return false }
func (SubmittedState) CanDelete() bool   { return false }

// BackorderedState — товара нет в наличии, позиция ждёт поставки.
type BackorderedState struct{}

func (BackorderedState) ID() OrderStatusID { return StatusBackordered }
func (BackorderedState) Name() string      { return "Back Ordered" }
func (BackorderedState) Precedence() int   { return 4 }
func (BackorderedState) CanSubmit() bool   { return false }
func (BackorderedState) CanShip() bool     { return true }
func (BackorderedState) CanEdit() bool     { return false }
func (BackorderedState) CanDelete() bool   { return false }

// ShippedState — позиция отгружена.
type ShippedState struct{}

func (ShippedState) ID() OrderStatusID { return StatusShipped }
func (ShippedState) Name() string      { return "Shipped" }
func (ShippedState) Precedence() int   { return 1 }
func (ShippedState) CanSubmit() bool   { return false }
func (ShippedState) CanShip() bool     { return false }
func (ShippedState) CanEdit() bool     { return false }
func (ShippedState) CanDelete() bool   { return false }

var states = map[OrderStatusID]OrderState{
	StatusPending:     PendingState{},
	StatusSubmitted:   SubmittedState{},
	StatusBackordered: BackorderedState{},
	StatusShipped:     ShippedState{},
}

// StateFor возвращает состояние по идентификатору статуса.
func StateFor(id OrderStatusID) (OrderState, error) {
	state, ok := states[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrderStatus, id)
	}
	return state, nil
}

// AggregateState вычисляет статус заказа по его позициям.
// Для пустого списка возвращает nil без ошибки.
func AggregateState(items []OrderItem) (OrderState, error) {
	var current OrderState
	for _, item := range items {
		state, err := item.State()
		if err != nil {
			return nil, fmt.Errorf("order item %d: %w", item.ID, err)
		}
		if current == nil || state.Precedence() > current.Precedence() {
			current = state
		}
	}
	return current, nil
}

// StatusName возвращает имя статуса заказа или пустую строку, если позиций нет.
func StatusName(items []OrderItem) (string, error) {
	state, err := AggregateState(items)
	if err != nil {
		return "", err
	}
	if state == nil {
		return "", nil
	}
	return state.Name(), nil
}
