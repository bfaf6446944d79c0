package domain

import "errors"

var (
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCustomerNotFound возвращается, если клиент не найден.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrOrderItemNotFound возвращается, если позиция заказа не найдена.
	ErrOrderItemNotFound = errors.New("order item not found")
	// ErrUnknownOrderStatus — у позиции статус, для которого нет состояния.
	ErrUnknownOrderStatus = errors.New("unknown order status")
	// ErrOutboxRecordNotFound — запись outbox с таким ID отсутствует.
	ErrOutboxRecordNotFound = errors.New("outbox record not found")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrBrokenReference — строка ссылается на отсутствующую запись соседней таблицы.
	ErrBrokenReference = errors.New("broken reference")
)

// IsNotFound проверяет, относится ли ошибка к отсутствующей записи.
// Битая ссылка внутри read-модели сюда не относится: запрошенные данные есть, но несогласованы.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrBrokenReference) {
		return false
	}
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrOrderItemNotFound)
}
