package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

// Topics для публикации изменений заказов.
const (
	TopicOrderChanges    = "orderdal.order.changes"
	TopicDeadLetterQueue = "orderdal.order.dlq"
)

// Заголовки сообщений.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOutboxID      = "x-outbox-id"
)

// OrderChange — конверт события об изменении заказа, который уходит в Kafka.
type OrderChange struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// Headers возвращает заголовки Kafka-сообщения для события.
func (c OrderChange) Headers() map[string]string {
	return map[string]string{
		HeaderEventType:     c.EventType,
		HeaderAggregateType: c.AggregateType,
		HeaderOutboxID:      c.ID,
	}
}

// ParseOrderChange разбирает значение сообщения из topic изменений.
func ParseOrderChange(value []byte) (OrderChange, error) {
	var change OrderChange
	if err := json.Unmarshal(value, &change); err != nil {
		return OrderChange{}, fmt.Errorf("failed to unmarshal order change: %w", err)
	}
	return change, nil
}

// DeadLetter — содержимое Payload у сообщений в DLQ: исходное событие и причина сбоя.
type DeadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
	FailedAt      string          `json:"failed_at"`
}
