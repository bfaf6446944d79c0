package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

// OutboxPublisher публикует сообщения outbox в один Kafka topic.
// Ключом служит идентификатор заказа, поэтому события одного заказа попадают в одну партицию.
type OutboxPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт паблишер. Пустой topic заменяется на TopicOrderChanges.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxPublisher {
	if topic == "" {
		topic = TopicOrderChanges
	}
	return &OutboxPublisher{
		producer: producer,
		topic:    topic,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Publish упаковывает сообщение в OrderChange и отправляет его.
func (p *OutboxPublisher) Publish(msg domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka outbox publisher is not initialized")
	}

	key := msg.AggregateID
	if key == "" {
		key = msg.ID
	}

	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	change := OrderChange{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       payload,
		PublishedAt:   p.now(),
	}
	value, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal order change: %w", err)
	}

	return p.producer.Send(p.topic, key, value, change.Headers())
}

// Topic возвращает topic, в который пишет паблишер.
func (p *OutboxPublisher) Topic() string {
	return p.topic
}

var _ domain.OutboxPublisher = (*OutboxPublisher)(nil)
