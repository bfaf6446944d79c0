package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// ReplayConfig задаёт параметры повторной публикации из DLQ.
type ReplayConfig struct {
	SourceTopic string
	TargetTopic string
	// Limit ограничивает число просмотренных сообщений по всем партициям.
	Limit int
	// Execute=false означает dry-run: кандидаты только логируются.
	Execute     bool
	FromNewest  bool
	IdleTimeout time.Duration
}

// ReplayStats — итог прохода по DLQ.
type ReplayStats struct {
	Processed int
	Replayed  int
	Skipped   int
}

// OffsetSource отдаёт партиции и границы offset'ов topic'а. Реализуется sarama.Client.
type OffsetSource interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partition int32, time int64) (int64, error)
}

// PartitionStream — поток сообщений одной партиции.
type PartitionStream interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

// PartitionSource открывает чтение партиции с заданного offset'а.
type PartitionSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (PartitionStream, error)
}

type saramaPartitionSource struct {
	consumer sarama.Consumer
}

// NewSaramaPartitionSource адаптирует sarama.Consumer к PartitionSource.
func NewSaramaPartitionSource(consumer sarama.Consumer) PartitionSource {
	return saramaPartitionSource{consumer: consumer}
}

func (s saramaPartitionSource) ConsumePartition(topic string, partition int32, offset int64) (PartitionStream, error) {
	pc, err := s.consumer.ConsumePartition(topic, partition, offset)
	if err != nil {
		return nil, err
	}
	return pc, nil
}

// ReplayMessage — сообщение, готовое к повторной публикации.
type ReplayMessage struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

// Replayer перечитывает DLQ и возвращает события об изменениях заказов в основной topic.
type Replayer struct {
	cfg        ReplayConfig
	offsets    OffsetSource
	partitions PartitionSource
	producer   *Producer
	logger     *log.Entry
	now        func() time.Time
}

// NewReplayer создаёт Replayer. producer нужен только при Execute.
func NewReplayer(cfg ReplayConfig, offsets OffsetSource, partitions PartitionSource, producer *Producer, logger *log.Entry) *Replayer {
	if logger == nil {
		logger = log.WithField("component", "dlq-replay")
	}
	return &Replayer{
		cfg:        cfg,
		offsets:    offsets,
		partitions: partitions,
		producer:   producer,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run обходит партиции DLQ по возрастанию номера, пока не исчерпан Limit.
func (r *Replayer) Run(ctx context.Context) (ReplayStats, error) {
	var total ReplayStats
	if r.offsets == nil || r.partitions == nil {
		return total, errors.New("offset source and partition source are required")
	}
	if r.cfg.Execute && r.producer == nil {
		return total, errors.New("producer is required in execute mode")
	}

	partitions, err := r.offsets.Partitions(r.cfg.SourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", r.cfg.SourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		if total.Processed >= r.cfg.Limit {
			break
		}
		stats, err := r.replayPartition(ctx, partition, r.cfg.Limit-total.Processed)
		total.Processed += stats.Processed
		total.Replayed += stats.Replayed
		total.Skipped += stats.Skipped
		if err != nil {
			return total, err
		}
	}

	r.logger.WithFields(log.Fields{
		"execute":   r.cfg.Execute,
		"processed": total.Processed,
		"replayed":  total.Replayed,
		"skipped":   total.Skipped,
	}).Info("dlq replay finished")
	return total, nil
}

func (r *Replayer) replayPartition(ctx context.Context, partition int32, limit int) (ReplayStats, error) {
	var stats ReplayStats

	oldest, err := r.offsets.GetOffset(r.cfg.SourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return stats, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := r.offsets.GetOffset(r.cfg.SourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return stats, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return stats, nil
	}

	start := oldest
	if r.cfg.FromNewest {
		start = max(newest-int64(limit), oldest)
	}

	stream, err := r.partitions.ConsumePartition(r.cfg.SourceTopic, partition, start)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = stream.Close() }()

	idle := time.NewTimer(r.cfg.IdleTimeout)
	defer idle.Stop()

	for stats.Processed < limit {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-idle.C:
			return stats, nil
		case cerr := <-stream.Errors():
			if cerr != nil {
				return stats, fmt.Errorf("partition %d consumer error: %w", partition, cerr)
			}
		case msg, ok := <-stream.Messages():
			if !ok || msg == nil || msg.Offset >= newest {
				return stats, nil
			}
			idle.Reset(r.cfg.IdleTimeout)

			stats.Processed++
			entry := r.logger.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})

			replay, ok, err := ExtractReplay(msg.Value, r.cfg.TargetTopic, r.now())
			if err != nil || !ok {
				stats.Skipped++
				if err != nil {
					entry.WithError(err).Warn("skip unsupported dlq message")
				}
			} else if r.cfg.Execute {
				if err := r.producer.Send(replay.Topic, replay.Key, replay.Value, replay.Headers); err != nil {
					return stats, fmt.Errorf("publish replay message: %w", err)
				}
				stats.Replayed++
			} else {
				entry.WithFields(log.Fields{"target_topic": replay.Topic, "key": replay.Key}).Info("dlq replay candidate")
				stats.Replayed++
			}

			if msg.Offset+1 >= newest {
				return stats, nil
			}
		}
	}
	return stats, nil
}

// ExtractReplay достаёт исходное событие из DLQ-сообщения и собирает для него новый OrderChange.
// ok=false означает, что сообщение не похоже на DLQ-конверт и его нужно пропустить.
func ExtractReplay(value []byte, targetTopic string, now time.Time) (ReplayMessage, bool, error) {
	change, err := ParseOrderChange(value)
	if err != nil || len(change.Payload) == 0 || string(change.Payload) == "null" {
		return ReplayMessage{}, false, nil
	}

	var dead DeadLetter
	if err := json.Unmarshal(change.Payload, &dead); err != nil {
		return ReplayMessage{}, false, fmt.Errorf("decode dead letter: %w", err)
	}
	if len(dead.Payload) == 0 {
		return ReplayMessage{}, false, errors.New("dead letter does not contain original payload")
	}

	replay := OrderChange{
		ID:            firstNonEmpty(dead.OutboxID, change.ID),
		AggregateType: firstNonEmpty(dead.AggregateType, change.AggregateType),
		AggregateID:   firstNonEmpty(dead.AggregateID, change.AggregateID),
		EventType:     firstNonEmpty(dead.EventType, change.EventType),
		Payload:       dead.Payload,
		PublishedAt:   now,
	}
	encoded, err := json.Marshal(replay)
	if err != nil {
		return ReplayMessage{}, false, fmt.Errorf("encode replay envelope: %w", err)
	}

	key := replay.AggregateID
	if key == "" {
		key = replay.ID
	}
	return ReplayMessage{Topic: targetTopic, Key: key, Value: encoded, Headers: replay.Headers()}, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
