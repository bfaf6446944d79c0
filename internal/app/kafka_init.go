package app

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdal/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/orderdal/internal/service/outbox"
	"github.com/vladislavdragonenkov/orderdal/internal/storage/memory"
	"github.com/vladislavdragonenkov/orderdal/internal/version"
)

// initKafkaProducer создаёт producer, если заданы брокеры.
// Возвращает nil, nil, когда брокеры не заданы.
func initKafkaProducer(cfg ChangeFeedConfig, logger *log.Entry) (*kafka.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:  cfg.KafkaBrokers,
		ClientID: version.ClientID("relay"),
	}, logger.WithField("layer", "kafka"))
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
	return producer, nil
}

// newRelay связывает outbox с Kafka. DLQ включается, если задан dlq_topic.
func newRelay(cfg ChangeFeedConfig, repo *memory.OutboxRepository, producer *kafka.Producer, registerer prometheus.Registerer, logger *log.Entry) *outbox.Relay {
	var dlq *kafka.OutboxPublisher
	if cfg.DLQTopic != "" {
		dlq = kafka.NewOutboxPublisher(producer, cfg.DLQTopic)
	}

	relayCfg := outbox.Config{
		PollInterval:   cfg.PollInterval,
		BatchSize:      cfg.BatchSize,
		MaxAttempts:    cfg.MaxAttempts,
		RetryBaseDelay: cfg.RetryDelay,
	}
	relayLogger := logger.WithField("layer", "outbox")
	if dlq == nil {
		return outbox.NewRelay(repo, kafka.NewOutboxPublisher(producer, cfg.Topic), nil, relayCfg, registerer, relayLogger)
	}
	return outbox.NewRelay(repo, kafka.NewOutboxPublisher(producer, cfg.Topic), dlq, relayCfg, registerer, relayLogger)
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
