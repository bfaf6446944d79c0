// Package outbox публикует события об изменениях заказов из outbox во внешний брокер.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// Config задаёт параметры relay. Нулевые значения заменяются значениями по умолчанию.
type Config struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Relay периодически забирает pending-сообщения и публикует их.
// После исчерпания попыток сообщение помечается failed и, если задан, уходит в DLQ.
type Relay struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher
	logger    *log.Entry
	metrics   *relayMetrics
	cfg       Config
}

// NewRelay создаёт relay. dlq может быть nil.
func NewRelay(repo domain.OutboxRepository, publisher, dlq domain.OutboxPublisher, cfg Config, registerer prometheus.Registerer, logger *log.Entry) *Relay {
	if logger == nil {
		logger = log.WithField("component", "outbox-relay")
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryBaseDelay < 0 {
		cfg.RetryBaseDelay = 0
	}

	return &Relay{
		repo:      repo,
		publisher: publisher,
		dlq:       dlq,
		logger:    logger,
		metrics:   newRelayMetrics(registerer),
		cfg:       cfg,
	}
}

// Run опрашивает outbox до отмены ctx.
func (r *Relay) Run(ctx context.Context) {
	if r.repo == nil || r.publisher == nil {
		r.logger.Warn("outbox relay is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.logger.WithField("poll_interval", r.cfg.PollInterval).Info("outbox relay started")
	r.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			r.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один цикл: публикует батч и обновляет метрики backlog.
// Возвращает число успешно опубликованных сообщений.
func (r *Relay) ProcessOnce(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	defer r.refreshBacklog()

	messages, err := r.repo.PullPending(r.cfg.BatchSize)
	if err != nil {
		r.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}

		entry := r.logger.WithFields(log.Fields{
			"outbox_id":  msg.ID,
			"event_type": msg.EventType,
		})

		if err := r.publishWithRetry(ctx, msg); err != nil {
			if ctx.Err() != nil {
				// остановка во время ретраев: сообщение остаётся pending до следующего запуска
				entry.WithError(err).Info("outbox publish interrupted by shutdown")
				break
			}
			entry.WithError(err).Error("outbox publish failed after retries")
			r.metrics.attempts.WithLabelValues("failed").Inc()
			r.sendToDLQ(msg, err, entry)
			if markErr := r.repo.MarkFailed(msg.ID); markErr != nil {
				entry.WithError(markErr).Warn("failed to mark outbox message as failed")
			}
			continue
		}

		if err := r.repo.MarkSent(msg.ID); err != nil {
			entry.WithError(err).Warn("failed to mark outbox message as sent")
			continue
		}
		sent++
	}
	return sent
}

func (r *Relay) publishWithRetry(ctx context.Context, msg domain.OutboxMessage) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		lastErr = r.publisher.Publish(msg)
		if lastErr == nil {
			r.metrics.attempts.WithLabelValues("sent").Inc()
			return nil
		}
		r.metrics.attempts.WithLabelValues("retry_error").Inc()

		if attempt == r.cfg.MaxAttempts {
			break
		}
		if delay := backoff(r.cfg.RetryBaseDelay, attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", domain.ErrOutboxPublish, r.cfg.MaxAttempts, lastErr)
}

func (r *Relay) sendToDLQ(msg domain.OutboxMessage, publishErr error, entry *log.Entry) {
	if r.dlq == nil {
		return
	}

	original := json.RawMessage(msg.Payload)
	if len(original) == 0 {
		original = json.RawMessage("null")
	}
	payload, err := json.Marshal(map[string]any{
		"outbox_id":      msg.ID,
		"aggregate_type": msg.AggregateType,
		"aggregate_id":   msg.AggregateID,
		"event_type":     msg.EventType,
		"payload":        original,
		"publish_error":  publishErr.Error(),
		"failed_at":      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		entry.WithError(err).Warn("failed to marshal dlq payload")
		return
	}

	dead := msg
	dead.Payload = payload
	if err := r.dlq.Publish(dead); err != nil {
		entry.WithError(err).Warn("failed to publish to dlq")
		r.metrics.attempts.WithLabelValues("dlq_failed").Inc()
	}
}

func (r *Relay) refreshBacklog() {
	stats, err := r.repo.Stats()
	if err != nil {
		r.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	r.metrics.pending.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		r.metrics.oldestAge.Set(0)
		return
	}
	r.metrics.oldestAge.Set(max(time.Since(stats.OldestPendingAt).Seconds(), 0))
}

// backoff возвращает base * 2^(attempt-1) с защитой от переполнения.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	const maxDuration = time.Duration(1<<63 - 1)
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}
