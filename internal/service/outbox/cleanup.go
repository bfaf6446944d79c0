package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	defaultCleanupInterval  = 10 * time.Minute
	defaultCleanupBatchSize = 500
	defaultRetention        = time.Hour
)

// ProcessedPurger удаляет обработанные (sent/failed) записи outbox.
type ProcessedPurger interface {
	DeleteProcessed(before time.Time, limit int) (int, error)
}

// CleanupConfig задаёт параметры очистки. Нулевые значения заменяются значениями по умолчанию.
type CleanupConfig struct {
	Interval  time.Duration
	BatchSize int
	// Retention — сколько хранить обработанные записи после последнего изменения.
	Retention time.Duration
}

// Cleaner периодически удаляет обработанные записи outbox старше Retention.
type Cleaner struct {
	repo    ProcessedPurger
	logger  *log.Entry
	cfg     CleanupConfig
	runs    *prometheus.CounterVec
	deleted prometheus.Counter
	now     func() time.Time
}

// NewCleaner создаёт воркер очистки.
func NewCleaner(repo ProcessedPurger, cfg CleanupConfig, registerer prometheus.Registerer, logger *log.Entry) *Cleaner {
	if logger == nil {
		logger = log.WithField("component", "outbox-cleaner")
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultCleanupInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultCleanupBatchSize
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}

	return &Cleaner{
		repo:   repo,
		logger: logger,
		cfg:    cfg,
		runs: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderdal_outbox_cleanup_runs_total",
			Help: "Total number of outbox cleanup runs grouped by result.",
		}, []string{"result"})),
		deleted: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orderdal_outbox_cleanup_deleted_total",
			Help: "Total number of processed outbox records removed by cleanup.",
		})),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (c *Cleaner) Run(ctx context.Context) {
	if c.repo == nil {
		c.logger.Warn("outbox cleaner is disabled: repo is nil")
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	deleted, err := c.DeleteProcessed(ctx, c.now().Add(-c.cfg.Retention))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.runs.WithLabelValues("error").Inc()
		c.logger.WithError(err).Warn("outbox cleanup run failed")
		return
	}

	c.runs.WithLabelValues("ok").Inc()
	if deleted > 0 {
		c.logger.WithField("deleted", deleted).Info("outbox cleanup completed")
	}
}

// DeleteProcessed удаляет записи, обновлённые не позже before, порциями BatchSize.
func (c *Cleaner) DeleteProcessed(ctx context.Context, before time.Time) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		deleted, err := c.repo.DeleteProcessed(before, c.cfg.BatchSize)
		if err != nil {
			return total, err
		}
		total += deleted
		c.deleted.Add(float64(deleted))

		if deleted < c.cfg.BatchSize {
			return total, nil
		}
	}
}
