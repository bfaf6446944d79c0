package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
)

// CheckFunc превращает функцию в Checker: ошибка означает unhealthy.
type CheckFunc struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Check выполняет проверку
func (c CheckFunc) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.Fn(ctx)
	check := Check{Name: c.Name, Status: StatusHealthy, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	return check
}

// StoreCounter отдаёт количество строк в таблицах хранилища.
type StoreCounter interface {
	Counts() (orders, customers, items int)
}

// StoreChecker проверяет, что хранилище инициализировано, и пишет размеры таблиц в Message.
type StoreChecker struct {
	Store StoreCounter
}

// Check выполняет проверку
func (c StoreChecker) Check(ctx context.Context) Check {
	var message string
	check := CheckFunc{Name: "store", Fn: func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.Store == nil {
			return errors.New("store is not initialized")
		}
		orders, customers, items := c.Store.Counts()
		message = fmt.Sprintf("orders=%d customers=%d items=%d", orders, customers, items)
		return nil
	}}.Check(ctx)
	if check.Status == StatusHealthy {
		check.Message = message
	}
	return check
}

// OutboxStatsSource отдаёт статистику backlog outbox.
type OutboxStatsSource interface {
	Stats() (domain.OutboxStats, error)
}

// OutboxBacklogChecker переводит сервис в degraded при росте backlog.
// Нулевые пороги отключают соответствующую проверку.
type OutboxBacklogChecker struct {
	Outbox     OutboxStatsSource
	MaxPending int
	MaxAge     time.Duration
	Now        func() time.Time
}

// Check выполняет проверку
func (c OutboxBacklogChecker) Check(_ context.Context) Check {
	start := time.Now()
	check := Check{Name: "outbox", Status: StatusHealthy}

	stats, err := c.Outbox.Stats()
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		check.DurationMs = time.Since(start).Milliseconds()
		return check
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	switch {
	case c.MaxPending > 0 && stats.PendingCount > c.MaxPending:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("pending=%d exceeds %d", stats.PendingCount, c.MaxPending)
	case c.MaxAge > 0 && stats.PendingCount > 0 && now().Sub(stats.OldestPendingAt) > c.MaxAge:
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("oldest pending message is older than %s", c.MaxAge)
	}
	check.DurationMs = time.Since(start).Milliseconds()
	return check
}
