package app

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
	"github.com/vladislavdragonenkov/orderdal/internal/metrics"
	"github.com/vladislavdragonenkov/orderdal/internal/storage/instrumented"
	"github.com/vladislavdragonenkov/orderdal/internal/storage/memory"
)

// Dependencies содержит хранилище и репозитории приложения.
type Dependencies struct {
	Store *memory.Store
	// Repo — репозиторий без декоратора, нужен для асинхронных вызовов.
	Repo *memory.OrderRepository
	// Orders — Repo, обёрнутый метриками и трейсингом. Его используют транспорты.
	Orders domain.OrderDataProxy
	// Outbox равен nil, если лента изменений выключена.
	Outbox *memory.OutboxRepository
}

// NewDependencies создаёт хранилище и репозитории по конфигурации.
func NewDependencies(cfg Config, registerer prometheus.Registerer, tp trace.TracerProvider, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	store, err := openStore(cfg.FixturesPath)
	if err != nil {
		return nil, err
	}

	repoLogger := logger.WithField("layer", "storage")
	options := []memory.OrderOption{
		memory.WithLogger(repoLogger.WithField("repository", "order")),
		memory.WithCustomers(memory.NewCustomerRepository(store, repoLogger.WithField("repository", "customer"))),
		memory.WithOrderItems(memory.NewOrderItemRepository(store, repoLogger.WithField("repository", "order_item"))),
	}

	var outbox *memory.OutboxRepository
	if cfg.ChangeFeed.Enabled {
		outbox = memory.NewOutboxRepository()
		options = append(options, memory.WithOutbox(outbox))
	}

	repo := memory.NewOrderRepository(store, options...)
	orders := instrumented.NewOrderRepository(repo, metrics.NewRepositoryMetricsWithRegisterer(registerer), tp)

	ordersN, customersN, itemsN := store.Counts()
	logger.WithFields(log.Fields{
		"fixtures":    fixturesLabel(cfg.FixturesPath),
		"orders":      ordersN,
		"customers":   customersN,
		"order_items": itemsN,
		"change_feed": cfg.ChangeFeed.Enabled,
	}).Info("storage initialized")

	return &Dependencies{
		Store:  store,
		Repo:   repo,
		Orders: orders,
		Outbox: outbox,
	}, nil
}

// openStore возвращает общее хранилище процесса или хранилище из внешнего файла.
func openStore(path string) (*memory.Store, error) {
	if path == "" {
		return memory.Shared(), nil
	}
	fixtures, err := memory.LoadFixturesFile(path, time.Now())
	if err != nil {
		return nil, fmt.Errorf("load fixtures: %w", err)
	}
	return memory.NewStore(fixtures), nil
}

func fixturesLabel(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
