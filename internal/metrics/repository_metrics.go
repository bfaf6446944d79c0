package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты операций репозитория для label "result".
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// RepositoryMetrics содержит метрики операций над хранилищем заказов.
type RepositoryMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	// rows — число строк, возвращённых операциями чтения.
	rows *prometheus.HistogramVec
}

// NewRepositoryMetrics регистрирует метрики в DefaultRegisterer.
func NewRepositoryMetrics() *RepositoryMetrics {
	return NewRepositoryMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewRepositoryMetricsWithRegisterer регистрирует метрики в переданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewRepositoryMetricsWithRegisterer(registerer prometheus.Registerer) *RepositoryMetrics {
	return &RepositoryMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderdal_repository_operations_total",
			Help: "Total number of repository operations grouped by operation and result",
		}, []string{"operation", "result"}),
		duration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orderdal_repository_operation_duration_seconds",
			Help:    "Duration of repository operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"operation"}),
		rows: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "orderdal_repository_rows_returned",
			Help:    "Number of rows returned by read operations",
			Buckets: prometheus.ExponentialBuckets(1, 4, 6),
		}, []string{"operation"}),
	}
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOperation фиксирует результат и длительность операции.
func (m *RepositoryMetrics) RecordOperation(operation, result string, duration time.Duration) {
	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRows фиксирует размер выборки операции чтения.
func (m *RepositoryMetrics) RecordRows(operation string, rows int) {
	m.rows.WithLabelValues(operation).Observe(float64(rows))
}
