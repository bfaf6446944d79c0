package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Переменные окружения, которыми можно переопределить конфигурацию.
const (
	EnvConfigPath         = "ORDERDAL_CONFIG"
	EnvGRPCAddr           = "ORDERDAL_GRPC_ADDR"
	EnvHTTPAddr           = "ORDERDAL_HTTP_ADDR"
	EnvLogLevel           = "ORDERDAL_LOG_LEVEL"
	EnvFixturesPath       = "ORDERDAL_FIXTURES"
	EnvKafkaBrokers       = "KAFKA_BROKERS"
	EnvKafkaTopic         = "ORDERDAL_KAFKA_TOPIC"
	EnvOutboxPollInterval = "ORDERDAL_OUTBOX_POLL_INTERVAL"
	EnvOTLPEndpoint       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvTraceSampleRatio   = "ORDERDAL_TRACE_SAMPLE_RATIO"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	GRPCAddr string `yaml:"grpc_addr"`
	// HTTPAddr обслуживает JSON API, /metrics и health-эндпоинты.
	HTTPAddr        string        `yaml:"http_addr"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// FixturesPath — YAML с начальными данными. Пустой путь означает встроенные данные.
	FixturesPath string `yaml:"fixtures_path"`

	ChangeFeed ChangeFeedConfig `yaml:"change_feed"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// ChangeFeedConfig — публикация изменений заказов через outbox в Kafka.
type ChangeFeedConfig struct {
	// Enabled включает запись событий в outbox. Без брокеров события копятся в памяти.
	Enabled      bool          `yaml:"enabled"`
	KafkaBrokers []string      `yaml:"kafka_brokers"`
	Topic        string        `yaml:"topic"`
	DLQTopic     string        `yaml:"dlq_topic"`
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	// MaxPending и MaxAge задают пороги, после которых health переходит в degraded.
	MaxPending int           `yaml:"max_pending"`
	MaxAge     time.Duration `yaml:"max_age"`
	// Retention — сколько хранить отправленные и упавшие записи outbox.
	Retention       time.Duration `yaml:"retention"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// TracingConfig — экспорт трейсов в OTLP коллектор.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// DefaultConfig возвращает базовые адреса и параметры outbox.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:        ":50051",
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		ChangeFeed: ChangeFeedConfig{
			Topic:           "orderdal.order.changes",
			DLQTopic:        "orderdal.order.dlq",
			PollInterval:    time.Second,
			BatchSize:       100,
			MaxAttempts:     3,
			RetryDelay:      50 * time.Millisecond,
			MaxPending:      1000,
			MaxAge:          5 * time.Minute,
			Retention:       time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Tracing: TracingConfig{
			Insecure:    true,
			SampleRatio: 1,
		},
	}
}

// LoadConfig собирает конфигурацию: значения по умолчанию, затем YAML-файл
// из ORDERDAL_CONFIG (если задан), затем переменные окружения.
func LoadConfig(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := DefaultConfig()
	if path := getenv(EnvConfigPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvGRPCAddr); v != "" {
		cfg.GRPCAddr = v
	}
	if v := getenv(EnvHTTPAddr); v != "" {
		cfg.HTTPAddr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvFixturesPath); v != "" {
		cfg.FixturesPath = v
	}
	if v := getenv(EnvKafkaBrokers); v != "" {
		cfg.ChangeFeed.KafkaBrokers = splitList(v)
		cfg.ChangeFeed.Enabled = true
	}
	if v := getenv(EnvKafkaTopic); v != "" {
		cfg.ChangeFeed.Topic = v
	}
	if v := getenv(EnvOutboxPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOutboxPollInterval, err)
		}
		cfg.ChangeFeed.PollInterval = d
	}
	if v := getenv(EnvOTLPEndpoint); v != "" {
		cfg.Tracing.Endpoint = v
	}
	if v := getenv(EnvTraceSampleRatio); v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTraceSampleRatio, err)
		}
		cfg.Tracing.SampleRatio = ratio
	}
	return nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc_addr is required"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be > 0"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio))
	}
	if c.ChangeFeed.Enabled && c.ChangeFeed.PollInterval <= 0 {
		errs = append(errs, errors.New("change_feed.poll_interval must be > 0"))
	}
	if c.ChangeFeed.Enabled && c.ChangeFeed.Retention < 0 {
		errs = append(errs, errors.New("change_feed.retention must be >= 0"))
	}
	return errors.Join(errs...)
}

// Level возвращает уровень логирования; неизвестное значение даёт info.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
