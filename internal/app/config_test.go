package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, ":50051", cfg.GRPCAddr)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, log.InfoLevel, cfg.Level())
	require.False(t, cfg.ChangeFeed.Enabled)
	require.Equal(t, "orderdal.order.changes", cfg.ChangeFeed.Topic)
	require.Positive(t, cfg.ChangeFeed.PollInterval)
	require.Positive(t, cfg.ChangeFeed.BatchSize)
	require.Positive(t, cfg.ChangeFeed.MaxAttempts)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	cfg, err := LoadConfig(envFrom(map[string]string{
		EnvGRPCAddr:           ":6000",
		EnvHTTPAddr:           ":6001",
		EnvLogLevel:           "debug",
		EnvKafkaBrokers:       "kafka-1:9092, kafka-2:9092,",
		EnvOutboxPollInterval: "250ms",
		EnvOTLPEndpoint:       "otel-collector:4317",
		EnvTraceSampleRatio:   "0.25",
	}))
	require.NoError(t, err)

	require.Equal(t, ":6000", cfg.GRPCAddr)
	require.Equal(t, ":6001", cfg.HTTPAddr)
	require.Equal(t, log.DebugLevel, cfg.Level())
	require.True(t, cfg.ChangeFeed.Enabled)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.ChangeFeed.KafkaBrokers)
	require.Equal(t, 250*time.Millisecond, cfg.ChangeFeed.PollInterval)
	require.Equal(t, "otel-collector:4317", cfg.Tracing.Endpoint)
	require.InDelta(t, 0.25, cfg.Tracing.SampleRatio, 1e-9)
}

func TestLoadConfig_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orderdal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grpc_addr: ":7000"
log_level: warn
fixtures_path: /srv/fixtures.yaml
change_feed:
  enabled: true
  topic: custom.changes
  poll_interval: 2s
  max_age: 1m
tracing:
  sample_ratio: 0.5
`), 0o600))

	cfg, err := LoadConfig(envFrom(map[string]string{
		EnvConfigPath: path,
		EnvGRPCAddr:   ":7100",
	}))
	require.NoError(t, err)

	require.Equal(t, ":7100", cfg.GRPCAddr)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, log.WarnLevel, cfg.Level())
	require.Equal(t, "/srv/fixtures.yaml", cfg.FixturesPath)
	require.True(t, cfg.ChangeFeed.Enabled)
	require.Equal(t, "custom.changes", cfg.ChangeFeed.Topic)
	require.Equal(t, 2*time.Second, cfg.ChangeFeed.PollInterval)
	require.Equal(t, time.Minute, cfg.ChangeFeed.MaxAge)
	require.Equal(t, 100, cfg.ChangeFeed.BatchSize)
	require.InDelta(t, 0.5, cfg.Tracing.SampleRatio, 1e-9)
}

func TestLoadConfig_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing file", env: map[string]string{EnvConfigPath: filepath.Join(t.TempDir(), "absent.yaml")}},
		{name: "bad poll interval", env: map[string]string{EnvOutboxPollInterval: "soon"}},
		{name: "bad sample ratio", env: map[string]string{EnvTraceSampleRatio: "2"}},
		{name: "bad log level", env: map[string]string{EnvLogLevel: "loud"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(envFrom(tc.env))
			require.Error(t, err)
		})
	}
}

func TestConfig_LevelFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "nonsense"
	require.Equal(t, log.InfoLevel, cfg.Level())
}

func TestConfig_ValidateRetention(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, time.Hour, cfg.ChangeFeed.Retention)

	cfg.ChangeFeed.Enabled = true
	cfg.ChangeFeed.Retention = -time.Minute
	require.ErrorContains(t, cfg.Validate(), "change_feed.retention")
}
