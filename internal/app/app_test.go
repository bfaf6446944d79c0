package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vladislavdragonenkov/orderdal/internal/domain"
	grpcsvc "github.com/vladislavdragonenkov/orderdal/internal/service/grpc"
)

const testFixtures = `
customers:
  - id: 1
    name: Ada Lovelace
orders:
  - id: 1
    customer_id: 1
    placed_months_ago: 2
order_items:
  - id: 1
    order_id: 1
    product_id: 10
    quantity: 2
    price_minor: 500
    status: pending
`

func writeFixtures(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testFixtures), 0o600))
	return path
}

func TestNewDependencies_FromFixturesFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FixturesPath = writeFixtures(t)
	cfg.ChangeFeed.Enabled = true

	deps, err := NewDependencies(cfg, prometheus.NewRegistry(), noop.NewTracerProvider(), nil)
	require.NoError(t, err)
	require.NotNil(t, deps.Outbox)

	ctx := context.Background()
	infos, err := deps.Orders.GetAllInfo(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "Ada Lovelace", infos[0].CustomerName)
	require.Equal(t, int64(1000), infos[0].TotalMinor)

	_, err = deps.Orders.Insert(ctx, domain.Order{CustomerID: 1})
	require.NoError(t, err)

	stats, err := deps.Outbox.Stats()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PendingCount)
}

func TestNewDependencies_MissingFixtures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FixturesPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewDependencies(cfg, prometheus.NewRegistry(), noop.NewTracerProvider(), nil)
	require.Error(t, err)
}

func TestServe_GRPCAndHTTP(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FixturesPath = writeFixtures(t)
	cfg.ShutdownTimeout = time.Second

	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, cfg, grpcLis, httpLis) }()

	baseURL := "http://" + httpLis.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL + "/livez")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(baseURL + "/api/v1/orders/info")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var infos []map[string]any
	require.NoError(t, json.Unmarshal(body, &infos))
	require.Len(t, infos, 1)
	require.Equal(t, "Pending", infos[0]["status"])

	resp, err = http.Get(baseURL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	metricsBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Contains(t, string(metricsBody), "orderdal_repository_operations_total")

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	hc, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcsvc.ServiceName})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, hc.GetStatus())

	order, err := grpcsvc.NewOrderRepositoryClient(conn).GetByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, float64(1), order.GetFields()["customer_id"].GetNumberValue())

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after context cancel")
	}
}
