// Package app собирает сервис: хранилище, транспорты, ленту изменений и наблюдаемость.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/orderdal/internal/health"
	grpcsvc "github.com/vladislavdragonenkov/orderdal/internal/service/grpc"
	"github.com/vladislavdragonenkov/orderdal/internal/service/httpapi"
	"github.com/vladislavdragonenkov/orderdal/internal/service/outbox"
	"github.com/vladislavdragonenkov/orderdal/internal/tracing"
	"github.com/vladislavdragonenkov/orderdal/internal/version"
)

const serviceName = "order-dal"

// Run поднимает gRPC и HTTP серверы на адресах из cfg и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen http: %w", err)
	}
	return Serve(ctx, cfg, grpcLis, httpLis)
}

// Serve обслуживает запросы на готовых listener'ах. Закрывает их при выходе.
func Serve(ctx context.Context, cfg Config, grpcLis, httpLis net.Listener) error {
	logger := log.WithField("component", "app")
	registerer := prometheus.DefaultRegisterer
	build := version.Get()

	tp, shutdownTracing, err := tracing.InitTracerProvider(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: build.Version,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
	}, logger.WithField("layer", "tracing"))
	if err != nil {
		_ = grpcLis.Close()
		_ = httpLis.Close()
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.WithError(err).Warn("tracer provider shutdown with error")
		}
	}()

	deps, err := NewDependencies(cfg, registerer, tp, logger)
	if err != nil {
		_ = grpcLis.Close()
		_ = httpLis.Close()
		return err
	}

	healthHandler := healthcheck.NewHandler(build.Version)
	healthHandler.RegisterChecker("store", healthcheck.StoreChecker{Store: deps.Store})

	var relayWG sync.WaitGroup
	relayCtx, stopRelay := context.WithCancel(ctx)

	if deps.Outbox != nil {
		healthHandler.RegisterChecker("outbox", healthcheck.OutboxBacklogChecker{
			Outbox:     deps.Outbox,
			MaxPending: cfg.ChangeFeed.MaxPending,
			MaxAge:     cfg.ChangeFeed.MaxAge,
		})

		cleaner := outbox.NewCleaner(deps.Outbox, outbox.CleanupConfig{
			Interval:  cfg.ChangeFeed.CleanupInterval,
			BatchSize: cfg.ChangeFeed.BatchSize,
			Retention: cfg.ChangeFeed.Retention,
		}, registerer, logger.WithField("component", "outbox-cleaner"))
		relayWG.Add(1)
		go func() {
			defer relayWG.Done()
			cleaner.Run(relayCtx)
		}()

		producer, err := initKafkaProducer(cfg.ChangeFeed, logger)
		switch {
		case err != nil:
			// сервис продолжает работать, события копятся в outbox
		case producer == nil:
			logger.Warn("change feed is enabled without kafka brokers, events stay in outbox")
		default:
			defer closeKafka(producer, logger)
			relay := newRelay(cfg.ChangeFeed, deps.Outbox, producer, registerer, logger)
			relayWG.Add(1)
			go func() {
				defer relayWG.Done()
				relay.Run(relayCtx)
			}()
		}
	}
	// relay должен остановиться до закрытия producer
	defer relayWG.Wait()
	defer stopRelay()

	grpcServer, grpcHealth := newGRPCServer(deps, logger)
	httpServer := &http.Server{
		Handler:           newHTTPRouter(deps, tp, healthHandler, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		errCh <- grpcServer.Serve(grpcLis)
	}()
	go func() {
		logger.Infof("HTTP API, метрики и health доступны на %s", httpLis.Addr())
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		runErr = ctx.Err()
	case err := <-errCh:
		if !errors.Is(err, grpc.ErrServerStopped) {
			runErr = err
		}
	}

	grpcHealth.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	stopGRPC(grpcServer, cfg.ShutdownTimeout, logger)
	shutdownHTTP(httpServer, cfg.ShutdownTimeout, logger)
	return runErr
}

func newGRPCServer(deps *Dependencies, logger *log.Entry) (*grpc.Server, *health.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	grpcsvc.RegisterOrderRepositoryServer(server, grpcsvc.NewOrderService(deps.Orders, logger.WithField("layer", "grpc")))
	grpcMetrics.InitializeMetrics(server)
	reflection.Register(server)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcsvc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, healthServer
}

func newHTTPRouter(deps *Dependencies, tp trace.TracerProvider, healthHandler *healthcheck.Handler, logger *log.Entry) *mux.Router {
	router := mux.NewRouter()
	httpapi.NewHandler(deps.Orders, logger.WithField("layer", "http"), tp).Register(router)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.Handle("/healthz", healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/livez", healthcheck.LivenessHandler).Methods(http.MethodGet)
	router.HandleFunc("/readyz", healthHandler.ReadinessHandler).Methods(http.MethodGet)
	return router
}

func stopGRPC(server *grpc.Server, timeout time.Duration, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		server.Stop()
	}
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
