// Package tracing настраивает OpenTelemetry TracerProvider для сервиса.
package tracing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config описывает параметры экспорта трейсов.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint — адрес OTLP gRPC коллектора. Пустой адрес отключает экспорт.
	Endpoint string
	Insecure bool
	// SampleRatio — доля сэмплируемых трейсов (0..1).
	SampleRatio float64
}

// InitTracerProvider создаёт TracerProvider, регистрирует его глобально
// и возвращает функцию остановки.
func InitTracerProvider(ctx context.Context, cfg Config, logger *log.Entry) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	if logger == nil {
		logger = log.WithField("component", "tracing")
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
	)

	options := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}

	if cfg.Endpoint != "" {
		endpoint, insecure, err := parseEndpoint(cfg.Endpoint, cfg.Insecure)
		if err != nil {
			return nil, nil, err
		}
		exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if insecure {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		options = append(options, sdktrace.WithBatcher(exporter))
		logger.WithFields(log.Fields{
			"endpoint": endpoint,
			"insecure": insecure,
		}).Info("tracing export enabled")
	} else {
		logger.Info("tracing endpoint is not set, spans are not exported")
	}

	tp := sdktrace.NewTracerProvider(options...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, tp.Shutdown, nil
}

// parseEndpoint принимает host:port или URL вида http(s)://host:port.
// Для URL схема определяет TLS: http означает insecure, https включает TLS.
func parseEndpoint(raw string, insecure bool) (string, bool, error) {
	if !strings.Contains(raw, "://") {
		return raw, insecure, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse otlp endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("otlp endpoint %q has no host", raw)
	}
	switch u.Scheme {
	case "http":
		return u.Host, true, nil
	case "https":
		return u.Host, false, nil
	default:
		return "", false, fmt.Errorf("otlp endpoint %q: unsupported scheme %q", raw, u.Scheme)
	}
}
