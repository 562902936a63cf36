package tracing

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/omslab/ordercore/internal/config"
	"github.com/omslab/ordercore/internal/version"
)

// TracerName: имя трейсера HTTP-слоя.
const TracerName = "github.com/omslab/ordercore"

// Provider владеет TracerProvider и закрывает его при остановке.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup создаёт TracerProvider и регистрирует его глобально.
// Спаны создаются всегда (traceId попадает в логи и ответы об ошибках),
// в Jaeger они экспортируются только при заданном endpoint.
func Setup(cfg config.TracingConfig, environment string, logger *log.Entry) (*Provider, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", version.GetVersion()),
		attribute.String("deployment.environment", environment),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	if cfg.JaegerEndpoint != "" {
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("create jaeger exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		if logger != nil {
			logger.WithField("endpoint", cfg.JaegerEndpoint).Info("jaeger exporter enabled")
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{tp: tp}, nil
}

// Shutdown сбрасывает буферы экспортёра.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// TraceID возвращает идентификатор трейса из контекста или пустую строку.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
