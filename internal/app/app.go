package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/omslab/ordercore/internal/config"
	healthcheck "github.com/omslab/ordercore/internal/health"
	"github.com/omslab/ordercore/internal/metrics"
	"github.com/omslab/ordercore/internal/notify"
	"github.com/omslab/ordercore/internal/service/orders"
	"github.com/omslab/ordercore/internal/tracing"
	httpapi "github.com/omslab/ordercore/internal/transport/http"
	"github.com/omslab/ordercore/internal/version"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// Run поднимает REST API, gRPC health и сервер метрик и блокируется до отмены ctx.
func Run(ctx context.Context, cfg config.Config) error {
	logger := log.WithFields(log.Fields{
		"component":   "app",
		"environment": cfg.Environment,
	})

	tracer, err := tracing.Setup(cfg.Tracing, cfg.Environment, logger.WithField("component", "tracing"))
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer shutdownTracing(tracer, logger)

	storage, err := initStorage(ctx, cfg, logger.WithField("component", "storage"))
	if err != nil {
		return err
	}
	if storage.closeFn != nil {
		defer func() {
			if err := storage.closeFn(); err != nil {
				logger.WithError(err).Warn("failed to close storage")
			}
		}()
	}

	notifier, closeNotifier := initNotifier(cfg, logger)
	defer closeNotifier()

	orderService := orders.NewService(storage.repo, orders.Mapper{}, orders.Config{
		MaxQuantity:     cfg.Order.MaxQuantity,
		DefaultPageSize: cfg.Order.DefaultPageSize,
		MaxPageSize:     cfg.Order.MaxPageSize,
	},
		orders.WithLogger(logger.WithField("component", "order-service")),
		orders.WithNotifier(notifier),
		orders.WithMetrics(metrics.NewOrderMetrics()),
	)

	router := httpapi.NewRouter(orderService, httpapi.Config{
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger.WithField("component", "http"),
		Metrics:        metrics.NewHTTPMetrics(),
	})

	healthHandler := healthcheck.NewHandler(version.GetVersion(), cfg.Environment)
	healthHandler.RegisterChecker("storage", storage.storageChecker)

	grpcServer, healthServer := newGRPCServer(logger)

	apiLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = apiLis.Close()
		return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	apiSrv := &http.Server{Handler: router, ReadHeaderTimeout: readHeaderTimeout}

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("REST API слушает %s", apiLis.Addr())
		if err := apiSrv.Serve(apiLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		if err := grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	if err := notifier.Notify(ctx, notify.MessageApplicationStarted); err != nil {
		logger.WithError(err).Warn("startup notification failed")
	}
	logger.WithField("version", version.GetVersion()).Info("order service started")

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем серверы")
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		shutdownHTTP(apiSrv, logger)
		stopGRPC(grpcServer, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		shutdownHTTP(apiSrv, logger)
		stopGRPC(grpcServer, logger)
		shutdownHTTP(metricsSrv, logger)
		return err
	}
}

// newGRPCServer собирает gRPC-сервер со стандартным health-сервисом и reflection.
func newGRPCServer(logger *log.Entry) (*grpc.Server, *health.Server) {
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

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	grpcMetrics.InitializeMetrics(grpcServer)
	reflection.Register(grpcServer)

	return grpcServer, healthServer
}

// stopGRPC останавливает сервер, не дожидаясь зависших вызовов дольше таймаута.
func stopGRPC(srv *grpc.Server, logger *log.Entry) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		srv.Stop()
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus и health-эндпоинты.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

func shutdownTracing(p *tracing.Provider, logger *log.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("tracing shutdown with error")
	}
}
