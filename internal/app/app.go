// Package app собирает процесс бэк-офиса: хранилище, сервисы, outbox relay и служебные серверы.
package app

import (
	"context"
	"errors"
	"net"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/backoffice/internal/health"
	"github.com/vladislavdragonenkov/backoffice/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/backoffice/internal/metrics"
	"github.com/vladislavdragonenkov/backoffice/internal/service/outbox"
	"github.com/vladislavdragonenkov/backoffice/internal/version"
)

const grpcStopTimeout = 5 * time.Second

// App: собранный процесс бэк-офиса: хранилище, доменные сервисы и их общие метрики.
type App struct {
	cfg      Config
	logger   *log.Entry
	deps     runtimeDependencies
	services *Services
	metrics  *metrics.BackofficeMetrics
}

// New открывает хранилище и связывает доменные сервисы. Вызывающий обязан вызвать Close.
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.NewBackofficeMetrics()
	return &App{
		cfg:      cfg,
		logger:   logger,
		deps:     deps,
		services: NewServices(deps.repos, cfg, m, logger),
		metrics:  m,
	}, nil
}

// Services возвращает доменные сервисы для встраивающего кода.
func (a *App) Services() *Services { return a.services }

// Repositories возвращает хранилища выбранного драйвера.
func (a *App) Repositories() Repositories { return a.deps.repos }

// Close освобождает хранилище.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.deps.close(a.logger)
}

// Run собирает App и обслуживает его до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx)
}

// Serve запускает outbox relay, gRPC health и служебный HTTP-сервер.
// Блокируется до отмены ctx или падения gRPC-сервера.
func (a *App) Serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	// Kafka опциональна: без брокеров события копятся в outbox.
	kafkaProducer, err := initKafkaProducer(cfg.KafkaBrokers, cfg.KafkaClientID, logger)
	if err != nil {
		kafkaProducer = nil
	}
	defer closeKafka(kafkaProducer, logger)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	startOutboxWorker(workerCtx, cfg, a.deps.repos.Outbox, kafkaProducer, a.metrics, logger)

	grpcMetrics := promgrpc.NewServerMetrics()
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
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

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	grpcMetrics.InitializeMetrics(grpcServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", a.deps.storageChecker)
	healthHandler.RegisterChecker("outbox", healthcheck.NewOutboxBacklogChecker(a.deps.repos.Outbox, cfg.OutboxMaxPending))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, logger)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gRPC сервер слушает %s", lis.Addr())
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем gRPC сервер")
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		stoppedCh := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stoppedCh)
		}()
		select {
		case <-stoppedCh:
		case <-time.After(grpcStopTimeout):
			logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
			grpcServer.Stop()
		}
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

// startOutboxWorker запускает relay outbox → Kafka, если producer доступен.
func startOutboxWorker(ctx context.Context, cfg Config, repo domain.OutboxRepository, producer *kafka.Producer, m *metrics.BackofficeMetrics, logger *log.Entry) {
	if producer == nil {
		logger.Warn("kafka is not configured, outbox relay is disabled")
		return
	}

	worker := outbox.NewWorker(
		repo,
		kafka.NewOutboxPublisher(producer, nil),
		outbox.WithLogger(logger.WithField("layer", "outbox")),
		outbox.WithMetrics(m),
		outbox.WithDLQPublisher(kafka.NewDLQPublisher(producer, kafka.TopicDeadLetterQueue)),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
	go worker.Run(ctx)
	logger.Info("outbox relay started")
}
