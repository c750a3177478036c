package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/talentqx/crewrisk/internal/application/usecase"
	"github.com/talentqx/crewrisk/internal/domain/policy"
	"github.com/talentqx/crewrisk/internal/domain/port"
	"github.com/talentqx/crewrisk/internal/domain/service"
	badgerstore "github.com/talentqx/crewrisk/internal/infrastructure/badger"
	"github.com/talentqx/crewrisk/internal/infrastructure/config"
	trigger "github.com/talentqx/crewrisk/internal/infrastructure/kafka"
	"github.com/talentqx/crewrisk/internal/infrastructure/memory"
	"github.com/talentqx/crewrisk/internal/infrastructure/messaging"
	pgstore "github.com/talentqx/crewrisk/internal/infrastructure/postgres"
	"github.com/talentqx/crewrisk/internal/infrastructure/telemetry"
	grpcpresentation "github.com/talentqx/crewrisk/internal/presentation/grpc"
	"github.com/talentqx/crewrisk/internal/presentation/rest"
	"github.com/talentqx/crewrisk/pkg/auth"
	"github.com/talentqx/crewrisk/pkg/kafka"
	"github.com/talentqx/crewrisk/pkg/observability"
	pgutil "github.com/talentqx/crewrisk/pkg/postgres"
)

const serviceName = "crewrisk"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("crewrisk failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

// run owns every resource the service opens, so its deferred cleanup runs
// on both clean shutdown and startup failure.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("starting crewrisk",
		"store", cfg.StoreDriver,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"kafka", cfg.Kafka.Enabled(),
	)

	// Initialize tracing.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	// Metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		Registerer:  registry,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	recorder, err := telemetry.NewRecorder(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to register evaluation metrics: %w", err)
	}

	// Policy.
	policies := policy.DefaultSet()
	if cfg.PolicyFile != "" {
		policies, err = policy.LoadFile(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("failed to load risk policy %s: %w", cfg.PolicyFile, err)
		}
		logger.Info("risk policy loaded", "file", cfg.PolicyFile, "contexts", policies.Contexts())
	}

	// Storage.
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	defer closeStore()

	// Wire domain services and use cases.
	evaluateCandidate := usecase.NewEvaluateCandidate(store, policies,
		service.NewTrendAnalyzer(),
		service.NewCorrelationAnalyzer(),
		service.NewRiskBlender(),
		recorder,
		logger,
	)
	recordEngineOutputs := usecase.NewRecordEngineOutputs(store, logger)

	useCases := grpcpresentation.UseCases{
		RecordEngineOutputs: recordEngineOutputs,
		EvaluateCandidate:   evaluateCandidate,
		GetPredictiveRisk:   usecase.NewGetPredictiveRisk(store),
		ExplainCandidate:    usecase.NewExplainCandidate(store, policies, service.NewRationaleBuilder()),
		SimulateWhatIf:      usecase.NewSimulateWhatIf(store, policies, service.NewWhatIfSimulator()),
		GetRiskHistory:      usecase.NewGetRiskHistory(store, policies),
	}

	// gRPC server.
	jwtService, err := newJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	grpcServer, err := grpcpresentation.NewServer(
		grpcpresentation.NewCrewRiskHandler(useCases, logger),
		grpcpresentation.ServerConfig{
			Address:      cfg.GRPCAddress(),
			CertFile:     cfg.Auth.TLSCertFile,
			KeyFile:      cfg.Auth.TLSKeyFile,
			ClientCAFile: cfg.Auth.TLSCAFile,
			Reflection:   cfg.GRPCReflection,
		},
		jwtService,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}

	// Messaging: audit relay and evaluation trigger.
	kafkaCfg := kafka.Config{
		ClientID:      serviceName,
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		TLS:           cfg.Kafka.TLS,
		SASLEnabled:   cfg.Kafka.SASLMechanism != "",
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
	}

	errCh := make(chan error, 3)

	var publisher port.EventPublisher = messaging.NewLogPublisher(logger)
	if cfg.Kafka.Enabled() {
		if err := kafkaCfg.Validate(); err != nil {
			return fmt.Errorf("invalid kafka configuration: %w", err)
		}
		producer, err := kafka.NewProducer(kafkaCfg)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = messaging.NewKafkaPublisher(producer, cfg.Kafka.AuditTopic, logger)
	} else {
		logger.Info("kafka not configured, audit events go to the log")
	}

	relay := usecase.NewRelayAuditEvents(store, publisher, cfg.Kafka.RelayBatch, logger)
	go relay.Run(ctx, cfg.Kafka.RelayInterval)

	if cfg.Kafka.Enabled() {
		handler := trigger.NewTriggerHandler(recordEngineOutputs, evaluateCandidate, logger)
		consumer, err := trigger.NewTriggerConsumer(kafkaCfg, cfg.Kafka.TriggerTopic, handler, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		go superviseConsumer(ctx, consumer.Start, errCh)
	}

	// HTTP server (health checks and metrics).
	healthHandler := rest.NewHealthHandler(serviceName, map[string]rest.Checker{"store": store}, metricsHandler, logger)
	httpMux := http.NewServeMux()
	healthHandler.RegisterRoutes(httpMux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           httpMux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start servers.
	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("crewrisk started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
	)

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		cancel()
	}

	logger.Info("shutting down crewrisk")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("crewrisk stopped")
	return runErr
}

// superviseConsumer runs start until it returns and reports any failure
// other than cancellation on errCh.
func superviseConsumer(ctx context.Context, start func(context.Context) error, errCh chan<- error) {
	if err := start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		errCh <- fmt.Errorf("trigger consumer error: %w", err)
	}
}

// storeBackend is what the service needs from a storage driver.
type storeBackend interface {
	port.EvaluationStore
	rest.Checker
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storeBackend, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pgCfg := pgutil.Config{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Database: cfg.DB.Name,
			SSLMode:  cfg.DB.SSLMode,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,

			ApplicationName:  serviceName,
			StatementTimeout: cfg.DB.StatementTimeout,
		}
		if err := pgstore.Migrate(pgCfg.DSN()); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		defer dbCancel()
		pool, err := pgutil.NewPool(dbCtx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)
		return pgstore.NewStore(pool), pool.Close, nil

	case config.StoreDriverBadger:
		badgerCfg := badgerstore.DefaultConfig(cfg.Badger.Path)
		if cfg.Badger.InMemory {
			badgerCfg = badgerstore.InMemoryConfig()
		}
		badgerCfg.Logger = logger
		db, err := badgerstore.Open(badgerCfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("opened badger store", "path", cfg.Badger.Path, "in_memory", cfg.Badger.InMemory)
		return badgerstore.NewStore(db), func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close badger", "error", err)
			}
		}, nil

	case config.StoreDriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func newJWTService(cfg config.AuthConfig) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience, Secret: cfg.JWTSecret}
	if cfg.JWTPublicKeyFile != "" {
		pem, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = string(pem)
	}
	return auth.NewJWTService(jwtCfg)
}
