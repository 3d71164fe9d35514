package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/api/middleware"
	"github.com/feral-file/chain-estates/internal/api/server"
	"github.com/feral-file/chain-estates/internal/config"
	"github.com/feral-file/chain-estates/internal/ledger"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/metrics"
	"github.com/feral-file/chain-estates/internal/providers/jetstream"
	"github.com/feral-file/chain-estates/internal/ratelimit"
	"github.com/feral-file/chain-estates/internal/relay"
	"github.com/feral-file/chain-estates/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Environment:     cfg.Environment,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Chain Estates API")

	// Open the store selected by database.driver
	dataStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to open store", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.New(registry)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	l, err := ledger.New(dataStore, clock, jsonAdapter, adapter.NewJCS(), ledgerMetrics, ledger.Config{
		PaymentPolicy: cfg.Ledger.PaymentPolicy,
		InstanceID:    cfg.Ledger.InstanceID,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create ledger", zap.Error(err))
	}

	instanceID, err := ledger.InstanceID(ctx, l)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to resolve ledger instance", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Ledger ready",
		zap.String("instance_id", instanceID),
		zap.String("payment_policy", string(cfg.Ledger.PaymentPolicy)),
	)

	srv := server.New(server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
			IdleTTL:           cfg.Server.RateLimit.IdleTTL,
		},
	}, l, clock, registry, ledgerMetrics)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	// Optionally relay committed events from inside the API process
	if cfg.Relay.Enabled {
		publisher, err := jetstream.NewPublisher(ctx, jetstream.Config{
			URL:             cfg.NATS.URL,
			StreamName:      cfg.NATS.StreamName,
			SubjectPrefix:   cfg.NATS.SubjectPrefix,
			MaxReconnects:   cfg.NATS.MaxReconnects,
			ReconnectWait:   cfg.NATS.ReconnectWait,
			ConnectionName:  cfg.NATS.ConnectionName,
			DuplicateWindow: cfg.NATS.DuplicateWindow,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err))
		}

		eventRelay := relay.NewRelay(l, publisher, store.NewCursorStore(dataStore), clock, ledgerMetrics, relay.Config{
			InstanceID:           instanceID,
			CursorKey:            cfg.Relay.CursorKey,
			BatchSize:            cfg.Relay.BatchSize,
			PollInterval:         cfg.Relay.PollInterval,
			RetryInitialInterval: cfg.Relay.RetryInitialInterval,
			MaxRetries:           cfg.Relay.MaxRetries,
		})
		defer eventRelay.Close()

		g.Go(func() error {
			if err := eventRelay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("event relay: %w", err)
			}
			return nil
		})
		logger.InfoCtx(ctx, "Embedded event relay started", zap.String("stream", cfg.NATS.StreamName))
	}

	// Shut the server down once a signal arrives or another component fails
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(err, zap.String("component", "api"))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}

// openStore connects to PostgreSQL or creates an in-memory store
func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
	if cfg.Driver == config.DriverMemory {
		logger.WarnCtx(ctx, "Using in-memory store, state is lost on restart")
		return store.NewMemoryStore(), nil
	}

	opts := store.PGOptions{
		DSN:             cfg.DSN(),
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}
	if cfg.ReadHost != "" {
		opts.ReadDSN = cfg.ReadDSN()
	}

	db, err := store.OpenPG(opts)
	if err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.String("host", cfg.Host),
		zap.Bool("read_replica", opts.ReadDSN != ""),
	)

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			return nil, err
		}
		logger.InfoCtx(ctx, "Database schema migrated")
	}

	return store.NewPGStore(db), nil
}
