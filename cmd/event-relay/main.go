package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/config"
	"github.com/feral-file/chain-estates/internal/ledger"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/metrics"
	"github.com/feral-file/chain-estates/internal/providers/jetstream"
	"github.com/feral-file/chain-estates/internal/relay"
	"github.com/feral-file/chain-estates/internal/store"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	envPath     = flag.String("env", "config/", "Path to environment files")
	metricsAddr = flag.String("metrics-addr", ":9090", "Address to expose Prometheus metrics on; empty disables it")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadEventRelayConfig(*configFile, *envPath)
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
			"service": "event-relay",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Event Relay")

	// Connect to database
	db, err := store.OpenPG(store.PGOptions{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database", zap.String("host", cfg.Database.Host))

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	relayMetrics := metrics.New(registry)

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	l, err := ledger.New(dataStore, clock, jsonAdapter, adapter.NewJCS(), relayMetrics, ledger.Config{
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

	// Connect to NATS JetStream
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

	// Create relay
	eventRelay := relay.NewRelay(l, publisher, store.NewCursorStore(dataStore), clock, relayMetrics, relay.Config{
		InstanceID:           instanceID,
		CursorKey:            cfg.Relay.CursorKey,
		BatchSize:            cfg.Relay.BatchSize,
		PollInterval:         cfg.Relay.PollInterval,
		RetryInitialInterval: cfg.Relay.RetryInitialInterval,
		MaxRetries:           cfg.Relay.MaxRetries,
	})
	defer eventRelay.Close()
	logger.InfoCtx(ctx, "Event relay created",
		zap.String("instance_id", instanceID),
		zap.String("stream", cfg.NATS.StreamName),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := eventRelay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if *metricsAddr != "" {
		metricsServer := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error(err, zap.String("component", "relay"))
	}

	logger.Info("Event Relay stopped")
}
