package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/ledger"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/messaging"
	"github.com/feral-file/chain-estates/internal/metrics"
	"github.com/feral-file/chain-estates/internal/store"
)

// Config holds the configuration for the event relay
type Config struct {
	InstanceID   string
	CursorKey    string
	BatchSize    int
	PollInterval time.Duration
	// RetryInitialInterval is the first delay between publish attempts of one event
	RetryInitialInterval time.Duration
	// MaxRetries bounds the publish attempts of one event; 0 retries until the context ends
	MaxRetries uint64
}

// Relay defines the interface for the event relay
type Relay interface {
	// Run relays committed events until ctx is done
	Run(ctx context.Context) error
	// Close closes the relay and cleans up resources
	Close()
}

// relay forwards committed ledger events to the message broker in sequence order
type relay struct {
	events    ledger.EventLog
	publisher messaging.Publisher
	cursors   store.CursorStore
	clock     adapter.Clock
	metrics   *metrics.Metrics
	config    Config
}

// NewRelay creates a new event relay
func NewRelay(
	events ledger.EventLog,
	pub messaging.Publisher,
	cursors store.CursorStore,
	clock adapter.Clock,
	m *metrics.Metrics,
	cfg Config,
) Relay {
	if cfg.CursorKey == "" {
		cfg.CursorKey = domain.RELAY_CURSOR_KEY
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = 500 * time.Millisecond
	}

	return &relay{
		events:    events,
		publisher: pub,
		cursors:   cursors,
		clock:     clock,
		metrics:   m,
		config:    cfg,
	}
}

// Run relays committed events. Delivery is at-least-once: the cursor only moves after a batch is published.
func (r *relay) Run(ctx context.Context) error {
	cursor, err := r.cursors.GetEventCursor(ctx, r.config.CursorKey)
	if err != nil {
		return fmt.Errorf("failed to get event cursor: %w", err)
	}

	logger.InfoCtx(ctx, "Starting event relay",
		zap.String("instance_id", r.config.InstanceID),
		zap.Uint64("cursor", cursor))

	for {
		next, more, err := r.relayBatch(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		cursor = next

		if more {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(r.config.PollInterval):
		}
	}
}

// relayBatch publishes the events after cursor and returns the new cursor and whether a full batch was read
func (r *relay) relayBatch(ctx context.Context, cursor uint64) (uint64, bool, error) {
	after := cursor
	events, total, err := r.events.QueryEvents(ctx, ledger.EventQuery{
		After: &after,
		Limit: r.config.BatchSize,
	})
	if err != nil {
		return cursor, false, fmt.Errorf("failed to query events: %w", err)
	}
	if len(events) == 0 {
		r.metrics.ObserveRelay(0, 0)
		return cursor, false, nil
	}

	start := r.clock.Now()
	for _, event := range events {
		msg := messaging.NewEventMessage(r.config.InstanceID, event)
		if err := r.publishWithRetry(ctx, msg); err != nil {
			return cursor, false, fmt.Errorf("failed to publish event %d: %w", event.Sequence, err)
		}
		cursor = event.Sequence
	}

	if err := r.cursors.SetEventCursor(ctx, r.config.CursorKey, cursor); err != nil {
		return cursor, false, fmt.Errorf("failed to save event cursor: %w", err)
	}

	lag := total - uint64(len(events))
	r.metrics.ObserveRelay(len(events), lag)

	logger.DebugCtx(ctx, "Relayed events",
		zap.Int("count", len(events)),
		zap.Uint64("cursor", cursor),
		zap.Uint64("lag", lag),
		zap.Duration("duration", r.clock.Since(start)))

	return cursor, lag > 0, nil
}

// publishWithRetry publishes one message with exponential backoff
func (r *relay) publishWithRetry(ctx context.Context, msg messaging.EventMessage) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.config.RetryInitialInterval
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	var policy backoff.BackOff = backoff.WithContext(b, ctx)
	if r.config.MaxRetries > 0 {
		policy = backoff.WithMaxRetries(policy, r.config.MaxRetries)
	}

	operation := func() error {
		err := r.publisher.PublishEvent(ctx, msg)
		if err != nil && errors.Is(err, context.Canceled) {
			return backoff.Permanent(err)
		}
		return err
	}

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Event publish failed, retrying",
			zap.Error(err),
			zap.Uint64("sequence", msg.Sequence),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, policy, notifyOnError); err != nil {
		return fmt.Errorf("failed after %d attempts: %w", attemptCount+1, err)
	}

	return nil
}

// Close closes the relay and cleans up resources
func (r *relay) Close() {
	r.publisher.Close()
}
