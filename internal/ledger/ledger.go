package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/metrics"
	"github.com/feral-file/chain-estates/internal/store"
	"github.com/feral-file/chain-estates/internal/types"
)

// Operation names used in logs and metrics
const (
	OperationRegister = "register"
	OperationList     = "list"
	OperationUnlist   = "unlist"
	OperationBuy      = "buy"
	OperationDeposit  = "deposit"
	OperationFreeze   = "freeze"
)

// Config holds the ledger settings
type Config struct {
	// PaymentPolicy decides which attached payments satisfy a listing price (default exact)
	PaymentPolicy domain.PaymentPolicy
	// InstanceID pins the ledger instance id; empty means generate once and persist it
	InstanceID string
}

// PropertyQuery represents filters for listing properties
type PropertyQuery struct {
	Owner   *string
	ForSale *bool
	Limit   int
	Offset  uint64
	Newest  bool
}

// Ledger is the registry-and-marketplace surface consumed by the API
//
//go:generate mockgen -source=ledger.go -destination=../mocks/ledger.go -package=mocks -mock_names=Ledger=MockLedger
type Ledger interface {
	RegistrationService
	ListingService
	PurchaseService
	EventLog
	AccountService

	// GetProperty returns a property or a not-found error
	GetProperty(ctx context.Context, id uint64) (*domain.Property, error)
	// GetPropertyCount returns the number of registered properties
	GetPropertyCount(ctx context.Context) (uint64, error)
	// ListProperties lists properties with filters and pagination
	ListProperties(ctx context.Context, query PropertyQuery) ([]domain.Property, uint64, error)
	// Info identifies this ledger instance and its current head
	Info(ctx context.Context) (*domain.LedgerInfo, error)
}

type ledger struct {
	RegistrationService
	ListingService
	PurchaseService
	EventLog
	AccountService

	store  store.Store
	config Config

	mu         sync.Mutex
	instanceID string
}

// New wires the ledger services around a store
func New(
	st store.Store,
	clock adapter.Clock,
	json adapter.JSON,
	jcs adapter.JCS,
	m *metrics.Metrics,
	cfg Config,
) (Ledger, error) {
	if cfg.PaymentPolicy == "" {
		cfg.PaymentPolicy = domain.PaymentPolicyExact
	}
	if !domain.IsValidPaymentPolicy(cfg.PaymentPolicy) {
		return nil, fmt.Errorf("unsupported payment policy: %s", cfg.PaymentPolicy)
	}

	return &ledger{
		RegistrationService: NewRegistrationService(st, clock, json, m),
		ListingService:      NewListingService(st, clock, m),
		PurchaseService:     NewPurchaseService(st, clock, json, m, cfg.PaymentPolicy),
		EventLog:            NewEventLog(st, json, store.NewEventSealer(json, jcs)),
		AccountService:      NewAccountService(st, clock, m),
		store:               st,
		config:              cfg,
	}, nil
}

// GetProperty returns a property or a not-found error
func (l *ledger) GetProperty(ctx context.Context, id uint64) (*domain.Property, error) {
	row, err := l.store.GetProperty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if row == nil {
		return nil, domain.Wrapf(domain.ErrPropertyNotFound, "property %d", id)
	}

	property, err := types.ToDomainProperty(*row)
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetPropertyCount returns the number of registered properties
func (l *ledger) GetPropertyCount(ctx context.Context) (uint64, error) {
	count, err := l.store.GetPropertyCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return count, nil
}

// ListProperties lists properties with filters and pagination
func (l *ledger) ListProperties(ctx context.Context, query PropertyQuery) ([]domain.Property, uint64, error) {
	if query.Limit < 0 {
		return nil, 0, domain.Wrap(domain.ErrInvalidField, "limit must not be negative")
	}

	filter := store.PropertyQueryFilter{
		ForSale:   query.ForSale,
		Limit:     query.Limit,
		Offset:    query.Offset,
		OrderDesc: query.Newest,
	}
	if query.Owner != nil {
		owner, err := domain.NormalizeAddress(*query.Owner)
		if err != nil {
			return nil, 0, err
		}
		filter.Owner = &owner
	}

	rows, total, err := l.store.GetProperties(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list properties: %w", err)
	}

	properties, err := types.ToDomainProperties(rows)
	if err != nil {
		return nil, 0, err
	}
	return properties, total, nil
}

// Info identifies this ledger instance and its current head
func (l *ledger) Info(ctx context.Context) (*domain.LedgerInfo, error) {
	instanceID, err := l.resolveInstanceID(ctx)
	if err != nil {
		return nil, err
	}

	count, err := l.store.GetPropertyCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}

	info := &domain.LedgerInfo{
		InstanceID:    instanceID,
		PropertyCount: count,
		HeadHash:      domain.GENESIS_EVENT_HASH,
		PaymentPolicy: string(l.config.PaymentPolicy),
	}

	head, err := l.store.GetLatestEvent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get event log head: %w", err)
	}
	if head != nil {
		info.HeadSequence = head.ID
		info.HeadHash = head.Hash
	}

	return info, nil
}

// InstanceID returns the persisted identifier of this ledger instance
func InstanceID(ctx context.Context, l Ledger) (string, error) {
	info, err := l.Info(ctx)
	if err != nil {
		return "", err
	}
	return info.InstanceID, nil
}

// resolveInstanceID loads the instance id once, creating and persisting it on first use
func (l *ledger) resolveInstanceID(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.instanceID != "" {
		return l.instanceID, nil
	}

	if l.config.InstanceID != "" {
		if err := l.store.SetKeyValue(ctx, domain.LEDGER_INSTANCE_ID_KEY, l.config.InstanceID); err != nil {
			return "", fmt.Errorf("failed to persist instance id: %w", err)
		}
		l.instanceID = l.config.InstanceID
		return l.instanceID, nil
	}

	id, err := l.store.SetKeyValueIfAbsent(ctx, domain.LEDGER_INSTANCE_ID_KEY, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("failed to resolve instance id: %w", err)
	}

	logger.InfoCtx(ctx, "Resolved ledger instance", zap.String("instance_id", id))
	l.instanceID = id
	return id, nil
}
