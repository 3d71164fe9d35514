package ledger

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/metrics"
	"github.com/feral-file/chain-estates/internal/store"
	"github.com/feral-file/chain-estates/internal/store/schema"
	"github.com/feral-file/chain-estates/internal/types"
)

// RegisterInput represents the immutable descriptors of a new property
type RegisterInput struct {
	OwnerName    string
	Location     string
	DocumentHash string
}

// RegistrationService records new properties owned by the caller
type RegistrationService interface {
	// Register creates a property owned by caller and appends a registered event
	Register(ctx context.Context, caller string, input RegisterInput) (*domain.Property, error)
}

type registrationService struct {
	store   store.Store
	clock   adapter.Clock
	json    adapter.JSON
	metrics *metrics.Metrics
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(st store.Store, clock adapter.Clock, json adapter.JSON, m *metrics.Metrics) RegistrationService {
	return &registrationService{store: st, clock: clock, json: json, metrics: m}
}

// Register creates a property owned by caller and appends a registered event
func (s *registrationService) Register(ctx context.Context, caller string, input RegisterInput) (_ *domain.Property, err error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.ObserveOperation(OperationRegister, err, s.clock.Since(start))
	}()

	owner, err := domain.NormalizeAddress(caller)
	if err != nil {
		return nil, err
	}
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	payload, err := s.json.Marshal(schema.RegisteredPayload{
		OwnerName:    input.OwnerName,
		Location:     input.Location,
		DocumentHash: input.DocumentHash,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal registered payload: %w", err)
	}

	row, _, err := s.store.CreateProperty(ctx, store.CreatePropertyInput{
		Owner:        owner,
		OwnerName:    input.OwnerName,
		Location:     input.Location,
		DocumentHash: input.DocumentHash,
		CreatedAt:    start,
	}, func(ctx context.Context, tx store.PropertyTx) error {
		return tx.AppendEvent(ctx, store.CreateLedgerEventInput{
			Kind:      domain.EventKindRegistered,
			Owner:     &owner,
			Payload:   payload,
			Timestamp: start,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register property: %w", err)
	}

	property, err := types.ToDomainProperty(*row)
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Property registered",
		zap.Uint64("property_id", property.ID),
		zap.String("owner", owner))

	return &property, nil
}

// validateRegisterInput enforces the storage limits of the descriptive fields
func validateRegisterInput(input RegisterInput) error {
	fields := []struct {
		name  string
		value string
	}{
		{"owner_name", input.OwnerName},
		{"location", input.Location},
		{"document_hash", input.DocumentHash},
	}

	for _, field := range fields {
		if len(field.value) > domain.MAX_FIELD_LENGTH {
			return domain.Wrapf(domain.ErrInvalidField, "%s exceeds %d bytes", field.name, domain.MAX_FIELD_LENGTH)
		}
		if !utf8.ValidString(field.value) {
			return domain.Wrapf(domain.ErrInvalidField, "%s is not valid UTF-8", field.name)
		}
		// Postgres text and jsonb both reject NUL
		if strings.ContainsRune(field.value, 0) {
			return domain.Wrapf(domain.ErrInvalidField, "%s contains a NUL character", field.name)
		}
	}

	return nil
}
