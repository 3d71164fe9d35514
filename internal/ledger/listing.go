package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"go.uber.org/zap"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/metrics"
	"github.com/feral-file/chain-estates/internal/store"
	"github.com/feral-file/chain-estates/internal/types"
)

// ListingService puts properties on and off the market
type ListingService interface {
	// List offers a property for sale at price; only the owner may list
	List(ctx context.Context, caller string, id uint64, price *big.Int) (*domain.Property, error)
	// Unlist withdraws a listed property from sale; only the owner may unlist
	Unlist(ctx context.Context, caller string, id uint64) (*domain.Property, error)
}

type listingService struct {
	store   store.Store
	clock   adapter.Clock
	metrics *metrics.Metrics
}

// NewListingService creates a new listing service
func NewListingService(st store.Store, clock adapter.Clock, m *metrics.Metrics) ListingService {
	return &listingService{store: st, clock: clock, metrics: m}
}

// List offers a property for sale at price.
// Checks run in order: unknown id, caller not owner, non-positive price.
func (s *listingService) List(ctx context.Context, caller string, id uint64, price *big.Int) (_ *domain.Property, err error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.ObserveOperation(OperationList, err, s.clock.Since(start))
	}()

	seller, err := domain.NormalizeAddress(caller)
	if err != nil {
		return nil, err
	}

	row, _, err := s.store.UpdateProperty(ctx, id, func(ctx context.Context, tx store.PropertyTx) error {
		property := tx.Property()
		if !domain.SameAddress(property.Owner, seller) {
			return domain.Wrapf(domain.ErrNotOwner, "%s does not own property %d", seller, id)
		}
		if price == nil || price.Sign() <= 0 {
			return domain.Wrapf(domain.ErrInvalidPrice, "got %v", price)
		}
		if price.Cmp(math.MaxBig256) > 0 {
			return domain.Wrap(domain.ErrInvalidPrice, "price exceeds 256 bits")
		}

		property.Price = price.String()
		property.IsForSale = true
		property.UpdatedAt = start
		if err := tx.Save(ctx, property); err != nil {
			return err
		}

		return tx.AppendEvent(ctx, store.CreateLedgerEventInput{
			Kind:      domain.EventKindListed,
			Seller:    &property.Owner,
			Price:     price,
			Timestamp: start,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list property %d: %w", id, err)
	}

	property, err := types.ToDomainProperty(*row)
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Property listed",
		zap.Uint64("property_id", id),
		zap.String("seller", seller),
		zap.String("price", price.String()))

	return &property, nil
}

// Unlist withdraws a listed property from sale and resets its price
func (s *listingService) Unlist(ctx context.Context, caller string, id uint64) (_ *domain.Property, err error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.ObserveOperation(OperationUnlist, err, s.clock.Since(start))
	}()

	seller, err := domain.NormalizeAddress(caller)
	if err != nil {
		return nil, err
	}

	row, _, err := s.store.UpdateProperty(ctx, id, func(ctx context.Context, tx store.PropertyTx) error {
		property := tx.Property()
		if !domain.SameAddress(property.Owner, seller) {
			return domain.Wrapf(domain.ErrNotOwner, "%s does not own property %d", seller, id)
		}
		if !property.IsForSale {
			return domain.Wrapf(domain.ErrNotForSale, "property %d", id)
		}

		property.Price = "0"
		property.IsForSale = false
		property.UpdatedAt = start
		if err := tx.Save(ctx, property); err != nil {
			return err
		}

		return tx.AppendEvent(ctx, store.CreateLedgerEventInput{
			Kind:      domain.EventKindUnlisted,
			Seller:    &property.Owner,
			Timestamp: start,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unlist property %d: %w", id, err)
	}

	property, err := types.ToDomainProperty(*row)
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Property unlisted",
		zap.Uint64("property_id", id),
		zap.String("seller", seller))

	return &property, nil
}
