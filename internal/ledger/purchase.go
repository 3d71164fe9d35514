package ledger

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/metrics"
	"github.com/feral-file/chain-estates/internal/store"
	"github.com/feral-file/chain-estates/internal/types"
)

// PurchaseService settles sales of listed properties
type PurchaseService interface {
	// Buy transfers ownership of a listed property to caller in exchange for payment.
	// Ownership and value move together or not at all.
	Buy(ctx context.Context, caller string, id uint64, payment *big.Int) (*domain.Sale, error)
}

type purchaseService struct {
	store   store.Store
	clock   adapter.Clock
	json    adapter.JSON
	metrics *metrics.Metrics
	policy  domain.PaymentPolicy
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(st store.Store, clock adapter.Clock, json adapter.JSON, m *metrics.Metrics, policy domain.PaymentPolicy) PurchaseService {
	return &purchaseService{store: st, clock: clock, json: json, metrics: m, policy: policy}
}

// Buy transfers ownership of a listed property to caller.
// Checks run in order: unknown id, not for sale, self purchase, payment mismatch,
// then the value transfer which may fail with insufficient funds or a rejected recipient.
func (s *purchaseService) Buy(ctx context.Context, caller string, id uint64, payment *big.Int) (_ *domain.Sale, err error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.ObserveOperation(OperationBuy, err, s.clock.Since(start))
	}()

	buyer, err := domain.NormalizeAddress(caller)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.Sign() < 0 {
		return nil, domain.Wrapf(domain.ErrInvalidAmount, "payment %v", payment)
	}

	var price *big.Int
	row, events, err := s.store.UpdateProperty(ctx, id, func(ctx context.Context, tx store.PropertyTx) error {
		property := tx.Property()
		if !property.IsForSale {
			return domain.Wrapf(domain.ErrNotForSale, "property %d", id)
		}
		if domain.SameAddress(property.Owner, buyer) {
			return domain.Wrapf(domain.ErrSelfPurchase, "property %d", id)
		}

		listed, err := domain.ParseDecimalWei(property.Price)
		if err != nil {
			return err
		}
		if !s.policy.Accepts(payment, listed) {
			return domain.Wrapf(domain.ErrPaymentMismatch, "price %s, payment %s", listed, payment)
		}

		seller := property.Owner
		property.Owner = buyer
		property.Price = "0"
		property.IsForSale = false
		property.UpdatedAt = start
		if err := tx.Save(ctx, property); err != nil {
			return err
		}

		if err := tx.Transfer(ctx, buyer, seller, listed); err != nil {
			return err
		}

		price = listed
		return tx.AppendEvent(ctx, store.CreateLedgerEventInput{
			Kind:      domain.EventKindSold,
			Seller:    &seller,
			Buyer:     &buyer,
			Price:     listed,
			Timestamp: start,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to buy property %d: %w", id, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("sale of property %d committed without an event", id)
	}

	property, err := types.ToDomainProperty(*row)
	if err != nil {
		return nil, err
	}
	event, err := types.ToDomainEvent(s.json, events[len(events)-1])
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveSale(price)

	logger.InfoCtx(ctx, "Property sold",
		zap.Uint64("property_id", id),
		zap.Stringp("seller", event.Seller),
		zap.String("buyer", buyer),
		zap.String("price", price.String()),
		zap.Uint64("sequence", event.Sequence))

	return &domain.Sale{
		Property: property,
		Event:    event,
		Price:    price,
		Refunded: new(big.Int).Sub(payment, price),
	}, nil
}
