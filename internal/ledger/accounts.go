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

// AccountService manages the native-currency balances that back purchases
type AccountService interface {
	// GetAccount returns the account of address; unknown addresses have a zero balance
	GetAccount(ctx context.Context, address string) (*domain.Account, error)
	// Deposit credits amount to the account of address
	Deposit(ctx context.Context, address string, amount *big.Int) (*domain.Account, error)
	// SetFrozen toggles whether the account refuses incoming transfers
	SetFrozen(ctx context.Context, address string, frozen bool) (*domain.Account, error)
}

type accountService struct {
	store   store.Store
	clock   adapter.Clock
	metrics *metrics.Metrics
}

// NewAccountService creates a new account service
func NewAccountService(st store.Store, clock adapter.Clock, m *metrics.Metrics) AccountService {
	return &accountService{store: st, clock: clock, metrics: m}
}

func (s *accountService) GetAccount(ctx context.Context, address string) (*domain.Account, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	row, err := s.store.GetAccount(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account, err := types.ToDomainAccount(addr, row)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *accountService) Deposit(ctx context.Context, address string, amount *big.Int) (_ *domain.Account, err error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.ObserveOperation(OperationDeposit, err, s.clock.Since(start))
	}()

	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.Wrapf(domain.ErrInvalidAmount, "deposit must be positive, got %v", amount)
	}

	row, err := s.store.CreditAccount(ctx, addr, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}

	account, err := types.ToDomainAccount(addr, row)
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Account credited",
		zap.String("address", addr),
		zap.String("amount", amount.String()))

	return &account, nil
}

func (s *accountService) SetFrozen(ctx context.Context, address string, frozen bool) (_ *domain.Account, err error) {
	start := s.clock.Now()
	defer func() {
		s.metrics.ObserveOperation(OperationFreeze, err, s.clock.Since(start))
	}()

	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	row, err := s.store.SetAccountFrozen(ctx, addr, frozen)
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	account, err := types.ToDomainAccount(addr, row)
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Account frozen flag updated",
		zap.String("address", addr),
		zap.Bool("frozen", frozen))

	return &account, nil
}
