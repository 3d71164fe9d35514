package ledger_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/ledger"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/metrics"
	"github.com/feral-file/chain-estates/internal/store"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
	carol = "0x3333333333333333333333333333333333333333"
	dave  = "0x4444444444444444444444444444444444444444"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testLedger bundles a ledger over a fresh memory store
type testLedger struct {
	ledger  ledger.Ledger
	store   store.Store
	metrics *metrics.Metrics
}

func setupTestLedger(t *testing.T, policy domain.PaymentPolicy) *testLedger {
	t.Helper()

	st := store.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())
	l, err := ledger.New(st, adapter.NewClock(), adapter.NewJSON(), adapter.NewJCS(), m, ledger.Config{
		PaymentPolicy: policy,
	})
	require.NoError(t, err)

	return &testLedger{ledger: l, store: st, metrics: m}
}

func ether(t *testing.T, value string) *big.Int {
	t.Helper()
	wei, err := domain.ParseEther(value)
	require.NoError(t, err)
	return wei
}

func (tl *testLedger) register(t *testing.T, owner string, location string) *domain.Property {
	t.Helper()
	property, err := tl.ledger.Register(context.Background(), owner, ledger.RegisterInput{
		OwnerName:    "Owner",
		Location:     location,
		DocumentHash: "QmHash",
	})
	require.NoError(t, err)
	return property
}

func (tl *testLedger) deposit(t *testing.T, address string, amount *big.Int) {
	t.Helper()
	_, err := tl.ledger.Deposit(context.Background(), address, amount)
	require.NoError(t, err)
}

func (tl *testLedger) balance(t *testing.T, address string) *big.Int {
	t.Helper()
	account, err := tl.ledger.GetAccount(context.Background(), address)
	require.NoError(t, err)
	return account.Balance
}

func (tl *testLedger) property(t *testing.T, id uint64) *domain.Property {
	t.Helper()
	property, err := tl.ledger.GetProperty(context.Background(), id)
	require.NoError(t, err)
	return property
}

func (tl *testLedger) events(t *testing.T, kinds ...domain.EventKind) []domain.Event {
	t.Helper()
	events, _, err := tl.ledger.QueryEvents(context.Background(), ledger.EventQuery{Kinds: kinds})
	require.NoError(t, err)
	return events
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_PaymentPolicy(t *testing.T) {
	st := store.NewMemoryStore()

	l, err := ledger.New(st, adapter.NewClock(), adapter.NewJSON(), adapter.NewJCS(), nil, ledger.Config{})
	require.NoError(t, err)
	info, err := l.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, string(domain.PaymentPolicyExact), info.PaymentPolicy)

	_, err = ledger.New(st, adapter.NewClock(), adapter.NewJSON(), adapter.NewJCS(), nil, ledger.Config{
		PaymentPolicy: "best_effort",
	})
	assert.Error(t, err)
}

// =============================================================================
// Registration
// =============================================================================

func TestRegister_AssignsSequentialIDs(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		property := tl.register(t, alice, "Lot")
		assert.Equal(t, uint64(i), property.ID)
		assert.Equal(t, alice, property.Owner)
		assert.False(t, property.IsForSale)
		assert.Equal(t, 0, property.Price.Sign())
	}

	count, err := tl.ledger.GetPropertyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), count)

	events := tl.events(t, domain.EventKindRegistered)
	require.Len(t, events, 5)
	for i, event := range events {
		assert.Equal(t, uint64(i), event.PropertyID)
		require.NotNil(t, event.Owner)
		assert.Equal(t, alice, *event.Owner)
		require.NotNil(t, event.Location)
		assert.Equal(t, "Lot", *event.Location)
	}
}

func TestRegister_NormalizesCaller(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)

	property := tl.register(t, "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd", "Lot")

	expected, err := domain.NormalizeAddress("0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD")
	require.NoError(t, err)
	assert.Equal(t, expected, property.Owner)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		caller string
		input  ledger.RegisterInput
	}{
		{
			name:   "invalid caller",
			caller: "alice",
			input:  ledger.RegisterInput{OwnerName: "Alice", Location: "Lot", DocumentHash: "hash"},
		},
		{
			name:   "zero address caller",
			caller: "0x0000000000000000000000000000000000000000",
			input:  ledger.RegisterInput{OwnerName: "Alice", Location: "Lot", DocumentHash: "hash"},
		},
		{
			name:   "location too long",
			caller: alice,
			input:  ledger.RegisterInput{OwnerName: "Alice", Location: strings.Repeat("x", domain.MAX_FIELD_LENGTH+1), DocumentHash: "hash"},
		},
		{
			name:   "invalid utf-8 owner name",
			caller: alice,
			input:  ledger.RegisterInput{OwnerName: "\xff\xfe", Location: "Lot", DocumentHash: "hash"},
		},
		{
			name:   "NUL in owner name",
			caller: alice,
			input:  ledger.RegisterInput{OwnerName: "Al\x00ice", Location: "Lot", DocumentHash: "hash"},
		},
		{
			name:   "NUL in document hash",
			caller: alice,
			input:  ledger.RegisterInput{OwnerName: "Alice", Location: "Lot", DocumentHash: "\x00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := setupTestLedger(t, domain.PaymentPolicyExact)
			ctx := context.Background()

			property, err := tl.ledger.Register(ctx, tt.caller, tt.input)
			assert.Nil(t, property)
			assert.Equal(t, domain.ErrorKindValidation, domain.KindOf(err))

			count, err := tl.ledger.GetPropertyCount(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
			assert.Empty(t, tl.events(t))
		})
	}
}

func TestRegister_EmptyFieldsAccepted(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)

	property, err := tl.ledger.Register(context.Background(), alice, ledger.RegisterInput{})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), property.ID)
	assert.Empty(t, property.Location)
}

func TestRegister_ConcurrentIDsAreDense(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()
	const workers = 32

	ids := make(chan uint64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			property, err := tl.ledger.Register(ctx, bob, ledger.RegisterInput{OwnerName: "Bob", Location: "Lot", DocumentHash: "hash"})
			if assert.NoError(t, err) {
				ids <- property.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	for id := uint64(0); id < workers; id++ {
		assert.True(t, seen[id], "id %d skipped", id)
	}

	count, err := tl.ledger.GetPropertyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(workers), count)
}

// =============================================================================
// Listing
// =============================================================================

func TestList_Success(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	tl.register(t, alice, "Lot")

	property, err := tl.ledger.List(context.Background(), alice, 0, ether(t, "1.5"))
	require.NoError(t, err)
	assert.True(t, property.IsForSale)
	assert.Equal(t, ether(t, "1.5"), property.Price)

	events := tl.events(t, domain.EventKindListed)
	require.Len(t, events, 1)
	assert.Equal(t, alice, *events[0].Seller)
	assert.Equal(t, ether(t, "1.5"), events[0].Price)
}

func TestList_Errors(t *testing.T) {
	tests := []struct {
		name     string
		caller   string
		id       uint64
		price    *big.Int
		sentinel error
	}{
		{name: "unknown id", caller: alice, id: 7, price: big.NewInt(1), sentinel: domain.ErrPropertyNotFound},
		{name: "not owner", caller: bob, id: 0, price: big.NewInt(1), sentinel: domain.ErrNotOwner},
		{name: "not owner is checked before the price", caller: bob, id: 0, price: big.NewInt(0), sentinel: domain.ErrNotOwner},
		{name: "zero price", caller: alice, id: 0, price: big.NewInt(0), sentinel: domain.ErrInvalidPrice},
		{name: "negative price", caller: alice, id: 0, price: big.NewInt(-5), sentinel: domain.ErrInvalidPrice},
		{name: "nil price", caller: alice, id: 0, price: nil, sentinel: domain.ErrInvalidPrice},
		{name: "price above 256 bits", caller: alice, id: 0, price: new(big.Int).Lsh(big.NewInt(1), 256), sentinel: domain.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := setupTestLedger(t, domain.PaymentPolicyExact)
			tl.register(t, alice, "Lot")
			before := tl.property(t, 0)

			property, err := tl.ledger.List(context.Background(), tt.caller, tt.id, tt.price)
			assert.Nil(t, property)
			assert.ErrorIs(t, err, tt.sentinel)

			assert.Equal(t, before, tl.property(t, 0))
			assert.Empty(t, tl.events(t, domain.EventKindListed))
		})
	}
}

func TestList_RelistUpdatesPrice(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	tl.register(t, alice, "Lot")
	ctx := context.Background()

	_, err := tl.ledger.List(ctx, alice, 0, ether(t, "1"))
	require.NoError(t, err)
	property, err := tl.ledger.List(ctx, alice, 0, ether(t, "2"))
	require.NoError(t, err)

	assert.Equal(t, ether(t, "2"), property.Price)
	assert.Len(t, tl.events(t, domain.EventKindListed), 2)
}

func TestUnlist(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	tl.register(t, alice, "Lot")
	ctx := context.Background()

	_, err := tl.ledger.Unlist(ctx, alice, 0)
	assert.ErrorIs(t, err, domain.ErrNotForSale)

	_, err = tl.ledger.List(ctx, alice, 0, ether(t, "3"))
	require.NoError(t, err)

	_, err = tl.ledger.Unlist(ctx, bob, 0)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	property, err := tl.ledger.Unlist(ctx, alice, 0)
	require.NoError(t, err)
	assert.False(t, property.IsForSale)
	assert.Equal(t, 0, property.Price.Sign())

	events := tl.events(t, domain.EventKindUnlisted)
	require.Len(t, events, 1)
	assert.Equal(t, alice, *events[0].Seller)

	_, err = tl.ledger.Buy(ctx, bob, 0, ether(t, "3"))
	assert.ErrorIs(t, err, domain.ErrNotForSale)
}

// =============================================================================
// Purchase
// =============================================================================

func TestBuy_Success(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	tl.register(t, alice, "Lot")
	tl.deposit(t, bob, ether(t, "10"))
	ctx := context.Background()

	_, err := tl.ledger.List(ctx, alice, 0, ether(t, "1.5"))
	require.NoError(t, err)

	sale, err := tl.ledger.Buy(ctx, bob, 0, ether(t, "1.5"))
	require.NoError(t, err)

	assert.Equal(t, bob, sale.Property.Owner)
	assert.False(t, sale.Property.IsForSale)
	assert.Equal(t, 0, sale.Property.Price.Sign())
	assert.Equal(t, ether(t, "1.5"), sale.Price)
	assert.Equal(t, 0, sale.Refunded.Sign())

	assert.Equal(t, domain.EventKindSold, sale.Event.Kind)
	assert.Equal(t, uint64(0), sale.Event.PropertyID)
	assert.Equal(t, alice, *sale.Event.Seller)
	assert.Equal(t, bob, *sale.Event.Buyer)
	assert.Equal(t, ether(t, "1.5"), sale.Event.Price)
	assert.Equal(t, uint64(3), sale.Event.Sequence)

	assert.Equal(t, ether(t, "1.5"), tl.balance(t, alice))
	assert.Equal(t, ether(t, "8.5"), tl.balance(t, bob))

	sold := tl.events(t, domain.EventKindSold)
	require.Len(t, sold, 1)
	assert.Equal(t, sale.Event, sold[0])

	assert.Equal(t, float64(1), testutil.ToFloat64(tl.metrics.Sales))
	assert.Equal(t, float64(1), testutil.ToFloat64(tl.metrics.Operations.WithLabelValues(ledger.OperationBuy, "ok")))
}

func TestBuy_Errors(t *testing.T) {
	tests := []struct {
		name     string
		policy   domain.PaymentPolicy
		list     bool
		buyer    string
		id       uint64
		payment  string
		funds    string
		frozen   bool
		sentinel error
	}{
		{name: "unknown id", list: true, buyer: bob, id: 9, payment: "1", funds: "5", sentinel: domain.ErrPropertyNotFound},
		{name: "never listed", list: false, buyer: bob, payment: "1", funds: "5", sentinel: domain.ErrNotForSale},
		{name: "self purchase", list: true, buyer: alice, payment: "1", funds: "5", sentinel: domain.ErrSelfPurchase},
		{name: "underpayment", list: true, buyer: bob, payment: "0.5", funds: "5", sentinel: domain.ErrPaymentMismatch},
		{name: "overpayment under exact policy", list: true, buyer: bob, payment: "2", funds: "5", sentinel: domain.ErrPaymentMismatch},
		{name: "underpayment under refund policy", policy: domain.PaymentPolicyRefundOverpayment, list: true, buyer: bob, payment: "0.9", funds: "5", sentinel: domain.ErrPaymentMismatch},
		{name: "insufficient funds", list: true, buyer: bob, payment: "1", funds: "0.5", sentinel: domain.ErrInsufficientFunds},
		{name: "seller account frozen", list: true, buyer: bob, payment: "1", funds: "5", frozen: true, sentinel: domain.ErrTransferRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := setupTestLedger(t, tt.policy)
			ctx := context.Background()
			tl.register(t, alice, "Lot")
			tl.deposit(t, tt.buyer, ether(t, tt.funds))
			if tt.list {
				_, err := tl.ledger.List(ctx, alice, 0, ether(t, "1"))
				require.NoError(t, err)
			}
			if tt.frozen {
				_, err := tl.ledger.SetFrozen(ctx, alice, true)
				require.NoError(t, err)
			}

			before := tl.property(t, 0)
			eventsBefore := tl.events(t)
			buyerBefore := tl.balance(t, tt.buyer)
			sellerBefore := tl.balance(t, alice)

			sale, err := tl.ledger.Buy(ctx, tt.buyer, tt.id, ether(t, tt.payment))
			assert.Nil(t, sale)
			assert.ErrorIs(t, err, tt.sentinel)

			assert.Equal(t, before, tl.property(t, 0))
			assert.Equal(t, eventsBefore, tl.events(t))
			assert.Equal(t, buyerBefore, tl.balance(t, tt.buyer))
			assert.Equal(t, sellerBefore, tl.balance(t, alice))
		})
	}
}

func TestBuy_ErrorKinds(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()
	tl.register(t, alice, "Lot")

	_, err := tl.ledger.Buy(ctx, bob, 0, ether(t, "1"))
	assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))

	_, err = tl.ledger.List(ctx, alice, 0, ether(t, "1"))
	require.NoError(t, err)

	_, err = tl.ledger.Buy(ctx, bob, 0, ether(t, "2"))
	assert.Equal(t, domain.ErrorKindPaymentMismatch, domain.KindOf(err))

	_, err = tl.ledger.Buy(ctx, bob, 0, ether(t, "1"))
	assert.Equal(t, domain.ErrorKindInsufficientFunds, domain.KindOf(err))

	_, err = tl.ledger.Buy(ctx, bob, 0, big.NewInt(-1))
	assert.Equal(t, domain.ErrorKindValidation, domain.KindOf(err))

	assert.Equal(t, float64(1), testutil.ToFloat64(tl.metrics.Operations.WithLabelValues(ledger.OperationBuy, string(domain.ErrorKindPaymentMismatch))))
}

func TestBuy_RefundOverpayment(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyRefundOverpayment)
	ctx := context.Background()
	tl.register(t, alice, "Lot")
	tl.deposit(t, bob, ether(t, "1"))

	_, err := tl.ledger.List(ctx, alice, 0, ether(t, "1"))
	require.NoError(t, err)

	// the balance only has to cover the price, never the excess
	sale, err := tl.ledger.Buy(ctx, bob, 0, ether(t, "1.25"))
	require.NoError(t, err)

	assert.Equal(t, ether(t, "1"), sale.Price)
	assert.Equal(t, ether(t, "0.25"), sale.Refunded)
	assert.Equal(t, ether(t, "1"), sale.Event.Price)
	assert.Equal(t, 0, tl.balance(t, bob).Sign())
	assert.Equal(t, ether(t, "1"), tl.balance(t, alice))
}

func TestBuy_ConcurrentBuyersOneWinner(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()
	tl.register(t, alice, "Lot")

	_, err := tl.ledger.List(ctx, alice, 0, ether(t, "1"))
	require.NoError(t, err)

	buyers := []string{bob, carol, dave}
	for _, buyer := range buyers {
		tl.deposit(t, buyer, ether(t, "1"))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)
	for _, buyer := range buyers {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			_, err := tl.ledger.Buy(ctx, buyer, 0, ether(t, "1"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, buyer)
			case errors.Is(err, domain.ErrNotForSale):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(buyer)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, len(buyers)-1, conflicts)

	property := tl.property(t, 0)
	assert.Equal(t, winners[0], property.Owner)
	assert.Len(t, tl.events(t, domain.EventKindSold), 1)
	assert.Equal(t, ether(t, "1"), tl.balance(t, alice))

	for _, buyer := range buyers {
		expected := ether(t, "1")
		if buyer == winners[0] {
			expected = new(big.Int)
		}
		assert.Zero(t, expected.Cmp(tl.balance(t, buyer)), buyer)
	}
}

// =============================================================================
// Invariants
// =============================================================================

func TestForSaleImpliesPositivePrice(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()
	tl.deposit(t, bob, ether(t, "10"))

	check := func() {
		properties, _, err := tl.ledger.ListProperties(ctx, ledger.PropertyQuery{})
		require.NoError(t, err)
		for _, p := range properties {
			if p.IsForSale {
				assert.Positive(t, p.Price.Sign(), "property %d", p.ID)
			} else {
				assert.Zero(t, p.Price.Sign(), "property %d", p.ID)
			}
		}
	}

	tl.register(t, alice, "A")
	tl.register(t, alice, "B")
	check()

	_, err := tl.ledger.List(ctx, alice, 0, ether(t, "1"))
	require.NoError(t, err)
	_, err = tl.ledger.List(ctx, alice, 1, big.NewInt(0))
	require.Error(t, err)
	check()

	_, err = tl.ledger.Buy(ctx, bob, 0, ether(t, "1"))
	require.NoError(t, err)
	check()

	_, err = tl.ledger.List(ctx, alice, 1, ether(t, "2"))
	require.NoError(t, err)
	_, err = tl.ledger.Unlist(ctx, alice, 1)
	require.NoError(t, err)
	check()
}

func TestExampleScenario(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()
	tl.deposit(t, bob, ether(t, "1.5"))
	tl.deposit(t, carol, ether(t, "5"))

	// 1. register
	property, err := tl.ledger.Register(ctx, alice, ledger.RegisterInput{
		OwnerName:    "Alice",
		Location:     "123 Main St",
		DocumentHash: "hash1",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), property.ID)
	assert.Equal(t, alice, property.Owner)
	assert.False(t, property.IsForSale)

	// 2. list at 1.5
	property, err = tl.ledger.List(ctx, alice, 0, ether(t, "1.5"))
	require.NoError(t, err)
	assert.Equal(t, ether(t, "1.5"), property.Price)
	assert.True(t, property.IsForSale)

	// 3. bob buys
	sale, err := tl.ledger.Buy(ctx, bob, 0, ether(t, "1.5"))
	require.NoError(t, err)
	assert.Equal(t, bob, sale.Property.Owner)
	assert.False(t, sale.Property.IsForSale)
	assert.Equal(t, uint64(0), sale.Event.PropertyID)
	assert.Equal(t, ether(t, "1.5"), sale.Event.Price)
	assert.Equal(t, alice, *sale.Event.Seller)
	assert.Equal(t, bob, *sale.Event.Buyer)
	afterSale := tl.property(t, 0)

	// 4. carol cannot buy a sold property
	_, err = tl.ledger.Buy(ctx, carol, 0, ether(t, "1.5"))
	assert.Equal(t, domain.ErrorKindStateConflict, domain.KindOf(err))
	assert.Equal(t, afterSale, tl.property(t, 0))

	// 5. alice no longer owns it
	_, err = tl.ledger.List(ctx, alice, 0, ether(t, "2"))
	assert.Equal(t, domain.ErrorKindAuthorization, domain.KindOf(err))
	assert.Equal(t, afterSale, tl.property(t, 0))
}

func TestRoundTrip(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()
	tl.deposit(t, bob, ether(t, "1"))
	tl.deposit(t, carol, ether(t, "3"))

	tl.register(t, alice, "Lot")

	_, err := tl.ledger.List(ctx, alice, 0, ether(t, "1"))
	require.NoError(t, err)
	_, err = tl.ledger.Buy(ctx, bob, 0, ether(t, "1"))
	require.NoError(t, err)
	_, err = tl.ledger.List(ctx, bob, 0, ether(t, "3"))
	require.NoError(t, err)
	_, err = tl.ledger.Buy(ctx, carol, 0, ether(t, "3"))
	require.NoError(t, err)

	property := tl.property(t, 0)
	assert.Equal(t, carol, property.Owner)
	assert.False(t, property.IsForSale)

	sold := tl.events(t, domain.EventKindSold)
	require.Len(t, sold, 2)
	assert.Less(t, sold[0].Sequence, sold[1].Sequence)
	assert.Equal(t, alice, *sold[0].Seller)
	assert.Equal(t, bob, *sold[0].Buyer)
	assert.Equal(t, bob, *sold[1].Seller)
	assert.Equal(t, carol, *sold[1].Buyer)

	assert.Equal(t, ether(t, "1"), tl.balance(t, alice))
	assert.Equal(t, ether(t, "3"), tl.balance(t, bob))
	assert.Equal(t, 0, tl.balance(t, carol).Sign())

	kinds := make([]domain.EventKind, 0)
	for _, event := range tl.events(t) {
		kinds = append(kinds, event.Kind)
	}
	assert.Equal(t, []domain.EventKind{
		domain.EventKindRegistered,
		domain.EventKindListed,
		domain.EventKindSold,
		domain.EventKindListed,
		domain.EventKindSold,
	}, kinds)

	verification, err := tl.ledger.VerifyHistory(ctx)
	require.NoError(t, err)
	assert.True(t, verification.Valid)
	assert.Equal(t, uint64(5), verification.EventsChecked)
}

// =============================================================================
// Reads
// =============================================================================

func TestGetProperty_NotFound(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)

	property, err := tl.ledger.GetProperty(context.Background(), 0)
	assert.Nil(t, property)
	assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
	assert.Equal(t, domain.ErrorKindNotFound, domain.KindOf(err))
}

func TestListProperties(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()
	tl.register(t, alice, "A")
	tl.register(t, bob, "B")
	tl.register(t, alice, "C")

	_, err := tl.ledger.List(ctx, alice, 2, ether(t, "4"))
	require.NoError(t, err)

	owner := strings.ToLower(alice)
	mine, total, err := tl.ledger.ListProperties(ctx, ledger.PropertyQuery{Owner: &owner})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, mine, 2)
	assert.Equal(t, uint64(0), mine[0].ID)
	assert.Equal(t, uint64(2), mine[1].ID)

	forSale := true
	market, total, err := tl.ledger.ListProperties(ctx, ledger.PropertyQuery{ForSale: &forSale})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, market, 1)
	assert.Equal(t, uint64(2), market[0].ID)

	newest, total, err := tl.ledger.ListProperties(ctx, ledger.PropertyQuery{Limit: 1, Newest: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, newest, 1)
	assert.Equal(t, uint64(2), newest[0].ID)

	bad := "nobody"
	_, _, err = tl.ledger.ListProperties(ctx, ledger.PropertyQuery{Owner: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)

	_, _, err = tl.ledger.ListProperties(ctx, ledger.PropertyQuery{Limit: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidField)
}

func TestQueryEvents(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()
	tl.deposit(t, bob, ether(t, "1"))
	tl.register(t, alice, "A")
	tl.register(t, alice, "B")

	_, err := tl.ledger.List(ctx, alice, 1, ether(t, "1"))
	require.NoError(t, err)
	_, err = tl.ledger.Buy(ctx, bob, 1, ether(t, "1"))
	require.NoError(t, err)

	t.Run("property filter", func(t *testing.T) {
		id := uint64(1)
		events, total, err := tl.ledger.QueryEvents(ctx, ledger.EventQuery{PropertyID: &id})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), total)
		require.Len(t, events, 3)
		for _, event := range events {
			assert.Equal(t, id, event.PropertyID)
		}
	})

	t.Run("address filter matches buyer", func(t *testing.T) {
		address := bob
		events, _, err := tl.ledger.QueryEvents(ctx, ledger.EventQuery{Address: &address})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventKindSold, events[0].Kind)
	})

	t.Run("newest first", func(t *testing.T) {
		events, _, err := tl.ledger.QueryEvents(ctx, ledger.EventQuery{Newest: true, Limit: 2})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, uint64(4), events[0].Sequence)
		assert.Equal(t, uint64(3), events[1].Sequence)
	})

	t.Run("after cursor", func(t *testing.T) {
		after := uint64(2)
		events, _, err := tl.ledger.QueryEvents(ctx, ledger.EventQuery{After: &after})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, uint64(3), events[0].Sequence)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, _, err := tl.ledger.QueryEvents(ctx, ledger.EventQuery{Kinds: []domain.EventKind{"burned"}})
		assert.ErrorIs(t, err, domain.ErrInvalidField)
	})

	t.Run("events link into a chain", func(t *testing.T) {
		events := tl.events(t)
		require.Len(t, events, 4)
		assert.Equal(t, domain.GENESIS_EVENT_HASH, events[0].PrevHash)
		for i := 1; i < len(events); i++ {
			assert.Equal(t, events[i-1].Hash, events[i].PrevHash)
			assert.Equal(t, uint64(i+1), events[i].Sequence)
		}
	})
}

func TestVerifyHistory_Empty(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)

	verification, err := tl.ledger.VerifyHistory(context.Background())
	require.NoError(t, err)
	assert.True(t, verification.Valid)
	assert.Zero(t, verification.EventsChecked)
	assert.Equal(t, domain.GENESIS_EVENT_HASH, verification.HeadHash)
}

func TestInfo_InstanceID(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	first, err := ledger.New(st, adapter.NewClock(), adapter.NewJSON(), adapter.NewJCS(), nil, ledger.Config{})
	require.NoError(t, err)
	firstID, err := ledger.InstanceID(ctx, first)
	require.NoError(t, err)
	assert.NotEmpty(t, firstID)

	// a restart over the same store keeps the id
	second, err := ledger.New(st, adapter.NewClock(), adapter.NewJSON(), adapter.NewJCS(), nil, ledger.Config{})
	require.NoError(t, err)
	secondID, err := ledger.InstanceID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	pinned, err := ledger.New(st, adapter.NewClock(), adapter.NewJSON(), adapter.NewJCS(), nil, ledger.Config{InstanceID: "sepolia-estates"})
	require.NoError(t, err)
	info, err := pinned.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sepolia-estates", info.InstanceID)

	stored, err := st.GetKeyValue(ctx, domain.LEDGER_INSTANCE_ID_KEY)
	require.NoError(t, err)
	assert.Equal(t, "sepolia-estates", stored)
}

func TestInfo_Head(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()

	info, err := tl.ledger.Info(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.PropertyCount)
	assert.Zero(t, info.HeadSequence)
	assert.Equal(t, domain.GENESIS_EVENT_HASH, info.HeadHash)

	tl.register(t, alice, "Lot")

	info, err = tl.ledger.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.PropertyCount)
	assert.Equal(t, uint64(1), info.HeadSequence)
	assert.Equal(t, tl.events(t)[0].Hash, info.HeadHash)
}

// =============================================================================
// Accounts
// =============================================================================

func TestAccounts(t *testing.T) {
	tl := setupTestLedger(t, domain.PaymentPolicyExact)
	ctx := context.Background()

	account, err := tl.ledger.GetAccount(ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, carol, account.Address)
	assert.Zero(t, account.Balance.Sign())
	assert.False(t, account.Frozen)

	account, err = tl.ledger.Deposit(ctx, carol, ether(t, "2"))
	require.NoError(t, err)
	assert.Equal(t, ether(t, "2"), account.Balance)

	account, err = tl.ledger.Deposit(ctx, carol, ether(t, "0.5"))
	require.NoError(t, err)
	assert.Equal(t, ether(t, "2.5"), account.Balance)

	_, err = tl.ledger.Deposit(ctx, carol, big.NewInt(0))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = tl.ledger.Deposit(ctx, "carol", big.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)

	account, err = tl.ledger.SetFrozen(ctx, carol, true)
	require.NoError(t, err)
	assert.True(t, account.Frozen)
	assert.Equal(t, ether(t, "2.5"), account.Balance)

	// frozen accounts still accept operator deposits
	account, err = tl.ledger.Deposit(ctx, carol, big.NewInt(1))
	require.NoError(t, err)
	assert.True(t, account.Frozen)
}
