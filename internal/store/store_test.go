package store

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/store/schema"
)

// StoreTestSuite provides the interface for running store tests against different implementations
type StoreTestSuite struct {
	Store Store
	// InitDB should be called before each test to initialize the database
	InitDB func(t *testing.T) Store
	// CleanupDB should be called after each test to clean up the database
	CleanupDB func(t *testing.T)
}

const (
	testOwner  = "0x1111111111111111111111111111111111111111"
	testBuyer  = "0x2222222222222222222222222222222222222222"
	testOther  = "0x3333333333333333333333333333333333333333"
	testPrice  = 1_000_000_000_000_000_000
	testOffset = time.Minute
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC)

// =============================================================================
// Test Data Builders
// =============================================================================

func strPtr(s string) *string {
	return &s
}

func buildCreatePropertyInput(owner string, location string) CreatePropertyInput {
	return CreatePropertyInput{
		Owner:        owner,
		OwnerName:    "Alice",
		Location:     location,
		DocumentHash: "QmTzQ1Nj5rWfgt6hpwbpWQpLq8TQ1a6E6Rts7y1GqMmV9K",
		CreatedAt:    testNow,
	}
}

// registeredMutator appends the registered event the ledger would append
func registeredMutator(timestamp time.Time) PropertyMutator {
	return func(ctx context.Context, tx PropertyTx) error {
		property := tx.Property()
		return tx.AppendEvent(ctx, CreateLedgerEventInput{
			Kind:      domain.EventKindRegistered,
			Owner:     strPtr(property.Owner),
			Payload:   []byte(`{"location":"` + property.Location + `"}`),
			Timestamp: timestamp,
		})
	}
}

// listMutator lists the property at price and appends a listed event
func listMutator(price int64, timestamp time.Time) PropertyMutator {
	return func(ctx context.Context, tx PropertyTx) error {
		property := tx.Property()
		property.Price = big.NewInt(price).String()
		property.IsForSale = true
		property.UpdatedAt = timestamp
		if err := tx.Save(ctx, property); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, CreateLedgerEventInput{
			Kind:      domain.EventKindListed,
			Seller:    strPtr(property.Owner),
			Price:     big.NewInt(price),
			Timestamp: timestamp,
		})
	}
}

// saleMutator moves ownership and value like a purchase would
func saleMutator(buyer string, timestamp time.Time) PropertyMutator {
	return func(ctx context.Context, tx PropertyTx) error {
		property := tx.Property()
		seller := property.Owner
		price, _ := new(big.Int).SetString(property.Price, 10)

		property.Owner = buyer
		property.IsForSale = false
		property.Price = "0"
		property.UpdatedAt = timestamp
		if err := tx.Save(ctx, property); err != nil {
			return err
		}
		if err := tx.Transfer(ctx, buyer, seller, price); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, CreateLedgerEventInput{
			Kind:      domain.EventKindSold,
			Seller:    strPtr(seller),
			Buyer:     strPtr(buyer),
			Price:     price,
			Timestamp: timestamp,
		})
	}
}

func mustRegister(t *testing.T, store Store, owner string, location string) schema.Property {
	t.Helper()
	property, events, err := store.CreateProperty(context.Background(), buildCreatePropertyInput(owner, location), registeredMutator(testNow))
	require.NoError(t, err)
	require.Len(t, events, 1)
	return *property
}

func balanceOf(t *testing.T, store Store, address string) string {
	t.Helper()
	account, err := store.GetAccount(context.Background(), address)
	require.NoError(t, err)
	if account == nil {
		return "0"
	}
	return account.Balance
}

// =============================================================================
// Test: CreateProperty
// =============================================================================

func testCreateProperty(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("assigns dense ids starting at zero", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			property := mustRegister(t, store, testOwner, "Lot "+string(rune('A'+i)))
			assert.Equal(t, uint64(i), property.ID) //nolint:gosec,G115
			assert.Equal(t, testOwner, property.Owner)
			assert.Equal(t, "0", property.Price)
			assert.False(t, property.IsForSale)
		}

		count, err := store.GetPropertyCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), count)
	})

	t.Run("failed mutator consumes no id and appends no event", func(t *testing.T) {
		before, err := store.GetPropertyCount(ctx)
		require.NoError(t, err)
		head, err := store.GetLatestEvent(ctx)
		require.NoError(t, err)

		boom := errors.New("boom")
		_, _, err = store.CreateProperty(ctx, buildCreatePropertyInput(testOwner, "Nowhere"), func(ctx context.Context, tx PropertyTx) error {
			if err := registeredMutator(testNow)(ctx, tx); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		after, err := store.GetPropertyCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		newHead, err := store.GetLatestEvent(ctx)
		require.NoError(t, err)
		assert.Equal(t, head.ID, newHead.ID)

		next := mustRegister(t, store, testOwner, "Somewhere")
		assert.Equal(t, before, next.ID)
	})

	t.Run("registered event is sealed onto the chain", func(t *testing.T) {
		events, _, err := store.GetEvents(ctx, EventQueryFilter{})
		require.NoError(t, err)
		require.NotEmpty(t, events)

		first := events[0]
		assert.Equal(t, uint64(domain.FIRST_EVENT_SEQUENCE), first.ID)
		assert.Equal(t, domain.EventKindRegistered, first.Kind)
		assert.Equal(t, domain.GENESIS_EVENT_HASH, first.PrevHash)
		assert.NotEmpty(t, first.Hash)
		assert.True(t, first.Timestamp.Equal(NormalizeTimestamp(testNow)))
	})
}

// =============================================================================
// Test: UpdateProperty
// =============================================================================

func testUpdateProperty(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("unknown id returns not found", func(t *testing.T) {
		_, _, err := store.UpdateProperty(ctx, 42, listMutator(10, testNow))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
	})

	t.Run("save and append are committed together", func(t *testing.T) {
		property := mustRegister(t, store, testOwner, "Harbour Road")

		updated, events, err := store.UpdateProperty(ctx, property.ID, listMutator(testPrice, testNow.Add(testOffset)))
		require.NoError(t, err)
		assert.True(t, updated.IsForSale)
		assert.Equal(t, big.NewInt(testPrice).String(), updated.Price)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventKindListed, events[0].Kind)
		require.NotNil(t, events[0].Price)
		assert.Equal(t, big.NewInt(testPrice).String(), *events[0].Price)

		stored, err := store.GetProperty(ctx, property.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, stored.IsForSale)
		assert.Equal(t, updated.Price, stored.Price)
	})

	t.Run("failed mutator leaves the property unchanged", func(t *testing.T) {
		property := mustRegister(t, store, testOwner, "Mill Lane")
		boom := errors.New("boom")

		_, _, err := store.UpdateProperty(ctx, property.ID, func(ctx context.Context, tx PropertyTx) error {
			if err := listMutator(5, testNow)(ctx, tx); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		stored, err := store.GetProperty(ctx, property.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsForSale)
		assert.Equal(t, "0", stored.Price)

		events, total, err := store.GetEvents(ctx, EventQueryFilter{PropertyID: &property.ID})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)
		assert.Equal(t, domain.EventKindRegistered, events[0].Kind)
	})

	t.Run("saving another property is rejected", func(t *testing.T) {
		property := mustRegister(t, store, testOwner, "Quay Street")

		_, _, err := store.UpdateProperty(ctx, property.ID, func(ctx context.Context, tx PropertyTx) error {
			other := tx.Property()
			other.ID++
			return tx.Save(ctx, other)
		})
		require.Error(t, err)
	})

	t.Run("unknown event kind is rejected", func(t *testing.T) {
		property := mustRegister(t, store, testOwner, "Dock Yard")

		_, _, err := store.UpdateProperty(ctx, property.ID, func(ctx context.Context, tx PropertyTx) error {
			return tx.AppendEvent(ctx, CreateLedgerEventInput{Kind: "burned", Timestamp: testNow})
		})
		require.Error(t, err)
	})
}

// =============================================================================
// Test: Transfer
// =============================================================================

func testTransfer(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("sale moves ownership and value", func(t *testing.T) {
		property := mustRegister(t, store, testOwner, "Orchard House")
		_, _, err := store.UpdateProperty(ctx, property.ID, listMutator(testPrice, testNow))
		require.NoError(t, err)
		_, err = store.CreditAccount(ctx, testBuyer, big.NewInt(testPrice*2))
		require.NoError(t, err)

		sold, events, err := store.UpdateProperty(ctx, property.ID, saleMutator(testBuyer, testNow))
		require.NoError(t, err)
		assert.Equal(t, testBuyer, sold.Owner)
		assert.False(t, sold.IsForSale)
		assert.Equal(t, "0", sold.Price)
		require.Len(t, events, 1)
		assert.Equal(t, testOwner, *events[0].Seller)
		assert.Equal(t, testBuyer, *events[0].Buyer)

		assert.Equal(t, big.NewInt(testPrice).String(), balanceOf(t, store, testBuyer))
		assert.Equal(t, big.NewInt(testPrice).String(), balanceOf(t, store, testOwner))
	})

	t.Run("insufficient funds rolls back the saved owner", func(t *testing.T) {
		property := mustRegister(t, store, testOwner, "Old Forge")
		_, _, err := store.UpdateProperty(ctx, property.ID, listMutator(testPrice, testNow))
		require.NoError(t, err)

		_, _, err = store.UpdateProperty(ctx, property.ID, saleMutator(testOther, testNow))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		stored, err := store.GetProperty(ctx, property.ID)
		require.NoError(t, err)
		assert.Equal(t, testOwner, stored.Owner)
		assert.True(t, stored.IsForSale)
		assert.Equal(t, "0", balanceOf(t, store, testOther))
	})

	t.Run("frozen recipient rejects the transfer", func(t *testing.T) {
		property := mustRegister(t, store, testOther, "Chapel Row")
		_, _, err := store.UpdateProperty(ctx, property.ID, listMutator(100, testNow))
		require.NoError(t, err)
		_, err = store.CreditAccount(ctx, testBuyer, big.NewInt(100))
		require.NoError(t, err)
		_, err = store.SetAccountFrozen(ctx, testOther, true)
		require.NoError(t, err)

		before := balanceOf(t, store, testBuyer)
		_, _, err = store.UpdateProperty(ctx, property.ID, saleMutator(testBuyer, testNow))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransferRejected)

		stored, err := store.GetProperty(ctx, property.ID)
		require.NoError(t, err)
		assert.Equal(t, testOther, stored.Owner)
		assert.Equal(t, before, balanceOf(t, store, testBuyer))
	})

	t.Run("failure after transfer restores balances", func(t *testing.T) {
		property := mustRegister(t, store, testOwner, "Tannery")
		_, err := store.CreditAccount(ctx, testOther, big.NewInt(50))
		require.NoError(t, err)
		ownerBefore := balanceOf(t, store, testOwner)
		boom := errors.New("boom")

		_, _, err = store.UpdateProperty(ctx, property.ID, func(ctx context.Context, tx PropertyTx) error {
			if err := tx.Transfer(ctx, testOther, testOwner, big.NewInt(50)); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, "50", balanceOf(t, store, testOther))
		assert.Equal(t, ownerBefore, balanceOf(t, store, testOwner))
	})

	t.Run("invalid transfers are rejected", func(t *testing.T) {
		property := mustRegister(t, store, testOwner, "Lock Keeper's Cottage")

		_, _, err := store.UpdateProperty(ctx, property.ID, func(ctx context.Context, tx PropertyTx) error {
			return tx.Transfer(ctx, testOwner, testBuyer, big.NewInt(0))
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, _, err = store.UpdateProperty(ctx, property.ID, func(ctx context.Context, tx PropertyTx) error {
			return tx.Transfer(ctx, testOwner, testOwner, big.NewInt(1))
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	})
}

// =============================================================================
// Test: GetProperties
// =============================================================================

func testGetProperties(t *testing.T, store Store) {
	ctx := context.Background()

	p0 := mustRegister(t, store, testOwner, "A")
	mustRegister(t, store, testBuyer, "B")
	p2 := mustRegister(t, store, testOwner, "C")
	_, _, err := store.UpdateProperty(ctx, p2.ID, listMutator(7, testNow))
	require.NoError(t, err)

	t.Run("no filter returns everything in id order", func(t *testing.T) {
		properties, total, err := store.GetProperties(ctx, PropertyQueryFilter{})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), total)
		require.Len(t, properties, 3)
		assert.Equal(t, p0.ID, properties[0].ID)
	})

	t.Run("owner filter", func(t *testing.T) {
		properties, total, err := store.GetProperties(ctx, PropertyQueryFilter{Owner: strPtr(testOwner)})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), total)
		for _, p := range properties {
			assert.Equal(t, testOwner, p.Owner)
		}
	})

	t.Run("for sale filter", func(t *testing.T) {
		forSale := true
		properties, total, err := store.GetProperties(ctx, PropertyQueryFilter{ForSale: &forSale})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)
		require.Len(t, properties, 1)
		assert.Equal(t, p2.ID, properties[0].ID)
	})

	t.Run("pagination with descending order", func(t *testing.T) {
		properties, total, err := store.GetProperties(ctx, PropertyQueryFilter{Limit: 1, Offset: 1, OrderDesc: true})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), total)
		require.Len(t, properties, 1)
		assert.Equal(t, uint64(1), properties[0].ID)
	})

	t.Run("offset beyond int range returns an empty page", func(t *testing.T) {
		properties, total, err := store.GetProperties(ctx, PropertyQueryFilter{Offset: math.MaxUint64})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), total)
		assert.Empty(t, properties)
	})

	t.Run("missing property returns nil", func(t *testing.T) {
		property, err := store.GetProperty(ctx, 99)
		require.NoError(t, err)
		assert.Nil(t, property)
	})
}

// =============================================================================
// Test: GetEvents
// =============================================================================

func testGetEvents(t *testing.T, store Store) {
	ctx := context.Background()

	p0 := mustRegister(t, store, testOwner, "A")
	p1 := mustRegister(t, store, testOther, "B")
	_, _, err := store.UpdateProperty(ctx, p0.ID, listMutator(testPrice, testNow.Add(testOffset)))
	require.NoError(t, err)
	_, err = store.CreditAccount(ctx, testBuyer, big.NewInt(testPrice))
	require.NoError(t, err)
	_, _, err = store.UpdateProperty(ctx, p0.ID, saleMutator(testBuyer, testNow.Add(2*testOffset)))
	require.NoError(t, err)

	t.Run("all events in sequence order", func(t *testing.T) {
		events, total, err := store.GetEvents(ctx, EventQueryFilter{})
		require.NoError(t, err)
		assert.Equal(t, uint64(4), total)
		require.Len(t, events, 4)
		for i := 1; i < len(events); i++ {
			assert.Equal(t, events[i-1].ID+1, events[i].ID)
			assert.Equal(t, events[i-1].Hash, events[i].PrevHash)
		}
	})

	t.Run("kind filter", func(t *testing.T) {
		events, total, err := store.GetEvents(ctx, EventQueryFilter{Kinds: []domain.EventKind{domain.EventKindSold}})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)
		assert.Equal(t, domain.EventKindSold, events[0].Kind)
	})

	t.Run("property filter", func(t *testing.T) {
		_, total, err := store.GetEvents(ctx, EventQueryFilter{PropertyID: &p1.ID})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)
	})

	t.Run("address filter matches any party", func(t *testing.T) {
		events, total, err := store.GetEvents(ctx, EventQueryFilter{Address: strPtr(testBuyer)})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)
		assert.Equal(t, domain.EventKindSold, events[0].Kind)

		_, total, err = store.GetEvents(ctx, EventQueryFilter{Address: strPtr(testOwner)})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), total)
	})

	t.Run("time range filter", func(t *testing.T) {
		since := testNow.Add(testOffset)
		until := testNow.Add(testOffset)
		events, total, err := store.GetEvents(ctx, EventQueryFilter{Since: &since, Until: &until})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), total)
		assert.Equal(t, domain.EventKindListed, events[0].Kind)
	})

	t.Run("after cursor", func(t *testing.T) {
		after := uint64(domain.FIRST_EVENT_SEQUENCE + 1)
		events, total, err := store.GetEvents(ctx, EventQueryFilter{AfterID: &after, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), total)
		require.Len(t, events, 1)
		assert.Equal(t, after+1, events[0].ID)
	})

	t.Run("descending order with offset", func(t *testing.T) {
		events, _, err := store.GetEvents(ctx, EventQueryFilter{OrderDesc: true, Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, domain.EventKindListed, events[0].Kind)
		assert.Greater(t, events[0].ID, events[1].ID)
	})

	t.Run("offset beyond int range returns an empty page", func(t *testing.T) {
		events, total, err := store.GetEvents(ctx, EventQueryFilter{Offset: math.MaxUint64 - 1})
		require.NoError(t, err)
		assert.NotZero(t, total)
		assert.Empty(t, events)
	})

	t.Run("latest event is the sale", func(t *testing.T) {
		head, err := store.GetLatestEvent(ctx)
		require.NoError(t, err)
		require.NotNil(t, head)
		assert.Equal(t, domain.EventKindSold, head.Kind)
	})

	t.Run("stored hashes recompute", func(t *testing.T) {
		sealer := defaultEventSealer()
		events, _, err := store.GetEvents(ctx, EventQueryFilter{})
		require.NoError(t, err)

		prev := domain.GENESIS_EVENT_HASH
		for i := range events {
			hash, err := sealer.Hash(prev, &events[i])
			require.NoError(t, err)
			assert.Equal(t, events[i].Hash, hash, "event %d", events[i].ID)
			prev = events[i].Hash
		}
	})
}

// =============================================================================
// Test: Accounts
// =============================================================================

func testAccounts(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("unknown account is nil", func(t *testing.T) {
		account, err := store.GetAccount(ctx, testOther)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("credits accumulate", func(t *testing.T) {
		_, err := store.CreditAccount(ctx, testBuyer, big.NewInt(30))
		require.NoError(t, err)
		account, err := store.CreditAccount(ctx, testBuyer, big.NewInt(12))
		require.NoError(t, err)
		assert.Equal(t, "42", account.Balance)
		assert.False(t, account.Frozen)
	})

	t.Run("non-positive credit is rejected", func(t *testing.T) {
		_, err := store.CreditAccount(ctx, testBuyer, big.NewInt(0))
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("freeze creates and toggles the account", func(t *testing.T) {
		account, err := store.SetAccountFrozen(ctx, testOwner, true)
		require.NoError(t, err)
		assert.True(t, account.Frozen)
		assert.Equal(t, "0", account.Balance)

		account, err = store.SetAccountFrozen(ctx, testOwner, false)
		require.NoError(t, err)
		assert.False(t, account.Frozen)
	})
}

// =============================================================================
// Test: KeyValueStore
// =============================================================================

func testKeyValueStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("missing key returns empty", func(t *testing.T) {
		value, err := store.GetKeyValue(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("set then overwrite", func(t *testing.T) {
		require.NoError(t, store.SetKeyValue(ctx, "key", "one"))
		require.NoError(t, store.SetKeyValue(ctx, "key", "two"))
		value, err := store.GetKeyValue(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, "two", value)
	})

	t.Run("set if absent keeps the first value", func(t *testing.T) {
		value, err := store.SetKeyValueIfAbsent(ctx, domain.LEDGER_INSTANCE_ID_KEY, "first")
		require.NoError(t, err)
		assert.Equal(t, "first", value)

		value, err = store.SetKeyValueIfAbsent(ctx, domain.LEDGER_INSTANCE_ID_KEY, "second")
		require.NoError(t, err)
		assert.Equal(t, "first", value)
	})

	t.Run("event cursor round trip", func(t *testing.T) {
		cursors := NewCursorStore(store)
		cursor, err := cursors.GetEventCursor(ctx, domain.RELAY_CURSOR_KEY)
		require.NoError(t, err)
		assert.Zero(t, cursor)

		require.NoError(t, cursors.SetEventCursor(ctx, domain.RELAY_CURSOR_KEY, 17))
		cursor, err = cursors.GetEventCursor(ctx, domain.RELAY_CURSOR_KEY)
		require.NoError(t, err)
		assert.Equal(t, uint64(17), cursor)
	})
}

// RunStoreTests runs all store tests against a store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"CreateProperty", testCreateProperty},
		{"UpdateProperty", testUpdateProperty},
		{"Transfer", testTransfer},
		{"GetProperties", testGetProperties},
		{"GetEvents", testGetEvents},
		{"Accounts", testAccounts},
		{"KeyValueStore", testKeyValueStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
