package store

import (
	"context"
	"math/big"
	"time"

	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/store/schema"
)

// PropertyMutator runs inside the unit of work that owns a single property.
// Returning an error rolls back everything the mutator did, including staged events and transfers.
type PropertyMutator func(ctx context.Context, tx PropertyTx) error

// PropertyTx is the view of a locked property handed to a PropertyMutator
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore,PropertyTx=MockPropertyTx
type PropertyTx interface {
	// Property returns the current (possibly already saved) state of the locked property
	Property() schema.Property
	// Save persists the mutable fields of the property (owner, price, is_for_sale, updated_at)
	Save(ctx context.Context, property schema.Property) error
	// Transfer moves amount wei from one account to another inside the same unit of work
	Transfer(ctx context.Context, from, to string, amount *big.Int) error
	// AppendEvent stages an event for the locked property; events are sequenced and hashed at commit
	AppendEvent(ctx context.Context, input CreateLedgerEventInput) error
}

// CreatePropertyInput represents the immutable fields of a new property
type CreatePropertyInput struct {
	Owner        string
	OwnerName    string
	Location     string
	DocumentHash string
	CreatedAt    time.Time
}

// CreateLedgerEventInput represents an event to append for the property held by a PropertyTx
type CreateLedgerEventInput struct {
	Kind      domain.EventKind
	Owner     *string
	Seller    *string
	Buyer     *string
	Price     *big.Int
	Payload   []byte
	Timestamp time.Time
}

// PropertyQueryFilter represents filters for property listing
type PropertyQueryFilter struct {
	Owner     *string
	ForSale   *bool
	Limit     int
	Offset    uint64
	OrderDesc bool
}

// EventQueryFilter represents filters for event queries
type EventQueryFilter struct {
	Kinds      []domain.EventKind
	PropertyID *uint64
	// Address matches any party of the event (owner, seller or buyer)
	Address *string
	Since   *time.Time
	Until   *time.Time
	// AfterID returns only events with a sequence strictly greater than the value
	AfterID *uint64
	// Limit <= 0 returns every matching event
	Limit     int
	Offset    uint64
	OrderDesc bool
}

// Store defines the interface for ledger persistence
type Store interface {
	// CreateProperty assigns the next property id, inserts the property and runs the mutator in one unit of work
	CreateProperty(ctx context.Context, input CreatePropertyInput, mutate PropertyMutator) (*schema.Property, []schema.LedgerEvent, error)
	// UpdateProperty locks the property and runs the mutator; updates of the same id never interleave
	UpdateProperty(ctx context.Context, id uint64, mutate PropertyMutator) (*schema.Property, []schema.LedgerEvent, error)
	// GetProperty retrieves a property by id, nil if it does not exist
	GetProperty(ctx context.Context, id uint64) (*schema.Property, error)
	// GetPropertyCount returns the number of registered properties
	GetPropertyCount(ctx context.Context) (uint64, error)
	// GetProperties lists properties with filters and pagination
	GetProperties(ctx context.Context, filter PropertyQueryFilter) ([]schema.Property, uint64, error)

	// GetEvents retrieves ledger events with filters and pagination
	GetEvents(ctx context.Context, filter EventQueryFilter) ([]schema.LedgerEvent, uint64, error)
	// GetLatestEvent retrieves the head of the event log, nil if the log is empty
	GetLatestEvent(ctx context.Context) (*schema.LedgerEvent, error)

	// GetAccount retrieves an account, nil if the address never held funds
	GetAccount(ctx context.Context, address string) (*schema.Account, error)
	// CreditAccount adds amount wei to an account, creating it when needed
	CreditAccount(ctx context.Context, address string, amount *big.Int) (*schema.Account, error)
	// SetAccountFrozen marks an account as rejecting (or accepting) incoming value
	SetAccountFrozen(ctx context.Context, address string, frozen bool) (*schema.Account, error)

	// GetKeyValue retrieves a value by key, empty string if missing
	GetKeyValue(ctx context.Context, key string) (string, error)
	// SetKeyValue stores a value by key
	SetKeyValue(ctx context.Context, key string, value string) error
	// SetKeyValueIfAbsent stores a value only when the key is missing and returns the stored value
	SetKeyValueIfAbsent(ctx context.Context, key string, value string) (string, error)
}
