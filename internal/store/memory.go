package store

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/store/schema"
)

// memoryStore keeps the ledger in process memory.
// Row locks are mirrored by keyed mutexes held for the whole unit of work,
// and staged writes are applied under the write side of mu so readers never see half an update.
type memoryStore struct {
	mu         sync.RWMutex
	locks      *keyedLocks
	sealer     *EventSealer
	properties []schema.Property
	events     []schema.LedgerEvent
	accounts   map[string]schema.Account
	kv         map[string]schema.KeyValueStore
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() Store {
	return &memoryStore{
		locks:    newKeyedLocks(),
		sealer:   defaultEventSealer(),
		accounts: make(map[string]schema.Account),
		kv:       make(map[string]schema.KeyValueStore),
	}
}

func propertyLockKey(id uint64) string {
	return "property:" + strconv.FormatUint(id, 10)
}

func accountLockKey(address string) string {
	return "account:" + address
}

func counterLockKey(name string) string {
	return "counter:" + name
}

// =============================================================================
// Properties
// =============================================================================

// CreateProperty reserves the next id under the counter lock and commits the property with its events
func (s *memoryStore) CreateProperty(ctx context.Context, input CreatePropertyInput, mutate PropertyMutator) (*schema.Property, []schema.LedgerEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	held := s.locks.session()
	defer held.release()
	held.lock(counterLockKey(domain.PROPERTY_COUNTER_NAME))

	s.mu.RLock()
	id := uint64(len(s.properties)) + domain.FIRST_PROPERTY_ID
	s.mu.RUnlock()
	held.lock(propertyLockKey(id))

	createdAt := NormalizeTimestamp(input.CreatedAt)
	property := schema.Property{
		ID:           id,
		Owner:        input.Owner,
		OwnerName:    input.OwnerName,
		Location:     input.Location,
		DocumentHash: input.DocumentHash,
		Price:        "0",
		IsForSale:    false,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	ptx := newMemoryPropertyTx(s, held, property)
	if err := mutate(ctx, ptx); err != nil {
		return nil, nil, err
	}

	events, err := s.commit(ptx, true)
	if err != nil {
		return nil, nil, err
	}

	result := ptx.property
	return &result, events, nil
}

// UpdateProperty holds the property lock while the mutator runs, then commits its staged writes
func (s *memoryStore) UpdateProperty(ctx context.Context, id uint64, mutate PropertyMutator) (*schema.Property, []schema.LedgerEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	held := s.locks.session()
	defer held.release()
	held.lock(propertyLockKey(id))

	s.mu.RLock()
	if id >= uint64(len(s.properties)) {
		s.mu.RUnlock()
		return nil, nil, domain.Wrapf(domain.ErrPropertyNotFound, "property %d", id)
	}
	property := s.properties[id]
	s.mu.RUnlock()

	ptx := newMemoryPropertyTx(s, held, property)
	if err := mutate(ctx, ptx); err != nil {
		return nil, nil, err
	}

	events, err := s.commit(ptx, false)
	if err != nil {
		return nil, nil, err
	}

	result := ptx.property
	return &result, events, nil
}

// commit applies everything a property transaction staged in one step
func (s *memoryStore) commit(ptx *memoryPropertyTx, created bool) ([]schema.LedgerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevHash := domain.GENESIS_EVENT_HASH
	if n := len(s.events); n > 0 {
		prevHash = s.events[n-1].Hash
	}
	next := uint64(len(s.events)) + domain.FIRST_EVENT_SEQUENCE

	events := make([]schema.LedgerEvent, 0, len(ptx.events))
	for i := range ptx.events {
		event := ptx.events[i]
		event.ID = next + uint64(i) //nolint:gosec,G115
		event.CreatedAt = time.Now().UTC()
		if err := s.sealer.Seal(prevHash, &event); err != nil {
			return nil, err
		}
		prevHash = event.Hash
		events = append(events, event)
	}

	if created {
		s.properties = append(s.properties, ptx.property)
	} else {
		s.properties[ptx.property.ID] = ptx.property
	}
	for address, account := range ptx.accounts {
		s.accounts[address] = account
	}
	s.events = append(s.events, events...)

	return slices.Clone(events), nil
}

// GetProperty retrieves a property by id
func (s *memoryStore) GetProperty(ctx context.Context, id uint64) (*schema.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id >= uint64(len(s.properties)) {
		return nil, nil
	}
	property := s.properties[id]
	return &property, nil
}

// GetPropertyCount returns the number of registered properties
func (s *memoryStore) GetPropertyCount(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.properties)), nil
}

// GetProperties lists properties with filters and pagination
func (s *memoryStore) GetProperties(ctx context.Context, filter PropertyQueryFilter) ([]schema.Property, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []schema.Property
	for _, property := range s.properties {
		if filter.Owner != nil && property.Owner != *filter.Owner {
			continue
		}
		if filter.ForSale != nil && property.IsForSale != *filter.ForSale {
			continue
		}
		matched = append(matched, property)
	}
	if filter.OrderDesc {
		slices.Reverse(matched)
	}

	return paginate(matched, filter.Limit, filter.Offset), uint64(len(matched)), nil
}

// =============================================================================
// Events
// =============================================================================

// GetEvents retrieves ledger events with filters and pagination
func (s *memoryStore) GetEvents(ctx context.Context, filter EventQueryFilter) ([]schema.LedgerEvent, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []schema.LedgerEvent
	for _, event := range s.events {
		if matchEvent(event, filter) {
			matched = append(matched, event)
		}
	}
	if filter.OrderDesc {
		slices.Reverse(matched)
	}

	return paginate(matched, filter.Limit, filter.Offset), uint64(len(matched)), nil
}

// GetLatestEvent retrieves the head of the event log
func (s *memoryStore) GetLatestEvent(ctx context.Context) (*schema.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) == 0 {
		return nil, nil
	}
	event := s.events[len(s.events)-1]
	return &event, nil
}

func matchEvent(event schema.LedgerEvent, filter EventQueryFilter) bool {
	if len(filter.Kinds) > 0 && !slices.Contains(filter.Kinds, event.Kind) {
		return false
	}
	if filter.PropertyID != nil && event.PropertyID != *filter.PropertyID {
		return false
	}
	if filter.Address != nil {
		address := *filter.Address
		if !equalPtr(event.Owner, address) && !equalPtr(event.Seller, address) && !equalPtr(event.Buyer, address) {
			return false
		}
	}
	if filter.Since != nil && event.Timestamp.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && event.Timestamp.After(*filter.Until) {
		return false
	}
	if filter.AfterID != nil && event.ID <= *filter.AfterID {
		return false
	}
	return true
}

func equalPtr(value *string, expected string) bool {
	return value != nil && *value == expected
}

func paginate[T any](items []T, limit int, offset uint64) []T {
	if offset >= uint64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return slices.Clone(items)
}

// =============================================================================
// Accounts
// =============================================================================

// GetAccount retrieves an account by address
func (s *memoryStore) GetAccount(ctx context.Context, address string) (*schema.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[address]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

// CreditAccount adds amount wei to an account, creating it when needed
func (s *memoryStore) CreditAccount(ctx context.Context, address string, amount *big.Int) (*schema.Account, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.Wrap(domain.ErrInvalidAmount, "credit must be greater than zero")
	}

	held := s.locks.session()
	defer held.release()
	held.lock(accountLockKey(address))

	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.loadAccount(address)
	balance, err := domain.ParseDecimalWei(account.Balance)
	if err != nil {
		return nil, err
	}
	balance.Add(balance, amount)
	if balance.Cmp(math.MaxBig256) > 0 {
		return nil, domain.Wrap(domain.ErrInvalidAmount, "balance exceeds 256 bits")
	}

	account.Balance = balance.String()
	account.UpdatedAt = time.Now().UTC()
	s.accounts[address] = account

	return &account, nil
}

// SetAccountFrozen marks an account as rejecting (or accepting) incoming value
func (s *memoryStore) SetAccountFrozen(ctx context.Context, address string, frozen bool) (*schema.Account, error) {
	held := s.locks.session()
	defer held.release()
	held.lock(accountLockKey(address))

	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.loadAccount(address)
	account.Frozen = frozen
	account.UpdatedAt = time.Now().UTC()
	s.accounts[address] = account

	return &account, nil
}

// loadAccount returns the stored account or a fresh zero-balance one; callers hold mu
func (s *memoryStore) loadAccount(address string) schema.Account {
	if account, ok := s.accounts[address]; ok {
		return account
	}
	now := time.Now().UTC()
	return schema.Account{
		Address:   address,
		Balance:   "0",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// Key-value store
// =============================================================================

// GetKeyValue retrieves a value by key
func (s *memoryStore) GetKeyValue(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.kv[key].Value, nil
}

// SetKeyValue stores a value by key
func (s *memoryStore) SetKeyValue(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	kv, ok := s.kv[key]
	if !ok {
		kv = schema.KeyValueStore{Key: key, CreatedAt: now}
	}
	kv.Value = value
	kv.UpdatedAt = now
	s.kv[key] = kv

	return nil
}

// SetKeyValueIfAbsent stores a value only when the key is missing and returns the stored value
func (s *memoryStore) SetKeyValueIfAbsent(ctx context.Context, key string, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kv, ok := s.kv[key]; ok {
		return kv.Value, nil
	}

	now := time.Now().UTC()
	s.kv[key] = schema.KeyValueStore{Key: key, Value: value, CreatedAt: now, UpdatedAt: now}
	return value, nil
}

// =============================================================================
// Property transaction
// =============================================================================

type memoryPropertyTx struct {
	store    *memoryStore
	held     *lockSession
	property schema.Property
	accounts map[string]schema.Account
	events   []schema.LedgerEvent
}

func newMemoryPropertyTx(store *memoryStore, held *lockSession, property schema.Property) *memoryPropertyTx {
	return &memoryPropertyTx{
		store:    store,
		held:     held,
		property: property,
		accounts: make(map[string]schema.Account),
	}
}

func (t *memoryPropertyTx) Property() schema.Property {
	return t.property
}

func (t *memoryPropertyTx) Save(ctx context.Context, property schema.Property) error {
	if property.ID != t.property.ID {
		return fmt.Errorf("cannot save property %d from the unit of work of property %d", property.ID, t.property.ID)
	}

	t.property.Owner = property.Owner
	t.property.Price = property.Price
	t.property.IsForSale = property.IsForSale
	t.property.UpdatedAt = NormalizeTimestamp(property.UpdatedAt)
	return nil
}

// Transfer locks both accounts in address order and stages the new balances
func (t *memoryPropertyTx) Transfer(ctx context.Context, from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.Wrap(domain.ErrInvalidAmount, "transfer must be greater than zero")
	}
	if from == to {
		return domain.Wrap(domain.ErrInvalidAddress, "transfer to the paying account")
	}

	addresses := []string{from, to}
	sort.Strings(addresses)
	for _, address := range addresses {
		t.held.lock(accountLockKey(address))
	}

	payer := t.account(from)
	payee := t.account(to)

	balance, err := domain.ParseDecimalWei(payer.Balance)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return domain.Wrapf(domain.ErrInsufficientFunds, "%s holds %s wei, needs %s wei", from, balance, amount)
	}
	if payee.Frozen {
		return domain.Wrapf(domain.ErrTransferRejected, "account %s is frozen", to)
	}

	received, err := domain.ParseDecimalWei(payee.Balance)
	if err != nil {
		return err
	}
	received.Add(received, amount)
	if received.Cmp(math.MaxBig256) > 0 {
		return domain.Wrapf(domain.ErrTransferRejected, "account %s balance would exceed 256 bits", to)
	}

	now := time.Now().UTC()
	payer.Balance = balance.Sub(balance, amount).String()
	payer.UpdatedAt = now
	payee.Balance = received.String()
	payee.UpdatedAt = now

	t.accounts[from] = payer
	t.accounts[to] = payee
	return nil
}

// account returns the staged account, falling back to the committed one
func (t *memoryPropertyTx) account(address string) schema.Account {
	if account, ok := t.accounts[address]; ok {
		return account
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.loadAccount(address)
}

func (t *memoryPropertyTx) AppendEvent(ctx context.Context, input CreateLedgerEventInput) error {
	event, err := newLedgerEvent(t.property.ID, input)
	if err != nil {
		return err
	}
	t.events = append(t.events, event)
	return nil
}

// =============================================================================
// Keyed locks
// =============================================================================

// keyedLocks hands out one mutex per key. Entries are reference counted and
// dropped once nobody holds or waits on them.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*keyedLock)}
}

func (k *keyedLocks) acquire(key string) *keyedLock {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &keyedLock{}
		k.locks[key] = lock
	}
	lock.refs++
	k.mu.Unlock()

	lock.Lock()
	return lock
}

func (k *keyedLocks) release(key string, lock *keyedLock) {
	lock.Unlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *keyedLocks) session() *lockSession {
	return &lockSession{locks: k, held: make(map[string]*keyedLock)}
}

// lockSession tracks the keys one unit of work holds; locking a held key is a no-op
type lockSession struct {
	locks *keyedLocks
	held  map[string]*keyedLock
	order []string
}

func (l *lockSession) lock(key string) {
	if _, ok := l.held[key]; ok {
		return
	}
	l.held[key] = l.locks.acquire(key)
	l.order = append(l.order, key)
}

func (l *lockSession) release() {
	for i := len(l.order) - 1; i >= 0; i-- {
		key := l.order[i]
		l.locks.release(key, l.held[key])
	}
	l.held = make(map[string]*keyedLock)
	l.order = nil
}
