package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/store/schema"
)

// pgErrNumericOverflow is the SQLSTATE raised when a value exceeds numeric(78,0)
const pgErrNumericOverflow = "22003"

type pgStore struct {
	db     *gorm.DB
	sealer *EventSealer
}

func hasDBResolver(db *gorm.DB) bool {
	return db != nil && db.Callback().Query().Get("gorm:db_resolver") != nil
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db, sealer: defaultEventSealer()}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// Migrate creates or updates the ledger tables from the schema models
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(schema.Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// =============================================================================
// Properties
// =============================================================================

// CreateProperty assigns the next property id, inserts the property and runs the mutator in one transaction
func (s *pgStore) CreateProperty(ctx context.Context, input CreatePropertyInput, mutate PropertyMutator) (*schema.Property, []schema.LedgerEvent, error) {
	var property schema.Property
	var events []schema.LedgerEvent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the property counter; concurrent registrations queue here so ids stay dense
		counter, err := lockCounter(tx, domain.PROPERTY_COUNTER_NAME, domain.FIRST_PROPERTY_ID)
		if err != nil {
			return err
		}

		// 2. Insert the property with the reserved id
		createdAt := NormalizeTimestamp(input.CreatedAt)
		property = schema.Property{
			ID:           counter.NextValue,
			Owner:        input.Owner,
			OwnerName:    input.OwnerName,
			Location:     input.Location,
			DocumentHash: input.DocumentHash,
			Price:        "0",
			IsForSale:    false,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}
		if err := tx.Create(&property).Error; err != nil {
			return fmt.Errorf("failed to create property: %w", err)
		}

		// 3. Run the mutator against the new row
		ptx := &pgPropertyTx{db: tx, property: property}
		if err := mutate(ctx, ptx); err != nil {
			return err
		}
		property = ptx.property

		// 4. Consume the id only now that everything else succeeded
		if err := advanceCounter(tx, counter, 1); err != nil {
			return err
		}

		// 5. Sequence and seal the staged events
		events, err = s.appendEvents(tx, ptx.events)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return &property, events, nil
}

// UpdateProperty locks the property row and runs the mutator in one transaction
func (s *pgStore) UpdateProperty(ctx context.Context, id uint64, mutate PropertyMutator) (*schema.Property, []schema.LedgerEvent, error) {
	var property schema.Property
	var events []schema.LedgerEvent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the row for update so mutations of the same id are serialized
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&property).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.Wrapf(domain.ErrPropertyNotFound, "property %d", id)
			}
			return fmt.Errorf("failed to lock property: %w", err)
		}

		ptx := &pgPropertyTx{db: tx, property: property}
		if err := mutate(ctx, ptx); err != nil {
			return err
		}
		property = ptx.property

		events, err = s.appendEvents(tx, ptx.events)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return &property, events, nil
}

// GetProperty retrieves a property by id
func (s *pgStore) GetProperty(ctx context.Context, id uint64) (*schema.Property, error) {
	var property schema.Property

	query := func(db *gorm.DB) error {
		return db.WithContext(ctx).Where("id = ?", id).First(&property).Error
	}

	err := query(s.db)
	if err == nil {
		return &property, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if !hasDBResolver(s.db) {
		return nil, nil
	}

	// Replica can lag behind primary; retry on primary before returning nil.
	err = query(s.db.Clauses(dbresolver.Write))
	if err == nil {
		return &property, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to get property: %w", err)
}

// GetPropertyCount returns the number of registered properties
func (s *pgStore) GetPropertyCount(ctx context.Context) (uint64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&schema.Property{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return uint64(count), nil //nolint:gosec,G115
}

// GetProperties lists properties with filters and pagination
func (s *pgStore) GetProperties(ctx context.Context, filter PropertyQueryFilter) ([]schema.Property, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Property{})

	if filter.Owner != nil {
		query = query.Where("owner = ?", *filter.Owner)
	}
	if filter.ForSale != nil {
		query = query.Where("is_for_sale = ?", *filter.ForSale)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	if filter.OrderDesc {
		query = query.Order("id DESC")
	} else {
		query = query.Order("id ASC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(sqlOffset(filter.Offset))
	}

	var properties []schema.Property
	if err := query.Find(&properties).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get properties: %w", err)
	}

	return properties, uint64(total), nil //nolint:gosec,G115
}

// =============================================================================
// Events
// =============================================================================

// GetEvents retrieves ledger events with filters and pagination
func (s *pgStore) GetEvents(ctx context.Context, filter EventQueryFilter) ([]schema.LedgerEvent, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.LedgerEvent{})

	if len(filter.Kinds) > 0 {
		query = query.Where("kind IN ?", filter.Kinds)
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Address != nil {
		query = query.Where("owner = ? OR seller = ? OR buyer = ?", *filter.Address, *filter.Address, *filter.Address)
	}
	if filter.Since != nil {
		query = query.Where("timestamp >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("timestamp <= ?", *filter.Until)
	}
	if filter.AfterID != nil {
		query = query.Where("id > ?", *filter.AfterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	if filter.OrderDesc {
		query = query.Order("id DESC")
	} else {
		query = query.Order("id ASC")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(sqlOffset(filter.Offset))
	}

	var events []schema.LedgerEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get events: %w", err)
	}

	return events, uint64(total), nil //nolint:gosec,G115
}

// GetLatestEvent retrieves the head of the event log
func (s *pgStore) GetLatestEvent(ctx context.Context) (*schema.LedgerEvent, error) {
	var event schema.LedgerEvent
	err := s.db.WithContext(ctx).Order("id DESC").First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest event: %w", err)
	}
	return &event, nil
}

// appendEvents sequences, seals and inserts staged events.
// The event counter is the last lock a transaction takes, so sequence order equals commit order.
func (s *pgStore) appendEvents(tx *gorm.DB, staged []schema.LedgerEvent) ([]schema.LedgerEvent, error) {
	if len(staged) == 0 {
		return nil, nil
	}

	counter, err := lockCounter(tx, domain.EVENT_COUNTER_NAME, domain.FIRST_EVENT_SEQUENCE)
	if err != nil {
		return nil, err
	}

	prevHash := domain.GENESIS_EVENT_HASH
	if counter.NextValue > domain.FIRST_EVENT_SEQUENCE {
		var head schema.LedgerEvent
		err := tx.Select("hash").Where("id = ?", counter.NextValue-1).First(&head).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get event log head: %w", err)
		}
		prevHash = head.Hash
	}

	events := make([]schema.LedgerEvent, 0, len(staged))
	for i := range staged {
		event := staged[i]
		event.ID = counter.NextValue + uint64(i) //nolint:gosec,G115
		if err := s.sealer.Seal(prevHash, &event); err != nil {
			return nil, err
		}
		prevHash = event.Hash
		events = append(events, event)
	}

	if err := tx.Create(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to append events: %w", err)
	}

	if err := advanceCounter(tx, counter, uint64(len(events))); err != nil {
		return nil, err
	}

	return events, nil
}

// =============================================================================
// Accounts
// =============================================================================

// GetAccount retrieves an account by address
func (s *pgStore) GetAccount(ctx context.Context, address string) (*schema.Account, error) {
	var account schema.Account
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// CreditAccount adds amount wei to an account, creating it when needed
func (s *pgStore) CreditAccount(ctx context.Context, address string, amount *big.Int) (*schema.Account, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.Wrap(domain.ErrInvalidAmount, "credit must be greater than zero")
	}

	var account schema.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance":    gorm.Expr("accounts.balance + EXCLUDED.balance"),
				"updated_at": gorm.Expr("now()"),
			}),
		}).Create(&schema.Account{
			Address: address,
			Balance: amount.String(),
		}).Error
		if err != nil {
			if isNumericOverflow(err) {
				return domain.Wrap(domain.ErrInvalidAmount, "balance exceeds 256 bits")
			}
			return fmt.Errorf("failed to credit account: %w", err)
		}

		if err := tx.Where("address = ?", address).First(&account).Error; err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// SetAccountFrozen marks an account as rejecting (or accepting) incoming value
func (s *pgStore) SetAccountFrozen(ctx context.Context, address string, frozen bool) (*schema.Account, error) {
	var account schema.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "address"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"frozen":     frozen,
				"updated_at": gorm.Expr("now()"),
			}),
		}).Create(&schema.Account{
			Address: address,
			Balance: "0",
			Frozen:  frozen,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to set account frozen: %w", err)
		}

		if err := tx.Where("address = ?", address).First(&account).Error; err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// =============================================================================
// Key-value store
// =============================================================================

// SetKeyValue stores a key-value pair in the key-value store
func (s *pgStore) SetKeyValue(ctx context.Context, key string, value string) error {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}

	err := s.db.WithContext(ctx).Save(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set key-value: %w", err)
	}

	return nil
}

// GetKeyValue retrieves a value by key from the key-value store
func (s *pgStore) GetKeyValue(ctx context.Context, key string) (string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get key-value: %w", err)
	}

	return kv.Value, nil
}

// SetKeyValueIfAbsent stores a value only when the key is missing and returns the stored value
func (s *pgStore) SetKeyValueIfAbsent(ctx context.Context, key string, value string) (string, error) {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&schema.KeyValueStore{Key: key, Value: value}).Error
	if err != nil {
		return "", fmt.Errorf("failed to set key-value: %w", err)
	}

	db := s.db
	if hasDBResolver(s.db) {
		db = s.db.Clauses(dbresolver.Write)
	}

	var kv schema.KeyValueStore
	if err := db.WithContext(ctx).Where("key = ?", key).First(&kv).Error; err != nil {
		return "", fmt.Errorf("failed to get key-value: %w", err)
	}

	return kv.Value, nil
}

// =============================================================================
// Property transaction
// =============================================================================

type pgPropertyTx struct {
	db       *gorm.DB
	property schema.Property
	events   []schema.LedgerEvent
}

func (t *pgPropertyTx) Property() schema.Property {
	return t.property
}

// Save writes the mutable columns immediately so later steps of the mutator see the new state
func (t *pgPropertyTx) Save(ctx context.Context, property schema.Property) error {
	if property.ID != t.property.ID {
		return fmt.Errorf("cannot save property %d from the unit of work of property %d", property.ID, t.property.ID)
	}

	updatedAt := NormalizeTimestamp(property.UpdatedAt)
	err := t.db.Model(&schema.Property{}).
		Where("id = ?", property.ID).
		Updates(map[string]interface{}{
			"owner":       property.Owner,
			"price":       property.Price,
			"is_for_sale": property.IsForSale,
			"updated_at":  updatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to save property: %w", err)
	}

	t.property.Owner = property.Owner
	t.property.Price = property.Price
	t.property.IsForSale = property.IsForSale
	t.property.UpdatedAt = updatedAt
	return nil
}

// Transfer moves amount wei between accounts. Both rows are locked in address order.
func (t *pgPropertyTx) Transfer(ctx context.Context, from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return domain.Wrap(domain.ErrInvalidAmount, "transfer must be greater than zero")
	}
	if from == to {
		return domain.Wrap(domain.ErrInvalidAddress, "transfer to the paying account")
	}

	// 1. Make sure the recipient row exists so it can be locked
	err := t.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&schema.Account{Address: to, Balance: "0"}).Error
	if err != nil {
		return fmt.Errorf("failed to ensure recipient account: %w", err)
	}

	// 2. Lock both accounts in a stable order
	addresses := []string{from, to}
	slices.Sort(addresses)

	var accounts []schema.Account
	err = t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("address IN ?", addresses).
		Order("address ASC").
		Find(&accounts).Error
	if err != nil {
		return fmt.Errorf("failed to lock accounts: %w", err)
	}

	var payer, payee *schema.Account
	for i := range accounts {
		switch accounts[i].Address {
		case from:
			payer = &accounts[i]
		case to:
			payee = &accounts[i]
		}
	}
	if payee == nil {
		return fmt.Errorf("recipient account %s disappeared", to)
	}

	// 3. Check funds and recipient status
	if payer == nil {
		return domain.Wrapf(domain.ErrInsufficientFunds, "%s has no balance", from)
	}
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

	// 4. Move the value
	if err := t.db.Model(&schema.Account{}).
		Where("address = ?", from).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount.String()),
			"updated_at": gorm.Expr("now()"),
		}).Error; err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	if err := t.db.Model(&schema.Account{}).
		Where("address = ?", to).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount.String()),
			"updated_at": gorm.Expr("now()"),
		}).Error; err != nil {
		if isNumericOverflow(err) {
			return domain.Wrapf(domain.ErrTransferRejected, "account %s balance would exceed 256 bits", to)
		}
		return fmt.Errorf("failed to credit account: %w", err)
	}

	logger.DebugCtx(ctx, "Transferred value",
		zap.Uint64("property_id", t.property.ID),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("amount", amount.String()))

	return nil
}

// AppendEvent stages an event; it is sequenced and sealed when the mutator returns
func (t *pgPropertyTx) AppendEvent(ctx context.Context, input CreateLedgerEventInput) error {
	event, err := newLedgerEvent(t.property.ID, input)
	if err != nil {
		return err
	}
	t.events = append(t.events, event)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// lockCounter locks a named counter row, creating it with initial when missing
func lockCounter(tx *gorm.DB, name string, initial uint64) (*schema.SequenceCounter, error) {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&schema.SequenceCounter{Name: name, NextValue: initial}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure counter %s: %w", name, err)
	}

	var counter schema.SequenceCounter
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&counter).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock counter %s: %w", name, err)
	}

	return &counter, nil
}

// advanceCounter moves a locked counter forward by n
func advanceCounter(tx *gorm.DB, counter *schema.SequenceCounter, n uint64) error {
	err := tx.Model(&schema.SequenceCounter{}).
		Where("name = ?", counter.Name).
		Updates(map[string]interface{}{
			"next_value": counter.NextValue + n,
			"updated_at": gorm.Expr("now()"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to advance counter %s: %w", counter.Name, err)
	}
	return nil
}

func isNumericOverflow(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrNumericOverflow
}

// sqlOffset clamps an offset to the int range; gorm ignores negative offsets
func sqlOffset(offset uint64) int {
	if offset > math.MaxInt {
		return math.MaxInt
	}
	return int(offset)
}
