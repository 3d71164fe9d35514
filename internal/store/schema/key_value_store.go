package schema

import "time"

// KeyValueStore stores ledger bookkeeping values: the event log head, relay cursors, the instance id
type KeyValueStore struct {
	Key       string    `gorm:"column:key;primaryKey;type:text"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (KeyValueStore) TableName() string {
	return "key_value_store"
}

// Models lists every table owned by the ledger, in dependency order
func Models() []any {
	return []any{
		&Property{},
		&LedgerEvent{},
		&Account{},
		&SequenceCounter{},
		&KeyValueStore{},
	}
}
