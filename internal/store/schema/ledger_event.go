package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/feral-file/chain-estates/internal/domain"
)

// LedgerEvent represents the ledger_events table - the append-only, hash-chained audit trail
type LedgerEvent struct {
	// ID is the sequence number handed out by the ledger_events counter, so it follows commit order
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	// Kind is the transition that produced the event (registered, listed, unlisted, sold)
	Kind domain.EventKind `gorm:"column:kind;not null;type:text;index:idx_ledger_events_kind"`
	// PropertyID references the property the event relates to
	PropertyID uint64 `gorm:"column:property_id;not null;index:idx_ledger_events_property"`
	// Owner is the registering owner (registered events only)
	Owner *string `gorm:"column:owner;type:text"`
	// Seller is the owner giving up or offering the property (listed, unlisted, sold)
	Seller *string `gorm:"column:seller;type:text;index:idx_ledger_events_seller"`
	// Buyer is the new owner (sold events only)
	Buyer *string `gorm:"column:buyer;type:text;index:idx_ledger_events_buyer"`
	// Price is the listing price or the value actually transferred, in wei
	Price *string `gorm:"column:price;type:numeric(78,0)"`
	// Timestamp is the commit time of the transition (microsecond precision)
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz;index:idx_ledger_events_timestamp"`
	// Payload holds kind-specific details (e.g. location for registered events)
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb"`
	// PrevHash is the hash of the preceding event
	PrevHash string `gorm:"column:prev_hash;not null;type:text"`
	// Hash is keccak256(prev_hash || canonical body)
	Hash string `gorm:"column:hash;not null;type:text;uniqueIndex:idx_ledger_events_hash"`
	// CreatedAt is the time the row was written
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the LedgerEvent model
func (LedgerEvent) TableName() string {
	return "ledger_events"
}

// RegisteredPayload is the payload of a registered event
type RegisteredPayload struct {
	OwnerName    string `json:"owner_name"`
	Location     string `json:"location"`
	DocumentHash string `json:"document_hash"`
}
