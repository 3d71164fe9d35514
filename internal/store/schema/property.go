package schema

import (
	"time"
)

// Property represents the properties table - the materialized current state of every registered asset
type Property struct {
	// ID is assigned from the properties sequence counter: dense, starting at 0, never reused
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement:false"`
	// Owner is the checksummed address of the current holder
	Owner string `gorm:"column:owner;not null;type:text;index:idx_properties_owner"`
	// OwnerName is the display label supplied at registration (immutable)
	OwnerName string `gorm:"column:owner_name;not null;type:text"`
	// Location is a free-text descriptor (immutable)
	Location string `gorm:"column:location;not null;type:text"`
	// DocumentHash is a content-addressed reference to an off-ledger document (immutable)
	DocumentHash string `gorm:"column:document_hash;not null;type:text"`
	// Price is the listing price in wei (stored as string to support up to 78 digits); zero while not for sale
	Price string `gorm:"column:price;not null;default:0;type:numeric(78,0)"`
	// IsForSale indicates whether the property is currently listed
	IsForSale bool `gorm:"column:is_for_sale;not null;default:false;index:idx_properties_for_sale"`
	// CreatedAt is the registration time
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the time of the last listing or sale
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Property model
func (Property) TableName() string {
	return "properties"
}
