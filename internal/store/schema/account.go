package schema

import "time"

// Account represents the accounts table - native-currency balances of identities
type Account struct {
	// Address is the checksummed address of the identity
	Address string `gorm:"column:address;primaryKey;type:text"`
	// Balance is the spendable amount in wei
	Balance string `gorm:"column:balance;not null;default:0;type:numeric(78,0)"`
	// Frozen accounts reject incoming value
	Frozen bool `gorm:"column:frozen;not null;default:false"`
	// CreatedAt is the timestamp when the account was first credited or touched
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp of the last balance or status change
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}
