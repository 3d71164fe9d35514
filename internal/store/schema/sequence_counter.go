package schema

import "time"

// SequenceCounter stores the next value of a named monotonic counter
type SequenceCounter struct {
	Name      string    `gorm:"column:name;primaryKey;type:text"`
	NextValue uint64    `gorm:"column:next_value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the SequenceCounter model
func (SequenceCounter) TableName() string {
	return "sequence_counters"
}
