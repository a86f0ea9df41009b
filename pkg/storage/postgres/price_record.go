package postgres

import "time"

// PricePointRecord is one archived close of a fetched price series.
type PricePointRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Symbol     string    `gorm:"type:text;not null;index:idx_price_symbol;index:idx_symbol_resolution_time,unique"`
	Resolution string    `gorm:"type:varchar(4);not null;index:idx_symbol_resolution_time,unique"`
	Time       time.Time `gorm:"not null;index:idx_symbol_resolution_time,unique"`

	Close float64 `gorm:"type:numeric;not null"`

	// window the point was fetched for
	Period string `gorm:"type:varchar(8);not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (PricePointRecord) TableName() string {
	return "price_point_record"
}
