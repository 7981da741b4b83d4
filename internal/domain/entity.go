package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord is the durable mirror of the latest quote per symbol.
// It survives restarts and is the last-resort fallback when no provider
// and no cache entry can produce a price.
type PriceRecord struct {
	Symbol      string          `gorm:"primaryKey" json:"symbol"`
	Price       decimal.Decimal `gorm:"type:numeric" json:"price"`
	LastUpdated time.Time       `json:"last_updated"`
}

// TableName keeps the table name compatible with the historical schema
func (PriceRecord) TableName() string {
	return "last_price"
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
