package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item. Stock is the running total maintained by the
// ledger; Price is the latest entry of its price history.
type Product struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:255;not null;index" json:"name"`
	Unit      string          `gorm:"size:50;not null" json:"unit"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Stock     int             `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductPrice is one append-only price history row.
type ProductPrice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ProductID     uint            `gorm:"not null;index:idx_product_prices_product_effective,priority:1" json:"product_id"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	EffectiveFrom time.Time       `gorm:"not null;index:idx_product_prices_product_effective,priority:2" json:"effective_from"`
}
