package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a stock intake from a supplier.
type Purchase struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	SupplierName  string          `gorm:"size:255;not null" json:"supplier_name"`
	SupplierPhone *string         `gorm:"size:20" json:"supplier_phone"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	PurchasedAt   time.Time       `gorm:"not null;index" json:"purchased_at"`
	Items         []PurchaseItem  `gorm:"foreignKey:PurchaseID" json:"items,omitempty"`
}

// PurchaseItem is one line of a purchase.
type PurchaseItem struct {
	ID            uint            `gorm:"primaryKey" json:"-"`
	PurchaseID    uint            `gorm:"not null;index" json:"-"`
	ProductID     uint            `gorm:"not null;index" json:"product_id"`
	ProductName   string          `gorm:"->;-:migration" json:"product_name,omitempty"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"purchase_price"`
}
