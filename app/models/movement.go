package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stock movement reasons.
const (
	ReasonOpening          = "opening"
	ReasonPurchase         = "purchase"
	ReasonPurchaseReversal = "purchase_reversal"
	ReasonSale             = "sale"
	ReasonSaleReversal     = "sale_reversal"
	ReasonAdjustment       = "adjustment"
)

// StockMovement records one change to a product's stock. The changes of a
// product always sum to its current stock.
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	Change      int       `gorm:"column:quantity_change;not null" json:"change"`
	StockAfter  int       `gorm:"not null" json:"stock_after"`
	Reason      string    `gorm:"size:32;not null" json:"reason"`
	ReferenceID *uint     `gorm:"index" json:"reference_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a version 7 id. Those ids grow with creation time,
// so they order movements that share a created_at.
func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	if m.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}
