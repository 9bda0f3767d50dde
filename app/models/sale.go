package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses of a sale.
const (
	PaymentPaid    = "paid"
	PaymentPartial = "partial"
	PaymentCredit  = "credit"
)

// Sale is a sale to a customer. PaymentStatus is derived from TotalAmount
// and the sum of its payments and is rewritten after every change to either.
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CustomerName  string          `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone *string         `gorm:"size:20" json:"customer_phone"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	PaymentStatus string          `gorm:"size:10;not null;default:credit;index" json:"payment_status"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Payments      []SalePayment   `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	SaleID       uint            `gorm:"not null;index" json:"-"`
	ProductID    uint            `gorm:"not null;index" json:"product_id"`
	ProductName  string          `gorm:"->;-:migration" json:"product_name,omitempty"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"selling_price"`
}

// SalePayment is money received against a sale.
type SalePayment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"not null;index" json:"sale_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentType string          `gorm:"size:50;not null" json:"payment_type"`
	PaidAt      time.Time       `gorm:"not null" json:"paid_at"`
}

// DerivePaymentStatus maps a sale total and the amount paid against it to
// paid, partial or credit.
func DerivePaymentStatus(total, paid decimal.Decimal) string {
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(total):
		return PaymentPaid
	case paid.IsPositive():
		return PaymentPartial
	default:
		return PaymentCredit
	}
}

// CreditSale is a sale with an outstanding balance.
type CreditSale struct {
	SaleID           uint            `json:"sale_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerPhone    *string         `json:"customer_phone"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaymentStatus    string          `json:"payment_status"`
	CreatedAt        time.Time       `json:"created_at"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}
