package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/app/repositories"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/database"
	"github.com/shashiranjanraj/stockbook/pkg/metrics"
	"github.com/shashiranjanraj/stockbook/pkg/tracing"
)

// PaymentInput is the body of POST /payments.
type PaymentInput struct {
	SaleID      uint            `json:"sale_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,money"`
	PaymentType string          `json:"payment_type" validate:"required,max=50"`
}

// PaymentResult reports the payment written and the sale's new status.
type PaymentResult struct {
	ID               uint   `json:"paymentId"`
	NewPaymentStatus string `json:"newPaymentStatus"`
}

// Payments records money received against sales.
type Payments struct {
	db *gorm.DB
}

func NewPayments(db *gorm.DB) *Payments {
	return &Payments{db: db}
}

// Add records a payment. An amount above the remaining balance is refused
// and nothing is written.
func (s *Payments) Add(ctx context.Context, in PaymentInput) (res PaymentResult, err error) {
	if err := check(in); err != nil {
		return res, err
	}
	ctx, span := tracing.Start(ctx, "payments.Add", attribute.Int64("sale_id", int64(in.SaleID)))
	defer func() { tracing.End(span, err) }()

	err = database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		sales := repositories.NewSaleRepository(tx)
		sale, err := sales.FindByIDForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		paid, err := sales.PaidTotal(ctx, sale.ID)
		if err != nil {
			return err
		}
		remaining := sale.TotalAmount.Sub(paid)
		if in.Amount.GreaterThan(remaining) {
			return apperror.Validation("Payment exceeds remaining balance. Remaining: %s", remaining.StringFixed(2))
		}

		payment := models.SalePayment{
			SaleID:      sale.ID,
			Amount:      in.Amount,
			PaymentType: in.PaymentType,
			PaidAt:      time.Now(),
		}
		if err := sales.CreatePayment(ctx, &payment); err != nil {
			return err
		}
		res = PaymentResult{ID: payment.ID, NewPaymentStatus: models.DerivePaymentStatus(sale.TotalAmount, paid.Add(in.Amount))}
		return sales.SetStatus(ctx, sale.ID, res.NewPaymentStatus)
	})
	metrics.RecordLedger("payment", "create", outcome(err))
	if err != nil {
		return PaymentResult{}, err
	}
	return res, nil
}

// List returns the payments of an existing sale, oldest first.
func (s *Payments) List(ctx context.Context, saleID uint) ([]models.SalePayment, error) {
	sales := repositories.NewSaleRepository(s.db)
	if _, err := sales.FindByID(ctx, saleID); err != nil {
		return nil, err
	}
	return sales.Payments(ctx, saleID)
}

// Delete removes payment id and returns the sale's rederived status.
func (s *Payments) Delete(ctx context.Context, id uint) (status string, err error) {
	ctx, span := tracing.Start(ctx, "payments.Delete", attribute.Int64("payment_id", int64(id)))
	defer func() { tracing.End(span, err) }()

	err = database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		sales := repositories.NewSaleRepository(tx)
		payment, err := sales.FindPayment(ctx, id)
		if err != nil {
			return err
		}
		sale, err := sales.FindByIDForUpdate(ctx, payment.SaleID)
		if err != nil {
			return err
		}
		if err := sales.DeletePayment(ctx, id); err != nil {
			return err
		}
		paid, err := sales.PaidTotal(ctx, sale.ID)
		if err != nil {
			return err
		}
		status = models.DerivePaymentStatus(sale.TotalAmount, paid)
		return sales.SetStatus(ctx, sale.ID, status)
	})
	metrics.RecordLedger("payment", "delete", outcome(err))
	if err != nil {
		return "", err
	}
	return status, nil
}
