package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
)

func TestPayments_StatusFollowsPayments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rice := f.product(t, "Rice", 10)
	res, err := f.ledger.CreateSale(ctx, sale("Asha", sold(rice, 2, "50")))
	require.NoError(t, err)

	first, err := f.payments.Add(ctx, services.PaymentInput{SaleID: res.ID, Amount: money("40"), PaymentType: "cash"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartial, first.NewPaymentStatus)

	second, err := f.payments.Add(ctx, services.PaymentInput{SaleID: res.ID, Amount: money("60"), PaymentType: "card"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, second.NewPaymentStatus)

	list, err := f.payments.List(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	status, err := f.payments.Delete(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartial, status)

	status, err = f.payments.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCredit, status)

	got, err := f.ledger.GetSale(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCredit, got.PaymentStatus)
	assert.Empty(t, got.Payments)
}

func TestPayments_OverpaymentLeavesRowsUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rice := f.product(t, "Rice", 10)
	res, err := f.ledger.CreateSale(ctx, sale("Asha", sold(rice, 1, "75")))
	require.NoError(t, err)

	_, err = f.payments.Add(ctx, services.PaymentInput{SaleID: res.ID, Amount: money("75.01"), PaymentType: "cash"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, apperror.Message(err), "Remaining: 75.00")

	assert.Zero(t, f.count(t, &models.SalePayment{}))
	got, err := f.ledger.GetSale(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCredit, got.PaymentStatus)
}

func TestPayments_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.payments.Add(ctx, services.PaymentInput{SaleID: 7, Amount: money("1"), PaymentType: "cash"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.payments.Add(ctx, services.PaymentInput{SaleID: 7, Amount: money("0"), PaymentType: "cash"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.payments.Add(ctx, services.PaymentInput{SaleID: 7, Amount: money("0.001"), PaymentType: "cash"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "amount")

	_, err = f.payments.Delete(ctx, 99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.payments.List(ctx, 7)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
