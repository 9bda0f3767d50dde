package models_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockbook/app/models"
)

func TestDerivePaymentStatus(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		total, paid string
		want        string
	}{
		{"100.00", "0", models.PaymentCredit},
		{"100.00", "0.01", models.PaymentPartial},
		{"100.00", "99.99", models.PaymentPartial},
		{"100.00", "100", models.PaymentPaid},
		{"24.00", "24.00", models.PaymentPaid},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, models.DerivePaymentStatus(d(tc.total), d(tc.paid)), "%s/%s", tc.total, tc.paid)
	}
}

func TestMoneySerialisesAsNumber(t *testing.T) {
	raw, err := json.Marshal(models.Product{Name: "Rice", Unit: "kg", Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":12.5`)
}

func TestUserSecretsHidden(t *testing.T) {
	token := "refresh"
	raw, err := json.Marshal(models.User{Username: "admin", Password: "hash", RefreshToken: &token})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
	assert.NotContains(t, string(raw), "refresh")
}
