package services_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/app/repositories"
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/testkit"
)

func TestProducts_CreateWritesOpeningRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.product(t, "Rice", 12)

	p, err := f.products.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Rice", p.Name)
	assert.Equal(t, 12, p.Stock)

	history, err := f.prices.History(ctx, id, repositories.PriceFilter{}, pageOf(1, 10))
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	assert.True(t, money("100").Equal(history.Items[0].Price))

	moves, err := f.products.Movements(ctx, id, pageOf(1, 10))
	require.NoError(t, err)
	require.Len(t, moves.Items, 1)
	assert.Equal(t, models.ReasonOpening, moves.Items[0].Reason)
	f.requireLedgerBalanced(t, id)

	empty := f.product(t, "Salt", 0)
	moves, err = f.products.Movements(ctx, empty, pageOf(1, 10))
	require.NoError(t, err)
	assert.Empty(t, moves.Items)
}

func TestProducts_UpdateRecordsPriceAndAdjustment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.product(t, "Rice", 12)

	err := f.products.Update(ctx, id, services.ProductInput{Name: "Basmati", Unit: "kg", Price: money("120"), Stock: intPtr(5)})
	require.NoError(t, err)

	p, err := f.products.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Basmati", p.Name)
	assert.Equal(t, 5, p.Stock)
	assert.True(t, money("120").Equal(p.Price))

	history, err := f.prices.History(ctx, id, repositories.PriceFilter{}, pageOf(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), history.TotalRecords)

	moves, err := f.products.Movements(ctx, id, pageOf(1, 10))
	require.NoError(t, err)
	require.Len(t, moves.Items, 2)
	assert.Equal(t, models.ReasonAdjustment, moves.Items[0].Reason)
	assert.Equal(t, -7, moves.Items[0].Change)
	f.requireLedgerBalanced(t, id)

	// Same price, no stock: no new history, no movement.
	require.NoError(t, f.products.Update(ctx, id, services.ProductInput{Name: "Basmati", Unit: "kg", Price: money("120")}))
	history, err = f.prices.History(ctx, id, repositories.PriceFilter{}, pageOf(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), history.TotalRecords)
	assert.Equal(t, 5, f.stock(t, id))

	assert.ErrorIs(t, f.products.Update(ctx, 404, services.ProductInput{Name: "x", Unit: "kg", Price: money("1")}), apperror.ErrNotFound)
}

func TestProducts_UpdateInvalidatesOnce(t *testing.T) {
	ctx := context.Background()
	db := testkit.NewDB(t)
	store, rec := newRecordingStore(t)
	products := services.NewProducts(db, services.NewStockKeeper(false), store)

	id, err := products.Create(ctx, services.ProductInput{Name: "Rice", Unit: "kg", Price: money("100"), Stock: intPtr(12)})
	require.NoError(t, err)
	key := "stockbook:product:" + strconv.Itoa(int(id))

	rec.reset()
	require.NoError(t, products.Update(ctx, id, services.ProductInput{Name: "Rice", Unit: "kg", Price: money("110"), Stock: intPtr(4)}))
	assert.Equal(t, 1, rec.dels(key))

	rec.reset()
	require.NoError(t, products.Update(ctx, id, services.ProductInput{Name: "Basmati", Unit: "kg", Price: money("110")}))
	assert.Equal(t, 1, rec.dels(key))

	_, err = products.Get(ctx, id)
	require.NoError(t, err)
}

func TestProducts_DeleteReferencedIsConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rice := f.product(t, "Rice", 5)
	salt := f.product(t, "Salt", 5)

	_, err := f.ledger.CreateSale(ctx, sale("Asha", sold(rice, 1, "10")))
	require.NoError(t, err)

	err = f.products.Delete(ctx, rice)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 409, apperror.Status(err))

	require.NoError(t, f.products.Delete(ctx, salt))
	_, err = f.products.Get(ctx, salt)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var orphans int64
	require.NoError(t, f.db.Model(&models.StockMovement{}).Where("product_id = ?", salt).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestProducts_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, name := range []string{"A", "B", "C"} {
		f.product(t, name, 1)
	}

	page, err := f.products.List(ctx, pageOf(2, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalRecords)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "C", page.Items[0].Name)
}

func TestPrices_AddSetsCurrentPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.product(t, "Rice", 1)

	jan := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	_, err := f.prices.Add(ctx, services.PriceInput{ProductID: id, Price: money("90"), EffectiveFrom: &jan})
	require.NoError(t, err)
	latest, err := f.prices.Add(ctx, services.PriceInput{ProductID: id, Price: money("95")})
	require.NoError(t, err)
	assert.NotZero(t, latest)

	p, err := f.products.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, money("95").Equal(p.Price))

	filter, err := services.ParsePriceFilter("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	january, err := f.prices.History(ctx, id, filter, pageOf(1, 10))
	require.NoError(t, err)
	require.Len(t, january.Items, 1)
	assert.True(t, money("90").Equal(january.Items[0].Price))

	_, err = f.prices.Add(ctx, services.PriceInput{ProductID: 999, Price: money("1")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestParsePriceFilter(t *testing.T) {
	f, err := services.ParsePriceFilter("", "")
	require.NoError(t, err)
	assert.True(t, f.From.IsZero())
	assert.True(t, f.To.IsZero())

	f, err = services.ParsePriceFilter("2024-03-01T10:00:00Z", "2024-03-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), f.From)
	assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, 999999999, time.UTC), f.To)

	_, err = services.ParsePriceFilter("March", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = services.ParsePriceFilter("2024-03-05", "2024-03-01")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
