package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/repositories"
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/cache"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
	"github.com/shashiranjanraj/stockbook/pkg/testkit"
)

type fixture struct {
	db       *gorm.DB
	products *services.Products
	prices   *services.Prices
	ledger   *services.Ledger
	payments *services.Payments
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureWith(t, services.NewStockKeeper(false))
}

func newFixtureWith(t *testing.T, keeper services.StockKeeper) fixture {
	t.Helper()
	db := testkit.NewDB(t)
	return fixture{
		db:       db,
		products: services.NewProducts(db, keeper, nil),
		prices:   services.NewPrices(db, nil),
		ledger:   services.NewLedger(db, keeper, nil),
		payments: services.NewPayments(db),
	}
}

func money(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func intPtr(n int) *int { return &n }

func (f fixture) product(t *testing.T, name string, stock int) uint {
	t.Helper()
	id, err := f.products.Create(context.Background(), services.ProductInput{
		Name:  name,
		Unit:  "pcs",
		Price: money("100"),
		Stock: intPtr(stock),
	})
	require.NoError(t, err)
	return id
}

func (f fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	n, err := repositories.NewProductRepository(f.db).Stock(context.Background(), id)
	require.NoError(t, err)
	return n
}

// requireLedgerBalanced checks that the movements of id add up to its stock.
func (f fixture) requireLedgerBalanced(t *testing.T, id uint) {
	t.Helper()
	sum, err := repositories.NewProductRepository(f.db).MovementTotal(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, f.stock(t, id), sum, "movements of product %d", id)
}

func (f fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func sale(customer string, items ...services.SaleItemInput) services.SaleInput {
	return services.SaleInput{CustomerName: customer, Items: items}
}

func sold(productID uint, qty int, price string) services.SaleItemInput {
	return services.SaleItemInput{ProductID: productID, Quantity: qty, SellingPrice: money(price)}
}

func purchase(supplier string, items ...services.PurchaseItemInput) services.PurchaseInput {
	return services.PurchaseInput{SupplierName: supplier, Items: items}
}

func bought(productID uint, qty int, price string) services.PurchaseItemInput {
	return services.PurchaseItemInput{ProductID: productID, Quantity: qty, PurchasePrice: money(price)}
}


func pageOf(page, limit int) pagination.Params {
	return pagination.Params{Page: page, Limit: limit}
}

// redisRecorder answers every command in-process: GETs miss, writes
// succeed, and each command's args are kept for inspection.
type redisRecorder struct {
	mu   sync.Mutex
	cmds [][]interface{}
}

func (r *redisRecorder) DialHook(next redis.DialHook) redis.DialHook { return next }

func (r *redisRecorder) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		r.mu.Lock()
		r.cmds = append(r.cmds, cmd.Args())
		r.mu.Unlock()
		if cmd.Name() == "get" {
			cmd.SetErr(redis.Nil)
		}
		return cmd.Err()
	}
}

func (r *redisRecorder) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

// dels returns how many DEL commands named key.
func (r *redisRecorder) dels(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, args := range r.cmds {
		if len(args) == 0 || args[0] != "del" {
			continue
		}
		for _, a := range args[1:] {
			if a == key {
				n++
			}
		}
	}
	return n
}

func (r *redisRecorder) reset() {
	r.mu.Lock()
	r.cmds = nil
	r.mu.Unlock()
}

func newRecordingStore(t *testing.T) (*cache.Store, *redisRecorder) {
	t.Helper()
	rec := &redisRecorder{}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	rdb.AddHook(rec)
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb, "stockbook:", time.Minute), rec
}
