// Package services holds the inventory ledger and the read services behind
// the HTTP controllers. Every mutation runs in one database.Transact call;
// cache invalidation and metrics happen only after commit.
package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/cache"
	"github.com/shashiranjanraj/stockbook/pkg/logger"
	"github.com/shashiranjanraj/stockbook/pkg/metrics"
	"github.com/shashiranjanraj/stockbook/pkg/validate"
)

// check runs the validate tags of in.
func check(in interface{}) error {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return apperror.Fields(errs)
	}
	return nil
}

func productKey(id uint) string { return fmt.Sprintf("product:%d", id) }

// forgetProducts drops the cached copies of the given products.
func forgetProducts(ctx context.Context, store *cache.Store, ids ...uint) {
	if !store.Enabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			keys = append(keys, productKey(id))
		}
	}
	if err := store.Del(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn("cache: invalidate failed", "keys", keys, "error", err)
	}
}

// settle publishes committed stock movements: unit counters and cache
// invalidation for every product touched.
func settle(ctx context.Context, store *cache.Store, moved []models.StockMovement) {
	ids := make([]uint, 0, len(moved))
	for _, m := range moved {
		metrics.RecordStock(m.Reason, m.Change)
		ids = append(ids, m.ProductID)
	}
	forgetProducts(ctx, store, ids...)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperror.KindOf(err).String()
}
