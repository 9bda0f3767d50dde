package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/app/repositories"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/cache"
	"github.com/shashiranjanraj/stockbook/pkg/database"
	"github.com/shashiranjanraj/stockbook/pkg/metrics"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
)

// PriceInput is the body of POST /prices. EffectiveFrom defaults to now.
type PriceInput struct {
	ProductID     uint            `json:"product_id" validate:"required"`
	Price         decimal.Decimal `json:"price" validate:"required,gt=0,money"`
	EffectiveFrom *time.Time      `json:"effective_from"`
}

// Prices maintains the price history and the current product price.
type Prices struct {
	db    *gorm.DB
	cache *cache.Store
}

func NewPrices(db *gorm.DB, store *cache.Store) *Prices {
	return &Prices{db: db, cache: store}
}

// Add appends a history row and makes it the product's current price.
func (s *Prices) Add(ctx context.Context, in PriceInput) (uint, error) {
	if err := check(in); err != nil {
		return 0, err
	}

	price := models.ProductPrice{ProductID: in.ProductID, Price: in.Price, EffectiveFrom: time.Now()}
	if in.EffectiveFrom != nil {
		price.EffectiveFrom = *in.EffectiveFrom
	}

	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		products := repositories.NewProductRepository(tx)
		if _, err := products.FindByID(ctx, in.ProductID); err != nil {
			return err
		}
		if err := products.AddPrice(ctx, &price); err != nil {
			return err
		}
		return products.Update(ctx, in.ProductID, map[string]interface{}{"price": in.Price})
	})
	metrics.RecordLedger("price", "create", outcome(err))
	if err != nil {
		return 0, err
	}
	forgetProducts(ctx, s.cache, in.ProductID)
	return price.ID, nil
}

// History pages the price history of an existing product, newest first.
func (s *Prices) History(ctx context.Context, productID uint, f repositories.PriceFilter, p pagination.Params) (pagination.Page[models.ProductPrice], error) {
	products := repositories.NewProductRepository(s.db)
	if _, err := products.FindByID(ctx, productID); err != nil {
		return pagination.Page[models.ProductPrice]{}, err
	}
	return products.Prices(ctx, productID, f, p)
}

// ParsePriceFilter reads the from/to query values. Both accept RFC 3339 or
// YYYY-MM-DD; a bare date in to covers the whole day.
func ParsePriceFilter(from, to string) (repositories.PriceFilter, error) {
	var f repositories.PriceFilter
	var err error
	if f.From, err = parseDate("from", from, false); err != nil {
		return f, err
	}
	if f.To, err = parseDate("to", to, true); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, apperror.Fields(map[string]string{"to": "The to date must not be before from."})
	}
	return f, nil
}

func parseDate(field, raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperror.Fields(map[string]string{field: "The " + field + " field must be a date."})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
