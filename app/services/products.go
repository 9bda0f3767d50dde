package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/app/repositories"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/cache"
	"github.com/shashiranjanraj/stockbook/pkg/database"
	"github.com/shashiranjanraj/stockbook/pkg/logger"
	"github.com/shashiranjanraj/stockbook/pkg/metrics"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
)

// ProductInput is the body of product create and update. A nil Stock on
// update leaves the stock untouched.
type ProductInput struct {
	Name  string          `json:"name" validate:"required,max=255"`
	Unit  string          `json:"unit" validate:"required,max=50"`
	Price decimal.Decimal `json:"price" validate:"required,gt=0,money"`
	Stock *int            `json:"stock" validate:"omitempty,gte=0"`
}

// Products manages the catalogue. Point lookups read through the cache.
type Products struct {
	db    *gorm.DB
	stock StockKeeper
	cache *cache.Store
}

func NewProducts(db *gorm.DB, stock StockKeeper, store *cache.Store) *Products {
	return &Products{db: db, stock: stock, cache: store}
}

// Create inserts a product with its opening price and, when stock is
// given, an opening movement.
func (s *Products) Create(ctx context.Context, in ProductInput) (uint, error) {
	if err := check(in); err != nil {
		return 0, err
	}

	product := models.Product{Name: in.Name, Unit: in.Unit, Price: in.Price}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}

	var moved []models.StockMovement
	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		products := repositories.NewProductRepository(tx)
		if err := products.Create(ctx, &product); err != nil {
			return err
		}
		price := models.ProductPrice{ProductID: product.ID, Price: product.Price, EffectiveFrom: time.Now()}
		if err := products.AddPrice(ctx, &price); err != nil {
			return err
		}
		if product.Stock == 0 {
			return nil
		}
		opening := models.StockMovement{
			ProductID:  product.ID,
			Change:     product.Stock,
			StockAfter: product.Stock,
			Reason:     models.ReasonOpening,
		}
		moved = append(moved, opening)
		return products.AddMovement(ctx, &opening)
	})
	metrics.RecordLedger("product", "create", outcome(err))
	if err != nil {
		return 0, err
	}
	settle(ctx, s.cache, moved)
	return product.ID, nil
}

// Get returns one product, from the cache when possible. Misses are not
// cached.
func (s *Products) Get(ctx context.Context, id uint) (models.Product, error) {
	var product models.Product
	if s.cache.Get(ctx, productKey(id), &product) {
		metrics.CacheHits.WithLabelValues("product").Inc()
		return product, nil
	}
	if s.cache.Enabled() {
		metrics.CacheMisses.WithLabelValues("product").Inc()
	}

	product, err := repositories.NewProductRepository(s.db).FindByID(ctx, id)
	if err != nil {
		return product, err
	}
	if err := s.cache.Set(ctx, productKey(id), product); err != nil {
		logger.WithCtx(ctx).Warn("cache: store product failed", "product_id", id, "error", err)
	}
	return product, nil
}

func (s *Products) List(ctx context.Context, p pagination.Params) (pagination.Page[models.Product], error) {
	return repositories.NewProductRepository(s.db).List(ctx, p)
}

// Update rewrites name, unit and price. A price change appends to the price
// history; a stock change is recorded as an adjustment.
func (s *Products) Update(ctx context.Context, id uint, in ProductInput) error {
	if err := check(in); err != nil {
		return err
	}

	var moved []models.StockMovement
	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		products := repositories.NewProductRepository(tx)
		current, err := products.FindByID(ctx, id)
		if err != nil {
			return err
		}

		fields := map[string]interface{}{"name": in.Name, "unit": in.Unit, "price": in.Price}
		if err := products.Update(ctx, id, fields); err != nil {
			return err
		}
		if !current.Price.Equal(in.Price) {
			price := models.ProductPrice{ProductID: id, Price: in.Price, EffectiveFrom: time.Now()}
			if err := products.AddPrice(ctx, &price); err != nil {
				return err
			}
		}

		if in.Stock == nil {
			return nil
		}
		moved, err = s.stock.ApplyAll(ctx, tx, []StockChange{{
			ProductID: id,
			Delta:     *in.Stock - current.Stock,
			Reason:    models.ReasonAdjustment,
		}})
		return err
	})
	metrics.RecordLedger("product", "update", outcome(err))
	if err != nil {
		return err
	}
	if len(moved) > 0 {
		settle(ctx, s.cache, moved)
	} else {
		forgetProducts(ctx, s.cache, id)
	}
	return nil
}

// Delete removes a product that no purchase or sale refers to, together
// with its price history and movements.
func (s *Products) Delete(ctx context.Context, id uint) error {
	err := database.Transact(ctx, s.db, func(tx *gorm.DB) error {
		products := repositories.NewProductRepository(tx)
		if _, err := products.FindByID(ctx, id); err != nil {
			return err
		}
		used, err := products.IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperror.Conflict("Product %d is referenced by purchases or sales", id)
		}
		if err := products.DeleteHistory(ctx, id); err != nil {
			return err
		}
		return products.Delete(ctx, id)
	})
	metrics.RecordLedger("product", "delete", outcome(err))
	if err != nil {
		return err
	}
	forgetProducts(ctx, s.cache, id)
	return nil
}

// Movements pages the stock movements of an existing product.
func (s *Products) Movements(ctx context.Context, id uint, p pagination.Params) (pagination.Page[models.StockMovement], error) {
	products := repositories.NewProductRepository(s.db)
	if _, err := products.FindByID(ctx, id); err != nil {
		return pagination.Page[models.StockMovement]{}, err
	}
	return products.Movements(ctx, id, p)
}
