package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/pkg/orm"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
)

// ProductRepository handles products, their price history and stock
// movements.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	err := orm.First(r.db.WithContext(ctx).Where("id = ?", id), &p, fmt.Sprintf("Product %d not found", id))
	return p, err
}

// Update writes the given columns of product id.
func (r *ProductRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

func (r *ProductRepository) List(ctx context.Context, p pagination.Params) (pagination.Page[models.Product], error) {
	return orm.Paginate[models.Product](r.db.WithContext(ctx).Model(&models.Product{}), p, "id ASC")
}

// DeleteHistory removes the price history and stock movements of id.
func (r *ProductRepository) DeleteHistory(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", id).Delete(&models.ProductPrice{}).Error; err != nil {
		return err
	}
	return db.Where("product_id = ?", id).Delete(&models.StockMovement{}).Error
}

// IsReferenced reports whether any purchase or sale line points at id.
func (r *ProductRepository) IsReferenced(ctx context.Context, id uint) (bool, error) {
	db := r.db.WithContext(ctx)
	if used, err := orm.Exists(db.Model(&models.PurchaseItem{}).Where("product_id = ?", id)); err != nil || used {
		return used, err
	}
	return orm.Exists(db.Model(&models.SaleItem{}).Where("product_id = ?", id))
}

// AddStock adds delta to the product's stock in one statement. With guard
// set, a negative delta only applies while stock stays non-negative. It
// returns the number of rows changed: 0 means the product is missing or the
// guard refused.
func (r *ProductRepository) AddStock(ctx context.Context, id uint, delta int, guard bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id)
	if guard && delta < 0 {
		q = q.Where("stock >= ?", -delta)
	}
	res := q.Updates(map[string]interface{}{
		"stock":      gorm.Expr("stock + ?", delta),
		"updated_at": time.Now(),
	})
	return res.RowsAffected, res.Error
}

// Stock reads the current stock of id.
func (r *ProductRepository) Stock(ctx context.Context, id uint) (int, error) {
	var p models.Product
	err := orm.First(r.db.WithContext(ctx).Select("id", "stock").Where("id = ?", id), &p, fmt.Sprintf("Product %d not found", id))
	return p.Stock, err
}

func (r *ProductRepository) AddPrice(ctx context.Context, price *models.ProductPrice) error {
	return r.db.WithContext(ctx).Create(price).Error
}

// PriceFilter bounds a price history query. Zero times are open ends.
type PriceFilter struct {
	From time.Time
	To   time.Time
}

// Prices pages the price history of productID, newest first.
func (r *ProductRepository) Prices(ctx context.Context, productID uint, f PriceFilter, p pagination.Params) (pagination.Page[models.ProductPrice], error) {
	q := r.db.WithContext(ctx).Model(&models.ProductPrice{}).Where("product_id = ?", productID)
	if !f.From.IsZero() {
		q = q.Where("effective_from >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("effective_from <= ?", f.To)
	}
	return orm.Paginate[models.ProductPrice](q, p, "effective_from DESC, id DESC")
}

func (r *ProductRepository) AddMovement(ctx context.Context, m *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Movements pages the stock movements of productID, newest first.
func (r *ProductRepository) Movements(ctx context.Context, productID uint, p pagination.Params) (pagination.Page[models.StockMovement], error) {
	q := r.db.WithContext(ctx).Model(&models.StockMovement{}).Where("product_id = ?", productID)
	return orm.Paginate[models.StockMovement](q, p, "created_at DESC, id DESC")
}

// MovementTotal sums the changes recorded for productID.
func (r *ProductRepository) MovementTotal(ctx context.Context, productID uint) (int, error) {
	var total struct{ Total int }
	err := r.db.WithContext(ctx).Model(&models.StockMovement{}).
		Select("COALESCE(SUM(quantity_change), 0) AS total").
		Where("product_id = ?", productID).
		Scan(&total).Error
	return total.Total, err
}
