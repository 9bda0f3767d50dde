package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/pkg/orm"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
)

// PurchaseRepository handles purchases and their lines.
type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Create inserts the purchase header without its lines.
func (r *PurchaseRepository) Create(ctx context.Context, p *models.Purchase) error {
	return r.db.WithContext(ctx).Omit("Items").Create(p).Error
}

func (r *PurchaseRepository) CreateItems(ctx context.Context, items []models.PurchaseItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindByID loads the purchase header only.
func (r *PurchaseRepository) FindByID(ctx context.Context, id uint) (models.Purchase, error) {
	var p models.Purchase
	err := orm.First(r.db.WithContext(ctx).Where("id = ?", id), &p, fmt.Sprintf("Purchase %d not found", id))
	return p, err
}

// Update writes the given header columns.
func (r *PurchaseRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Purchase{}).Where("id = ?", id).Updates(fields).Error
}

func (r *PurchaseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Purchase{}, id).Error
}

func (r *PurchaseRepository) DeleteItems(ctx context.Context, purchaseID uint) error {
	return r.db.WithContext(ctx).Where("purchase_id = ?", purchaseID).Delete(&models.PurchaseItem{}).Error
}

// Items loads the lines of the given purchases with their product names.
func (r *PurchaseRepository) Items(ctx context.Context, purchaseIDs ...uint) ([]models.PurchaseItem, error) {
	var items []models.PurchaseItem
	if len(purchaseIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Model(&models.PurchaseItem{}).
		Select("purchase_items.*, products.name AS product_name").
		Joins("LEFT JOIN products ON products.id = purchase_items.product_id").
		Where("purchase_items.purchase_id IN ?", purchaseIDs).
		Order("purchase_items.id ASC").
		Find(&items).Error
	return items, err
}

// Get loads one purchase with its lines.
func (r *PurchaseRepository) Get(ctx context.Context, id uint) (models.Purchase, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return p, err
	}
	p.Items, err = r.Items(ctx, id)
	return p, err
}

// List pages purchases, newest first, with their lines.
func (r *PurchaseRepository) List(ctx context.Context, p pagination.Params) (pagination.Page[models.Purchase], error) {
	page, err := orm.Paginate[models.Purchase](r.db.WithContext(ctx).Model(&models.Purchase{}), p, "purchased_at DESC, id DESC")
	if err != nil || len(page.Items) == 0 {
		return page, err
	}

	ids := make([]uint, len(page.Items))
	for i, purchase := range page.Items {
		ids[i] = purchase.ID
	}
	items, err := r.Items(ctx, ids...)
	if err != nil {
		return page, err
	}
	byPurchase := make(map[uint][]models.PurchaseItem, len(ids))
	for _, item := range items {
		byPurchase[item.PurchaseID] = append(byPurchase[item.PurchaseID], item)
	}
	for i := range page.Items {
		page.Items[i].Items = byPurchase[page.Items[i].ID]
	}
	return page, nil
}
