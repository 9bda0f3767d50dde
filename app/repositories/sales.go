package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/orm"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
)

// SaleRepository handles sales, their lines and their payments.
type SaleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Create inserts the sale header without lines or payments.
func (r *SaleRepository) Create(ctx context.Context, s *models.Sale) error {
	return r.db.WithContext(ctx).Omit("Items", "Payments").Create(s).Error
}

func (r *SaleRepository) CreateItems(ctx context.Context, items []models.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindByID loads the sale header only.
func (r *SaleRepository) FindByID(ctx context.Context, id uint) (models.Sale, error) {
	var s models.Sale
	err := orm.First(r.db.WithContext(ctx).Where("id = ?", id), &s, fmt.Sprintf("Sale %d not found", id))
	return s, err
}

// FindByIDForUpdate loads the sale header and locks its row until the
// transaction ends. Every writer of a sale's payments goes through it.
func (r *SaleRepository) FindByIDForUpdate(ctx context.Context, id uint) (models.Sale, error) {
	var s models.Sale
	err := orm.ForUpdate(r.db.WithContext(ctx), "sales").Where("id = ?", id).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s, apperror.NotFound("Sale %d not found", id)
	}
	return s, err
}

// Update writes the given header columns.
func (r *SaleRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Sale{}).Where("id = ?", id).Updates(fields).Error
}

func (r *SaleRepository) SetStatus(ctx context.Context, id uint, status string) error {
	return r.Update(ctx, id, map[string]interface{}{"payment_status": status})
}

func (r *SaleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Sale{}, id).Error
}

func (r *SaleRepository) DeleteItems(ctx context.Context, saleID uint) error {
	return r.db.WithContext(ctx).Where("sale_id = ?", saleID).Delete(&models.SaleItem{}).Error
}

// Items loads the lines of the given sales with their product names.
func (r *SaleRepository) Items(ctx context.Context, saleIDs ...uint) ([]models.SaleItem, error) {
	var items []models.SaleItem
	if len(saleIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Model(&models.SaleItem{}).
		Select("sale_items.*, products.name AS product_name").
		Joins("LEFT JOIN products ON products.id = sale_items.product_id").
		Where("sale_items.sale_id IN ?", saleIDs).
		Order("sale_items.id ASC").
		Find(&items).Error
	return items, err
}

// Get loads one sale with its lines and payments.
func (r *SaleRepository) Get(ctx context.Context, id uint) (models.Sale, error) {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return s, err
	}
	if s.Items, err = r.Items(ctx, id); err != nil {
		return s, err
	}
	s.Payments, err = r.Payments(ctx, id)
	return s, err
}

// List pages sales, newest first, with their lines.
func (r *SaleRepository) List(ctx context.Context, p pagination.Params) (pagination.Page[models.Sale], error) {
	page, err := orm.Paginate[models.Sale](r.db.WithContext(ctx).Model(&models.Sale{}), p, "created_at DESC, id DESC")
	if err != nil || len(page.Items) == 0 {
		return page, err
	}

	items, err := r.Items(ctx, saleIDs(page.Items)...)
	if err != nil {
		return page, err
	}
	bySale := make(map[uint][]models.SaleItem, len(page.Items))
	for _, item := range items {
		bySale[item.SaleID] = append(bySale[item.SaleID], item)
	}
	for i := range page.Items {
		page.Items[i].Items = bySale[page.Items[i].ID]
	}
	return page, nil
}

// Credits pages sales that still carry a balance, newest first.
func (r *SaleRepository) Credits(ctx context.Context, p pagination.Params) (pagination.Page[models.CreditSale], error) {
	q := r.db.WithContext(ctx).Model(&models.Sale{}).
		Where("payment_status IN ?", []string{models.PaymentCredit, models.PaymentPartial})
	sales, err := orm.Paginate[models.Sale](q, p, "created_at DESC, id DESC")
	if err != nil {
		return pagination.Page[models.CreditSale]{}, err
	}

	paid, err := r.paidBySale(ctx, saleIDs(sales.Items)...)
	if err != nil {
		return pagination.Page[models.CreditSale]{}, err
	}

	credits := make([]models.CreditSale, len(sales.Items))
	for i, s := range sales.Items {
		credits[i] = models.CreditSale{
			SaleID:           s.ID,
			CustomerName:     s.CustomerName,
			CustomerPhone:    s.CustomerPhone,
			TotalAmount:      s.TotalAmount,
			PaymentStatus:    s.PaymentStatus,
			CreatedAt:        s.CreatedAt,
			TotalPaid:        paid[s.ID],
			RemainingBalance: s.TotalAmount.Sub(paid[s.ID]),
		}
	}
	return pagination.Page[models.CreditSale]{Items: credits, Meta: sales.Meta}, nil
}

func (r *SaleRepository) CreatePayment(ctx context.Context, payment *models.SalePayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *SaleRepository) FindPayment(ctx context.Context, id uint) (models.SalePayment, error) {
	var payment models.SalePayment
	err := orm.First(r.db.WithContext(ctx).Where("id = ?", id), &payment, fmt.Sprintf("Payment %d not found", id))
	return payment, err
}

func (r *SaleRepository) DeletePayment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.SalePayment{}, id).Error
}

func (r *SaleRepository) DeletePayments(ctx context.Context, saleID uint) error {
	return r.db.WithContext(ctx).Where("sale_id = ?", saleID).Delete(&models.SalePayment{}).Error
}

// Payments lists the payments of saleID in the order they were made.
func (r *SaleRepository) Payments(ctx context.Context, saleID uint) ([]models.SalePayment, error) {
	payments := []models.SalePayment{}
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Order("paid_at ASC, id ASC").Find(&payments).Error
	return payments, err
}

// PaidTotal sums every payment recorded against saleID.
func (r *SaleRepository) PaidTotal(ctx context.Context, saleID uint) (decimal.Decimal, error) {
	paid, err := r.paidBySale(ctx, saleID)
	return paid[saleID], err
}

// paidBySale sums payments per sale in Go so the result stays exact on
// stores that aggregate decimals as floats.
func (r *SaleRepository) paidBySale(ctx context.Context, ids ...uint) (map[uint]decimal.Decimal, error) {
	totals := make(map[uint]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return totals, nil
	}
	var payments []models.SalePayment
	if err := r.db.WithContext(ctx).Select("sale_id", "amount").Where("sale_id IN ?", ids).Find(&payments).Error; err != nil {
		return nil, err
	}
	for _, p := range payments {
		totals[p.SaleID] = totals[p.SaleID].Add(p.Amount)
	}
	return totals, nil
}

func saleIDs(sales []models.Sale) []uint {
	ids := make([]uint, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
	}
	return ids
}
