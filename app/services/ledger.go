package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/app/repositories"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/cache"
	"github.com/shashiranjanraj/stockbook/pkg/database"
	"github.com/shashiranjanraj/stockbook/pkg/metrics"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
	"github.com/shashiranjanraj/stockbook/pkg/tracing"
)

// PurchaseItemInput is one line of a purchase.
type PurchaseItemInput struct {
	ProductID     uint            `json:"product_id" validate:"required"`
	Quantity      int             `json:"quantity" validate:"required,gt=0"`
	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"required,gt=0,money"`
}

// PurchaseInput is the body of purchase create and update.
type PurchaseInput struct {
	SupplierName  string              `json:"supplier_name" validate:"required,max=255"`
	SupplierPhone *string             `json:"supplier_phone" validate:"omitempty,max=20"`
	PurchasedAt   *time.Time          `json:"purchased_at"`
	Items         []PurchaseItemInput `json:"items" validate:"required,min=1,dive"`
}

func (in PurchaseInput) total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range in.Items {
		total = total.Add(item.PurchasePrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// SaleItemInput is one line of a sale.
type SaleItemInput struct {
	ProductID    uint            `json:"product_id" validate:"required"`
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"required,gt=0,money"`
}

// SaleInput is the body of sale create and update.
type SaleInput struct {
	CustomerName  string          `json:"customer_name" validate:"required,max=255"`
	CustomerPhone *string         `json:"customer_phone" validate:"omitempty,max=20"`
	Items         []SaleItemInput `json:"items" validate:"required,min=1,dive"`
}

func (in SaleInput) total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range in.Items {
		total = total.Add(item.SellingPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// SaleResult is what a sale mutation reports back.
type SaleResult struct {
	ID            uint   `json:"saleId"`
	PaymentStatus string `json:"paymentStatus"`
}

// Ledger runs purchase and sale mutations. Each one reverses the stock
// effect of the old lines, writes the new lines, applies their effect and
// recomputes the parent's totals inside a single transaction.
type Ledger struct {
	db    *gorm.DB
	stock StockKeeper
	cache *cache.Store
}

func NewLedger(db *gorm.DB, stock StockKeeper, store *cache.Store) *Ledger {
	return &Ledger{db: db, stock: stock, cache: store}
}

// ── Purchases ────────────────────────────────────────────────────────────────

func (l *Ledger) CreatePurchase(ctx context.Context, in PurchaseInput) (id uint, err error) {
	if err := check(in); err != nil {
		return 0, err
	}
	ctx, span := tracing.Start(ctx, "ledger.CreatePurchase", attribute.Int("items", len(in.Items)))
	defer func() { tracing.End(span, err) }()

	purchase := models.Purchase{
		SupplierName:  in.SupplierName,
		SupplierPhone: in.SupplierPhone,
		TotalAmount:   in.total(),
		PurchasedAt:   time.Now(),
	}
	if in.PurchasedAt != nil {
		purchase.PurchasedAt = *in.PurchasedAt
	}

	var moved []models.StockMovement
	err = database.Transact(ctx, l.db, func(tx *gorm.DB) error {
		purchases := repositories.NewPurchaseRepository(tx)
		if err := purchases.Create(ctx, &purchase); err != nil {
			return err
		}
		var err error
		moved, err = l.addPurchaseItems(ctx, tx, purchase.ID, in.Items)
		return err
	})
	metrics.RecordLedger("purchase", "create", outcome(err))
	if err != nil {
		return 0, err
	}
	settle(ctx, l.cache, moved)
	return purchase.ID, nil
}

// UpdatePurchase replaces the lines and header of purchase id. New lines
// are applied before the old ones are reversed, so resubmitting the same
// lines never trips the stock guard.
func (l *Ledger) UpdatePurchase(ctx context.Context, id uint, in PurchaseInput) (err error) {
	if err := check(in); err != nil {
		return err
	}
	ctx, span := tracing.Start(ctx, "ledger.UpdatePurchase", attribute.Int64("purchase_id", int64(id)))
	defer func() { tracing.End(span, err) }()

	var moved []models.StockMovement
	err = database.Transact(ctx, l.db, func(tx *gorm.DB) error {
		purchases := repositories.NewPurchaseRepository(tx)
		if _, err := purchases.FindByID(ctx, id); err != nil {
			return err
		}
		old, err := purchases.Items(ctx, id)
		if err != nil {
			return err
		}
		if err := purchases.DeleteItems(ctx, id); err != nil {
			return err
		}

		added, err := l.addPurchaseItems(ctx, tx, id, in.Items)
		if err != nil {
			return err
		}
		reversed, err := l.stock.ApplyAll(ctx, tx, purchaseReversals(id, old))
		if err != nil {
			return err
		}
		moved = append(added, reversed...)

		fields := map[string]interface{}{
			"supplier_name":  in.SupplierName,
			"supplier_phone": in.SupplierPhone,
			"total_amount":   in.total(),
		}
		if in.PurchasedAt != nil {
			fields["purchased_at"] = *in.PurchasedAt
		}
		return purchases.Update(ctx, id, fields)
	})
	metrics.RecordLedger("purchase", "update", outcome(err))
	if err != nil {
		return err
	}
	settle(ctx, l.cache, moved)
	return nil
}

// DeletePurchase removes purchase id and takes its quantities back out of
// stock.
func (l *Ledger) DeletePurchase(ctx context.Context, id uint) (err error) {
	ctx, span := tracing.Start(ctx, "ledger.DeletePurchase", attribute.Int64("purchase_id", int64(id)))
	defer func() { tracing.End(span, err) }()

	var moved []models.StockMovement
	err = database.Transact(ctx, l.db, func(tx *gorm.DB) error {
		purchases := repositories.NewPurchaseRepository(tx)
		if _, err := purchases.FindByID(ctx, id); err != nil {
			return err
		}
		old, err := purchases.Items(ctx, id)
		if err != nil {
			return err
		}
		if moved, err = l.stock.ApplyAll(ctx, tx, purchaseReversals(id, old)); err != nil {
			return err
		}
		if err := purchases.DeleteItems(ctx, id); err != nil {
			return err
		}
		return purchases.Delete(ctx, id)
	})
	metrics.RecordLedger("purchase", "delete", outcome(err))
	if err != nil {
		return err
	}
	settle(ctx, l.cache, moved)
	return nil
}

func (l *Ledger) GetPurchase(ctx context.Context, id uint) (models.Purchase, error) {
	return repositories.NewPurchaseRepository(l.db).Get(ctx, id)
}

func (l *Ledger) ListPurchases(ctx context.Context, p pagination.Params) (pagination.Page[models.Purchase], error) {
	return repositories.NewPurchaseRepository(l.db).List(ctx, p)
}

func (l *Ledger) addPurchaseItems(ctx context.Context, tx *gorm.DB, purchaseID uint, in []PurchaseItemInput) ([]models.StockMovement, error) {
	items := make([]models.PurchaseItem, len(in))
	changes := make([]StockChange, len(in))
	for i, item := range in {
		items[i] = models.PurchaseItem{
			PurchaseID:    purchaseID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			PurchasePrice: item.PurchasePrice,
		}
		changes[i] = StockChange{ProductID: item.ProductID, Delta: item.Quantity, Reason: models.ReasonPurchase, Ref: &purchaseID}
	}
	if err := repositories.NewPurchaseRepository(tx).CreateItems(ctx, items); err != nil {
		return nil, err
	}
	return l.stock.ApplyAll(ctx, tx, changes)
}

func purchaseReversals(purchaseID uint, items []models.PurchaseItem) []StockChange {
	changes := make([]StockChange, len(items))
	for i, item := range items {
		changes[i] = StockChange{ProductID: item.ProductID, Delta: -item.Quantity, Reason: models.ReasonPurchaseReversal, Ref: &purchaseID}
	}
	return changes
}

// ── Sales ────────────────────────────────────────────────────────────────────

func (l *Ledger) CreateSale(ctx context.Context, in SaleInput) (res SaleResult, err error) {
	if err := check(in); err != nil {
		return res, err
	}
	ctx, span := tracing.Start(ctx, "ledger.CreateSale", attribute.Int("items", len(in.Items)))
	defer func() { tracing.End(span, err) }()

	total := in.total()
	sale := models.Sale{
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		TotalAmount:   total,
		PaymentStatus: models.DerivePaymentStatus(total, decimal.Zero),
	}

	var moved []models.StockMovement
	err = database.Transact(ctx, l.db, func(tx *gorm.DB) error {
		sales := repositories.NewSaleRepository(tx)
		if err := sales.Create(ctx, &sale); err != nil {
			return err
		}
		var err error
		moved, err = l.addSaleItems(ctx, tx, sale.ID, in.Items)
		return err
	})
	metrics.RecordLedger("sale", "create", outcome(err))
	if err != nil {
		return SaleResult{}, err
	}
	settle(ctx, l.cache, moved)
	return SaleResult{ID: sale.ID, PaymentStatus: sale.PaymentStatus}, nil
}

// UpdateSale restocks the old lines of sale id, writes the new ones and
// rederives the payment status from every payment on file. A new total
// below the amount already paid is refused.
func (l *Ledger) UpdateSale(ctx context.Context, id uint, in SaleInput) (res SaleResult, err error) {
	if err := check(in); err != nil {
		return res, err
	}
	ctx, span := tracing.Start(ctx, "ledger.UpdateSale", attribute.Int64("sale_id", int64(id)))
	defer func() { tracing.End(span, err) }()

	total := in.total()
	var moved []models.StockMovement
	err = database.Transact(ctx, l.db, func(tx *gorm.DB) error {
		sales := repositories.NewSaleRepository(tx)
		if _, err := sales.FindByIDForUpdate(ctx, id); err != nil {
			return err
		}
		paid, err := sales.PaidTotal(ctx, id)
		if err != nil {
			return err
		}
		if total.LessThan(paid) {
			return apperror.Validation("Sale total %s is below the %s already paid", total.StringFixed(2), paid.StringFixed(2))
		}

		old, err := sales.Items(ctx, id)
		if err != nil {
			return err
		}
		restocked, err := l.stock.ApplyAll(ctx, tx, saleReversals(id, old))
		if err != nil {
			return err
		}
		if err := sales.DeleteItems(ctx, id); err != nil {
			return err
		}
		sold, err := l.addSaleItems(ctx, tx, id, in.Items)
		if err != nil {
			return err
		}
		moved = append(restocked, sold...)

		res = SaleResult{ID: id, PaymentStatus: models.DerivePaymentStatus(total, paid)}
		return sales.Update(ctx, id, map[string]interface{}{
			"customer_name":  in.CustomerName,
			"customer_phone": in.CustomerPhone,
			"total_amount":   total,
			"payment_status": res.PaymentStatus,
		})
	})
	metrics.RecordLedger("sale", "update", outcome(err))
	if err != nil {
		return SaleResult{}, err
	}
	settle(ctx, l.cache, moved)
	return res, nil
}

// DeleteSale removes sale id with its lines and payments and puts its
// quantities back into stock.
func (l *Ledger) DeleteSale(ctx context.Context, id uint) (err error) {
	ctx, span := tracing.Start(ctx, "ledger.DeleteSale", attribute.Int64("sale_id", int64(id)))
	defer func() { tracing.End(span, err) }()

	var moved []models.StockMovement
	err = database.Transact(ctx, l.db, func(tx *gorm.DB) error {
		sales := repositories.NewSaleRepository(tx)
		if _, err := sales.FindByIDForUpdate(ctx, id); err != nil {
			return err
		}
		old, err := sales.Items(ctx, id)
		if err != nil {
			return err
		}
		if moved, err = l.stock.ApplyAll(ctx, tx, saleReversals(id, old)); err != nil {
			return err
		}
		if err := sales.DeleteItems(ctx, id); err != nil {
			return err
		}
		if err := sales.DeletePayments(ctx, id); err != nil {
			return err
		}
		return sales.Delete(ctx, id)
	})
	metrics.RecordLedger("sale", "delete", outcome(err))
	if err != nil {
		return err
	}
	settle(ctx, l.cache, moved)
	return nil
}

func (l *Ledger) GetSale(ctx context.Context, id uint) (models.Sale, error) {
	return repositories.NewSaleRepository(l.db).Get(ctx, id)
}

func (l *Ledger) ListSales(ctx context.Context, p pagination.Params) (pagination.Page[models.Sale], error) {
	return repositories.NewSaleRepository(l.db).List(ctx, p)
}

// Credits pages the sales with an outstanding balance.
func (l *Ledger) Credits(ctx context.Context, p pagination.Params) (pagination.Page[models.CreditSale], error) {
	return repositories.NewSaleRepository(l.db).Credits(ctx, p)
}

func (l *Ledger) addSaleItems(ctx context.Context, tx *gorm.DB, saleID uint, in []SaleItemInput) ([]models.StockMovement, error) {
	items := make([]models.SaleItem, len(in))
	changes := make([]StockChange, len(in))
	for i, item := range in {
		items[i] = models.SaleItem{
			SaleID:       saleID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			SellingPrice: item.SellingPrice,
		}
		changes[i] = StockChange{ProductID: item.ProductID, Delta: -item.Quantity, Reason: models.ReasonSale, Ref: &saleID}
	}
	if err := repositories.NewSaleRepository(tx).CreateItems(ctx, items); err != nil {
		return nil, err
	}
	return l.stock.ApplyAll(ctx, tx, changes)
}

func saleReversals(saleID uint, items []models.SaleItem) []StockChange {
	changes := make([]StockChange, len(items))
	for i, item := range items {
		changes[i] = StockChange{ProductID: item.ProductID, Delta: item.Quantity, Reason: models.ReasonSaleReversal, Ref: &saleID}
	}
	return changes
}
