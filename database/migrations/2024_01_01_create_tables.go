package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/pkg/migration"
)

func init() {
	migration.Register("2024_01_01_000001_create_users_table", &createUsersTable{})
	migration.Register("2024_01_01_000002_create_products_tables", &createProductsTables{})
	migration.Register("2024_01_01_000003_create_purchases_tables", &createPurchasesTables{})
	migration.Register("2024_01_01_000004_create_sales_tables", &createSalesTables{})
	migration.Register("2024_01_01_000005_create_stock_movements_table", &createStockMovementsTable{})
}

type createUsersTable struct{}

func (createUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (createUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.User{})
}

type createProductsTables struct{}

func (createProductsTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{}, &models.ProductPrice{})
}

func (createProductsTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.ProductPrice{}, &models.Product{})
}

type createPurchasesTables struct{}

func (createPurchasesTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Purchase{}, &models.PurchaseItem{})
}

func (createPurchasesTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.PurchaseItem{}, &models.Purchase{})
}

type createSalesTables struct{}

func (createSalesTables) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Sale{}, &models.SaleItem{}, &models.SalePayment{})
}

func (createSalesTables) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.SalePayment{}, &models.SaleItem{}, &models.Sale{})
}

type createStockMovementsTable struct{}

func (createStockMovementsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.StockMovement{})
}

func (createStockMovementsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.StockMovement{})
}
