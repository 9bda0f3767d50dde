package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/app/repositories"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
)

// ErrInsufficientStock is wrapped in the validation error returned when a
// decrement would take a product's stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockChange is one signed change to a product's stock.
type StockChange struct {
	ProductID uint
	Delta     int
	Reason    string
	Ref       *uint
}

// StockKeeper applies stock changes inside a caller's transaction and
// records a movement for each one.
type StockKeeper struct {
	allowNegative bool
}

// NewStockKeeper returns a keeper. With allowNegative set, decrements are
// applied unconditionally.
func NewStockKeeper(allowNegative bool) StockKeeper {
	return StockKeeper{allowNegative: allowNegative}
}

// Apply changes the stock of c.ProductID by c.Delta using tx and writes the
// matching movement row. A zero delta is a no-op and returns a zero movement.
func (k StockKeeper) Apply(ctx context.Context, tx *gorm.DB, c StockChange) (models.StockMovement, error) {
	if c.Delta == 0 {
		return models.StockMovement{}, nil
	}
	products := repositories.NewProductRepository(tx)

	n, err := products.AddStock(ctx, c.ProductID, c.Delta, !k.allowNegative)
	if err != nil {
		return models.StockMovement{}, err
	}
	if n == 0 {
		available, err := products.Stock(ctx, c.ProductID)
		if err != nil {
			return models.StockMovement{}, err
		}
		return models.StockMovement{}, &apperror.Error{
			Kind:    apperror.KindValidation,
			Message: insufficientMessage(c.ProductID, -c.Delta, available),
			Err:     ErrInsufficientStock,
		}
	}

	after, err := products.Stock(ctx, c.ProductID)
	if err != nil {
		return models.StockMovement{}, err
	}
	m := models.StockMovement{
		ProductID:   c.ProductID,
		Change:      c.Delta,
		StockAfter:  after,
		Reason:      c.Reason,
		ReferenceID: c.Ref,
	}
	if err := products.AddMovement(ctx, &m); err != nil {
		return models.StockMovement{}, err
	}
	return m, nil
}

// ApplyAll applies changes in order and stops at the first failure.
func (k StockKeeper) ApplyAll(ctx context.Context, tx *gorm.DB, changes []StockChange) ([]models.StockMovement, error) {
	moved := make([]models.StockMovement, 0, len(changes))
	for _, c := range changes {
		m, err := k.Apply(ctx, tx, c)
		if err != nil {
			return nil, err
		}
		if m.ProductID != 0 {
			moved = append(moved, m)
		}
	}
	return moved, nil
}

// IsInsufficientStock reports whether err came from the stock guard.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

func insufficientMessage(productID uint, requested, available int) string {
	return fmt.Sprintf("Insufficient stock for product %d: requested %d, available %d", productID, requested, available)
}
