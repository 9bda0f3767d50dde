// Package orm has the small gorm helpers shared by every repository:
// point lookups that map a missing row to apperror.NotFound, and paged
// listings with a separate COUNT.
package orm

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
)

// First loads the first row matching q into dest. A missing row becomes an
// apperror.NotFound with notFound as its message.
func First(q *gorm.DB, dest interface{}, notFound string) error {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s", notFound)
	}
	return err
}

// Exists reports whether any row matches q.
func Exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ForUpdate makes q take a row lock on table that is held until the
// transaction ends. SQLite has no row locks and already serializes writers.
func ForUpdate(q *gorm.DB, table string) *gorm.DB {
	switch q.Dialector.Name() {
	case "sqlite":
		return q
	case "sqlserver":
		return q.Table(table + " WITH (UPDLOCK, ROWLOCK)")
	default:
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
}

// Paginate counts the rows matching q, then loads one page of them in
// order. The count and the page are separate statements, so a concurrent
// write can make totals and items disagree by a row.
func Paginate[T any](q *gorm.DB, p pagination.Params, order string) (pagination.Page[T], error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return pagination.Page[T]{}, fmt.Errorf("orm: count: %w", err)
	}

	var items []T
	if total > 0 {
		page := q.Session(&gorm.Session{}).Order(order).Limit(p.Limit).Offset(p.Offset())
		if err := page.Find(&items).Error; err != nil {
			return pagination.Page[T]{}, fmt.Errorf("orm: page: %w", err)
		}
	}
	return pagination.NewPage(p, items, total), nil
}
