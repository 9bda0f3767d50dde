// Package testkit provides the shared fixtures for package tests: a
// migrated in-memory SQLite database and JSON request helpers built on
// httptest and testify.
package testkit

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	_ "github.com/shashiranjanraj/stockbook/database/migrations"
	"github.com/shashiranjanraj/stockbook/pkg/database"
	"github.com/shashiranjanraj/stockbook/pkg/migration"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database, runs every registered
// migration and closes it when the test ends. The pool holds a single
// connection, so code under test must use the tx handed to it inside a
// transaction.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.Open("sqlite", dsn, database.Options{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, migration.New(db, nil).Run())
	return db
}
