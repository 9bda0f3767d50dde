package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypedReaders(t *testing.T) {
	Set("TEST_INT", "42")
	Set("TEST_BAD_INT", "forty")
	Set("TEST_BOOL", "yes")
	Set("TEST_DURATION", "90s")
	Set("TEST_LIST", " a, ,b ,c")

	assert.Equal(t, 42, Int("TEST_INT", 1))
	assert.Equal(t, 1, Int("TEST_BAD_INT", 1))
	assert.True(t, Bool("TEST_BOOL", false))
	assert.True(t, Bool("TEST_UNSET_BOOL", true))
	assert.Equal(t, 90*time.Second, Duration("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, Duration("TEST_UNSET_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, List("TEST_LIST", ""))
	assert.Equal(t, "fallback", Get("TEST_UNSET", "fallback"))
}

func TestDatabaseDriverFallback(t *testing.T) {
	t.Cleanup(func() { Set("DB_DRIVER", defaultDatabaseDriver); Set("DATABASE_DSN", "") })

	Set("DB_DRIVER", "Postgres")
	assert.Equal(t, "postgres", DatabaseDriver())
	assert.Equal(t, defaultPostgresDSN, DatabaseDSN())

	Set("DB_DRIVER", "oracle")
	assert.Equal(t, "sqlite", DatabaseDriver())

	Set("DATABASE_DSN", "file:custom.db")
	assert.Equal(t, "file:custom.db", DatabaseDSN())
}

func TestAllowNegativeStock(t *testing.T) {
	t.Cleanup(func() { Set("INVENTORY_ALLOW_NEGATIVE_STOCK", "false") })

	assert.False(t, AllowNegativeStock())
	Set("INVENTORY_ALLOW_NEGATIVE_STOCK", "true")
	assert.True(t, AllowNegativeStock())
}
