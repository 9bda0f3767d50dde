// Package models holds the gorm row structs for the inventory tables.
package models

import "github.com/shopspring/decimal"

func init() {
	// Money is emitted as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}
