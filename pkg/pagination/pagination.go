// Package pagination turns page/limit query parameters into an offset
// window and builds the metadata returned with every listing.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params is a resolved page window.
type Params struct {
	Page  int
	Limit int
}

// FromQuery parses raw page and limit values. Missing, malformed or
// non-positive values fall back to the defaults; limit is capped at MaxLimit.
func FromQuery(page, limit string) Params {
	p := Params{Page: DefaultPage, Limit: DefaultLimit}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// FromRequest reads ?page= and ?limit= from r.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	return FromQuery(q.Get("page"), q.Get("limit"))
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes a page relative to the full result set.
type Meta struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
	Limit        int   `json:"limit"`
}

// Meta builds page metadata for total matching rows.
func (p Params) Meta(total int64) Meta {
	pages := 0
	if total > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Meta{
		CurrentPage:  p.Page,
		TotalPages:   pages,
		TotalRecords: total,
		Limit:        p.Limit,
	}
}

// Page is one page of items plus its metadata. It flattens into the JSON
// shape {items, currentPage, totalPages, totalRecords, limit}.
type Page[T any] struct {
	Items []T `json:"items"`
	Meta
}

// NewPage pairs items with the metadata for total.
func NewPage[T any](p Params, items []T, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Meta: p.Meta(total)}
}
