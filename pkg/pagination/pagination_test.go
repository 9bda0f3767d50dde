package pagination_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockbook/pkg/pagination"
)

func TestFromQuery(t *testing.T) {
	cases := []struct {
		name        string
		page, limit string
		want        pagination.Params
	}{
		{"defaults", "", "", pagination.Params{Page: 1, Limit: 10}},
		{"explicit", "3", "25", pagination.Params{Page: 3, Limit: 25}},
		{"junk", "abc", "x", pagination.Params{Page: 1, Limit: 10}},
		{"zero", "0", "0", pagination.Params{Page: 1, Limit: 10}},
		{"negative", "-2", "-5", pagination.Params{Page: 1, Limit: 10}},
		{"capped", "1", "5000", pagination.Params{Page: 1, Limit: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pagination.FromQuery(tc.page, tc.limit))
		})
	}
}

func TestOffsetAndMeta(t *testing.T) {
	p := pagination.Params{Page: 3, Limit: 10}
	assert.Equal(t, 20, p.Offset())

	m := p.Meta(21)
	assert.Equal(t, 3, m.TotalPages)
	assert.Equal(t, int64(21), m.TotalRecords)

	assert.Equal(t, 0, p.Meta(0).TotalPages)
	assert.Equal(t, 2, pagination.Params{Page: 1, Limit: 10}.Meta(20).TotalPages)
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/products?page=2&limit=5", nil)
	assert.Equal(t, pagination.Params{Page: 2, Limit: 5}, pagination.FromRequest(r))
}

func TestPageJSONShape(t *testing.T) {
	page := pagination.NewPage[string](pagination.Params{Page: 1, Limit: 2}, nil, 0)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"currentPage":1,"totalPages":0,"totalRecords":0,"limit":2}`, string(raw))
}
