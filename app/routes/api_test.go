package routes_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockbook/app/routes"
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/internal/kernel"
	"github.com/shashiranjanraj/stockbook/pkg/auth"
	"github.com/shashiranjanraj/stockbook/pkg/router"
	"github.com/shashiranjanraj/stockbook/pkg/testkit"
)

type api struct {
	h     http.Handler
	admin string
	clerk string
}

func newAPI(t *testing.T) api {
	t.Helper()
	db := testkit.NewDB(t)
	tokens := auth.NewTokens("access", "refresh", time.Hour, 24*time.Hour)

	r := kernel.NewHTTP(kernel.Options{DB: db, CORSOrigins: []string{"http://localhost:3000"}}, func(r *router.Router) {
		routes.Register(r, routes.Options{DB: db, Tokens: tokens})
	})

	_, err := services.NewUsers(db, tokens).EnsureAdmin(context.Background(), "admin", "adminpass")
	require.NoError(t, err)

	a := api{h: r.Handler()}
	a.admin = a.login(t, "admin", "adminpass")

	rec, env := testkit.Do(t, a.h, http.MethodPost, "/users/signup", map[string]string{
		"username": "clerk", "password": "clerkpass", "firstname": "Clerk",
	}, "")
	testkit.AssertStatus(t, http.StatusCreated, rec, env)
	a.clerk = a.login(t, "clerk", "clerkpass")
	return a
}

func (a api) login(t *testing.T, username, password string) string {
	t.Helper()
	rec, env := testkit.Do(t, a.h, http.MethodPost, "/users/login", map[string]string{"username": username, "password": password}, "")
	testkit.AssertStatus(t, http.StatusOK, rec, env)
	var session services.Session
	testkit.DecodeData(t, env, &session)
	require.NotEmpty(t, session.Token)
	return session.Token
}

func (a api) do(t *testing.T, method, path string, body any, token string) testkit.Envelope {
	t.Helper()
	_, env := testkit.Do(t, a.h, method, path, body, token)
	return env
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)

	rec, env := testkit.Do(t, a.h, http.MethodPost, "/users/signup", map[string]string{"username": "clerk", "password": "whatever1"}, "")
	testkit.AssertStatus(t, http.StatusConflict, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/users/login", map[string]string{"username": "clerk", "password": "nope"}, "")
	testkit.AssertStatus(t, http.StatusUnauthorized, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodGet, "/products", nil, "")
	testkit.AssertStatus(t, http.StatusUnauthorized, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodGet, "/users", nil, a.clerk)
	testkit.AssertStatus(t, http.StatusForbidden, rec, env)
	assert.Equal(t, "Admins only!", env.Message)

	rec, env = testkit.Do(t, a.h, http.MethodGet, "/users", nil, a.admin)
	testkit.AssertStatus(t, http.StatusOK, rec, env)
	assert.NotContains(t, string(env.Data), "password")
	assert.Contains(t, string(env.Data), `"totalRecords":2`)

	rec, env = testkit.Do(t, a.h, http.MethodGet, "/users/me", nil, a.clerk)
	testkit.AssertStatus(t, http.StatusOK, rec, env)
	assert.Contains(t, string(env.Data), `"username":"clerk"`)
}

func TestRefreshAndLogout(t *testing.T) {
	a := newAPI(t)

	rec, env := testkit.Do(t, a.h, http.MethodPost, "/users/login", map[string]string{"username": "clerk", "password": "clerkpass"}, "")
	testkit.AssertStatus(t, http.StatusOK, rec, env)
	var session services.Session
	testkit.DecodeData(t, env, &session)

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/users/refresh", map[string]string{}, "")
	testkit.AssertStatus(t, http.StatusBadRequest, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/users/refresh", map[string]string{"refreshToken": "garbage"}, "")
	testkit.AssertStatus(t, http.StatusUnauthorized, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/users/refresh", map[string]string{"refreshToken": session.RefreshToken}, "")
	testkit.AssertStatus(t, http.StatusOK, rec, env)
	assert.Contains(t, string(env.Data), "accessToken")

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/users/logout", nil, session.Token)
	testkit.AssertStatus(t, http.StatusOK, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/users/refresh", map[string]string{"refreshToken": session.RefreshToken}, "")
	testkit.AssertStatus(t, http.StatusUnauthorized, rec, env)
}

func TestInventoryFlow(t *testing.T) {
	a := newAPI(t)

	rec, env := testkit.Do(t, a.h, http.MethodPost, "/products", map[string]any{"name": "Rice", "unit": "kg", "price": 100, "stock": 10}, a.clerk)
	testkit.AssertStatus(t, http.StatusForbidden, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/products", map[string]any{"name": "Rice", "unit": "kg", "price": 100, "stock": 10}, a.admin)
	testkit.AssertStatus(t, http.StatusCreated, rec, env)
	var created struct {
		ProductID uint `json:"productId"`
	}
	testkit.DecodeData(t, env, &created)
	productPath := fmt.Sprintf("/products/%d", created.ProductID)

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/purchases", map[string]any{
		"supplier_name": "Acme",
		"items":         []map[string]any{{"product_id": created.ProductID, "quantity": 5, "purchase_price": 80}},
	}, a.clerk)
	testkit.AssertStatus(t, http.StatusCreated, rec, env)
	assert.Equal(t, 15, stockOf(t, a, productPath))

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/sales", map[string]any{
		"customer_name": "Asha",
		"items":         []map[string]any{{"product_id": created.ProductID, "quantity": 3, "selling_price": 100}},
	}, a.clerk)
	testkit.AssertStatus(t, http.StatusCreated, rec, env)
	var sale services.SaleResult
	testkit.DecodeData(t, env, &sale)
	assert.Equal(t, "credit", sale.PaymentStatus)
	assert.Equal(t, 12, stockOf(t, a, productPath))

	rec, env = testkit.Do(t, a.h, http.MethodGet, "/sales/credits", nil, a.clerk)
	testkit.AssertStatus(t, http.StatusOK, rec, env)
	assert.Contains(t, string(env.Data), `"remaining_balance":300`)

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/payments", map[string]any{"sale_id": sale.ID, "amount": 300, "payment_type": "cash"}, a.clerk)
	testkit.AssertStatus(t, http.StatusCreated, rec, env)
	var paid services.PaymentResult
	testkit.DecodeData(t, env, &paid)
	assert.Equal(t, "paid", paid.NewPaymentStatus)

	rec, env = testkit.Do(t, a.h, http.MethodPost, "/payments", map[string]any{"sale_id": sale.ID, "amount": 1, "payment_type": "cash"}, a.clerk)
	testkit.AssertStatus(t, http.StatusBadRequest, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodGet, fmt.Sprintf("/payments/%d", sale.ID), nil, a.clerk)
	testkit.AssertStatus(t, http.StatusOK, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodDelete, productPath, nil, a.admin)
	testkit.AssertStatus(t, http.StatusConflict, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodDelete, fmt.Sprintf("/sales/%d", sale.ID), nil, a.clerk)
	testkit.AssertStatus(t, http.StatusForbidden, rec, env)

	rec, env = testkit.Do(t, a.h, http.MethodDelete, fmt.Sprintf("/sales/%d", sale.ID), nil, a.admin)
	testkit.AssertStatus(t, http.StatusOK, rec, env)
	assert.Equal(t, 15, stockOf(t, a, productPath))

	rec, env = testkit.Do(t, a.h, http.MethodGet, productPath+"/movements", nil, a.clerk)
	testkit.AssertStatus(t, http.StatusOK, rec, env)
	assert.Contains(t, string(env.Data), `"totalRecords":4`)
}

func TestPricesAndValidation(t *testing.T) {
	a := newAPI(t)

	env := a.do(t, http.MethodPost, "/products", map[string]any{"name": "Dal", "unit": "kg", "price": 90}, a.admin)
	require.Equal(t, http.StatusCreated, env.Status)
	var created struct {
		ProductID uint `json:"productId"`
	}
	testkit.DecodeData(t, env, &created)

	env = a.do(t, http.MethodPost, "/prices", map[string]any{"product_id": created.ProductID, "price": 95.5}, a.admin)
	require.Equal(t, http.StatusCreated, env.Status)
	assert.Contains(t, string(env.Data), "priceHistoryId")

	env = a.do(t, http.MethodGet, fmt.Sprintf("/prices/%d?limit=1", created.ProductID), nil, a.clerk)
	require.Equal(t, http.StatusOK, env.Status)
	assert.Contains(t, string(env.Data), `"totalRecords":2`)
	assert.Contains(t, string(env.Data), `"price":95.5`)

	env = a.do(t, http.MethodGet, fmt.Sprintf("/prices/%d?from=yesterday", created.ProductID), nil, a.clerk)
	assert.Equal(t, http.StatusBadRequest, env.Status)
	assert.Contains(t, env.Errors, "from")

	env = a.do(t, http.MethodPost, "/sales", map[string]any{"customer_name": "Asha", "items": []any{}}, a.clerk)
	assert.Equal(t, http.StatusBadRequest, env.Status)
	assert.Contains(t, env.Errors, "items")

	env = a.do(t, http.MethodPost, "/sales", map[string]any{
		"customer_name": "Asha",
		"items":         []map[string]any{{"product_id": created.ProductID, "quantity": 1, "selling_price": 10}},
	}, a.clerk)
	assert.Equal(t, http.StatusBadRequest, env.Status)
	assert.Contains(t, env.Message, "Insufficient stock")

	env = a.do(t, http.MethodGet, "/products/abc", nil, a.clerk)
	assert.Equal(t, http.StatusBadRequest, env.Status)

	env = a.do(t, http.MethodGet, "/products/999", nil, a.clerk)
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestKernelEndpoints(t *testing.T) {
	a := newAPI(t)

	env := a.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, env.Status)

	env = a.do(t, http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, env.Status)

	req := testkit.Request(t, http.MethodOptions, "/sales", nil, "")
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptestRecorder(a.h, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func stockOf(t *testing.T, a api, path string) int {
	t.Helper()
	env := a.do(t, http.MethodGet, path, nil, a.clerk)
	require.Equal(t, http.StatusOK, env.Status)
	var p struct {
		Stock int `json:"stock"`
	}
	testkit.DecodeData(t, env, &p)
	return p.Stock
}
