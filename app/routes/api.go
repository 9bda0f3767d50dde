// Package routes mounts the API endpoints on the router.
package routes

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/controllers"
	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/pkg/auth"
	"github.com/shashiranjanraj/stockbook/pkg/cache"
	"github.com/shashiranjanraj/stockbook/pkg/ctx"
	"github.com/shashiranjanraj/stockbook/pkg/middleware"
	"github.com/shashiranjanraj/stockbook/pkg/rbac"
	"github.com/shashiranjanraj/stockbook/pkg/router"
)

// Options carries what the API handlers are built from.
type Options struct {
	DB     *gorm.DB
	Tokens *auth.Tokens
	// Cache backs product lookups. Nil disables caching.
	Cache *cache.Store
	// AllowNegativeStock lets sales take stock below zero.
	AllowNegativeStock bool
	// AuthLimiter throttles signup and login. Nil disables it.
	AuthLimiter *middleware.Limiter
}

// Register builds the services and mounts every API route on r.
func Register(r *router.Router, opts Options) {
	keeper := services.NewStockKeeper(opts.AllowNegativeStock)
	userService := services.NewUsers(opts.DB, opts.Tokens)
	ledger := services.NewLedger(opts.DB, keeper, opts.Cache)

	users := controllers.NewUserController(userService)
	products := controllers.NewProductController(services.NewProducts(opts.DB, keeper, opts.Cache))
	purchases := controllers.NewPurchaseController(ledger)
	sales := controllers.NewSaleController(ledger)
	payments := controllers.NewPaymentController(services.NewPayments(opts.DB))
	prices := controllers.NewPriceController(services.NewPrices(opts.DB, opts.Cache))

	guard := middleware.NewGuard(opts.Tokens, userService)
	authed := guard.Authenticate
	admin := []router.Middleware{guard.Authenticate, rbac.Admin}

	var throttle []router.Middleware
	if opts.AuthLimiter != nil {
		throttle = append(throttle, opts.AuthLimiter.Middleware)
	}

	u := r.Group("/users")
	u.Post("/signup", "users.signup", ctx.Wrap(users.Signup), throttle...)
	u.Post("/login", "users.login", ctx.Wrap(users.Login), throttle...)
	u.Post("/refresh", "users.refresh", ctx.Wrap(users.Refresh))
	u.Post("/logout", "users.logout", ctx.Wrap(users.Logout), authed)
	u.Get("/me", "users.me", ctx.Wrap(users.Me), authed)
	u.Get("", "users.index", ctx.Wrap(users.Index), admin...)

	p := r.Group("/products")
	p.Post("", "products.store", ctx.Wrap(products.Store), admin...)
	p.Get("", "products.index", ctx.Wrap(products.Index), authed)
	p.Get("/{id}", "products.show", ctx.Wrap(products.Show), authed)
	p.Put("/{id}", "products.update", ctx.Wrap(products.Update), admin...)
	p.Delete("/{id}", "products.destroy", ctx.Wrap(products.Destroy), admin...)
	p.Get("/{id}/movements", "products.movements", ctx.Wrap(products.Movements), authed)

	pu := r.Group("/purchases")
	pu.Post("", "purchases.store", ctx.Wrap(purchases.Store), authed)
	pu.Get("", "purchases.index", ctx.Wrap(purchases.Index), authed)
	pu.Get("/{id}", "purchases.show", ctx.Wrap(purchases.Show), authed)
	pu.Put("/{id}", "purchases.update", ctx.Wrap(purchases.Update), admin...)
	pu.Delete("/{id}", "purchases.destroy", ctx.Wrap(purchases.Destroy), admin...)

	s := r.Group("/sales")
	s.Post("", "sales.store", ctx.Wrap(sales.Store), authed)
	s.Get("", "sales.index", ctx.Wrap(sales.Index), authed)
	s.Get("/credits", "sales.credits", ctx.Wrap(sales.Credits), authed)
	s.Get("/{id}", "sales.show", ctx.Wrap(sales.Show), authed)
	s.Put("/{id}", "sales.update", ctx.Wrap(sales.Update), authed)
	s.Delete("/{id}", "sales.destroy", ctx.Wrap(sales.Destroy), admin...)

	pr := r.Group("/prices")
	pr.Post("", "prices.store", ctx.Wrap(prices.Store), admin...)
	pr.Get("/{product_id}", "prices.history", ctx.Wrap(prices.History), authed)

	pay := r.Group("/payments")
	pay.Post("", "payments.store", ctx.Wrap(payments.Store), authed)
	pay.Get("/{sale_id}", "payments.index", ctx.Wrap(payments.Index), authed)
	pay.Delete("/{id}", "payments.destroy", ctx.Wrap(payments.Destroy), admin...)
}
