// Package kernel assembles the HTTP handler: the global middleware stack,
// the JSON fallbacks, the health and metrics endpoints, and the app routes.
package kernel

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/pkg/database"
	"github.com/shashiranjanraj/stockbook/pkg/metrics"
	"github.com/shashiranjanraj/stockbook/pkg/middleware"
	"github.com/shashiranjanraj/stockbook/pkg/reqid"
	"github.com/shashiranjanraj/stockbook/pkg/response"
	"github.com/shashiranjanraj/stockbook/pkg/router"
	"github.com/shashiranjanraj/stockbook/pkg/tracing"
)

// Options configures the kernel.
type Options struct {
	DB          *gorm.DB
	CORSOrigins []string
}

// NewHTTP builds the router and hands it to each register func in turn.
func NewHTTP(opts Options, register ...func(*router.Router)) *router.Router {
	r := router.New()

	// Outermost first. metrics and tracing read the chi route pattern after
	// the handler returns, so they must sit inside chi's mux.
	r.Use(metrics.Middleware())
	r.Use(tracing.Middleware)
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(opts.CORSOrigins)))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/healthz", "health", health(opts.DB))
	r.Get("/metrics", "metrics", metrics.Handler())

	for _, fn := range register {
		fn(r)
	}
	return r
}

func health(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			response.Error(w, http.StatusServiceUnavailable, "database not configured")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.Ping(ctx, db); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		response.Success(w, map[string]string{"status": "ok"})
	}
}
