package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockbook/app/routes"
	"github.com/shashiranjanraj/stockbook/config"
	"github.com/shashiranjanraj/stockbook/internal/kernel"
	"github.com/shashiranjanraj/stockbook/internal/server"
	"github.com/shashiranjanraj/stockbook/pkg/auth"
	"github.com/shashiranjanraj/stockbook/pkg/cache"
	"github.com/shashiranjanraj/stockbook/pkg/database"
	"github.com/shashiranjanraj/stockbook/pkg/logger"
	"github.com/shashiranjanraj/stockbook/pkg/middleware"
	"github.com/shashiranjanraj/stockbook/pkg/router"
	"github.com/shashiranjanraj/stockbook/pkg/tracing"
)

func tokensFromConfig() *auth.Tokens {
	return auth.NewTokens(config.AccessSecret(), config.RefreshSecret(), config.AccessTokenTTL(), config.RefreshTokenTTL())
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := config.Load(); err != nil {
			return err
		}

		closeLogs, err := logger.Setup(config.AppEnv(), config.LogMongoURI())
		if err != nil {
			return err
		}
		defer closeLogs()

		shutdownTracing, err := tracing.Setup(ctx, config.OTLPEndpoint(), "stockbook", version)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				logger.Warn("tracing shutdown failed", "error", err)
			}
		}()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		var store *cache.Store
		if addr := config.RedisAddr(); addr != "" {
			rdb, err := cache.Connect(ctx, addr, config.RedisPassword())
			if err != nil {
				logger.Warn("redis unavailable, product cache disabled", "addr", addr, "error", err)
			} else {
				defer rdb.Close()
				store = cache.New(rdb, "stockbook:", config.CacheTTL())
			}
		}

		r := kernel.NewHTTP(kernel.Options{DB: db, CORSOrigins: config.CORSOrigins()}, func(r *router.Router) {
			routes.Register(r, routes.Options{
				DB:                 db,
				Tokens:             tokensFromConfig(),
				Cache:              store,
				AllowNegativeStock: config.AllowNegativeStock(),
				AuthLimiter:        middleware.NewLimiter(config.Int("AUTH_RATE_LIMIT", 20), time.Minute),
			})
		})

		return server.Start(ctx, r.Handler(), server.Options{
			Addr:         ":" + config.AppPort(),
			ReadTimeout:  config.Duration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: config.Duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		})
	},
}

var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := kernel.NewHTTP(kernel.Options{}, func(r *router.Router) {
			routes.Register(r, routes.Options{Tokens: tokensFromConfig()})
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range r.Routes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
