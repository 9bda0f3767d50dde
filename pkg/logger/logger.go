// Package logger provides the process-wide structured logger built on log/slog.
//
// WithCtx returns the request-scoped logger injected by the HTTP middleware,
// so every line written from a handler or service carries the request ID:
//
//	log := logger.WithCtx(ctx)
//	log.Info("sale recorded", "sale_id", sale.ID, "total", sale.TotalAmount)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/stockbook/config"
)

var L *slog.Logger

func init() {
	L = slog.New(NewHandler(os.Stdout, config.AppEnv()))
	slog.SetDefault(L)
}

// NewHandler builds the console handler for env. Production gets JSON at
// INFO, everything else gets text at DEBUG.
func NewHandler(w io.Writer, env string) slog.Handler {
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// Setup replaces the base logger. When mongoURI is set, records are also
// shipped to MongoDB and the returned close func flushes them.
func Setup(env, mongoURI string) (func(), error) {
	console := NewHandler(os.Stdout, env)
	if mongoURI == "" {
		L = slog.New(console)
		slog.SetDefault(L)
		return func() {}, nil
	}

	mh, err := NewMongoHandler(mongoURI, "stockbook", "logs")
	if err != nil {
		return func() {}, err
	}
	L = slog.New(NewMultiHandler(console, mh))
	slog.SetDefault(L)
	return mh.Close, nil
}

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base
// logger when there is none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// LevelFor picks the request log level for an HTTP status: 5xx is ERROR,
// 4xx is WARN, everything else INFO.
func LevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
