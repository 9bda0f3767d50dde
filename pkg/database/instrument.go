package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/stockbook/pkg/logger"
	"github.com/shashiranjanraj/stockbook/pkg/metrics"
)

const startedAtKey = "stockbook:started_at"

// registerMetrics times every statement into metrics.DBQueryDuration.
func registerMetrics(db *gorm.DB) error {
	cb := db.Callback()
	ops := []struct {
		name   string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, op := range ops {
		op := op
		if err := op.before("stockbook:before_"+op.name, func(tx *gorm.DB) {
			tx.InstanceSet(startedAtKey, time.Now())
		}); err != nil {
			return err
		}
		if err := op.after("stockbook:after_"+op.name, func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startedAtKey)
			if !ok {
				return
			}
			if start, ok := v.(time.Time); ok {
				metrics.ObserveDBQuery(op.name, tx.Statement.Table, start)
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

// gormLogger forwards slow statements and driver errors to slog with the
// request logger from ctx.
type gormLogger struct {
	slow  time.Duration
	level gormlogger.LogLevel
}

func newGormLogger(slow time.Duration) gormlogger.Interface {
	if slow <= 0 {
		return silence
	}
	return &gormLogger{slow: slow, level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.WithCtx(ctx).Info(msg, "args", args)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.WithCtx(ctx).Warn(msg, "args", args)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.WithCtx(ctx).Error(msg, "args", args)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		logger.WithCtx(ctx).Error("db: statement failed", "error", err, "elapsed", elapsed, "rows", rows, "sql", sql)
	case elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.WithCtx(ctx).Warn("db: slow statement", "elapsed", elapsed, "rows", rows, "sql", sql)
	}
}
