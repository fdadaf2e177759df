package infrastructure

import (
	"context"
	"errors"
	"time"

	"mtogo/internal/pkg/logger"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger 把 GORM 的日志接到 zerolog 上，SQL 日志带上 trace_id。
type GormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(slowThreshold time.Duration) *GormLogger {
	return &GormLogger{level: gormlogger.Warn, slowThreshold: slowThreshold}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.Ctx(ctx).Info().Msgf(msg, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.Ctx(ctx).Warn().Msgf(msg, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.Ctx(ctx).Error().Msgf(msg, args...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		logger.Ctx(ctx).Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm query failed")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.Ctx(ctx).Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow sql")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		logger.Ctx(ctx).Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm query")
	}
}
