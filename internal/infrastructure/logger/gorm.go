package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig configures the query logger.
type GormConfig struct {
	// Level is one of silent, error, warn, info or debug.
	Level string
	// SlowThreshold turns queries slower than it into warnings. Zero
	// disables slow query warnings.
	SlowThreshold time.Duration
	// MaxSQLLength cuts logged statements to this many bytes. Zero keeps
	// them whole.
	MaxSQLLength int
	// LogNotFound logs record-not-found errors. Detail lookups report them
	// as domain errors, so they are skipped by default.
	LogNotFound bool
}

// GormLogger writes GORM statements to zap. Entries carry the repository
// operation and principal found in the context.
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	cfg   GormConfig
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger creates a query logger named "gorm" under base.
func NewGormLogger(base *zap.Logger, cfg GormConfig) *GormLogger {
	return &GormLogger{
		log:   base.Named("gorm"),
		level: ParseGormLevel(cfg.Level),
		cfg:   cfg,
	}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.level = level
	return &c
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		WithLogger(ctx, l.log).Info(fmt.Sprintf(msg, data...))
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		WithLogger(ctx, l.log).Warn(fmt.Sprintf(msg, data...))
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		WithLogger(ctx, l.log).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace implements gormlogger.Interface. fc is only called when the
// statement is logged.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if !l.cfg.LogNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.statement(ctx, elapsed, fc).Error("Query failed", zap.Error(err))
	case l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold && l.level >= gormlogger.Warn:
		l.statement(ctx, elapsed, fc).Warn("Slow query", zap.Duration("threshold", l.cfg.SlowThreshold))
	case l.level >= gormlogger.Info:
		l.statement(ctx, elapsed, fc).Debug("Query")
	}
}

func (l *GormLogger) statement(ctx context.Context, elapsed time.Duration, fc func() (string, int64)) *ContextLogger {
	sql, rows := fc()
	fields := []zap.Field{zap.Duration("elapsed", elapsed)}
	if limit := l.cfg.MaxSQLLength; limit > 0 && len(sql) > limit {
		fields = append(fields, zap.Int("sql_length", len(sql)))
		sql = strings.ToValidUTF8(sql[:limit], "") + "..."
	}
	fields = append(fields, zap.String("sql", sql))
	// GORM reports -1 when the statement did not count rows
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	return WithLogger(ctx, l.log).With(fields...)
}

// ParseGormLevel maps a configured level name to a GORM log level.
// Unknown names give Warn.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
