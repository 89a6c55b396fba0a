package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(cfg GormConfig) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), cfg), recorded
}

func statementFunc(sql string, rows int64, calls *int) func() (string, int64) {
	return func() (string, int64) {
		*calls++
		return sql, rows
	}
}

func TestGormLogger_TraceCarriesPipelineContext(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: "info"})

	ctx := WithOperation(context.Background(), "products.bulk_create")
	ctx = WithPrincipalID(ctx, "7f1c9a52-0d44-4d8e-b3a1-2f6e4c7d9b10")

	var calls int
	l.Trace(ctx, time.Now(), statementFunc(`INSERT INTO "products" ("name") VALUES ('Matcha')`, 1, &calls), nil)

	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, "gorm", entry.LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "Query", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "products.bulk_create", fields["operation"])
	assert.Equal(t, "7f1c9a52-0d44-4d8e-b3a1-2f6e4c7d9b10", fields["principal_id"])
	assert.Equal(t, int64(1), fields["rows"])
	assert.Contains(t, fields["sql"], "Matcha")
}

func TestGormLogger_TraceLevels(t *testing.T) {
	tests := []struct {
		name      string
		cfg       GormConfig
		begin     time.Time
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{
			name:      "failed statement",
			cfg:       GormConfig{Level: "error"},
			begin:     time.Now(),
			err:       errors.New("duplicate key"),
			wantMsg:   "Query failed",
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:  "record not found skipped",
			cfg:   GormConfig{Level: "info"},
			begin: time.Now(),
			err:   gormlogger.ErrRecordNotFound,
		},
		{
			name:      "record not found logged on request",
			cfg:       GormConfig{Level: "error", LogNotFound: true},
			begin:     time.Now(),
			err:       gormlogger.ErrRecordNotFound,
			wantMsg:   "Query failed",
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:      "slow statement",
			cfg:       GormConfig{Level: "warn", SlowThreshold: time.Millisecond},
			begin:     time.Now().Add(-time.Second),
			wantMsg:   "Slow query",
			wantLevel: zapcore.WarnLevel,
		},
		{
			name:  "slow warnings disabled",
			cfg:   GormConfig{Level: "warn"},
			begin: time.Now().Add(-time.Second),
		},
		{
			name:  "plain statement below info",
			cfg:   GormConfig{Level: "warn", SlowThreshold: time.Hour},
			begin: time.Now(),
		},
		{
			name:  "silent",
			cfg:   GormConfig{Level: "silent"},
			begin: time.Now(),
			err:   errors.New("duplicate key"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, recorded := newObservedGormLogger(tt.cfg)

			var calls int
			l.Trace(context.Background(), tt.begin, statementFunc(`SELECT * FROM "categories"`, 2, &calls), tt.err)

			if tt.wantMsg == "" {
				assert.Zero(t, recorded.Len())
				assert.Zero(t, calls, "statement built although nothing was logged")
				return
			}
			require.Equal(t, 1, recorded.Len())
			entry := recorded.All()[0]
			assert.Equal(t, tt.wantMsg, entry.Message)
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestGormLogger_SlowQueryThresholdField(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: "warn", SlowThreshold: 50 * time.Millisecond})

	var calls int
	l.Trace(context.Background(), time.Now().Add(-time.Second), statementFunc(`SELECT 1`, 1, &calls), nil)

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, 50*time.Millisecond, recorded.All()[0].ContextMap()["threshold"])
}

func TestGormLogger_TruncatesLongStatements(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: "info", MaxSQLLength: 32})

	values := strings.Repeat("('item'),", 40)
	sql := `INSERT INTO "order_items" ("name") VALUES ` + values
	var calls int
	l.Trace(context.Background(), time.Now(), statementFunc(sql, 40, &calls), nil)

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, sql[:32]+"...", fields["sql"])
	assert.Equal(t, int64(len(sql)), fields["sql_length"])
}

func TestGormLogger_KeepsShortStatements(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: "info", MaxSQLLength: 64})

	var calls int
	l.Trace(context.Background(), time.Now(), statementFunc(`SELECT * FROM "orders"`, 0, &calls), nil)

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, `SELECT * FROM "orders"`, fields["sql"])
	assert.NotContains(t, fields, "sql_length")
}

func TestGormLogger_UncountedRowsOmitted(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: "info"})

	var calls int
	l.Trace(context.Background(), time.Now(), statementFunc(`SAVEPOINT sp1`, -1, &calls), nil)

	require.Equal(t, 1, recorded.Len())
	assert.NotContains(t, recorded.All()[0].ContextMap(), "rows")
}

func TestGormLogger_Messages(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: "warn"})
	ctx := WithOperation(context.Background(), "orders.create")

	l.Info(ctx, "migrated %d tables", 6)
	l.Warn(ctx, "column %s has no default", "hash")
	l.Error(ctx, "lost connection")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "column hash has no default", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, "orders.create", logs[0].ContextMap()["operation"])
	assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	l, recorded := newObservedGormLogger(GormConfig{Level: "silent"})

	verbose := l.LogMode(gormlogger.Info)
	verbose.Info(context.Background(), "debug session")
	l.Info(context.Background(), "suppressed")

	assert.Equal(t, gormlogger.Silent, l.level)
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "debug session", recorded.All()[0].Message)
}

func TestParseGormLevel(t *testing.T) {
	tests := []struct {
		level string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{" INFO ", gormlogger.Info},
		{"verbose", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGormLevel(tt.level))
		})
	}
}
