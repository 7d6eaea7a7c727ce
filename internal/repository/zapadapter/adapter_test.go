package zapadapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newObserved(level logger.LogLevel) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLogger(zap.New(core), level), logs
}

func TestTraceCarriesRequestID(t *testing.T) {
	l, logs := newObserved(logger.Info)
	ctx := NewContextWithID(context.Background(), "req-1")

	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "req-1", entry.ContextMap()["request_id"])
	require.Equal(t, "SELECT 1", entry.ContextMap()["sql"])
}

func TestTraceErrorLevels(t *testing.T) {
	l, logs := newObserved(logger.Warn)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT x", 0 }, gorm.ErrRecordNotFound)
	require.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT x", 0 }, errors.New("boom"))
	require.Equal(t, 1, logs.Len())
	require.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
}

func TestSilent(t *testing.T) {
	l, logs := newObserved(logger.Info)
	silent := l.LogMode(logger.Silent)

	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	silent.Error(context.Background(), "x %d", 1)
	require.Equal(t, 0, logs.Len())
}
