package logger_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zapcore"

	"github.com/xraph/beans/internal/logger"
)

// TestNoopLogger ensures noop logger implements interface correctly.
func TestNoopLogger(t *testing.T) {
	noopLog := logger.NewNoopLogger()

	var _ logger.Logger = noopLog

	assert.NotPanics(t, func() {
		noopLog.Debug("debug", logger.Bean("repo"))
		noopLog.Info("info")
		noopLog.Warn("warn")
		noopLog.Error("error", logger.Error(errors.New("boom")))
		noopLog.With(logger.String("k", "v")).Named("child").WithContext(context.Background()).Info("x")
	})
	assert.NoError(t, noopLog.Sync())
}

func TestTestLogger_RecordsFields(t *testing.T) {
	log, logs := logger.NewTestLogger(zapcore.DebugLevel)

	log.With(logger.Bean("repo")).Debug("bean constructed",
		logger.Scope("prototype"),
		logger.Stage("instantiate"),
	)
	log.Info("context entry", logger.ContextID("ctx-1"))

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "bean constructed", first.Message)
	assert.Equal(t, zapcore.DebugLevel, first.Level)
	assert.Equal(t, map[string]any{
		"bean":  "repo",
		"scope": "prototype",
		"stage": "instantiate",
	}, first.ContextMap())

	assert.Equal(t, 1, logs.FilterField(logger.ContextID("ctx-1")).Len())
}

func TestTestLogger_LevelFilter(t *testing.T) {
	log, logs := logger.NewTestLogger(zapcore.WarnLevel)
	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept")
	assert.Equal(t, 2, logs.Len())
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.LoggingConfig{
		Level:  "debug",
		Format: "json",
		Output: zapcore.AddSync(&buf),
	})

	log.Named("beans").Info("registered", logger.Bean("service"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, `"msg":"registered"`)
	assert.Contains(t, out, `"bean":"service"`)
	assert.Contains(t, out, `"logger":"beans"`)
}

func TestNewLogger_ProductionIgnoresDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.LoggingConfig{
		Level:       "info",
		Environment: "production",
		Output:      zapcore.AddSync(&buf),
	})

	log.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestWithContext_AddsTraceIDs(t *testing.T) {
	log, logs := logger.NewTestLogger(zapcore.InfoLevel)

	tp := trace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	log.WithContext(ctx).Info("inside span")
	log.WithContext(context.Background()).Info("outside span")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0].ContextMap()["trace_id"])
	assert.NotContains(t, entries[1].ContextMap(), "trace_id")
}

func TestFieldMap(t *testing.T) {
	m := logger.FieldMap([]logger.Field{logger.Bean("a"), logger.Int("n", 3)})
	assert.Equal(t, "a", m["bean"])
	assert.EqualValues(t, 3, m["n"])
}
