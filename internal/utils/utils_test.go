package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFormatRubles(t *testing.T) {
	assert.Equal(t, "0 ₽", FormatRubles(0))
	assert.Equal(t, "990 ₽", FormatRubles(990))
	assert.Equal(t, "12 500 ₽", FormatRubles(12500))
	assert.Equal(t, "1 000 000 ₽", FormatRubles(999999.6))
	assert.Equal(t, "-3 400 ₽", FormatRubles(-3400))
}

func TestParseRubles(t *testing.T) {
	v, err := ParseRubles("12 500 ₽")
	require.NoError(t, err)
	assert.Equal(t, 12500.0, v)

	v, err = ParseRubles("1,200")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, v)

	_, err = ParseRubles(" ₽")
	assert.Error(t, err)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitCSV(" a, ,b,"))
	assert.Nil(t, SplitCSV(""))
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, Millis(250, time.Second))
	assert.Equal(t, time.Second, Millis(0, time.Second))
}

func TestLogEventFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	LogEvent(" req-1 ", "catalog", "fetch", "items loaded", zap.Int("count", 3))
	LogFailure("req-2", "catalog", "counts", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 2)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "CATALOG", ctx["module"])
	assert.Equal(t, "req-1", ctx["request_id"])
	assert.Equal(t, int64(3), ctx["count"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}
