package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "")
	logger.Info("hidden")
	logger.Warn("shown", slog.String("order.number", "ORD-1-aaaaaaa"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "ORD-1-aaaaaaa", entry["order.number"])

	buf.Reset()
	NewLogger(&buf, "", "text").Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestInstruments_NilFallbacks(t *testing.T) {
	var i *Instruments
	assert.NotNil(t, i.Tracer("test"))
	counter, err := i.Meter("test").Int64Counter("noop")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
}
