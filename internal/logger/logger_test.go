package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttrsAreLogged(t *testing.T) {
	var (
		buf bytes.Buffer
		l   = New(&buf, "json", "debug")
		ctx = Ctx(context.Background(), slog.String("request_id", "abc"))
	)

	l.With("component", "test").DebugContext(Ctx(ctx, slog.Int("feed_id", 7)), "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "abc", record["request_id"])
	assert.Equal(t, float64(7), record["feed_id"])
	assert.Equal(t, "test", record["component"])
}

func TestCtxDoesNotLeakBetweenSiblings(t *testing.T) {
	parent := Ctx(context.Background(), slog.String("a", "1"))
	left := Ctx(parent, slog.String("b", "2"))
	right := Ctx(parent, slog.String("c", "3"))

	assert.Len(t, left.Value(attrKey), 2)
	assert.Equal(t, []slog.Attr{slog.String("a", "1"), slog.String("c", "3")}, right.Value(attrKey))
}

func TestNewLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "text", "warn")

	l.Info("dropped")
	assert.Empty(t, buf.String())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
