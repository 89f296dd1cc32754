package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(Config{})
	require.NoError(t, err)
	require.NotNil(t, l)
	// Exercise the full surface; none of these should panic.
	l.Debug("debug msg")
	l.Info("info msg", String("k", "v"))
	l.Warn("warn msg", Int("n", 1))
	l.Error("error msg", Err(errors.New("x")))
	l.With(String("component", "test")).Info("child")
	l.Named("sub").Info("named")
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(Config{Level: "debug", Format: "console"})
	require.NoError(t, err)
	l.Debug("visible at debug level")
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	_, err := NewLogger(Config{OutputPaths: []string{"/nonexistent-dir-xyz/log.out"}})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("debug").String())
	assert.Equal(t, "warn", parseLevel("WARN").String())
	assert.Equal(t, "error", parseLevel("error").String())
	assert.Equal(t, "info", parseLevel("unknown").String())
	assert.Equal(t, "info", parseLevel("").String())
}

func TestToZapFields_TypedPaths(t *testing.T) {
	fields := toZapFields([]Field{
		String("s", "v"),
		Int("i", 1),
		Int64("i64", int64(2)),
		Float64("f", 0.5),
		Bool("b", true),
		Duration("d", time.Second),
		Err(errors.New("boom")),
		Any("any", struct{ X int }{1}),
	})
	require.Len(t, fields, 8)
	assert.Equal(t, "s", fields[0].Key)
	assert.Equal(t, "error", fields[6].Key)
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded", Any("m", map[string]int{"a": 1}))
	l.With(String("a", "b")).Named("x").Error("also discarded")
}
