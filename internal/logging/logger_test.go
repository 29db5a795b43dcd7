package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewText_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewText(&buf, slog.LevelInfo)

	log.Debug("hidden")
	log.Info("shown", "window", 1000)
	log.With("run_id", "abc").Warn("tagged")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "msg=shown")
	require.Contains(t, out, "window=1000")
	require.Contains(t, out, "run_id=abc")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "": slog.LevelInfo, "INFO": slog.LevelInfo,
		"warn": slog.LevelWarn, "error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	var l Logger = NewNop()
	require.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x", "k", 1)
	})
}
