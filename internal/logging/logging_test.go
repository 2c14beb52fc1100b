package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("swapchain recreated", slog.Int("width", 800))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "swapchain recreated")
	assert.Contains(t, out, "width=800")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	var buf bytes.Buffer
	log, err := New("debug", &buf)
	require.NoError(t, err)
	assert.Same(t, log, OrDiscard(log))
}
