package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for name, expected := range tests {
		assert.Equal(t, expected, ParseLevel(name), name)
	}
}

func TestWithModule(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer

	SetupWriter(&buf, "warn")

	WithModule("web").Info("hidden")
	WithModule("web").Warn("shown", "workflow_id", "wf-1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "module=web")
	assert.Contains(t, buf.String(), "workflow_id=wf-1")
}
