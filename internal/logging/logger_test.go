package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)
	require.NotNil(t, New(nil, "info"), "nil writer falls back to the console")

	log.Info().Str("context", "news").Msg("widget mounted")
	assert.Contains(t, buf.String(), "widget mounted")
	assert.Contains(t, buf.String(), `"context":"news"`)
}

func TestSubsystems(t *testing.T) {
	var buf bytes.Buffer
	root := New(&buf, "debug")

	root.Sub("gateway").Info().Msg("gateway server ready")
	assert.Contains(t, buf.String(), `"subsystem":"gateway"`)

	buf.Reset()
	root.Sub("gateway").Sub("ws").Debug().Msg("frame received")
	assert.Contains(t, buf.String(), `"subsystem":"ws"`)
	assert.Contains(t, buf.String(), "frame received")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("timer scheduled")
	log.Info().Msg("turn appended")
	assert.Empty(t, buf.String(), "debug and info are filtered at warn level")

	log.Warn().Msg("provider call failed")
	assert.Contains(t, buf.String(), "provider call failed")

	buf.Reset()
	log.Error().Msg("lead not saved")
	assert.Contains(t, buf.String(), "lead not saved")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestZerolog(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	zl := log.Zerolog()
	assert.NotZero(t, zl)

	zl.Info().Msg("pruner started")
	assert.Contains(t, buf.String(), "pruner started")
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Info().Msg("session started")
	log.Error().Msg("reply failed")
	assert.Empty(t, buf.String())
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info").Sub("engagement").With("session", "abc-123")

	log.Info().Msg("turn appended")
	output := buf.String()
	assert.Contains(t, output, "abc-123")
	assert.Contains(t, output, "engagement")
}

func TestOpen_ConsoleOnly(t *testing.T) {
	log, closer, err := Open(Options{Level: "info", Style: "json"})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.NoError(t, closer.Close())
}

func TestOpen_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "concierge.log")
	log, closer, err := Open(Options{Level: "debug", Style: "compact", File: path})
	require.NoError(t, err)

	log.Info().Str("context", "home").Msg("written to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), `"context":"home"`)
}
