package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/connectplay/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Int("nodes", 42).Msg("subtree-exhausted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "subtree-exhausted", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, 42.0, entry["nodes"])
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(&buf, config.LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)

	log.Debug().Str("root", "abc").Msg("rerooted")
	assert.Contains(t, buf.String(), "rerooted")
	assert.Contains(t, buf.String(), "root=")
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, config.LoggingConfig{Format: "xml"})
	assert.Error(t, err)
}
