package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/attachment-api/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" warn ", zerolog.WarnLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.raw))
		})
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, &config.Config{
		ServiceName: "attachment-api",
		Environment: "production",
		LogLevel:    "warn",
		StorageRoot: "/srv/webroot",
	})

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("kept")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "attachment-api", entry["service"])
	assert.Equal(t, "production", entry["environment"])
	assert.Equal(t, "/srv/webroot", entry["storage_root"])
	assert.Equal(t, "kept", entry["message"])
}
