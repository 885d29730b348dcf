package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_POSTGRESQL_WRITE_DSN", "postgres://localhost/attachments")
	t.Setenv("ATTACHMENT_STORAGE_ROOT", "relative-root")

	cfg, err := Load()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "relative-root"), cfg.StorageRoot)
	assert.Equal(t, "@root/uploads/{date}/{random}.{extension}", cfg.ImagePathTemplate)
	assert.Equal(t, 100, cfg.ThumbWidth)
	assert.Equal(t, 100, cfg.ThumbHeight)
	assert.Equal(t, WatermarkKindText, cfg.WatermarkKind)
	assert.Equal(t, os.TempDir(), cfg.TempDir)
	assert.Equal(t, ":8290", cfg.Addr())
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_POSTGRESQL_WRITE_DSN", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "thumbnail without size",
			env: map[string]string{
				"ATTACHMENT_THUMB_ENABLED": "true",
				"ATTACHMENT_THUMB_WIDTH":   "0",
			},
		},
		{
			name: "unknown watermark kind",
			env: map[string]string{
				"ATTACHMENT_WATERMARK_ENABLED": "true",
				"ATTACHMENT_WATERMARK_KIND":    "stamp",
			},
		},
		{
			name: "sample ratio above one",
			env: map[string]string{
				"OTEL_TRACES_SAMPLER_RATIO": "1.5",
			},
		},
		{
			name: "empty image template",
			env: map[string]string{
				"ATTACHMENT_IMAGE_PATH_TEMPLATE": " ",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_POSTGRESQL_WRITE_DSN", "postgres://localhost/attachments")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
