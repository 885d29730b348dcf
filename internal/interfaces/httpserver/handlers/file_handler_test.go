package handlers

import (
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/attachment-api/internal/config"
	"jan-server/services/attachment-api/internal/infrastructure/storage"
)

func TestServeFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root := t.TempDir()
	store, err := storage.NewLocalStorage(&config.Config{StorageRoot: root}, zerolog.Nop())
	require.NoError(t, err)

	full := filepath.Join(root, "uploads", "20240101", "a.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("stored"), 0o644))

	r := gin.New()
	r.GET("/v1/files/*path", NewFileHandler(store, zerolog.Nop()).Serve)

	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantBody   string
	}{
		{"stored file", "/v1/files/uploads/20240101/a.txt", http.StatusOK, "stored"},
		{"missing file", "/v1/files/uploads/20240101/b.txt", http.StatusNotFound, ""},
		{"directory", "/v1/files/uploads", http.StatusNotFound, ""},
		{"root", "/v1/files/", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
			}
		})
	}
}

func TestServeFileHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root := t.TempDir()
	store, err := storage.NewLocalStorage(&config.Config{StorageRoot: root}, zerolog.Nop())
	require.NoError(t, err)

	dir := filepath.Join(root, "uploads")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, imaging.Save(imaging.New(2, 2, color.White), filepath.Join(dir, "p.png")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.html"), []byte("<html><body><script>alert(1)</script></body></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "i.svg"), []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), 0o644))

	r := gin.New()
	r.GET("/v1/files/*path", NewFileHandler(store, zerolog.Nop()).Serve)

	tests := []struct {
		name            string
		url             string
		wantDisposition string
	}{
		{"image renders inline", "/v1/files/uploads/p.png", ""},
		{"html is downloaded", "/v1/files/uploads/x.html", "attachment; filename=x.html"},
		{"svg is downloaded", "/v1/files/uploads/i.svg", "attachment; filename=i.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
		})
	}
}
