package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	WatermarkKindText  = "text"
	WatermarkKindImage = "image"
)

// Config holds the environment driven configuration for the attachment service.
type Config struct {
	// Service Configuration
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"attachment-api"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort         int           `env:"ATTACHMENT_API_PORT" envDefault:"8290"`
	LogLevel         string        `env:"ATTACHMENT_LOG_LEVEL" envDefault:"info"`
	EnableTracing    bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	TraceSampleRatio float64       `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSAllowOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Database (required, no defaults)
	DBPostgresqlWriteDSN string `env:"DB_POSTGRESQL_WRITE_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBAutoMigrate  bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	DBSlowQuery    time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"500ms"`

	// Storage
	StorageRoot    string `env:"ATTACHMENT_STORAGE_ROOT" envDefault:"./webroot"` // resolved to an absolute path by Load
	TempDir        string `env:"ATTACHMENT_TEMP_DIR"`                            // staging dir for incoming uploads, OS default when empty
	PublicBaseURL  string `env:"ATTACHMENT_PUBLIC_BASE_URL" envDefault:"/v1/files"`
	MaxUploadBytes int64  `env:"ATTACHMENT_MAX_UPLOAD_BYTES" envDefault:"20971520"`

	// Path templates
	ImagePathTemplate    string `env:"ATTACHMENT_IMAGE_PATH_TEMPLATE" envDefault:"@root/uploads/{date}/{random}.{extension}"`
	DocumentPathTemplate string `env:"ATTACHMENT_DOCUMENT_PATH_TEMPLATE" envDefault:"@root/uploads/files/{date}/{random}.{extension}"`

	// Thumbnail
	ThumbEnabled bool `env:"ATTACHMENT_THUMB_ENABLED" envDefault:"false"`
	ThumbWidth   int  `env:"ATTACHMENT_THUMB_WIDTH" envDefault:"100"`
	ThumbHeight  int  `env:"ATTACHMENT_THUMB_HEIGHT" envDefault:"100"`

	// Watermark
	WatermarkEnabled  bool    `env:"ATTACHMENT_WATERMARK_ENABLED" envDefault:"false"`
	WatermarkKind     string  `env:"ATTACHMENT_WATERMARK_KIND" envDefault:"text"`
	WatermarkContent  string  `env:"ATTACHMENT_WATERMARK_CONTENT"` // text to draw, or overlay image path
	WatermarkX        int     `env:"ATTACHMENT_WATERMARK_X" envDefault:"10"`
	WatermarkY        int     `env:"ATTACHMENT_WATERMARK_Y" envDefault:"10"`
	WatermarkFontSize float64 `env:"ATTACHMENT_WATERMARK_FONT_SIZE" envDefault:"16"`
	JPEGQuality       int     `env:"ATTACHMENT_JPEG_QUALITY" envDefault:"90"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	root := strings.TrimSpace(c.StorageRoot)
	if root == "" {
		return fmt.Errorf("ATTACHMENT_STORAGE_ROOT must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve storage root: %w", err)
	}
	c.StorageRoot = abs

	c.TempDir = strings.TrimSpace(c.TempDir)
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	c.PublicBaseURL = strings.TrimSuffix(strings.TrimSpace(c.PublicBaseURL), "/")
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 20 * 1024 * 1024
	}
	if strings.TrimSpace(c.ImagePathTemplate) == "" || strings.TrimSpace(c.DocumentPathTemplate) == "" {
		return fmt.Errorf("path templates must not be empty")
	}

	if c.ThumbEnabled && (c.ThumbWidth <= 0 || c.ThumbHeight <= 0) {
		return fmt.Errorf("thumbnail size must be positive, got %dx%d", c.ThumbWidth, c.ThumbHeight)
	}

	c.WatermarkKind = strings.ToLower(strings.TrimSpace(c.WatermarkKind))
	if c.WatermarkEnabled {
		switch c.WatermarkKind {
		case WatermarkKindText, WatermarkKindImage:
		default:
			return fmt.Errorf("ATTACHMENT_WATERMARK_KIND must be %q or %q, got %q", WatermarkKindText, WatermarkKindImage, c.WatermarkKind)
		}
	}
	if c.WatermarkFontSize <= 0 {
		c.WatermarkFontSize = 16
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		c.JPEGQuality = 90
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_RATIO must be within [0,1], got %g", c.TraceSampleRatio)
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local development setup.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "development", "dev", "local":
		return true
	default:
		return false
	}
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetDatabaseWriteDSN returns the write database connection string.
func (c *Config) GetDatabaseWriteDSN() string {
	return c.DBPostgresqlWriteDSN
}
