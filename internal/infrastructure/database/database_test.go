package database

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/attachment-api/internal/config"
)

func TestConfigFromService(t *testing.T) {
	got := ConfigFromService(&config.Config{
		DBPostgresqlWriteDSN: "postgres://db/attachments",
		DBMaxIdleConns:       2,
		DBMaxOpenConns:       8,
		DBConnLifetime:       time.Minute,
		DBSlowQuery:          250 * time.Millisecond,
	})
	assert.Equal(t, Config{
		DSN:             "postgres://db/attachments",
		MaxIdleConns:    2,
		MaxOpenConns:    8,
		ConnMaxLifetime: time.Minute,
		SlowThreshold:   250 * time.Millisecond,
	}, got)
}

func TestConnectRequiresDSN(t *testing.T) {
	_, err := Connect(context.Background(), Config{}, zerolog.Nop())
	assert.ErrorContains(t, err, "DSN is empty")
}

func TestEnsureDatabaseExistsSkipsWithoutDialing(t *testing.T) {
	for _, dsn := range []string{
		"host=localhost user=jan dbname=attachments",
		"postgres://localhost:5432/",
		"postgres://localhost:5432/postgres",
	} {
		t.Run(dsn, func(t *testing.T) {
			assert.NoError(t, ensureDatabaseExists(context.Background(), dsn))
		})
	}
}

func TestGormWriter(t *testing.T) {
	var buf bytes.Buffer
	w := gormWriter{log: zerolog.New(&buf)}
	w.Printf("slow sql %dms", 900)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "slow sql 900ms", entry["message"])
}

func TestPQQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"attach""ments"`, pqQuoteIdentifier(`attach"ments`))
}
