package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"DB_MAX_CONNS", "PDFTOTEXT", "PDFTOTEXT_TIMEOUT", "WATCH_INITIAL_SCAN"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.EqualValues(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, "pdftotext", cfg.PDF.Pdftotext)
	assert.Equal(t, 30*time.Second, cfg.PDF.Timeout)
	assert.True(t, cfg.Watch.InitialScan)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_URL", "postgres://app@localhost/brokerdocs")
	t.Setenv("DB_MAX_CONNS", "7")
	t.Setenv("ARCHIVE_ROOT", "/srv/archive")
	t.Setenv("UNASSIGNED_ROOT", "/srv/unassigned")
	t.Setenv("PDFTOTEXT_TIMEOUT", "5s")
	t.Setenv("WATCH_INITIAL_SCAN", "false")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "postgres://app@localhost/brokerdocs", cfg.Database.DSN)
	assert.EqualValues(t, 7, cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.PDF.Timeout)
	assert.False(t, cfg.Watch.InitialScan)
}

func TestValidateRequiresRoots(t *testing.T) {
	t.Setenv("DB_URL", ":memory:")
	t.Setenv("ARCHIVE_ROOT", "")
	t.Setenv("UNASSIGNED_ROOT", "")

	cfg := LoadConfig()
	assert.Error(t, cfg.Validate())
}
