package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "weekplan.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, 4, cfg.MaxConcurrent)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weekplan.yaml")

	cfg := DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.MinimumViableDay = true
	cfg.ICS = []ICSConfig{{URL: "https://example.com/busy.ics", ID: "work"}}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "UTC", loaded.Timezone)
	assert.True(t, loaded.MinimumViableDay)
	require.Len(t, loaded.ICS, 1)
	assert.Equal(t, "work", loaded.ICS[0].ID)
}

func TestNormalizeFillsDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	assert.NotEmpty(t, cfg.Listen)
	assert.NotEmpty(t, cfg.Timezone)
	assert.NotEmpty(t, cfg.RefreshCron)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 4, cfg.MaxColumns)
	assert.True(t, cfg.Scheduler.Sleep.Enabled)
	assert.NotNil(t, cfg.ICS)
}

func TestLocationFallsBackToLocal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Not/AZone"
	assert.NotNil(t, cfg.Location())
}
