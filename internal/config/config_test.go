package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithConfig(t *testing.T, yaml string) (*Config, error) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("FLEETBOARD_CONFIG_PATH", path)
	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FLEETBOARD_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	// A missing explicit config file is an error; unset the override and
	// load pure defaults from a directory without a config file.
	_, err := Load()
	assert.Error(t, err)

	os.Unsetenv("FLEETBOARD_CONFIG_PATH")
	wd, _ := os.Getwd()
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "Due-List_Latest.csv", cfg.DailyCSV)
	assert.Equal(t, 30, cfg.Thresholds.DueSoonDays)
	assert.Equal(t, 7, cfg.Thresholds.CriticalDays)
	assert.Equal(t, 100.0, cfg.Thresholds.DueSoonHours)
	assert.Equal(t, 90, cfg.Thresholds.HistoryRetainDays)
	assert.Len(t, cfg.Bases, 8)
	assert.Contains(t, cfg.Intervals, 200)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	cfg, err := loadWithConfig(t, `
data_dir: /srv/fleet
thresholds:
  due_soon_days: 45
log:
  level: debug
  format: json
bases:
  - id: hangar
    name: Hangar
    lat: 41.0
    lon: -111.0
    radius_miles: 3
`)
	require.NoError(t, err)

	assert.Equal(t, "/srv/fleet", cfg.DataDir)
	assert.Equal(t, 45, cfg.Thresholds.DueSoonDays)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Bases, 1)
	assert.Equal(t, "HANGAR", cfg.Bases[0].ID)
}

func TestLoad_CredentialsFromEnv(t *testing.T) {
	os.Unsetenv("FLEETBOARD_CONFIG_PATH")
	wd, _ := os.Getwd()
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	t.Setenv("SKYROUTER_USER", "ops")
	t.Setenv("SKYROUTER_PASS", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ops", cfg.SkyRouter.Username)
	assert.Equal(t, "secret", cfg.SkyRouter.Password)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	_, err := loadWithConfig(t, "log:\n  level: loud\n")
	assert.Error(t, err)
}

func TestLoad_InvalidBaseRadius(t *testing.T) {
	_, err := loadWithConfig(t, `
bases:
  - id: hangar
    name: Hangar
    lat: 41.0
    lon: -111.0
    radius_miles: 0
`)
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	cfg := &Config{DataDir: "/srv/fleet"}
	assert.Equal(t, filepath.Join("/srv/fleet", "x.csv"), cfg.Path("x.csv"))
}
