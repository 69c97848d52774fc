package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "data/sources", cfg.Paths.SourcesDir)
	assert.Equal(t, 4, cfg.Processing.ParseWorkers)
	assert.False(t, cfg.Refresh.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log output", func(c *Config) { c.Logging.Output = "syslog" }},
		{"zero parse workers", func(c *Config) { c.Processing.ParseWorkers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HSE_SERVER_PORT", "9999")
	t.Setenv("HSE_LOGGING_LEVEL", "debug")
	t.Setenv("HSE_PROCESSING_PARSE_WORKERS", "2")

	// Run from a temp dir so no stray config.yaml interferes.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Processing.ParseWorkers)
}

func TestLoadYAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yamlCfg := "server:\n  port: 9099\nlogging:\n  level: warn\nrefresh:\n  enabled: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlCfg), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9099, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Refresh.Enabled)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 4, cfg.Processing.ParseWorkers)
}

func TestLoadEnvOverridesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	yamlCfg := "server:\n  port: 9099\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlCfg), 0644))

	t.Setenv("HSE_SERVER_PORT", "9200")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
}

func TestNewPathsResolvesRelative(t *testing.T) {
	base := t.TempDir()
	paths, err := NewPaths(base, Default().Paths)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data", "sources"), paths.SourcesDir)
	assert.Equal(t, filepath.Join(base, "data", "exports"), paths.ExportsDir)
	assert.Equal(t, filepath.Join(base, "data", "hsecli.db"), paths.DBFile)
}

func TestNewPathsKeepsAbsolute(t *testing.T) {
	abs := t.TempDir()
	cfg := Default().Paths
	cfg.SourcesDir = abs

	paths, err := NewPaths(t.TempDir(), cfg)
	require.NoError(t, err)
	assert.Equal(t, abs, paths.SourcesDir)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths, err := NewPaths(base, Default().Paths)
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.SourcesDir, paths.ExportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
