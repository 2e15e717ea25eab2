package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "delivery.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "builtin", cfg.Catalog.Source)
	assert.Equal(t, 15, cfg.Catalog.CacheTTLMinutes)
	assert.InDelta(t, 1.0, cfg.Matcher.ExactConfidence, 0.001)
	assert.InDelta(t, 0.8, cfg.Matcher.DomainSubstringConfidence, 0.001)
	assert.InDelta(t, 0.6, cfg.Matcher.CrossSubstringConfidence, 0.001)
	assert.InDelta(t, 0.7, cfg.Matcher.OverlapThreshold, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/delivery
log:
  level: debug
  format: console
server:
  port: 9090
matcher:
  overlap_threshold: 0.75
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.75, cfg.Matcher.OverlapThreshold, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, "builtin", cfg.Catalog.Source)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("DELIVERY_STORE_DRIVER", "postgres")
	t.Setenv("DELIVERY_STORE_DATABASE_URL", "postgres://localhost/delivery")
	t.Setenv("DELIVERY_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chTempDir(t)

	t.Setenv("DELIVERY_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	chTempDir(t)

	t.Setenv("DELIVERY_STORE_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func validConfig() *Config {
	return &Config{
		Store:   StoreConfig{Driver: "sqlite", DatabaseURL: "delivery.db"},
		Catalog: CatalogConfig{Source: "builtin"},
		Server:  ServerConfig{Port: 8080},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_FileSourceNeedsPath(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Source = "file"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.path is required")

	cfg.Catalog.Path = "catalog.yaml"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_HTTPSourceNeedsURL(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Source = "http"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.url is required")
}

func TestValidate_UnknownCatalogSource(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Source = "ftp"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.source must be")
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be in 1..65535")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "store.database_url")
	assert.Contains(t, err.Error(), "catalog.source")
	assert.Contains(t, err.Error(), "server.port")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
