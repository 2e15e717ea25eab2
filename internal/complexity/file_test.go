package complexity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yaml := `complexity:
  customer_types:
    - id: consumer
      label: Consumer
      multiplier: 1.0
    - id: enterprise
      label: Enterprise
      multiplier: 1.4
  deployments:
    - id: saas
      label: SaaS
      multiplier: 1.0
  integration:
    base_per_api_percent: 0.05
    legacy_compatibility_multiplier: 1.1
  stage_baselines:
    build: 1.0
`
	path := filepath.Join(t.TempDir(), "complexity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.CustomerTypes, 2)
	assert.Equal(t, "enterprise", cfg.CustomerTypes[1].ID)
	assert.InDelta(t, 1.4, cfg.CustomerTypes[1].Multiplier, 1e-9)
	assert.InDelta(t, 0.05, cfg.Integration.BasePerAPIPercent, 1e-9)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "complexity: read config")
}

func TestLoadConfig_InvalidRejected(t *testing.T) {
	yaml := `complexity:
  customer_types:
    - id: consumer
      label: Consumer
      multiplier: -1
`
	path := filepath.Join(t.TempDir(), "complexity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiplier must be > 0")
}
