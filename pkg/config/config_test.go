package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataml/cubefit/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
engine:
  ngen: 5
  init_ensemble_size: 8
  select_n: 3
  max_workers: 4
logging:
  level: DEBUG
history:
  enabled: true
  path: runs.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Engine.NGen)
	assert.Equal(t, 8, cfg.Engine.InitEnsembleSize)
	assert.Equal(t, 3, cfg.Engine.SelectN)
	assert.Equal(t, 4, cfg.Engine.MaxWorkers)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "runs.db", cfg.History.Path)

	// Untouched fields keep their defaults.
	assert.Equal(t, Default().Engine.TagPrefix, cfg.Engine.TagPrefix)
	assert.Equal(t, Default().Engine.PartialFitBatches, cfg.Engine.PartialFitBatches)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
engine:
  ngen: 0
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.Configuration))
	assert.Contains(t, err.Error(), "NGen")
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, `
engine:
  ngen: 1
logging:
  level: LOUD
`)
	_, err := Load(path)
	assert.True(t, errors.HasCode(err, errors.Configuration))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nosuch.yaml"))
	assert.True(t, errors.HasCode(err, errors.Configuration))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "engine: [not a map")
	_, err := Load(path)
	assert.True(t, errors.HasCode(err, errors.Configuration))
}
