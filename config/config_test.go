package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
base_path = "/opt/ComfyUI"
log_level = "debug"
output_path = "/tmp/out"
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/ComfyUI", c.BasePath)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "/tmp/out", c.OutputPath)
}

func TestLoadKeepsDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, `base_path = "/opt/ComfyUI"`))
	require.NoError(t, err)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.OutputPath)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, `log_level = "verbose"`))
	assert.ErrorContains(t, err, "configuration validation failed")

	_, err = Load(writeConfig(t, `base_path = `))
	assert.ErrorContains(t, err, "error parsing config file")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "config file not found")
}

func TestDefaultsValidate(t *testing.T) {
	assert.NoError(t, Defaults().Validate())
	assert.Error(t, (&Config{LogLevel: "info"}).Validate())
}
