package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return NewLoaderWithViper(viper.New())
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	assert.Same(t, viper.GetViper(), loader.v)
}

func TestLoadWithNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	loader := newTestLoader(t)

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Decode, cfg.Decode)
	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.Empty(t, loader.GetConfigFileUsed())
}

func TestLoadFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bartune.yaml"), []byte("log_level: warn\n"), 0o600))

	loader := newTestLoader(t)
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, warnLevel, cfg.LogLevel)
	assert.Equal(t, "bartune.yaml", filepath.Base(loader.GetConfigFileUsed()))
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	path := writeConfig(t, "custom.yaml", `
log_level: debug
verbose: true
wait_for_key: true
license:
  organization_id: "424242"
  main_server_url: https://license.example.com
  timeout: 4
decode:
  strategies: [template]
  template: /opt/templates/custom.json
  conflict_mode: CM_IGNORE
  profile: QROnly
  timed: true
  pdf_pages: "1-2"
output:
  format: csv
  file: out.csv
metrics:
  textfile: /tmp/bartune.prom
`)

	cfg, err := newTestLoader(t).LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, debugLevel, cfg.LogLevel)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.WaitForKey)
	assert.Equal(t, "424242", cfg.License.OrganizationID)
	assert.Equal(t, "https://license.example.com", cfg.License.MainServerURL)
	assert.Equal(t, 4, cfg.License.TimeoutSec)
	assert.Equal(t, DecodeConfig{
		Strategies:   []string{StrategyTemplate},
		Template:     "/opt/templates/custom.json",
		ConflictMode: "CM_IGNORE",
		Profile:      "QROnly",
		Timed:        true,
		PDFPages:     "1-2",
	}, cfg.Decode)
	assert.Equal(t, OutputConfig{Format: "csv", File: "out.csv"}, cfg.Output)
	assert.Equal(t, "/tmp/bartune.prom", cfg.Metrics.Textfile)
}

func TestLoadWithInvalidYAMLFile(t *testing.T) {
	path := writeConfig(t, "broken.yaml", "log_level: [debug\n")
	_, err := newTestLoader(t).LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadWithNonExistentFile(t *testing.T) {
	_, err := newTestLoader(t).LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithValidationFailure(t *testing.T) {
	path := writeConfig(t, "invalid.yaml", "output:\n  format: xlsx\n")

	_, err := newTestLoader(t).LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")

	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bartune.yaml"), []byte("output:\n  format: xlsx\n"), 0o600))
	cfg, err := newTestLoader(t).LoadWithoutValidation()
	require.NoError(t, err)
	assert.Equal(t, "xlsx", cfg.Output.Format)
}

func TestEnvironmentVariableOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BARTUNE_LOG_LEVEL", "error")
	t.Setenv("BARTUNE_LICENSE_MAIN_SERVER_URL", "https://env.example.com")
	t.Setenv("BARTUNE_DECODE_STRATEGIES", "template")
	t.Setenv("BARTUNE_OUTPUT_FORMAT", "json")

	cfg, err := newTestLoader(t).Load()
	require.NoError(t, err)
	assert.Equal(t, errorLevel, cfg.LogLevel)
	assert.Equal(t, "https://env.example.com", cfg.License.MainServerURL)
	assert.Equal(t, []string{StrategyTemplate}, cfg.Decode.Strategies)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestSetOverridesFile(t *testing.T) {
	path := writeConfig(t, "base.yaml", "log_level: debug\n")
	loader := newTestLoader(t)
	loader.Set("log_level", "warn")

	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, warnLevel, cfg.LogLevel)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := newTestLoader(t).LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Decode.Strategies, cfg.Decode.Strategies)
	assert.Equal(t, DefaultConfig().License.OrganizationID, cfg.License.OrganizationID)
}

func TestGetConfigSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join(xdg, "bartune"))
	assert.Equal(t, "/etc/bartune", paths[len(paths)-1])
}
