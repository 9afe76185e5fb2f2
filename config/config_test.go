package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonika/tonika-bus/utils"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testOptions(dir string) ConfigOptions {
	return ConfigOptions{
		BasePath:  dir,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: "TONIKA",
	}
}

func TestNewConfig_MissingDirectory(t *testing.T) {
	_, err := NewConfig(testOptions(t.TempDir()))
	assert.Error(t, err)
}

func TestBind_ReadsValues(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
bus:
  debug: true
  async-workers: 8
logging:
  level: debug
  format: json
`)

	cfg, err := NewConfig(testOptions(dir))
	require.NoError(t, err)

	var tc ToolkitConfig
	require.NoError(t, cfg.Bind(&tc))

	assert.True(t, tc.Bus.Debug)
	assert.Equal(t, 8, tc.Bus.AsyncWorkers)
	assert.Equal(t, "debug", tc.Logging.Level)
	assert.Equal(t, "json", tc.Logging.Format)
}

func TestBindWithDefaults_FillsAbsentKeys(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
logging:
  level: warn
`)

	cfg, err := NewConfig(testOptions(dir))
	require.NoError(t, err)

	var tc ToolkitConfig
	require.NoError(t, cfg.BindWithDefaults(&tc))

	assert.Equal(t, "warn", tc.Logging.Level)
	assert.Equal(t, 4, tc.Bus.AsyncWorkers)
	assert.Equal(t, 256, tc.Bus.AsyncQueue)
}

func TestLocalOverlayWins(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
bus:
  async-workers: 2
`)
	writeConfigFile(t, dir, "config.local.yaml", `
bus:
  async-workers: 16
`)

	cfg, err := NewConfig(testOptions(dir))
	require.NoError(t, err)

	var tc ToolkitConfig
	require.NoError(t, cfg.Bind(&tc))
	assert.Equal(t, 16, tc.Bus.AsyncWorkers)
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
logging:
  level: info
`)
	t.Setenv("TONIKA_LOGGING_LEVEL", "error")

	cfg, err := NewConfig(testOptions(dir))
	require.NoError(t, err)

	var tc ToolkitConfig
	require.NoError(t, cfg.Bind(&tc))
	assert.Equal(t, "error", tc.Logging.Level)
}

func TestLoadToolkit_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
bus:
  async-workers: 100000
`)

	_, err := LoadToolkit(testOptions(dir))
	assert.Error(t, err)
}

func TestLoadToolkit_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
logging:
  level: info
`)

	tc, err := LoadToolkit(testOptions(dir))
	require.NoError(t, err)
	assert.Equal(t, 4, tc.Bus.AsyncWorkers)
	assert.NoError(t, tc.Validate())
}

func TestGetAndSet(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
bus:
  debug: false
`)

	cfg, err := NewConfig(testOptions(dir))
	require.NoError(t, err)

	assert.Equal(t, false, cfg.Get("bus.debug"))
	cfg.Set("bus.debug", true)
	assert.Equal(t, true, cfg.Get("bus.debug"))
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "config.yaml", `
bus:
  debug: true
`)

	cfg, err := NewConfig(testOptions(dir))
	require.NoError(t, err)

	out := filepath.Join(dir, "export", "merged.yaml")
	require.NoError(t, cfg.Export(out))

	isDir, exists, err := utils.Exists(out)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.False(t, isDir)
}
