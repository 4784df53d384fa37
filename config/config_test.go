package config

import (
	"os"
	"path/filepath"
	"replicate/logger"
	"replicate/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Cleanup(logger.CloseLogFiles)
	return dir
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestInitDefaults(t *testing.T) {
	dir := isolateConfigDir(t)
	chdir(t, dir)

	require.NoError(t, Init("", "", "", ""))

	assert.Equal(t, "8788", AppConfig.Server.Port)
	assert.Equal(t, "8787", AppConfig.Proxy.Port)
	assert.Equal(t, "rewrite", AppConfig.Proxy.RedirectMode)
	assert.Equal(t, DefaultInterceptPatterns(), AppConfig.Proxy.InterceptPatterns)
	assert.Equal(t, models.FieldModeShared, FieldMode())
	assert.Equal(t, "wss://sync.obsidian.md", AppConfig.Sync.DefaultWebSocketURL)
	assert.Empty(t, ConfigFileUsed())
}

func TestInitFromFileAndFlags(t *testing.T) {
	dir := isolateConfigDir(t)
	cfgPath := filepath.Join(dir, "custom.yaml")
	content := []byte(`
database:
  path: ` + filepath.Join(dir, "custom.db") + `
proxy:
  port: "9999"
  redirect_mode: redirect
  intercept_patterns:
    - https://api.obsidian.md/*
sync:
  field_mode: split
logging:
  level: info
`)
	require.NoError(t, os.WriteFile(cfgPath, content, 0600))

	require.NoError(t, Init(cfgPath, "", "", "debug"))

	assert.Equal(t, cfgPath, ConfigFileUsed())
	assert.Equal(t, "9999", AppConfig.Proxy.Port)
	assert.Equal(t, "redirect", AppConfig.Proxy.RedirectMode)
	assert.Equal(t, []string{"https://api.obsidian.md/*"}, AppConfig.Proxy.InterceptPatterns)
	assert.Equal(t, models.FieldModeSplit, FieldMode())
	assert.Equal(t, filepath.Join(dir, "custom.db"), AppConfig.Database.Path)
	assert.Equal(t, "DEBUG", AppConfig.Logging.Level)
}

func TestInitEnvOverride(t *testing.T) {
	dir := isolateConfigDir(t)
	chdir(t, dir)
	t.Setenv("REPLICATE_SYNC_FIELD_MODE", "split")

	require.NoError(t, Init("", "", "", ""))
	assert.Equal(t, models.FieldModeSplit, FieldMode())
}

func TestValidate(t *testing.T) {
	var cfg Configuration
	require.NoError(t, Validate(&cfg))
	assert.Equal(t, "shared", cfg.Sync.FieldMode)
	assert.Equal(t, "rewrite", cfg.Proxy.RedirectMode)
	assert.NotEmpty(t, cfg.Proxy.InterceptPatterns)

	cfg.Sync.FieldMode = "both"
	assert.Error(t, Validate(&cfg))

	cfg.Sync.FieldMode = "SPLIT"
	cfg.Proxy.RedirectMode = "bounce"
	assert.Error(t, Validate(&cfg))
}

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandTilde("~/x/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x/y"), got)

	got, err = ExpandTilde("/abs")
	require.NoError(t, err)
	assert.Equal(t, "/abs", got)
}
