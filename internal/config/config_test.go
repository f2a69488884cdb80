package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend.Addr = ""
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Format = "xml"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Channel.ReconnectDelay = 0
	require.Error(t, cfg.Validate())
}

func TestCachePathFallsBackToDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.DataDir = "/tmp/vs-data"
	cfg.Cache.Path = ""
	require.Equal(t, filepath.Join("/tmp/vs-data", "voicesync.db"), cfg.CachePath())

	cfg.Cache.Path = "/var/cache/vs.db"
	require.Equal(t, "/var/cache/vs.db", cfg.CachePath())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("backend:\n  addr: \"10.0.0.5:9000\"\nlogging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5:9000", cfg.Backend.Addr)
	require.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep defaults.
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("VOICESYNC_BACKEND_ADDR", "env-host:1234")
	cfg, err := LoadDefault()
	require.NoError(t, err)
	require.Equal(t, "env-host:1234", cfg.Backend.Addr)
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "x"), expandTilde("~/x"))
	require.Equal(t, home, expandTilde("~"))
	require.Equal(t, "/abs/x", expandTilde("/abs/x"))
	require.Equal(t, "", expandTilde(""))
}
