package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "none", cfg.Sandbox.NetworkMode)
	require.Equal(t, "github.com", cfg.AllowlistDomains[0])
}

func TestValidateRejectsBadNetworkMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sandbox.NetworkMode = "host"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroCPULimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sandbox.CPULimit = 0
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeAlpha(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RAG.Alpha = 1.5
	require.Error(t, cfg.Validate())
}

func TestLoadOverlaysYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arandu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database_url: \"sqlite:///custom.db\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite:///custom.db", cfg.DatabaseURL)
	require.Equal(t, "none", cfg.Sandbox.NetworkMode) // untouched default survives
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().Sandbox.MemoryLimit, cfg.Sandbox.MemoryLimit)
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("ARANDU_DATABASE_URL", "sqlite:///env.db")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "sqlite:///env.db", cfg.DatabaseURL)
}
