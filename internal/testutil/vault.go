package testutil

import (
	"path/filepath"
	"testing"

	"channels-go/internal/config"
)

// NewTestConfig returns a config whose sqlite database, logs and keys live
// under a fresh temp dir. No vault or cache is configured.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig("test-instance", t.TempDir())
	cfg.Cache.Type = "none"
	return cfg
}

// NewTestVaultConfig returns a filesystem vault rooted in a fresh temp dir.
// Configs sharing it see each other's snapshots.
func NewTestVaultConfig(t *testing.T) config.VaultConfig {
	t.Helper()
	return config.VaultConfig{
		Type:        "filesystem",
		Name:        "test",
		FSVaultRoot: filepath.Join(t.TempDir(), "vault"),
	}
}
