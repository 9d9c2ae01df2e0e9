package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"catchup/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(t testing.TB, baseDir string, cfg *config.Config)

// NewConfig produces a config seeded with unique temp directories per test:
// fake stage clients enabled, the API bound to an ephemeral port, and all
// paths under one disposable base directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DropDir = filepath.Join(base, "drop")
	cfg.Paths.DatabasePath = filepath.Join(base, "data", "catchup.db")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Clients.UseFakes = true

	for _, opt := range opts {
		opt(t, base, &cfg)
	}
	return &cfg
}

// WithRealClients disables the fake stage clients and points the cookies
// path at a throwaway file so validation passes.
func WithRealClients() ConfigOption {
	return func(t testing.TB, baseDir string, cfg *config.Config) {
		cookies := filepath.Join(baseDir, "cookies.txt")
		if err := os.WriteFile(cookies, []byte("# Netscape HTTP Cookie File\n"), 0o644); err != nil {
			t.Fatalf("write cookies file: %v", err)
		}
		cfg.Clients.UseFakes = false
		cfg.Paths.CookiesPath = cookies
		cfg.Transcribe.APIKey = "test"
		cfg.Summarize.APIKey = "test"
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
