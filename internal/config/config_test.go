package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catchup/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if !cfg.Clients.UseFakes {
		t.Fatal("expected fake clients by default")
	}
	if cfg.Workers.Count != 2 {
		t.Fatalf("workers.count = %d, want 2", cfg.Workers.Count)
	}
	if cfg.VAD.LongSilenceSeconds != 1.6 {
		t.Fatalf("vad.long_silence_seconds = %v, want 1.6", cfg.VAD.LongSilenceSeconds)
	}
	if cfg.Transcribe.ChunkMinutes != 15 {
		t.Fatalf("transcribe.chunk_minutes = %d, want 15", cfg.Transcribe.ChunkMinutes)
	}
}

func TestLoadExpandsAndDerivesPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+dir+`/data"
log_dir = "`+dir+`/logs"
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("expected absolute data dir, got %q", cfg.Paths.DataDir)
	}
	want := filepath.Join(dir, "data", "catchup.db")
	if cfg.Paths.DatabasePath != want {
		t.Fatalf("database_path = %q, want %q", cfg.Paths.DatabasePath, want)
	}
}

func TestLoadRejectsBadVADNoiseFloor(t *testing.T) {
	path := writeConfig(t, `
[vad]
noise_db = 10.0
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for non-negative vad.noise_db")
	}
}

func TestLoadRejectsOverlapLongerThanChunk(t *testing.T) {
	path := writeConfig(t, `
[transcribe]
chunk_minutes = 1
overlap_seconds = 90
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for overlap exceeding chunk duration")
	}
}

func TestLoadRejectsUnknownSummarizeBackend(t *testing.T) {
	path := writeConfig(t, `
[summarize]
backend = "claude"
`)
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "summarize.backend") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRealClientsRequireKeys(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	path := writeConfig(t, `
[clients]
use_fakes = false
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for missing transcribe credentials")
	}
}

func TestLoadRealClientsKeyFromEnv(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "sk-test")
	path := writeConfig(t, `
[clients]
use_fakes = false
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Transcribe.APIKey != "sk-test" {
		t.Fatalf("transcribe.api_key = %q, want env value", cfg.Transcribe.APIKey)
	}
	if cfg.Summarize.APIKey != "sk-test" {
		t.Fatalf("summarize.api_key = %q, want env value", cfg.Summarize.APIKey)
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+dir+`/data"
log_dir = "`+dir+`/logs"
drop_dir = "`+dir+`/drop"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, sub := range []string{"data", "logs", "drop"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", sub, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(content), "[transcribe]") {
		t.Fatalf("sample missing transcribe section: %q", content)
	}
}
