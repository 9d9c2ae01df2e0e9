package daemonrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"catchup/internal/testsupport"
)

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunStartsAndStopsDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, Options{})
	}()

	pidPath := filepath.Join(cfg.LogDir(), "catchup.pid")
	waitForFile(t, pidPath)

	data, err := os.ReadFile(pidPath)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parse pid file %q: %v", data, err)
	}
	if pid != os.Getpid() {
		t.Fatalf("pid file = %d, want %d", pid, os.Getpid())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not exit after cancellation")
	}

	if _, err := os.Stat(pidPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pid file still present after shutdown: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.LogDir(), "catchup.log")); err != nil {
		t.Fatalf("daemon log file missing: %v", err)
	}
}

func TestRunLogLevelOverrideRejectsUnknownFormat(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Format = "xml"

	if err := Run(context.Background(), cfg, Options{LogLevel: "debug"}); err == nil {
		t.Fatal("expected logger init error for unsupported format")
	}
}

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("file %s did not appear", path)
}
