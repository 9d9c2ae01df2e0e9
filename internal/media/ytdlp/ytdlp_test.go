package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catchup/internal/services"
	"catchup/internal/testsupport"
)

func TestDownloaderRequiresCookies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.CookiesPath = filepath.Join(testsupport.BaseDir(cfg), "missing-cookies.txt")

	downloader := NewDownloader(cfg)
	downloader.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("command should not run without cookies")
		return nil, nil
	})

	_, err := downloader.Download(context.Background(), "https://example.com/v", t.TempDir())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "cookies file missing") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestDownloaderBuildsArgsAndReturnsNewestFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRealClients())
	outputDir := t.TempDir()

	older := filepath.Join(outputDir, "downloaded.part")
	if err := os.WriteFile(older, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("age stale file: %v", err)
	}

	var captured []string
	downloader := NewDownloader(cfg)
	downloader.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		captured = append([]string{name}, args...)
		return nil, os.WriteFile(filepath.Join(outputDir, "downloaded.webm"), []byte("media"), 0o644)
	})

	got, err := downloader.Download(context.Background(), "https://example.com/v", outputDir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != filepath.Join(outputDir, "downloaded.webm") {
		t.Fatalf("expected newest download, got %q", got)
	}

	joined := strings.Join(captured, " ")
	for _, fragment := range []string{
		"yt-dlp",
		"-f worstaudio/worst",
		"--cookies " + cfg.Paths.CookiesPath,
		"--no-playlist",
		"-o " + filepath.Join(outputDir, "downloaded.%(ext)s"),
		"https://example.com/v",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("command %q missing %q", joined, fragment)
		}
	}
}

func TestDownloaderSurfacesToolFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRealClients())

	downloader := NewDownloader(cfg)
	downloader.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("ERROR: This video is unavailable\n"), errors.New("exit status 1")
	})

	_, err := downloader.Download(context.Background(), "https://example.com/v", t.TempDir())
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download error, got %v", err)
	}
	if !strings.Contains(err.Error(), "This video is unavailable") {
		t.Fatalf("expected tool output in message, got %v", err)
	}
}

func TestDownloaderRejectsEmptyResult(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRealClients())

	downloader := NewDownloader(cfg)
	downloader.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, nil
	})

	_, err := downloader.Download(context.Background(), "https://example.com/v", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no file was found") {
		t.Fatalf("expected missing-file error, got %v", err)
	}
}

func TestProberParsesMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRealClients())

	var captured []string
	prober := NewProber(cfg)
	prober.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		captured = append([]string{name}, args...)
		return []byte("WARNING: cookies nearing expiry\n" +
			`{"id":"abc-123","title":"ELE130 Forelesning 01.09.2025","duration":5423.5,"uploader":"UiS"}`), nil
	})

	meta, err := prober.Probe(context.Background(), "https://panopto.example.com/Viewer.aspx?id=abc-123")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.Title != "ELE130 Forelesning 01.09.2025" {
		t.Fatalf("unexpected title %q", meta.Title)
	}
	if meta.ID != "abc-123" {
		t.Fatalf("unexpected id %q", meta.ID)
	}
	if meta.DurationSec != 5423.5 {
		t.Fatalf("unexpected duration %v", meta.DurationSec)
	}

	joined := strings.Join(captured, " ")
	if !strings.Contains(joined, "--dump-json") || !strings.Contains(joined, "--no-playlist") {
		t.Fatalf("probe command missing flags: %q", joined)
	}
}

func TestProberRequiresCookies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.CookiesPath = ""

	prober := NewProber(cfg)
	_, err := prober.Probe(context.Background(), "https://example.com/v")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
