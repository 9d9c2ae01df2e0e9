package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"catchup/internal/config"
	"catchup/internal/services"
)

// CommandRunner executes an external command and returns its combined
// output. Tests inject one to avoid spawning yt-dlp.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Downloader fetches lecture media with yt-dlp. The format selector prefers
// the smallest stream that still carries audio since only the audio track
// survives past conversion.
type Downloader struct {
	binary      string
	cookiesPath string
	format      string
	timeout     time.Duration
	runner      CommandRunner
}

// NewDownloader builds a Downloader from configuration.
func NewDownloader(cfg *config.Config) *Downloader {
	timeout := time.Duration(cfg.Download.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Hour
	}
	return &Downloader{
		binary:      cfg.YtdlpBinary(),
		cookiesPath: cfg.Paths.CookiesPath,
		format:      cfg.Download.Format,
		timeout:     timeout,
		runner:      runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Downloader) WithCommandRunner(runner CommandRunner) {
	d.runner = runner
}

// Download fetches the URL into outputDir and returns the downloaded file
// path. The cookies file is checked before any work starts so a missing
// Panopto session fails immediately instead of after a long fetch.
func (d *Downloader) Download(ctx context.Context, url string, outputDir string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", services.Wrap(services.ErrValidation, "download", "fetch media", "url is required", nil)
	}
	if err := checkCookies(d.cookiesPath, "download"); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrDownload, "download", "prepare output dir", "", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	template := filepath.Join(outputDir, "downloaded.%(ext)s")
	args := []string{
		"-f", d.format,
		"--cookies", d.cookiesPath,
		"--no-playlist",
		"-o", template,
		url,
	}
	output, err := d.runner(runCtx, d.binary, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "download", "fetch media", fmt.Sprintf("timed out after %s", d.timeout), err)
		}
		return "", services.Wrap(services.ErrDownload, "download", "fetch media", strings.TrimSpace(string(output)), err)
	}

	downloaded, err := newestDownload(outputDir)
	if err != nil {
		return "", err
	}
	return downloaded, nil
}

// newestDownload locates the file yt-dlp wrote. The extension depends on the
// format Panopto served, so the match is by stem. When a retried job left an
// older file behind the newest one wins.
func newestDownload(outputDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(outputDir, "downloaded.*"))
	if err != nil {
		return "", services.Wrap(services.ErrDownload, "download", "locate output", "", err)
	}
	var (
		newest     string
		newestTime time.Time
	)
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = match
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", services.Wrap(services.ErrDownload, "download", "locate output", "yt-dlp completed but no file was found", nil)
	}
	return newest, nil
}

func checkCookies(path string, stage string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrConfiguration, stage, "cookies", "cookies path is not configured", nil)
	}
	if _, err := os.Stat(path); err != nil {
		message := fmt.Sprintf("cookies file missing at %s (required for Panopto authentication)", path)
		return services.Wrap(services.ErrConfiguration, stage, "cookies", message, err)
	}
	return nil
}
