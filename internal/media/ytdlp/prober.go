package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catchup/internal/config"
	"catchup/internal/services"
)

const probeTimeout = 30 * time.Second

// VideoMetadata is the subset of yt-dlp's --dump-json output the submission
// flow needs for identity derivation.
type VideoMetadata struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	DurationSec float64 `json:"duration"`
	Uploader    string  `json:"uploader"`
	UploadDate  string  `json:"upload_date"`
}

// Prober extracts metadata from a URL without downloading the media.
type Prober struct {
	binary      string
	cookiesPath string
	runner      CommandRunner
}

// NewProber builds a Prober from configuration.
func NewProber(cfg *config.Config) *Prober {
	return &Prober{
		binary:      cfg.YtdlpBinary(),
		cookiesPath: cfg.Paths.CookiesPath,
		runner:      runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *Prober) WithCommandRunner(runner CommandRunner) {
	p.runner = runner
}

// Probe runs yt-dlp --dump-json against the URL and parses the response.
func (p *Prober) Probe(ctx context.Context, url string) (*VideoMetadata, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, services.Wrap(services.ErrValidation, "metadata", "probe", "url is required", nil)
	}
	if err := checkCookies(p.cookiesPath, "metadata"); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{
		"--dump-json",
		"--cookies", p.cookiesPath,
		"--no-playlist",
		url,
	}
	output, err := p.runner(runCtx, p.binary, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "metadata", "probe", fmt.Sprintf("timed out after %s", probeTimeout), err)
		}
		return nil, services.Wrap(services.ErrDownload, "metadata", "probe", strings.TrimSpace(string(output)), err)
	}

	// yt-dlp may print warnings before the JSON document; decode from the
	// first brace.
	payload := output
	if idx := strings.IndexByte(string(output), '{'); idx > 0 {
		payload = output[idx:]
	}

	var meta VideoMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, services.Wrap(services.ErrDownload, "metadata", "probe", "parse yt-dlp JSON output", err)
	}
	return &meta, nil
}
