package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"catchup/internal/config"
	"catchup/internal/services"
)

// CommandRunner executes an external command and returns its combined
// output. Tests inject one to avoid spawning ffmpeg.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

const convertTimeout = time.Hour

// Converter normalizes downloaded media into the pipeline's working format:
// mono PCM WAV at the configured sample rate.
type Converter struct {
	binary     string
	sampleRate int
	runner     CommandRunner
}

// NewConverter builds a Converter from configuration.
func NewConverter(cfg *config.Config) *Converter {
	sampleRate := cfg.VAD.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Converter{
		binary:     cfg.FFmpegBinary(),
		sampleRate: sampleRate,
		runner:     runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Converter) WithCommandRunner(runner CommandRunner) {
	c.runner = runner
}

// ConvertToWAV transcodes inputPath into a mono 16-bit PCM WAV file at
// outputPath and returns that path.
func (c *Converter) ConvertToWAV(ctx context.Context, inputPath string, outputPath string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", services.Wrap(services.ErrConversion, "convert", "input", fmt.Sprintf("input file not found: %s", inputPath), err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrConversion, "convert", "prepare output dir", "", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, convertTimeout)
	defer cancel()

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(c.sampleRate),
		"-c:a", "pcm_s16le",
		outputPath,
	}
	output, err := c.runner(runCtx, c.binary, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "convert", "run ffmpeg", fmt.Sprintf("timed out after %s", convertTimeout), err)
		}
		return "", services.Wrap(services.ErrConversion, "convert", "run ffmpeg", strings.TrimSpace(string(output)), err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", services.Wrap(services.ErrConversion, "convert", "verify output", "ffmpeg completed but output file was not created", err)
	}
	return outputPath, nil
}
