package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"catchup/internal/config"
	"catchup/internal/segmentation"
)

// Renderer cuts and reassembles audio with ffmpeg filters. The silence
// collapser feeds it sample ranges; the transcriber feeds it time windows.
// Errors carry no stage marker because both stages share this type; callers
// wrap with their own.
type Renderer struct {
	binary string
	runner CommandRunner
}

// NewRenderer builds a Renderer from configuration.
func NewRenderer(cfg *config.Config) *Renderer {
	return &Renderer{
		binary: cfg.FFmpegBinary(),
		runner: runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *Renderer) WithCommandRunner(runner CommandRunner) {
	r.runner = runner
}

// CutSamples renders the given sample spans of input, concatenated in order,
// into output. The filter graph is written to a script file next to the
// output because a long lecture can produce more spans than fit in a single
// command line argument.
func (r *Renderer) CutSamples(ctx context.Context, input, output string, spans []segmentation.Span, sampleRate int) error {
	if len(spans) == 0 {
		return errors.New("cut samples: no spans to render")
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("cut samples: prepare output dir: %w", err)
	}

	script, err := os.CreateTemp(filepath.Dir(output), "cut-*.filter")
	if err != nil {
		return fmt.Errorf("cut samples: create filter script: %w", err)
	}
	scriptPath := script.Name()
	defer os.Remove(scriptPath)

	if _, err := script.WriteString(buildCutFilter(spans)); err != nil {
		script.Close()
		return fmt.Errorf("cut samples: write filter script: %w", err)
	}
	if err := script.Close(); err != nil {
		return fmt.Errorf("cut samples: close filter script: %w", err)
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-filter_complex_script", scriptPath,
		"-map", "[out]",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		output,
	}
	if cmdOutput, err := r.runner(ctx, r.binary, args...); err != nil {
		return fmt.Errorf("ffmpeg cut: %w: %s", err, strings.TrimSpace(string(cmdOutput)))
	}
	if _, err := os.Stat(output); err != nil {
		return fmt.Errorf("ffmpeg cut: output file was not created: %w", err)
	}
	return nil
}

// buildCutFilter produces an atrim-per-span filter graph ending in a single
// concat node labeled [out].
func buildCutFilter(spans []segmentation.Span) string {
	var b strings.Builder
	for i, span := range spans {
		fmt.Fprintf(&b, "[0:a]atrim=start_sample=%d:end_sample=%d,asetpts=PTS-STARTPTS[seg%d];\n", span.Start, span.End, i)
	}
	for i := range spans {
		fmt.Fprintf(&b, "[seg%d]", i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=0:a=1[out]\n", len(spans))
	return b.String()
}

// ExtractWindow renders the [startSec, startSec+durationSec) slice of input
// into output as mono PCM WAV.
func (r *Renderer) ExtractWindow(ctx context.Context, input, output string, startSec, durationSec float64, sampleRate int) error {
	if durationSec <= 0 {
		return fmt.Errorf("extract window: invalid duration %v", durationSec)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("extract window: prepare output dir: %w", err)
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-i", input,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		output,
	}
	if cmdOutput, err := r.runner(ctx, r.binary, args...); err != nil {
		return fmt.Errorf("ffmpeg extract window: %w: %s", err, strings.TrimSpace(string(cmdOutput)))
	}
	if _, err := os.Stat(output); err != nil {
		return fmt.Errorf("ffmpeg extract window: output file was not created: %w", err)
	}
	return nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
