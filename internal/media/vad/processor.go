package vad

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"catchup/internal/config"
	"catchup/internal/media/ffmpeg"
	"catchup/internal/media/ffprobe"
	"catchup/internal/segmentation"
	"catchup/internal/services"
)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// InspectFunc probes a media file. Tests inject one to avoid spawning
// ffprobe.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Processor collapses long silences out of a lecture recording. Silence is
// located with ffmpeg's silencedetect filter, complemented into speech
// intervals, run through the segmentation policy, and the kept sample
// ranges are rendered back into a single WAV file.
type Processor struct {
	ffmpegBinary  string
	ffprobeBinary string
	vad           config.VAD
	renderer      *ffmpeg.Renderer
	runner        ffmpeg.CommandRunner
	inspect       InspectFunc
}

// NewProcessor builds a Processor from configuration.
func NewProcessor(cfg *config.Config) *Processor {
	return &Processor{
		ffmpegBinary:  cfg.FFmpegBinary(),
		ffprobeBinary: cfg.FFprobeBinary(),
		vad:           cfg.VAD,
		renderer:      ffmpeg.NewRenderer(cfg),
		runner:        runCommand,
		inspect:       ffprobe.Inspect,
	}
}

// WithCommandRunner sets a custom command runner for both the silencedetect
// pass and the render pass (for testing).
func (p *Processor) WithCommandRunner(runner ffmpeg.CommandRunner) {
	p.runner = runner
	p.renderer.WithCommandRunner(runner)
}

// WithInspector sets a custom media prober (for testing).
func (p *Processor) WithInspector(inspect InspectFunc) {
	p.inspect = inspect
}

// Process reads inputPath, collapses long silences, and writes the result to
// outputPath, returning that path.
func (p *Processor) Process(ctx context.Context, inputPath string, outputPath string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", services.Wrap(services.ErrProcessing, "vad", "input", fmt.Sprintf("input file not found: %s", inputPath), err)
	}

	probe, err := p.inspect(ctx, p.ffprobeBinary, inputPath)
	if err != nil {
		return "", services.Wrap(services.ErrProcessing, "vad", "probe duration", "", err)
	}
	totalSeconds := probe.DurationSeconds()
	if !(totalSeconds > 0) {
		return "", services.Wrap(services.ErrProcessing, "vad", "probe duration", "could not determine audio duration", nil)
	}
	sampleRate := probe.SampleRateHz()
	if sampleRate <= 0 {
		sampleRate = p.vad.SampleRate
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	silences, err := p.detectSilence(ctx, inputPath, totalSeconds)
	if err != nil {
		return "", err
	}
	speech := complement(silences, totalSeconds)

	detections := make([]segmentation.Span, 0, len(speech))
	totalSamples := int(totalSeconds * float64(sampleRate))
	for _, interval := range speech {
		span := segmentation.Span{
			Start: int(interval.Start * float64(sampleRate)),
			End:   int(interval.End * float64(sampleRate)),
		}
		if span.End > totalSamples {
			span.End = totalSamples
		}
		if span.Len() > 0 {
			detections = append(detections, span)
		}
	}

	policy := segmentation.Policy{
		PaddingSeconds:     p.vad.PaddingSeconds,
		LongSilenceSeconds: p.vad.LongSilenceSeconds,
		KeepSilenceSeconds: p.vad.KeepSilenceSeconds,
	}
	segments := policy.Collapse(detections, totalSamples, sampleRate)
	if len(segments) == 0 {
		return "", services.Wrap(services.ErrProcessing, "vad", "collapse", "policy produced no segments", nil)
	}

	if err := p.renderer.CutSamples(ctx, inputPath, outputPath, segments, sampleRate); err != nil {
		return "", services.Wrap(services.ErrProcessing, "vad", "render", "", err)
	}
	return outputPath, nil
}

// detectSilence runs the silencedetect filter and parses its log output.
// The filter reports to stderr at the default log level, so the command runs
// without -loglevel error.
func (p *Processor) detectSilence(ctx context.Context, inputPath string, totalSeconds float64) ([]Interval, error) {
	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", p.vad.NoiseDB, p.vad.MinSilenceSeconds)
	args := []string{
		"-hide_banner",
		"-nostats",
		"-i", inputPath,
		"-af", filter,
		"-f", "null",
		"-",
	}

	output, err := p.runner(ctx, p.ffmpegBinary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrProcessing, "vad", "silencedetect", strings.TrimSpace(string(output)), err)
	}
	return parseSilence(string(output), totalSeconds), nil
}
