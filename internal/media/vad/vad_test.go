package vad

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catchup/internal/media/ffprobe"
	"catchup/internal/services"
	"catchup/internal/testsupport"
)

const detectPreamble = "Input #0, wav, from 'audio_original.wav':\n  Duration: 00:00:30.00\n"

func TestParseSilencePairsEvents(t *testing.T) {
	output := detectPreamble +
		"[silencedetect @ 0x5647] silence_start: 10\n" +
		"frame= 100\n" +
		"[silencedetect @ 0x5647] silence_end: 20 | silence_duration: 10\n" +
		"[silencedetect @ 0x5647] silence_start: 25.5\n"

	intervals := parseSilence(output, 30)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d (%v)", len(intervals), intervals)
	}
	if intervals[0].Start != 10 || intervals[0].End != 20 {
		t.Fatalf("unexpected first interval %v", intervals[0])
	}
	if intervals[1].Start != 25.5 || intervals[1].End != 30 {
		t.Fatalf("expected trailing silence closed at total, got %v", intervals[1])
	}
}

func TestParseSilenceHandlesNegativeStart(t *testing.T) {
	output := "[silencedetect @ 0x1] silence_start: -0.005\n" +
		"[silencedetect @ 0x1] silence_end: 3.2 | silence_duration: 3.205\n"

	intervals := parseSilence(output, 30)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if intervals[0].Start != -0.005 || intervals[0].End != 3.2 {
		t.Fatalf("unexpected interval %v", intervals[0])
	}
}

func TestParseSilenceNoEvents(t *testing.T) {
	if intervals := parseSilence(detectPreamble, 30); len(intervals) != 0 {
		t.Fatalf("expected no intervals, got %v", intervals)
	}
}

func TestComplementMidSilence(t *testing.T) {
	speech := complement([]Interval{{Start: 10, End: 12}}, 20)
	want := []Interval{{Start: 0, End: 10}, {Start: 12, End: 20}}
	if len(speech) != len(want) {
		t.Fatalf("expected %v, got %v", want, speech)
	}
	for i := range want {
		if speech[i] != want[i] {
			t.Fatalf("interval %d: expected %v, got %v", i, want[i], speech[i])
		}
	}
}

func TestComplementLeadingSilence(t *testing.T) {
	speech := complement([]Interval{{Start: -0.005, End: 5}}, 30)
	if len(speech) != 1 || speech[0].Start != 5 || speech[0].End != 30 {
		t.Fatalf("expected [{5 30}], got %v", speech)
	}
}

func TestComplementFullSilence(t *testing.T) {
	if speech := complement([]Interval{{Start: 0, End: 20}}, 20); len(speech) != 0 {
		t.Fatalf("expected no speech, got %v", speech)
	}
}

func TestComplementNoSilence(t *testing.T) {
	speech := complement(nil, 42.5)
	if len(speech) != 1 || speech[0].Start != 0 || speech[0].End != 42.5 {
		t.Fatalf("expected full-range speech, got %v", speech)
	}
}

func stubInspect(duration string) InspectFunc {
	return func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "audio", SampleRate: "16000", Channels: 1}},
			Format:  ffprobe.Format{Duration: duration},
		}, nil
	}
}

func TestProcessorCollapsesLongSilence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := t.TempDir()
	input := filepath.Join(base, "audio_original.wav")
	output := filepath.Join(base, "audio_vad.wav")
	if err := os.WriteFile(input, []byte("wav"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	detectOutput := "[silencedetect @ 0x5647] silence_start: 10\n" +
		"[silencedetect @ 0x5647] silence_end: 20 | silence_duration: 10\n"

	var filterText string
	processor := NewProcessor(cfg)
	processor.WithInspector(stubInspect("30.0"))
	processor.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		joined := strings.Join(args, " ")
		if strings.Contains(joined, "silencedetect") {
			return []byte(detectOutput), nil
		}
		for i, arg := range args {
			if arg == "-filter_complex_script" && i+1 < len(args) {
				raw, err := os.ReadFile(args[i+1])
				if err != nil {
					t.Fatalf("read filter script: %v", err)
				}
				filterText = string(raw)
			}
		}
		return nil, os.WriteFile(output, []byte("wav"), 0o644)
	})

	got, err := processor.Process(context.Background(), input, output)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got != output {
		t.Fatalf("expected output path back, got %q", got)
	}

	// 30s at 16kHz with silence over [10s, 20s]: the padded speech runs
	// [0, 163200] and [316800, 480000], with 0.35s of kept silence between.
	for _, fragment := range []string{
		"atrim=start_sample=0:end_sample=163200",
		"atrim=start_sample=163200:end_sample=168800",
		"atrim=start_sample=316800:end_sample=480000",
		"concat=n=3:v=0:a=1[out]",
	} {
		if !strings.Contains(filterText, fragment) {
			t.Fatalf("filter %q missing %q", filterText, fragment)
		}
	}
}

func TestProcessorKeepsFileWithoutSilence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := t.TempDir()
	input := filepath.Join(base, "audio_original.wav")
	output := filepath.Join(base, "audio_vad.wav")
	if err := os.WriteFile(input, []byte("wav"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	var filterText string
	processor := NewProcessor(cfg)
	processor.WithInspector(stubInspect("30.0"))
	processor.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if strings.Contains(strings.Join(args, " "), "silencedetect") {
			return []byte(detectPreamble), nil
		}
		for i, arg := range args {
			if arg == "-filter_complex_script" && i+1 < len(args) {
				raw, err := os.ReadFile(args[i+1])
				if err != nil {
					t.Fatalf("read filter script: %v", err)
				}
				filterText = string(raw)
			}
		}
		return nil, os.WriteFile(output, []byte("wav"), 0o644)
	})

	if _, err := processor.Process(context.Background(), input, output); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !strings.Contains(filterText, "atrim=start_sample=0:end_sample=480000") {
		t.Fatalf("expected full-range span, got %q", filterText)
	}
	if !strings.Contains(filterText, "concat=n=1:v=0:a=1[out]") {
		t.Fatalf("expected single concat input, got %q", filterText)
	}
}

func TestProcessorRequiresInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	processor := NewProcessor(cfg)

	_, err := processor.Process(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), filepath.Join(t.TempDir(), "out.wav"))
	if !errors.Is(err, services.ErrProcessing) {
		t.Fatalf("expected processing error, got %v", err)
	}
}

func TestProcessorRejectsUnknownDuration(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := t.TempDir()
	input := filepath.Join(base, "audio_original.wav")
	if err := os.WriteFile(input, []byte("wav"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	processor := NewProcessor(cfg)
	processor.WithInspector(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, nil
	})

	_, err := processor.Process(context.Background(), input, filepath.Join(base, "out.wav"))
	if err == nil || !strings.Contains(err.Error(), "could not determine audio duration") {
		t.Fatalf("expected duration error, got %v", err)
	}
}
