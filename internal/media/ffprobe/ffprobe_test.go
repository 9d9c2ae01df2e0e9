package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio", SampleRate: "16000", Channels: 1, Duration: "120.5"},
			{CodecType: "audio", SampleRate: "48000", Channels: 2},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	stream, ok := result.AudioStream()
	if !ok {
		t.Fatal("expected an audio stream")
	}
	if stream.SampleRate != "16000" {
		t.Fatalf("expected first audio stream, got sample rate %q", stream.SampleRate)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SampleRateHz() != 16000 {
		t.Fatalf("unexpected sample rate: %d", result.SampleRateHz())
	}
	if result.AudioChannels() != 1 {
		t.Fatalf("unexpected channels: %d", result.AudioChannels())
	}
}

func TestResultDurationFallsBackToAudioStream(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", Duration: "42.5"},
		},
	}
	if result.DurationSeconds() != 42.5 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SampleRateHz() != 0 {
		t.Fatalf("expected sample rate 0, got %d", result.SampleRateHz())
	}
	if result.AudioChannels() != 0 {
		t.Fatalf("expected channels 0, got %d", result.AudioChannels())
	}
}
