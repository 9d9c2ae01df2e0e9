package pipeline

import "context"

// Chunk is one transcribed window of audio. Windows overlap slightly so no
// speech is lost at a boundary; Text holds the window's transcript verbatim.
type Chunk struct {
	Index            int     `json:"i"`
	StartSec         float64 `json:"start_sec"`
	EndSec           float64 `json:"end_sec"`
	Text             string  `json:"text"`
	DetectedLanguage string  `json:"detected_language,omitempty"`
}

// Downloader fetches the source media for a lecture into outputDir and
// returns the path of the downloaded file.
type Downloader interface {
	Download(ctx context.Context, url, outputDir string) (string, error)
}

// Converter transcodes downloaded media into the canonical mono 16 kHz
// 16-bit PCM WAV the rest of the pipeline expects.
type Converter interface {
	ConvertToWAV(ctx context.Context, inputPath, outputPath string) (string, error)
}

// SegmentationProcessor collapses long silences out of a WAV file, producing
// a shorter file that keeps all speech plus bounded pauses.
type SegmentationProcessor interface {
	Process(ctx context.Context, inputPath, outputPath string) (string, error)
}

// Transcriber turns a WAV file into text. It returns the full transcript
// (chunk texts joined with blank lines) plus the per-window chunk records.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, []Chunk, error)
}

// Summarizer produces a structured markdown summary from a transcript and
// its chunk records.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, chunks []Chunk, language string) (string, error)
}

// Clients bundles the five stage implementations the runner drives. All
// fields must be non-nil.
type Clients struct {
	Downloader  Downloader
	Converter   Converter
	Processor   SegmentationProcessor
	Transcriber Transcriber
	Summarizer  Summarizer
}
