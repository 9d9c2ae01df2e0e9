package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"catchup/internal/identity"
	"catchup/internal/media/ytdlp"
)

// Fake clients run the pipeline end to end without yt-dlp, ffmpeg, or any
// network access. Outputs are deterministic so tests can assert on them.

const defaultFakeTranscript = `Dette er en test-forelesning om programmering.
Vi skal snakke om funksjoner og variabler.
Først definerer vi en funksjon som heter hello world.
Deretter kaller vi funksjonen og printer resultatet.
Dette er slutten av forelesningen.`

// NewFakeClients bundles one fake per stage.
func NewFakeClients() Clients {
	return Clients{
		Downloader:  &FakeDownloader{},
		Converter:   &FakeConverter{},
		Processor:   &FakeProcessor{},
		Transcriber: &FakeTranscriber{},
		Summarizer:  &FakeSummarizer{},
	}
}

// FakeProber fabricates probe metadata from the URL instead of invoking
// yt-dlp. The title comes from the URL path, so course and date derivation
// behave the same as with real metadata when the path carries them.
type FakeProber struct{}

func (p *FakeProber) Probe(ctx context.Context, url string) (*ytdlp.VideoMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ytdlp.VideoMetadata{
		Title:       identity.DeriveTitle(url),
		DurationSec: 1800,
	}, nil
}

// FakeDownloader writes a placeholder media file instead of fetching the
// URL. Set FixturePath to copy a real recording into place instead.
type FakeDownloader struct {
	FixturePath string
}

func (d *FakeDownloader) Download(ctx context.Context, url string, outputDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	outputPath := filepath.Join(outputDir, "downloaded.wav")
	if d.FixturePath != "" {
		if err := copyFile(d.FixturePath, outputPath); err != nil {
			return "", fmt.Errorf("copy fixture: %w", err)
		}
		return outputPath, nil
	}
	if err := os.WriteFile(outputPath, []byte("RIFF....WAVE...."), 0o644); err != nil {
		return "", fmt.Errorf("write placeholder media: %w", err)
	}
	return outputPath, nil
}

// FakeConverter copies the input file to the output path.
type FakeConverter struct{}

func (c *FakeConverter) ConvertToWAV(ctx context.Context, inputPath string, outputPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := copyFile(inputPath, outputPath); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	return outputPath, nil
}

// FakeProcessor copies the input file to the output path, skipping silence
// detection entirely.
type FakeProcessor struct{}

func (p *FakeProcessor) Process(ctx context.Context, inputPath string, outputPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := copyFile(inputPath, outputPath); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	return outputPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// FakeTranscriber returns a fixed transcript split into roughly three chunks
// with synthetic timings. Set Transcript to override the text.
type FakeTranscriber struct {
	Transcript string
}

func (t *FakeTranscriber) Transcribe(ctx context.Context, audioPath string, language string) (string, []Chunk, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	text := t.Transcript
	if text == "" {
		text = defaultFakeTranscript
	}

	detected := language
	if detected == "" || detected == "auto" {
		detected = "no"
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	chunkSize := len(lines) / 3
	if chunkSize < 1 {
		chunkSize = 1
	}

	var (
		chunks  []Chunk
		parts   []string
		current float64
	)
	for i := 0; i < len(lines); i += chunkSize {
		end := i + chunkSize
		if end > len(lines) {
			end = len(lines)
		}
		chunkText := strings.Join(lines[i:end], " ")
		duration := float64(utf8.RuneCountInString(chunkText)) * 0.1

		chunks = append(chunks, Chunk{
			Index:            len(chunks),
			StartSec:         current,
			EndSec:           current + duration,
			Text:             chunkText,
			DetectedLanguage: detected,
		})
		parts = append(parts, chunkText)
		current += duration
	}

	return strings.Join(parts, "\n\n"), chunks, nil
}

// FakeSummarizer returns fixed Norwegian markdown with the transcript word
// count appended.
type FakeSummarizer struct{}

func (s *FakeSummarizer) Summarize(ctx context.Context, transcript string, chunks []Chunk, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wordCount := len(strings.Fields(transcript))
	summary := fmt.Sprintf(`# Sammendrag av forelesning

## Hovedtemaer
- Programmering og koding
- Funksjoner og variabler
- Praktiske eksempler

## Detaljert innhold

### Introduksjon
Forelesningen dekker grunnleggende programmeringskonsepter.

### Funksjoner
Vi ser på hvordan man definerer og bruker funksjoner i kode.

### Variabler
Variabler blir brukt for å lagre data i programmer.

## Konklusjon
Dette var en innføring i grunnleggende programmering.

---
*Transkribert innhold: ca. %d ord*
`, wordCount)

	return summary, nil
}
