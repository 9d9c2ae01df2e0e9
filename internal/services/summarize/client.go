package summarize

import (
	"context"
	"fmt"
	"strings"

	"catchup/internal/config"
	"catchup/internal/pipeline"
	"catchup/internal/services"
)

// backend produces one completion for one prompt. Implementations are safe
// for concurrent use; the Summarizer owns prompt construction.
type backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Summarizer condenses a lecture transcript into structured markdown in two
// passes: every transcript chunk is summarized on its own, then the labeled
// partial summaries are merged into a single document.
type Summarizer struct {
	backend backend
}

// NewSummarizer builds a summarizer for the configured backend.
func NewSummarizer(cfg *config.Config) (*Summarizer, error) {
	switch cfg.Summarize.Backend {
	case "", "openai":
		return &Summarizer{backend: newOpenAIBackend(cfg)}, nil
	case "gemini":
		b, err := newGeminiBackend(cfg)
		if err != nil {
			return nil, err
		}
		return &Summarizer{backend: b}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "summarize", "backend",
			fmt.Sprintf("unknown summarization backend %q", cfg.Summarize.Backend), nil)
	}
}

// Summarize runs the two-pass strategy and returns the merged markdown. When
// no usable chunks exist the whole transcript is summarized as one chunk.
func (s *Summarizer) Summarize(ctx context.Context, transcript string, chunks []pipeline.Chunk, language string) (string, error) {
	texts := chunkTexts(chunks)
	if len(texts) == 0 {
		trimmed := strings.TrimSpace(transcript)
		if trimmed == "" {
			return "", services.Wrap(services.ErrValidation, "summarize", "input", "transcript is empty", nil)
		}
		texts = []string{trimmed}
	}
	norwegian := isNorwegian(language, chunks)

	summaries := make([]string, 0, len(texts))
	for i, text := range texts {
		summary, err := s.backend.Complete(ctx, buildChunkPrompt(text, norwegian))
		if err != nil {
			return "", services.Wrap(services.ErrSummarization, "summarize", fmt.Sprintf("chunk %d", i), "", err)
		}
		summaries = append(summaries, strings.TrimSpace(summary))
	}

	merged, err := s.backend.Complete(ctx, buildMergePrompt(combineSummaries(summaries, norwegian), norwegian))
	if err != nil {
		return "", services.Wrap(services.ErrSummarization, "summarize", "merge", "", err)
	}
	return strings.TrimSpace(merged), nil
}

func chunkTexts(chunks []pipeline.Chunk) []string {
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if text := strings.TrimSpace(chunk.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// isNorwegian decides the prompt language. An explicit "no" wins; when the
// job ran with automatic detection the transcriber's detected language
// breaks the tie.
func isNorwegian(language string, chunks []pipeline.Chunk) bool {
	switch language {
	case "no":
		return true
	case "", "auto":
		for _, chunk := range chunks {
			if chunk.DetectedLanguage != "" {
				return chunk.DetectedLanguage == "no"
			}
		}
	}
	return false
}
