package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"catchup/internal/config"
	"catchup/internal/services"
)

// generateFunc issues one Gemini generation with one API key. Tests stub it
// to exercise key rotation without network access.
type generateFunc func(ctx context.Context, apiKey, model, prompt string) (string, error)

// geminiBackend calls the Gemini API and rotates through the configured
// keys when one runs out of quota. Rotation state persists across calls so
// a drained key is not retried first on the next prompt.
type geminiBackend struct {
	keys     []string
	model    string
	generate generateFunc

	mu      sync.Mutex
	current int
}

func newGeminiBackend(cfg *config.Config) (*geminiBackend, error) {
	if len(cfg.Summarize.GeminiAPIKeys) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "summarize", "gemini keys",
			"no gemini api keys configured", nil)
	}
	return &geminiBackend{
		keys:     cfg.Summarize.GeminiAPIKeys,
		model:    cfg.Summarize.GeminiModel,
		generate: generateGemini,
	}, nil
}

// Complete tries each key at most once, rotating on quota errors. Any other
// error aborts immediately.
func (b *geminiBackend) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for range b.keys {
		text, err := b.generate(ctx, b.currentKey(), b.model, prompt)
		if err != nil {
			if isQuotaError(err) {
				lastErr = err
				b.rotate()
				continue
			}
			return "", err
		}
		return text, nil
	}
	return "", fmt.Errorf("all gemini api keys exhausted: %w", lastErr)
}

func (b *geminiBackend) currentKey() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.keys[b.current]
}

func (b *geminiBackend) rotate() {
	b.mu.Lock()
	b.current = (b.current + 1) % len(b.keys)
	b.mu.Unlock()
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// generateGemini creates a client for the key and returns the concatenated
// candidate text.
func generateGemini(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errors.New("empty response from gemini")
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}
