package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"catchup/internal/config"
)

const (
	defaultTimeout      = 3 * time.Minute
	chatCompletionsPath = "/chat/completions"
)

// openAIBackend posts single-message chat completions to an
// OpenAI-compatible endpoint. The default configuration targets Mistral.
type openAIBackend struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
}

func newOpenAIBackend(cfg *config.Config) *openAIBackend {
	timeout := defaultTimeout
	if cfg.Summarize.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Summarize.TimeoutSeconds) * time.Second
	}
	return &openAIBackend{
		baseURL:    strings.TrimRight(cfg.Summarize.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.Summarize.APIKey),
		model:      cfg.Summarize.Model,
		httpClient: &http.Client{Timeout: timeout},
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxElapsedTime = 2 * time.Minute
	return policy
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message and returns the first
// choice. Transient failures (429, 5xx, network errors) are retried with
// exponential backoff; other failures abort immediately.
func (b *openAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	if b.apiKey == "" {
		return "", errors.New("summarization api key is not configured")
	}
	payload, err := json.Marshal(chatRequest{
		Model:    b.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+chatCompletionsPath, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}

		parsed = chatResponse{}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("parse response: %w", err))
		}
		if len(parsed.Choices) == 0 {
			return backoff.Permanent(errors.New("response contained no choices"))
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b.newBackOff(), ctx)); err != nil {
		return "", err
	}
	return parsed.Choices[0].Message.Content, nil
}
