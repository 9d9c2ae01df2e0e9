package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"catchup/internal/config"
	"catchup/internal/media/ffmpeg"
	"catchup/internal/media/ffprobe"
	"catchup/internal/pipeline"
	"catchup/internal/segmentation"
	"catchup/internal/services"
)

const (
	defaultTimeout    = 2 * time.Minute
	transcriptionPath = "/audio/transcriptions"
)

// InspectFunc probes a media file. Tests inject one to avoid spawning
// ffprobe.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Client transcribes lecture audio against an OpenAI-compatible
// transcription endpoint. Long recordings are split into overlapping
// windows so each upload stays within the provider's duration limits; the
// window texts are joined into the raw transcript.
type Client struct {
	baseURL        string
	apiKey         string
	model          string
	chunkSeconds   float64
	overlapSeconds float64
	sampleRate     int
	ffprobeBinary  string

	httpClient *http.Client
	renderer   *ffmpeg.Renderer
	inspect    InspectFunc
	newBackOff func() backoff.BackOff
}

// NewClient builds a transcription client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := defaultTimeout
	if cfg.Transcribe.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Transcribe.TimeoutSeconds) * time.Second
	}
	sampleRate := cfg.VAD.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.Transcribe.BaseURL, "/"),
		apiKey:         strings.TrimSpace(cfg.Transcribe.APIKey),
		model:          cfg.Transcribe.Model,
		chunkSeconds:   float64(cfg.Transcribe.ChunkMinutes) * 60,
		overlapSeconds: float64(cfg.Transcribe.OverlapSeconds),
		sampleRate:     sampleRate,
		ffprobeBinary:  cfg.FFprobeBinary(),
		httpClient:     &http.Client{Timeout: timeout},
		renderer:       ffmpeg.NewRenderer(cfg),
		inspect:        ffprobe.Inspect,
		newBackOff:     defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxElapsedTime = 2 * time.Minute
	return policy
}

// WithHTTPClient overrides the default HTTP client (for testing).
func (c *Client) WithHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// WithCommandRunner sets a custom command runner for window extraction (for
// testing).
func (c *Client) WithCommandRunner(runner ffmpeg.CommandRunner) {
	c.renderer.WithCommandRunner(runner)
}

// WithInspector sets a custom media prober (for testing).
func (c *Client) WithInspector(inspect InspectFunc) {
	c.inspect = inspect
}

// WithBackOff overrides the retry policy (for testing).
func (c *Client) WithBackOff(factory func() backoff.BackOff) {
	c.newBackOff = factory
}

// Transcribe splits audioPath into overlapping windows, transcribes each,
// and returns the joined transcript plus per-window chunks.
func (c *Client) Transcribe(ctx context.Context, audioPath string, language string) (string, []pipeline.Chunk, error) {
	if c.apiKey == "" {
		return "", nil, services.Wrap(services.ErrConfiguration, "transcribe", "api key", "transcription api key is not configured", nil)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", nil, services.Wrap(services.ErrTranscription, "transcribe", "input", fmt.Sprintf("audio file not found: %s", audioPath), err)
	}

	probe, err := c.inspect(ctx, c.ffprobeBinary, audioPath)
	if err != nil {
		return "", nil, services.Wrap(services.ErrTranscription, "transcribe", "probe duration", "", err)
	}
	totalSeconds := probe.DurationSeconds()
	windows := segmentation.PlanWindows(totalSeconds, c.chunkSeconds, c.overlapSeconds)
	if len(windows) == 0 {
		return "", nil, services.Wrap(services.ErrTranscription, "transcribe", "probe duration", "could not determine audio duration", nil)
	}

	workDir, err := os.MkdirTemp(filepath.Dir(audioPath), "chunks-")
	if err != nil {
		return "", nil, services.Wrap(services.ErrTranscription, "transcribe", "workdir", "", err)
	}
	defer os.RemoveAll(workDir)

	chunks := make([]pipeline.Chunk, 0, len(windows))
	parts := make([]string, 0, len(windows))
	for i, window := range windows {
		wavPath := filepath.Join(workDir, fmt.Sprintf("chunk_%04d.wav", i))
		if err := c.renderer.ExtractWindow(ctx, audioPath, wavPath, window.Start, window.Duration(), c.sampleRate); err != nil {
			return "", nil, services.Wrap(services.ErrTranscription, "transcribe", fmt.Sprintf("extract window %d", i), "", err)
		}

		text, detected, err := c.transcribeWindow(ctx, wavPath, language)
		if err != nil {
			return "", nil, services.Wrap(services.ErrTranscription, "transcribe", fmt.Sprintf("window %d", i), "", err)
		}

		chunks = append(chunks, pipeline.Chunk{
			Index:            i,
			StartSec:         window.Start,
			EndSec:           window.End,
			Text:             text,
			DetectedLanguage: detected,
		})
		parts = append(parts, text)
	}

	return strings.Join(parts, "\n\n"), chunks, nil
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// transcribeWindow uploads one window and returns its text and detected
// language. Transient HTTP failures (429, 5xx, network errors) are retried
// with exponential backoff; other failures abort immediately.
func (c *Client) transcribeWindow(ctx context.Context, wavPath string, language string) (string, string, error) {
	audio, err := os.ReadFile(wavPath)
	if err != nil {
		return "", "", fmt.Errorf("read window: %w", err)
	}

	var parsed transcriptionResponse
	operation := func() error {
		body, contentType, err := buildForm(audio, c.model, language)
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcriptionPath, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
		}

		parsed = transcriptionResponse{}
		if err := json.Unmarshal(payload, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("parse response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return "", "", err
	}

	detected := strings.TrimSpace(parsed.Language)
	if detected == "" {
		if language != "" && language != "auto" {
			detected = language
		} else {
			detected = "no"
		}
	}
	return parsed.Text, detected, nil
}

// buildForm assembles the multipart upload. The language field is omitted
// for "auto" so the provider runs its own detection.
func buildForm(audio []byte, model string, language string) (*bytes.Reader, string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	file, err := form.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", err
	}
	if _, err := file.Write(audio); err != nil {
		return nil, "", err
	}
	if err := form.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if language != "" && language != "auto" {
		if err := form.WriteField("language", language); err != nil {
			return nil, "", err
		}
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return bytes.NewReader(buf.Bytes()), form.FormDataContentType(), nil
}
