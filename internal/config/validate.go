package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateVAD(); err != nil {
		return err
	}
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	if err := c.validateSummarize(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count <= 0 {
		return errors.New("workers.count must be positive")
	}
	if c.Workers.QueueSize <= 0 {
		return errors.New("workers.queue_size must be positive")
	}
	return nil
}

func (c *Config) validateVAD() error {
	if c.VAD.NoiseDB >= 0 {
		return errors.New("vad.noise_db must be negative (dBFS noise floor)")
	}
	if c.VAD.MinSilenceSeconds <= 0 {
		return errors.New("vad.min_silence_seconds must be positive")
	}
	if c.VAD.PaddingSeconds < 0 {
		return errors.New("vad.padding_seconds must not be negative")
	}
	if c.VAD.LongSilenceSeconds <= 0 {
		return errors.New("vad.long_silence_seconds must be positive")
	}
	if c.VAD.KeepSilenceSeconds < 0 {
		return errors.New("vad.keep_silence_seconds must not be negative")
	}
	if c.VAD.SampleRate <= 0 {
		return errors.New("vad.sample_rate must be positive")
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	if c.Transcribe.ChunkMinutes <= 0 {
		return errors.New("transcribe.chunk_minutes must be positive")
	}
	if c.Transcribe.OverlapSeconds < 0 {
		return errors.New("transcribe.overlap_seconds must not be negative")
	}
	if c.Transcribe.OverlapSeconds >= c.Transcribe.ChunkMinutes*60 {
		return errors.New("transcribe.overlap_seconds must be shorter than the chunk duration")
	}
	if c.Clients.UseFakes {
		return nil
	}
	if c.Transcribe.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/catchup/config.toml"
		}
		return fmt.Errorf("transcribe.api_key is required when clients.use_fakes is false. Set MISTRAL_API_KEY env var or edit %s (create with 'catchup config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateSummarize() error {
	switch c.Summarize.Backend {
	case "openai", "gemini":
	default:
		return fmt.Errorf("summarize.backend must be \"openai\" or \"gemini\", got %q", c.Summarize.Backend)
	}
	if c.Clients.UseFakes {
		return nil
	}
	switch c.Summarize.Backend {
	case "openai":
		if c.Summarize.APIKey == "" {
			return errors.New("summarize.api_key is required when clients.use_fakes is false. Set MISTRAL_API_KEY env var or the config value")
		}
	case "gemini":
		if len(c.Summarize.GeminiAPIKeys) == 0 {
			return errors.New("summarize.gemini_api_keys is required for the gemini backend. Set GEMINI_API_KEY env var or the config value")
		}
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.TimeoutSeconds <= 0 {
		return errors.New("download.timeout_seconds must be positive")
	}
	if !c.Clients.UseFakes && strings.TrimSpace(c.Paths.CookiesPath) == "" {
		return errors.New("paths.cookies_path must be set when clients.use_fakes is false")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
}
