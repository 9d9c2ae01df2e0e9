package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorkers()
	c.normalizeDownload()
	c.normalizeVAD()
	c.normalizeTranscribe()
	c.normalizeSummarize()
	if err := c.normalizeLanguages(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DropDir) != "" {
		if c.Paths.DropDir, err = expandPath(c.Paths.DropDir); err != nil {
			return fmt.Errorf("paths.drop_dir: %w", err)
		}
	} else {
		c.Paths.DropDir = ""
	}
	if c.Paths.CookiesPath, err = expandPath(c.Paths.CookiesPath); err != nil {
		return fmt.Errorf("paths.cookies_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.DataDir, "catchup.db")
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeWorkers() {
	if c.Workers.Count <= 0 {
		c.Workers.Count = defaultWorkerCount
	}
	if c.Workers.QueueSize <= 0 {
		c.Workers.QueueSize = defaultQueueSize
	}
}

func (c *Config) normalizeDownload() {
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultDownloadFormat
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultDownloadTimeout
	}
}

func (c *Config) normalizeVAD() {
	if c.VAD.SampleRate <= 0 {
		c.VAD.SampleRate = defaultVADSampleRate
	}
}

func (c *Config) normalizeTranscribe() {
	c.Transcribe.BaseURL = strings.TrimSpace(c.Transcribe.BaseURL)
	if c.Transcribe.BaseURL == "" {
		c.Transcribe.BaseURL = defaultTranscribeBaseURL
	}
	c.Transcribe.Model = strings.TrimSpace(c.Transcribe.Model)
	if c.Transcribe.Model == "" {
		c.Transcribe.Model = defaultTranscribeModel
	}
	c.Transcribe.APIKey = strings.TrimSpace(c.Transcribe.APIKey)
	if c.Transcribe.APIKey == "" {
		if value, ok := os.LookupEnv("MISTRAL_API_KEY"); ok {
			c.Transcribe.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Transcribe.TimeoutSeconds <= 0 {
		c.Transcribe.TimeoutSeconds = defaultTranscribeTimeout
	}
}

func (c *Config) normalizeSummarize() {
	c.Summarize.Backend = strings.ToLower(strings.TrimSpace(c.Summarize.Backend))
	if c.Summarize.Backend == "" {
		c.Summarize.Backend = defaultSummarizeBackend
	}
	c.Summarize.BaseURL = strings.TrimSpace(c.Summarize.BaseURL)
	if c.Summarize.BaseURL == "" {
		c.Summarize.BaseURL = defaultSummarizeBaseURL
	}
	c.Summarize.Model = strings.TrimSpace(c.Summarize.Model)
	if c.Summarize.Model == "" {
		c.Summarize.Model = defaultSummarizeModel
	}
	c.Summarize.APIKey = strings.TrimSpace(c.Summarize.APIKey)
	if c.Summarize.APIKey == "" {
		if value, ok := os.LookupEnv("MISTRAL_API_KEY"); ok {
			c.Summarize.APIKey = strings.TrimSpace(value)
		}
	}
	keys := make([]string, 0, len(c.Summarize.GeminiAPIKeys))
	for _, key := range c.Summarize.GeminiAPIKeys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	if len(keys) == 0 {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok && strings.TrimSpace(value) != "" {
			keys = append(keys, strings.TrimSpace(value))
		}
	}
	c.Summarize.GeminiAPIKeys = keys
	c.Summarize.GeminiModel = strings.TrimSpace(c.Summarize.GeminiModel)
	if c.Summarize.GeminiModel == "" {
		c.Summarize.GeminiModel = defaultGeminiModel
	}
	if c.Summarize.TimeoutSeconds <= 0 {
		c.Summarize.TimeoutSeconds = defaultSummarizeTimeout
	}
}

func (c *Config) normalizeLanguages() error {
	if strings.TrimSpace(c.Languages.CourseDefaultsPath) == "" {
		c.Languages.CourseDefaultsPath = ""
		return nil
	}
	expanded, err := expandPath(c.Languages.CourseDefaultsPath)
	if err != nil {
		return fmt.Errorf("languages.course_defaults_path: %w", err)
	}
	c.Languages.CourseDefaultsPath = expanded
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
