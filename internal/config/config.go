package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	DropDir      string `toml:"drop_dir"`
	CookiesPath  string `toml:"cookies_path"`
	DatabasePath string `toml:"database_path"`
	APIBind      string `toml:"api_bind"`
}

// Clients selects between real and fake stage client implementations.
// Fakes run the whole pipeline offline with deterministic fixture output.
type Clients struct {
	UseFakes bool `toml:"use_fakes"`
}

// Workers contains configuration for the background job pool.
type Workers struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}

// Download contains configuration for the media downloader.
type Download struct {
	Format         string `toml:"format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// VAD contains configuration for voice activity detection and the
// silence-collapsing policy applied to its output.
type VAD struct {
	// NoiseDB is the silencedetect noise floor in dBFS; audio quieter than
	// this counts as silence.
	NoiseDB            float64 `toml:"noise_db"`
	MinSilenceSeconds  float64 `toml:"min_silence_seconds"`
	PaddingSeconds     float64 `toml:"padding_seconds"`
	LongSilenceSeconds float64 `toml:"long_silence_seconds"`
	KeepSilenceSeconds float64 `toml:"keep_silence_seconds"`
	SampleRate         int     `toml:"sample_rate"`
}

// Transcribe contains configuration for the transcription service and
// chunk planning.
type Transcribe struct {
	ChunkMinutes   int    `toml:"chunk_minutes"`
	OverlapSeconds int    `toml:"overlap_seconds"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Summarize contains configuration for the summarization service.
// Backend selects the provider: "openai" posts to an OpenAI-compatible chat
// completions endpoint, "gemini" uses the Gemini API with key rotation.
type Summarize struct {
	Backend        string   `toml:"backend"`
	BaseURL        string   `toml:"base_url"`
	APIKey         string   `toml:"api_key"`
	Model          string   `toml:"model"`
	GeminiAPIKeys  []string `toml:"gemini_api_keys"`
	GeminiModel    string   `toml:"gemini_model"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Languages contains configuration for per-course language resolution.
type Languages struct {
	// CourseDefaultsPath points to an optional YAML file mapping course codes
	// to default languages, merged over the built-in table.
	CourseDefaultsPath string `toml:"course_defaults_path"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for catchup.
//
// Configuration sections by subsystem:
//   - Paths: output directories, cookies file, database, API bind address
//   - Clients: real vs fake stage client selection
//   - Workers: background job pool sizing
//   - Download: yt-dlp format and timeout
//   - VAD: silence detection floor and silence-collapsing thresholds
//   - Transcribe: chunk planning and transcription API connection
//   - Summarize: summarization backend and API connection
//   - Languages: per-course default language overrides
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Clients       Clients       `toml:"clients"`
	Workers       Workers       `toml:"workers"`
	Download      Download      `toml:"download"`
	VAD           VAD           `toml:"vad"`
	Transcribe    Transcribe    `toml:"transcribe"`
	Summarize     Summarize     `toml:"summarize"`
	Languages     Languages     `toml:"languages"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/catchup/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("catchup.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DropDir) != "" {
		if err := os.MkdirAll(c.Paths.DropDir, 0o755); err != nil {
			return fmt.Errorf("create drop directory %q: %w", c.Paths.DropDir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.DatabasePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogDir returns the daemon log directory.
func (c *Config) LogDir() string {
	return c.Paths.LogDir
}

// YtdlpBinary returns the yt-dlp executable name.
func (c *Config) YtdlpBinary() string {
	return "yt-dlp"
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
