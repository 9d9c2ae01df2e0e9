package config

const (
	defaultDataDir     = "~/.local/share/catchup/data"
	defaultLogDir      = "~/.local/share/catchup/logs"
	defaultCookiesPath = "~/.config/catchup/cookies.txt"
	defaultAPIBind     = "127.0.0.1:8765"

	defaultWorkerCount = 2
	defaultQueueSize   = 16

	defaultDownloadFormat  = "worstaudio/worst"
	defaultDownloadTimeout = 3600

	defaultVADNoiseDB         = -35.0
	defaultVADMinSilence      = 0.3
	defaultVADPaddingSeconds  = 0.2
	defaultLongSilenceSeconds = 1.6
	defaultKeepSilenceSeconds = 0.35
	defaultVADSampleRate      = 16000

	defaultChunkMinutes      = 15
	defaultOverlapSeconds    = 6
	defaultTranscribeBaseURL = "https://api.mistral.ai/v1"
	defaultTranscribeModel   = "whisper-large-v3"
	defaultTranscribeTimeout = 600

	defaultSummarizeBackend = "openai"
	defaultSummarizeBaseURL = "https://api.mistral.ai/v1"
	defaultSummarizeModel   = "mistral-small-latest"
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultSummarizeTimeout = 300

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults. Fake clients
// are enabled by default so a fresh install can exercise the whole pipeline
// without credentials or external tools.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			CookiesPath: defaultCookiesPath,
			APIBind:     defaultAPIBind,
		},
		Clients: Clients{
			UseFakes: true,
		},
		Workers: Workers{
			Count:     defaultWorkerCount,
			QueueSize: defaultQueueSize,
		},
		Download: Download{
			Format:         defaultDownloadFormat,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		VAD: VAD{
			NoiseDB:            defaultVADNoiseDB,
			MinSilenceSeconds:  defaultVADMinSilence,
			PaddingSeconds:     defaultVADPaddingSeconds,
			LongSilenceSeconds: defaultLongSilenceSeconds,
			KeepSilenceSeconds: defaultKeepSilenceSeconds,
			SampleRate:         defaultVADSampleRate,
		},
		Transcribe: Transcribe{
			ChunkMinutes:   defaultChunkMinutes,
			OverlapSeconds: defaultOverlapSeconds,
			BaseURL:        defaultTranscribeBaseURL,
			Model:          defaultTranscribeModel,
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		Summarize: Summarize{
			Backend:        defaultSummarizeBackend,
			BaseURL:        defaultSummarizeBaseURL,
			Model:          defaultSummarizeModel,
			GeminiModel:    defaultGeminiModel,
			TimeoutSeconds: defaultSummarizeTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
