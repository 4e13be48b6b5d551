package config

const (
	defaultWorkDir   = "~/.local/share/tactile/work"
	defaultLogDir    = "~/.local/share/tactile/logs"
	defaultOutputDir = "~/tactile-output"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultStoreRegion    = "us-east-1"
	defaultStoreKeyPrefix = "audio"

	defaultTranscriberLanguage         = "en-US"
	defaultTranscriberMediaFormat      = "wav"
	defaultTranscriberPollInterval     = 10
	defaultTranscriberTransientBackoff = 20
	defaultTranscriberTimeoutMinutes   = 30

	defaultTransformBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultTransformModel          = "anthropic/claude-3.5-sonnet"
	defaultTransformTimeoutSeconds = 60

	defaultRetryMaxAttempts = 3
	defaultRetryBaseDelayMS = 1000
	defaultRetryMultiplier  = 2.0

	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		ObjectStore: ObjectStore{
			Region:    defaultStoreRegion,
			KeyPrefix: defaultStoreKeyPrefix,
		},
		Transcriber: Transcriber{
			LanguageCode:            defaultTranscriberLanguage,
			MediaFormat:             defaultTranscriberMediaFormat,
			PollIntervalSeconds:     defaultTranscriberPollInterval,
			TransientBackoffSeconds: defaultTranscriberTransientBackoff,
			TimeoutMinutes:          defaultTranscriberTimeoutMinutes,
		},
		Transform: Transform{
			BaseURL:        defaultTransformBaseURL,
			Model:          defaultTransformModel,
			TimeoutSeconds: defaultTransformTimeoutSeconds,
		},
		Retry: Retry{
			MaxAttempts: defaultRetryMaxAttempts,
			BaseDelayMS: defaultRetryBaseDelayMS,
			Multiplier:  defaultRetryMultiplier,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			YtDlp:   "yt-dlp",
		},
	}
}
