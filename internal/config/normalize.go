package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeObjectStore()
	c.normalizeTranscriber()
	c.normalizeTransform()
	c.normalizeRetry()
	c.normalizeNotifications()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeObjectStore() {
	if c.ObjectStore.AccessKey == "" {
		if value, ok := os.LookupEnv("TACTILE_STORE_ACCESS_KEY"); ok {
			c.ObjectStore.AccessKey = value
		}
	}
	if c.ObjectStore.SecretKey == "" {
		if value, ok := os.LookupEnv("TACTILE_STORE_SECRET_KEY"); ok {
			c.ObjectStore.SecretKey = value
		}
	}
	c.ObjectStore.Endpoint = strings.TrimSpace(c.ObjectStore.Endpoint)
	c.ObjectStore.AccessKey = strings.TrimSpace(c.ObjectStore.AccessKey)
	c.ObjectStore.SecretKey = strings.TrimSpace(c.ObjectStore.SecretKey)
	c.ObjectStore.Bucket = strings.TrimSpace(c.ObjectStore.Bucket)
	if strings.TrimSpace(c.ObjectStore.Region) == "" {
		c.ObjectStore.Region = defaultStoreRegion
	}
	c.ObjectStore.KeyPrefix = strings.Trim(strings.TrimSpace(c.ObjectStore.KeyPrefix), "/")
	if c.ObjectStore.KeyPrefix == "" {
		c.ObjectStore.KeyPrefix = defaultStoreKeyPrefix
	}
}

func (c *Config) normalizeTranscriber() {
	if c.Transcriber.APIKey == "" {
		if value, ok := os.LookupEnv("TACTILE_TRANSCRIBER_API_KEY"); ok {
			c.Transcriber.APIKey = value
		}
	}
	c.Transcriber.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcriber.BaseURL), "/")
	c.Transcriber.APIKey = strings.TrimSpace(c.Transcriber.APIKey)
	if strings.TrimSpace(c.Transcriber.LanguageCode) == "" {
		c.Transcriber.LanguageCode = defaultTranscriberLanguage
	}
	if strings.TrimSpace(c.Transcriber.MediaFormat) == "" {
		c.Transcriber.MediaFormat = defaultTranscriberMediaFormat
	}
	if c.Transcriber.PollIntervalSeconds <= 0 {
		c.Transcriber.PollIntervalSeconds = defaultTranscriberPollInterval
	}
	if c.Transcriber.TransientBackoffSeconds <= 0 {
		c.Transcriber.TransientBackoffSeconds = defaultTranscriberTransientBackoff
	}
	if c.Transcriber.TimeoutMinutes <= 0 {
		c.Transcriber.TimeoutMinutes = defaultTranscriberTimeoutMinutes
	}
}

func (c *Config) normalizeTransform() {
	if c.Transform.APIKey == "" {
		if value, ok := os.LookupEnv("TACTILE_TRANSFORM_API_KEY"); ok {
			c.Transform.APIKey = value
		}
	}
	c.Transform.APIKey = strings.TrimSpace(c.Transform.APIKey)
	if strings.TrimSpace(c.Transform.BaseURL) == "" {
		c.Transform.BaseURL = defaultTransformBaseURL
	}
	if strings.TrimSpace(c.Transform.Model) == "" {
		c.Transform.Model = defaultTransformModel
	}
	if c.Transform.TimeoutSeconds <= 0 {
		c.Transform.TimeoutSeconds = defaultTransformTimeoutSeconds
	}
}

func (c *Config) normalizeRetry() {
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaultRetryMaxAttempts
	}
	if c.Retry.BaseDelayMS <= 0 {
		c.Retry.BaseDelayMS = defaultRetryBaseDelayMS
	}
	if c.Retry.Multiplier < 1 {
		c.Retry.Multiplier = defaultRetryMultiplier
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = "ffmpeg"
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = "ffprobe"
	}
	if strings.TrimSpace(c.Tools.YtDlp) == "" {
		c.Tools.YtDlp = "yt-dlp"
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
