package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateObjectStore(); err != nil {
		return err
	}
	if err := c.validateTranscriber(); err != nil {
		return err
	}
	if err := c.validateTransform(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateObjectStore() error {
	if c.ObjectStore.Endpoint == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/tactile/config.toml"
		}
		return fmt.Errorf("object_store.endpoint is required. Edit %s (create with 'tactile config init')", defaultPath)
	}
	if strings.Contains(c.ObjectStore.Endpoint, "://") {
		return errors.New("object_store.endpoint must be host:port without a scheme; set object_store.use_ssl instead")
	}
	if c.ObjectStore.AccessKey == "" {
		return errors.New("object_store.access_key must be set (or use the TACTILE_STORE_ACCESS_KEY env var)")
	}
	if c.ObjectStore.SecretKey == "" {
		return errors.New("object_store.secret_key must be set (or use the TACTILE_STORE_SECRET_KEY env var)")
	}
	if c.ObjectStore.Bucket == "" {
		return errors.New("object_store.bucket must be set")
	}
	return nil
}

func (c *Config) validateTranscriber() error {
	if c.Transcriber.BaseURL == "" {
		return errors.New("transcriber.base_url must be set")
	}
	if !strings.HasPrefix(c.Transcriber.BaseURL, "http://") && !strings.HasPrefix(c.Transcriber.BaseURL, "https://") {
		return fmt.Errorf("transcriber.base_url must start with http:// or https://, got %q", c.Transcriber.BaseURL)
	}
	if c.Transcriber.TransientBackoffSeconds < c.Transcriber.PollIntervalSeconds {
		return errors.New("transcriber.transient_backoff_seconds must be at least transcriber.poll_interval_seconds")
	}
	return nil
}

func (c *Config) validateTransform() error {
	if c.Transform.APIKey == "" {
		return errors.New("transform.api_key must be set (or use the TACTILE_TRANSFORM_API_KEY env var)")
	}
	if !strings.HasPrefix(c.Transform.BaseURL, "http://") && !strings.HasPrefix(c.Transform.BaseURL, "https://") {
		return fmt.Errorf("transform.base_url must start with http:// or https://, got %q", c.Transform.BaseURL)
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Retry.Multiplier < 1 {
		return errors.New("retry.multiplier must be at least 1")
	}
	return nil
}
