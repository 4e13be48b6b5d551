package testsupport

import (
	"path/filepath"
	"testing"

	"tactile/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.ObjectStore.Endpoint = "store.test:9000"
	cfgVal.ObjectStore.AccessKey = "test-access"
	cfgVal.ObjectStore.SecretKey = "test-secret"
	cfgVal.ObjectStore.Bucket = "tactile-test"
	cfgVal.Transcriber.BaseURL = "https://transcribe.test"
	cfgVal.Transform.APIKey = "test-key"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTranscriberURL points the test config at a live test server.
func WithTranscriberURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcriber.BaseURL = url
	}
}

// WithTransformURL points the transform stage at a live test server.
func WithTransformURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transform.BaseURL = url
	}
}

// WithRetry overrides the retry policy on the test config.
func WithRetry(maxAttempts, baseDelayMS int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retry.MaxAttempts = maxAttempts
		b.cfg.Retry.BaseDelayMS = baseDelayMS
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
