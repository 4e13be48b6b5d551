package pipeline

import (
	"errors"
	"log/slog"
	"time"

	"tactile/internal/braille"
	"tactile/internal/config"
	"tactile/internal/fetch"
	"tactile/internal/media"
	"tactile/internal/notifications"
	"tactile/internal/objectstore"
	"tactile/internal/polling"
	"tactile/internal/retry"
	"tactile/internal/transcribe"
)

// Stage names as they appear in logs, progress events, and error detail.
const (
	StagePreflight  = "preflight"
	StageFetch      = "fetch"
	StageExtract    = "extract"
	StageUpload     = "upload"
	StageTranscribe = "transcribe"
	StageTransform  = "transform"
	StageWrite      = "write"
)

// Dependencies holds the collaborators a run drives. Fetcher may be nil when
// remote-URL input is not supported.
type Dependencies struct {
	Extractor   media.Extractor
	Fetcher     fetch.Fetcher
	Store       objectstore.Store
	Transcriber transcribe.Service
	Converter   *braille.Converter
	Notifier    notifications.Service
}

func (d Dependencies) validate() error {
	if d.Extractor == nil {
		return errors.New("pipeline: extractor is required")
	}
	if d.Store == nil {
		return errors.New("pipeline: object store is required")
	}
	if d.Transcriber == nil {
		return errors.New("pipeline: transcriber is required")
	}
	if d.Converter == nil {
		return errors.New("pipeline: converter is required")
	}
	return nil
}

// Orchestrator sequences one conversion run end to end. It is safe for
// concurrent use; every run isolates its artifacts under a unique run ID.
type Orchestrator struct {
	logger   *slog.Logger
	deps     Dependencies
	workDir  string
	prefix   string
	policy   retry.Policy
	pollSpec polling.Spec

	retryOpts []retry.Option
	pollOpts  []polling.Option
	clock     func() time.Time
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithRetryOptions forwards options to every retry executor the run uses.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(o *Orchestrator) {
		o.retryOpts = append(o.retryOpts, opts...)
	}
}

// WithPollingOptions forwards options to the transcription poller.
func WithPollingOptions(opts ...polling.Option) Option {
	return func(o *Orchestrator) {
		o.pollOpts = append(o.pollOpts, opts...)
	}
}

// WithClock overrides the wall clock used for stage timing.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.clock = now
		}
	}
}

// New constructs an orchestrator from configuration and collaborators.
func New(cfg *config.Config, logger *slog.Logger, deps Dependencies, opts ...Option) (*Orchestrator, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService("", 0)
	}

	o := &Orchestrator{
		logger:  logger,
		deps:    deps,
		workDir: cfg.Paths.WorkDir,
		prefix:  cfg.ObjectStore.KeyPrefix,
		policy: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
			Multiplier:  cfg.Retry.Multiplier,
		},
		pollSpec: polling.Spec{
			Interval:         time.Duration(cfg.Transcriber.PollIntervalSeconds) * time.Second,
			TransientBackoff: time.Duration(cfg.Transcriber.TransientBackoffSeconds) * time.Second,
			Timeout:          time.Duration(cfg.Transcriber.TimeoutMinutes) * time.Minute,
		},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}
