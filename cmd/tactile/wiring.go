package main

import (
	"log/slog"
	"path/filepath"
	"time"

	"tactile/internal/braille"
	"tactile/internal/config"
	"tactile/internal/fetch"
	"tactile/internal/logging"
	"tactile/internal/media"
	"tactile/internal/notifications"
	"tactile/internal/objectstore"
	"tactile/internal/pipeline"
	"tactile/internal/transcribe"
	"tactile/internal/transform"
)

func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		// stdout stays reserved for the run summary.
		OutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "tactile.log")},
	})
}

func buildNotifier(cfg *config.Config) notifications.Service {
	return notifications.NewService(cfg.Notifications.NtfyTopic, time.Duration(cfg.Notifications.RequestTimeout)*time.Second)
}

func buildOrchestrator(cfg *config.Config, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	store, err := objectstore.NewMinioStore(objectstore.Config{
		Endpoint:  cfg.ObjectStore.Endpoint,
		AccessKey: cfg.ObjectStore.AccessKey,
		SecretKey: cfg.ObjectStore.SecretKey,
		Region:    cfg.ObjectStore.Region,
		Bucket:    cfg.ObjectStore.Bucket,
		UseSSL:    cfg.ObjectStore.UseSSL,
	}, logger)
	if err != nil {
		return nil, err
	}

	transcriber := transcribe.NewClient(transcribe.Config{
		BaseURL:      cfg.Transcriber.BaseURL,
		APIKey:       cfg.Transcriber.APIKey,
		LanguageCode: cfg.Transcriber.LanguageCode,
		MediaFormat:  cfg.Transcriber.MediaFormat,
	})

	transformer := transform.NewClient(transform.Config{
		APIKey:         cfg.Transform.APIKey,
		BaseURL:        cfg.Transform.BaseURL,
		Model:          cfg.Transform.Model,
		TimeoutSeconds: cfg.Transform.TimeoutSeconds,
	})

	deps := pipeline.Dependencies{
		Extractor:   media.NewFFmpegExtractor(cfg.Tools.FFmpeg, cfg.Tools.FFprobe),
		Fetcher:     fetch.NewYtDlpFetcher(cfg.Tools.YtDlp, cfg.Paths.WorkDir),
		Store:       store,
		Transcriber: transcriber,
		Converter:   braille.NewConverter(transformer, logger),
		Notifier:    buildNotifier(cfg),
	}
	return pipeline.New(cfg, logger, deps)
}
