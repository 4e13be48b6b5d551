package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tactile/internal/braille"
	"tactile/internal/fetch"
	"tactile/internal/ledger"
	"tactile/internal/logging"
	"tactile/internal/polling"
	"tactile/internal/retry"
	"tactile/internal/services"
)

// StageTiming records how long one stage took.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// Result summarizes a completed run.
type Result struct {
	RunID           string
	Input           string
	OutputPath      string
	Mode            braille.Mode
	TranscriptChars int
	Stages          []StageTiming
	Duration        time.Duration
}

// Run executes one conversion: extract, upload, transcribe, transform, write.
// Stages run strictly in order; every artifact a stage creates is registered
// with the run's ledger before the next stage starts, and the ledger is
// released on every exit path, cancellation included.
func (o *Orchestrator) Run(ctx context.Context, input, outputPath string, mode braille.Mode) (*Result, error) {
	runID := uuid.NewString()
	started := o.clock()

	ctx = services.WithRunID(ctx, runID)
	logger := o.logger.With(logging.String(logging.FieldRunID, runID))
	logger.Info("run started",
		logging.String("input", input),
		logging.String("mode", string(mode)))

	runDir := filepath.Join(o.workDir, runID)
	defer func() {
		if err := os.Remove(runDir); err != nil && !os.IsNotExist(err) {
			logger.Debug("run directory not empty after release", logging.Error(err))
		}
	}()

	led := ledger.New(logger, ledger.Releasers{
		RemoteObject: o.deps.Store.Delete,
		RemoteJob:    o.deps.Transcriber.Delete,
	})
	// Cleanup must survive cancellation of the run context.
	defer led.ReleaseAll(context.WithoutCancel(ctx))

	if err := o.deps.Notifier.NotifyRunStarted(ctx, runID, input); err != nil {
		logger.Debug("start notification failed", logging.Error(err))
	}

	result := &Result{RunID: runID, Input: input, Mode: mode}
	err := o.execute(ctx, logger, led, runDir, input, outputPath, mode, result)
	result.Duration = o.clock().Sub(started)

	if err != nil {
		logger.Error("run failed", logging.Error(err), logging.Duration("duration", result.Duration))
		if nerr := o.deps.Notifier.NotifyError(ctx, err, "run "+runID); nerr != nil {
			logger.Debug("error notification failed", logging.Error(nerr))
		}
		return nil, err
	}

	result.OutputPath = outputPath
	logger.Info("run completed",
		logging.String("output", outputPath),
		logging.Duration("duration", result.Duration))
	if nerr := o.deps.Notifier.NotifyRunCompleted(ctx, runID, outputPath, result.Duration); nerr != nil {
		logger.Debug("completion notification failed", logging.Error(nerr))
	}
	return result, nil
}

func (o *Orchestrator) execute(ctx context.Context, logger *slog.Logger, led *ledger.Ledger, runDir, input, outputPath string, mode braille.Mode, result *Result) error {
	localInput := input

	err := o.runStage(ctx, logger, result, StagePreflight, func(ctx context.Context) error {
		return o.preflight(ctx, runDir, input, outputPath)
	})
	if err != nil {
		return err
	}

	if fetch.IsRemote(input) {
		err = o.runStage(ctx, logger, result, StageFetch, func(ctx context.Context) error {
			fetched, err := o.deps.Fetcher.Fetch(ctx, input)
			if err != nil {
				return err
			}
			led.Register(ledger.Artifact{Kind: ledger.KindLocalFile, Ref: fetched, CreatedAt: o.clock()})
			localInput = fetched
			return nil
		})
		if err != nil {
			return err
		}
	}

	audioPath := filepath.Join(runDir, "audio.wav")
	err = o.runStage(ctx, logger, result, StageExtract, func(ctx context.Context) error {
		if err := o.deps.Extractor.Extract(ctx, localInput, audioPath); err != nil {
			return err
		}
		led.Register(ledger.Artifact{Kind: ledger.KindLocalFile, Ref: audioPath, CreatedAt: o.clock()})
		return nil
	})
	if err != nil {
		return err
	}

	var mediaURI string
	err = o.runStage(ctx, logger, result, StageUpload, func(ctx context.Context) error {
		uri, err := retry.Do(ctx, logger, o.policy, "upload audio", func(ctx context.Context) (string, error) {
			return o.deps.Store.Put(ctx, audioPath, o.prefix)
		}, o.retryOpts...)
		if err != nil {
			return err
		}
		led.Register(ledger.Artifact{Kind: ledger.KindRemoteObject, Ref: uri, CreatedAt: o.clock()})
		mediaURI = uri
		return nil
	})
	if err != nil {
		return err
	}

	var transcript string
	err = o.runStage(ctx, logger, result, StageTranscribe, func(ctx context.Context) error {
		jobName := "tactile-" + result.RunID
		jobID, err := retry.Do(ctx, logger, o.policy, "submit transcription job", func(ctx context.Context) (string, error) {
			return o.deps.Transcriber.Submit(ctx, jobName, mediaURI)
		}, o.retryOpts...)
		if err != nil {
			return err
		}
		led.Register(ledger.Artifact{Kind: ledger.KindRemoteJob, Ref: jobID, CreatedAt: o.clock()})

		text, err := polling.Await(ctx, logger, jobID, o.deps.Transcriber.GetStatus, func(ctx context.Context) (string, error) {
			return retry.Do(ctx, logger, o.policy, "download transcript", func(ctx context.Context) (string, error) {
				return o.deps.Transcriber.FetchTranscript(ctx, jobID)
			}, o.retryOpts...)
		}, o.pollSpec, o.pollOpts...)
		if err != nil {
			return err
		}
		transcript = text
		result.TranscriptChars = len([]rune(transcript))
		return nil
	})
	if err != nil {
		return err
	}

	var output string
	err = o.runStage(ctx, logger, result, StageTransform, func(ctx context.Context) error {
		output = o.deps.Converter.Convert(ctx, transcript, mode)
		return nil
	})
	if err != nil {
		return err
	}

	return o.runStage(ctx, logger, result, StageWrite, func(ctx context.Context) error {
		if err := os.WriteFile(outputPath, []byte(output), 0o644); err != nil {
			return services.Wrap(services.ErrOutput, StageWrite, "write output", "write converted text", err)
		}
		return nil
	})
}

func (o *Orchestrator) preflight(ctx context.Context, runDir, input, outputPath string) error {
	if fetch.IsRemote(input) {
		if o.deps.Fetcher == nil {
			return services.Wrap(services.ErrInput, StagePreflight, "check input", "remote input support is not configured", nil)
		}
	} else {
		info, err := os.Stat(input)
		if err != nil {
			return services.Wrap(services.ErrInput, StagePreflight, "check input", fmt.Sprintf("input %q is not readable", input), err)
		}
		if info.IsDir() {
			return services.Wrap(services.ErrInput, StagePreflight, "check input", fmt.Sprintf("input %q is a directory", input), nil)
		}
		if info.Size() == 0 {
			return services.Wrap(services.ErrInput, StagePreflight, "check input", fmt.Sprintf("input %q is empty", input), nil)
		}
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrOutput, StagePreflight, "prepare output directory", "create output directory", err)
		}
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return services.Wrap(services.ErrOutput, StagePreflight, "prepare work directory", "create run work directory", err)
	}
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, logger *slog.Logger, result *Result, name string, fn func(context.Context) error) error {
	start := o.clock()
	stageLogger := logger.With(logging.String(logging.FieldStage, name))
	stageLogger.Info("stage started")

	err := fn(logging.WithStage(ctx, name))

	elapsed := o.clock().Sub(start)
	result.Stages = append(result.Stages, StageTiming{Name: name, Duration: elapsed})
	if err != nil {
		stageLogger.Error("stage failed", logging.Duration("elapsed", elapsed), logging.Error(err))
		return err
	}
	stageLogger.Info("stage completed", logging.Duration("elapsed", elapsed))
	return nil
}
