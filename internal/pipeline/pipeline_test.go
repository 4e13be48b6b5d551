package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"tactile/internal/braille"
	"tactile/internal/config"
	"tactile/internal/logging"
	"tactile/internal/objectstore"
	"tactile/internal/pipeline"
	"tactile/internal/polling"
	"tactile/internal/retry"
	"tactile/internal/services"
	"tactile/internal/testsupport"
)

type fakeExtractor struct {
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, _, dest string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte("fake-wav"), 0o644)
}

type fakeStore struct {
	mu      sync.Mutex
	putErrs []error
	puts    int
	uri     string
	deleted []string
}

func (f *fakeStore) Put(_ context.Context, localPath, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if len(f.putErrs) > 0 {
		err := f.putErrs[0]
		f.putErrs = f.putErrs[1:]
		if err != nil {
			return "", err
		}
	}
	f.uri = objectstore.FormatURI("test-bucket", prefix+"/"+filepath.Base(localPath))
	return f.uri, nil
}

func (f *fakeStore) Delete(_ context.Context, uri string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uri)
	return nil
}

type fakeTranscriber struct {
	mu            sync.Mutex
	statuses      []polling.Status
	failureReason string
	transcript    string
	submits       int
	fetches       int
	deletedJobs   []string
}

func (f *fakeTranscriber) Submit(_ context.Context, jobName, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	return jobName + "-id", nil
}

func (f *fakeTranscriber) GetStatus(_ context.Context, _ string) (polling.Status, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return polling.StatusCompleted, "", nil
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	if status == polling.StatusFailed {
		return status, f.failureReason, nil
	}
	return status, "", nil
}

func (f *fakeTranscriber) FetchTranscript(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.transcript, nil
}

func (f *fakeTranscriber) Delete(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedJobs = append(f.deletedJobs, jobID)
	return nil
}

type fakeTransformer struct {
	output string
	err    error
	calls  int
}

func (f *fakeTransformer) Transform(context.Context, string, braille.Mode) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

type testRig struct {
	cfg         *config.Config
	extractor   *fakeExtractor
	store       *fakeStore
	transcriber *fakeTranscriber
	transformer *fakeTransformer
	delays      []time.Duration
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	return &testRig{
		cfg:         testsupport.NewConfig(t, testsupport.WithRetry(3, 10)),
		extractor:   &fakeExtractor{},
		store:       &fakeStore{},
		transcriber: &fakeTranscriber{transcript: "hello world"},
		transformer: &fakeTransformer{},
	}
}

func (r *testRig) orchestrator(t *testing.T) *pipeline.Orchestrator {
	t.Helper()
	logger := logging.NewNop()
	deps := pipeline.Dependencies{
		Extractor:   r.extractor,
		Store:       r.store,
		Transcriber: r.transcriber,
		Converter:   braille.NewConverter(r.transformer, logger),
	}
	orch, err := pipeline.New(r.cfg, logger, deps,
		pipeline.WithRetryOptions(retry.WithSleeper(func(d time.Duration) {
			r.delays = append(r.delays, d)
		})),
		pipeline.WithPollingOptions(polling.WithSleeper(func(time.Duration) {})),
	)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return orch
}

func (r *testRig) inputFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp4")
	testsupport.WriteFile(t, path, 256)
	return path
}

func (r *testRig) outputPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(r.cfg.Paths.OutputDir, "talk.txt")
}

func TestRunLiteralModeProducesCellOutput(t *testing.T) {
	rig := newRig(t)
	rig.transformer.output = "⠓⠑⠇⠇⠕⠀⠺⠕⠗⠇⠙"

	orch := rig.orchestrator(t)
	outputPath := rig.outputPath(t)
	result, err := orch.Run(context.Background(), rig.inputFile(t), outputPath, braille.ModeLiteral)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected run ID")
	}
	if result.OutputPath != outputPath {
		t.Fatalf("unexpected output path: %q", result.OutputPath)
	}
	if result.TranscriptChars != len([]rune("hello world")) {
		t.Fatalf("unexpected transcript length: %d", result.TranscriptChars)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty output")
	}
	for _, r := range string(data) {
		if !braille.InCellRange(r) {
			t.Fatalf("output rune %q outside cell range", r)
		}
	}

	wantStages := []string{"preflight", "extract", "upload", "transcribe", "transform", "write"}
	if len(result.Stages) != len(wantStages) {
		t.Fatalf("unexpected stage count: %d", len(result.Stages))
	}
	for i, timing := range result.Stages {
		if timing.Name != wantStages[i] {
			t.Fatalf("stage %d = %q, want %q", i, timing.Name, wantStages[i])
		}
	}

	if len(rig.store.deleted) != 1 || rig.store.deleted[0] != rig.store.uri {
		t.Fatalf("expected uploaded object released, got %v", rig.store.deleted)
	}
	if len(rig.transcriber.deletedJobs) != 1 {
		t.Fatalf("expected transcription job released, got %v", rig.transcriber.deletedJobs)
	}
	if strings.Contains(rig.transcriber.deletedJobs[0], result.RunID) == false {
		t.Fatalf("job id %q should embed run id %q", rig.transcriber.deletedJobs[0], result.RunID)
	}
	if _, err := os.Stat(filepath.Join(rig.cfg.Paths.WorkDir, result.RunID)); !os.IsNotExist(err) {
		t.Fatalf("expected run work directory removed, stat err = %v", err)
	}
}

func TestRunSucceedsWhenTransformAlwaysFails(t *testing.T) {
	rig := newRig(t)
	rig.transformer.err = errors.New("model overloaded")

	orch := rig.orchestrator(t)
	outputPath := rig.outputPath(t)
	if _, err := orch.Run(context.Background(), rig.inputFile(t), outputPath, braille.ModeLiteral); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := braille.Transliterate("hello world")
	if string(data) != want {
		t.Fatalf("expected deterministic fallback %q, got %q", want, string(data))
	}
	if len([]rune(string(data))) != len([]rune("hello world")) {
		t.Fatal("fallback output must preserve input length")
	}
}

func TestRunOptimizedModeFallsBackToTranscript(t *testing.T) {
	rig := newRig(t)
	rig.transformer.err = errors.New("model overloaded")

	orch := rig.orchestrator(t)
	outputPath := rig.outputPath(t)
	if _, err := orch.Run(context.Background(), rig.inputFile(t), outputPath, braille.ModeOptimized); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("expected original transcript, got %q", string(data))
	}
}

func TestRunJobFailureReleasesArtifactsAndReportsReason(t *testing.T) {
	rig := newRig(t)
	rig.transcriber.statuses = []polling.Status{polling.StatusFailed}
	rig.transcriber.failureReason = "unsupported codec"

	orch := rig.orchestrator(t)
	outputPath := rig.outputPath(t)
	_, err := orch.Run(context.Background(), rig.inputFile(t), outputPath, braille.ModeLiteral)
	if err == nil {
		t.Fatal("expected transcription failure")
	}
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported codec") {
		t.Fatalf("expected failure reason in error, got %v", err)
	}

	if len(rig.store.deleted) != 1 {
		t.Fatalf("expected uploaded object released, got %v", rig.store.deleted)
	}
	if len(rig.transcriber.deletedJobs) != 1 {
		t.Fatalf("expected job released, got %v", rig.transcriber.deletedJobs)
	}
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Fatalf("no output should be written on failure, stat err = %v", statErr)
	}
}

func TestRunRetriesTransientUploadWithBackoff(t *testing.T) {
	rig := newRig(t)
	transient := services.Wrap(services.ErrTransient, "upload", "put object", "connection reset", nil)
	rig.store.putErrs = []error{transient, transient, nil}
	rig.transformer.output = braille.Transliterate("hello world")

	orch := rig.orchestrator(t)
	result, err := orch.Run(context.Background(), rig.inputFile(t), rig.outputPath(t), braille.ModeLiteral)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if rig.store.puts != 3 {
		t.Fatalf("expected 3 upload attempts, got %d", rig.store.puts)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(rig.delays) != len(want) {
		t.Fatalf("expected %d backoff delays, got %v", len(want), rig.delays)
	}
	for i, d := range want {
		if rig.delays[i] != d {
			t.Fatalf("delay %d = %v, want %v", i, rig.delays[i], d)
		}
	}
	if len(rig.store.deleted) != 1 || rig.store.deleted[0] != rig.store.uri {
		t.Fatalf("expected final uri released, got %v", rig.store.deleted)
	}
	if result.OutputPath == "" {
		t.Fatal("expected output path on success")
	}
}

func TestRunFatalUploadAbortsWithoutRetry(t *testing.T) {
	rig := newRig(t)
	rig.store.putErrs = []error{services.Wrap(services.ErrAuth, "upload", "put object", "access denied", nil)}

	orch := rig.orchestrator(t)
	_, err := orch.Run(context.Background(), rig.inputFile(t), rig.outputPath(t), braille.ModeLiteral)
	if err == nil {
		t.Fatal("expected upload failure")
	}
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if rig.store.puts != 1 {
		t.Fatalf("fatal error should not be retried, got %d attempts", rig.store.puts)
	}
	if len(rig.delays) != 0 {
		t.Fatalf("expected no backoff delays, got %v", rig.delays)
	}
	// Nothing was uploaded, so only the local audio file needed release.
	if len(rig.store.deleted) != 0 {
		t.Fatalf("nothing to release remotely, got %v", rig.store.deleted)
	}
}

func TestRunMissingInputFailsBeforeRemoteCalls(t *testing.T) {
	rig := newRig(t)

	orch := rig.orchestrator(t)
	_, err := orch.Run(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"), rig.outputPath(t), braille.ModeLiteral)
	if err == nil {
		t.Fatal("expected input error")
	}
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if rig.extractor.calls != 0 || rig.store.puts != 0 || rig.transcriber.submits != 0 {
		t.Fatal("no stage should run after preflight failure")
	}
}

func TestRunCancellationDuringPollStillCleansUp(t *testing.T) {
	rig := newRig(t)
	rig.transcriber.statuses = []polling.Status{polling.StatusInProgress}

	ctx, cancel := context.WithCancel(context.Background())
	logger := logging.NewNop()
	deps := pipeline.Dependencies{
		Extractor:   rig.extractor,
		Store:       rig.store,
		Transcriber: rig.transcriber,
		Converter:   braille.NewConverter(rig.transformer, logger),
	}
	orch, err := pipeline.New(rig.cfg, logger, deps,
		pipeline.WithPollingOptions(polling.WithSleeper(func(time.Duration) { cancel() })),
	)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	_, err = orch.Run(ctx, rig.inputFile(t), rig.outputPath(t), braille.ModeLiteral)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(rig.store.deleted) != 1 {
		t.Fatalf("expected uploaded object released after cancellation, got %v", rig.store.deleted)
	}
	if len(rig.transcriber.deletedJobs) != 1 {
		t.Fatalf("expected job released after cancellation, got %v", rig.transcriber.deletedJobs)
	}
}
