package ledger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"tactile/internal/logging"
	"tactile/internal/services"
)

// Kind identifies the release action an artifact requires.
type Kind string

const (
	KindLocalFile    Kind = "local_file"
	KindRemoteObject Kind = "remote_object"
	KindRemoteJob    Kind = "remote_job"
)

// Artifact is an ephemeral resource owned by a single pipeline run.
type Artifact struct {
	Kind      Kind
	Ref       string
	CreatedAt time.Time
}

// Releasers holds the remote delete callbacks. Local files are removed
// directly from the filesystem.
type Releasers struct {
	RemoteObject func(ctx context.Context, ref string) error
	RemoteJob    func(ctx context.Context, ref string) error
}

// Ledger tracks every ephemeral artifact a run creates and releases them all,
// best effort, in reverse registration order. ReleaseAll never fails the run:
// individual release errors are logged as warnings and skipped.
type Ledger struct {
	mu        sync.Mutex
	logger    *slog.Logger
	releasers Releasers
	artifacts []Artifact
	released  bool
}

// New constructs a ledger. A nil logger is replaced with a no-op logger.
func New(logger *slog.Logger, releasers Releasers) *Ledger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ledger{
		logger:    logging.NewComponentLogger(logger, "ledger"),
		releasers: releasers,
	}
}

// Register records an artifact for later release. Registration after
// ReleaseAll is rejected silently; the caller's run is already over.
func (l *Ledger) Register(artifact Artifact) {
	if artifact.Ref == "" {
		return
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		l.logger.Warn("artifact registered after release",
			logging.String("kind", string(artifact.Kind)),
			logging.String("ref", artifact.Ref))
		return
	}
	l.artifacts = append(l.artifacts, artifact)
}

// Len reports the number of registered artifacts.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.artifacts)
}

// ReleaseAll attempts to release every registered artifact in reverse
// registration order. It is idempotent; a second call performs no deletions.
func (l *Ledger) ReleaseAll(ctx context.Context) {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	artifacts := l.artifacts
	l.mu.Unlock()

	for i := len(artifacts) - 1; i >= 0; i-- {
		l.release(ctx, artifacts[i])
	}
}

func (l *Ledger) release(ctx context.Context, artifact Artifact) {
	var err error
	switch artifact.Kind {
	case KindLocalFile:
		err = os.Remove(artifact.Ref)
		if err != nil && os.IsNotExist(err) {
			err = nil
		}
	case KindRemoteObject:
		if l.releasers.RemoteObject != nil {
			err = l.releasers.RemoteObject(ctx, artifact.Ref)
		}
	case KindRemoteJob:
		if l.releasers.RemoteJob != nil {
			err = l.releasers.RemoteJob(ctx, artifact.Ref)
		}
	default:
		l.logger.Warn("unknown artifact kind", logging.String("kind", string(artifact.Kind)))
		return
	}

	if err != nil {
		// Already-gone resources are not worth a warning.
		if errors.Is(err, services.ErrNotFound) {
			l.logger.Debug("artifact already released",
				logging.String("kind", string(artifact.Kind)),
				logging.String("ref", artifact.Ref))
			return
		}
		l.logger.Warn("artifact release failed",
			logging.String("kind", string(artifact.Kind)),
			logging.String("ref", artifact.Ref),
			logging.Error(err))
		return
	}
	l.logger.Debug("artifact released",
		logging.String("kind", string(artifact.Kind)),
		logging.String("ref", artifact.Ref))
}
