package polling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tactile/internal/logging"
	"tactile/internal/services"
)

// Status models the remote job lifecycle. Submitted and InProgress are
// non-terminal; Completed and Failed are terminal and never re-entered.
type Status string

const (
	StatusSubmitted  Status = "SUBMITTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobFailedError carries the failure reason reported by the remote service.
type JobFailedError struct {
	JobID  string
	Reason string
}

func (e *JobFailedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("job %s failed", e.JobID)
	}
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Reason)
}

func (e *JobFailedError) Unwrap() error { return services.ErrTranscription }

const (
	defaultInterval         = 10 * time.Second
	defaultTransientBackoff = 20 * time.Second
	defaultTimeout          = 30 * time.Minute

	// progressLogEvery spaces out "still in progress" log lines so long jobs
	// do not flood the log at the poll cadence.
	progressLogEvery = 6
)

// Spec drives a single Await call. Immutable per call.
type Spec struct {
	// Interval is the cadence between status checks.
	Interval time.Duration
	// TransientBackoff is the longer delay applied after a status check fails
	// with a transient error. Elapsed time during these backoffs still counts
	// against Timeout.
	TransientBackoff time.Duration
	// Timeout bounds the total wait from the first status check.
	Timeout time.Duration
}

func (s Spec) normalized() Spec {
	if s.Interval <= 0 {
		s.Interval = defaultInterval
	}
	if s.TransientBackoff <= 0 {
		s.TransientBackoff = defaultTransientBackoff
	}
	if s.TransientBackoff < s.Interval {
		s.TransientBackoff = s.Interval
	}
	if s.Timeout <= 0 {
		s.Timeout = defaultTimeout
	}
	return s
}

// FetchStatus reports the job status plus the remote failure reason when the
// status is Failed.
type FetchStatus func(ctx context.Context, jobID string) (Status, string, error)

// Option customizes poller behaviour.
type Option func(*poller)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(p *poller) {
		if now != nil {
			p.now = now
		}
	}
}

// WithSleeper overrides how poll waits are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(p *poller) {
		p.sleeper = sleeper
	}
}

type poller struct {
	now     func() time.Time
	sleeper func(time.Duration)
}

// Await polls fetchStatus until the job reaches a terminal state, then
// retrieves the payload via fetchResult. A transient status-check failure is
// retried after Spec.TransientBackoff rather than failing the job; a remote
// Failed status raises JobFailedError without retry; exceeding Spec.Timeout
// before a terminal status raises a timeout error and any later completion is
// never observed by the caller.
func Await[T any](ctx context.Context, logger *slog.Logger, jobID string, fetchStatus FetchStatus, fetchResult func(context.Context) (T, error), spec Spec, opts ...Option) (T, error) {
	var zero T
	spec = spec.normalized()
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &poller{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}

	start := p.now()
	polls := 0
	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		// The timeout gate runs before each status check so a completion that
		// lands after the deadline is never observed by the caller.
		if elapsed := p.now().Sub(start); elapsed > spec.Timeout {
			return zero, timeoutError(jobID, spec.Timeout, lastErr)
		}

		status, reason, err := fetchStatus(ctx, jobID)
		polls++
		elapsed := p.now().Sub(start)

		switch {
		case err != nil && services.IsFatal(err):
			return zero, err
		case err != nil:
			lastErr = err
			logger.Warn("status check failed, backing off",
				logging.String("job_id", jobID),
				logging.Duration("backoff", spec.TransientBackoff),
				logging.Error(err))
			if err := p.sleep(ctx, spec.TransientBackoff); err != nil {
				return zero, err
			}
			continue
		case status == StatusCompleted:
			logger.Info("job completed",
				logging.String("job_id", jobID),
				logging.Duration("elapsed", elapsed))
			return fetchResult(ctx)
		case status == StatusFailed:
			return zero, &JobFailedError{JobID: jobID, Reason: reason}
		}

		if polls%progressLogEvery == 0 {
			logger.Info("job still in progress",
				logging.String("job_id", jobID),
				logging.String("status", string(status)),
				logging.Duration("elapsed", elapsed))
		}
		if err := p.sleep(ctx, spec.Interval); err != nil {
			return zero, err
		}
	}
}

func timeoutError(jobID string, timeout time.Duration, cause error) error {
	if cause != nil {
		return services.Wrap(services.ErrTimeout, "", "await job", fmt.Sprintf("job %s did not finish within %s", jobID, timeout), cause)
	}
	return services.Wrap(services.ErrTimeout, "", "await job", fmt.Sprintf("job %s did not finish within %s", jobID, timeout), nil)
}

func (p *poller) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if p.sleeper != nil {
		p.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
