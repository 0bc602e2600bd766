// Package scheduler walks the approved queue and drives fills, either as a
// single tick or as a long-running daemon loop.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/apply-pilot/internal/pipeline"
	"github.com/jonathan/apply-pilot/internal/store"
)

const (
	DefaultMaxPerRun = 5
	DefaultJobDelay  = 30 * time.Second
	DefaultInterval  = 15 * time.Minute
)

// Policy bounds automatic processing. MaxAttempts > 0 rejects a job once its
// attempt count reaches the limit; 0 leaves retries unbounded.
type Policy struct {
	MaxAttempts int
}

// Options configures a scheduler run.
type Options struct {
	// MaxPerRun caps jobs processed per tick. Zero means DefaultMaxPerRun.
	MaxPerRun int
	// JobDelay is the minimum spacing between jobs within a tick.
	// Zero means DefaultJobDelay.
	JobDelay time.Duration
	// AutoSubmit submits immediately after a successful fill.
	AutoSubmit bool
	// Tailor generates a tailored resume before filling when the job has none.
	Tailor bool
	// DryRun logs the would-be actions without touching collaborators or
	// records.
	DryRun bool
	Policy Policy
}

func (o Options) maxPerRun() int {
	if o.MaxPerRun <= 0 {
		return DefaultMaxPerRun
	}
	return o.MaxPerRun
}

func (o Options) jobDelay() time.Duration {
	if o.JobDelay <= 0 {
		return DefaultJobDelay
	}
	return o.JobDelay
}

// TickResult summarizes one pass over the approved queue.
type TickResult struct {
	Considered   int
	Attempted    int
	Succeeded    int
	Failed       int
	AutoRejected int
}

// Scheduler processes approved jobs through the pipeline.
type Scheduler struct {
	store   store.Store
	orch    *pipeline.Orchestrator
	opts    Options
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

func New(st store.Store, orch *pipeline.Orchestrator, opts Options, log *zap.SugaredLogger) *Scheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scheduler{
		store:   st,
		orch:    orch,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.jobDelay()), 1),
		log:     log,
	}
}

// Tick processes up to MaxPerRun approved jobs, oldest first. Jobs that fail
// stay approved for the next tick; the stop signal is honored between jobs,
// never mid-transition.
func (s *Scheduler) Tick(ctx context.Context) (*TickResult, error) {
	jobs, err := s.store.List(ctx, store.Filter{State: store.StateApproved})
	if err != nil {
		return nil, fmt.Errorf("failed to list approved jobs: %w", err)
	}

	res := &TickResult{Considered: len(jobs)}
	for _, job := range jobs {
		if res.Attempted+res.AutoRejected >= s.opts.maxPerRun() {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if s.opts.Policy.MaxAttempts > 0 && job.AttemptCount >= s.opts.Policy.MaxAttempts {
			if err := s.autoReject(ctx, job); err != nil {
				return res, err
			}
			res.AutoRejected++
			continue
		}

		if s.opts.DryRun {
			s.log.Infow("Would process job (dry run)",
				"id", job.ID, "company", job.Company, "role", job.RoleTitle,
				"platform", job.Platform, "attempts", job.AttemptCount)
			res.Attempted++
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return res, err
		}

		res.Attempted++
		if s.processJob(ctx, job) {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	return res, nil
}

// processJob tailors (when asked) and fills one job. Returns false on any
// failure; the orchestrator has already persisted the attempt outcome.
func (s *Scheduler) processJob(ctx context.Context, job *store.JobRecord) bool {
	if s.opts.Tailor && job.ResumePath == "" {
		if _, err := s.orch.Tailor(ctx, job.ID); err != nil {
			s.log.Warnw("Tailoring failed", "id", job.ID, "company", job.Company, "error", err)
			return false
		}
	}

	updated, err := s.orch.Fill(ctx, job.ID, s.opts.AutoSubmit)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnsupportedPlatform) {
			s.log.Warnw("Skipping unsupported platform", "id", job.ID, "url", job.URL)
		} else {
			s.log.Warnw("Fill failed", "id", job.ID, "company", job.Company, "error", err)
		}
		return false
	}

	s.log.Infow("Job processed",
		"id", updated.ID, "company", updated.Company, "role", updated.RoleTitle,
		"state", updated.State, "attempts", updated.AttemptCount)
	return true
}

func (s *Scheduler) autoReject(ctx context.Context, job *store.JobRecord) error {
	reason := fmt.Sprintf("gave up after %d attempts", job.AttemptCount)
	if job.LastError != "" {
		reason = fmt.Sprintf("%s: %s", reason, job.LastError)
	}
	if _, err := s.orch.Reject(ctx, job.ID, reason); err != nil {
		return fmt.Errorf("failed to reject exhausted job %s: %w", job.ID, err)
	}
	s.log.Infow("Rejected exhausted job", "id", job.ID, "company", job.Company, "attempts", job.AttemptCount)
	return nil
}

// Run ticks immediately and then on every interval until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := s.Tick(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			s.log.Errorw("Tick failed", "error", err)
		} else {
			s.log.Infow("Tick complete",
				"considered", res.Considered, "attempted", res.Attempted,
				"succeeded", res.Succeeded, "failed", res.Failed,
				"auto_rejected", res.AutoRejected)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
