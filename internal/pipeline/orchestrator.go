package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/apply-pilot/internal/platform"
	"github.com/jonathan/apply-pilot/internal/store"
)

// DefaultCollaboratorTimeout bounds a single form filler or tailor call.
const DefaultCollaboratorTimeout = 3 * time.Minute

// Config holds orchestrator dependencies. Store and Registry are required;
// Tailor and Screening may be nil when those steps are disabled.
type Config struct {
	Store     store.Store
	Registry  *Registry
	Tailor    ResumeTailor
	Screening ScreeningResolver
	Logger    *zap.SugaredLogger

	// CollaboratorTimeout bounds each collaborator call. Zero means
	// DefaultCollaboratorTimeout.
	CollaboratorTimeout time.Duration

	// DefaultResume is attached when a job has no tailored resume_path.
	DefaultResume string
}

// Orchestrator enacts single state transitions. At most one transition per
// job is in flight at a time: concurrent callers get ErrJobBusy. The busy
// lock is held across the collaborator call so a slow fill cannot race an
// operator action on the same job.
type Orchestrator struct {
	store     store.Store
	registry  *Registry
	tailor    ResumeTailor
	screening ScreeningResolver
	log       *zap.SugaredLogger

	timeout       time.Duration
	defaultResume string

	mu   sync.Mutex
	busy map[uuid.UUID]struct{}
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	timeout := cfg.CollaboratorTimeout
	if timeout <= 0 {
		timeout = DefaultCollaboratorTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		store:         cfg.Store,
		registry:      cfg.Registry,
		tailor:        cfg.Tailor,
		screening:     cfg.Screening,
		log:           log,
		timeout:       timeout,
		defaultResume: cfg.DefaultResume,
		busy:          make(map[uuid.UUID]struct{}),
	}
}

// acquire takes the per-job busy lock. The second caller for the same job
// fails instead of queueing: an operator watching a stuck job should see
// ErrJobBusy, not a silent pile-up.
func (o *Orchestrator) acquire(id uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, inFlight := o.busy[id]; inFlight {
		return fmt.Errorf("%w: %s", ErrJobBusy, id)
	}
	o.busy[id] = struct{}{}
	return nil
}

func (o *Orchestrator) release(id uuid.UUID) {
	o.mu.Lock()
	delete(o.busy, id)
	o.mu.Unlock()
}

// Approve moves a scraped job into the approved queue.
func (o *Orchestrator) Approve(ctx context.Context, id uuid.UUID) (*store.JobRecord, error) {
	return o.transition(ctx, id, func(r *store.JobRecord) error {
		if r.State != store.StateScraped {
			return fmt.Errorf("%w: approve requires scraped, job is %s", store.ErrInvalidTransition, r.State)
		}
		r.State = store.StateApproved
		r.LastError = ""
		return nil
	})
}

// Skip marks a not-yet-processed job as skipped.
func (o *Orchestrator) Skip(ctx context.Context, id uuid.UUID) (*store.JobRecord, error) {
	return o.transition(ctx, id, func(r *store.JobRecord) error {
		if r.State != store.StateScraped && r.State != store.StateApproved {
			return fmt.Errorf("%w: skip requires scraped or approved, job is %s", store.ErrInvalidTransition, r.State)
		}
		r.State = store.StateSkipped
		return nil
	})
}

// Reject marks any non-terminal job as rejected.
func (o *Orchestrator) Reject(ctx context.Context, id uuid.UUID, reason string) (*store.JobRecord, error) {
	return o.transition(ctx, id, func(r *store.JobRecord) error {
		if r.State.Terminal() {
			return fmt.Errorf("%w: job is already %s", store.ErrInvalidTransition, r.State)
		}
		r.State = store.StateRejected
		if reason != "" {
			r.LastError = reason
		}
		return nil
	})
}

// transition runs a guarded store update under the busy lock.
func (o *Orchestrator) transition(ctx context.Context, id uuid.UUID, mutate func(*store.JobRecord) error) (*store.JobRecord, error) {
	if err := o.acquire(id); err != nil {
		return nil, err
	}
	defer o.release(id)
	return o.store.Update(ctx, id, mutate)
}

// Tailor invokes the resume tailor for an approved or ready job and records
// the artifact path. The job's state does not change; re-tailoring a ready
// job replaces its resume.
func (o *Orchestrator) Tailor(ctx context.Context, id uuid.UUID) (*store.JobRecord, error) {
	if err := o.acquire(id); err != nil {
		return nil, err
	}
	defer o.release(id)

	job, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.State != store.StateApproved && job.State != store.StateReady {
		return nil, fmt.Errorf("%w: tailor requires approved or ready, job is %s", store.ErrInvalidTransition, job.State)
	}
	if o.tailor == nil {
		return nil, fmt.Errorf("no resume tailor configured")
	}

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	resumePath, tailorErr := o.tailor.Tailor(cctx, job.JDText, job.RoleTitle, job.Company)
	cancel()

	if tailorErr != nil {
		failure := &CollaboratorError{Collaborator: "resume tailor", Cause: tailorErr}
		rec, uerr := o.store.Update(ctx, id, func(r *store.JobRecord) error {
			r.LastError = failure.Error()
			return nil
		})
		if uerr != nil {
			return nil, uerr
		}
		return rec, failure
	}

	o.log.Infow("Resume tailored", "job", id, "resume", resumePath)
	return o.store.Update(ctx, id, func(r *store.JobRecord) error {
		r.ResumePath = resumePath
		r.LastError = ""
		return nil
	})
}

// Fill runs the form filler for an approved job. On success the job becomes
// ready for review, or submitted when autoSubmit is set. On collaborator
// failure the job stays approved with attempt_count incremented and
// last_error recorded, and the returned error wraps CollaboratorError.
func (o *Orchestrator) Fill(ctx context.Context, id uuid.UUID, autoSubmit bool) (*store.JobRecord, error) {
	if err := o.acquire(id); err != nil {
		return nil, err
	}
	defer o.release(id)

	job, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.State != store.StateApproved {
		return nil, fmt.Errorf("%w: fill requires approved, job is %s", store.ErrInvalidTransition, job.State)
	}

	handler, job, err := o.resolveHandler(ctx, job)
	if err != nil {
		return nil, err
	}

	fc := o.fillContext(job)
	success := store.StateReady

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	res, fillErr := handler.Fill(cctx, fc)
	if fillErr == nil && autoSubmit {
		success = store.StateSubmitted
		res, fillErr = handler.Submit(cctx, fc)
	}
	cancel()

	return o.recordAttempt(ctx, job, "form filler", success, res, fillErr)
}

// Submit submits a ready job. The form is filled again first: browser state
// does not survive between invocations. On failure the job stays ready.
func (o *Orchestrator) Submit(ctx context.Context, id uuid.UUID) (*store.JobRecord, error) {
	if err := o.acquire(id); err != nil {
		return nil, err
	}
	defer o.release(id)

	job, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.State != store.StateReady {
		return nil, fmt.Errorf("%w: submit requires ready, job is %s", store.ErrInvalidTransition, job.State)
	}

	handler, job, err := o.resolveHandler(ctx, job)
	if err != nil {
		return nil, err
	}

	fc := o.fillContext(job)

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	res, submitErr := handler.Fill(cctx, fc)
	if submitErr == nil {
		res, submitErr = handler.Submit(cctx, fc)
	}
	cancel()

	return o.recordAttempt(ctx, job, "form filler", store.StateSubmitted, res, submitErr)
}

// resolveHandler detects the job's platform if it was never set and looks up
// the registered handler. Unknown or unregistered platforms fail with
// ErrUnsupportedPlatform before any browser work and without touching
// attempt_count.
func (o *Orchestrator) resolveHandler(ctx context.Context, job *store.JobRecord) (FormFiller, *store.JobRecord, error) {
	if job.Platform == "" || !platform.Valid(job.Platform) {
		detected := platform.Detect(job.URL)
		updated, err := o.store.Update(ctx, job.ID, func(r *store.JobRecord) error {
			r.Platform = detected
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
		job = updated
	}

	if job.Platform == platform.Unknown {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, job.URL)
	}
	handler, ok := o.registry.Handler(job.Platform)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, job.Platform)
	}
	return handler, job, nil
}

func (o *Orchestrator) fillContext(job *store.JobRecord) *FillContext {
	resumePath := job.ResumePath
	if resumePath == "" {
		resumePath = o.defaultResume
	}
	fc := &FillContext{Job: job, ResumePath: resumePath}
	if o.screening != nil {
		fc.Answers = o.screening.ForJob(job)
	}
	return fc
}

// recordAttempt persists the outcome of one fill/submit attempt. Exactly one
// attempt_count increment per attempt, success or not.
func (o *Orchestrator) recordAttempt(ctx context.Context, job *store.JobRecord, collaborator string, success store.State, res *FillResult, cause error) (*store.JobRecord, error) {
	var screenshot string
	if res != nil {
		screenshot = res.ScreenshotRef
	}

	if cause != nil {
		failure := &CollaboratorError{Collaborator: collaborator, Cause: cause}
		o.log.Warnw("Attempt failed",
			"job", job.ID, "company", job.Company, "state", job.State, "error", cause)
		rec, uerr := o.store.Update(ctx, job.ID, func(r *store.JobRecord) error {
			r.AttemptCount++
			r.LastError = failure.Error()
			if screenshot != "" {
				r.ScreenshotRef = screenshot
			}
			return nil
		})
		if uerr != nil {
			return nil, uerr
		}
		return rec, failure
	}

	o.log.Infow("Attempt succeeded",
		"job", job.ID, "company", job.Company, "to", success)
	return o.store.Update(ctx, job.ID, func(r *store.JobRecord) error {
		r.State = success
		r.AttemptCount++
		r.LastError = ""
		if screenshot != "" {
			r.ScreenshotRef = screenshot
		}
		return nil
	})
}
