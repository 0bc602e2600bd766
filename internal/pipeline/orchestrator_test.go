package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-pilot/internal/platform"
	"github.com/jonathan/apply-pilot/internal/store"
)

// stubFiller scripts Fill/Submit outcomes for tests.
type stubFiller struct {
	fillErr    error
	submitErr  error
	screenshot string

	fillCalls   int
	submitCalls int

	// entered is closed once Fill is running; block holds Fill open until
	// closed. Used to provoke ErrJobBusy deterministically.
	entered chan struct{}
	block   chan struct{}
}

func (f *stubFiller) Fill(ctx context.Context, fc *FillContext) (*FillResult, error) {
	f.fillCalls++
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fillErr != nil {
		return &FillResult{ScreenshotRef: f.screenshot}, f.fillErr
	}
	return &FillResult{}, nil
}

func (f *stubFiller) Submit(ctx context.Context, fc *FillContext) (*FillResult, error) {
	f.submitCalls++
	if f.submitErr != nil {
		return &FillResult{ScreenshotRef: f.screenshot}, f.submitErr
	}
	return &FillResult{}, nil
}

type stubTailor struct {
	path string
	err  error
}

func (t *stubTailor) Tailor(ctx context.Context, jdText, roleTitle, company string) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return t.path, nil
}

func newTestOrchestrator(t *testing.T, filler FormFiller) (*Orchestrator, *store.Memory) {
	t.Helper()
	s := store.NewMemory()
	registry := NewRegistry()
	if filler != nil {
		registry.Register(platform.Lever, filler)
	}
	o := New(Config{
		Store:    s,
		Registry: registry,
		Tailor:   &stubTailor{path: "/tmp/resume.pdf"},
	})
	return o, s
}

func insertJob(t *testing.T, s *store.Memory, url string) *store.JobRecord {
	t.Helper()
	rec, _, err := s.Insert(context.Background(), store.InsertInput{
		URL: url, Company: "Acme", RoleTitle: "SWE", Platform: platform.Detect(url),
		JDText: "Build distributed systems in Go.",
	})
	require.NoError(t, err)
	return rec
}

func TestOrchestrator_HappyPath(t *testing.T) {
	filler := &stubFiller{}
	o, s := newTestOrchestrator(t, filler)
	ctx := context.Background()

	rec := insertJob(t, s, "https://jobs.lever.co/acme/123")
	assert.Equal(t, store.StateScraped, rec.State)
	assert.Equal(t, platform.Lever, rec.Platform)

	rec, err := o.Approve(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StateApproved, rec.State)

	rec, err = o.Fill(ctx, rec.ID, false)
	require.NoError(t, err)
	assert.Equal(t, store.StateReady, rec.State)
	assert.Equal(t, 1, rec.AttemptCount)
	assert.Empty(t, rec.LastError)

	rec, err = o.Submit(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StateSubmitted, rec.State)
	assert.Equal(t, 2, rec.AttemptCount)
	require.NotNil(t, rec.SubmittedAt)
	assert.Equal(t, 2, filler.fillCalls, "submit refills the form")
	assert.Equal(t, 1, filler.submitCalls)
}

func TestOrchestrator_FillFailureThenRetry(t *testing.T) {
	filler := &stubFiller{fillErr: errors.New("selector not found"), screenshot: "/tmp/shot.png"}
	o, s := newTestOrchestrator(t, filler)
	ctx := context.Background()

	rec := insertJob(t, s, "https://jobs.lever.co/acme/123")
	rec, err := o.Approve(ctx, rec.ID)
	require.NoError(t, err)

	rec, err = o.Fill(ctx, rec.ID, false)
	var collab *CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.Equal(t, store.StateApproved, rec.State, "failed fill keeps the job retryable")
	assert.Equal(t, 1, rec.AttemptCount)
	assert.Contains(t, rec.LastError, "selector not found")
	assert.Equal(t, "/tmp/shot.png", rec.ScreenshotRef)

	// Second attempt succeeds.
	filler.fillErr = nil
	rec, err = o.Fill(ctx, rec.ID, false)
	require.NoError(t, err)
	assert.Equal(t, store.StateReady, rec.State)
	assert.Equal(t, 2, rec.AttemptCount)
	assert.Empty(t, rec.LastError, "last_error is cleared on success")
}

func TestOrchestrator_FillAndSubmit(t *testing.T) {
	filler := &stubFiller{}
	o, s := newTestOrchestrator(t, filler)
	ctx := context.Background()

	rec := insertJob(t, s, "https://jobs.lever.co/acme/123")
	_, err := o.Approve(ctx, rec.ID)
	require.NoError(t, err)

	rec, err = o.Fill(ctx, rec.ID, true)
	require.NoError(t, err)
	assert.Equal(t, store.StateSubmitted, rec.State)
	assert.Equal(t, 1, rec.AttemptCount)
}

func TestOrchestrator_FillAndSubmit_SubmitFails(t *testing.T) {
	filler := &stubFiller{submitErr: errors.New("submit button missing")}
	o, s := newTestOrchestrator(t, filler)
	ctx := context.Background()

	rec := insertJob(t, s, "https://jobs.lever.co/acme/123")
	_, err := o.Approve(ctx, rec.ID)
	require.NoError(t, err)

	rec, err = o.Fill(ctx, rec.ID, true)
	var collab *CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.Equal(t, store.StateApproved, rec.State)
	assert.Equal(t, 1, rec.AttemptCount)
}

func TestOrchestrator_UnsupportedPlatform(t *testing.T) {
	o, s := newTestOrchestrator(t, &stubFiller{})
	ctx := context.Background()

	rec := insertJob(t, s, "https://boards.unknownats.com/x")
	assert.Equal(t, platform.Unknown, rec.Platform)

	rec, err := o.Approve(ctx, rec.ID)
	require.NoError(t, err)

	_, err = o.Fill(ctx, rec.ID, false)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AttemptCount, "unsupported platform must not count as an attempt")
	assert.Equal(t, store.StateApproved, got.State)
}

func TestOrchestrator_NoHandlerRegistered(t *testing.T) {
	// Greenhouse job, but only a lever handler is registered.
	o, s := newTestOrchestrator(t, &stubFiller{})
	ctx := context.Background()

	rec := insertJob(t, s, "https://boards.greenhouse.io/acme/jobs/1")
	_, err := o.Approve(ctx, rec.ID)
	require.NoError(t, err)

	_, err = o.Fill(ctx, rec.ID, false)
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestOrchestrator_ActionPreconditions(t *testing.T) {
	o, s := newTestOrchestrator(t, &stubFiller{})
	ctx := context.Background()

	rec := insertJob(t, s, "https://jobs.lever.co/acme/123")

	// fill before approve
	_, err := o.Fill(ctx, rec.ID, false)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	// submit before ready
	_, err = o.Submit(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	// approve twice
	_, err = o.Approve(ctx, rec.ID)
	require.NoError(t, err)
	_, err = o.Approve(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	// skip an approved job is allowed
	rec2 := insertJob(t, s, "https://jobs.lever.co/acme/456")
	_, err = o.Approve(ctx, rec2.ID)
	require.NoError(t, err)
	updated, err := o.Skip(ctx, rec2.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StateSkipped, updated.State)

	// no action works on a terminal job
	_, err = o.Reject(ctx, rec2.ID, "")
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
	_, err = o.Skip(ctx, rec2.ID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestOrchestrator_RejectAnyNonTerminal(t *testing.T) {
	o, s := newTestOrchestrator(t, &stubFiller{})
	ctx := context.Background()

	for i, state := range []store.State{store.StateScraped, store.StateApproved, store.StateReady} {
		rec := insertJob(t, s, fmt.Sprintf("https://jobs.lever.co/acme/%d", i))
		if state != store.StateScraped {
			_, err := o.Approve(ctx, rec.ID)
			require.NoError(t, err)
		}
		if state == store.StateReady {
			_, err := o.Fill(ctx, rec.ID, false)
			require.NoError(t, err)
		}
		updated, err := o.Reject(ctx, rec.ID, "not a fit")
		require.NoError(t, err)
		assert.Equal(t, store.StateRejected, updated.State)
		assert.Equal(t, "not a fit", updated.LastError)
	}
}

func TestOrchestrator_Tailor(t *testing.T) {
	o, s := newTestOrchestrator(t, &stubFiller{})
	ctx := context.Background()

	rec := insertJob(t, s, "https://jobs.lever.co/acme/123")

	// Tailoring requires approval first.
	_, err := o.Tailor(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	_, err = o.Approve(ctx, rec.ID)
	require.NoError(t, err)

	updated, err := o.Tailor(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/resume.pdf", updated.ResumePath)
	assert.Equal(t, store.StateApproved, updated.State, "tailoring does not advance state")
}

func TestOrchestrator_TailorFailure(t *testing.T) {
	s := store.NewMemory()
	o := New(Config{
		Store:    s,
		Registry: NewRegistry(),
		Tailor:   &stubTailor{err: errors.New("model quota exceeded")},
	})
	ctx := context.Background()

	rec := insertJob(t, s, "https://jobs.lever.co/acme/123")
	_, err := o.Approve(ctx, rec.ID)
	require.NoError(t, err)

	updated, err := o.Tailor(ctx, rec.ID)
	var collab *CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.Equal(t, store.StateApproved, updated.State)
	assert.Empty(t, updated.ResumePath)
	assert.Contains(t, updated.LastError, "model quota exceeded")
}

func TestOrchestrator_JobBusy(t *testing.T) {
	filler := &stubFiller{
		entered: make(chan struct{}),
		block:   make(chan struct{}),
	}
	o, s := newTestOrchestrator(t, filler)
	ctx := context.Background()

	rec := insertJob(t, s, "https://jobs.lever.co/acme/123")
	_, err := o.Approve(ctx, rec.ID)
	require.NoError(t, err)

	entered := filler.entered
	done := make(chan error, 1)
	go func() {
		_, err := o.Fill(ctx, rec.ID, false)
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("fill never started")
	}

	// A second action for the same job fails fast.
	_, err = o.Fill(ctx, rec.ID, false)
	assert.ErrorIs(t, err, ErrJobBusy)
	_, err = o.Skip(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrJobBusy)

	// A different job is unaffected.
	other := insertJob(t, s, "https://jobs.lever.co/acme/456")
	_, err = o.Approve(ctx, other.ID)
	assert.NoError(t, err)

	close(filler.block)
	require.NoError(t, <-done)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StateReady, got.State)
	assert.Equal(t, 1, got.AttemptCount, "exactly one attempt despite the concurrent request")
}

func TestOrchestrator_CollaboratorTimeout(t *testing.T) {
	filler := &stubFiller{block: make(chan struct{})} // never unblocked
	s := store.NewMemory()
	registry := NewRegistry()
	registry.Register(platform.Lever, filler)
	o := New(Config{
		Store:               s,
		Registry:            registry,
		CollaboratorTimeout: 50 * time.Millisecond,
	})
	ctx := context.Background()

	rec := insertJob(t, s, "https://jobs.lever.co/acme/123")
	_, err := o.Approve(ctx, rec.ID)
	require.NoError(t, err)

	updated, err := o.Fill(ctx, rec.ID, false)
	var collab *CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, store.StateApproved, updated.State)
	assert.Equal(t, 1, updated.AttemptCount, "timeout counts as a failed attempt")
}

func TestOrchestrator_NotFound(t *testing.T) {
	o, _ := newTestOrchestrator(t, &stubFiller{})
	_, err := o.Approve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Handler(platform.Lever)
	assert.False(t, ok)

	f := &stubFiller{}
	r.Register(platform.Lever, f)
	r.Register(platform.Unknown, f) // ignored

	got, ok := r.Handler(platform.Lever)
	assert.True(t, ok)
	assert.Equal(t, FormFiller(f), got)
	_, ok = r.Handler(platform.Unknown)
	assert.False(t, ok)
	assert.Equal(t, []platform.Platform{platform.Lever}, r.Platforms())
}
