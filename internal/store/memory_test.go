package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-pilot/internal/platform"
)

func TestMemory_InsertDedup(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	first, created, err := s.Insert(ctx, InsertInput{
		URL: "https://jobs.lever.co/acme/123", Company: "Acme", RoleTitle: "SWE",
		Platform: platform.Lever,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, StateScraped, first.State)
	assert.Equal(t, platform.Lever, first.Platform)

	second, created, err := s.Insert(ctx, InsertInput{
		URL: "https://jobs.lever.co/acme/123", Company: "Acme Again",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Acme", second.Company, "existing record must not be overwritten")

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemory_GetNotFound(t *testing.T) {
	s := NewMemory()
	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ListInsertionOrderAndFilter(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	urls := []string{
		"https://jobs.lever.co/a/1",
		"https://jobs.lever.co/b/2",
		"https://jobs.lever.co/c/3",
	}
	for _, u := range urls {
		_, _, err := s.Insert(ctx, InsertInput{URL: u})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, rec := range all {
		assert.Equal(t, urls[i], rec.URL)
	}

	// Approve the middle one and filter by state.
	_, err = s.Update(ctx, all[1].ID, func(r *JobRecord) error {
		r.State = StateApproved
		return nil
	})
	require.NoError(t, err)

	approved, err := s.List(ctx, Filter{State: StateApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, urls[1], approved[0].URL)
}

func TestMemory_UpdateValidatesTransition(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	rec, _, err := s.Insert(ctx, InsertInput{URL: "https://jobs.lever.co/acme/1"})
	require.NoError(t, err)

	_, err = s.Update(ctx, rec.ID, func(r *JobRecord) error {
		r.State = StateSubmitted
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Failed update must not be visible.
	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StateScraped, got.State)
}

func TestMemory_TerminalStateRejectsAllTransitions(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	rec, _, err := s.Insert(ctx, InsertInput{URL: "https://jobs.lever.co/acme/1"})
	require.NoError(t, err)

	_, err = s.Update(ctx, rec.ID, func(r *JobRecord) error {
		r.State = StateSkipped
		return nil
	})
	require.NoError(t, err)

	for _, target := range States() {
		if target == StateSkipped {
			continue
		}
		_, err := s.Update(ctx, rec.ID, func(r *JobRecord) error {
			r.State = target
			return nil
		})
		assert.ErrorIs(t, err, ErrInvalidTransition, "skipped -> %s must be rejected", target)
	}
}

func TestMemory_UpdateImmutableFields(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	rec, _, err := s.Insert(ctx, InsertInput{URL: "https://jobs.lever.co/acme/1"})
	require.NoError(t, err)

	_, err = s.Update(ctx, rec.ID, func(r *JobRecord) error {
		r.URL = "https://jobs.lever.co/other/2"
		return nil
	})
	assert.Error(t, err)

	_, err = s.Update(ctx, rec.ID, func(r *JobRecord) error {
		r.AttemptCount = -1
		return nil
	})
	assert.Error(t, err, "attempt_count must not decrease")
}

func TestMemory_UpdateMutatorErrorAborts(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	rec, _, err := s.Insert(ctx, InsertInput{URL: "https://jobs.lever.co/acme/1"})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(ctx, rec.ID, func(r *JobRecord) error {
		r.Company = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Company)
}

func TestMemory_SubmittedAtSetOnce(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	rec, _, err := s.Insert(ctx, InsertInput{URL: "https://jobs.lever.co/acme/1"})
	require.NoError(t, err)

	for _, state := range []State{StateApproved, StateReady} {
		_, err = s.Update(ctx, rec.ID, func(r *JobRecord) error {
			r.State = state
			return nil
		})
		require.NoError(t, err)
	}
	updated, err := s.Update(ctx, rec.ID, func(r *JobRecord) error {
		r.State = StateSubmitted
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, updated.SubmittedAt)
}

func TestMemory_ConcurrentUpdatesSerialize(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	rec, _, err := s.Insert(ctx, InsertInput{URL: "https://jobs.lever.co/acme/1"})
	require.NoError(t, err)
	_, err = s.Update(ctx, rec.ID, func(r *JobRecord) error {
		r.State = StateApproved
		return nil
	})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, rec.ID, func(r *JobRecord) error {
				r.AttemptCount++
				return nil
			})
			if err != nil {
				t.Errorf("concurrent update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.AttemptCount, "no update may be lost")
}

func TestMemory_AnswerCache(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	rec, _, err := s.Insert(ctx, InsertInput{URL: "https://jobs.lever.co/acme/1"})
	require.NoError(t, err)

	got, err := s.CachedAnswer(ctx, rec.ID, "Why do you want to work here?")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = s.SaveAnswer(ctx, &CachedAnswer{
		JobID:    rec.ID,
		Question: "Why do you want to work here?",
		Answer:   "Because of the mission.",
		Source:   "ai",
	})
	require.NoError(t, err)

	// Lookup normalizes whitespace and case before hashing.
	got, err = s.CachedAnswer(ctx, rec.ID, "  why do you want\tto work here?")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Because of the mission.", got.Answer)
	assert.Equal(t, "ai", got.Source)

	// Different job, same question: no cache hit.
	other, _, err := s.Insert(ctx, InsertInput{URL: "https://jobs.lever.co/acme/2"})
	require.NoError(t, err)
	got, err = s.CachedAnswer(ctx, other.ID, "Why do you want to work here?")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQuestionKey(t *testing.T) {
	a := QuestionKey("Are you authorized to work in the US?")
	b := QuestionKey("  are you AUTHORIZED to   work in the us? ")
	c := QuestionKey("Do you require sponsorship?")
	if a != b {
		t.Errorf("normalized variants should share a key: %s != %s", a, b)
	}
	if a == c {
		t.Error("different questions must not collide")
	}
}
