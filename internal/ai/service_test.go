package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-pilot/internal/answers"
	"github.com/jonathan/apply-pilot/internal/store"
)

type countingAnswerer struct {
	calls  atomic.Int64
	answer string
	err    error
	// hold keeps calls in flight until released, to exercise singleflight.
	hold chan struct{}
}

func (c *countingAnswerer) Answer(ctx context.Context, question string, applicant answers.Applicant, job *store.JobRecord) (string, error) {
	c.calls.Add(1)
	if c.hold != nil {
		<-c.hold
	}
	if c.err != nil {
		return "", c.err
	}
	return c.answer, nil
}

func setup(t *testing.T, answerer QuestionAnswerer) (*Service, *store.JobRecord) {
	t.Helper()
	table, err := answers.Parse([]byte(`
applicant:
  about: Backend engineer.
entries:
  - pattern: "sponsorship"
    answer: "No"
    match: substring
`))
	require.NoError(t, err)

	s := store.NewMemory()
	rec, _, err := s.Insert(context.Background(), store.InsertInput{
		URL: "https://jobs.lever.co/acme/1", Company: "Acme", RoleTitle: "SWE",
	})
	require.NoError(t, err)

	return NewService(answers.NewResolver(table), s, answerer, nil), rec
}

func TestService_LookupTableFirst(t *testing.T) {
	ai := &countingAnswerer{answer: "should not be used"}
	svc, job := setup(t, ai)

	got, ok, err := svc.ForJob(job).Answer(context.Background(), "Do you require sponsorship?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "No", got)
	assert.Zero(t, ai.calls.Load(), "table hit must not reach the AI")
}

func TestService_AIFallbackCachedPerJobQuestion(t *testing.T) {
	ai := &countingAnswerer{answer: "Because the mission fits."}
	svc, job := setup(t, ai)
	ctx := context.Background()
	src := svc.ForJob(job)

	got, ok, err := src.Answer(ctx, "Why do you want to work here?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Because the mission fits.", got)
	assert.Equal(t, int64(1), ai.calls.Load())

	// Same question again, same job: served from the persisted cache.
	got, ok, err = src.Answer(ctx, "Why do you want to work here?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Because the mission fits.", got)
	assert.Equal(t, int64(1), ai.calls.Load(), "repeat question must not re-query the AI")

	// A fresh source for the same job (second fill attempt) also hits the cache.
	got, ok, err = svc.ForJob(job).Answer(ctx, "Why do you want to work here?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), ai.calls.Load())

	// A different question does query.
	_, ok, err = src.Answer(ctx, "Describe a project you are proud of.")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), ai.calls.Load())
}

func TestService_NoAnswererMeansSkip(t *testing.T) {
	svc, job := setup(t, nil)

	got, ok, err := svc.ForJob(job).Answer(context.Background(), "Why here?")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestService_AIErrorPropagates(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc, job := setup(t, &countingAnswerer{err: boom})

	_, ok, err := svc.ForJob(job).Answer(context.Background(), "Why here?")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestService_SingleflightCollapsesConcurrentCalls(t *testing.T) {
	ai := &countingAnswerer{answer: "one answer", hold: make(chan struct{})}
	svc, job := setup(t, ai)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, ok, err := svc.ForJob(job).Answer(ctx, "Why do you want to work here?")
			if err != nil || !ok {
				t.Errorf("answer %d failed: ok=%v err=%v", i, ok, err)
				return
			}
			results[i] = got
		}(i)
	}

	close(ai.hold)
	wg.Wait()

	assert.Equal(t, int64(1), ai.calls.Load(), "concurrent duplicates must collapse to one AI call")
	for _, r := range results {
		assert.Equal(t, "one answer", r)
	}
}
