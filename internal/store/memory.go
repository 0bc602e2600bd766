package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/apply-pilot/internal/platform"
)

// Memory is an in-process Store with the same atomicity contract as Postgres.
// Used by tests and by dry-run invocations that must not touch the real queue.
type Memory struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*JobRecord
	byURL   map[string]uuid.UUID
	order   []uuid.UUID
	answers map[string]*CachedAnswer // jobID + questionKey

	// clock is stubbed in tests that assert on timestamps.
	clock func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:    make(map[uuid.UUID]*JobRecord),
		byURL:   make(map[string]uuid.UUID),
		answers: make(map[string]*CachedAnswer),
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Insert adds a job in StateScraped, or returns the existing record when the
// URL is already queued.
func (s *Memory) Insert(_ context.Context, in InsertInput) (*JobRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byURL[in.URL]; ok {
		rec := *s.jobs[id]
		return &rec, false, nil
	}

	plat := in.Platform
	if plat == "" {
		plat = platform.Unknown
	}
	source := in.Source
	if source == "" {
		source = "manual"
	}

	now := s.clock()
	rec := &JobRecord{
		ID:        uuid.New(),
		URL:       in.URL,
		Company:   in.Company,
		RoleTitle: in.RoleTitle,
		Platform:  plat,
		JDText:    in.JDText,
		State:     StateScraped,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[rec.ID] = rec
	s.byURL[rec.URL] = rec.ID
	s.order = append(s.order, rec.ID)

	out := *rec
	return &out, true, nil
}

// Get returns the record for id, or ErrNotFound.
func (s *Memory) Get(_ context.Context, id uuid.UUID) (*JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

// List returns records matching the filter in insertion order.
func (s *Memory) List(_ context.Context, f Filter) ([]*JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*JobRecord
	for _, id := range s.order {
		rec := s.jobs[id]
		if f.State != "" && rec.State != f.State {
			continue
		}
		out := *rec
		records = append(records, &out)
	}
	return records, nil
}

// Update applies mutate under the store lock so concurrent transitions for
// the same job serialize and illegal ones never persist.
func (s *Memory) Update(_ context.Context, id uuid.UUID, mutate func(*JobRecord) error) (*JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := *current
	if err := mutate(&next); err != nil {
		return nil, err
	}
	if err := checkMutation(current, &next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.clock()
	if next.State == StateSubmitted && current.State != StateSubmitted {
		now := next.UpdatedAt
		next.SubmittedAt = &now
	}

	s.jobs[id] = &next
	out := next
	return &out, nil
}

// CachedAnswer returns the saved answer for a job+question, or nil.
func (s *Memory) CachedAnswer(_ context.Context, jobID uuid.UUID, question string) (*CachedAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[jobID.String()+QuestionKey(question)]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

// SaveAnswer saves a screening answer for a job, replacing any previous
// answer for the same question.
func (s *Memory) SaveAnswer(_ context.Context, a *CachedAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *a
	if saved.QuestionKey == "" {
		saved.QuestionKey = QuestionKey(saved.Question)
	}
	saved.CreatedAt = s.clock()
	s.answers[saved.JobID.String()+saved.QuestionKey] = &saved
	return nil
}

// Stats returns record counts per state.
func (s *Memory) Stats(_ context.Context) (map[State]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[State]int)
	for _, rec := range s.jobs {
		counts[rec.State]++
	}
	return counts, nil
}

// Close is a no-op for the in-memory store.
func (s *Memory) Close() {}
