package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/apply-pilot/internal/platform"
)

//go:embed schema.sql
var schemaSQL string

const jobColumns = `id, url, company, role_title, platform, jd_text, state,
	resume_path, attempt_count, last_error, screenshot_ref, source,
	created_at, updated_at, submitted_at`

// Postgres is the production Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema applies the embedded schema. All statements are idempotent.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Insert adds a job in StateScraped, or returns the existing record when the
// URL is already queued.
func (s *Postgres) Insert(ctx context.Context, in InsertInput) (*JobRecord, bool, error) {
	plat := in.Platform
	if plat == "" {
		plat = platform.Unknown
	}
	source := in.Source
	if source == "" {
		source = "manual"
	}

	var rec JobRecord
	err := s.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, url, company, role_title, platform, jd_text, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (url) DO NOTHING
		 RETURNING `+jobColumns,
		uuid.New(), in.URL, in.Company, in.RoleTitle, plat, in.JDText, source,
	).Scan(scanTargets(&rec)...)
	if err == nil {
		return &rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert job: %w", err)
	}

	// Conflict: the URL is already queued. Return the existing record.
	existing, err := s.getByURL(ctx, in.URL)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *Postgres) getByURL(ctx context.Context, url string) (*JobRecord, error) {
	var rec JobRecord
	err := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE url = $1`, url,
	).Scan(scanTargets(&rec)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job by url: %w", err)
	}
	return &rec, nil
}

// Get returns the record for id, or ErrNotFound.
func (s *Postgres) Get(ctx context.Context, id uuid.UUID) (*JobRecord, error) {
	var rec JobRecord
	err := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id,
	).Scan(scanTargets(&rec)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &rec, nil
}

// List returns records matching the filter in insertion order.
func (s *Postgres) List(ctx context.Context, f Filter) ([]*JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at, id`
	args := []any{}
	if f.State != "" {
		query = `SELECT ` + jobColumns + ` FROM jobs WHERE state = $1 ORDER BY created_at, id`
		args = append(args, f.State)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var records []*JobRecord
	for rows.Next() {
		var rec JobRecord
		if err := rows.Scan(scanTargets(&rec)...); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return records, nil
}

// Update applies mutate under a row lock so concurrent transitions for the
// same job serialize and illegal ones never persist.
func (s *Postgres) Update(ctx context.Context, id uuid.UUID, mutate func(*JobRecord) error) (*JobRecord, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var current JobRecord
	err = tx.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id,
	).Scan(scanTargets(&current)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock job: %w", err)
	}

	next := current
	if err := mutate(&next); err != nil {
		return nil, err
	}
	if err := checkMutation(&current, &next); err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	if next.State == StateSubmitted && current.State != StateSubmitted {
		now := next.UpdatedAt
		next.SubmittedAt = &now
	}

	_, err = tx.Exec(ctx,
		`UPDATE jobs SET company = $2, role_title = $3, platform = $4,
		        jd_text = $5, state = $6, resume_path = $7, attempt_count = $8,
		        last_error = $9, screenshot_ref = $10, source = $11,
		        updated_at = $12, submitted_at = $13
		 WHERE id = $1`,
		next.ID, next.Company, next.RoleTitle, next.Platform, next.JDText,
		next.State, next.ResumePath, next.AttemptCount, next.LastError,
		next.ScreenshotRef, next.Source, next.UpdatedAt, next.SubmittedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return &next, nil
}

// CachedAnswer returns the persisted answer for a job+question, or nil.
func (s *Postgres) CachedAnswer(ctx context.Context, jobID uuid.UUID, question string) (*CachedAnswer, error) {
	var a CachedAnswer
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, question_key, question, answer, source, created_at
		 FROM screening_answers WHERE job_id = $1 AND question_key = $2`,
		jobID, QuestionKey(question),
	).Scan(&a.JobID, &a.QuestionKey, &a.Question, &a.Answer, &a.Source, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached answer: %w", err)
	}
	return &a, nil
}

// SaveAnswer upserts a cached screening answer for a job.
func (s *Postgres) SaveAnswer(ctx context.Context, a *CachedAnswer) error {
	if a.QuestionKey == "" {
		a.QuestionKey = QuestionKey(a.Question)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO screening_answers (job_id, question_key, question, answer, source)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (job_id, question_key) DO UPDATE SET answer = $4, source = $5, created_at = NOW()`,
		a.JobID, a.QuestionKey, a.Question, a.Answer, a.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// Stats returns record counts per state.
func (s *Postgres) Stats(ctx context.Context) (map[State]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	defer rows.Close()

	counts := make(map[State]int)
	for rows.Next() {
		var state State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		counts[state] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return counts, nil
}

// scanTargets returns Scan destinations matching jobColumns order.
func scanTargets(rec *JobRecord) []any {
	return []any{
		&rec.ID, &rec.URL, &rec.Company, &rec.RoleTitle, &rec.Platform,
		&rec.JDText, &rec.State, &rec.ResumePath, &rec.AttemptCount,
		&rec.LastError, &rec.ScreenshotRef, &rec.Source,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.SubmittedAt,
	}
}

// checkMutation enforces the parts of the record contract shared by all
// store implementations.
func checkMutation(current, next *JobRecord) error {
	if next.ID != current.ID || next.URL != current.URL || !next.CreatedAt.Equal(current.CreatedAt) {
		return fmt.Errorf("id, url and created_at are immutable")
	}
	if !next.State.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, next.State)
	}
	if !CanTransition(current.State, next.State) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.State, next.State)
	}
	if next.AttemptCount < current.AttemptCount {
		return fmt.Errorf("attempt_count cannot decrease (%d -> %d)", current.AttemptCount, next.AttemptCount)
	}
	return nil
}
