package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/apply-pilot/internal/answers"
	"github.com/jonathan/apply-pilot/internal/pipeline"
	"github.com/jonathan/apply-pilot/internal/store"
)

// QuestionAnswerer is the AI fallback contract. *Answerer satisfies it; tests
// substitute stubs.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string, applicant answers.Applicant, job *store.JobRecord) (string, error)
}

// Service resolves screening questions for jobs: operator lookup table
// first, then the per-job persisted cache, then the AI answerer. AI answers
// are persisted per job+question so a repeat fill never re-queries, and
// in-flight duplicates are collapsed with singleflight. Answers are never
// written back into the operator's lookup table.
type Service struct {
	resolver *answers.Resolver
	store    store.Store
	answerer QuestionAnswerer // nil disables the AI fallback
	log      *zap.SugaredLogger

	group singleflight.Group
}

// NewService builds the resolution chain.
func NewService(resolver *answers.Resolver, s store.Store, answerer QuestionAnswerer, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{resolver: resolver, store: s, answerer: answerer, log: log}
}

// ForJob returns the answer source the form filler uses for one job.
func (s *Service) ForJob(job *store.JobRecord) pipeline.AnswerSource {
	return &jobSource{svc: s, job: job}
}

type jobSource struct {
	svc *Service
	job *store.JobRecord
}

// Answer resolves one question. ok=false with a nil error means the question
// is unanswerable (no table match and AI disabled); the filler leaves it
// blank rather than guessing.
func (j *jobSource) Answer(ctx context.Context, question string) (string, bool, error) {
	svc := j.svc

	if answer, ok := svc.resolver.Resolve(question); ok {
		return answer, true, nil
	}

	cached, err := svc.store.CachedAnswer(ctx, j.job.ID, question)
	if err != nil {
		return "", false, err
	}
	if cached != nil {
		return cached.Answer, true, nil
	}

	if svc.answerer == nil {
		return "", false, nil
	}

	key := j.job.ID.String() + ":" + store.QuestionKey(question)
	answer, err, _ := svc.group.Do(key, func() (any, error) {
		// Re-check the cache: a concurrent caller may have persisted while we
		// waited for the flight slot.
		if cached, err := svc.store.CachedAnswer(ctx, j.job.ID, question); err != nil {
			return "", err
		} else if cached != nil {
			return cached.Answer, nil
		}

		generated, err := svc.answerer.Answer(ctx, question, svc.resolver.Applicant(), j.job)
		if err != nil {
			return "", err
		}
		if err := svc.store.SaveAnswer(ctx, &store.CachedAnswer{
			JobID:    j.job.ID,
			Question: question,
			Answer:   generated,
			Source:   "ai",
		}); err != nil {
			return "", err
		}
		svc.log.Debugw("AI answered screening question",
			"job", j.job.ID, "question", question)
		return generated, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("AI answer for %q: %w", question, err)
	}
	return answer.(string), true, nil
}
