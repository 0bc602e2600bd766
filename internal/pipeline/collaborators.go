package pipeline

import (
	"context"
	"sync"

	"github.com/jonathan/apply-pilot/internal/platform"
	"github.com/jonathan/apply-pilot/internal/store"
)

// AnswerSource resolves screening questions for one job. Implementations
// consult the lookup table first and fall back to the AI answerer; answers
// are cached per job+question so repeat fills never re-query. ok=false means
// the question is unanswerable and the filler should leave it blank.
type AnswerSource interface {
	Answer(ctx context.Context, question string) (answer string, ok bool, err error)
}

// ScreeningResolver produces per-job answer sources.
type ScreeningResolver interface {
	ForJob(job *store.JobRecord) AnswerSource
}

// FillContext is everything a form filler needs for one attempt.
type FillContext struct {
	Job        *store.JobRecord
	ResumePath string
	Answers    AnswerSource
}

// FillResult reports a completed (not necessarily successful) fill attempt.
type FillResult struct {
	// ScreenshotRef points at a captured screenshot, if any. Set on failures
	// for debugging and optionally on success.
	ScreenshotRef string
}

// FormFiller drives a browser to populate one platform's application form.
// Calls must honor ctx cancellation; the orchestrator bounds them with its
// collaborator timeout.
type FormFiller interface {
	Fill(ctx context.Context, fc *FillContext) (*FillResult, error)
	Submit(ctx context.Context, fc *FillContext) (*FillResult, error)
}

// ResumeTailor produces a tailored resume artifact for a job description.
type ResumeTailor interface {
	Tailor(ctx context.Context, jdText, roleTitle, company string) (resumePath string, err error)
}

// Registry maps platforms to their registered form fillers. Platforms
// without a handler are explicitly unsupported, not a lookup failure.
type Registry struct {
	mu       sync.RWMutex
	handlers map[platform.Platform]FormFiller
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[platform.Platform]FormFiller)}
}

// Register installs the handler for a platform, replacing any previous one.
// Registering a handler for Unknown is a programming error and is ignored.
func (r *Registry) Register(p platform.Platform, f FormFiller) {
	if p == platform.Unknown {
		return
	}
	r.mu.Lock()
	r.handlers[p] = f
	r.mu.Unlock()
}

// Handler returns the filler registered for a platform.
func (r *Registry) Handler(p platform.Platform) (FormFiller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.handlers[p]
	return f, ok
}

// Platforms lists the platforms with a registered handler.
func (r *Registry) Platforms() []platform.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]platform.Platform, 0, len(r.handlers))
	for _, p := range platform.All() {
		if _, ok := r.handlers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
