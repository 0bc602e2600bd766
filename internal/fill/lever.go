package fill

import (
	"context"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/apply-pilot/internal/pipeline"
)

// Lever fills jobs.lever.co application forms. Lever hosts the posting at
// /<company>/<id> and the form at /<company>/<id>/apply; the form is plain
// server-rendered HTML with stable input names.
type Lever struct {
	base
}

func NewLever(cfg Config, log *zap.SugaredLogger) *Lever {
	return &Lever{base: newBase(cfg, log)}
}

// applyURL normalizes a posting URL to its application form.
func (l *Lever) applyURL(postingURL string) string {
	u := strings.TrimRight(postingURL, "/")
	if strings.HasSuffix(u, "/apply") {
		return u
	}
	return u + "/apply"
}

func (l *Lever) actions(fc *pipeline.FillContext) []chromedp.Action {
	a := l.cfg.Applicant
	acts := []chromedp.Action{
		fillIfPresent(`input[name="name"]`, a.Name),
		fillIfPresent(`input[name="email"]`, a.Email),
		fillIfPresent(`input[name="phone"]`, a.Phone),
		fillIfPresent(`input[name="location"]`, a.Location),
		fillIfPresent(`input[name="urls[LinkedIn]"]`, a.LinkedIn),
		fillIfPresent(`input[name="urls[GitHub]"]`, a.GitHub),
		fillIfPresent(`input[name="urls[Portfolio]"]`, a.Website),
		uploadResume([]string{`input[name="resume"]`, `input[type="file"]`}, fc.ResumePath),
	}
	// Lever wraps each custom question in an .application-question block.
	acts = append(acts, l.answerQuestions(".application-question", fc.Answers))
	return acts
}

func (l *Lever) Fill(ctx context.Context, fc *pipeline.FillContext) (*pipeline.FillResult, error) {
	ref, err := l.session(ctx, l.applyURL(fc.Job.URL), l.actions(fc)...)
	return &pipeline.FillResult{ScreenshotRef: ref}, err
}

func (l *Lever) Submit(ctx context.Context, fc *pipeline.FillContext) (*pipeline.FillResult, error) {
	acts := append(l.actions(fc),
		clickSubmit([]string{`button[data-qa="btn-submit"]`, `button[type="submit"]`}),
		chromedp.Sleep(l.cfg.settle()),
	)
	ref, err := l.session(ctx, l.applyURL(fc.Job.URL), acts...)
	return &pipeline.FillResult{ScreenshotRef: ref}, err
}
