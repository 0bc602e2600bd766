package fill

import (
	"context"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/apply-pilot/internal/pipeline"
)

// Workday fills myworkdayjobs.com application forms. Workday is a multi-page
// wizard behind an account wall; without stored credentials we can only
// complete the first "My Information" page, so Submit is best-effort and
// expected to fail for tenants that require login.
type Workday struct {
	base
}

func NewWorkday(cfg Config, log *zap.SugaredLogger) *Workday {
	return &Workday{base: newBase(cfg, log)}
}

func (w *Workday) actions(fc *pipeline.FillContext) []chromedp.Action {
	a := w.cfg.Applicant
	acts := []chromedp.Action{
		clickIfPresent(`a[data-automation-id="adventureButton"]`),
		chromedp.Sleep(w.cfg.settle()),
		clickIfPresent(`a[data-automation-id="applyManually"]`),
		chromedp.Sleep(w.cfg.settle()),
		fillIfPresent(`input[data-automation-id="legalNameSection_firstName"]`, a.FirstName()),
		fillIfPresent(`input[data-automation-id="legalNameSection_lastName"]`, a.LastName()),
		fillIfPresent(`input[data-automation-id="email"]`, a.Email),
		fillIfPresent(`input[data-automation-id="phone-number"]`, a.Phone),
		fillIfPresent(`input[data-automation-id="addressSection_city"]`, a.Location),
		uploadResume([]string{
			`input[data-automation-id="file-upload-input-ref"]`,
			`input[type="file"]`,
		}, fc.ResumePath),
	}
	acts = append(acts, w.answerQuestions(`div[data-automation-id="formField"]`, fc.Answers))
	return acts
}

func (w *Workday) Fill(ctx context.Context, fc *pipeline.FillContext) (*pipeline.FillResult, error) {
	ref, err := w.session(ctx, fc.Job.URL, w.actions(fc)...)
	return &pipeline.FillResult{ScreenshotRef: ref}, err
}

func (w *Workday) Submit(ctx context.Context, fc *pipeline.FillContext) (*pipeline.FillResult, error) {
	acts := append(w.actions(fc),
		clickSubmit([]string{
			`button[data-automation-id="bottom-navigation-next-button"]`,
			`button[type="submit"]`,
		}),
		chromedp.Sleep(w.cfg.settle()),
	)
	ref, err := w.session(ctx, fc.Job.URL, acts...)
	return &pipeline.FillResult{ScreenshotRef: ref}, err
}
