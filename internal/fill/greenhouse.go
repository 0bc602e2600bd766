package fill

import (
	"context"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/apply-pilot/internal/pipeline"
)

// Greenhouse fills boards.greenhouse.io application forms. Greenhouse embeds
// the form on the posting page itself with stable element IDs.
type Greenhouse struct {
	base
}

func NewGreenhouse(cfg Config, log *zap.SugaredLogger) *Greenhouse {
	return &Greenhouse{base: newBase(cfg, log)}
}

func (g *Greenhouse) actions(fc *pipeline.FillContext) []chromedp.Action {
	a := g.cfg.Applicant
	acts := []chromedp.Action{
		fillIfPresent("#first_name", a.FirstName()),
		fillIfPresent("#last_name", a.LastName()),
		fillIfPresent("#email", a.Email),
		fillIfPresent("#phone", a.Phone),
		fillIfPresent("#job_application_location", a.Location),
		fillIfPresent(`input[autocomplete="custom-question-linkedin-profile"]`, a.LinkedIn),
		fillIfPresent(`input[autocomplete="custom-question-website"]`, a.Website),
		uploadResume([]string{
			`input[type="file"][name="resume"]`,
			`#resume_fieldset input[type="file"]`,
			`input[type="file"]`,
		}, fc.ResumePath),
	}
	// Custom questions live under #custom_fields on classic boards and in
	// form field wrappers on the redesigned ones.
	acts = append(acts, g.answerQuestions(`#custom_fields .field, div[class*="application--question"]`, fc.Answers))
	return acts
}

func (g *Greenhouse) Fill(ctx context.Context, fc *pipeline.FillContext) (*pipeline.FillResult, error) {
	ref, err := g.session(ctx, fc.Job.URL, g.actions(fc)...)
	return &pipeline.FillResult{ScreenshotRef: ref}, err
}

func (g *Greenhouse) Submit(ctx context.Context, fc *pipeline.FillContext) (*pipeline.FillResult, error) {
	acts := append(g.actions(fc),
		clickSubmit([]string{`#submit_app`, `button[type="submit"]`}),
		chromedp.Sleep(g.cfg.settle()),
	)
	ref, err := g.session(ctx, fc.Job.URL, acts...)
	return &pipeline.FillResult{ScreenshotRef: ref}, err
}
