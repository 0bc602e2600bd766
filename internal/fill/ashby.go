package fill

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/apply-pilot/internal/pipeline"
)

// Ashby fills jobs.ashbyhq.com application forms. The board is a React SPA
// with generated class names, so fields are located by their visible label
// text instead of selectors.
type Ashby struct {
	base
}

func NewAshby(cfg Config, log *zap.SugaredLogger) *Ashby {
	return &Ashby{base: newBase(cfg, log)}
}

// fillByLabel tags the input belonging to the first label containing the
// given text, then types into it. Matching is case-insensitive.
const fillByLabelJS = `((want, id) => {
	want = want.toLowerCase();
	for (const label of document.querySelectorAll('label')) {
		if (!label.textContent.toLowerCase().includes(want)) continue;
		let input = null;
		if (label.htmlFor) input = document.getElementById(label.htmlFor);
		if (!input) input = label.parentElement.querySelector('input, textarea');
		if (!input) continue;
		input.setAttribute('data-ap-field', id);
		return true;
	}
	return false;
})`

func (a *Ashby) fillByLabel(labelText, value string) chromedp.Action {
	if value == "" {
		return noop{}
	}
	return chromedp.ActionFunc(func(ctx context.Context) error {
		id := fmt.Sprintf("ap-%s", slugify(labelText))
		js := fillByLabelJS + fmt.Sprintf("(%q, %q)", labelText, id)
		var found bool
		if err := chromedp.Evaluate(js, &found).Do(ctx); err != nil {
			return err
		}
		if !found {
			a.log.Debugw("Field not present", "label", labelText)
			return nil
		}
		sel := fmt.Sprintf(`[data-ap-field=%q]`, id)
		return chromedp.SendKeys(sel, value, chromedp.ByQuery).Do(ctx)
	})
}

func (a *Ashby) actions(fc *pipeline.FillContext) []chromedp.Action {
	ap := a.cfg.Applicant
	acts := []chromedp.Action{
		// Open the application tab; some boards land on the overview.
		clickIfPresent(`a[href$="/application"], button[class*="applicationTab" i]`),
		chromedp.Sleep(a.cfg.settle()),
		a.fillByLabel("name", ap.Name),
		a.fillByLabel("email", ap.Email),
		a.fillByLabel("phone", ap.Phone),
		a.fillByLabel("location", ap.Location),
		a.fillByLabel("linkedin", ap.LinkedIn),
		a.fillByLabel("github", ap.GitHub),
		a.fillByLabel("website", ap.Website),
		uploadResume([]string{`input[type="file"]`}, fc.ResumePath),
	}
	acts = append(acts, a.answerQuestions(`div[class*="ashby-application-form-field" i], fieldset`, fc.Answers))
	return acts
}

func (a *Ashby) Fill(ctx context.Context, fc *pipeline.FillContext) (*pipeline.FillResult, error) {
	ref, err := a.session(ctx, fc.Job.URL, a.actions(fc)...)
	return &pipeline.FillResult{ScreenshotRef: ref}, err
}

func (a *Ashby) Submit(ctx context.Context, fc *pipeline.FillContext) (*pipeline.FillResult, error) {
	acts := append(a.actions(fc),
		clickSubmit([]string{`button[class*="submit" i]`, `button[type="submit"]`}),
		chromedp.Sleep(a.cfg.settle()),
	)
	ref, err := a.session(ctx, fc.Job.URL, acts...)
	return &pipeline.FillResult{ScreenshotRef: ref}, err
}

// clickIfPresent clicks the first match, doing nothing when absent.
func clickIfPresent(sel string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var present bool
		js := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
		if err := chromedp.Evaluate(js, &present).Do(ctx); err != nil {
			return err
		}
		if !present {
			return nil
		}
		return chromedp.Click(sel, chromedp.ByQuery).Do(ctx)
	})
}
