package fill

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/apply-pilot/internal/pipeline"
)

// formQuestion is one custom screening prompt discovered in the DOM.
// Selector addresses the input to fill; Kind tells us how to fill it.
type formQuestion struct {
	Label    string `json:"label"`
	Selector string `json:"selector"`
	Kind     string `json:"kind"` // text, textarea, select, checkbox
}

// extractQuestionsJS walks containers matching containerSel, pairs each
// label with its input, and tags the input with a data attribute so we can
// address it afterwards with a stable selector.
const extractQuestionsJS = `(sel => {
	const out = [];
	let n = 0;
	for (const box of document.querySelectorAll(sel)) {
		const labelEl = box.querySelector('label, legend, .application-label, [class*="label" i]');
		const input = box.querySelector('textarea, select, input:not([type=hidden]):not([type=file])');
		if (!labelEl || !input) continue;
		const label = labelEl.textContent.trim().replace(/\s+/g, ' ');
		if (!label) continue;
		const id = 'ap-q-' + (n++);
		input.setAttribute('data-ap-question', id);
		let kind = 'text';
		const tag = input.tagName.toLowerCase();
		if (tag === 'textarea') kind = 'textarea';
		else if (tag === 'select') kind = 'select';
		else if (input.type === 'checkbox' || input.type === 'radio') kind = 'checkbox';
		out.push({label: label, selector: '[data-ap-question="' + id + '"]', kind: kind});
	}
	return out;
})`

// answerQuestions resolves and fills every screening question found under
// containerSel. Questions the source cannot answer are left blank; required
// ones will surface as a submit failure with a screenshot, which is the
// honest outcome when we have nothing to say.
func (b *base) answerQuestions(containerSel string, src pipeline.AnswerSource) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if src == nil {
			return nil
		}
		var questions []formQuestion
		js := extractQuestionsJS + fmt.Sprintf("(%q)", containerSel)
		if err := chromedp.Evaluate(js, &questions).Do(ctx); err != nil {
			return fmt.Errorf("failed to extract screening questions: %w", err)
		}
		for _, q := range questions {
			answer, ok, err := src.Answer(ctx, q.Label)
			if err != nil {
				return fmt.Errorf("failed to resolve answer for %q: %w", q.Label, err)
			}
			if !ok {
				b.log.Warnw("No answer for screening question", "question", q.Label)
				continue
			}
			if err := b.fillQuestion(ctx, q, answer); err != nil {
				return fmt.Errorf("failed to fill %q: %w", q.Label, err)
			}
		}
		return nil
	})
}

func (b *base) fillQuestion(ctx context.Context, q formQuestion, answer string) error {
	switch q.Kind {
	case "select":
		return b.selectOption(ctx, q.Selector, answer)
	case "checkbox":
		return b.checkOption(ctx, q.Selector, answer)
	default:
		return chromedp.SendKeys(q.Selector, answer, chromedp.ByQuery).Do(ctx)
	}
}

// selectOption picks the option whose text contains the answer,
// case-insensitively. Falls back to the first non-empty option when
// nothing matches, since leaving a required select empty always fails.
func (b *base) selectOption(ctx context.Context, sel, answer string) error {
	js := fmt.Sprintf(`((sel, want) => {
		const el = document.querySelector(sel);
		if (!el) return false;
		want = want.toLowerCase();
		let pick = null;
		for (const opt of el.options) {
			if (opt.value === '') continue;
			if (opt.textContent.trim().toLowerCase().includes(want)) { pick = opt; break; }
			if (!pick) pick = opt;
		}
		if (!pick) return false;
		el.value = pick.value;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})(%q, %q)`, sel, answer)
	var ok bool
	if err := chromedp.Evaluate(js, &ok).Do(ctx); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no selectable option")
	}
	return nil
}

// checkOption ticks the box only for affirmative answers.
func (b *base) checkOption(ctx context.Context, sel, answer string) error {
	if !affirmative(answer) {
		return nil
	}
	js := fmt.Sprintf(`((sel) => {
		const el = document.querySelector(sel);
		if (!el) return false;
		el.checked = true;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})(%q)`, sel)
	var ok bool
	if err := chromedp.Evaluate(js, &ok).Do(ctx); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("checkbox not found")
	}
	return nil
}

func affirmative(answer string) bool {
	switch {
	case len(answer) == 0:
		return false
	case answer[0] == 'y' || answer[0] == 'Y':
		return true
	case answer[0] == 't' || answer[0] == 'T':
		return true
	}
	return false
}
