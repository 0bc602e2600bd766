// Package fill drives a headless browser to populate ATS application forms.
// One handler per supported platform; each knows that board's selectors.
// Requires Chrome/Chromium on the system, like any chromedp user.
package fill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/apply-pilot/internal/answers"
	"github.com/jonathan/apply-pilot/internal/pipeline"
)

// Config is shared by all platform fillers.
type Config struct {
	// Applicant supplies the identity fields every form asks for.
	Applicant answers.Applicant
	// Headless runs the browser without a window. Interactive runs keep the
	// window visible so the operator can watch a fill.
	Headless bool
	// ScreenshotDir receives failure screenshots. Empty disables capture.
	ScreenshotDir string
	// SettleDelay waits after navigation for client-side rendering.
	SettleDelay time.Duration
}

func (c Config) settle() time.Duration {
	if c.SettleDelay <= 0 {
		return 2 * time.Second
	}
	return c.SettleDelay
}

// base carries the shared browser plumbing for platform handlers.
type base struct {
	cfg Config
	log *zap.SugaredLogger
}

func newBase(cfg Config, log *zap.SugaredLogger) base {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return base{cfg: cfg, log: log}
}

// session runs actions in a fresh browser context. The caller's ctx bounds
// the whole session; on failure a screenshot is captured before the browser
// closes and its path is returned alongside the error.
func (b *base) session(ctx context.Context, url string, actions ...chromedp.Action) (screenshotRef string, err error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", b.cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	run := append([]chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.cfg.settle()),
	}, actions...)

	if err := chromedp.Run(browserCtx, run...); err != nil {
		return b.captureFailure(browserCtx), err
	}
	return "", nil
}

// captureFailure best-effort screenshots the failed page.
func (b *base) captureFailure(browserCtx context.Context) string {
	if b.cfg.ScreenshotDir == "" {
		return ""
	}
	var buf []byte
	shotCtx, cancel := context.WithTimeout(browserCtx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(shotCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		b.log.Debugw("Screenshot capture failed", "error", err)
		return ""
	}

	if err := os.MkdirAll(b.cfg.ScreenshotDir, 0o755); err != nil {
		return ""
	}
	path := filepath.Join(b.cfg.ScreenshotDir, fmt.Sprintf("fill-%d.png", time.Now().UnixNano()))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		b.log.Debugw("Screenshot write failed", "error", err)
		return ""
	}
	return path
}

// fillIfPresent types value into the first match of sel, silently skipping
// fields this company's form does not have.
func fillIfPresent(sel, value string) chromedp.Action {
	if value == "" {
		return noop{}
	}
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.focus();
		return true;
	})()`, sel)
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var present bool
		if err := chromedp.Evaluate(js, &present).Do(ctx); err != nil {
			return err
		}
		if !present {
			return nil
		}
		return chromedp.SendKeys(sel, value, chromedp.ByQuery).Do(ctx)
	})
}

// uploadResume attaches the resume to the first matching file input.
func uploadResume(selectors []string, resumePath string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if resumePath == "" {
			return fmt.Errorf("no resume to upload")
		}
		for _, sel := range selectors {
			var present bool
			js := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
			if err := chromedp.Evaluate(js, &present).Do(ctx); err != nil {
				return err
			}
			if !present {
				continue
			}
			return chromedp.SetUploadFiles(sel, []string{resumePath}, chromedp.ByQuery).Do(ctx)
		}
		return fmt.Errorf("resume upload field not found")
	})
}

// clickSubmit clicks the first visible selector from the list.
func clickSubmit(selectors []string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, sel := range selectors {
			var present bool
			js := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
			if err := chromedp.Evaluate(js, &present).Do(ctx); err != nil {
				return err
			}
			if !present {
				continue
			}
			return chromedp.Click(sel, chromedp.ByQuery).Do(ctx)
		}
		return fmt.Errorf("submit button not found")
	})
}

type noop struct{}

func (noop) Do(context.Context) error { return nil }

// slugify keeps attribute values to lowercase alphanumerics and dashes.
func slugify(s string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

var _ pipeline.FormFiller = (*Lever)(nil)
var _ pipeline.FormFiller = (*Greenhouse)(nil)
var _ pipeline.FormFiller = (*Ashby)(nil)
var _ pipeline.FormFiller = (*Workday)(nil)
