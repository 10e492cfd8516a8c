package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/jonesrussell/regcheck/internal/scrape"
)

// Selector chains tried in order. The site has shuffled its form markup
// between deployments, so older selectors stay as fallbacks.
var (
	inputSelectors = []string{
		"#reg_num",
		"input[name='reg_num']",
		"input[placeholder*='REG']",
		"#vrm",
		"input[type='text']",
	}
	submitSelectors = []string{
		"input[type='submit']",
		"button[type='submit']",
		".submit-btn",
		"button",
	}
)

const (
	windowWidth  = 1920
	windowHeight = 1080
)

const bodyTextScript = "document.body ? document.body.innerText : ''"

// Session mechanics failures. Both are retriable from the caller's side.
var (
	errInputNotFound = errors.New("registration input not found")
	errPageNotReady  = errors.New("results page not ready")
)

// runChromeSession performs one complete automation attempt in a fresh
// browser: navigate, locate the registration input, type, submit, then poll
// until the results page settles into a terminal shape. The browser is torn
// down when the attempt returns.
func (e *Extractor) runChromeSession(ctx context.Context, registration string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.cfg.Headless),
		chromedp.UserAgent(e.cfg.UserAgent),
		chromedp.WindowSize(windowWidth, windowHeight),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithErrorf(e.driverLogf))
	defer cancelTask()

	if err := e.navigate(taskCtx); err != nil {
		return "", err
	}

	inputSel, err := e.firstPresent(taskCtx, inputSelectors, e.cfg.ElementWaitTimeout)
	if err != nil {
		return "", err
	}
	if inputSel == "" {
		return "", errInputNotFound
	}

	if err := e.submitSearch(taskCtx, inputSel, registration); err != nil {
		return "", err
	}

	return e.waitForResults(taskCtx)
}

func (e *Extractor) navigate(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, e.cfg.PageLoadTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(e.cfg.BaseURL)); err != nil {
		return fmt.Errorf("navigate to %s: %w", e.cfg.BaseURL, err)
	}
	return nil
}

// firstPresent returns the first selector in the chain present in the DOM,
// sweeping the whole chain once per poll tick until the timeout. A zero
// timeout means a single sweep. Returns "" when nothing matched.
func (e *Extractor) firstPresent(ctx context.Context, selectors []string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	for {
		for _, sel := range selectors {
			var found bool
			script := fmt.Sprintf("document.querySelector(%q) !== null", sel)
			if err := chromedp.Run(ctx, chromedp.Evaluate(script, &found)); err != nil {
				return "", fmt.Errorf("query selector %s: %w", sel, err)
			}
			if found {
				return sel, nil
			}
		}

		if !time.Now().Before(deadline) {
			return "", nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.cfg.PollInterval):
		}
	}
}

// submitSearch types the registration into the located input and submits the
// form, clicking the first submit control present or falling back to Enter.
func (e *Extractor) submitSearch(ctx context.Context, inputSel, registration string) error {
	err := chromedp.Run(ctx,
		chromedp.WaitVisible(inputSel, chromedp.ByQuery),
		chromedp.SetValue(inputSel, "", chromedp.ByQuery),
		chromedp.SendKeys(inputSel, registration, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("type registration: %w", err)
	}

	submitSel, err := e.firstPresent(ctx, submitSelectors, 0)
	if err != nil {
		return err
	}

	if submitSel != "" {
		if err := chromedp.Run(ctx, chromedp.Click(submitSel, chromedp.ByQuery)); err == nil {
			return nil
		}
	}

	if err := chromedp.Run(ctx, chromedp.SendKeys(inputSel, kb.Enter, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	return nil
}

// waitForResults polls the rendered page text until it settles into one of
// the three terminal shapes: a details page, the not-found page, or a
// challenge page. A timeout returns the last text seen with errPageNotReady.
func (e *Extractor) waitForResults(ctx context.Context) (string, error) {
	deadline := time.Now().Add(e.cfg.ElementWaitTimeout)

	var text string
	for {
		if err := chromedp.Run(ctx, chromedp.Evaluate(bodyTextScript, &text)); err != nil {
			return "", fmt.Errorf("read page text: %w", err)
		}

		if scrape.IsDetailsPageReady(text) ||
			scrape.ContainsNotFoundMarker(text) ||
			scrape.ContainsBlockedMarker(text) {
			return text, nil
		}

		if !time.Now().Before(deadline) {
			return text, errPageNotReady
		}

		select {
		case <-ctx.Done():
			return text, ctx.Err()
		case <-time.After(e.cfg.PollInterval):
		}
	}
}

// driverLogf routes chromedp's internal errors to debug logging.
func (e *Extractor) driverLogf(format string, args ...any) {
	e.log.Debug("chromedp: " + fmt.Sprintf(format, args...))
}
