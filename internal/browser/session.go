// Package browser owns the controlled-browser boundary: a Session exposes
// the small set of navigation and DOM-query primitives the scrape core is
// allowed to use, and ChromeSession implements it over chromedp.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rs/zerolog/log"
)

// Session is the full collaborator surface consumed by the scrape core.
// Element-level operations address elements as (selector, index) into the
// current match set, so the core never holds raw DOM handles.
type Session interface {
	// Navigate opens the given address and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// SubmitText types text into the control matching selector and confirms
	// with Enter.
	SubmitText(ctx context.Context, selector, text string) error
	// WaitVisible blocks until an element matching selector is visible or the
	// bounded timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Count returns the number of elements currently matching selector.
	Count(ctx context.Context, selector string) (int, error)
	// Text returns the trimmed text content of match #index. The bool is
	// false when no such element exists.
	Text(ctx context.Context, selector string, index int) (string, bool, error)
	// Attribute returns the named attribute of match #index. The bool is
	// false when the element or attribute is absent.
	Attribute(ctx context.Context, selector string, index int, name string) (string, bool, error)
	// Click clicks match #index, scrolling it into view first.
	Click(ctx context.Context, selector string, index int) error
	// ScrollWheel dispatches a mouse-wheel gesture over the viewport.
	ScrollWheel(ctx context.Context, deltaY int) error
	// ScrollIntoView brings the first match of selector into the viewport.
	ScrollIntoView(ctx context.Context, selector string) error
	// Location returns the current page address.
	Location(ctx context.Context) (string, error)
	// HTML returns the full rendered document source.
	HTML(ctx context.Context) (string, error)
	// Close releases the browser and all automation handles. Safe to call on
	// every exit path.
	Close() error
}

// Options configures a Chrome session.
type Options struct {
	Headless   bool
	ChromePath string
	UserAgent  string
}

// stealthScript hides the usual automation tells before any page script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => false });
window.chrome = { runtime: {}, loadTimes: () => {}, csi: () => {} };
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
`

// ChromeSession drives a single Chrome tab. One session per run; no state is
// shared across sessions.
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChromeSession launches Chrome and returns a ready session. The caller
// must Close it on every exit path.
func NewChromeSession(ctx context.Context, opts Options) (*ChromeSession, error) {
	chromePath := opts.ChromePath
	if chromePath == "" {
		chromePath = FindChrome()
	}

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1366,768"),
	}
	if chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &ChromeSession{ctx: browserCtx, cancel: browserCancel, allocCancel: allocCancel}

	// Warm up the tab and install the stealth script for every subsequent
	// navigation.
	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	log.Debug().Bool("headless", opts.Headless).Str("chrome", chromePath).Msg("Browser session ready")
	return s, nil
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *ChromeSession) SubmitText(ctx context.Context, selector, text string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text+kb.Enter, chromedp.ByQuery),
	)
}

func (s *ChromeSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	bound, unbind := s.bind(ctx)
	defer unbind()
	waitCtx, cancel := context.WithTimeout(bound, timeout)
	defer cancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

func (s *ChromeSession) Count(ctx context.Context, selector string) (int, error) {
	var n int
	expr := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
	if err := s.run(ctx, chromedp.Evaluate(expr, &n)); err != nil {
		return 0, err
	}
	return n, nil
}

// jsLookup is the shape returned by the element-level evaluate helpers.
type jsLookup struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

func (s *ChromeSession) Text(ctx context.Context, selector string, index int) (string, bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%q)[%d];
		if (!el) return { found: false, value: "" };
		return { found: true, value: (el.textContent || "").trim() };
	})()`, selector, index)

	var res jsLookup
	if err := s.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return "", false, err
	}
	return res.Value, res.Found, nil
}

func (s *ChromeSession) Attribute(ctx context.Context, selector string, index int, name string) (string, bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%q)[%d];
		if (!el) return { found: false, value: "" };
		const v = el.getAttribute(%q);
		if (v === null) return { found: false, value: "" };
		return { found: true, value: v };
	})()`, selector, index, name)

	var res jsLookup
	if err := s.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return "", false, err
	}
	return res.Value, res.Found, nil
}

func (s *ChromeSession) Click(ctx context.Context, selector string, index int) error {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%q)[%d];
		if (!el) return false;
		el.scrollIntoView({ block: "center" });
		el.click();
		return true;
	})()`, selector, index)

	var clicked bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("no element at %q[%d]", selector, index)
	}
	return nil
}

func (s *ChromeSession) ScrollWheel(ctx context.Context, deltaY int) error {
	// Dispatch over the left third of the viewport where the results panel
	// sits, so the wheel event lands on the virtualized list.
	return s.run(ctx,
		input.DispatchMouseEvent(input.MouseWheel, 300, 400).
			WithDeltaX(0).
			WithDeltaY(float64(deltaY)),
	)
}

func (s *ChromeSession) ScrollIntoView(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.ScrollIntoView(selector, chromedp.ByQuery))
}

func (s *ChromeSession) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close tears down the tab, the browser process, and the allocator.
func (s *ChromeSession) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	log.Debug().Msg("Browser session closed")
	return nil
}

// bind layers the caller's cancellation over the session's browser context.
// The returned cancel func must be called to release the watcher goroutine.
func (s *ChromeSession) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return s.ctx, func() {}
	}
	bound, cancel := context.WithCancel(s.ctx)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-bound.Done():
		}
	}()
	return bound, cancel
}

func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	bound, unbind := s.bind(ctx)
	defer unbind()
	return chromedp.Run(bound, actions...)
}
