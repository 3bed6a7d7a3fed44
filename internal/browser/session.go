// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/api/schemas"
	"github.com/avelasco-eng/ariadne/internal/config"
)

// Session owns one headless browser tab for the lifetime of a task run. It
// exposes the small set of primitives the navigation agent needs; element
// resolution and decision making stay outside.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    *config.Config

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	mu            sync.Mutex
	browserErrors []string

	closeOnce sync.Once
}

// NewSession launches the browser and opens a fresh tab.
func NewSession(parentCtx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	log := logger.Named("browser_session").With(zap.String("session_id", sessionID))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
	)
	if cfg.Browser.DisableCache {
		opts = append(opts, chromedp.Flag("disk-cache-size", "0"))
	}
	if cfg.Browser.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	if cfg.Browser.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.Browser.UserDataDir))
	}
	for _, arg := range cfg.Browser.Args {
		opts = append(opts, chromedp.Flag(strings.TrimLeft(arg, "-"), true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		id:          sessionID,
		logger:      log,
		cfg:         cfg,
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
	}

	// Surface page-level JS exceptions to the agent as navigation evidence.
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if exc, ok := ev.(*runtime.EventExceptionThrown); ok && exc.ExceptionDetails != nil {
			s.recordBrowserError(exc.ExceptionDetails.Text)
		}
	})

	// Starting the browser eagerly turns launch failures into constructor
	// errors instead of failing on the first navigation.
	startCtx, startCancel := context.WithTimeout(ctx, 60*time.Second)
	defer startCancel()
	if err := chromedp.Run(startCtx, s.viewportAction()); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Info("Browser session started.", zap.Bool("headless", cfg.Browser.Headless))
	return s, nil
}

func (s *Session) viewportAction() chromedp.Action {
	width, height := int64(1280), int64(900)
	if v := s.cfg.Browser.Viewport; v != nil {
		if w, ok := v["width"]; ok && w > 0 {
			width = int64(w)
		}
		if h, ok := v["height"]; ok && h > 0 {
			height = int64(h)
		}
	}
	return emulation.SetDeviceMetricsOverride(width, height, 1.0, false)
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) recordBrowserError(msg string) {
	if msg == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Keep a short window of recent errors; old ones stop being useful fast.
	if len(s.browserErrors) >= 20 {
		s.browserErrors = s.browserErrors[1:]
	}
	s.browserErrors = append(s.browserErrors, msg)
}

// DrainBrowserErrors returns and clears the JS errors observed since the last
// call.
func (s *Session) DrainBrowserErrors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := s.browserErrors
	s.browserErrors = nil
	return errs
}

// Navigate loads a URL and waits for the page to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := s.cfg.Network.NavigationTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	navCtx, cancel := s.opContext(ctx, timeout)
	defer cancel()

	s.logger.Info("Navigating.", zap.String("url", url))
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if wait := s.cfg.Network.PostLoadWait; wait > 0 {
		actions = append(actions, chromedp.Sleep(wait))
	}
	if err := chromedp.Run(navCtx, actions...); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Click clicks the first element matching the CSS selector.
func (s *Session) Click(ctx context.Context, selector string) error {
	clickCtx, cancel := s.opContext(ctx, s.actionTimeout())
	defer cancel()
	if err := chromedp.Run(clickCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// Input clears the matching element and types value into it.
func (s *Session) Input(ctx context.Context, selector, value string) error {
	inputCtx, cancel := s.opContext(ctx, s.actionTimeout())
	defer cancel()
	if err := chromedp.Run(inputCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("input into %q failed: %w", selector, err)
	}
	return nil
}

// Scroll moves the viewport one screen up or down.
func (s *Session) Scroll(ctx context.Context, direction string) error {
	js := "window.scrollBy(0, window.innerHeight * 0.8)"
	if direction == "up" {
		js = "window.scrollBy(0, -window.innerHeight * 0.8)"
	}
	scrollCtx, cancel := s.opContext(ctx, s.actionTimeout())
	defer cancel()
	if err := chromedp.Run(scrollCtx, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("scroll %s failed: %w", direction, err)
	}
	return nil
}

// PageText returns the rendered text content of the current page.
func (s *Session) PageText(ctx context.Context) (string, error) {
	var text string
	textCtx, cancel := s.opContext(ctx, s.actionTimeout())
	defer cancel()
	if err := chromedp.Run(textCtx,
		chromedp.Evaluate("document.body ? document.body.innerText : ''", &text),
	); err != nil {
		return "", fmt.Errorf("failed to read page text: %w", err)
	}
	return text, nil
}

// CaptureState reads the current URL, title and pending browser errors.
func (s *Session) CaptureState(ctx context.Context) (schemas.PageState, error) {
	var state schemas.PageState
	stateCtx, cancel := s.opContext(ctx, s.actionTimeout())
	defer cancel()
	if err := chromedp.Run(stateCtx,
		chromedp.Location(&state.URL),
		chromedp.Title(&state.Title),
	); err != nil {
		return schemas.PageState{}, fmt.Errorf("failed to capture page state: %w", err)
	}
	state.BrowserErrors = s.DrainBrowserErrors()
	return state, nil
}

func (s *Session) actionTimeout() time.Duration {
	if s.cfg.Network.Timeout > 0 {
		return s.cfg.Network.Timeout
	}
	return 30 * time.Second
}

// opContext derives a per-action context from the session's browser context
// with the given timeout, cancelled early if opCtx ends first. The returned
// cancel must be called; it also detaches the opCtx watcher so nothing
// outlives the action.
func (s *Session) opContext(opCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	if opCtx == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(opCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Close shuts the tab and the browser down. Safe to call multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing browser session.")
		s.cancel()
		s.allocCancel()
	})
	return nil
}
