package browserdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"

	"scrapeflow/domain/interfaces"
)

const browserStateDir = ".scrapeflow_state"
const browserStateFile = "state.json"

// LaunchOptions configures the Chromium browser and context a Launcher
// spins up. It is the playwright-go-facing counterpart of config.Config.
type LaunchOptions struct {
	Headless          bool
	NavigationTimeout time.Duration
	UserAgent         string
}

func (o LaunchOptions) withDefaults() LaunchOptions {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 30 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	return o
}

// Launcher owns the Playwright process, browser, and a single persistent
// context; every page it hands out (via NewDriver or a page's own NewPage)
// shares that context's cookie jar and storage state.
type Launcher struct {
	pw          *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	storagePath string
	navTimeout  time.Duration
}

// Launch starts Playwright, launches Chromium, and opens a context with
// storage state restored from disk if present, following the permission
// grants and launch flags of the teacher's browser controller.
func Launch(opts LaunchOptions) (*Launcher, error) {
	opts = opts.withDefaults()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("browserdriver: failed to start playwright: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	stateDir := filepath.Join(homeDir, browserStateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		pw.Stop()
		return nil, fmt.Errorf("browserdriver: failed to create state directory: %w", err)
	}
	storagePath := filepath.Join(stateDir, browserStateFile)

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport:          &playwright.Size{Width: 1280, Height: 720},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
		AcceptDownloads:   playwright.Bool(true),
		UserAgent:         playwright.String(opts.UserAgent),
	}

	if data, err := os.ReadFile(storagePath); err == nil {
		var state playwright.StorageState
		if err := json.Unmarshal(data, &state); err == nil {
			contextOptions.StorageState = state.ToOptionalStorageState()
		}
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-popup-blocking",
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("browserdriver: failed to launch chromium: %w", err)
	}

	ctx, err := browser.NewContext(contextOptions)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("browserdriver: failed to create context: %w", err)
	}

	ctx.GrantPermissions([]string{"geolocation", "notifications", "clipboard-read", "clipboard-write"},
		playwright.BrowserContextGrantPermissionsOptions{Origin: playwright.String("*")})

	return &Launcher{
		pw:          pw,
		browser:     browser,
		context:     ctx,
		storagePath: storagePath,
		navTimeout:  opts.NavigationTimeout,
	}, nil
}

// NewDriver opens a fresh page in the Launcher's context and wraps it as an
// interfaces.Driver, for the entrypoint's initial Run call.
func (l *Launcher) NewDriver(ctx context.Context) (interfaces.Driver, error) {
	page, err := l.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("browserdriver: failed to open page: %w", err)
	}
	return wrapPage(page, l.navTimeout), nil
}

// SaveState persists the context's cookies and local storage to disk, so a
// later run can resume logged-in sessions. Mirrors the teacher's SaveState.
func (l *Launcher) SaveState() error {
	_, err := l.context.StorageState(l.storagePath)
	return err
}

// Close saves state, then tears down the browser and the Playwright driver
// process.
func (l *Launcher) Close() error {
	saveErr := l.SaveState()
	if err := l.context.Close(); err != nil && saveErr == nil {
		saveErr = err
	}
	if err := l.browser.Close(); err != nil && saveErr == nil {
		saveErr = err
	}
	l.pw.Stop()
	return saveErr
}

// driver adapts one playwright.Page to interfaces.Driver.
type driver struct {
	page       playwright.Page
	navTimeout time.Duration
	closed     atomic.Bool
	popupMu    sync.Mutex
	onPopup    func(interfaces.Driver)
}

func wrapPage(page playwright.Page, navTimeout time.Duration) *driver {
	d := &driver{page: page, navTimeout: navTimeout}

	page.OnClose(func(playwright.Page) { d.closed.Store(true) })
	page.OnDialog(func(dialog playwright.Dialog) { dialog.Accept() })
	page.OnPopup(func(popup playwright.Page) {
		d.popupMu.Lock()
		cb := d.onPopup
		d.popupMu.Unlock()
		if cb != nil {
			cb(wrapPage(popup, navTimeout))
		}
	})

	return d
}

func (d *driver) URL() string {
	return d.page.URL()
}

func (d *driver) Cookies(ctx context.Context) (map[string]string, error) {
	cookies, err := d.page.Context().Cookies(d.page.URL())
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c.Value
	}
	return out, nil
}

func (d *driver) IsAttached(ctx context.Context, selector string, timeout time.Duration) bool {
	err := d.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err == nil
}

func (d *driver) Goto(ctx context.Context, url string, opts interfaces.NavigateOptions) error {
	gotoOpts := playwright.PageGotoOptions{Timeout: playwright.Float(float64(d.navTimeout.Milliseconds()))}
	if opts.WaitUntil != "" {
		gotoOpts.WaitUntil = waitUntilState(opts.WaitUntil)
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = playwright.Float(float64(opts.Timeout.Milliseconds()))
	}
	_, err := d.page.Goto(url, gotoOpts)
	return err
}

func (d *driver) WaitForLoadState(ctx context.Context, state string) error {
	return d.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: loadState(state)})
}

func (d *driver) Click(ctx context.Context, selector string, opts interfaces.ClickOptions) error {
	locator := d.page.Locator(selector).First()
	if err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	}); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return locator.Click(playwright.LocatorClickOptions{Force: playwright.Bool(opts.Force)})
}

func (d *driver) Fill(ctx context.Context, selector, text string) error {
	locator := d.page.Locator(selector).First()
	if err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	}); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	return locator.Fill(text)
}

func (d *driver) Press(ctx context.Context, selector, key string) error {
	return d.page.Locator(selector).First().Press(key)
}

func (d *driver) Screenshot(ctx context.Context, opts interfaces.ScreenshotOptions) ([]byte, error) {
	return d.page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(opts.FullPage)})
}

func (d *driver) Evaluate(ctx context.Context, script string, args ...any) (any, error) {
	if len(args) == 0 {
		return d.page.Evaluate(script)
	}
	if len(args) == 1 {
		return d.page.Evaluate(script, args[0])
	}
	return d.page.Evaluate(script, args)
}

func (d *driver) ScrollPages(ctx context.Context, n int) error {
	_, err := d.page.Evaluate(`(n) => window.scrollBy(0, n * window.innerHeight)`, n)
	return err
}

func (d *driver) Links(ctx context.Context, selector string) ([]string, error) {
	result, err := d.page.Evaluate(`(sel) => Array.from(document.querySelectorAll(sel)).map(a => a.href).filter(Boolean)`, selector)
	if err != nil {
		return nil, err
	}
	items, _ := result.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *driver) HistoryForward(ctx context.Context) error {
	_, err := d.page.GoForward()
	return err
}

func (d *driver) NewPage(ctx context.Context) (interfaces.Driver, error) {
	newPage, err := d.page.Context().NewPage()
	if err != nil {
		return nil, err
	}
	return wrapPage(newPage, d.navTimeout), nil
}

func (d *driver) OnPopup(cb func(interfaces.Driver)) {
	d.popupMu.Lock()
	d.onPopup = cb
	d.popupMu.Unlock()
}

func (d *driver) Closed() bool {
	return d.closed.Load()
}

func (d *driver) Close() error {
	return d.page.Close()
}

func waitUntilState(state string) *playwright.WaitUntilState {
	switch state {
	case "domcontentloaded":
		return playwright.WaitUntilStateDomcontentloaded
	case "networkidle":
		return playwright.WaitUntilStateNetworkidle
	case "commit":
		return playwright.WaitUntilStateCommit
	default:
		return playwright.WaitUntilStateLoad
	}
}

func loadState(state string) *playwright.LoadState {
	switch state {
	case "domcontentloaded":
		return playwright.LoadStateDomcontentloaded
	case "networkidle":
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateLoad
	}
}
