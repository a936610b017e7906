package interfaces

import (
	"context"
	"time"
)

// NavigateOptions configures a Goto call.
type NavigateOptions struct {
	WaitUntil string        // "load", "domcontentloaded", "networkidle"
	Timeout   time.Duration
}

// ClickOptions configures a Click call.
type ClickOptions struct {
	Force bool
}

// ScreenshotOptions configures a Screenshot call.
type ScreenshotOptions struct {
	FullPage bool
}

// Driver is everything the interpreter needs from a live, controllable
// browser page. infrastructure/browserdriver implements it on top of
// Playwright; tests implement it with an in-process fake. The interpreter
// core never sees a concrete browser type.
type Driver interface {
	// URL returns the page's current URL.
	URL() string

	// Cookies returns the cookie jar flattened to name→value, scoped to
	// the page's current URL.
	Cookies(ctx context.Context) (map[string]string, error)

	// IsAttached reports whether selector is attached to the DOM within
	// the given timeout. Never returns an error: a timeout means "not
	// attached", matching the extractor's drop-on-timeout contract (§4.3).
	IsAttached(ctx context.Context, selector string, timeout time.Duration) bool

	// Goto navigates to url.
	Goto(ctx context.Context, url string, opts NavigateOptions) error

	// WaitForLoadState waits for the named load state.
	WaitForLoadState(ctx context.Context, state string) error

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string, opts ClickOptions) error

	// Fill clears and types text into the first element matching selector.
	Fill(ctx context.Context, selector, text string) error

	// Press sends a key to the first element matching selector.
	Press(ctx context.Context, selector, key string) error

	// Screenshot captures the page as PNG bytes.
	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)

	// Evaluate runs a JavaScript expression in the page and returns its
	// JSON-decoded result.
	Evaluate(ctx context.Context, script string, args ...any) (any, error)

	// ScrollPages scrolls the viewport down (positive n) or up (negative
	// n) by roughly n viewport heights.
	ScrollPages(ctx context.Context, n int) error

	// Links returns the resolved href of every element matching selector.
	Links(ctx context.Context, selector string) ([]string, error)

	// HistoryForward navigates forward in session history, best-effort.
	HistoryForward(ctx context.Context) error

	// NewPage opens a fresh page in the same browser context.
	NewPage(ctx context.Context) (Driver, error)

	// OnPopup registers a callback invoked once per popup window opened
	// from this page, wrapped as a Driver.
	OnPopup(func(Driver))

	// Closed reports whether the underlying page has been closed, by the
	// host or by the remote end.
	Closed() bool

	// Close closes the underlying page.
	Close() error
}
