package interpreter

import (
	"context"
	"sync"
	"time"

	"scrapeflow/domain/interfaces"
)

// fakeDriver is a minimal in-process interfaces.Driver used by every test in
// this package. Each hook defaults to a harmless behavior; tests override
// only the hooks they care about.
type fakeDriver struct {
	mu sync.Mutex

	url       string
	cookies   map[string]string
	attached  map[string]bool
	closed    bool
	evaluate  func(ctx context.Context, script string, args ...any) (any, error)
	links     func(ctx context.Context, selector string) ([]string, error)
	newPage   func(ctx context.Context) (interfaces.Driver, error)
	onPopup   func(interfaces.Driver)
	onClick   func(selector string)
	clicks    []string
	fills     []string
	scrolls   []int
	forwarded int
}

func newFakeDriver(url string) *fakeDriver {
	return &fakeDriver{
		url:      url,
		cookies:  map[string]string{},
		attached: map[string]bool{},
	}
}

func (d *fakeDriver) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

func (d *fakeDriver) setURL(u string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = u
}

func (d *fakeDriver) Cookies(ctx context.Context) (map[string]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.cookies))
	for k, v := range d.cookies {
		out[k] = v
	}
	return out, nil
}

func (d *fakeDriver) IsAttached(ctx context.Context, selector string, timeout time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attached[selector]
}

func (d *fakeDriver) Goto(ctx context.Context, url string, opts interfaces.NavigateOptions) error {
	d.setURL(url)
	return nil
}

func (d *fakeDriver) WaitForLoadState(ctx context.Context, state string) error { return nil }

func (d *fakeDriver) Click(ctx context.Context, selector string, opts interfaces.ClickOptions) error {
	d.mu.Lock()
	d.clicks = append(d.clicks, selector)
	onClick := d.onClick
	d.mu.Unlock()
	if onClick != nil {
		onClick(selector)
	}
	return nil
}

func (d *fakeDriver) Fill(ctx context.Context, selector, text string) error {
	d.mu.Lock()
	d.fills = append(d.fills, selector+"="+text)
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) Press(ctx context.Context, selector, key string) error { return nil }

func (d *fakeDriver) Screenshot(ctx context.Context, opts interfaces.ScreenshotOptions) ([]byte, error) {
	return []byte("fake-png"), nil
}

func (d *fakeDriver) Evaluate(ctx context.Context, script string, args ...any) (any, error) {
	if d.evaluate != nil {
		return d.evaluate(ctx, script, args...)
	}
	return nil, nil
}

func (d *fakeDriver) ScrollPages(ctx context.Context, n int) error {
	d.mu.Lock()
	d.scrolls = append(d.scrolls, n)
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) Links(ctx context.Context, selector string) ([]string, error) {
	if d.links != nil {
		return d.links(ctx, selector)
	}
	return nil, nil
}

func (d *fakeDriver) HistoryForward(ctx context.Context) error {
	d.mu.Lock()
	d.forwarded++
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) NewPage(ctx context.Context) (interfaces.Driver, error) {
	if d.newPage != nil {
		return d.newPage(ctx)
	}
	return newFakeDriver("about:blank"), nil
}

func (d *fakeDriver) OnPopup(cb func(interfaces.Driver)) {
	d.mu.Lock()
	d.onPopup = cb
	d.mu.Unlock()
}

func (d *fakeDriver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}
