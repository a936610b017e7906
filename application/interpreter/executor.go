package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scrapeflow/domain/entities"
	"scrapeflow/domain/interfaces"
)

// actionSleep is the small pause the main loop takes after every action, so
// a page has a chance to react (navigation, a rendered popup) before the
// next guard evaluation.
const actionSleep = 500 * time.Millisecond

// actionRetryBackoff is the pause before the one retry attempt of click and
// waitForLoadState, the two driver methods most prone to a transient miss
// (element not yet interactive, load event not yet settled).
const actionRetryBackoff = 300 * time.Millisecond

func decodeArgs(args any, out any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// executeAction dispatches one What entry against the fixed tables of
// validate.go. Unknown names cannot reach here: Validate already rejected
// them at parse time.
func (in *Interpreter) executeAction(ctx context.Context, driver interfaces.Driver, action entities.Action) error {
	switch action.Name {
	case "noop":
		return nil

	case "click":
		var a struct {
			Selector string `json:"selector"`
			Force    bool   `json:"force,omitempty"`
		}
		if err := decodeArgs(action.Args, &a); err != nil {
			return fmt.Errorf("click: %w", err)
		}
		err := driver.Click(ctx, a.Selector, interfaces.ClickOptions{Force: a.Force})
		if err != nil {
			time.Sleep(actionRetryBackoff)
			err = driver.Click(ctx, a.Selector, interfaces.ClickOptions{Force: true})
		}
		return err

	case "type":
		var a struct {
			Selector string `json:"selector"`
			Text     string `json:"text"`
		}
		if err := decodeArgs(action.Args, &a); err != nil {
			return fmt.Errorf("type: %w", err)
		}
		return driver.Fill(ctx, a.Selector, a.Text)

	case "press":
		var a struct {
			Selector string `json:"selector"`
			Key      string `json:"key"`
		}
		if err := decodeArgs(action.Args, &a); err != nil {
			return fmt.Errorf("press: %w", err)
		}
		return driver.Press(ctx, a.Selector, a.Key)

	case "waitForLoadState":
		var a struct {
			State string `json:"state"`
		}
		if err := decodeArgs(action.Args, &a); err != nil {
			return fmt.Errorf("waitForLoadState: %w", err)
		}
		err := driver.WaitForLoadState(ctx, a.State)
		if err != nil {
			time.Sleep(actionRetryBackoff)
			err = driver.WaitForLoadState(ctx, "domcontentloaded")
		}
		return err

	case "goto":
		var a struct {
			URL       string `json:"url"`
			WaitUntil string `json:"waitUntil,omitempty"`
			TimeoutMS int    `json:"timeoutMs,omitempty"`
		}
		if err := decodeArgs(action.Args, &a); err != nil {
			return fmt.Errorf("goto: %w", err)
		}
		opts := interfaces.NavigateOptions{WaitUntil: a.WaitUntil}
		if a.TimeoutMS > 0 {
			opts.Timeout = time.Duration(a.TimeoutMS) * time.Millisecond
		}
		return driver.Goto(ctx, a.URL, opts)

	case "scroll":
		var a struct {
			N int `json:"n"`
		}
		if err := decodeArgs(action.Args, &a); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		if a.N == 0 {
			a.N = 1
		}
		return driver.ScrollPages(ctx, a.N)

	case "script":
		var a struct {
			Code string `json:"code"`
		}
		if err := decodeArgs(action.Args, &a); err != nil {
			return fmt.Errorf("script: %w", err)
		}
		_, err := driver.Evaluate(ctx, a.Code)
		return err

	case "screenshot":
		var a struct {
			FullPage bool `json:"fullPage,omitempty"`
		}
		_ = decodeArgs(action.Args, &a)
		data, err := driver.Screenshot(ctx, interfaces.ScreenshotOptions{FullPage: a.FullPage})
		if err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
		in.opts.Host.Binary(data, "image/png")
		return nil

	case "scrape":
		var a struct {
			Selector string `json:"selector,omitempty"`
		}
		_ = decodeArgs(action.Args, &a)
		record, err := scrapeOne(ctx, driver, a.Selector)
		if err != nil {
			return err
		}
		in.opts.Host.Serializable(record)
		return nil

	case "scrapeSchema":
		var fields entities.SchemaArgs
		if err := decodeArgs(action.Args, &fields); err != nil {
			return fmt.Errorf("scrapeSchema: %w", err)
		}
		record, err := scrapeSchemaFields(ctx, driver, fields)
		if err != nil {
			return err
		}
		merged := in.mergeSchemaBuffer(record)
		in.opts.Host.Serializable(merged)
		return nil

	case "scrapeList":
		var a entities.ScrapeListArgs
		if err := decodeArgs(action.Args, &a); err != nil {
			return fmt.Errorf("scrapeList: %w", err)
		}
		pagination := a.Pagination
		if a.Limit > 0 && (pagination.Limit == 0 || a.Limit < pagination.Limit) {
			pagination.Limit = a.Limit
		}
		records, err := RunPagination(ctx, driver, a.ListSelector, a.Fields, pagination, in.opts.Logger)
		if err != nil {
			return err
		}
		if a.Limit > 0 && len(records) > a.Limit {
			records = records[:a.Limit]
		}
		in.opts.Host.Serializable(records)
		return nil

	case "scrapeListAuto":
		var a struct {
			ListSelector string `json:"listSelector,omitempty"`
		}
		_ = decodeArgs(action.Args, &a)
		items, err := scrapeListAuto(ctx, driver, a.ListSelector)
		if err != nil {
			return err
		}
		in.opts.Host.Serializable(items)
		return nil

	case "enqueueLinks":
		var a struct {
			Selector string `json:"selector"`
		}
		if err := decodeArgs(action.Args, &a); err != nil {
			return fmt.Errorf("enqueueLinks: %w", err)
		}
		return in.enqueueLinks(ctx, driver, a.Selector)

	case "flag":
		done := make(chan struct{})
		in.opts.Host.Flag(driver, func() {
			select {
			case <-done:
			default:
				close(done)
			}
		})
		select {
		case <-done:
		case <-ctx.Done():
		}
		return nil

	default:
		return fmt.Errorf("interpreter: no executor wired for action %q", action.Name)
	}
}

// mergeSchemaBuffer applies the first-non-empty-wins policy of SPEC_FULL.md
// §8 to the per-Interpreter cumulative scrape buffer and returns a copy of
// the merged result.
func (in *Interpreter) mergeSchemaBuffer(record entities.Record) entities.Record {
	in.bufMu.Lock()
	defer in.bufMu.Unlock()
	for k, v := range record {
		if v == "" {
			continue
		}
		if existing, ok := in.buffer[k]; !ok || existing == "" {
			in.buffer[k] = v
		}
	}
	out := make(entities.Record, len(in.buffer))
	for k, v := range in.buffer {
		out[k] = v
	}
	return out
}

// enqueueLinks resolves selector's hrefs and spawns a fresh main loop over
// each, running the current workflow from scratch on its own page, bounded
// by the interpreter's worker pool. The page enqueueLinks fired from is then
// closed: control passes entirely to the spawned pages (spec.md §4.7).
func (in *Interpreter) enqueueLinks(ctx context.Context, driver interfaces.Driver, selector string) error {
	urls, err := driver.Links(ctx, selector)
	if err != nil {
		return fmt.Errorf("enqueueLinks: %w", err)
	}

	workflow := in.activeWorkflow()
	for _, url := range urls {
		u := url
		in.pool.submit(func() {
			page, err := driver.NewPage(ctx)
			if err != nil {
				in.opts.Logger.Warnf("enqueueLinks: could not open page for %s: %v", u, err)
				return
			}
			if err := page.Goto(ctx, u, interfaces.NavigateOptions{}); err != nil {
				in.opts.Logger.Warnf("enqueueLinks: could not navigate to %s: %v", u, err)
				page.Close()
				return
			}
			in.runPage(ctx, page, workflow.Clone(), nil)
		})
	}

	return driver.Close()
}
