package interpreter

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"scrapeflow/domain/entities"
	"scrapeflow/domain/interfaces"
)

// paginationRetryBackoff is the 1s pause spec.md §4.6 prescribes between
// retry attempts on any pagination DOM interaction.
const paginationRetryBackoff = time.Second

// paginationMaxAttempts is the "three attempts each" retry budget of §4.6.
const paginationMaxAttempts = 3

// RunPagination drives scrapeList's pagination, dispatching to one of the
// five strategies of spec.md §4.6. It never returns an error for retry
// exhaustion (§7: "return the partial accumulated results; never throw"):
// a non-nil error here means the page itself is gone or an in-page list
// extraction failed.
func RunPagination(ctx context.Context, driver interfaces.Driver, listSelector string, fields map[string]entities.FieldSpec, spec entities.PaginationSpec, logger *logrus.Logger) ([]entities.Record, error) {
	switch spec.Type {
	case entities.PaginationScrollDown:
		return paginateScroll(ctx, driver, listSelector, fields, spec, 1)
	case entities.PaginationScrollUp:
		return paginateScroll(ctx, driver, listSelector, fields, spec, -1)
	case entities.PaginationClickNext:
		return paginateClickNext(ctx, driver, listSelector, fields, spec, logger)
	case entities.PaginationClickLoadMore:
		return paginateClickLoadMore(ctx, driver, listSelector, fields, spec, logger)
	default:
		items, err := scrapeListPage(ctx, driver, listSelector, fields)
		if err != nil {
			return nil, err
		}
		all, _ := dedupMerge(nil, map[string]struct{}{}, items, spec.Limit)
		return all, nil
	}
}

// dedupMerge appends items not already present in seen (by JSON identity)
// to all, stopping early once limit is reached. It returns the new slice
// and the count of items actually added.
func dedupMerge(all []entities.Record, seen map[string]struct{}, items []entities.Record, limit int) ([]entities.Record, int) {
	added := 0
	for _, item := range items {
		if limit > 0 && len(all) >= limit {
			break
		}
		key, err := json.Marshal(item)
		if err != nil {
			continue
		}
		if _, dup := seen[string(key)]; dup {
			continue
		}
		seen[string(key)] = struct{}{}
		all = append(all, item)
		added++
	}
	return all, added
}

func splitSelectors(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// computeSignature is the "first three items" content digest clickNext
// uses to tell a cosmetic re-render from an actual page change. Spec.md §9
// notes this can false-positive on small lists with identical prefixes;
// that risk is accepted as documented, not engineered away.
func computeSignature(items []entities.Record) string {
	n := len(items)
	if n > 3 {
		n = 3
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		b, _ := json.Marshal(items[i])
		parts[i] = string(b)
	}
	return strings.Join(parts, "|")
}

func measureExtent(ctx context.Context, driver interfaces.Driver) int {
	v, err := driver.Evaluate(ctx, `(function(){ return (document.scrollingElement || document.documentElement).scrollHeight; })`)
	if err != nil {
		return -1
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return -1
	}
}

// paginateScroll implements scrollDown (direction=1) and scrollUp
// (direction=-1): scroll, extract, compare scroll extent to the previous
// pass; a final extraction is done once the extent stops growing.
func paginateScroll(ctx context.Context, driver interfaces.Driver, listSelector string, fields map[string]entities.FieldSpec, spec entities.PaginationSpec, direction int) ([]entities.Record, error) {
	seen := map[string]struct{}{}
	var all []entities.Record
	prevExtent := -1

	for {
		if driver.Closed() {
			return all, errPageGone
		}
		if err := driver.ScrollPages(ctx, direction); err != nil {
			return all, nil
		}
		time.Sleep(paginationRetryBackoff)

		items, err := scrapeListPage(ctx, driver, listSelector, fields)
		if err != nil {
			return all, err
		}
		all, _ = dedupMerge(all, seen, items, spec.Limit)
		if spec.Limit > 0 && len(all) >= spec.Limit {
			return all, nil
		}

		extent := measureExtent(ctx, driver)
		if extent == prevExtent {
			if finalItems, err := scrapeListPage(ctx, driver, listSelector, fields); err == nil {
				all, _ = dedupMerge(all, seen, finalItems, spec.Limit)
			}
			return all, nil
		}
		prevExtent = extent
	}
}

// paginateClickNext implements the clickNext strategy: ordered candidate
// selectors, three attempts each with 1s backoff, permanent eviction on
// exhaustion, a visited-URL set to catch stuck navigation, and a single
// history.forward() fallback before giving up.
func paginateClickNext(ctx context.Context, driver interfaces.Driver, listSelector string, fields map[string]entities.FieldSpec, spec entities.PaginationSpec, logger *logrus.Logger) ([]entities.Record, error) {
	candidates := splitSelectors(spec.Selector)
	visited := map[string]struct{}{driver.URL(): {}}
	seen := map[string]struct{}{}
	var all []entities.Record

	items, err := scrapeListPage(ctx, driver, listSelector, fields)
	if err != nil {
		return all, err
	}
	all, _ = dedupMerge(all, seen, items, spec.Limit)
	if spec.Limit > 0 && len(all) >= spec.Limit {
		return all, nil
	}

	for len(candidates) > 0 {
		advanced := false
		for i := 0; i < len(candidates); {
			sel := candidates[i]
			before := computeSignature(items)
			urlBefore := driver.URL()
			countBefore := len(items)
			succeeded := false

			for attempt := 0; attempt < paginationMaxAttempts; attempt++ {
				if driver.Closed() {
					return all, errPageGone
				}
				if err := driver.Click(ctx, sel, interfaces.ClickOptions{}); err == nil {
					time.Sleep(paginationRetryBackoff)
					newItems, _ := scrapeListPage(ctx, driver, listSelector, fields)
					changed := driver.URL() != urlBefore || len(newItems) != countBefore || computeSignature(newItems) != before
					if changed {
						items = newItems
						succeeded = true
						break
					}
				}
				time.Sleep(paginationRetryBackoff)
			}

			if succeeded {
				advanced = true
				all, _ = dedupMerge(all, seen, items, spec.Limit)
				if spec.Limit > 0 && len(all) >= spec.Limit {
					return all, nil
				}
				newURL := driver.URL()
				if _, stuck := visited[newURL]; stuck {
					logger.Debug("clickNext: revisited a URL already seen, stopping")
					return all, nil
				}
				visited[newURL] = struct{}{}
				break
			}

			logger.Debugf("clickNext: evicting selector %q after %d failed attempts", sel, paginationMaxAttempts)
			candidates = append(candidates[:i], candidates[i+1:]...)
		}

		if !advanced {
			if err := driver.HistoryForward(ctx); err == nil {
				time.Sleep(paginationRetryBackoff)
			}
			return all, nil
		}
	}

	return all, nil
}

// paginateClickLoadMore implements the clickLoadMore strategy: click, wait,
// scroll to bottom, re-scrape; stop on an unchanged scroll extent or two
// consecutive no-new-items clicks.
func paginateClickLoadMore(ctx context.Context, driver interfaces.Driver, listSelector string, fields map[string]entities.FieldSpec, spec entities.PaginationSpec, logger *logrus.Logger) ([]entities.Record, error) {
	candidates := splitSelectors(spec.Selector)
	seen := map[string]struct{}{}
	var all []entities.Record
	consecutiveEmpty := 0

	for {
		items, err := scrapeListPage(ctx, driver, listSelector, fields)
		if err != nil {
			return all, err
		}
		all, _ = dedupMerge(all, seen, items, spec.Limit)
		if spec.Limit > 0 && len(all) >= spec.Limit {
			return all, nil
		}

		extentBefore := measureExtent(ctx, driver)

		clicked := false
		for _, sel := range candidates {
			for attempt := 0; attempt < paginationMaxAttempts; attempt++ {
				if driver.Closed() {
					return all, errPageGone
				}
				if err := driver.Click(ctx, sel, interfaces.ClickOptions{}); err == nil {
					clicked = true
					break
				}
				time.Sleep(paginationRetryBackoff)
			}
			if clicked {
				break
			}
		}
		if !clicked {
			logger.Debug("clickLoadMore: no load-more affordance responded, stopping")
			return all, nil
		}

		driver.ScrollPages(ctx, 1)
		time.Sleep(paginationRetryBackoff)

		newItems, err := scrapeListPage(ctx, driver, listSelector, fields)
		if err != nil {
			return all, err
		}
		var added int
		all, added = dedupMerge(all, seen, newItems, spec.Limit)
		if spec.Limit > 0 && len(all) >= spec.Limit {
			return all, nil
		}

		extentAfter := measureExtent(ctx, driver)
		if extentAfter == extentBefore {
			return all, nil
		}
		if added == 0 {
			consecutiveEmpty++
			if consecutiveEmpty >= 2 {
				return all, nil
			}
		} else {
			consecutiveEmpty = 0
		}
	}
}
