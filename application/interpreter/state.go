package interpreter

import (
	"context"
	"time"

	"scrapeflow/domain/entities"
	"scrapeflow/domain/interfaces"
)

// selectorProbeTimeout bounds how long the extractor waits for a candidate
// selector to attach before concluding it is absent (spec.md §4.3).
const selectorProbeTimeout = 1500 * time.Millisecond

// ExtractState computes the current PageState, per spec.md §4.3: the live
// URL unless the last remaining pair's guard names a different, non-blank
// URL (redirect-tolerant override), the cookie jar flattened for the live
// page URL, and the subset of candidateSelectors currently attached to the DOM.
func ExtractState(ctx context.Context, driver interfaces.Driver, remaining entities.Workflow, candidateSelectors []string) (entities.PageState, error) {
	if driver.Closed() {
		return entities.PageState{}, errPageGone
	}

	url := driver.URL()
	if len(remaining) > 0 {
		lastURL := remaining[len(remaining)-1].Where.URL
		if lastURL != "" && lastURL != url && lastURL != "about:blank" {
			url = lastURL
		}
	}

	cookies, err := driver.Cookies(ctx)
	if err != nil {
		if driver.Closed() {
			return entities.PageState{}, errPageGone
		}
		cookies = map[string]string{}
	}

	attached := make([]string, 0, len(candidateSelectors))
	for _, sel := range candidateSelectors {
		if driver.Closed() {
			return entities.PageState{}, errPageGone
		}
		if driver.IsAttached(ctx, sel, selectorProbeTimeout) {
			attached = append(attached, sel)
		}
	}

	return entities.PageState{URL: url, Cookies: cookies, Selectors: attached}, nil
}

// candidateSelectorsFor recomputes the seed for the next extraction: the
// selectors of the last remaining pair that still has a non-empty selector
// list, scanned from the tail (spec.md §4.8 step g). Cross-frame/shadow
// selectors (containing ":>>" or ">>") were already stripped from the
// matcher's copy of the workflow in the main loop, so they never reach here.
func candidateSelectorsFor(remaining entities.Workflow) []string {
	for i := len(remaining) - 1; i >= 0; i-- {
		if len(remaining[i].Where.Selectors) > 0 {
			return remaining[i].Where.Selectors
		}
	}
	return nil
}
