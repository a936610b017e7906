package interpreter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"scrapeflow/domain/entities"
	"scrapeflow/domain/interfaces"
)

// Interpreter runs one Workflow against one or more pages of a browser,
// per spec.md §4.8. A single Interpreter enforces a single active Run at a
// time, but that one Run may fan out across many concurrently-driven pages
// (popups, enqueueLinks targets) bounded by Options.MaxConcurrency.
type Interpreter struct {
	opts Options

	running int32
	stopped int32

	pool *pool

	workflowMu sync.RWMutex
	workflow   entities.Workflow

	bufMu  sync.Mutex
	buffer entities.Record
}

// New builds an Interpreter. Zero-valued Options fields fall back to
// DefaultOptions.
func New(opts Options) *Interpreter {
	return &Interpreter{opts: opts.withDefaults()}
}

// Stop asks every page loop started by the current Run to exit at its next
// guard-evaluation point; a later Run clears the request when it starts. It does not cancel in-flight
// driver calls; pair ctx cancellation for that.
func (in *Interpreter) Stop() {
	atomic.StoreInt32(&in.stopped, 1)
}

func (in *Interpreter) stopRequested() bool {
	return atomic.LoadInt32(&in.stopped) == 1
}

func (in *Interpreter) activeWorkflow() entities.Workflow {
	in.workflowMu.RLock()
	defer in.workflowMu.RUnlock()
	return in.workflow
}

// Run validates and initializes workflow, then drives driver's page through
// it to completion, fanning out to popups and enqueueLinks targets as they
// arise. It returns ErrAlreadyRunning if this Interpreter already has an
// active Run.
func (in *Interpreter) Run(ctx context.Context, driver interfaces.Driver, workflow entities.Workflow, params map[string]any) error {
	if !atomic.CompareAndSwapInt32(&in.running, 0, 1) {
		return ErrAlreadyRunning
	}
	defer atomic.StoreInt32(&in.running, 0)
	atomic.StoreInt32(&in.stopped, 0)

	if err := Validate(workflow); err != nil {
		return err
	}
	wf := Initialize(workflow, params)

	in.workflowMu.Lock()
	in.workflow = wf
	in.workflowMu.Unlock()

	in.pool = newPool(in.opts.MaxConcurrency)
	in.bufMu.Lock()
	in.buffer = entities.Record{}
	in.bufMu.Unlock()

	driver.OnPopup(func(popup interfaces.Driver) {
		if in.stopRequested() {
			return
		}
		in.pool.submit(func() {
			in.runPage(ctx, popup, wf.Clone(), nil)
		})
	})

	in.runPage(ctx, driver, wf, nil)
	in.pool.wait()
	return nil
}

// runPage implements spec.md §4.8's per-page main loop: extract state,
// select the matching pair, fire its actions, repeat until no pair
// matches, the page goes away, maxRepeats is exceeded, or Stop is called.
//
// Matching itself always considers every pair of matchable (not just the
// ones still "remaining"): removing a fired pair from the set a singleton,
// always-matching pair is judged against would make the maxRepeats guard
// unreachable (spec.md §8 Scenario 3 expects such a pair to fire maxRepeats+1
// times, not once). "Remove the matched pair" (§4.8.f) is honored instead as
// the seed spec.md §4.8.g actually cares about: removed tracks which pairs
// have already fired, so candidateSelectors is recomputed from the tail of
// the pairs that are still live, each iteration, rather than fixed at the
// page's first extraction.
func (in *Interpreter) runPage(ctx context.Context, driver interfaces.Driver, workflow entities.Workflow, fired []string) {
	matchable := stripCrossContextSelectors(workflow)
	removed := make([]bool, len(matchable))

	lastFiredIdx := -1
	repeatCount := 0

	injectAdBlocker(ctx, driver, in.opts.Logger)

	for {
		if in.stopRequested() || driver.Closed() {
			return
		}

		candidateSelectors := candidateSelectorsFor(remainingPairs(matchable, removed))

		state, err := ExtractState(ctx, driver, matchable, candidateSelectors)
		if err != nil {
			return
		}

		idx, ok := SelectPair(matchable, state, fired)
		if !ok {
			return
		}
		pair := workflow[idx]

		if idx == lastFiredIdx {
			repeatCount++
			if repeatCount > in.opts.MaxRepeats {
				in.opts.Logger.Warnf("pair %q fired %d times in a row, stopping this page", pair.ID, repeatCount)
				return
			}
		} else {
			repeatCount = 0
		}
		lastFiredIdx = idx

		in.opts.Host.ActiveID(pair.ID)
		if in.opts.Debug {
			in.opts.Host.DebugMessage(fmt.Sprintf("firing pair %q (%d actions)", pair.ID, len(pair.What)))
		}

		for _, action := range pair.What {
			if in.stopRequested() || driver.Closed() {
				return
			}
			if err := in.executeAction(ctx, driver, action); err != nil {
				in.opts.Logger.Warnf("pair %q action %q failed: %v", pair.ID, action.Name, err)
				if action.Name == "click" {
					break
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(actionSleep):
			}
		}

		if pair.ID != "" {
			fired = append(fired, pair.ID)
		}
		removed[idx] = true
	}
}

// remainingPairs returns the subset of wf whose index is not yet marked
// removed, preserving order, so candidateSelectorsFor can keep scanning from
// the tail of what is still live instead of the original, static order.
func remainingPairs(wf entities.Workflow, removed []bool) entities.Workflow {
	out := make(entities.Workflow, 0, len(wf))
	for i, p := range wf {
		if !removed[i] {
			out = append(out, p)
		}
	}
	return out
}

// stripCrossContextSelectors returns a deep copy of wf with every Where
// selector that crosses an iframe (":>>") or shadow (">>") boundary removed
// before it ever reaches the top-level IsAttached probe of ExtractState:
// those selectors are resolved in-page by the scraping primitives, not by
// the guard matcher (spec.md §4.3, §4.5).
func stripCrossContextSelectors(wf entities.Workflow) entities.Workflow {
	out := wf.Clone()
	for i := range out {
		out[i].Where = stripWhereSelectors(out[i].Where)
	}
	return out
}

func stripWhereSelectors(w entities.Where) entities.Where {
	w.Selectors = filterTopLevelSelectors(w.Selectors)
	for i := range w.And {
		w.And[i] = stripWhereSelectors(w.And[i])
	}
	for i := range w.Or {
		w.Or[i] = stripWhereSelectors(w.Or[i])
	}
	if w.Not != nil {
		n := stripWhereSelectors(*w.Not)
		w.Not = &n
	}
	return w
}

func filterTopLevelSelectors(sel []string) []string {
	if sel == nil {
		return nil
	}
	out := make([]string, 0, len(sel))
	for _, s := range sel {
		if !strings.Contains(s, ":>>") && !strings.Contains(s, ">>") {
			out = append(out, s)
		}
	}
	return out
}
