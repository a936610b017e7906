package interpreter

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapeflow/domain/entities"
	"scrapeflow/domain/interfaces"
)

type recordingHost struct {
	serialized []any
	activeIDs  []string
}

func (h *recordingHost) Flag(page interfaces.Driver, resume func()) { resume() }
func (h *recordingHost) ActiveID(id string)                         { h.activeIDs = append(h.activeIDs, id) }
func (h *recordingHost) DebugMessage(text string)                   {}
func (h *recordingHost) Serializable(data any)                      { h.serialized = append(h.serialized, data) }
func (h *recordingHost) Binary(data []byte, mimeType string)        {}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestInterpreterRunsSinglePairAndStopsWhenNoneMatch(t *testing.T) {
	d := newFakeDriver("https://example.com/")
	d.evaluate = func(ctx context.Context, script string, args ...any) (any, error) {
		return map[string]any{"title": "hello"}, nil
	}

	wf := entities.Workflow{
		{ID: "scrape-home", Where: entities.Where{URL: "https://example.com/"}, What: []entities.Action{
			{Name: "scrape"},
		}},
	}

	host := &recordingHost{}
	interp := New(Options{Logger: testLogger(), Host: host, MaxRepeats: 3})

	err := runWorkflow(t, interp, d, wf)
	require.NoError(t, err)
	require.Len(t, host.serialized, 1)
	assert.Equal(t, []string{"scrape-home"}, host.activeIDs)
}

// runWorkflow runs interp against d with a bounded context, so a bug that
// hangs the main loop fails the test instead of the test suite.
func runWorkflow(t *testing.T, interp *Interpreter, d *fakeDriver, wf entities.Workflow) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return interp.Run(ctx, d, wf, nil)
}

func TestInterpreterSelectorGating(t *testing.T) {
	d := newFakeDriver("https://example.com/")
	d.evaluate = func(ctx context.Context, script string, args ...any) (any, error) {
		return map[string]any{}, nil
	}

	wf := entities.Workflow{
		{ID: "needs-banner", Where: entities.Where{Selectors: []string{"#cookie-banner"}}, What: []entities.Action{
			{Name: "click", Args: map[string]any{"selector": "#cookie-banner button"}},
		}},
	}

	host := &recordingHost{}
	interp := New(Options{Logger: testLogger(), Host: host})
	err := runWorkflow(t, interp, d, wf)
	require.NoError(t, err)
	assert.Empty(t, host.activeIDs, "pair guarded by an absent selector must never fire")
}

func TestInterpreterMaxRepeatsStopsInfiniteLoop(t *testing.T) {
	d := newFakeDriver("https://example.com/")
	d.evaluate = func(ctx context.Context, script string, args ...any) (any, error) {
		return map[string]any{}, nil
	}

	wf := entities.Workflow{
		{ID: "poll", Where: entities.Where{}, What: []entities.Action{{Name: "noop"}}},
	}

	host := &recordingHost{}
	interp := New(Options{Logger: testLogger(), Host: host, MaxRepeats: 3})
	err := runWorkflow(t, interp, d, wf)
	require.NoError(t, err)
	assert.Equal(t, 4, len(host.activeIDs), "maxRepeats=3 allows the 4th consecutive firing before the 5th increment exceeds it")
}

func TestInterpreterRejectsSecondConcurrentRun(t *testing.T) {
	d1 := newFakeDriver("https://example.com/")
	block := make(chan struct{})
	d1.evaluate = func(ctx context.Context, script string, args ...any) (any, error) {
		<-block
		return map[string]any{}, nil
	}
	wf := entities.Workflow{
		{ID: "blocker", Where: entities.Where{}, What: []entities.Action{{Name: "scrape"}}},
	}

	interp := New(Options{Logger: testLogger(), MaxRepeats: 1})

	done := make(chan struct{})
	go func() {
		runWorkflow(t, interp, d1, wf)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	d2 := newFakeDriver("https://example.com/")
	err := interp.Run(context.Background(), d2, wf, nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(block)
	<-done
}
