package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapeflow/domain/entities"
)

func TestExtractStateBasic(t *testing.T) {
	d := newFakeDriver("https://example.com/cart")
	d.cookies["session"] = "abc123"
	d.attached["#checkout"] = true

	state, err := ExtractState(context.Background(), d, nil, []string{"#checkout", "#missing"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cart", state.URL)
	assert.Equal(t, "abc123", state.Cookies["session"])
	assert.Equal(t, []string{"#checkout"}, state.Selectors)
}

func TestExtractStateURLOverrideFromLastPair(t *testing.T) {
	d := newFakeDriver("https://example.com/redirected")
	remaining := entities.Workflow{
		{ID: "p1", Where: entities.Where{URL: "https://example.com/expected"}},
	}
	state, err := ExtractState(context.Background(), d, remaining, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/expected", state.URL)
}

func TestExtractStateNoOverrideForAboutBlank(t *testing.T) {
	d := newFakeDriver("https://example.com/landing")
	remaining := entities.Workflow{
		{ID: "p1", Where: entities.Where{URL: "about:blank"}},
	}
	state, err := ExtractState(context.Background(), d, remaining, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/landing", state.URL)
}

func TestExtractStatePageGone(t *testing.T) {
	d := newFakeDriver("https://example.com")
	d.closed = true
	_, err := ExtractState(context.Background(), d, nil, nil)
	assert.ErrorIs(t, err, errPageGone)
}

func TestCandidateSelectorsForScansFromTail(t *testing.T) {
	wf := entities.Workflow{
		{Where: entities.Where{Selectors: []string{"#a"}}},
		{Where: entities.Where{}},
		{Where: entities.Where{Selectors: []string{"#b", "#c"}}},
	}
	assert.Equal(t, []string{"#b", "#c"}, candidateSelectorsFor(wf))
}
