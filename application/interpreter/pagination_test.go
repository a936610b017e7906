package interpreter

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapeflow/domain/entities"
)

func TestDedupMergeDropsDuplicatesAndCaps(t *testing.T) {
	seen := map[string]struct{}{}
	items := []entities.Record{{"a": "1"}, {"a": "2"}, {"a": "1"}}
	all, added := dedupMerge(nil, seen, items, 0)
	assert.Equal(t, 2, added)
	assert.Len(t, all, 2)

	all, added = dedupMerge(all, seen, []entities.Record{{"a": "2"}, {"a": "3"}}, 2)
	assert.Equal(t, 0, added)
	assert.Len(t, all, 2)
}

func TestComputeSignatureCapsAtThreeItems(t *testing.T) {
	items := []entities.Record{{"a": "1"}, {"a": "2"}, {"a": "3"}, {"a": "4"}}
	sig := computeSignature(items)
	assert.NotContains(t, sig, `"4"`)
}

func TestSplitSelectors(t *testing.T) {
	assert.Equal(t, []string{"#a", "#b"}, splitSelectors(" #a , #b "))
	assert.Nil(t, splitSelectors(""))
}

func recordsToJS(items []map[string]any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		m := make(map[string]any, len(it))
		for k, v := range it {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

func TestRunPaginationClickNextStopsOnUnchangedContent(t *testing.T) {
	pages := [][]map[string]any{
		{{"title": "a1"}, {"title": "a2"}},
		{{"title": "b1"}, {"title": "b2"}},
		{{"title": "b1"}, {"title": "b2"}},
	}
	current := 0

	d := newFakeDriver("https://example.com/page/0")
	d.evaluate = func(ctx context.Context, script string, args ...any) (any, error) {
		return recordsToJS(pages[current]), nil
	}
	d.onClick = func(selector string) {
		if current < len(pages)-1 {
			current++
			d.setURL(fmt.Sprintf("https://example.com/page/%d", current))
		}
	}

	spec := entities.PaginationSpec{Type: entities.PaginationClickNext, Selector: "#next"}
	records, err := RunPagination(context.Background(), d, "#item", nil, spec, logrus.New())
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestRunPaginationNoneScrapesOnce(t *testing.T) {
	d := newFakeDriver("https://example.com")
	d.evaluate = func(ctx context.Context, script string, args ...any) (any, error) {
		return recordsToJS([]map[string]any{{"title": "only"}}), nil
	}
	records, err := RunPagination(context.Background(), d, "#item", nil, entities.PaginationSpec{}, logrus.New())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "only", records[0]["title"])
}

func TestRunPaginationClickLoadMoreStopsAfterTwoEmptyClicks(t *testing.T) {
	clickCount := 0
	extentCounter := 0
	allItems := []map[string]any{{"title": "a1"}, {"title": "a2"}}

	d := newFakeDriver("https://example.com")
	d.evaluate = func(ctx context.Context, script string, args ...any) (any, error) {
		if len(args) == 0 {
			extentCounter++
			return float64(extentCounter), nil
		}
		return recordsToJS(allItems), nil
	}
	d.onClick = func(selector string) { clickCount++ }

	spec := entities.PaginationSpec{Type: entities.PaginationClickLoadMore, Selector: "#more"}
	records, err := RunPagination(context.Background(), d, "#item", nil, spec, logrus.New())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.GreaterOrEqual(t, clickCount, 2)
}
