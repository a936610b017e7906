package interpreter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapeflow/domain/entities"
)

type evalFunc func(ctx context.Context, script string, args ...any) (any, error)

func (f evalFunc) Evaluate(ctx context.Context, script string, args ...any) (any, error) {
	return f(ctx, script, args...)
}

func TestWrapScriptIncludesHelpers(t *testing.T) {
	script := wrapScript("return 1;")
	assert.Contains(t, script, "__resolveOne")
	assert.Contains(t, script, "__resolveAll")
	assert.Contains(t, script, "return 1;")
}

func TestScrapeOneConvertsResult(t *testing.T) {
	ev := evalFunc(func(ctx context.Context, script string, args ...any) (any, error) {
		return map[string]any{"text": "hello", "attr:href": "/a"}, nil
	})
	record, err := scrapeOne(context.Background(), ev, "#el")
	require.NoError(t, err)
	assert.Equal(t, "hello", record["text"])
	assert.Equal(t, "/a", record["attr:href"])
}

func TestScrapeSchemaFieldsConvertsResult(t *testing.T) {
	ev := evalFunc(func(ctx context.Context, script string, args ...any) (any, error) {
		return map[string]any{"price": "9.99"}, nil
	})
	fields := map[string]entities.FieldSpec{"price": {Selector: ".price"}}
	record, err := scrapeSchemaFields(context.Background(), ev, fields)
	require.NoError(t, err)
	assert.Equal(t, "9.99", record["price"])
}

func TestScrapeListPageConvertsResults(t *testing.T) {
	ev := evalFunc(func(ctx context.Context, script string, args ...any) (any, error) {
		return []any{
			map[string]any{"title": "one"},
			map[string]any{"title": "two"},
		}, nil
	})
	records, err := scrapeListPage(context.Background(), ev, ".item", map[string]entities.FieldSpec{"title": {}})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "one", records[0]["title"])
	assert.Equal(t, "two", records[1]["title"])
}

func TestToRecordHandlesNonMap(t *testing.T) {
	assert.Equal(t, entities.Record{}, toRecord(nil))
	assert.Equal(t, entities.Record{}, toRecord("not a map"))
}
