package interpreter

import (
	"context"
	"fmt"

	"scrapeflow/domain/entities"
)

// jsHelpers are shared in-page functions used by every scraping primitive:
// hop resolution across iframe (":>>") and shadow (">>") boundaries, a
// best-effort deep shadow search for FieldSpec.Shadow, and field
// extraction (text / attribute / tag name) per spec.md §4.5.
const jsHelpers = `
function __splitHops(selector) {
  return selector.split(/(:>>|>>)/).map(function(s){ return s.trim(); }).filter(function(s){ return s.length > 0; });
}
function __resolveOne(root, selector) {
  var parts = __splitHops(selector);
  var ctxRoot = root, i = 0;
  while (i < parts.length - 1) {
    var el = ctxRoot.querySelector(parts[i]);
    if (!el) return null;
    ctxRoot = parts[i+1] === ':>>' ? el.contentDocument : el.shadowRoot;
    if (!ctxRoot) return null;
    i += 2;
  }
  return ctxRoot && ctxRoot.querySelector ? ctxRoot.querySelector(parts[i]) : null;
}
function __resolveAll(root, selector) {
  var parts = __splitHops(selector);
  var ctxRoot = root, i = 0;
  while (i < parts.length - 1) {
    var el = ctxRoot.querySelector(parts[i]);
    if (!el) return [];
    ctxRoot = parts[i+1] === ':>>' ? el.contentDocument : el.shadowRoot;
    if (!ctxRoot) return [];
    i += 2;
  }
  return ctxRoot && ctxRoot.querySelectorAll ? Array.prototype.slice.call(ctxRoot.querySelectorAll(parts[i])) : [];
}
function __deepQuery(root, selector) {
  var direct = root.querySelector(selector);
  if (direct) return direct;
  var all = root.querySelectorAll('*');
  for (var i = 0; i < all.length; i++) {
    if (all[i].shadowRoot) {
      var found = __deepQuery(all[i].shadowRoot, selector);
      if (found) return found;
    }
  }
  return null;
}
function __extractField(root, spec) {
  var target = root;
  if (spec.selector) {
    target = spec.shadow ? __deepQuery(root, spec.selector) : __resolveOne(root, spec.selector);
  }
  if (!target) return '';
  if (spec.tag) return target.tagName ? target.tagName.toLowerCase() : '';
  if (spec.attribute) return target.getAttribute(spec.attribute) || '';
  return (target.textContent || '').trim();
}
function __extractFields(root, fields) {
  var out = {};
  for (var name in fields) { out[name] = __extractField(root, fields[name]); }
  return out;
}
`

// wrapScript wraps body in a single-argument page function that has every
// jsHelpers function declaration in scope, so the interpreter never ships
// more than one Evaluate call per primitive invocation.
func wrapScript(body string) string {
	return "(function(arg) {\n" + jsHelpers + "\n" + body + "\n})"
}

// scrapeOne implements the scrape(selector?) primitive: text and
// attributes of one element, or document.body if selector is empty.
func scrapeOne(ctx context.Context, driver evaluator, selector string) (entities.Record, error) {
	script := wrapScript(`
		var target = arg.selector ? __resolveOne(document, arg.selector) : document.body;
		if (!target) return null;
		var out = {text: (target.textContent || '').trim()};
		for (var i = 0; i < target.attributes.length; i++) {
			out['attr:' + target.attributes[i].name] = target.attributes[i].value;
		}
		return out;
	`)
	result, err := driver.Evaluate(ctx, script, map[string]any{"selector": selector})
	if err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}
	return toRecord(result), nil
}

// scrapeSchemaFields implements one pass of the scrapeSchema(schema)
// primitive: every field resolved from document root.
func scrapeSchemaFields(ctx context.Context, driver evaluator, fields map[string]entities.FieldSpec) (entities.Record, error) {
	script := wrapScript(`return __extractFields(document, arg.fields);`)
	result, err := driver.Evaluate(ctx, script, map[string]any{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("scrapeSchema: %w", err)
	}
	return toRecord(result), nil
}

// scrapeListPage extracts one page's worth of list items: fields are
// resolved relative to each matched listSelector element.
func scrapeListPage(ctx context.Context, driver evaluator, listSelector string, fields map[string]entities.FieldSpec) ([]entities.Record, error) {
	script := wrapScript(`
		var items = __resolveAll(document, arg.listSelector);
		var out = [];
		for (var i = 0; i < items.length; i++) { out.push(__extractFields(items[i], arg.fields)); }
		return out;
	`)
	result, err := driver.Evaluate(ctx, script, map[string]any{"listSelector": listSelector, "fields": fields})
	if err != nil {
		return nil, fmt.Errorf("scrapeList: %w", err)
	}
	return toRecords(result), nil
}

// scrapeListAuto implements the scrapeListAuto(listSelector) primitive: a
// heuristic grouping of repeated sibling structures under listSelector (or
// document.body), returning the largest group as {selector, innerText}
// candidates.
func scrapeListAuto(ctx context.Context, driver evaluator, listSelector string) ([]map[string]string, error) {
	script := wrapScript(`
		var root = arg.listSelector ? __resolveOne(document, arg.listSelector) : document.body;
		if (!root) return [];
		var groups = {};
		var children = Array.prototype.slice.call(root.children || []);
		children.forEach(function(el) {
			var key = el.tagName + '.' + (el.className || '');
			(groups[key] = groups[key] || []).push(el);
		});
		var bestKey = null;
		for (var k in groups) {
			if (groups[k].length > 1 && (!bestKey || groups[k].length > groups[bestKey].length)) bestKey = k;
		}
		if (!bestKey) return [];
		return groups[bestKey].map(function(el, idx) {
			return {
				selector: el.tagName.toLowerCase() + ':nth-child(' + (idx + 1) + ')',
				innerText: (el.textContent || '').trim(),
			};
		});
	`)
	result, err := driver.Evaluate(ctx, script, map[string]any{"listSelector": listSelector})
	if err != nil {
		return nil, fmt.Errorf("scrapeListAuto: %w", err)
	}
	items, _ := result.([]any)
	out := make([]map[string]string, 0, len(items))
	for _, it := range items {
		out = append(out, toRecord(it))
	}
	return out, nil
}

// evaluator is the sliver of interfaces.Driver the scraping primitives
// need; kept narrow so unit tests can stub only Evaluate.
type evaluator interface {
	Evaluate(ctx context.Context, script string, args ...any) (any, error)
}

func toRecord(v any) entities.Record {
	m, ok := v.(map[string]any)
	if !ok {
		return entities.Record{}
	}
	out := make(entities.Record, len(m))
	for k, val := range m {
		out[k] = fmt.Sprint(val)
	}
	return out
}

func toRecords(v any) []entities.Record {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]entities.Record, 0, len(items))
	for _, it := range items {
		out = append(out, toRecord(it))
	}
	return out
}
