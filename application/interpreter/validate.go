package interpreter

import (
	"encoding/json"
	"fmt"

	"scrapeflow/domain/entities"
)

// builtinPrimitives is the fixed set of C5/C6 scraping and control
// primitives the executor implements directly.
var builtinPrimitives = map[string]bool{
	"screenshot":     true,
	"enqueueLinks":   true,
	"scrape":         true,
	"scrapeSchema":   true,
	"scrapeList":     true,
	"scrapeListAuto": true,
	"scroll":         true,
	"script":         true,
	"flag":           true,
	"noop":           true,
}

// driverMethods is the fixed dispatch table of allow-listed Driver method
// names reachable from a workflow body. This replaces the original
// dynamic-attribute dotted-path dispatch per spec.md §9's REDESIGN FLAG:
// unknown names are rejected here, at validation time, instead of at
// dispatch time.
var driverMethods = map[string]bool{
	"click":             true,
	"type":              true,
	"press":             true,
	"waitForLoadState":  true,
	"goto":              true,
}

// knownWhereKeys is every recognized key of a Where JSON object.
var knownWhereKeys = map[string]bool{
	"url": true, "cookies": true, "selectors": true,
	"$and": true, "$or": true, "$not": true,
	"$before": true, "$after": true,
}

// Validate checks workflow structure per spec.md §4.1: every pair must
// carry a what list of actions, and every action name must resolve to either
// a built-in primitive or an allow-listed driver method. The presence of a
// where object is checked by ParseWorkflow on the raw JSON, since a typed
// Pair always carries one.
func Validate(wf entities.Workflow) error {
	for i, p := range wf {
		if p.What == nil {
			return fmt.Errorf("%w: pair %d (%s): what must be a list", ErrInvalidWorkflow, i, p.ID)
		}
		for j, a := range p.What {
			if a.Name == "" {
				return fmt.Errorf("%w: pair %d (%s) action %d: action name is required", ErrInvalidWorkflow, i, p.ID, j)
			}
			if !builtinPrimitives[a.Name] && !driverMethods[a.Name] {
				return fmt.Errorf("%w: pair %d (%s) action %d: unknown action %q", ErrInvalidWorkflow, i, p.ID, j, a.Name)
			}
		}
	}
	return nil
}

// ParseWorkflow unmarshals a JSON-encoded workflow, rejecting unknown "$"
// guard operators (spec.md §7's "guard undefined operator" error kind)
// before decoding into the typed entities.Workflow, then runs Validate.
func ParseWorkflow(data []byte) (entities.Workflow, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}

	for i, pair := range raw {
		whereRaw, ok := pair["where"]
		if !ok {
			return nil, fmt.Errorf("%w: pair %d: missing where", ErrInvalidWorkflow, i)
		}
		if err := checkWhereKeys(whereRaw); err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
	}

	var wf entities.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}
	if err := Validate(wf); err != nil {
		return nil, err
	}
	return wf, nil
}

func checkWhereKeys(raw json.RawMessage) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("%w: where must be an object", ErrInvalidWorkflow)
	}
	for key, val := range obj {
		if !knownWhereKeys[key] && len(key) > 0 && key[0] == '$' {
			return fmt.Errorf("%w: %q", ErrUnknownGuardOperator, key)
		}
		if key == "$and" || key == "$or" {
			var children []json.RawMessage
			if err := json.Unmarshal(val, &children); err != nil {
				continue
			}
			for _, c := range children {
				if err := checkWhereKeys(c); err != nil {
					return err
				}
			}
		}
		if key == "$not" {
			if err := checkWhereKeys(val); err != nil {
				return err
			}
		}
	}
	return nil
}

// Initialize returns a deep copy of wf with every {"$param": "<name>"}
// placeholder in an action's Args substituted from params. Unresolved
// placeholders are left in place; they surface as action failures later
// (spec.md §7 "parameter missing").
func Initialize(wf entities.Workflow, params map[string]any) entities.Workflow {
	out := wf.Clone()
	for i := range out {
		for j := range out[i].What {
			out[i].What[j].Args = substitute(out[i].What[j].Args, params)
		}
	}
	return out
}

func substitute(v any, params map[string]any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if name, ok := t[entities.ParamKey]; ok {
				if nameStr, ok := name.(string); ok {
					if val, found := params[nameStr]; found {
						return val
					}
				}
				return t
			}
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = substitute(val, params)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = substitute(val, params)
		}
		return out
	default:
		return v
	}
}
