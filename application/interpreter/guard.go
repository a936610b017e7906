package interpreter

import (
	"regexp"
	"strings"

	"scrapeflow/domain/entities"
)

// matchStringOrRegex implements the "string equality or regular-expression
// match" convention of spec.md §3/§4.2: a pattern wrapped in "/.../ " is a
// regex, anything else is a literal comparison.
func matchStringOrRegex(pattern, value string) bool {
	if len(pattern) >= 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		re, err := regexp.Compile(pattern[1 : len(pattern)-1])
		if err != nil {
			return false
		}
		return re.MatchString(value)
	}
	return pattern == value
}

// Match reports whether where matches state given the ordered ids of
// actions already fired this run, per the seven rules of spec.md §4.2.
func Match(where entities.Where, state entities.PageState, fired []string) bool {
	if where.IsEmpty() {
		return true
	}

	if where.URL != "" && !matchStringOrRegex(where.URL, state.URL) {
		return false
	}

	for name, pattern := range where.Cookies {
		val, ok := state.Cookies[name]
		if !ok || !matchStringOrRegex(pattern, val) {
			return false
		}
	}

	// Both empty is the documented special case: falls through to a match.
	if len(where.Selectors) > 0 && !intersects(where.Selectors, state.Selectors) {
		return false
	}

	for _, child := range where.And {
		if !Match(child, state, fired) {
			return false
		}
	}

	if len(where.Or) > 0 {
		matched := false
		for _, child := range where.Or {
			if Match(child, state, fired) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if where.Not != nil && Match(*where.Not, state, fired) {
		return false
	}

	if where.Before != "" && hasFired(where.Before, fired) {
		return false
	}

	if where.After != "" && !hasFired(where.After, fired) {
		return false
	}

	return true
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	for _, s := range a {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

func hasFired(pattern string, fired []string) bool {
	for _, id := range fired {
		if matchStringOrRegex(pattern, id) {
			return true
		}
	}
	return false
}

// SelectPair scans the workflow copy from last to first and returns the
// index of the first matching pair, per spec.md §4.2's selection policy:
// later-declared rules win ties by virtue of the scan direction.
func SelectPair(wf entities.Workflow, state entities.PageState, fired []string) (int, bool) {
	for i := len(wf) - 1; i >= 0; i-- {
		if Match(wf[i].Where, state, fired) {
			return i, true
		}
	}
	return -1, false
}
