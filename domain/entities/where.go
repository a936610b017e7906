package entities

// Where is a guard: a node that is simultaneously a conjunction of base
// predicates (URL, Cookies, Selectors) and a boolean combinator (And, Or,
// Not) plus the two meta-temporal predicates (Before, After). All fields
// are optional; an empty Where matches anything.
//
// A string pattern wrapped in "/.../ " is matched as a regular expression;
// any other string is matched literally. The same convention applies to
// URL, every value in Cookies, and Before/After.
type Where struct {
	URL       string            `json:"url,omitempty"`
	Cookies   map[string]string `json:"cookies,omitempty"`
	Selectors []string          `json:"selectors,omitempty"`

	And []Where `json:"$and,omitempty"`
	Or  []Where `json:"$or,omitempty"`
	Not *Where  `json:"$not,omitempty"`

	Before string `json:"$before,omitempty"`
	After  string `json:"$after,omitempty"`
}

// IsEmpty reports whether the guard carries no predicate at all, in which
// case it matches any state (spec rule: "an empty where matches anything").
func (w Where) IsEmpty() bool {
	return w.URL == "" && len(w.Cookies) == 0 && len(w.Selectors) == 0 &&
		len(w.And) == 0 && len(w.Or) == 0 && w.Not == nil &&
		w.Before == "" && w.After == ""
}

func (w Where) clone() Where {
	out := Where{
		URL:    w.URL,
		Before: w.Before,
		After:  w.After,
	}
	if w.Cookies != nil {
		out.Cookies = make(map[string]string, len(w.Cookies))
		for k, v := range w.Cookies {
			out.Cookies[k] = v
		}
	}
	if w.Selectors != nil {
		out.Selectors = append([]string(nil), w.Selectors...)
	}
	if w.And != nil {
		out.And = make([]Where, len(w.And))
		for i, c := range w.And {
			out.And[i] = c.clone()
		}
	}
	if w.Or != nil {
		out.Or = make([]Where, len(w.Or))
		for i, c := range w.Or {
			out.Or[i] = c.clone()
		}
	}
	if w.Not != nil {
		n := w.Not.clone()
		out.Not = &n
	}
	return out
}
