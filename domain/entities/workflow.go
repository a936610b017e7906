package entities

// Workflow is an ordered list of where→what pairs. Order matters: the
// guard matcher prefers later pairs on ties.
type Workflow []Pair

// Pair couples a guard (Where) with the body (What) to run when it fires.
// ID is optional but required for $before/$after meta predicates and for
// the activeId debug event to mean anything to a host.
type Pair struct {
	ID    string  `json:"id,omitempty"`
	Where Where   `json:"where"`
	What  []Action `json:"what"`
}

// Clone returns a deep copy of the workflow. The main loop mutates its own
// copy (pair removal after firing) while the caller-supplied Workflow stays
// untouched, satisfying the "immutable once initialized" invariant.
func (w Workflow) Clone() Workflow {
	out := make(Workflow, len(w))
	for i, p := range w {
		out[i] = p.clone()
	}
	return out
}

func (p Pair) clone() Pair {
	what := make([]Action, len(p.What))
	for i, a := range p.What {
		what[i] = a.clone()
	}
	return Pair{
		ID:    p.ID,
		Where: p.Where.clone(),
		What:  what,
	}
}
