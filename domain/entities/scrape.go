package entities

// FieldSpec describes how to pull one field out of an element: its tag
// name, a named attribute, or (the default) its trimmed text content.
// Selector may cross iframe (":>>") and shadow (">>") boundaries. With
// Shadow set, Selector is instead queried as-is (no hop splitting) against
// the root and, if nothing matches there directly, against every shadow root
// nested below it at any depth; the first match wins.
type FieldSpec struct {
	Selector  string `json:"selector"`
	Tag       bool   `json:"tag,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Shadow    bool   `json:"shadow,omitempty"`
}

// SchemaArgs is the args shape of the scrapeSchema primitive: field name
// to extraction spec.
type SchemaArgs map[string]FieldSpec

// PaginationType selects one of the five pagination strategies of §4.6.
type PaginationType string

const (
	PaginationNone          PaginationType = "none"
	PaginationScrollDown    PaginationType = "scrollDown"
	PaginationScrollUp      PaginationType = "scrollUp"
	PaginationClickNext     PaginationType = "clickNext"
	PaginationClickLoadMore PaginationType = "clickLoadMore"
)

// PaginationSpec configures the pagination engine. Selector is a
// comma-separated list of candidate affordance selectors, tried in order,
// used by clickNext and clickLoadMore.
type PaginationSpec struct {
	Type     PaginationType `json:"type,omitempty"`
	Selector string         `json:"selector,omitempty"`
	Limit    int            `json:"limit,omitempty"`
}

// ScrapeListArgs is the args shape of the scrapeList primitive.
type ScrapeListArgs struct {
	ListSelector string                `json:"listSelector"`
	Fields       map[string]FieldSpec  `json:"fields"`
	Limit        int                   `json:"limit,omitempty"`
	Pagination   PaginationSpec        `json:"pagination,omitempty"`
}

// Record is one extracted row, field name to string value. Both scrape and
// scrapeSchema deliver Records to the host's serializable callback; scrapeList
// delivers a []Record.
type Record map[string]string
