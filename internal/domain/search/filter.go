package search

import (
	"time"

	"github.com/janhq/notes-mcp/internal/domain/note"
)

// Operator is a comparison understood by the managed search filter language.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

const (
	// AttrFolder is the indexed directory of an object, with trailing slash.
	AttrFolder = "folder"
	// AttrTimestamp is the indexed modification time in unix milliseconds.
	AttrTimestamp = "timestamp"
)

// Comparison is a single key/value predicate.
type Comparison struct {
	Type  Operator `json:"type"`
	Key   string   `json:"key"`
	Value any      `json:"value"`
}

// Filter is an AND of comparisons, serialised as the search service expects.
type Filter struct {
	Type    string       `json:"type"`
	Filters []Comparison `json:"filters"`
}

// TimeRange narrows a search to notes indexed between Since and Until (inclusive).
type TimeRange struct {
	Since *time.Time
	Until *time.Time
}

// IsZero reports whether no bound is set.
func (r TimeRange) IsZero() bool {
	return r.Since == nil && r.Until == nil
}

// Contains reports whether a unix timestamp in seconds falls inside the range.
func (r TimeRange) Contains(ts int64) bool {
	if r.Since != nil && ts < r.Since.Unix() {
		return false
	}
	if r.Until != nil && ts > r.Until.Unix() {
		return false
	}
	return true
}

// BuildUserFilter scopes matches to folders under the user's namespace:
// folder >= "<email>/" AND folder < successor("<email>/").
func BuildUserFilter(email string) Filter {
	prefix := note.UserPrefix(email)
	return Filter{
		Type: "and",
		Filters: []Comparison{
			{Type: OpGte, Key: AttrFolder, Value: prefix},
			{Type: OpLt, Key: AttrFolder, Value: prefixUpperBound(prefix)},
		},
	}
}

// BuildAdvancedFilter adds optional timestamp bounds to the user filter.
// The search service compares timestamps as 13-digit unix milliseconds.
func BuildAdvancedFilter(email string, tr TimeRange) Filter {
	f := BuildUserFilter(email)
	if tr.Since != nil {
		f.Filters = append(f.Filters, Comparison{Type: OpGte, Key: AttrTimestamp, Value: tr.Since.UnixMilli()})
	}
	if tr.Until != nil {
		f.Filters = append(f.Filters, Comparison{Type: OpLte, Key: AttrTimestamp, Value: tr.Until.UnixMilli()})
	}
	return f
}

// prefixUpperBound returns the smallest string greater than every string that
// starts with prefix. Prefixes here always end in '/', so the result is the
// prefix with '/' replaced by '0'.
func prefixUpperBound(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

// Matches evaluates the filter against an attribute map locally.
func (f Filter) Matches(attrs map[string]any) bool {
	for _, c := range f.Filters {
		if !c.Matches(attrs) {
			return false
		}
	}
	return true
}

// Matches evaluates one comparison. A missing or mistyped attribute never matches.
func (c Comparison) Matches(attrs map[string]any) bool {
	actual, ok := attrs[c.Key]
	if !ok {
		return false
	}

	var cmp int
	switch want := c.Value.(type) {
	case string:
		got, ok := actual.(string)
		if !ok {
			return false
		}
		cmp = compareStrings(got, want)
	default:
		wantNum, ok := toFloat(want)
		if !ok {
			return false
		}
		gotNum, ok := toFloat(actual)
		if !ok {
			return false
		}
		switch {
		case gotNum < wantNum:
			cmp = -1
		case gotNum > wantNum:
			cmp = 1
		}
	}

	switch c.Type {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
