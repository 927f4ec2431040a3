// Package filter narrows normalized collections by text, enum, date range
// and tab. Filtering is pure: the input slice is never modified, the output
// keeps input order, and applying the same state twice changes nothing.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TabAll disables the tab predicate, as does an empty tab
const TabAll = "all"

// ErrUnknownTab is returned when the state names a tab the schema lacks
var ErrUnknownTab = errors.New("unknown tab")

// ErrUnknownField is returned when the state filters on an undeclared field
var ErrUnknownField = errors.New("unknown filter field")

// EnumField reads an enumerated value and canonicalizes filter input the
// same way the normalizer canonicalizes records.
type EnumField[T any] struct {
	Value     func(T) string
	Canonical func(string) string
}

// Schema declares the filterable fields of one entity
type Schema[T any] struct {
	Text map[string]func(T) string
	Enum map[string]EnumField[T]
	// Date is the field the date range applies to. Nil disables date filtering.
	Date func(T) *time.Time
	// Search lists the Text fields a global search term is matched against
	Search []string
	Tabs   map[string]func(T) bool
}

// State is the active filter values of a list view
type State struct {
	Text     map[string]string
	Enum     map[string]string
	Search   string
	DateFrom *time.Time
	DateTo   *time.Time
	Tab      string
}

// IsZero reports whether the state constrains nothing
func (s State) IsZero() bool {
	for _, v := range s.Text {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	for _, v := range s.Enum {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return strings.TrimSpace(s.Search) == "" && s.DateFrom == nil && s.DateTo == nil &&
		(s.Tab == "" || s.Tab == TabAll)
}

// TabNames returns the schema's tabs in sorted order, "all" first
func (s Schema[T]) TabNames() []string {
	names := make([]string, 0, len(s.Tabs)+1)
	for name := range s.Tabs {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{TabAll}, names...)
}

// EndOfDay moves t to the last millisecond of its calendar day
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

type predicate[T any] func(T) bool

// compile turns the state into a list of predicates. Empty values add none.
func compile[T any](schema Schema[T], state State) ([]predicate[T], error) {
	var preds []predicate[T]

	for field, value := range state.Text {
		needle := strings.ToLower(strings.TrimSpace(value))
		if needle == "" {
			continue
		}
		get, ok := schema.Text[field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		preds = append(preds, func(r T) bool {
			return strings.Contains(strings.ToLower(get(r)), needle)
		})
	}

	for field, value := range state.Enum {
		if strings.TrimSpace(value) == "" {
			continue
		}
		enum, ok := schema.Enum[field]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		want := value
		if enum.Canonical != nil {
			want = enum.Canonical(value)
		}
		preds = append(preds, func(r T) bool { return enum.Value(r) == want })
	}

	if term := strings.ToLower(strings.TrimSpace(state.Search)); term != "" && len(schema.Search) > 0 {
		getters := make([]func(T) string, 0, len(schema.Search))
		for _, field := range schema.Search {
			if get, ok := schema.Text[field]; ok {
				getters = append(getters, get)
			}
		}
		preds = append(preds, func(r T) bool {
			for _, get := range getters {
				if strings.Contains(strings.ToLower(get(r)), term) {
					return true
				}
			}
			return false
		})
	}

	if schema.Date != nil && (state.DateFrom != nil || state.DateTo != nil) {
		var from, to time.Time
		if state.DateFrom != nil {
			from = *state.DateFrom
		}
		if state.DateTo != nil {
			to = EndOfDay(*state.DateTo)
		}
		hasFrom, hasTo := state.DateFrom != nil, state.DateTo != nil
		preds = append(preds, func(r T) bool {
			d := schema.Date(r)
			if d == nil {
				return false
			}
			if hasFrom && d.Before(from) {
				return false
			}
			if hasTo && d.After(to) {
				return false
			}
			return true
		})
	}

	if state.Tab != "" && state.Tab != TabAll {
		tab, ok := schema.Tabs[state.Tab]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTab, state.Tab)
		}
		preds = append(preds, tab)
	}

	return preds, nil
}

// Apply returns the records matching every active filter, in input order
func Apply[T any](records []T, schema Schema[T], state State) ([]T, error) {
	preds, err := compile(schema, state)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if matches(r, preds) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matches[T any](r T, preds []predicate[T]) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

// TabCounts counts records per tab with every other filter applied. The
// state's own tab is ignored.
func TabCounts[T any](records []T, schema Schema[T], state State) (map[string]int, error) {
	state.Tab = ""
	base, err := Apply(records, schema, state)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(schema.Tabs)+1)
	counts[TabAll] = len(base)
	for name, tab := range schema.Tabs {
		n := 0
		for _, r := range base {
			if tab(r) {
				n++
			}
		}
		counts[name] = n
	}
	return counts, nil
}
