// Package listing holds the filter-and-table model behind every list page.
package listing

import (
	"context"
	"sort"
	"strings"

	"github.com/christopherklint97/mybtp/internal/btp"
)

// LoadResult is the outcome of one fetch: either the items or the reason
// they could not be loaded.
type LoadResult[T any] struct {
	items []T
	err   error
}

func Ok[T any](items []T) LoadResult[T] {
	if items == nil {
		items = []T{}
	}
	return LoadResult[T]{items: items}
}

func Err[T any](err error) LoadResult[T] {
	return LoadResult[T]{err: err}
}

func (r LoadResult[T]) Items() ([]T, error) {
	return r.items, r.err
}

// Range bounds a numeric column, both ends inclusive. A nil end is open.
type Range struct {
	Min *int
	Max *int
}

func (r Range) contains(v int) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

func (r Range) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// Filter is what the user typed and picked above a table. An empty enum
// value means "any".
type Filter struct {
	Query string
	Enums map[string]string
	Range Range
}

// Enum is a column the user can filter on by exact value.
type Enum[T any] struct {
	Name  string
	Label string
	Value func(T) string
}

// Spec describes one feature's list page.
type Spec[T any] struct {
	Feature     btp.Feature
	Title       string
	Columns     []string
	Placeholder string
	Fetch       func(*btp.Client, context.Context) ([]T, error)
	Search      func(T) []string
	Enums       []Enum[T]
	RangeLabel  string
	RangeValue  func(T) int
	Row         func(T) []string
}

// Match reports whether item passes f.
func (s Spec[T]) Match(item T, f Filter) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		found := false
		for _, field := range s.Search(item) {
			if strings.Contains(strings.ToLower(field), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, e := range s.Enums {
		if want := f.Enums[e.Name]; want != "" && e.Value(item) != want {
			return false
		}
	}
	if s.RangeValue != nil && !f.Range.contains(s.RangeValue(item)) {
		return false
	}
	return true
}

// Apply returns the items of all passing f, in their original order.
func (s Spec[T]) Apply(all []T, f Filter) []T {
	out := make([]T, 0, len(all))
	for _, item := range all {
		if s.Match(item, f) {
			out = append(out, item)
		}
	}
	return out
}

// Page is the state of one list screen.
type Page[T any] struct {
	spec     Spec[T]
	all      []T
	filtered []T
	filter   Filter
	err      error
}

func NewPage[T any](spec Spec[T]) *Page[T] {
	return &Page[T]{spec: spec, all: []T{}, filtered: []T{}}
}

func (p *Page[T]) Spec() Spec[T] { return p.spec }

// Load replaces the whole list and re-applies the current filter.
func (p *Page[T]) Load(r LoadResult[T]) {
	items, err := r.Items()
	p.err = err
	if err != nil {
		items = []T{}
	}
	p.all = items
	p.filtered = p.spec.Apply(p.all, p.filter)
}

func (p *Page[T]) Apply(f Filter) {
	p.filter = f
	p.filtered = p.spec.Apply(p.all, f)
}

func (p *Page[T]) Filter() Filter { return p.filter }
func (p *Page[T]) All() []T       { return p.all }
func (p *Page[T]) Filtered() []T  { return p.filtered }
func (p *Page[T]) Err() error     { return p.err }

// EnumValues lists the distinct non-empty values of an enum column, sorted.
func (p *Page[T]) EnumValues(name string) []string {
	for _, e := range p.spec.Enums {
		if e.Name != name {
			continue
		}
		seen := make(map[string]bool)
		var values []string
		for _, item := range p.all {
			v := e.Value(item)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		sort.Strings(values)
		return values
	}
	return nil
}

// Table rebuilds the rendered rows from the filtered list.
func (p *Page[T]) Table() Table {
	t := Table{Headers: p.spec.Columns}
	if len(p.filtered) == 0 {
		t.Placeholder = p.spec.Placeholder
		return t
	}
	t.Rows = make([][]string, 0, len(p.filtered))
	for _, item := range p.filtered {
		t.Rows = append(t.Rows, p.spec.Row(item))
	}
	return t
}

// Table is a rendered list. When Rows is empty the Placeholder is shown as
// a single row spanning every column.
type Table struct {
	Headers     []string
	Rows        [][]string
	Placeholder string
}

func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Span is the number of columns the placeholder row covers.
func (t Table) Span() int { return len(t.Headers) }
