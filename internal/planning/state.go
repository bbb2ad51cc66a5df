// Package planning builds the scheduling grid shown by the planning screen.
package planning

import (
	"fmt"
	"sort"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/format"
)

type View int

const (
	Workers View = iota
	Sites
)

func (v View) String() string {
	if v == Sites {
		return "sites"
	}
	return "workers"
}

// Label is the toggle caption.
func (v View) Label() string {
	if v == Sites {
		return "Vue Chantiers"
	}
	return "Vue Employés"
}

func ParseView(s string) (View, error) {
	switch s {
	case "", "workers":
		return Workers, nil
	case "sites":
		return Sites, nil
	}
	return Workers, fmt.Errorf("unknown planning view %q (want workers or sites)", s)
}

type Range int

const (
	Week Range = iota
	Month
)

func (r Range) String() string {
	if r == Month {
		return "month"
	}
	return "week"
}

func (r Range) Label() string {
	if r == Month {
		return "Mois"
	}
	return "Semaine"
}

func ParseRange(s string) (Range, error) {
	switch s {
	case "", "week":
		return Week, nil
	case "month":
		return Month, nil
	}
	return Week, fmt.Errorf("unknown planning range %q (want week or month)", s)
}

func UserKey(id int) string     { return fmt.Sprintf("user-%d", id) }
func ChantierKey(id int) string { return fmt.Sprintf("chantier-%d", id) }

// State is the planning screen's view state. Every transition returns a new
// value and leaves the receiver untouched.
type State struct {
	View            View
	Range           Range
	Anchor          btp.Date
	Search          string
	PersistCollapse bool

	expanded map[string]bool

	// pendingExpand is set until the next Reconcile re-derives "all
	// expanded" for the current axis.
	pendingExpand bool
}

func NewState(anchor btp.Date, persistCollapse bool) State {
	return State{
		View:            Workers,
		Range:           Week,
		Anchor:          anchor,
		PersistCollapse: persistCollapse,
		expanded:        map[string]bool{},
		pendingExpand:   true,
	}
}

func (s State) clone() State {
	expanded := make(map[string]bool, len(s.expanded))
	for k, v := range s.expanded {
		if v {
			expanded[k] = true
		}
	}
	s.expanded = expanded
	return s
}

func (s State) IsExpanded(key string) bool {
	return s.expanded[key]
}

// ExpandedKeys returns the expanded row keys, sorted.
func (s State) ExpandedKeys() []string {
	keys := make([]string, 0, len(s.expanded))
	for k := range s.expanded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithView switches the axis. Expansion is cleared and re-derived as all
// expanded on the next Reconcile.
func (s State) WithView(v View) State {
	if v == s.View {
		return s
	}
	next := s.clone()
	next.View = v
	next.expanded = map[string]bool{}
	next.pendingExpand = true
	return next
}

func (s State) ToggleView() State {
	if s.View == Workers {
		return s.WithView(Sites)
	}
	return s.WithView(Workers)
}

func (s State) WithRange(r Range) State {
	next := s.clone()
	next.Range = r
	return next
}

func (s State) ToggleRange() State {
	if s.Range == Week {
		return s.WithRange(Month)
	}
	return s.WithRange(Week)
}

// Shift moves the anchor by n weeks or n months.
func (s State) Shift(n int) State {
	next := s.clone()
	if s.Range == Month {
		first, _ := format.MonthBounds(s.Anchor.Time)
		next.Anchor = btp.DateOf(first.AddDate(0, n, 0))
	} else {
		next.Anchor = btp.DateOf(s.Anchor.AddDate(0, 0, 7*n))
	}
	return next
}

// Today moves the anchor back to the given day.
func (s State) Today(today btp.Date) State {
	next := s.clone()
	next.Anchor = today
	return next
}

func (s State) WithSearch(q string) State {
	next := s.clone()
	next.Search = q
	return next
}

func (s State) ToggleExpanded(key string) State {
	next := s.clone()
	if next.expanded[key] {
		delete(next.expanded, key)
	} else {
		next.expanded[key] = true
	}
	return next
}

func (s State) ExpandAll(keys []string) State {
	next := s.clone()
	for _, k := range keys {
		next.expanded[k] = true
	}
	return next
}

// Reconcile runs before every render. Unless collapse state persists, every
// top-level row is expanded again; after an axis switch all rows are
// expanded regardless. A pending reset waits until there are rows to expand.
func (s State) Reconcile(keys []string) State {
	if len(keys) == 0 || (s.PersistCollapse && !s.pendingExpand) {
		return s
	}
	next := s.ExpandAll(keys)
	next.pendingExpand = false
	return next
}

// Window is the inclusive day range the grid covers.
func (s State) Window() (btp.Date, btp.Date) {
	if s.Range == Month {
		from, to := format.MonthBounds(s.Anchor.Time)
		return btp.DateOf(from), btp.DateOf(to)
	}
	from, to := format.WeekBounds(s.Anchor.Time)
	return btp.DateOf(from), btp.DateOf(to)
}

// Title is the window caption, e.g. "mars 2024" or "04/03 - 10/03/2024".
func (s State) Title() string {
	from, to := s.Window()
	if s.Range == Month {
		return format.MonthTitle(from.Time)
	}
	return from.Format("02/01") + " - " + to.Format("02/01/2006")
}

// DaysInRange lists every calendar day from from to to inclusive.
func DaysInRange(from, to btp.Date) []btp.Date {
	if to.String() < from.String() {
		return nil
	}
	var days []btp.Date
	for d := from; ; d = btp.DateOf(d.AddDate(0, 0, 1)) {
		days = append(days, d)
		if d.SameDay(to) {
			break
		}
	}
	return days
}

// inWindow compares calendar days through their ISO form so the locations
// of the three dates do not matter.
func inWindow(d, from, to btp.Date) bool {
	day := d.String()
	return day >= from.String() && day <= to.String()
}
