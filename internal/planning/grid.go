package planning

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/christopherklint97/mybtp/internal/btp"
)

// Cell is one day of a sub-row. A nil Slot is rendered as an "add" cell.
type Cell struct {
	Day  btp.Date
	Slot *btp.Slot
}

func (c Cell) Empty() bool { return c.Slot == nil }

// SubRow pairs a primary entity with one secondary entity it has slots with.
type SubRow struct {
	UserID     int
	ChantierID int
	Label      string
	Color      string
	Cells      []Cell
	Hours      decimal.Decimal
	Cost       decimal.Decimal
}

type Row struct {
	Key      string
	ID       int
	Label    string
	Color    string
	Expanded bool
	SubRows  []SubRow
	Hours    decimal.Decimal
	Cost     decimal.Decimal
}

type Grid struct {
	View  View
	From  btp.Date
	To    btp.Date
	Days  []btp.Date
	Rows  []Row
	Hours decimal.Decimal
	Cost  decimal.Decimal
}

func chantierLabel(c btp.Chantier) string {
	if c.NameChantier != "" {
		return c.NameChantier
	}
	if c.AdresseChantier != "" {
		return c.AdresseChantier
	}
	return "Chantier #" + strconv.Itoa(c.ID)
}

type entity struct {
	id    int
	label string
}

// RowKeys lists the top-level keys the grid would show for s, used to
// reconcile expansion before a render.
func RowKeys(s State, data *btp.PlanningData) []string {
	var keys []string
	for _, e := range primaries(s, data) {
		keys = append(keys, rowKey(s.View, e.id))
	}
	return keys
}

func rowKey(v View, id int) string {
	if v == Sites {
		return ChantierKey(id)
	}
	return UserKey(id)
}

// primaries are the rows of the active axis in server order, filtered by
// the search text.
func primaries(s State, data *btp.PlanningData) []entity {
	if data == nil {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(s.Search))
	var out []entity
	add := func(id int, label string) {
		if q == "" || strings.Contains(strings.ToLower(label), q) {
			out = append(out, entity{id: id, label: label})
		}
	}
	if s.View == Sites {
		for _, c := range data.Chantiers {
			add(c.ID, chantierLabel(c))
		}
	} else {
		for _, u := range data.Users {
			add(u.ID, u.DisplayName())
		}
	}
	return out
}

// Build lays out the grid for the state's window and axis.
func Build(s State, data *btp.PlanningData) Grid {
	if data == nil {
		data = &btp.PlanningData{}
	}
	from, to := s.Window()
	g := Grid{View: s.View, From: from, To: to, Days: DaysInRange(from, to)}

	var window []btp.Slot
	for _, slot := range data.Slots {
		if inWindow(slot.Date, from, to) {
			window = append(window, slot)
		}
	}

	users := make(map[int]string, len(data.Users))
	for _, u := range data.Users {
		users[u.ID] = u.DisplayName()
	}
	chantiers := make(map[int]string, len(data.Chantiers))
	for _, c := range data.Chantiers {
		chantiers[c.ID] = chantierLabel(c)
	}

	coll := collate.New(language.French, collate.IgnoreCase)

	for _, p := range primaries(s, data) {
		row := Row{
			Key:      rowKey(s.View, p.id),
			ID:       p.id,
			Label:    p.label,
			Expanded: s.IsExpanded(rowKey(s.View, p.id)),
		}
		if s.View == Workers {
			row.Color = ColorFor(p.id)
		}

		var secondaries []entity
		seen := make(map[int]bool)
		for _, slot := range window {
			var owner, other int
			if s.View == Sites {
				owner, other = slot.ChantierID, slot.UserID
			} else {
				owner, other = slot.UserID, slot.ChantierID
			}
			if owner != p.id || seen[other] {
				continue
			}
			seen[other] = true
			label, ok := users[other]
			if s.View == Workers {
				label, ok = chantiers[other]
			}
			if !ok {
				label = "#" + strconv.Itoa(other)
			}
			secondaries = append(secondaries, entity{id: other, label: label})
		}
		sortEntities(coll, secondaries)

		for _, sec := range secondaries {
			sub := SubRow{Label: sec.label}
			if s.View == Sites {
				sub.UserID, sub.ChantierID = sec.id, p.id
				sub.Color = ColorFor(sec.id)
			} else {
				sub.UserID, sub.ChantierID = p.id, sec.id
				sub.Color = row.Color
			}
			for _, slot := range window {
				if slot.UserID == sub.UserID && slot.ChantierID == sub.ChantierID {
					sub.Hours = sub.Hours.Add(slot.Hours)
					sub.Cost = sub.Cost.Add(slot.Cost)
				}
			}
			sub.Cells = make([]Cell, len(g.Days))
			for i, day := range g.Days {
				sub.Cells[i] = Cell{Day: day, Slot: ResolveCell(window, sub.UserID, sub.ChantierID, day)}
			}
			row.Hours = row.Hours.Add(sub.Hours)
			row.Cost = row.Cost.Add(sub.Cost)
			row.SubRows = append(row.SubRows, sub)
		}

		g.Hours = g.Hours.Add(row.Hours)
		g.Cost = g.Cost.Add(row.Cost)
		g.Rows = append(g.Rows, row)
	}
	return g
}

// ResolveCell returns the first slot, in array order, for that user,
// chantier and day, or nil.
func ResolveCell(slots []btp.Slot, userID, chantierID int, day btp.Date) *btp.Slot {
	for i := range slots {
		s := &slots[i]
		if s.UserID == userID && s.ChantierID == chantierID && s.Date.SameDay(day) {
			return s
		}
	}
	return nil
}

func sortEntities(coll *collate.Collator, es []entity) {
	sort.SliceStable(es, func(i, j int) bool {
		return coll.CompareString(es[i].label, es[j].label) < 0
	})
}
