package planning

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/mybtp/internal/btp"
)

func date(y int, m time.Month, d int) btp.Date {
	return btp.NewDate(y, m, d)
}

func strDays(days []btp.Date) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

func sampleData() *btp.PlanningData {
	return &btp.PlanningData{
		Slots: []btp.Slot{
			{ID: 1, Date: date(2024, time.March, 2), UserID: 5, ChantierID: 9, StartHour: "08:00", EndHour: "12:00",
				Hours: decimal.NewFromInt(4), Cost: decimal.NewFromInt(120)},
			{ID: 2, Date: date(2024, time.March, 2), UserID: 5, ChantierID: 9, StartHour: "13:00", EndHour: "17:00",
				Hours: decimal.NewFromInt(4), Cost: decimal.NewFromInt(120)},
			{ID: 3, Date: date(2024, time.February, 28), UserID: 5, ChantierID: 4, StartHour: "08:00", EndHour: "17:00",
				Hours: decimal.NewFromInt(9), Cost: decimal.NewFromInt(270)},
			{ID: 4, Date: date(2024, time.February, 29), UserID: 6, ChantierID: 4, StartHour: "08:00", EndHour: "12:00",
				Hours: decimal.NewFromInt(4), Cost: decimal.NewFromInt(100)},
			// Outside the week of 2024-03-02.
			{ID: 5, Date: date(2024, time.March, 4), UserID: 6, ChantierID: 9, StartHour: "08:00", EndHour: "12:00",
				Hours: decimal.NewFromInt(4), Cost: decimal.NewFromInt(100)},
		},
		Users: []btp.User{
			{ID: 5, Prenom: "Léa", Nom: "Roux"},
			{ID: 6, FullName: "Marc Dubois"},
		},
		Chantiers: []btp.Chantier{
			{ID: 9, NameChantier: "Villa Zénith"},
			{ID: 4, NameChantier: "Atelier Bron"},
		},
	}
}

func TestDaysInRange(t *testing.T) {
	days := DaysInRange(date(2024, time.March, 1), date(2024, time.March, 3))
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, strDays(days))

	assert.Len(t, DaysInRange(date(2024, time.February, 1), date(2024, time.February, 29)), 29)
	assert.Len(t, DaysInRange(date(2024, time.March, 3), date(2024, time.March, 3)), 1)
	assert.Nil(t, DaysInRange(date(2024, time.March, 3), date(2024, time.March, 1)))
}

func TestState_Window(t *testing.T) {
	s := NewState(date(2024, time.March, 2), false)
	from, to := s.Window()
	assert.Equal(t, "2024-02-26", from.String())
	assert.Equal(t, "2024-03-03", to.String())

	from, to = s.ToggleRange().Window()
	assert.Equal(t, "2024-03-01", from.String())
	assert.Equal(t, "2024-03-31", to.String())
}

func TestState_Shift(t *testing.T) {
	s := NewState(date(2024, time.January, 31), false)
	assert.Equal(t, "2024-02-07", s.Shift(1).Anchor.String())
	assert.Equal(t, "2024-01-24", s.Shift(-1).Anchor.String())

	m := s.WithRange(Month)
	assert.Equal(t, "2024-02-01", m.Shift(1).Anchor.String())
	assert.Equal(t, "2023-12-01", m.Shift(-1).Anchor.String())

	assert.Equal(t, "2024-03-02", m.Shift(5).Today(date(2024, time.March, 2)).Anchor.String())
}

func TestState_ReducersDoNotMutate(t *testing.T) {
	s := NewState(date(2024, time.March, 2), true).Reconcile([]string{"user-5"})
	_ = s.ToggleExpanded("user-5")
	_ = s.WithSearch("léa")
	_ = s.ToggleView()

	assert.True(t, s.IsExpanded("user-5"))
	assert.Empty(t, s.Search)
	assert.Equal(t, Workers, s.View)
}

func TestState_ToggleTwiceRestores(t *testing.T) {
	s := NewState(date(2024, time.March, 2), true).Reconcile([]string{"user-5", "user-6"})
	before := s.ExpandedKeys()

	once := s.ToggleExpanded("user-5")
	assert.False(t, once.IsExpanded("user-5"))
	twice := once.ToggleExpanded("user-5")
	assert.Equal(t, before, twice.ExpandedKeys())
}

func TestState_ForceExpandUnlessPersisted(t *testing.T) {
	keys := []string{"user-5", "user-6"}

	forced := NewState(date(2024, time.March, 2), false).Reconcile(keys)
	forced = forced.ToggleExpanded("user-5").Reconcile(keys)
	assert.True(t, forced.IsExpanded("user-5"))

	kept := NewState(date(2024, time.March, 2), true).Reconcile(keys)
	kept = kept.ToggleExpanded("user-5").Reconcile(keys)
	assert.False(t, kept.IsExpanded("user-5"))
}

func TestState_AxisSwitchResetsToAllExpanded(t *testing.T) {
	data := sampleData()
	s := NewState(date(2024, time.March, 2), true)
	s = s.Reconcile(RowKeys(s, data)).ToggleExpanded("user-5")

	s = s.ToggleView()
	assert.Empty(t, s.ExpandedKeys())
	s = s.Reconcile(RowKeys(s, data))
	assert.Equal(t, []string{"chantier-4", "chantier-9"}, s.ExpandedKeys())

	s = s.ToggleView()
	s = s.Reconcile(RowKeys(s, data))
	assert.Equal(t, []string{"user-5", "user-6"}, s.ExpandedKeys())
}

func TestBuild_SlotLandsInOneCell(t *testing.T) {
	data := sampleData()
	day := date(2024, time.March, 2)

	for _, view := range []View{Workers, Sites} {
		t.Run(view.String(), func(t *testing.T) {
			s := NewState(day, false).WithView(view)
			g := Build(s, data)
			require.Len(t, g.Days, 7)

			var hits int
			for _, row := range g.Rows {
				for _, sub := range row.SubRows {
					for _, cell := range sub.Cells {
						if cell.Empty() {
							continue
						}
						if cell.Slot.ID == 1 {
							hits++
							assert.Equal(t, "2024-03-02", cell.Day.String())
							assert.Equal(t, 5, sub.UserID)
							assert.Equal(t, 9, sub.ChantierID)
						}
					}
				}
			}
			assert.Equal(t, 1, hits)
		})
	}
}

func TestBuild_WorkersView(t *testing.T) {
	g := Build(NewState(date(2024, time.March, 2), false), sampleData())

	require.Len(t, g.Rows, 2)
	lea := g.Rows[0]
	assert.Equal(t, "user-5", lea.Key)
	assert.Equal(t, "Léa Roux", lea.Label)
	assert.Equal(t, ColorFor(5), lea.Color)

	// Sub-rows sorted by display name.
	require.Len(t, lea.SubRows, 2)
	assert.Equal(t, "Atelier Bron", lea.SubRows[0].Label)
	assert.Equal(t, "Villa Zénith", lea.SubRows[1].Label)
	assert.True(t, lea.SubRows[1].Hours.Equal(decimal.NewFromInt(8)))
	assert.True(t, lea.Hours.Equal(decimal.NewFromInt(17)))
	assert.True(t, lea.Cost.Equal(decimal.NewFromInt(510)))

	// The slot on 03-04 is outside the window, so Marc only has Bron.
	marc := g.Rows[1]
	require.Len(t, marc.SubRows, 1)
	assert.Equal(t, 4, marc.SubRows[0].ChantierID)
	assert.True(t, g.Hours.Equal(decimal.NewFromInt(21)))
}

func TestBuild_SearchAndEmptyData(t *testing.T) {
	s := NewState(date(2024, time.March, 2), false).WithView(Sites).WithSearch("ZÉNITH")
	g := Build(s, sampleData())
	require.Len(t, g.Rows, 1)
	assert.Equal(t, "chantier-9", g.Rows[0].Key)

	empty := Build(NewState(date(2024, time.March, 2), false), nil)
	assert.Empty(t, empty.Rows)
	assert.Len(t, empty.Days, 7)
}

func TestResolveCell_FirstMatchWins(t *testing.T) {
	data := sampleData()
	got := ResolveCell(data.Slots, 5, 9, date(2024, time.March, 2))
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ID)

	assert.Nil(t, ResolveCell(data.Slots, 5, 9, date(2024, time.March, 3)))
	assert.Nil(t, ResolveCell(data.Slots, 6, 9, date(2024, time.March, 2)))
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, ColorFor(3), ColorFor(13))
	assert.NotEqual(t, ColorFor(3), ColorFor(4))
	assert.Equal(t, ColorFor(7), ColorFor(-3))
}

func TestSeq(t *testing.T) {
	var s Seq
	first := s.Next()
	second := s.Next()
	assert.False(t, s.Current(first))
	assert.True(t, s.Current(second))
}

func TestPresetsAndTimeOptions(t *testing.T) {
	p, ok := PresetByName("apres-midi")
	require.True(t, ok)
	assert.Equal(t, "13:00", p.Start)
	assert.Equal(t, "17:00", p.End)

	j, ok := PresetByName("journee")
	require.True(t, ok)
	assert.Equal(t, "08:00", j.Start)
	assert.Equal(t, "17:00", j.End)

	opts := TimeOptions(TimeStep)
	require.Len(t, opts, 96)
	assert.Equal(t, "00:00", opts[0])
	assert.Equal(t, "00:15", opts[1])
	assert.Equal(t, "23:45", opts[95])
	assert.Contains(t, opts, "08:00")
}

func TestState_ResetWaitsForRows(t *testing.T) {
	s := NewState(date(2024, time.March, 2), true).Reconcile(nil)
	s = s.Reconcile([]string{"user-5"})
	assert.True(t, s.IsExpanded("user-5"))

	s = s.ToggleExpanded("user-5").Reconcile([]string{"user-5"})
	assert.False(t, s.IsExpanded("user-5"))
}
