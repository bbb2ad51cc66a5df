package export

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/planning"
)

func sampleData() *btp.PlanningData {
	return &btp.PlanningData{
		Slots: []btp.Slot{
			{ID: 7, Date: btp.NewDate(2024, time.March, 2), UserID: 5, ChantierID: 9, StartHour: "08:00", EndHour: "12:00",
				Hours: decimal.NewFromInt(4), Cost: decimal.NewFromInt(120)},
			{ID: 8, Date: btp.NewDate(2024, time.March, 10), UserID: 5, ChantierID: 9, StartHour: "22:00", EndHour: "02:00",
				Hours: decimal.NewFromInt(4), Cost: decimal.NewFromInt(160)},
		},
		Users:     []btp.User{{ID: 5, Prenom: "Léa", Nom: "Roux"}},
		Chantiers: []btp.Chantier{{ID: 9, NameChantier: "Villa Zénith", AdresseChantier: "3 rue des Lilas", CPVilleChantier: "69003 Lyon"}},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".ICS")
	require.NoError(t, err)
	assert.Equal(t, ICS, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteICS_OneEventPerSlotInWindow(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	err := WriteICS(&buf, sampleData(), btp.NewDate(2024, time.February, 26), btp.NewDate(2024, time.March, 3), now)
	require.NoError(t, err)

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	var events []ical.Event
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent {
			events = append(events, ical.Event{Component: child})
		}
	}
	require.Len(t, events, 1)

	summary, err := events[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Léa Roux - Villa Zénith", summary)

	start, err := events[0].DateTimeStart(nil)
	require.NoError(t, err)
	end, err := events[0].DateTimeEnd(nil)
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, end.Sub(start))
}

func TestSlotTimes_Overnight(t *testing.T) {
	start, end, err := slotTimes(sampleData().Slots[1])
	require.NoError(t, err)
	assert.Equal(t, 4*time.Hour, end.Sub(start))
	assert.Equal(t, 11, end.Day())
}

func TestWriteXLSX(t *testing.T) {
	s := planning.NewState(btp.NewDate(2024, time.March, 2), false)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX, s, sampleData(), time.Now()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	// header, Léa, Léa/Villa Zénith, total
	require.Len(t, rows, 4)
	assert.Equal(t, "Employé", rows[0][0])
	assert.Equal(t, "sam. 02/03", rows[0][7])
	assert.Equal(t, "Léa Roux", rows[1][0])
	assert.Equal(t, "Villa Zénith", rows[2][1])
	assert.Equal(t, "08:00-12:00", rows[2][7])
	assert.Equal(t, "Total", rows[3][0])
}
