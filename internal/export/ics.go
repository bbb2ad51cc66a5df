package export

import (
	"fmt"
	"io"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/format"
)

const productID = "-//MyBTP//Planning//FR"

// WriteICS writes one VEVENT per slot dated inside [from, to].
func WriteICS(w io.Writer, data *btp.PlanningData, from, to btp.Date, now time.Time) error {
	if data == nil {
		data = &btp.PlanningData{}
	}
	users := make(map[int]string, len(data.Users))
	for _, u := range data.Users {
		users[u.ID] = u.DisplayName()
	}
	chantiers := make(map[int]btp.Chantier, len(data.Chantiers))
	for _, c := range data.Chantiers {
		chantiers[c.ID] = c
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, slot := range data.Slots {
		day := slot.Date.String()
		if day < from.String() || day > to.String() {
			continue
		}
		start, end, err := slotTimes(slot)
		if err != nil {
			return fmt.Errorf("slot %d: %w", slot.ID, err)
		}

		chantier := chantiers[slot.ChantierID]
		name := chantier.NameChantier
		if name == "" {
			name = fmt.Sprintf("Chantier #%d", slot.ChantierID)
		}
		who := users[slot.UserID]
		if who == "" {
			who = fmt.Sprintf("Employé #%d", slot.UserID)
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("slot-%d@mybtp", slot.ID))
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
		event.Props.SetText(ical.PropSummary, who+" - "+name)
		if chantier.AdresseChantier != "" {
			event.Props.SetText(ical.PropLocation, chantier.AdresseChantier+" "+chantier.CPVilleChantier)
		}
		event.Props.SetText(ical.PropDescription, fmt.Sprintf("%s, %s", format.Hours(slot.Hours), format.Currency(slot.Cost)))
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

// slotTimes places the slot's clock times on its day; an end before the
// start falls on the next day.
func slotTimes(s btp.Slot) (time.Time, time.Time, error) {
	startMin, err := format.ParseClock(s.StartHour)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMin, err := format.ParseClock(s.EndHour)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endMin < startMin {
		endMin += 24 * 60
	}
	day := s.Date.Time
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, startMin, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), 0, endMin, 0, 0, day.Location())
	return start, end, nil
}
