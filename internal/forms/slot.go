package forms

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/format"
	"github.com/christopherklint97/mybtp/internal/planning"
)

type slotInput struct {
	Date      string `form:"date" validate:"required,isodate"`
	StartHour string `form:"start_hour" validate:"required,clock"`
	EndHour   string `form:"end_hour" validate:"required,clock"`
	User      string `form:"user" validate:"required,number"`
	Chantier  string `form:"chantier" validate:"required,number"`
}

// slotHoursValidation rejects slots that end at or before their start.
// HH:MM strings compare in clock order.
func slotHoursValidation(sl validator.StructLevel) {
	in := sl.Current().Interface().(slotInput)
	if !clockRe.MatchString(in.StartHour) || !clockRe.MatchString(in.EndHour) {
		return
	}
	if in.EndHour <= in.StartHour {
		sl.ReportError(in.EndHour, "end_hour", "EndHour", "after", "")
	}
}

// SlotForm creates one planning slot.
type SlotForm struct {
	base
	input slotInput
}

func NewSlotForm() *SlotForm {
	f := &SlotForm{}
	f.base = base{
		title:   "Ajouter un Créneau",
		feature: btp.Planning,
		values:  bind(&f.input),
		fields: []Field{
			{Name: "date", Label: "Date", Kind: Date, Required: true, Placeholder: "AAAA-MM-JJ"},
			{Name: "start_hour", Label: "Heure de début", Kind: Time, Required: true, Options: timeOptions()},
			{Name: "end_hour", Label: "Heure de fin", Kind: Time, Required: true, Options: timeOptions()},
			{Name: "user", Label: "Employé", Kind: Select, Required: true},
			{Name: "chantier", Label: "Chantier", Kind: Select, Required: true},
		},
	}
	return f
}

func timeOptions() []Option {
	return optionsOf(planning.TimeOptions(planning.TimeStep)...)
}

func (f *SlotForm) Validate() error {
	return check(&f.input, f.fields)
}

// Prefill sets the cell the dialog was opened from. Zero ids are left empty.
func (f *SlotForm) Prefill(day btp.Date, userID, chantierID int) {
	f.input.Date = day.String()
	if userID != 0 {
		f.input.User = strconv.Itoa(userID)
	}
	if chantierID != 0 {
		f.input.Chantier = strconv.Itoa(chantierID)
	}
}

func (f *SlotForm) ApplyPreset(p planning.Preset) {
	f.input.StartHour = p.Start
	f.input.EndHour = p.End
}

// SetPeople fills the employee and chantier choices from planning data.
func (f *SlotForm) SetPeople(data *btp.PlanningData) {
	if data == nil {
		return
	}
	users := make([]Option, 0, len(data.Users))
	for _, u := range data.Users {
		users = append(users, Option{Value: strconv.Itoa(u.ID), Label: u.DisplayName()})
	}
	chantiers := make([]Option, 0, len(data.Chantiers))
	for _, c := range data.Chantiers {
		label := c.NameChantier
		if label == "" {
			label = c.AdresseChantier
		}
		chantiers = append(chantiers, Option{Value: strconv.Itoa(c.ID), Label: label})
	}
	f.SetOptions("user", users)
	f.SetOptions("chantier", chantiers)
}

// Hours previews the slot duration from the chosen times.
func (f *SlotForm) Hours() (decimal.Decimal, error) {
	return format.CalculateHours(f.input.StartHour, f.input.EndHour)
}
