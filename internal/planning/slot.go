package planning

import (
	"fmt"
	"time"
)

// Preset is a one-key choice of working hours in the slot dialog.
type Preset struct {
	Name  string
	Label string
	Start string
	End   string
}

var Presets = []Preset{
	{Name: "matin", Label: "Matin", Start: "08:00", End: "12:00"},
	{Name: "apres-midi", Label: "Après-midi", Start: "13:00", End: "17:00"},
	{Name: "journee", Label: "Journée", Start: "08:00", End: "17:00"},
}

func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// TimeStep is the granularity of the custom time picker.
const TimeStep = 15 * time.Minute

// TimeOptions lists every HH:MM of a day at the given step.
func TimeOptions(step time.Duration) []string {
	if step <= 0 {
		step = TimeStep
	}
	var out []string
	for d := time.Duration(0); d < 24*time.Hour; d += step {
		m := int(d / time.Minute)
		out = append(out, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return out
}
