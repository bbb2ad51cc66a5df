package tui

import (
	"github.com/christopherklint97/mybtp/internal/planning"
)

// timePicker steps through the day in planning.TimeStep increments.
type timePicker struct {
	options []string
	index   int
}

func newTimePicker(value string) timePicker {
	p := timePicker{options: planning.TimeOptions(planning.TimeStep)}
	p.Set(value)
	return p
}

// Set moves to value; unknown values leave the picker at 08:00.
func (p *timePicker) Set(value string) {
	p.index = 32
	for i, o := range p.options {
		if o == value {
			p.index = i
			return
		}
	}
}

func (p *timePicker) Step(n int) {
	p.index = (p.index + n) % len(p.options)
	if p.index < 0 {
		p.index += len(p.options)
	}
}

func (p timePicker) Value() string {
	return p.options[p.index]
}

func (p timePicker) View(focused bool) string {
	v := "◂ " + p.Value() + " ▸"
	if focused {
		return highlightStyle.Render(v)
	}
	return v
}
