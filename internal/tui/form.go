package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/mybtp/internal/forms"
	"github.com/christopherklint97/mybtp/internal/planning"
)

type presetter interface {
	ApplyPreset(planning.Preset)
}

// formModel edits a create dialog. The parent owns submission: it watches
// submitRequested, runs the request and reports back with submitDone.
type formModel struct {
	form    forms.Form
	fields  []forms.Field
	inputs  map[string]*textinput.Model
	times   map[string]*timePicker
	choices map[string]string
	cursor  int

	picking bool
	picker  pickerModel
	preset  int

	submitRequested bool
	submitting      bool
	closed          bool
	errMsg          string
}

func newFormModel(f forms.Form) formModel {
	m := formModel{
		form:    f,
		inputs:  make(map[string]*textinput.Model),
		times:   make(map[string]*timePicker),
		choices: make(map[string]string),
		preset:  -1,
	}
	m.reload()
	m.focus()
	return m
}

// reload rebuilds the editors from the form's current values, e.g. after a
// preset or when select options arrived from the server.
func (m *formModel) reload() {
	m.fields = m.form.Fields()
	for _, f := range m.fields {
		switch f.Kind {
		case forms.Select:
			m.choices[f.Name] = f.Value
		case forms.Time:
			tp := newTimePicker(f.Value)
			if f.Value == "" {
				m.form.Set(f.Name, tp.Value())
			}
			m.times[f.Name] = &tp
		default:
			ti, ok := m.inputs[f.Name]
			if !ok {
				t := textinput.New()
				t.CharLimit = 200
				t.Width = 40
				t.Placeholder = f.Placeholder
				if f.Kind == forms.Password {
					t.EchoMode = textinput.EchoPassword
				}
				ti = &t
				m.inputs[f.Name] = ti
			}
			ti.SetValue(f.Value)
		}
	}
}

func (m *formModel) focus() tea.Cmd {
	var cmd tea.Cmd
	for i, f := range m.fields {
		ti, ok := m.inputs[f.Name]
		if !ok {
			continue
		}
		if i == m.cursor {
			cmd = ti.Focus()
		} else {
			ti.Blur()
		}
	}
	return cmd
}

// sync copies every editor into the form before validation.
func (m *formModel) sync() {
	for name, ti := range m.inputs {
		m.form.Set(name, ti.Value())
	}
	for name, tp := range m.times {
		m.form.Set(name, tp.Value())
	}
	for name, v := range m.choices {
		m.form.Set(name, v)
	}
}

func (m formModel) current() forms.Field {
	return m.fields[m.cursor]
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	if m.picking {
		return m.updatePicking(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInput(msg)
	}
	if m.submitting {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		m.closed = true
		return m, nil
	case "tab", "down":
		m.cursor = (m.cursor + 1) % len(m.fields)
		return m, m.focus()
	case "shift+tab", "up":
		m.cursor = (m.cursor - 1 + len(m.fields)) % len(m.fields)
		return m, m.focus()
	case "ctrl+s":
		return m.submit()
	case "ctrl+p":
		if p, ok := m.form.(presetter); ok {
			m.sync()
			m.preset = (m.preset + 1) % len(planning.Presets)
			p.ApplyPreset(planning.Presets[m.preset])
			m.reload()
		}
		return m, nil
	}

	field := m.current()
	switch field.Kind {
	case forms.Select:
		if keyMsg.String() == "enter" || keyMsg.String() == " " {
			m.picking = true
			m.picker = newPicker(field.Label, field.Options, m.choices[field.Name])
			return m, textinput.Blink
		}
		return m, nil
	case forms.Time:
		tp := m.times[field.Name]
		switch keyMsg.String() {
		case "left", "h", "-":
			tp.Step(-1)
		case "right", "l", "+":
			tp.Step(1)
		case "enter":
			return m.submit()
		}
		return m, nil
	}

	if keyMsg.String() == "enter" {
		if m.cursor == len(m.fields)-1 {
			return m.submit()
		}
		m.cursor++
		return m, m.focus()
	}
	return m.updateInput(msg)
}

func (m formModel) updateInput(msg tea.Msg) (formModel, tea.Cmd) {
	if len(m.fields) == 0 {
		return m, nil
	}
	ti, ok := m.inputs[m.current().Name]
	if !ok {
		return m, nil
	}
	var cmd tea.Cmd
	*ti, cmd = ti.Update(msg)
	return m, cmd
}

func (m formModel) updatePicking(msg tea.Msg) (formModel, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if m.picker.done {
		if opt, ok := m.picker.Selected(); ok {
			m.choices[m.current().Name] = opt.Value
		}
		m.picking = false
	}
	if m.picker.canceled {
		m.picking = false
	}
	return m, cmd
}

// submit validates locally; only a valid form is handed to the parent.
func (m formModel) submit() (formModel, tea.Cmd) {
	m.sync()
	if err := m.form.Validate(); err != nil {
		m.errMsg = err.Error()
		var fe *forms.FieldError
		if errors.As(err, &fe) {
			for i, f := range m.fields {
				if f.Name == fe.Field {
					m.cursor = i
				}
			}
		}
		return m, m.focus()
	}
	m.errMsg = ""
	m.submitRequested = true
	m.submitting = true
	return m, nil
}

// submitDone re-enables the dialog after a failed request.
func (m *formModel) submitDone(errMsg string) {
	m.submitting = false
	m.errMsg = errMsg
}

func (m formModel) optionLabel(f forms.Field) string {
	v := m.choices[f.Name]
	for _, o := range f.Options {
		if o.Value == v {
			return o.Label
		}
	}
	if v == "" {
		return dimStyle.Render("Sélectionner...")
	}
	return v
}

func (m formModel) View() string {
	if m.picking {
		return m.picker.View()
	}

	var b strings.Builder
	for i, f := range m.fields {
		label := f.Label
		if f.Required {
			label += " *"
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n  ")

		switch f.Kind {
		case forms.Select:
			b.WriteString(m.optionLabel(f))
		case forms.Time:
			b.WriteString(m.times[f.Name].View(i == m.cursor))
		default:
			b.WriteString(m.inputs[f.Name].View())
		}
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}

	submit := "[ Créer ]"
	if m.submitting {
		submit = dimStyle.Render("[ Création... ]")
	} else {
		submit = highlightStyle.Render(submit)
	}
	b.WriteString("\n" + submit + "\n")

	help := []string{"Tab: champ suivant", "Enter: choisir/valider", "Ctrl+S: créer", "Esc: annuler"}
	if _, ok := m.form.(presetter); ok {
		help = append(help, "Ctrl+P: Matin/Après-midi/Journée", "←/→: ±15 min")
	}
	b.WriteString(helpLine(help...))
	return b.String()
}
