package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/mybtp/internal/forms"
)

const pickerVisible = 8

// pickerModel chooses one option of a select field, with a filter line.
type pickerModel struct {
	label    string
	options  []forms.Option
	filtered []int // indices into options
	cursor   int
	filter   textinput.Model
	done     bool
	canceled bool
}

func newPicker(label string, options []forms.Option, current string) pickerModel {
	ti := textinput.New()
	ti.Placeholder = "Filtrer..."
	ti.Focus()

	m := pickerModel{
		label:   label,
		options: options,
		filter:  ti,
	}
	m.applyFilter()
	for i, idx := range m.filtered {
		if options[idx].Value == current {
			m.cursor = i
		}
	}
	return m
}

func (m pickerModel) Update(msg tea.Msg) (pickerModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.canceled = true
			return m, nil
		case "enter":
			if len(m.filtered) > 0 {
				m.done = true
			}
			return m, nil
		case "up", "ctrl+k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	prevFilter := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)

	if m.filter.Value() != prevFilter {
		m.applyFilter()
	}

	return m, cmd
}

func (m *pickerModel) applyFilter() {
	query := strings.ToLower(m.filter.Value())
	m.filtered = m.filtered[:0]
	for i, o := range m.options {
		if query == "" || strings.Contains(strings.ToLower(o.Label), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// Selected is the chosen option; ok is false when nothing matches.
func (m pickerModel) Selected() (forms.Option, bool) {
	if len(m.filtered) == 0 {
		return forms.Option{}, false
	}
	return m.options[m.filtered[m.cursor]], true
}

func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString(highlightStyle.Render(m.label))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("  Aucun résultat"))
		b.WriteString("\n")
	} else {
		start := 0
		if m.cursor >= pickerVisible {
			start = m.cursor - pickerVisible + 1
		}
		end := min(start+pickerVisible, len(m.filtered))

		for vi := start; vi < end; vi++ {
			opt := m.options[m.filtered[vi]]
			if vi == m.cursor {
				b.WriteString(highlightStyle.Render("> " + opt.Label))
			} else {
				b.WriteString("  " + opt.Label)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render(fmt.Sprintf("%d choix • ↑/↓: naviguer • Enter: choisir • Esc: annuler", len(m.filtered))))
	return b.String()
}
