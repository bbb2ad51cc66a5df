package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type capturer interface {
	Capturing() bool
}

// Tabs shows several screens under one command, e.g. employees and teams.
// Tab switches screens unless the active one is typing into a field.
type Tabs struct {
	titles []string
	models []tea.Model
	active int
}

func NewTabs(titles []string, models ...tea.Model) *Tabs {
	return &Tabs{titles: titles, models: models}
}

func (t *Tabs) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(t.models))
	for _, m := range t.models {
		cmds = append(cmds, m.Init())
	}
	return tea.Batch(cmds...)
}

func (t *Tabs) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		active := t.models[t.active]
		c, ok := active.(capturer)
		capturing := ok && c.Capturing()
		switch keyMsg.String() {
		case "tab", "shift+tab":
			if !capturing {
				step := 1
				if keyMsg.String() == "shift+tab" {
					step = len(t.models) - 1
				}
				t.active = (t.active + step) % len(t.models)
				return t, nil
			}
		}
		var cmd tea.Cmd
		t.models[t.active], cmd = active.Update(msg)
		return t, cmd
	}

	// Everything else may belong to any screen; each one ignores what is
	// not addressed to it.
	var cmds []tea.Cmd
	for i, m := range t.models {
		var cmd tea.Cmd
		t.models[i], cmd = m.Update(msg)
		cmds = append(cmds, cmd)
	}
	return t, tea.Batch(cmds...)
}

func (t *Tabs) View() string {
	tabs := make([]string, len(t.titles))
	for i, title := range t.titles {
		if i == t.active {
			tabs[i] = badgeStyle.Render(title)
		} else {
			tabs[i] = dimStyle.Padding(0, 1).Render(title)
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return bar + "\n" + strings.TrimLeft(t.models[t.active].View(), "\n")
}
