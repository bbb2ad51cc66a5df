package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/christopherklint97/mybtp/internal/listing"
	"github.com/christopherklint97/mybtp/internal/toast"
)

// RenderTable draws a list table. An empty table gets its placeholder as a
// single line spanning every column. cursor < 0 highlights nothing.
func RenderTable(t listing.Table, cursor int) string {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == cursor:
				return cursorCellStyle
			}
			return cellStyle
		})

	out := tbl.Render()
	if !t.Empty() {
		return out
	}
	width := lipgloss.Width(out)
	return out + "\n" + placeholderStyle.Width(width).Render(t.Placeholder)
}

// renderModal centres a dialog over a dimmed backdrop filling the screen.
func renderModal(title, body string, width, height int) string {
	box := modalStyle.Render(titleStyle.Render(title) + "\n" + body)
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(overlayColor),
	)
}

func renderToast(t *toast.Toast) string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case toast.Success:
		return successStyle.Render("✓ " + t.Message)
	case toast.Error:
		return errorStyle.Render("✗ " + t.Message)
	}
	return warningStyle.Render("• " + t.Message)
}

type toastExpiredMsg struct{}

// expireToast wakes the model up once the toast has gone so it disappears
// without waiting for a key press.
func expireToast(ttl time.Duration) tea.Cmd {
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

func helpLine(items ...string) string {
	return helpStyle.Render(strings.Join(items, " • "))
}
