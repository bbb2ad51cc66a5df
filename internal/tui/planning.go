package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/debounce"
	"github.com/christopherklint97/mybtp/internal/format"
	"github.com/christopherklint97/mybtp/internal/forms"
	"github.com/christopherklint97/mybtp/internal/planning"
	"github.com/christopherklint97/mybtp/internal/toast"
)

type planningLoadedMsg struct {
	seq  uint64
	data *btp.PlanningData
	err  error
}

// gridLine is one visible line of the grid: a row, or one of its sub-rows
// when sub is >= 0.
type gridLine struct {
	row int
	sub int
}

// PlanningApp is the planning calendar screen.
type PlanningApp struct {
	client   *btp.Client
	logger   *slog.Logger
	notifier *toast.Notifier
	now      func() time.Time

	state   planning.State
	data    *btp.PlanningData
	loadErr error
	grid    planning.Grid
	lines   []gridLine

	seq     planning.Seq
	loading bool
	spinner spinner.Model

	search    textinput.Model
	searching bool
	debouncer *debounce.Debouncer[string]
	searchCh  chan string

	line int
	col  int

	form     formModel
	formOpen bool

	width  int
	height int
}

func NewPlanningApp(state planning.State, client *btp.Client, notifier *toast.Notifier, logger *slog.Logger) *PlanningApp {
	if logger == nil {
		logger = slog.Default()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "Rechercher..."
	ti.CharLimit = 100
	ti.Width = 30
	ti.SetValue(state.Search)

	ch := make(chan string, 1)
	a := &PlanningApp{
		client:   client,
		logger:   logger,
		notifier: notifier,
		now:      time.Now,
		state:    state,
		data:     &btp.PlanningData{},
		spinner:  s,
		search:   ti,
		searchCh: ch,
	}
	a.debouncer = debounce.New(searchDelay, func(q string) {
		select {
		case <-ch:
		default:
		}
		ch <- q
	})
	a.rebuild()
	return a
}

func (a *PlanningApp) Init() tea.Cmd {
	return tea.Batch(a.load(), a.spinner.Tick, a.waitForSearch())
}

func (a *PlanningApp) Capturing() bool {
	return a.searching || a.formOpen
}

// rebuild reconciles expansion and lays the grid out again. It runs after
// every state change so the force-expand rule applies on each render.
func (a *PlanningApp) rebuild() {
	a.state = a.state.Reconcile(planning.RowKeys(a.state, a.data))
	a.grid = planning.Build(a.state, a.data)

	a.lines = a.lines[:0]
	for i, row := range a.grid.Rows {
		a.lines = append(a.lines, gridLine{row: i, sub: -1})
		if !row.Expanded {
			continue
		}
		for j := range row.SubRows {
			a.lines = append(a.lines, gridLine{row: i, sub: j})
		}
	}
	if a.line >= len(a.lines) {
		a.line = max(0, len(a.lines)-1)
	}
	if a.col >= len(a.grid.Days) {
		a.col = max(0, len(a.grid.Days)-1)
	}
}

func (a *PlanningApp) load() tea.Cmd {
	seq := a.seq.Next()
	a.loading = true
	from, to := a.state.Window()
	client := a.client
	return func() tea.Msg {
		data, err := client.Planning(context.Background(), from, to)
		return planningLoadedMsg{seq: seq, data: data, err: err}
	}
}

func (a *PlanningApp) waitForSearch() tea.Cmd {
	ch := a.searchCh
	return func() tea.Msg {
		return searchMsg{owner: btp.Planning, query: <-ch}
	}
}

func (a *PlanningApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.debouncer.Stop()
			return a, tea.Quit
		}
	case planningLoadedMsg:
		return a.handleLoaded(msg)
	case searchMsg:
		if msg.owner != btp.Planning {
			return a, nil
		}
		a.state = a.state.WithSearch(msg.query)
		a.rebuild()
		return a, a.waitForSearch()
	case createdMsg:
		if msg.owner != btp.Planning {
			return a, nil
		}
		return a.handleCreated(msg)
	case toastExpiredMsg:
		return a, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	if a.formOpen {
		return a.updateForm(msg)
	}
	if a.searching {
		return a.updateSearch(msg)
	}
	return a.updateGrid(msg)
}

func (a *PlanningApp) handleLoaded(msg planningLoadedMsg) (tea.Model, tea.Cmd) {
	if !a.seq.Current(msg.seq) {
		a.logger.Debug("dropping stale planning response", "seq", msg.seq)
		return a, nil
	}
	a.loading = false
	a.loadErr = msg.err
	a.data = msg.data
	if msg.err != nil || msg.data == nil {
		a.logger.Error("loading planning failed", "error", msg.err)
		a.data = &btp.PlanningData{}
	}
	a.rebuild()
	return a, nil
}

func (a *PlanningApp) updateGrid(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	switch keyMsg.String() {
	case "q":
		a.debouncer.Stop()
		return a, tea.Quit
	case "/":
		a.searching = true
		return a, a.search.Focus()
	case "up", "k":
		if a.line > 0 {
			a.line--
		}
	case "down", "j":
		if a.line < len(a.lines)-1 {
			a.line++
		}
	case "left", "h":
		if a.col > 0 {
			a.col--
		}
	case "right", "l":
		if a.col < len(a.grid.Days)-1 {
			a.col++
		}
	case "v":
		a.state = a.state.ToggleView()
		a.line = 0
		a.rebuild()
	case "m":
		a.state = a.state.ToggleRange()
		return a, a.reloadWindow()
	case "[":
		a.state = a.state.Shift(-1)
		return a, a.reloadWindow()
	case "]":
		a.state = a.state.Shift(1)
		return a, a.reloadWindow()
	case "t":
		a.state = a.state.Today(btp.DateOf(a.now()))
		return a, a.reloadWindow()
	case "e":
		a.state = a.state.ExpandAll(planning.RowKeys(a.state, a.data))
		a.rebuild()
	case "r":
		return a, a.load()
	case "enter", " ":
		return a.activate()
	case "a":
		return a.openSlotForm(0, 0)
	}
	return a, nil
}

// reloadWindow clears the grid for the new window while it loads.
func (a *PlanningApp) reloadWindow() tea.Cmd {
	a.rebuild()
	return a.load()
}

// activate toggles a row, or opens the slot dialog on a sub-row cell.
func (a *PlanningApp) activate() (tea.Model, tea.Cmd) {
	if len(a.lines) == 0 {
		return a, nil
	}
	l := a.lines[a.line]
	row := a.grid.Rows[l.row]
	if l.sub < 0 {
		a.state = a.state.ToggleExpanded(row.Key)
		a.rebuild()
		return a, nil
	}
	sub := row.SubRows[l.sub]
	return a.openSlotForm(sub.UserID, sub.ChantierID)
}

func (a *PlanningApp) openSlotForm(userID, chantierID int) (tea.Model, tea.Cmd) {
	f := forms.NewSlotForm()
	f.SetPeople(a.data)
	day := a.state.Anchor
	if a.col < len(a.grid.Days) {
		day = a.grid.Days[a.col]
	}
	f.Prefill(day, userID, chantierID)

	a.form = newFormModel(f)
	a.formOpen = true
	return a, a.form.focus()
}

func (a *PlanningApp) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.form, cmd = a.form.Update(msg)
	if a.form.closed {
		a.formOpen = false
		return a, nil
	}
	if a.form.submitRequested {
		a.form.submitRequested = false
		return a, tea.Batch(cmd, submitForm(a.client, btp.Planning, a.form.form))
	}
	return a, cmd
}

func (a *PlanningApp) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		text := "Erreur lors de la création du créneau"
		var ve *btp.ValidationError
		if errors.As(msg.err, &ve) {
			if _, m := ve.First(); m != "" {
				text = "Erreur: " + m
			}
		} else {
			a.logger.Error("creating slot failed", "error", msg.err)
		}
		a.form.submitDone(text)
		a.notifier.Error(text)
		return a, expireToast(a.notifier.TTL())
	}

	a.formOpen = false
	a.notifier.Success("Créneau créé avec succès")
	return a, tea.Batch(expireToast(a.notifier.TTL()), a.load())
}

func (a *PlanningApp) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "enter":
			a.searching = false
			a.search.Blur()
			return a, nil
		}
	}

	var cmd tea.Cmd
	prev := a.search.Value()
	a.search, cmd = a.search.Update(msg)
	if a.search.Value() != prev {
		a.debouncer.Call(a.search.Value())
	}
	return a, cmd
}

func (a *PlanningApp) dayHeader(d btp.Date) string {
	if a.state.Range == planning.Month {
		return d.Format("02")
	}
	return format.DayHeader(d.Time)
}

func (a *PlanningApp) cellText(c planning.Cell) string {
	if c.Empty() {
		return dimStyle.Render("+")
	}
	if a.state.Range == planning.Month {
		return "●"
	}
	return format.Time(c.Slot.StartHour) + "-" + format.Time(c.Slot.EndHour)
}

// dayHours sums the hours a row has on each day of the window.
func dayHours(row planning.Row, days int) []decimal.Decimal {
	out := make([]decimal.Decimal, days)
	for _, sub := range row.SubRows {
		for i, c := range sub.Cells {
			if !c.Empty() {
				out[i] = out[i].Add(c.Slot.Hours)
			}
		}
	}
	return out
}

func (a *PlanningApp) renderGrid() string {
	axis := "Employé"
	if a.state.View == planning.Sites {
		axis = "Chantier"
	}
	headers := []string{axis}
	for _, d := range a.grid.Days {
		headers = append(headers, a.dayHeader(d))
	}
	headers = append(headers, "Heures", "Coût")

	rows := make([][]string, 0, len(a.lines))
	for _, l := range a.lines {
		row := a.grid.Rows[l.row]
		cells := make([]string, 0, len(headers))
		if l.sub < 0 {
			marker := "▸ "
			if row.Expanded {
				marker = "▾ "
			}
			label := marker + row.Label
			if row.Color != "" {
				label = lipgloss.NewStyle().Foreground(lipgloss.Color(row.Color)).Bold(true).Render(label)
			}
			cells = append(cells, label)
			for _, h := range dayHours(row, len(a.grid.Days)) {
				if h.IsZero() {
					cells = append(cells, "")
				} else if a.state.Range == planning.Month {
					cells = append(cells, h.String())
				} else {
					cells = append(cells, format.Hours(h))
				}
			}
			cells = append(cells, format.Hours(row.Hours), format.Currency(row.Cost))
		} else {
			sub := row.SubRows[l.sub]
			cells = append(cells, "   "+sub.Label)
			for _, c := range sub.Cells {
				cells = append(cells, a.cellText(c))
			}
			cells = append(cells, format.Hours(sub.Hours), format.Currency(sub.Cost))
		}
		rows = append(rows, cells)
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == a.line && (col == a.col+1 || col == 0):
				return cursorCellStyle
			}
			return cellStyle
		})

	out := tbl.Render()
	if len(a.lines) > 0 {
		return out
	}
	placeholder := "Aucun employé"
	if a.state.View == planning.Sites {
		placeholder = "Aucun chantier"
	}
	return out + "\n" + placeholderStyle.Width(lipgloss.Width(out)).Render(placeholder)
}

// selection describes the slot under the cursor, if any.
func (a *PlanningApp) selection() string {
	if len(a.lines) == 0 || a.lines[a.line].sub < 0 {
		return ""
	}
	l := a.lines[a.line]
	row := a.grid.Rows[l.row]
	sub := row.SubRows[l.sub]
	if a.col >= len(sub.Cells) {
		return ""
	}
	c := sub.Cells[a.col]
	if c.Empty() {
		return dimStyle.Render(format.Date(c.Day.Time) + " · Enter: ajouter un créneau")
	}
	return fmt.Sprintf("%s · %s · %s-%s · %s · %s",
		format.Date(c.Day.Time), sub.Label,
		format.Time(c.Slot.StartHour), format.Time(c.Slot.EndHour),
		format.Hours(c.Slot.Hours), format.Currency(c.Slot.Cost))
}

func (a *PlanningApp) View() string {
	if a.formOpen {
		return renderModal(a.form.form.Title(), a.form.View(), a.width, a.height)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Planning · " + a.state.Title()))
	b.WriteString("\n")
	b.WriteString(badgeStyle.Render(a.state.View.Label()) + " " + badgeStyle.Render(a.state.Range.Label()) + "  " + a.search.View())
	b.WriteString("\n\n")
	b.WriteString(a.renderGrid())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Total: %s · %s", format.Hours(a.grid.Hours), format.Currency(a.grid.Cost)))
	if sel := a.selection(); sel != "" {
		b.WriteString("\n" + sel)
	}

	switch {
	case a.loading:
		b.WriteString("\n" + a.spinner.View() + " Chargement...")
	case a.loadErr != nil:
		b.WriteString("\n" + errorStyle.Render("Erreur de chargement: ") + a.loadErr.Error())
	}
	if t := a.notifier.Current(); t != nil {
		b.WriteString("\n" + renderToast(t))
	}

	b.WriteString("\n")
	b.WriteString(helpLine("v: vue", "m: semaine/mois", "[/]: période", "t: aujourd'hui", "Enter: déplier/ajouter",
		"a: créneau", "e: tout déplier", "/: rechercher", "r: recharger", "q: quitter"))
	return b.String()
}
