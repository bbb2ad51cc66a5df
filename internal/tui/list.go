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

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/debounce"
	"github.com/christopherklint97/mybtp/internal/forms"
	"github.com/christopherklint97/mybtp/internal/listing"
	"github.com/christopherklint97/mybtp/internal/planning"
	"github.com/christopherklint97/mybtp/internal/toast"
)

const searchDelay = 300 * time.Millisecond

type listMode int

const (
	browseMode listMode = iota
	searchMode
	formMode
	alertMode
)

type loadedMsg[T any] struct {
	seq    uint64
	result listing.LoadResult[T]
}

type searchMsg struct {
	owner btp.Feature
	query string
}

type createdMsg struct {
	owner  btp.Feature
	result *btp.CreateResult
	err    error
}

type formOptionsMsg struct {
	owner     btp.Feature
	employees []btp.Employee
	teams     []btp.Team
	err       error
}

type rangePreset struct {
	label string
	r     listing.Range
}

func intPtr(v int) *int { return &v }

var rangePresets = []rangePreset{
	{label: "tous"},
	{label: "0-49%", r: listing.Range{Min: intPtr(0), Max: intPtr(49)}},
	{label: "50-99%", r: listing.Range{Min: intPtr(50), Max: intPtr(99)}},
	{label: "100%", r: listing.Range{Min: intPtr(100), Max: intPtr(100)}},
}

// ListApp is the list-and-filter screen of one feature.
type ListApp[T any] struct {
	client   *btp.Client
	logger   *slog.Logger
	notifier *toast.Notifier
	page     *listing.Page[T]

	mode      listMode
	search    textinput.Model
	debouncer *debounce.Debouncer[string]
	searchCh  chan string
	enums     map[string]string
	rangeIdx  int
	cursor    int

	seq     planning.Seq
	loading bool
	spinner spinner.Model
	form    formModel
	alert   string

	width  int
	height int
}

func NewListApp[T any](spec listing.Spec[T], client *btp.Client, notifier *toast.Notifier, logger *slog.Logger, query string) *ListApp[T] {
	if logger == nil {
		logger = slog.Default()
	}
	s := spinner.New()
	s.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "Rechercher..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.SetValue(query)

	ch := make(chan string, 1)
	a := &ListApp[T]{
		client:   client,
		logger:   logger,
		notifier: notifier,
		page:     listing.NewPage(spec),
		search:   ti,
		searchCh: ch,
		enums:    make(map[string]string),
		spinner:  s,
	}
	a.debouncer = debounce.New(searchDelay, func(q string) {
		// Keep only the newest query if the model has not read the last one.
		select {
		case <-ch:
		default:
		}
		ch <- q
	})
	a.page.Apply(a.filter())
	return a
}

func (a *ListApp[T]) Init() tea.Cmd {
	return tea.Batch(a.load(), a.spinner.Tick, a.waitForSearch())
}

// Capturing reports whether keys are going to a text field.
func (a *ListApp[T]) Capturing() bool {
	return a.mode != browseMode
}

func (a *ListApp[T]) feature() btp.Feature {
	return a.page.Spec().Feature
}

func (a *ListApp[T]) filter() listing.Filter {
	enums := make(map[string]string, len(a.enums))
	for k, v := range a.enums {
		enums[k] = v
	}
	return listing.Filter{
		Query: a.search.Value(),
		Enums: enums,
		Range: rangePresets[a.rangeIdx].r,
	}
}

func (a *ListApp[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.debouncer.Stop()
			return a, tea.Quit
		}
	case loadedMsg[T]:
		return a.handleLoaded(msg)
	case searchMsg:
		if msg.owner != a.feature() {
			return a, nil
		}
		a.page.Apply(a.filter())
		a.clampCursor()
		return a, a.waitForSearch()
	case createdMsg:
		if msg.owner != a.feature() {
			return a, nil
		}
		return a.handleCreated(msg)
	case formOptionsMsg:
		if msg.owner != a.feature() {
			return a, nil
		}
		return a.handleFormOptions(msg)
	case toastExpiredMsg:
		return a, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	switch a.mode {
	case searchMode:
		return a.updateSearch(msg)
	case formMode:
		return a.updateForm(msg)
	case alertMode:
		if _, ok := msg.(tea.KeyMsg); ok {
			a.mode = browseMode
			a.alert = ""
		}
		return a, nil
	}
	return a.updateBrowse(msg)
}

func (a *ListApp[T]) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	spec := a.page.Spec()
	switch keyMsg.String() {
	case "q":
		a.debouncer.Stop()
		return a, tea.Quit
	case "/":
		a.mode = searchMode
		return a, a.search.Focus()
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.page.Filtered())-1 {
			a.cursor++
		}
	case "1", "2":
		i := int(keyMsg.String()[0] - '1')
		if i < len(spec.Enums) {
			a.cycleEnum(spec.Enums[i].Name)
		}
	case "3":
		if spec.RangeValue != nil {
			a.rangeIdx = (a.rangeIdx + 1) % len(rangePresets)
			a.page.Apply(a.filter())
			a.clampCursor()
		}
	case "c":
		a.enums = make(map[string]string)
		a.rangeIdx = 0
		a.search.SetValue("")
		a.page.Apply(a.filter())
		a.clampCursor()
	case "r":
		return a, a.load()
	case "n":
		return a.openForm()
	}
	return a, nil
}

func (a *ListApp[T]) cycleEnum(name string) {
	values := a.page.EnumValues(name)
	current := a.enums[name]
	next := ""
	if current == "" && len(values) > 0 {
		next = values[0]
	} else {
		for i, v := range values {
			if v == current && i+1 < len(values) {
				next = values[i+1]
			}
		}
	}
	a.enums[name] = next
	a.page.Apply(a.filter())
	a.clampCursor()
}

func (a *ListApp[T]) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc", "enter":
			a.mode = browseMode
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

func (a *ListApp[T]) waitForSearch() tea.Cmd {
	ch, owner := a.searchCh, a.feature()
	return func() tea.Msg {
		return searchMsg{owner: owner, query: <-ch}
	}
}

func (a *ListApp[T]) clampCursor() {
	if a.cursor >= len(a.page.Filtered()) {
		a.cursor = max(0, len(a.page.Filtered())-1)
	}
}

func (a *ListApp[T]) load() tea.Cmd {
	seq := a.seq.Next()
	a.loading = true
	fetch, client := a.page.Spec().Fetch, a.client
	return func() tea.Msg {
		items, err := fetch(client, context.Background())
		if err != nil {
			return loadedMsg[T]{seq: seq, result: listing.Err[T](err)}
		}
		return loadedMsg[T]{seq: seq, result: listing.Ok(items)}
	}
}

func (a *ListApp[T]) handleLoaded(msg loadedMsg[T]) (tea.Model, tea.Cmd) {
	if !a.seq.Current(msg.seq) {
		a.logger.Debug("dropping stale list response", "feature", a.feature(), "seq", msg.seq)
		return a, nil
	}
	a.loading = false
	a.page.Load(msg.result)
	a.clampCursor()
	if err := a.page.Err(); err != nil {
		a.logger.Error("loading list failed", "feature", a.feature(), "error", err)
	}
	return a, nil
}

func (a *ListApp[T]) openForm() (tea.Model, tea.Cmd) {
	f, err := forms.ForFeature(a.feature())
	if errors.Is(err, forms.ErrNotImplemented) {
		a.mode = alertMode
		a.alert = forms.NotImplementedAlert
		return a, nil
	}
	if err != nil {
		a.logger.Error("opening form failed", "feature", a.feature(), "error", err)
		return a, a.toastError("Une erreur est survenue")
	}
	a.form = newFormModel(f)
	a.mode = formMode
	return a, tea.Batch(a.form.focus(), a.loadFormOptions(f))
}

type chefSetter interface {
	SetChefs([]btp.Employee)
}

type teamSetter interface {
	SetTeams([]btp.Team)
}

// loadFormOptions fetches the server lists a dialog picks from.
func (a *ListApp[T]) loadFormOptions(f forms.Form) tea.Cmd {
	client, owner := a.client, a.feature()
	_, needChefs := f.(chefSetter)
	_, needTeams := f.(teamSetter)
	if !needChefs && !needTeams {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		msg := formOptionsMsg{owner: owner}
		if needChefs {
			msg.employees, msg.err = client.ListEmployees(ctx)
		}
		if needTeams && msg.err == nil {
			msg.teams, msg.err = client.ListTeams(ctx)
		}
		return msg
	}
}

func (a *ListApp[T]) handleFormOptions(msg formOptionsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.logger.Warn("loading form options failed", "feature", a.feature(), "error", msg.err)
		return a, nil
	}
	if a.mode != formMode {
		return a, nil
	}
	a.form.sync()
	if s, ok := a.form.form.(chefSetter); ok {
		s.SetChefs(msg.employees)
	}
	if s, ok := a.form.form.(teamSetter); ok {
		s.SetTeams(msg.teams)
	}
	a.form.reload()
	return a, nil
}

func (a *ListApp[T]) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.form, cmd = a.form.Update(msg)
	if a.form.closed {
		a.mode = browseMode
		return a, nil
	}
	if a.form.submitRequested {
		a.form.submitRequested = false
		return a, tea.Batch(cmd, submitForm(a.client, a.feature(), a.form.form))
	}
	return a, cmd
}

func submitForm(client *btp.Client, owner btp.Feature, f forms.Form) tea.Cmd {
	values := f.Values()
	feature := f.Feature()
	return func() tea.Msg {
		res, err := client.Create(context.Background(), feature, values)
		return createdMsg{owner: owner, result: res, err: err}
	}
}

func (a *ListApp[T]) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		text := createErrorText(a.logger, a.feature(), msg.err)
		a.form.submitDone(text)
		return a, a.toastError(text)
	}

	a.mode = browseMode
	text := msg.result.Message
	if text == "" {
		text = "Création réussie"
	}
	return a, tea.Batch(a.toastSuccess(text), a.load())
}

// createErrorText is the toast for a failed create: the first server field
// error when there is one, a generic message otherwise.
func createErrorText(logger *slog.Logger, feature btp.Feature, err error) string {
	var ve *btp.ValidationError
	if errors.As(err, &ve) {
		if _, msg := ve.First(); msg != "" {
			return msg
		}
	}
	logger.Error("create failed", "feature", feature, "error", err)
	return "Une erreur est survenue lors de la création"
}

func (a *ListApp[T]) toastSuccess(text string) tea.Cmd {
	a.notifier.Success(text)
	return expireToast(a.notifier.TTL())
}

func (a *ListApp[T]) toastError(text string) tea.Cmd {
	a.notifier.Error(text)
	return expireToast(a.notifier.TTL())
}

func (a *ListApp[T]) filterLine() string {
	spec := a.page.Spec()
	parts := []string{a.search.View()}
	for i, e := range spec.Enums {
		v := a.enums[e.Name]
		if v == "" {
			v = "tous"
		}
		parts = append(parts, fmt.Sprintf("%d %s: %s", i+1, e.Label, highlightStyle.Render(v)))
	}
	if spec.RangeValue != nil {
		parts = append(parts, fmt.Sprintf("3 %s: %s", spec.RangeLabel, highlightStyle.Render(rangePresets[a.rangeIdx].label)))
	}
	return strings.Join(parts, "  ")
}

func (a *ListApp[T]) View() string {
	if a.mode == formMode {
		return renderModal(a.form.form.Title(), a.form.View(), a.width, a.height)
	}
	if a.mode == alertMode {
		return renderModal("MyBTP", warningStyle.Render(a.alert)+"\n"+helpLine("Une touche: fermer"), a.width, a.height)
	}

	spec := a.page.Spec()
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", spec.Title, len(a.page.Filtered()))))
	b.WriteString("\n")
	b.WriteString(a.filterLine())
	b.WriteString("\n\n")
	b.WriteString(RenderTable(a.page.Table(), a.cursor))
	b.WriteString("\n")

	switch {
	case a.loading:
		b.WriteString(a.spinner.View() + " Chargement...")
	case a.page.Err() != nil:
		b.WriteString(errorStyle.Render("Erreur de chargement: ") + a.page.Err().Error())
	}
	if t := a.notifier.Current(); t != nil {
		b.WriteString("\n" + renderToast(t))
	}

	b.WriteString("\n")
	b.WriteString(helpLine("/: rechercher", "1-3: filtres", "c: effacer", "n: nouveau", "r: recharger", "j/k: nav", "q: quitter"))
	return b.String()
}
