package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	naturaldate "github.com/tj/go-naturaldate"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/config"
	"github.com/christopherklint97/mybtp/internal/export"
	"github.com/christopherklint97/mybtp/internal/format"
	"github.com/christopherklint97/mybtp/internal/listing"
	"github.com/christopherklint97/mybtp/internal/planning"
	"github.com/christopherklint97/mybtp/internal/toast"
	"github.com/christopherklint97/mybtp/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:          "mybtp",
	Short:        "Terminal client for the MyBTP construction back office",
	Long:         "mybtp lists chantiers, team, fleet orders and leads, edits the planning and talks to the assistant of a MyBTP server.",
	SilenceUsage: true,
}

var chantiersCmd = &cobra.Command{
	Use:   "chantiers",
	Short: "Browse and create chantiers",
	RunE:  runList(listing.Chantiers),
}

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Browse employees and teams",
	RunE:  runTeam,
}

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Browse fleet orders",
	RunE:  runList(listing.Commandes),
}

var pistesCmd = &cobra.Command{
	Use:   "pistes",
	Short: "Browse commercial leads",
	RunE:  runList(listing.Pistes),
}

var planningCmd = &cobra.Command{
	Use:   "planning",
	Short: "Open the planning calendar",
	RunE:  runPlanning,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the planning window as ics or xlsx",
	RunE:  runExport,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the MyBTP assistant",
	RunE:  runChat,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show this week's planning and pipeline totals",
	RunE:  runStatus,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

var sessionCmd = &cobra.Command{
	Use:   "session SESSION_ID",
	Short: "Store the sessionid cookie of a logged-in browser",
	Args:  cobra.ExactArgs(1),
	RunE:  runSession,
}

func init() {
	for _, c := range []*cobra.Command{chantiersCmd, teamCmd, fleetCmd, pistesCmd} {
		c.Flags().Bool("plain", false, "Print the table and exit")
		c.Flags().String("query", "", "Pre-fill the search")
	}

	for _, c := range []*cobra.Command{planningCmd, exportCmd} {
		c.Flags().Bool("sites", false, "Group rows by chantier instead of employee")
		c.Flags().Bool("month", false, "Show the whole month instead of the week")
		c.Flags().String("date", "", `Anchor date, YYYY-MM-DD or e.g. "next monday"`)
	}
	planningCmd.Flags().String("query", "", "Pre-fill the search")
	exportCmd.Flags().String("format", "ics", "Export format: ics or xlsx")
	exportCmd.Flags().StringP("out", "o", "", "Output file (default planning.<format>, - for stdout)")
	sessionCmd.Flags().String("csrf", "", "CSRF token to store alongside the session")

	planningCmd.AddCommand(exportCmd)
	configCmd.AddCommand(sessionCmd)

	rootCmd.AddCommand(chantiersCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(fleetCmd)
	rootCmd.AddCommand(pistesCmd)
	rootCmd.AddCommand(planningCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session bundles what every command needs once config is loaded.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *btp.Client
	notifier *toast.Notifier
	closeLog func()
}

func setup() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		closeLog()
		return nil, err
	}
	if cfg.Server.SessionID == "" {
		logger.Warn("no session configured, requests will be anonymous")
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		notifier: toast.NewNotifier(cfg.Notifications.ToastDuration(), cfg.Notifications.Desktop, logger),
		closeLog: closeLog,
	}, nil
}

// newLogger writes to the log file since the TUI owns the terminal.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if err := config.EnsureConfigDir(); err != nil {
		return nil, nil, fmt.Errorf("creating config directory: %w", err)
	}
	path, err := config.LogPath(cfg)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})
	return slog.New(h), func() { f.Close() }, nil
}

func newClient(cfg *config.Config, logger *slog.Logger) (*btp.Client, error) {
	return btp.NewClient(btp.Options{
		BaseURL:    cfg.Server.BaseURL,
		SessionID:  cfg.Server.SessionID,
		CSRFToken:  cfg.Server.CSRFToken,
		Timeout:    cfg.Server.Timeout(),
		MaxRetries: cfg.Server.MaxRetries,
		CacheTTL:   cfg.Server.CacheTTL(),
		Logger:     logger,
	})
}

func runProgram(model tea.Model) error {
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func runList[T any](spec listing.Spec[T]) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		query, _ := cmd.Flags().GetString("query")

		s, err := setup()
		if err != nil {
			return err
		}
		defer s.closeLog()

		if plain {
			return printList(cmd.Context(), s, spec, query)
		}
		return runProgram(tui.NewListApp(spec, s.client, s.notifier, s.logger, query))
	}
}

// printList renders the filtered table once. A failed fetch still prints the
// placeholder table before the error is returned.
func printList[T any](ctx context.Context, s *session, spec listing.Spec[T], query string) error {
	items, err := spec.Fetch(s.client, ctx)
	page := listing.NewPage(spec)
	if err != nil {
		page.Load(listing.Err[T](err))
	} else {
		page.Load(listing.Ok(items))
	}
	page.Apply(listing.Filter{Query: query})

	fmt.Println(spec.Title)
	fmt.Println(tui.RenderTable(page.Table(), -1))
	if err != nil {
		return fmt.Errorf("fetching %s: %w", spec.Feature, err)
	}
	return nil
}

func runTeam(cmd *cobra.Command, args []string) error {
	plain, _ := cmd.Flags().GetBool("plain")
	query, _ := cmd.Flags().GetString("query")

	s, err := setup()
	if err != nil {
		return err
	}
	defer s.closeLog()

	if plain {
		if err := printList(cmd.Context(), s, listing.Employees, query); err != nil {
			return err
		}
		fmt.Println()
		return printList(cmd.Context(), s, listing.Teams, query)
	}

	return runProgram(tui.NewTabs(
		[]string{"Employés", "Équipes"},
		tui.NewListApp(listing.Employees, s.client, s.notifier, s.logger, query),
		tui.NewListApp(listing.Teams, s.client, s.notifier, s.logger, query),
	))
}

// planningState builds the initial calendar state from config and flags.
func planningState(cmd *cobra.Command, cfg *config.Config, now time.Time) (planning.State, error) {
	anchor := btp.DateOf(now)
	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		d, err := parseAnchor(raw, now)
		if err != nil {
			return planning.State{}, err
		}
		anchor = d
	}

	view, err := planning.ParseView(cfg.Planning.DefaultView)
	if err != nil {
		return planning.State{}, fmt.Errorf("planning.default_view: %w", err)
	}
	rng, err := planning.ParseRange(cfg.Planning.DefaultRange)
	if err != nil {
		return planning.State{}, fmt.Errorf("planning.default_range: %w", err)
	}
	if sites, _ := cmd.Flags().GetBool("sites"); sites {
		view = planning.Sites
	}
	if month, _ := cmd.Flags().GetBool("month"); month {
		rng = planning.Month
	}

	state := planning.NewState(anchor, cfg.Planning.PersistCollapse).WithView(view).WithRange(rng)
	if cmd.Flags().Lookup("query") != nil {
		q, _ := cmd.Flags().GetString("query")
		state = state.WithSearch(q)
	}
	return state, nil
}

// parseAnchor accepts an ISO day first, then natural language relative to now.
func parseAnchor(raw string, now time.Time) (btp.Date, error) {
	if d, err := btp.ParseDate(raw); err == nil {
		return d, nil
	}
	t, err := naturaldate.Parse(raw, now, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return btp.Date{}, fmt.Errorf("parsing --date %q: %w", raw, err)
	}
	return btp.DateOf(t), nil
}

func runPlanning(cmd *cobra.Command, args []string) error {
	s, err := setup()
	if err != nil {
		return err
	}
	defer s.closeLog()

	state, err := planningState(cmd, s.cfg, time.Now())
	if err != nil {
		return err
	}
	return runProgram(tui.NewPlanningApp(state, s.client, s.notifier, s.logger))
}

func runExport(cmd *cobra.Command, args []string) error {
	rawFormat, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	f, err := export.ParseFormat(rawFormat)
	if err != nil {
		return err
	}

	s, err := setup()
	if err != nil {
		return err
	}
	defer s.closeLog()

	now := time.Now()
	state, err := planningState(cmd, s.cfg, now)
	if err != nil {
		return err
	}

	from, to := state.Window()
	data, err := s.client.Planning(cmd.Context(), from, to)
	if err != nil {
		return fmt.Errorf("fetching planning: %w", err)
	}

	if out == "" {
		out = "planning." + string(f)
	}
	var w io.Writer = os.Stdout
	if out != "-" {
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer file.Close()
		w = file
	}

	if err := export.Write(w, f, state, data, now); err != nil {
		return fmt.Errorf("writing %s export: %w", f, err)
	}
	if out != "-" {
		fmt.Printf("Exported %d slots (%s to %s) to %s\n", len(data.Slots), from, to, out)
	}
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := setup()
	if err != nil {
		return err
	}
	defer s.closeLog()

	return runProgram(tui.NewChatApp(s.client, s.logger))
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := setup()
	if err != nil {
		return err
	}
	defer s.closeLog()

	ctx := cmd.Context()
	now := time.Now()
	weekStart, weekEnd := format.WeekBounds(now)

	data, err := s.client.Planning(ctx, btp.DateOf(weekStart), btp.DateOf(weekEnd))
	if err != nil {
		return fmt.Errorf("fetching planning: %w", err)
	}
	chantiers, err := s.client.ListChantiers(ctx)
	if err != nil {
		return fmt.Errorf("fetching chantiers: %w", err)
	}
	pistes, err := s.client.ListPistes(ctx)
	if err != nil {
		return fmt.Errorf("fetching pistes: %w", err)
	}

	sum := listing.Summarize(data.Slots, chantiers, pistes)

	fmt.Printf("Semaine du %s au %s\n", format.Date(weekStart), format.Date(weekEnd))
	fmt.Printf("  Planning:   %s, %s (%d créneaux)\n", format.Hours(sum.WeekHours), format.Currency(sum.WeekCost), len(data.Slots))
	fmt.Println()
	fmt.Printf("Chantiers:    %d dont %d en cours\n", sum.ChantiersTotal, sum.ChantiersActive)
	fmt.Printf("  Devis HT:   %s\n", format.Currency(sum.DevisTotal))
	fmt.Println()
	fmt.Printf("Pistes:       %d dont %d qualifiées, %d gagnées\n", sum.PistesTotal, sum.PistesQualified, sum.PistesWon)
	fmt.Printf("  Estimé:     %s\n", format.Currency(sum.EstimatedTotal))

	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(config.DefaultFile()), 0600); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	fields := strings.Fields(editor)
	c := exec.Command(fields[0], append(fields[1:], configPath)...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	return nil
}

func runSession(cmd *cobra.Command, args []string) error {
	csrf, _ := cmd.Flags().GetString("csrf")

	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err := config.SaveSession(configPath, args[0], csrf); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Printf("Session saved to %s\n", configPath)
	return nil
}
