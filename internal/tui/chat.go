package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/christopherklint97/mybtp/internal/btp"
)

const (
	chatGreeting    = "Bonjour ! Comment puis-je vous aider ?"
	chatUnreachable = "Impossible de communiquer avec l'assistant. Veuillez réessayer."
)

type chatRole int

const (
	userRole chatRole = iota
	botRole
)

type chatMessage struct {
	role chatRole
	text string
}

type chatReplyMsg struct {
	reply string
	err   error
}

// ChatApp is the assistant conversation screen.
type ChatApp struct {
	client *btp.Client
	logger *slog.Logger

	messages []chatMessage
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	pending  bool

	width  int
	height int
}

func NewChatApp(client *btp.Client, logger *slog.Logger) *ChatApp {
	if logger == nil {
		logger = slog.Default()
	}
	ta := textarea.New()
	ta.Placeholder = "Posez votre question..."
	ta.Focus()
	ta.CharLimit = 1000
	ta.SetWidth(60)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	s := spinner.New()
	s.Spinner = spinner.Dot

	a := &ChatApp{
		client:   client,
		logger:   logger,
		messages: []chatMessage{{role: botRole, text: chatGreeting}},
		input:    ta,
		viewport: viewport.New(60, 15),
		spinner:  s,
	}
	a.refresh()
	return a
}

func (a *ChatApp) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.spinner.Tick)
}

func (a *ChatApp) Capturing() bool { return true }

func (a *ChatApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.viewport.Width = max(20, msg.Width-4)
		a.viewport.Height = max(5, msg.Height-10)
		a.input.SetWidth(max(20, msg.Width-4))
		a.refresh()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "enter":
			return a.send()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}

	case chatReplyMsg:
		a.pending = false
		a.messages = append(a.messages, chatMessage{role: botRole, text: replyText(a.logger, msg)})
		a.refresh()
		return a, a.input.Focus()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	if a.pending {
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// send posts the typed message. Nothing is sent while a reply is pending
// or when the input is blank.
func (a *ChatApp) send() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.input.Value())
	if a.pending || text == "" {
		return a, nil
	}
	a.messages = append(a.messages, chatMessage{role: userRole, text: text})
	a.input.Reset()
	a.input.Blur()
	a.pending = true
	a.refresh()

	client := a.client
	return a, func() tea.Msg {
		reply, err := client.SendChat(context.Background(), text)
		return chatReplyMsg{reply: reply, err: err}
	}
}

func replyText(logger *slog.Logger, msg chatReplyMsg) string {
	if msg.err == nil {
		return msg.reply
	}
	var de *btp.DetailError
	if errors.As(msg.err, &de) {
		return "Erreur: " + de.Detail
	}
	logger.Error("chat request failed", "error", msg.err)
	return "Erreur: " + chatUnreachable
}

func (a *ChatApp) refresh() {
	width := a.viewport.Width - 2
	var b strings.Builder
	for i, m := range a.messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch m.role {
		case userRole:
			b.WriteString(userMessageStyle.Render("Vous"))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(width).Render(m.text))
		default:
			b.WriteString(highlightStyle.Render("Assistant"))
			b.WriteString("\n")
			b.WriteString(botMessageStyle.Width(width).Render(m.text))
		}
	}
	a.viewport.SetContent(b.String())
	a.viewport.GotoBottom()
}

func (a *ChatApp) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("mybtp · Assistant"))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(a.viewport.View()))
	b.WriteString("\n")
	if a.pending {
		b.WriteString(a.spinner.View() + " L'assistant réfléchit...")
	}
	b.WriteString("\n")
	b.WriteString(a.input.View())
	b.WriteString("\n")
	b.WriteString(helpLine("Enter: envoyer", "PgUp/PgDn: défiler", "Esc: quitter"))
	return b.String()
}
