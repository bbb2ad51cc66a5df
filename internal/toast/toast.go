// Package toast holds the transient notification shown under each screen.
package toast

import (
	"io"
	"log/slog"
	"time"

	"github.com/gen2brain/beeep"
)

type Kind int

const (
	Info Kind = iota
	Success
	Error
)

type Toast struct {
	Kind      Kind
	Message   string
	ExpiresAt time.Time
}

// DesktopNotifier is satisfied by the desktop backend; tests swap it out.
type DesktopNotifier func(title, message string) error

func beeepNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Notifier keeps the single visible toast; a new one replaces the previous.
type Notifier struct {
	ttl     time.Duration
	desktop DesktopNotifier
	logger  *slog.Logger
	current *Toast
	now     func() time.Time
}

func NewNotifier(ttl time.Duration, desktop bool, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	n := &Notifier{ttl: ttl, logger: logger, now: time.Now}
	if desktop {
		n.desktop = beeepNotify
	}
	return n
}

func (n *Notifier) WithDesktop(fn DesktopNotifier) *Notifier {
	n.desktop = fn
	return n
}

func (n *Notifier) Show(kind Kind, message string) Toast {
	t := Toast{Kind: kind, Message: message, ExpiresAt: n.now().Add(n.ttl)}
	n.current = &t

	if n.desktop != nil && kind != Info {
		if err := n.desktop("MyBTP", message); err != nil {
			n.logger.Warn("desktop notification failed", "error", err)
		}
	}
	return t
}

func (n *Notifier) Success(message string) Toast { return n.Show(Success, message) }
func (n *Notifier) Error(message string) Toast   { return n.Show(Error, message) }
func (n *Notifier) Info(message string) Toast    { return n.Show(Info, message) }

// Current returns the visible toast, or nil once it has expired.
func (n *Notifier) Current() *Toast {
	if n.current == nil || !n.now().Before(n.current.ExpiresAt) {
		n.current = nil
		return nil
	}
	return n.current
}

func (n *Notifier) Dismiss() {
	n.current = nil
}

// TTL is how long a toast stays visible.
func (n *Notifier) TTL() time.Duration {
	return n.ttl
}
