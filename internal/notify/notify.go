package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sadopc/tally/internal/store"
)

// Notifier is told about every change to the displayed balance.
type Notifier interface {
	Notify(ctx context.Context, d store.Display) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, d store.Display) error

func (f NotifierFunc) Notify(ctx context.Context, d store.Display) error { return f(ctx, d) }

// Hub fans a display update out to every registered notifier. Failures are
// logged and never returned; one broken surface must not stop the others.
type Hub struct {
	notifiers []Notifier
	log       *slog.Logger
}

func NewHub(log *slog.Logger, notifiers ...Notifier) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{notifiers: notifiers, log: log}
}

func (h *Hub) Add(n Notifier) {
	h.notifiers = append(h.notifiers, n)
}

func (h *Hub) Notify(ctx context.Context, d store.Display) {
	for _, n := range h.notifiers {
		if err := n.Notify(ctx, d); err != nil {
			h.log.Warn("notifier failed", "error", err)
		}
	}
}

// Format renders a display the way status surfaces show it, e.g. "TOTAL $ 42".
func Format(d store.Display) string {
	return fmt.Sprintf("%s %d", d.Label(), d.Amount)
}

// StatusFile writes the formatted display into a file for status bars.
type StatusFile struct {
	Path string
}

// Notify replaces the file atomically so readers never see a partial line.
func (f StatusFile) Notify(_ context.Context, d store.Display) error {
	if f.Path == "" {
		return nil
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create status dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tally-status-*")
	if err != nil {
		return fmt.Errorf("create status temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(Format(d) + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close status: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace status file: %w", err)
	}
	return nil
}
