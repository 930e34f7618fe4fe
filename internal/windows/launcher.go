package windows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

var (
	ErrUnsupported = errors.New("not supported on this platform")
	ErrEmptyTarget = errors.New("item has no target")
)

// Launcher starts shortcut items. Processes are detached; Launch returns
// once the process has started.
type Launcher struct {
	opener string
	start  func(ctx context.Context, name string, args ...string) error
	log    *slog.Logger
}

func NewLauncher(opener string, log *slog.Logger) *Launcher {
	if log == nil {
		log = slog.Default()
	}
	l := &Launcher{opener: opener, log: log}
	l.start = l.startProcess
	return l
}

func (l *Launcher) startProcess(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			l.log.Debug("launched process exited", "cmd", name, "error", err)
		}
	}()
	return nil
}

// Launch runs it. App items run their command line, Shortcut items are
// handed to the opener and Tasker items cannot run here.
func (l *Launcher) Launch(ctx context.Context, it Item) error {
	target := strings.TrimSpace(it.Target)
	if target == "" {
		return fmt.Errorf("launch %q: %w", it.Label, ErrEmptyTarget)
	}

	var err error
	switch it.Kind {
	case App:
		fields := strings.Fields(target)
		err = l.start(ctx, fields[0], fields[1:]...)
	case Shortcut:
		err = l.start(ctx, l.opener, target)
	case Tasker:
		err = fmt.Errorf("tasker task %q: %w", target, ErrUnsupported)
	default:
		err = fmt.Errorf("unknown item kind %d", it.Kind)
	}
	if err != nil {
		l.log.Error("failed to launch item", "label", it.Label, "kind", it.Kind.String(), "error", err)
		return fmt.Errorf("launch %q: %w", it.Label, err)
	}
	l.log.Info("launched item", "label", it.Label, "kind", it.Kind.String())
	return nil
}
