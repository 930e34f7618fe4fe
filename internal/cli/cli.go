// Package cli wires the tally commands.
package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sadopc/tally/internal/config"
	"github.com/sadopc/tally/internal/notify"
	"github.com/sadopc/tally/internal/store"
	"github.com/sadopc/tally/internal/windows"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "A terminal tally counter with a floating shortcut launcher.",
		Long: `tally keeps a running balance of manual +/- adjustments in a local
SQLite ledger and hosts draggable shortcut triggers on a terminal canvas.

Run without a subcommand to open the interactive interface.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd)
		},
	}

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addAdd(topLevel)
	addRecalc(topLevel)
	addMode(topLevel)
	addEntries(topLevel)
	addSummary(topLevel)
	addExport(topLevel)
	addImport(topLevel)
	addWindows(topLevel)
}

// env is what a command runs against. Close releases it.
type env struct {
	cfg      config.Config
	log      *slog.Logger
	store    *store.Store
	windows  *windows.Store
	launcher *windows.Launcher
	hub      *notify.Hub

	closers []func() error
}

// setup loads the configuration and opens both stores. The interactive UI
// owns the terminal, so it logs to the configured file; every other command
// logs to stderr.
func setup(cmd *cobra.Command, toFile bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg}

	var w io.Writer = cmd.ErrOrStderr()
	if toFile {
		f, err := cfg.OpenLogFile()
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, f.Close)
		w = f
	}
	e.log = cfg.NewLogger(w)

	s, err := store.New(cfg.DBPath,
		store.WithLogger(e.log),
		store.WithMergeWindow(cfg.MergeWindow),
		store.WithCycleStartHour(cfg.CycleStartHour),
	)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.store = s
	e.closers = append([]func() error{s.Close}, e.closers...)

	e.windows = windows.Open(cfg.WindowsDir, e.log)
	e.launcher = windows.NewLauncher(cfg.Opener, e.log)
	e.hub = notify.NewHub(e.log)
	if cfg.StatusFile != "" {
		e.hub.Add(notify.StatusFile{Path: cfg.StatusFile})
	}
	return e, nil
}

func (e *env) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
