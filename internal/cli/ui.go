package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/tally/internal/tui"
)

func addUI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the text-based user interface",
		Example: `
tally ui
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd)
		},
	}

	topLevel.AddCommand(cmd)
}

func runUI(cmd *cobra.Command) error {
	e, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	app := tui.NewApp(tui.Deps{
		Store:    e.store,
		Windows:  e.windows,
		Launcher: e.launcher,
		Hub:      e.hub,
		Config:   e.cfg,
		Log:      e.log,
	})
	// Bring status surfaces up to date before the first keystroke.
	if err := app.Publish(cmd.Context()); err != nil {
		e.log.Error("failed to publish balance", "error", err)
	}

	e.log.Info("starting ui", "db", e.cfg.DBPath)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}
