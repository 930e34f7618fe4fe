package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sadopc/tally/internal/notify"
	"github.com/sadopc/tally/internal/store"
)

var errZeroDelta = errors.New("delta must not be zero")

// parseDelta accepts signed integers such as "+2", "-3" and "4".
func parseDelta(s string) (int64, error) {
	d, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid delta %q: want a signed integer like +1 or -3", s)
	}
	if d == 0 {
		return 0, errZeroDelta
	}
	return d, nil
}

func deltaColor(d int64) *color.Color {
	switch {
	case d > 0:
		return color.New(color.FgGreen)
	case d < 0:
		return color.New(color.FgRed)
	default:
		return color.New(color.Faint)
	}
}

func signed(d int64) string {
	if d > 0 {
		return "+" + strconv.FormatInt(d, 10)
	}
	return strconv.FormatInt(d, 10)
}

// printBalance writes the display line followed by both counters.
func printBalance(w io.Writer, d store.Display, bal store.Balance) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	_, _ = bold.Fprintln(w, notify.Format(d))
	_, _ = faint.Fprintf(w, "total %d, today %d\n", bal.Total, bal.Daily)
}

// publish reads the display back and fans it out to the status surfaces.
func (e *env) publish(cmd *cobra.Command) (store.Display, error) {
	d, err := e.store.Display()
	if err != nil {
		return store.Display{}, err
	}
	e.hub.Notify(cmd.Context(), d)
	return d, nil
}

func addAdd(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "add <delta>",
		Short: "record a signed adjustment",
		Example: `
tally add +1
tally add -3
`,
		// Negative deltas look like flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}
			if len(args) != 1 {
				return fmt.Errorf("add takes exactly one delta, got %d args", len(args))
			}
			delta, err := parseDelta(args[0])
			if err != nil {
				return err
			}

			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			_, bal, err := e.store.Record(delta)
			if err != nil {
				return err
			}
			d, err := e.publish(cmd)
			if err != nil {
				return err
			}
			printBalance(cmd.OutOrStdout(), d, bal)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addRecalc(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "rebuild the cached total and daily counters from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			bal, err := e.store.RecalculateTotals()
			if err != nil {
				return err
			}
			d, err := e.publish(cmd)
			if err != nil {
				return err
			}
			printBalance(cmd.OutOrStdout(), d, bal)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addMode(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "mode [total|daily]",
		Short: "show or set which counter the display uses",
		Example: `
tally mode
tally mode daily
`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"total", "daily"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if len(args) == 1 {
				var mode store.DisplayMode
				switch strings.ToLower(args[0]) {
				case "total":
					mode = store.DisplayTotal
				case "daily", "today":
					mode = store.DisplayDaily
				default:
					return fmt.Errorf("unknown mode %q: want total or daily", args[0])
				}
				if err := e.store.SetDisplayMode(mode); err != nil {
					return err
				}
			}

			d, err := e.publish(cmd)
			if err != nil {
				return err
			}
			_, _ = color.New(color.Bold).Fprintln(cmd.OutOrStdout(), notify.Format(d))
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addEntries(topLevel *cobra.Command) {
	var limit int

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "list ledger entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.store.ListEntries(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				_, _ = color.New(color.Faint, color.Italic).Fprintln(out, "no entries")
				return nil
			}

			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("TIME"), bold.Sprint("DELTA"), bold.Sprint("TOTAL"))
			for _, en := range entries {
				tbl.AddRow(
					en.Time().Local().Format("2006-01-02 15:04:05"),
					deltaColor(en.Delta).Sprint(signed(en.Delta)),
					en.TotalSnapshot,
				)
			}
			tbl.RightAlign(1)
			tbl.RightAlign(2)
			_, _ = fmt.Fprintln(out, tbl)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show, 0 for all.")

	topLevel.AddCommand(cmd)
}

func addSummary(topLevel *cobra.Command) {
	var days int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "net change per calendar day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			summaries, err := e.store.DailySummaries()
			if err != nil {
				return err
			}
			if days > 0 && len(summaries) > days {
				summaries = summaries[:days]
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				_, _ = color.New(color.Faint, color.Italic).Fprintln(out, "no entries")
				return nil
			}

			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("DATE"), bold.Sprint("NET"), bold.Sprint("ENTRIES"))
			for _, s := range summaries {
				tbl.AddRow(s.Date, deltaColor(s.Delta).Sprint(signed(s.Delta)), s.Count)
			}
			tbl.RightAlign(1)
			tbl.RightAlign(2)
			_, _ = fmt.Fprintln(out, tbl)
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "d", 0, "Only show the most recent N days.")

	topLevel.AddCommand(cmd)
}
