package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sadopc/tally/internal/windows"
)

func addWindows(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "list shortcut windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			configs := e.windows.List(cmd.Context())
			out := cmd.OutOrStdout()
			if len(configs) == 0 {
				_, _ = color.New(color.Faint, color.Italic).Fprintln(out, "no windows")
				return nil
			}

			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("NAME"), bold.Sprint("ITEMS"), bold.Sprint("TRIGGER"), bold.Sprint("SNAP"), bold.Sprint("POSITION"), bold.Sprint("QUICK"))
			quick := 0
			for _, c := range configs {
				key := "-"
				if c.ShowInNotification {
					quick++
					key = fmt.Sprintf("F%d", quick)
				}
				tbl.AddRow(c.Name, len(c.Items), triggerSummary(c), snapSummary(c),
					fmt.Sprintf("%d,%d", c.TriggerX, c.TriggerY), key)
			}
			tbl.RightAlign(1)
			_, _ = fmt.Fprintln(out, tbl)
			return nil
		},
	}

	addLaunch(cmd)
	topLevel.AddCommand(cmd)
}

func triggerSummary(c *windows.Config) string {
	if !c.TriggerEnabled {
		return "off"
	}
	s := c.Size()
	return fmt.Sprintf("%dx%d %s %s", s.W, s.H, c.TriggerStyle, windows.FormatColor(c.TriggerColor))
}

func snapSummary(c *windows.Config) string {
	if !c.CornerSnap {
		return "edge"
	}
	return "corner " + c.CornerAnchor.String()
}

func addLaunch(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "launch <window> <item>",
		Short: "launch an item from a window by label",
		Example: `
tally windows launch Apps Terminal
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			c, err := e.windows.FindByName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, it := range c.Items {
				if strings.EqualFold(it.Label, args[1]) {
					if err := e.launcher.Launch(cmd.Context(), it); err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Launched %s\n", it.Label)
					return nil
				}
			}
			return fmt.Errorf("window %q has no item %q", c.Name, args[1])
		},
	}

	parent.AddCommand(cmd)
}
