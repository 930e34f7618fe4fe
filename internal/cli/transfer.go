package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sadopc/tally/internal/export"
)

func addExport(topLevel *cobra.Command) {
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "write every ledger entry to a JSON (or CSV) file",
		Example: `
tally export
tally export backup.json
tally export --csv ledger.csv
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ext := "json"
			if asCSV {
				ext = "csv"
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = filepath.Join(home, export.FileName(time.Now(), ext))
			}

			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := e.store.ListEntries(0)
			if err != nil {
				return err
			}
			if asCSV {
				err = export.ToCSV(entries, path)
			} else {
				err = export.ToJSON(entries, path)
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n",
				len(entries), color.New(color.Bold).Sprint(path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of JSON.")

	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "merge a JSON export into the ledger",
		Long: `Import reads a JSON export and inserts every entry whose timestamp is
not already in the ledger, then rebuilds the cached counters. Importing the
same file twice adds nothing the second time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			imported, skipped, err := export.ImportFile(e.store, args[0])
			if err != nil {
				return err
			}
			e.log.Info("import finished", "path", args[0], "imported", imported, "skipped", skipped)

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Imported %d entries", imported)
			if skipped > 0 {
				_, _ = color.New(color.FgYellow).Fprintf(out, " (%d malformed skipped)", skipped)
			}
			_, _ = fmt.Fprintln(out)

			bal, err := e.store.Balance()
			if err != nil {
				return err
			}
			d, err := e.publish(cmd)
			if err != nil {
				return err
			}
			printBalance(out, d, bal)
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
