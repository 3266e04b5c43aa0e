package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/calimport/internal/importer"
)

func newSchedulesCmd() *cobra.Command {
	var sheetsDir string

	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "List the bundled schedules",
		Long: `List the bundled schedules offered on the dashboard and whether their
CSV files exist in the sheets directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := stringFlagOrEnv(cmd, "sheets-dir", "SHEETS_DIR", sheetsDir)
			return listSchedules(cmd.OutOrStdout(), importer.NewCatalog(dir))
		},
	}

	cmd.Flags().StringVar(&sheetsDir, "sheets-dir", "sheets", "Directory holding schedule1.csv to schedule6.csv. Can also use SHEETS_DIR env var.")
	return cmd
}

func listSchedules(out io.Writer, catalog *importer.Catalog) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tNAME\tFILE\tSTATUS")
	for _, entry := range catalog.Entries() {
		status := "available"
		if _, err := catalog.Resolve(entry.Index); err != nil {
			if !errors.Is(err, importer.ErrScheduleNotFound) {
				return err
			}
			status = "missing"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", entry.Index, entry.Label, entry.File, status)
	}
	return tw.Flush()
}
