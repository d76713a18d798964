package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/poubelles-propres/zones-cli/internal/runlog"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the store contents and the latest completed run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("status"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		summary, err := runlog.New(st).Status(ctx)
		if err != nil {
			return err
		}

		formatStatus(os.Stdout, cfg.Store.Driver, summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// formatStatus writes the store summary to w.
func formatStatus(out io.Writer, driver string, s *runlog.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Store:\t%s\n", driver)
	_, _ = fmt.Fprintf(w, "Communes:\t%d\n", s.Communes)

	switch {
	case s.Latest == nil:
		_, _ = fmt.Fprintf(w, "Latest run:\t-\n")
	default:
		_, _ = fmt.Fprintf(w, "Latest run:\t%s\n", truncateID(s.Latest.ID))
		_, _ = fmt.Fprintf(w, "  Completed:\t%s\n", s.Latest.UpdatedAt.Format(time.RFC3339))
		_, _ = fmt.Fprintf(w, "  Zones:\t%d\n", s.Latest.ZoneCount)
		_, _ = fmt.Fprintf(w, "  Radius km:\t%.0f\n", s.Latest.Params.MaxRadiusKm)
	}
	_ = w.Flush()

	if s.Communes == 0 {
		fmt.Fprintln(out, "\nCommune table is empty: run 'zones-cli fetch' then 'zones-cli ingest'.")
	} else if s.Latest == nil {
		fmt.Fprintln(out, "\nNo completed run yet: run 'zones-cli analyze'.")
	}
}
