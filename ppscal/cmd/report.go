package cmd

import (
	"context"
	"fmt"

	"github.com/sarchlab/ppscal/datarecording"
	"github.com/sarchlab/ppscal/tracing"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <file.sqlite3>",
		Short: "Print the calibration rounds stored by a recorded run.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			reader.MapTable(tracing.RoundTableName, tracing.RoundEntry{})
			reader.MapTable(tracing.BusTableName, tracing.BusEntry{})

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			rows, _, err := reader.Query(ctx, tracing.RoundTableName,
				datarecording.QueryParams{OrderBy: "Round"})
			if err != nil {
				return err
			}

			_, txns, err := reader.Query(ctx, tracing.BusTableName,
				datarecording.QueryParams{Limit: 1})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, row := range rows {
				r := row.(*tracing.RoundEntry)
				fmt.Fprintf(w, "%-6d %-14.9f %-14d %-16d %-16d %-8.3f %t\n",
					r.Round, r.Time, r.Count1s, r.Count10s, r.Count100s,
					r.FreqHz/1e6, r.Complete)
			}

			fmt.Fprintf(w, "rounds=%d bus_transactions=%d\n", len(rows), txns)

			return nil
		},
	}
}
