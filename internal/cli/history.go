package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "angel-options/internal/errors"
	"angel-options/pkg/utils"
)

func newHistoryCmd(app *App) *cobra.Command {
	var (
		underlying string
		limit      int
		showRows   int64
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled refresh cycles",
		Long:  "List recent refresh cycles from the local journal, or replay one cycle's priced strikes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			if app.Store == nil {
				return fmt.Errorf("cycle journal unavailable: %w", apperrors.ErrDatabaseError)
			}
			if underlying == "" {
				underlying = app.Config.Chain.DefaultUnderlying
			}
			underlying = strings.ToUpper(underlying)

			if showRows > 0 {
				rows, err := app.Store.CycleRows(ctx, showRows)
				if err != nil {
					return err
				}
				if output.IsJSON() {
					return output.JSON(rows)
				}
				table := NewTable(output, "STRIKE", "CALL LTP", "CALL FAIR", "PUT LTP", "PUT FAIR", "ALERT")
				for _, r := range rows {
					alert := ""
					if r.Discounted {
						alert = output.Yellow("◀")
					}
					table.AddRow(
						fmt.Sprintf("%.0f", r.Strike),
						legPrice(r.Call), legFair(r.Call),
						legPrice(r.Put), legFair(r.Put),
						alert)
				}
				table.Render()
				return nil
			}

			cycles, err := app.Store.RecentCycles(ctx, underlying, limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(cycles)
			}
			if len(cycles) == 0 {
				output.Dim("No journaled cycles for %s", underlying)
				return nil
			}

			table := NewTable(output, "ID", "TIME", "EXPIRY", "SPOT", "FLAGGED", "FAILED")
			for _, c := range cycles {
				flagged := "-"
				if len(c.Flagged) > 0 {
					flagged = output.Yellow(fmt.Sprintf("%d", len(c.Flagged)))
				}
				table.AddRow(
					fmt.Sprintf("%d", c.ID),
					c.GeneratedAt.Local().Format("02 Jan 15:04:05"),
					c.Expiry,
					utils.FormatIndianCurrency(c.Spot),
					flagged,
					fmt.Sprintf("%d", c.FailedChunks))
			}
			table.Render()
			output.Dim("Use --cycle <id> to replay one cycle's strikes.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&underlying, "underlying", "u", "", "underlying symbol")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "cycles to list")
	cmd.Flags().Int64Var(&showRows, "cycle", 0, "show the priced strikes of one cycle")

	return cmd
}
