package cli

import (
	"time"

	"github.com/spf13/cobra"

	apperrors "angel-options/internal/errors"
)

func newMasterCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "master",
		Short: "Instrument master management",
		Long:  "Download, inspect and invalidate the cached scrip master.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Force a fresh scrip master download",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			start := time.Now()
			snap, err := app.Cache.Refresh(cmd.Context(), app.Client, app.watchlist())
			if err != nil {
				output.Error("Refresh failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"instruments": len(snap.Instruments),
					"loaded_at":   snap.LoadedAt,
				})
			}
			output.Success("Loaded %d option instruments in %s", len(snap.Instruments), time.Since(start).Round(time.Millisecond))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show cached scrip master freshness",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			snap, err := app.Cache.Load(app.Config.Cache.MaxAge)
			if err != nil {
				if apperrors.IsCacheMiss(err) {
					if output.IsJSON() {
						return output.JSON(map[string]interface{}{"cached": false})
					}
					output.Warning("No usable cached scrip master (missing or older than %s)", app.Config.Cache.MaxAge)
					return nil
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"cached":      true,
					"instruments": len(snap.Instruments),
					"loaded_at":   snap.LoadedAt,
					"age":         snap.Age().String(),
				})
			}
			output.Bold("Scrip master cache")
			output.Printf("  Instruments: %d\n", len(snap.Instruments))
			output.Printf("  Loaded:      %s\n", snap.LoadedAt.Format(time.RFC1123))
			output.Printf("  Age:         %s (max %s)\n", snap.Age().Round(time.Minute), app.Config.Cache.MaxAge)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "invalidate",
		Short: "Drop the in-memory snapshot so the next use re-reads disk",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			app.Cache.Invalidate()
			output.Success("Snapshot invalidated")
		},
	})

	return cmd
}
