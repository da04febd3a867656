package cli

import (
	"bufio"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"angel-options/internal/logging"
	"angel-options/internal/models"
	"angel-options/internal/scheduler"
	"angel-options/pkg/utils"
)

func newWatchCmd(app *App) *cobra.Command {
	var (
		underlying string
		expiry     string
		manualSpot float64
		radius     int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll and re-price the option chain continuously",
		Long: `Repeatedly refresh the option chain on the configured interval until
interrupted. Press Enter to force an immediate refresh; Ctrl-C stops.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			if underlying == "" {
				underlying = app.Config.Chain.DefaultUnderlying
			}
			underlying = strings.ToUpper(underlying)

			if err := app.ensureMaster(ctx); err != nil {
				return err
			}
			exp, err := app.resolveExpiry(underlying, expiry)
			if err != nil {
				return err
			}

			if !utils.IsMarketOpen() {
				output.Warning("Market is closed, quotes will reflect the last session (next open: %s)",
					utils.NextMarketOpen().Format("Mon 02 Jan 15:04"))
			}

			params := app.cycleParams(underlying, exp, manualSpot, radius)
			s := app.newScheduler(scheduler.Config{
				Params: func() scheduler.Params { return params },
				OnResult: func(res *models.ChainResult) {
					logging.LogCycle(app.Logger, res.Underlying, res.Expiry, res.Spot,
						len(res.Strikes), len(res.Flagged), res.FailedChunks)
					RenderChain(output, res, app.Config.UI.TimeFormat)
				},
				OnError: func(err error) {
					describeCycleError(output, err)
				},
				Sink: cycleSink(app),
			})

			if err := s.Start(); err != nil {
				return err
			}
			output.Info("Polling %s %s every %s (Enter = refresh now, Ctrl-C = stop)",
				underlying, exp, app.Config.Polling.Interval)

			// Manual refresh on Enter.
			go func() {
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					s.TriggerRefresh()
				}
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sig:
			case <-ctx.Done():
			}
			signal.Stop(sig)

			s.Stop()
			output.Println()
			output.Info("Stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&underlying, "underlying", "u", "", "underlying symbol")
	cmd.Flags().StringVarP(&expiry, "expiry", "e", "", "expiry in DDMMMYYYY form (default: nearest)")
	cmd.Flags().Float64Var(&manualSpot, "spot", 0, "manual spot override, skips the live lookup")
	cmd.Flags().IntVarP(&radius, "radius", "r", 0, "strikes on each side of at-the-money")

	return cmd
}

// cycleSink adapts the optional journal store to the scheduler's sink; a nil
// store means no journaling.
func cycleSink(app *App) scheduler.Sink {
	if app.Store == nil {
		return nil
	}
	return app.Store
}
