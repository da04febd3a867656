package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"angel-options/internal/broker"
	"angel-options/internal/chain"
	apperrors "angel-options/internal/errors"
	"angel-options/internal/logging"
	"angel-options/internal/scheduler"
)

// ensureMaster loads the instrument cache, downloading a fresh scrip master
// when the cached one is missing or stale.
func (app *App) ensureMaster(ctx context.Context) error {
	_, err := app.Cache.Ensure(ctx, app.Client, app.watchlist(), app.Config.Cache.MaxAge)
	if err != nil {
		return fmt.Errorf("loading instrument master: %w", err)
	}
	return nil
}

// watchlist is the set of underlyings kept in the instrument cache.
func (app *App) watchlist() []string {
	if len(app.Config.Chain.Underlyings) == 0 {
		return broker.Underlyings()
	}
	out := make([]string, len(app.Config.Chain.Underlyings))
	for i, u := range app.Config.Chain.Underlyings {
		out[i] = strings.ToUpper(strings.TrimSpace(u))
	}
	return out
}

// resolveExpiry picks the expiry to use: the explicit flag when given,
// otherwise the nearest listed expiry for the underlying.
func (app *App) resolveExpiry(underlying, flag string) (string, error) {
	if flag != "" {
		return strings.ToUpper(flag), nil
	}
	snap := app.Cache.Snapshot()
	if snap == nil {
		return "", apperrors.ErrCacheMiss
	}
	expiries := chain.ListExpiries(snap.Instruments, underlying)
	if len(expiries) == 0 {
		return "", fmt.Errorf("%s: %w", underlying, apperrors.ErrNoExpiry)
	}
	return expiries[0], nil
}

// cycleParams builds the settings for one refresh cycle from config plus
// command-line overrides.
func (app *App) cycleParams(underlying, expiry string, manualSpot float64, radius int) scheduler.Params {
	settings := app.Config.Settings()
	if radius > 0 {
		settings.StrikeRadius = radius
	}
	return scheduler.Params{
		Underlying: underlying,
		Expiry:     expiry,
		ManualSpot: manualSpot,
		Settings:   settings,
	}
}

func (app *App) newScheduler(cfg scheduler.Config) *scheduler.Scheduler {
	cfg.Logger = app.Logger
	if cfg.Interval == 0 {
		cfg.Interval = app.Config.Polling.Interval
	}
	return scheduler.New(app.Client, app.Cache, app.Fetcher, cfg)
}

func newChainCmd(app *App) *cobra.Command {
	var (
		underlying string
		expiry     string
		manualSpot float64
		radius     int
	)

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Fetch and price the option chain once",
		Long: `Fetch the option chain for an underlying, price every leg with the
valuation model and print the strike window around spot.`,
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

			s := app.newScheduler(scheduler.Config{})
			res, err := s.RunCycle(ctx, app.cycleParams(underlying, exp, manualSpot, radius))
			if err != nil {
				return err
			}

			if app.Store != nil {
				if err := app.Store.SaveCycle(ctx, res); err != nil {
					logger := logging.WithUnderlying(app.Logger, underlying)
					logger.Warn().Err(err).Msg("Failed to journal cycle")
				}
			}

			if output.IsJSON() {
				return output.JSON(res)
			}
			RenderChain(output, res, app.Config.UI.TimeFormat)
			return nil
		},
	}

	cmd.Flags().StringVarP(&underlying, "underlying", "u", "", "underlying symbol (NIFTY, BANKNIFTY, FINNIFTY, SENSEX, or a stock)")
	cmd.Flags().StringVarP(&expiry, "expiry", "e", "", "expiry in DDMMMYYYY form (default: nearest)")
	cmd.Flags().Float64Var(&manualSpot, "spot", 0, "manual spot override, skips the live lookup")
	cmd.Flags().IntVarP(&radius, "radius", "r", 0, "strikes on each side of at-the-money")

	return cmd
}

func newExpiriesCmd(app *App) *cobra.Command {
	var underlying string

	cmd := &cobra.Command{
		Use:   "expiries",
		Short: "List available expiries for an underlying",
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
			snap := app.Cache.Snapshot()
			if snap == nil {
				return apperrors.ErrCacheMiss
			}

			expiries := chain.ListExpiries(snap.Instruments, underlying)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"underlying": underlying,
					"expiries":   expiries,
				})
			}
			if len(expiries) == 0 {
				output.Warning("No expiries listed for %s", underlying)
				return nil
			}
			output.Bold("%s expiries", underlying)
			for i, e := range expiries {
				marker := " "
				if i == 0 {
					marker = output.Green("▶")
				}
				output.Printf("%s %s\n", marker, e)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&underlying, "underlying", "u", "", "underlying symbol")
	return cmd
}

// describeCycleError maps cycle failures onto user-facing advice.
func describeCycleError(output *Output, err error) {
	switch {
	case apperrors.IsCacheMiss(err):
		output.Error("Instrument master unavailable: %v", err)
		output.Dim("Run 'angel-options master refresh' with live credentials.")
	case apperrors.IsNoSpot(err):
		output.Error("Could not resolve spot price: %v", err)
		output.Dim("Pass --spot to supply one manually.")
	default:
		output.Error("Refresh failed: %v", err)
	}
}
