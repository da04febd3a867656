package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"angel-options/internal/chain"
	"angel-options/internal/models"
	"angel-options/internal/pricing"
)

func newCalcCmd(app *App) *cobra.Command {
	var (
		expiry    string
		rate      float64
		vol       float64
		observed  float64
		years     float64
		putOption bool
	)

	cmd := &cobra.Command{
		Use:   "calc <spot> <strike>",
		Short: "One-shot option valuation",
		Long: `Price a single option with the valuation model. Time to expiry comes
from --expiry (settlement at 15:30 IST) or directly from --years. Pass
--observed to also solve for implied volatility.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			spot, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid spot %q: %w", args[0], err)
			}
			strike, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid strike %q: %w", args[1], err)
			}

			tte := years
			if tte == 0 {
				if expiry == "" {
					return fmt.Errorf("either --expiry or --years is required")
				}
				tte = chain.TimeToExpiry(strings.ToUpper(expiry), time.Now())
			}

			if rate == 0 {
				rate = app.Config.Pricing.RiskFreeRate
			}
			if vol == 0 {
				vol = app.Config.Pricing.ModelVolatility
			}

			typ := models.OptionCall
			if putOption {
				typ = models.OptionPut
			}

			fair := pricing.Price(spot, strike, tte, rate, vol, typ)
			delta := pricing.Delta(spot, strike, tte, rate, vol, typ)

			result := map[string]interface{}{
				"type":   string(typ),
				"spot":   spot,
				"strike": strike,
				"years":  tte,
				"fair":   fair,
				"delta":  delta,
			}
			var iv float64
			var converged bool
			if observed > 0 {
				iv, converged = pricing.ImpliedVolatilityN(observed, spot, strike, tte, rate, typ, app.Config.Pricing.IVIterations)
				result["iv"] = iv
				result["iv_converged"] = converged
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Bold("%s %.0f (spot %.2f)", string(typ), strike, spot)
			output.Printf("  Time to expiry: %.6f years\n", tte)
			output.Printf("  Fair value:     %.2f\n", fair)
			output.Printf("  Delta:          %+.4f\n", delta)
			if observed > 0 {
				output.Printf("  Implied vol:    %.2f%%\n", iv*100)
				if !converged {
					output.Warning("IV solver hit the iteration cap, estimate is approximate")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&expiry, "expiry", "e", "", "expiry in DDMMMYYYY form")
	cmd.Flags().Float64Var(&years, "years", 0, "time to expiry in years, overrides --expiry")
	cmd.Flags().Float64Var(&rate, "rate", 0, "risk-free rate (default: configured)")
	cmd.Flags().Float64Var(&vol, "vol", 0, "model volatility (default: configured)")
	cmd.Flags().Float64Var(&observed, "observed", 0, "observed premium, solves for implied volatility")
	cmd.Flags().BoolVar(&putOption, "put", false, "price a put instead of a call")

	return cmd
}
