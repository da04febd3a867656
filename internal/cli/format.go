package cli

import (
	"fmt"
	"math"

	"github.com/fatih/color"

	"angel-options/internal/models"
	"angel-options/pkg/utils"
)

// RenderChain prints one priced chain window as a table, marking strikes
// whose premium trades below theoretical value.
func RenderChain(output *Output, res *models.ChainResult, timeFormat string) {
	output.Println()
	color.Cyan("⛓ %s %s", res.Underlying, res.Expiry)
	output.Printf("Spot: %s   As of: %s\n", utils.FormatIndianCurrency(res.Spot), res.GeneratedAt.Format(timeFormat))
	if res.FailedChunks > 0 {
		output.Warning("%d quote batch(es) failed, some premiums may be stale", res.FailedChunks)
	}
	output.Println()

	atm := atmStrike(res)
	table := NewTable(output,
		"CALL LTP", "CALL FAIR", "CALL IV", "CALL DELTA",
		"STRIKE",
		"PUT DELTA", "PUT IV", "PUT FAIR", "PUT LTP")
	for _, row := range res.Strikes {
		strike := fmt.Sprintf("%.0f", row.Strike)
		switch {
		case row.Discounted:
			strike = color.YellowString("%s ◀", strike)
		case row.Strike == atm:
			strike = color.CyanString(strike)
		}
		table.AddRow(
			legPrice(row.Call), legFair(row.Call), legIV(row.Call), legDelta(row.Call),
			strike,
			legDelta(row.Put), legIV(row.Put), legFair(row.Put), legPrice(row.Put))
	}
	table.Render()

	if len(res.Flagged) > 0 {
		output.Println()
		for _, k := range res.Flagged {
			color.Yellow("▲ %.0f trading below theoretical value", k)
		}
	}
}

// atmStrike returns the strike closest to spot, lower strike on ties.
func atmStrike(res *models.ChainResult) float64 {
	if len(res.Strikes) == 0 {
		return 0
	}
	atm := res.Strikes[0].Strike
	best := math.Abs(atm - res.Spot)
	for _, row := range res.Strikes[1:] {
		if d := math.Abs(row.Strike - res.Spot); d < best {
			best = d
			atm = row.Strike
		}
	}
	return atm
}

func legPrice(leg *models.PricedLeg) string {
	if leg == nil || leg.LTP == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", leg.LTP)
}

func legFair(leg *models.PricedLeg) string {
	if leg == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", leg.Fair)
}

func legIV(leg *models.PricedLeg) string {
	if leg == nil || leg.IV == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", leg.IV*100)
}

func legDelta(leg *models.PricedLeg) string {
	if leg == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f", leg.Delta)
}
