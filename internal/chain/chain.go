// Package chain selects the displayed strike window from the cached scrip
// master and handles exchange expiry-date strings.
package chain

import (
	"math"
	"sort"
	"time"

	"angel-options/internal/models"
)

// SelectWindow builds the chain window for one (underlying, expiry) pair:
// the distinct strikes nearest to spot, radius strikes on each side of the
// at-the-money strike, each paired with its CE and PE contracts.
//
// The window is clamped at the edges of the listed strike range; fewer than
// 2*radius+1 rows near a boundary is expected, never an error. On an exact
// distance tie the lower strike wins. An unknown pair yields an empty window.
func SelectWindow(instruments []models.Instrument, underlying, expiry string, spot float64, radius int) models.ChainWindow {
	window := models.ChainWindow{
		Underlying: underlying,
		Expiry:     expiry,
		Spot:       spot,
	}
	if radius < 0 {
		radius = 0
	}

	var subset []models.Instrument
	for _, inst := range instruments {
		if inst.Underlying == underlying && inst.Expiry == expiry {
			subset = append(subset, inst)
		}
	}
	if len(subset) == 0 {
		return window
	}

	seen := make(map[float64]struct{})
	var strikes []float64
	for _, inst := range subset {
		if _, ok := seen[inst.Strike]; !ok {
			seen[inst.Strike] = struct{}{}
			strikes = append(strikes, inst.Strike)
		}
	}
	sort.Float64s(strikes)

	// ATM index: minimum absolute distance to spot, first (lower) strike on ties.
	atm := 0
	best := math.Abs(strikes[0] - spot)
	for i, k := range strikes[1:] {
		if d := math.Abs(k - spot); d < best {
			best = d
			atm = i + 1
		}
	}

	lo := atm - radius
	if lo < 0 {
		lo = 0
	}
	hi := atm + radius
	if hi > len(strikes)-1 {
		hi = len(strikes) - 1
	}

	for _, k := range strikes[lo : hi+1] {
		row := models.StrikeRow{Strike: k}
		for i := range subset {
			if subset[i].Strike != k {
				continue
			}
			switch typ, ok := subset[i].OptionType(); {
			case ok && typ == models.OptionCall:
				row.Call = &subset[i]
			case ok && typ == models.OptionPut:
				row.Put = &subset[i]
			}
		}
		window.Rows = append(window.Rows, row)
	}

	return window
}

// ListExpiries returns the distinct expiries listed for an underlying, parsed
// and sorted chronologically, filtered to today or later, capped at six.
func ListExpiries(instruments []models.Instrument, underlying string) []string {
	return ListExpiriesAt(instruments, underlying, time.Now().In(IndiaLocation))
}

// ListExpiriesAt is ListExpiries evaluated against an explicit "today".
//
// When parsing leaves nothing (stale master, unexpected date format), it falls
// back to the five most recent raw entries instead of returning an empty list:
// the chain view must never show a blank expiry selector.
func ListExpiriesAt(instruments []models.Instrument, underlying string, today time.Time) []string {
	seen := make(map[string]struct{})
	var raw []string
	for _, inst := range instruments {
		if inst.Underlying != underlying {
			continue
		}
		if _, ok := seen[inst.Expiry]; !ok {
			seen[inst.Expiry] = struct{}{}
			raw = append(raw, inst.Expiry)
		}
	}
	if len(raw) == 0 {
		return nil
	}

	sort.Slice(raw, func(i, j int) bool {
		ti, erri := ParseExpiry(raw[i])
		tj, errj := ParseExpiry(raw[j])
		if erri != nil || errj != nil {
			return raw[i] < raw[j]
		}
		return ti.Before(tj)
	})

	var valid []string
	for _, e := range raw {
		t, err := ParseExpiry(e)
		if err != nil {
			continue
		}
		if !beforeDate(t, today) {
			valid = append(valid, e)
		}
	}

	if len(valid) == 0 {
		if len(raw) > 5 {
			return raw[len(raw)-5:]
		}
		return raw
	}
	if len(valid) > 6 {
		valid = valid[:6]
	}
	return valid
}

// beforeDate reports whether t's calendar date precedes ref's.
func beforeDate(t, ref time.Time) bool {
	ty, tm, td := t.Date()
	ry, rm, rd := ref.Date()
	if ty != ry {
		return ty < ry
	}
	if tm != rm {
		return tm < rm
	}
	return td < rd
}
