package models

import "time"

// StrikeRow pairs the call and put contracts listed at one strike.
// Either leg may be nil: a strike can legitimately have only one side listed.
type StrikeRow struct {
	Strike float64
	Call   *Instrument
	Put    *Instrument
}

// ChainWindow is a bounded, symmetric window of strikes around the spot price
// for one (underlying, expiry) pair. Rows are ordered ascending by strike; that
// is the display and iteration order for every downstream consumer.
type ChainWindow struct {
	Underlying string
	Expiry     string
	Spot       float64
	Rows       []StrikeRow
}

// Empty reports whether the window contains no strikes.
func (w ChainWindow) Empty() bool {
	return len(w.Rows) == 0
}

// TokensBySegment groups the window's instrument tokens by exchange segment,
// the grouping the quote endpoint batches on.
func (w ChainWindow) TokensBySegment() map[Segment][]string {
	out := make(map[Segment][]string)
	for _, row := range w.Rows {
		if row.Call != nil {
			out[row.Call.Segment] = append(out[row.Call.Segment], row.Call.Token)
		}
		if row.Put != nil {
			out[row.Put.Segment] = append(out[row.Put.Segment], row.Put.Token)
		}
	}
	return out
}

// PricedLeg is one option leg of a chain row after a refresh cycle: the live
// quote joined with its theoretical value, delta and implied volatility.
// IV is zero when no live quote was available to invert.
type PricedLeg struct {
	Token string  `json:"token"`
	LTP   float64 `json:"ltp"`
	Fair  float64 `json:"fair"`
	Delta float64 `json:"delta"`
	IV    float64 `json:"iv"`
}

// PricedStrike is one fully priced chain row.
// Discounted marks rows where theoretical value exceeds the live price by more
// than the configured alert threshold on either leg.
type PricedStrike struct {
	Strike     float64    `json:"strike"`
	Call       *PricedLeg `json:"call,omitempty"`
	Put        *PricedLeg `json:"put,omitempty"`
	Discounted bool       `json:"discounted"`
}

// ChainResult is the output of one refresh cycle: the full priced window plus
// the strikes flagged as potentially mispriced.
type ChainResult struct {
	Underlying   string         `json:"underlying"`
	Expiry       string         `json:"expiry"`
	Spot         float64        `json:"spot"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Strikes      []PricedStrike `json:"strikes"`
	Flagged      []float64      `json:"flagged"`
	FailedChunks int            `json:"failed_chunks"`
}
