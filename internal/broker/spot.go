package broker

import (
	"context"
	"fmt"

	apperrors "angel-options/internal/errors"
	"angel-options/internal/models"
)

// IndexToken locates an index's spot quote: its equity segment and the
// broker-assigned token for the index itself.
type IndexToken struct {
	Segment models.Segment
	Token   string
}

// IndexTokens maps the supported underlyings to their spot lookup tokens.
var IndexTokens = map[string]IndexToken{
	"NIFTY":     {Segment: models.SegmentNSE, Token: "99926000"},
	"BANKNIFTY": {Segment: models.SegmentNSE, Token: "99926009"},
	"FINNIFTY":  {Segment: models.SegmentNSE, Token: "99926037"},
	"SENSEX":    {Segment: models.SegmentBSE, Token: "99919000"},
}

// Underlyings returns the supported underlying names.
func Underlyings() []string {
	out := make([]string, 0, len(IndexTokens))
	for name := range IndexTokens {
		out = append(out, name)
	}
	return out
}

// SpotPrice fetches the index's last traded price in LTP mode.
//
// Certain index quotes intermittently arrive in paise; the threshold-based
// divide-by-10 corrections are empirical, carried over exactly as observed
// per index rather than derived from a general rule.
func (c *Client) SpotPrice(ctx context.Context, symbol string) (float64, error) {
	idx, ok := IndexTokens[symbol]
	if !ok {
		return 0, fmt.Errorf("unknown underlying %q: %w", symbol, apperrors.ErrNoSpot)
	}

	entries, err := c.MarketQuotes(ctx, models.QuoteModeLTP, idx.Segment, []string{idx.Token})
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("empty spot response for %s: %w", symbol, apperrors.ErrNoSpot)
	}

	ltp := entries[0].LTP
	switch symbol {
	case "NIFTY", "FINNIFTY":
		if ltp > 100000 {
			ltp /= 10
		}
	case "BANKNIFTY", "SENSEX":
		if ltp > 200000 {
			ltp /= 10
		}
	}
	return ltp, nil
}
