// Package master maintains the disk-backed cache of the exchange scrip
// master, filtered down to the option instruments the chain view needs.
package master

import (
	"context"
	"strconv"
	"strings"
	"time"

	"angel-options/internal/models"
)

// FreshnessWindow is how long a persisted snapshot stays usable before a
// fresh download is required.
const FreshnessWindow = 12 * time.Hour

// ScripRecord is one raw element of the downloaded scrip master. Only the
// fields the chain view reads are decoded; the rest of the (very large)
// master is dropped on the floor.
type ScripRecord struct {
	Token          string `json:"token"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	Expiry         string `json:"expiry"`
	Strike         string `json:"strike"`
	ExchSeg        string `json:"exch_seg"`
	InstrumentType string `json:"instrumenttype"`
}

// Source downloads the full scrip master.
type Source interface {
	FetchScripMaster(ctx context.Context) ([]ScripRecord, error)
}

// Snapshot is one immutable load of the filtered instrument set. It is
// replaced wholesale on refresh, never mutated in place.
type Snapshot struct {
	LoadedAt    time.Time           `json:"loaded_at"`
	Instruments []models.Instrument `json:"instruments"`
}

// Age returns how old the snapshot is.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.LoadedAt)
}

// Normalize filters raw records to option instruments of the allowed
// underlyings and cleans each retained record: the token loses any trailing
// fractional suffix, the segment is upper-cased and trimmed, and the raw
// integer strike becomes rupees (divided by 100).
//
// Filtering here rather than at query time keeps the in-memory set small;
// the unfiltered master runs to six figures of records.
func Normalize(records []ScripRecord, allowedUnderlyings []string) []models.Instrument {
	allowed := make(map[string]struct{}, len(allowedUnderlyings))
	for _, u := range allowedUnderlyings {
		allowed[u] = struct{}{}
	}

	var out []models.Instrument
	for _, rec := range records {
		typ := models.InstrumentType(strings.TrimSpace(rec.InstrumentType))
		if typ != models.InstrumentOptIdx && typ != models.InstrumentOptStk {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[rec.Name]; !ok {
				continue
			}
		}

		token, _, _ := strings.Cut(rec.Token, ".")
		strike := 0.0
		if raw, err := strconv.ParseFloat(strings.TrimSpace(rec.Strike), 64); err == nil {
			strike = raw / 100.0
		}

		out = append(out, models.Instrument{
			Token:      strings.TrimSpace(token),
			Symbol:     strings.TrimSpace(rec.Symbol),
			Underlying: rec.Name,
			Expiry:     strings.TrimSpace(rec.Expiry),
			Strike:     strike,
			Segment:    models.Segment(strings.ToUpper(strings.TrimSpace(rec.ExchSeg))),
			Type:       typ,
		})
	}
	return out
}
