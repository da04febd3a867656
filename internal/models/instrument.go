package models

import "strings"

// Instrument is one normalized option contract from the exchange scrip master.
// Instruments are immutable once loaded; a cache snapshot is replaced wholesale,
// never mutated in place.
type Instrument struct {
	Token      string         `json:"token"`
	Symbol     string         `json:"symbol"`
	Underlying string         `json:"name"`
	Expiry     string         `json:"expiry"` // ddMMMyyyy, as listed by the exchange
	Strike     float64        `json:"strike"` // rupees (raw master value / 100)
	Segment    Segment        `json:"exch_seg"`
	Type       InstrumentType `json:"instrumenttype"`
}

// OptionType derives the contract side from the trading symbol suffix.
// The second return value is false for symbols that encode neither side.
func (i Instrument) OptionType() (OptionType, bool) {
	switch {
	case strings.HasSuffix(i.Symbol, string(OptionCall)):
		return OptionCall, true
	case strings.HasSuffix(i.Symbol, string(OptionPut)):
		return OptionPut, true
	}
	return "", false
}
