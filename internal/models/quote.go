package models

// QuoteEntry is one instrument's entry in a market quote response.
// Close carries the previous close, used when the exchange reports a zero LTP.
// Quotes are ephemeral: fetched fresh every refresh cycle, never persisted.
type QuoteEntry struct {
	Token string  `json:"symbolToken"`
	LTP   float64 `json:"ltp"`
	Close float64 `json:"close"`
}
