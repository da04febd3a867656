// Package models provides domain models for the option chain application.
package models

// Segment represents an exchange segment as reported by the scrip master.
type Segment string

const (
	SegmentNSE Segment = "NSE" // NSE equity (index spot tokens)
	SegmentBSE Segment = "BSE" // BSE equity
	SegmentNFO Segment = "NFO" // NSE futures & options
	SegmentBFO Segment = "BFO" // BSE futures & options
	SegmentMCX Segment = "MCX" // Commodity
)

// InstrumentType classifies an instrument in the scrip master.
type InstrumentType string

const (
	InstrumentOptIdx InstrumentType = "OPTIDX" // Index option
	InstrumentOptStk InstrumentType = "OPTSTK" // Stock option
)

// OptionType represents the contract side of an option.
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// QuoteMode selects the payload depth of a market quote request.
type QuoteMode string

const (
	QuoteModeLTP  QuoteMode = "LTP"
	QuoteModeFull QuoteMode = "FULL"
)
