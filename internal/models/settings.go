package models

// Settings holds the pricing and display parameters for a refresh cycle.
// The caller owns the struct and passes it by value into each cycle; changes
// take effect on the next cycle only.
type Settings struct {
	RiskFreeRate           float64
	ModelVolatility        float64
	StrikeRadius           int
	DiscountAlertThreshold float64
	IVIterations           int
}

// DefaultSettings returns the standard parameters for Indian index options.
func DefaultSettings() Settings {
	return Settings{
		RiskFreeRate:           0.07,
		ModelVolatility:        0.18,
		StrikeRadius:           10,
		DiscountAlertThreshold: 5.0,
		IVIterations:           5,
	}
}
