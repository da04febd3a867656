package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"angel-options/internal/models"
)

// Property: For all valid inputs, call minus put equals S - K*exp(-rT)
// within floating tolerance (put-call parity).
func TestProperty_PutCallParity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("C - P == S - K*exp(-rT)", prop.ForAll(
		func(s, k, tte, r, sigma float64) bool {
			call := Price(s, k, tte, r, sigma, models.OptionCall)
			put := Price(s, k, tte, r, sigma, models.OptionPut)
			want := s - k*math.Exp(-r*tte)
			return math.Abs((call-put)-want) < 1e-6*math.Max(1, s)
		},
		gen.Float64Range(100.0, 60000.0),
		gen.Float64Range(100.0, 60000.0),
		gen.Float64Range(0.001, 2.0),
		gen.Float64Range(0.0, 0.15),
		gen.Float64Range(0.05, 1.0),
	))

	properties.TestingRun(t)
}

// Property: call delta stays in [0,1] and put delta in [-1,0] for any
// valid inputs.
func TestProperty_DeltaBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("deltas bounded", prop.ForAll(
		func(s, k, tte, r, sigma float64) bool {
			cd := Delta(s, k, tte, r, sigma, models.OptionCall)
			pd := Delta(s, k, tte, r, sigma, models.OptionPut)
			return cd >= 0 && cd <= 1 && pd >= -1 && pd <= 0
		},
		gen.Float64Range(100.0, 60000.0),
		gen.Float64Range(100.0, 60000.0),
		gen.Float64Range(0.001, 2.0),
		gen.Float64Range(0.0, 0.15),
		gen.Float64Range(0.05, 1.0),
	))

	properties.TestingRun(t)
}

// Property: pricing at a volatility and inverting the result recovers that
// volatility within 1e-2 for reasonable sigma. The solver's iteration cap is
// low by design, so the domain is restricted to liquid near-the-money shapes
// where Newton-Raphson behaves.
func TestProperty_ImpliedVolatilityRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("iv(price(sigma)) ~= sigma", prop.ForAll(
		func(moneyness, tte, sigma float64) bool {
			const s = 24000.0
			k := s * moneyness
			price := Price(s, k, tte, 0.07, sigma, models.OptionCall)
			got, _ := ImpliedVolatilityN(price, s, k, tte, 0.07, models.OptionCall, 25)
			return math.Abs(got-sigma) <= 1e-2
		},
		gen.Float64Range(0.95, 1.05),
		gen.Float64Range(0.02, 1.0),
		gen.Float64Range(0.05, 1.0),
	))

	properties.TestingRun(t)
}
