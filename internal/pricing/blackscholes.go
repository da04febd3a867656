// Package pricing provides closed-form option pricing, greeks and implied
// volatility. All functions are pure and side-effect-free.
package pricing

import (
	"math"

	"angel-options/internal/models"
)

// Solver tunables. The iteration cap trades precision for latency on a chain
// refreshed every few seconds; it is deliberately low.
const (
	DefaultIVIterations = 5
	// IVTolerance is the absolute price error at which iteration stops early.
	IVTolerance = 0.01
	// ivSeed is the initial volatility guess for Newton-Raphson.
	ivSeed = 0.5
	// vegaFloor stops iteration when the derivative is too small to divide by.
	vegaFloor = 1e-5
	// MinVolatility is the floor applied to solver output.
	MinVolatility = 0.01
)

// NormCDF computes the standard normal cumulative distribution function via
// the error function identity, avoiding lookup-table discretization.
func NormCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2.0*math.Pi)
}

// d1d2 computes the Black-Scholes d1 and d2 terms. The boolean is false when
// the inputs are degenerate (non-positive S, K, T or sigma).
func d1d2(s, k, t, r, sigma float64) (float64, float64, bool) {
	if t <= 0 || s <= 0 || k <= 0 || sigma <= 0 {
		return 0, 0, false
	}
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return d1, d2, true
}

// Price returns the Black-Scholes value of an option.
//
// At or past expiry (t <= 0) it returns intrinsic value, modeling immediate
// expiry without a degenerate log/sqrt. For non-positive S, K or sigma it
// returns 0, signaling "undefined" to callers rather than failing.
func Price(s, k, t, r, sigma float64, typ models.OptionType) float64 {
	if t <= 0 {
		if typ == models.OptionCall {
			return math.Max(0, s-k)
		}
		return math.Max(0, k-s)
	}
	d1, d2, ok := d1d2(s, k, t, r, sigma)
	if !ok {
		return 0
	}
	if typ == models.OptionCall {
		return s*NormCDF(d1) - k*math.Exp(-r*t)*NormCDF(d2)
	}
	return k*math.Exp(-r*t)*NormCDF(-d2) - s*NormCDF(-d1)
}

// Delta returns the option's sensitivity to spot: N(d1) for calls,
// N(d1)-1 for puts. Degenerate inputs return 0 under the same guard as Price.
func Delta(s, k, t, r, sigma float64, typ models.OptionType) float64 {
	if t <= 0 {
		return 0
	}
	d1, _, ok := d1d2(s, k, t, r, sigma)
	if !ok {
		return 0
	}
	if typ == models.OptionCall {
		return NormCDF(d1)
	}
	return NormCDF(d1) - 1.0
}

// Vega returns the option's sensitivity to volatility, S*sqrt(T)*phi(d1).
func Vega(s, k, t, r, sigma float64) float64 {
	d1, _, ok := d1d2(s, k, t, r, sigma)
	if !ok {
		return 0
	}
	return s * math.Sqrt(t) * normPDF(d1)
}

// ImpliedVolatility inverts Price for an observed market price using the
// default iteration cap. See ImpliedVolatilityN.
func ImpliedVolatility(observed, s, k, t, r float64, typ models.OptionType) float64 {
	iv, _ := ImpliedVolatilityN(observed, s, k, t, r, typ, DefaultIVIterations)
	return iv
}

// ImpliedVolatilityN runs Newton-Raphson seeded at 0.5 for at most maxIter
// steps, exiting early once the repriced value is within IVTolerance of the
// observed price or once vega collapses below its floor. The boolean reports
// whether tolerance was reached; when false the returned value is the last
// estimate, not an error.
//
// This is a best-effort estimator, not a guaranteed-converging root-finder.
// The result is floored at MinVolatility so it never goes non-positive.
func ImpliedVolatilityN(observed, s, k, t, r float64, typ models.OptionType, maxIter int) (float64, bool) {
	if maxIter <= 0 {
		maxIter = DefaultIVIterations
	}
	sigma := ivSeed
	converged := false
	for i := 0; i < maxIter; i++ {
		diff := Price(s, k, t, r, sigma, typ) - observed
		if math.Abs(diff) < IVTolerance {
			converged = true
			break
		}
		vega := Vega(s, k, t, r, sigma)
		if math.Abs(vega) < vegaFloor {
			break
		}
		sigma -= diff / vega
	}
	return math.Max(sigma, MinVolatility), converged
}
