package pricing

import (
	"math"
	"testing"

	"angel-options/internal/models"
)

func TestPriceIntrinsicAtExpiry(t *testing.T) {
	tests := []struct {
		name string
		s, k float64
		typ  models.OptionType
		want float64
	}{
		{"ITM call", 24100, 24000, models.OptionCall, 100},
		{"OTM call", 23900, 24000, models.OptionCall, 0},
		{"ITM put", 23900, 24000, models.OptionPut, 100},
		{"OTM put", 24100, 24000, models.OptionPut, 0},
		{"ATM call", 24000, 24000, models.OptionCall, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, tte := range []float64{0, -0.01} {
				got := Price(tt.s, tt.k, tte, 0.07, 0.18, tt.typ)
				if got != tt.want {
					t.Errorf("Price(T=%v) = %v, want intrinsic %v", tte, got, tt.want)
				}
			}
		})
	}
}

func TestPriceDegenerateInputs(t *testing.T) {
	// Non-positive S, K or sigma with T>0 returns 0, not an error.
	cases := [][5]float64{
		{0, 24000, 0.1, 0.07, 0.18},
		{24000, 0, 0.1, 0.07, 0.18},
		{24000, 24000, 0.1, 0.07, 0},
		{-1, 24000, 0.1, 0.07, 0.18},
	}
	for _, c := range cases {
		if got := Price(c[0], c[1], c[2], c[3], c[4], models.OptionCall); got != 0 {
			t.Errorf("Price%v = %v, want 0", c, got)
		}
		if got := Delta(c[0], c[1], c[2], c[3], c[4], models.OptionCall); got != 0 {
			t.Errorf("Delta%v = %v, want 0", c, got)
		}
	}
}

func TestPutCallParity(t *testing.T) {
	tests := []struct {
		s, k, tte, r, sigma float64
	}{
		{24000, 24000, 0.05, 0.07, 0.18},
		{24000, 23000, 0.02, 0.07, 0.25},
		{51000, 52000, 0.10, 0.065, 0.12},
		{800, 820, 0.25, 0.07, 0.40},
	}

	for _, tt := range tests {
		call := Price(tt.s, tt.k, tt.tte, tt.r, tt.sigma, models.OptionCall)
		put := Price(tt.s, tt.k, tt.tte, tt.r, tt.sigma, models.OptionPut)
		want := tt.s - tt.k*math.Exp(-tt.r*tt.tte)
		if diff := math.Abs((call - put) - want); diff > 1e-8 {
			t.Errorf("parity violated for %+v: C-P = %v, want %v", tt, call-put, want)
		}
	}
}

func TestPriceKnownValue(t *testing.T) {
	// Standard textbook case: S=100, K=100, T=1, r=5%, sigma=20%.
	call := Price(100, 100, 1, 0.05, 0.20, models.OptionCall)
	if math.Abs(call-10.4506) > 1e-3 {
		t.Errorf("call = %v, want ~10.4506", call)
	}
	put := Price(100, 100, 1, 0.05, 0.20, models.OptionPut)
	if math.Abs(put-5.5735) > 1e-3 {
		t.Errorf("put = %v, want ~5.5735", put)
	}
}

func TestDeltaBounds(t *testing.T) {
	for _, k := range []float64{20000, 23000, 24000, 25000, 30000} {
		cd := Delta(24000, k, 0.05, 0.07, 0.18, models.OptionCall)
		if cd < 0 || cd > 1 {
			t.Errorf("call delta out of [0,1] for K=%v: %v", k, cd)
		}
		pd := Delta(24000, k, 0.05, 0.07, 0.18, models.OptionPut)
		if pd < -1 || pd > 0 {
			t.Errorf("put delta out of [-1,0] for K=%v: %v", k, pd)
		}
	}
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	for _, sigma := range []float64{0.08, 0.15, 0.18, 0.30, 0.50, 0.80} {
		price := Price(24000, 24000, 0.05, 0.07, sigma, models.OptionCall)
		got := ImpliedVolatility(price, 24000, 24000, 0.05, 0.07, models.OptionCall)
		if math.Abs(got-sigma) > 1e-2 {
			t.Errorf("round trip for sigma=%v: got %v", sigma, got)
		}
	}
}

func TestImpliedVolatilityFloor(t *testing.T) {
	// A worthless deep OTM quote must not drive the estimate non-positive.
	iv, _ := ImpliedVolatilityN(0.0001, 24000, 30000, 0.002, 0.07, models.OptionCall, 5)
	if iv < MinVolatility {
		t.Errorf("iv = %v, want >= %v", iv, MinVolatility)
	}
}

func TestImpliedVolatilityCapRespected(t *testing.T) {
	// An unreachable price reports non-convergence but still returns an estimate.
	iv, converged := ImpliedVolatilityN(1e9, 24000, 24000, 0.05, 0.07, models.OptionCall, 5)
	if converged {
		t.Error("expected non-convergence for absurd observed price")
	}
	if iv < MinVolatility {
		t.Errorf("iv = %v, want >= %v", iv, MinVolatility)
	}
}
