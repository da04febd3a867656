package utils

import (
	"testing"
	"time"
)

func istTime(t *testing.T, weekday time.Weekday, hour, minute int) time.Time {
	t.Helper()
	// 6 Jan 2025 is a Monday.
	base := time.Date(2025, 1, 6, hour, minute, 0, 0, IndiaLocation)
	return base.AddDate(0, 0, int(weekday-time.Monday))
}

func TestMarketStatusAt(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want MarketStatus
	}{
		{"before pre-open", istTime(t, time.Monday, 8, 59), MarketClosed},
		{"pre-open start", istTime(t, time.Monday, 9, 0), MarketPreOpen},
		{"open bell", istTime(t, time.Monday, 9, 15), MarketOpen},
		{"midday", istTime(t, time.Wednesday, 12, 30), MarketOpen},
		{"last minute", istTime(t, time.Friday, 15, 29), MarketOpen},
		{"close", istTime(t, time.Monday, 15, 30), MarketClosed},
		{"saturday", istTime(t, time.Saturday, 12, 0), MarketClosed},
		{"sunday", istTime(t, time.Sunday, 12, 0), MarketClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := marketStatusAt(tt.at); got != tt.want {
				t.Errorf("marketStatusAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestNextMarketOpenSkipsWeekend(t *testing.T) {
	next := NextMarketOpen()
	if next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		t.Errorf("next open falls on a weekend: %v", next)
	}
	if next.Hour() != 9 || next.Minute() != 15 {
		t.Errorf("next open not at the bell: %v", next)
	}
	if !next.After(time.Now().In(IndiaLocation)) {
		t.Errorf("next open is in the past: %v", next)
	}
}
