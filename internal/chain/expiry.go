package chain

import (
	"fmt"
	"strings"
	"time"
)

// expiryLayout matches the scrip master's ddMMMyyyy dates, e.g. "30JAN2025"
// after case normalization.
const expiryLayout = "02Jan2006"

// IndiaLocation is the exchange timezone.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// ParseExpiry parses a ddMMMyyyy expiry string. The master lists months in
// upper case, which time.Parse rejects, so the month is re-cased first.
func ParseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) != len("02Jan2006") {
		return time.Time{}, fmt.Errorf("bad expiry %q", s)
	}
	normalized := s[:2] + strings.ToUpper(s[2:3]) + strings.ToLower(s[3:5]) + s[5:]
	t, err := time.ParseInLocation(expiryLayout, normalized, IndiaLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad expiry %q: %w", s, err)
	}
	return t, nil
}

// TimeToExpiry returns the year fraction from now until 15:30 IST on the
// expiry date, floored at 0.0001 so same-day pricing never degenerates.
// An unparseable expiry falls back to 0.01 rather than aborting the cycle.
func TimeToExpiry(expiry string, now time.Time) float64 {
	ed, err := ParseExpiry(expiry)
	if err != nil {
		return 0.01
	}
	close := time.Date(ed.Year(), ed.Month(), ed.Day(), 15, 30, 0, 0, IndiaLocation)
	years := close.Sub(now).Seconds() / 31536000.0
	if years < 0.0001 {
		return 0.0001
	}
	return years
}
