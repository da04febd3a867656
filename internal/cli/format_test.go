package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"angel-options/internal/models"
)

func testOutput() (*Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Output{writer: &buf}, &buf
}

func TestLegFormatting(t *testing.T) {
	leg := &models.PricedLeg{LTP: 123.45, Fair: 130.1, Delta: -0.42, IV: 0.185}

	if got := legPrice(leg); got != "123.45" {
		t.Errorf("legPrice = %q", got)
	}
	if got := legFair(leg); got != "130.10" {
		t.Errorf("legFair = %q", got)
	}
	if got := legIV(leg); got != "18.5%" {
		t.Errorf("legIV = %q", got)
	}
	if got := legDelta(leg); got != "-0.42" {
		t.Errorf("legDelta = %q", got)
	}

	// Missing legs and quoteless legs render as dashes.
	if got := legPrice(nil); got != "-" {
		t.Errorf("legPrice(nil) = %q", got)
	}
	if got := legPrice(&models.PricedLeg{}); got != "-" {
		t.Errorf("legPrice(no quote) = %q", got)
	}
	if got := legIV(&models.PricedLeg{Fair: 10}); got != "-" {
		t.Errorf("legIV(no quote) = %q", got)
	}
	if got := legDelta(&models.PricedLeg{Delta: 0.5}); got != "+0.50" {
		t.Errorf("legDelta sign = %q", got)
	}
}

func TestRenderChainPlain(t *testing.T) {
	output, buf := testOutput()
	res := &models.ChainResult{
		Underlying:  "NIFTY",
		Expiry:      "30JAN2025",
		Spot:        24000,
		GeneratedAt: time.Date(2025, 1, 20, 10, 30, 0, 0, time.UTC),
		Strikes: []models.PricedStrike{
			{
				Strike: 23900,
				Call:   &models.PricedLeg{LTP: 180, Fair: 175, Delta: 0.62, IV: 0.19},
				Put:    &models.PricedLeg{LTP: 70, Fair: 72, Delta: -0.38, IV: 0.18},
			},
			{
				Strike:     24000,
				Call:       &models.PricedLeg{LTP: 0.05, Fair: 120, Delta: 0.51, IV: 0.01},
				Discounted: true,
			},
		},
		Flagged: []float64{24000},
	}

	RenderChain(output, res, "15:04:05")
	got := buf.String()

	for _, want := range []string{"23900", "180.00", "175.00", "18.5%", "STRIKE", "10:30:00"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(got, "24000") {
		t.Errorf("flagged strike missing:\n%s", got)
	}
}

func TestTableAlignsColumns(t *testing.T) {
	output, buf := testOutput()
	table := NewTable(output, "A", "LONGHEADER")
	table.AddRow("xxxx", "1")
	table.AddRow("y", "22")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want header + separator + 2 rows", len(lines))
	}
	if strings.TrimRight(lines[2], " ") != "xxxx  1" {
		t.Errorf("row = %q", lines[2])
	}
	if strings.TrimRight(lines[3], " ") != "y     22" {
		t.Errorf("row = %q", lines[3])
	}
}
