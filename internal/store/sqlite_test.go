package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"angel-options/internal/models"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cycles.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(generatedAt time.Time) *models.ChainResult {
	return &models.ChainResult{
		Underlying:   "NIFTY",
		Expiry:       "30JAN2025",
		Spot:         24000,
		GeneratedAt:  generatedAt,
		FailedChunks: 1,
		Flagged:      []float64{24000},
		Strikes: []models.PricedStrike{
			{
				Strike: 23900,
				Call:   &models.PricedLeg{Token: "23900CE", LTP: 180, Fair: 175.5, Delta: 0.62, IV: 0.19},
				Put:    &models.PricedLeg{Token: "23900PE", LTP: 70, Fair: 72.1, Delta: -0.38, IV: 0.18},
			},
			{
				Strike:     24000,
				Call:       &models.PricedLeg{Token: "24000CE", LTP: 0.05, Fair: 120, Delta: 0.51, IV: 0.01},
				Discounted: true,
			},
		},
	}
}

func TestSaveAndReadCycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	if err := s.SaveCycle(ctx, sampleResult(now)); err != nil {
		t.Fatalf("SaveCycle: %v", err)
	}

	cycles, err := s.RecentCycles(ctx, "NIFTY", 10)
	if err != nil {
		t.Fatalf("RecentCycles: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	c := cycles[0]
	if c.Underlying != "NIFTY" || c.Expiry != "30JAN2025" || c.Spot != 24000 {
		t.Errorf("cycle = %+v", c)
	}
	if c.FailedChunks != 1 {
		t.Errorf("failed chunks = %d, want 1", c.FailedChunks)
	}
	if len(c.Flagged) != 1 || c.Flagged[0] != 24000 {
		t.Errorf("flagged = %v, want [24000]", c.Flagged)
	}

	rows, err := s.CycleRows(ctx, c.ID)
	if err != nil {
		t.Fatalf("CycleRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Strike != 23900 || rows[1].Strike != 24000 {
		t.Errorf("rows out of order: %v, %v", rows[0].Strike, rows[1].Strike)
	}
	if rows[0].Call == nil || rows[0].Call.LTP != 180 || rows[0].Call.IV != 0.19 {
		t.Errorf("call leg = %+v", rows[0].Call)
	}
	if rows[0].Put == nil || rows[0].Put.Delta != -0.38 {
		t.Errorf("put leg = %+v", rows[0].Put)
	}
	if rows[1].Put != nil {
		t.Error("strike without a put leg should scan as nil")
	}
	if !rows[1].Discounted {
		t.Error("discounted flag lost on round trip")
	}
}

func TestRecentCyclesOrderAndLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		res := sampleResult(base.Add(time.Duration(i) * time.Minute))
		if err := s.SaveCycle(ctx, res); err != nil {
			t.Fatal(err)
		}
	}

	cycles, err := s.RecentCycles(ctx, "NIFTY", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 3 {
		t.Fatalf("cycles = %d, want limit of 3", len(cycles))
	}
	for i := 1; i < len(cycles); i++ {
		if cycles[i].GeneratedAt.After(cycles[i-1].GeneratedAt) {
			t.Errorf("cycles not newest-first: %v before %v", cycles[i-1].GeneratedAt, cycles[i].GeneratedAt)
		}
	}
}

func TestRecentCyclesFiltersUnderlying(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	res := sampleResult(time.Now().UTC())
	if err := s.SaveCycle(ctx, res); err != nil {
		t.Fatal(err)
	}

	cycles, err := s.RecentCycles(ctx, "BANKNIFTY", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycles) != 0 {
		t.Errorf("cycles for other underlying = %d, want 0", len(cycles))
	}
}
