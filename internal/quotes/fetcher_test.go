package quotes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"angel-options/internal/models"
)

// fakeProvider echoes a quote per requested token, failing the chunks whose
// index is listed in failChunks.
type fakeProvider struct {
	mu         sync.Mutex
	calls      [][]string
	failChunks map[int]bool
	entry      func(token string) models.QuoteEntry
}

func (p *fakeProvider) MarketQuotes(ctx context.Context, mode models.QuoteMode, segment models.Segment, tokens []string) ([]models.QuoteEntry, error) {
	p.mu.Lock()
	idx := len(p.calls)
	p.calls = append(p.calls, tokens)
	p.mu.Unlock()

	if p.failChunks[idx] {
		return nil, errors.New("gateway timeout")
	}
	entries := make([]models.QuoteEntry, len(tokens))
	for i, tok := range tokens {
		if p.entry != nil {
			entries[i] = p.entry(tok)
		} else {
			entries[i] = models.QuoteEntry{Token: tok, LTP: 100}
		}
	}
	return entries, nil
}

func tokenRange(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("tok%02d", i)
	}
	return out
}

func TestFetchBatchChunking(t *testing.T) {
	provider := &fakeProvider{}
	f := NewFetcher(provider, Config{ChunkSize: 10, Logger: zerolog.Nop()})

	prices, failed := f.FetchBatch(context.Background(), tokenRange(25), models.SegmentNFO)

	if len(provider.calls) != 3 {
		t.Fatalf("chunk calls = %d, want 3", len(provider.calls))
	}
	if got := []int{len(provider.calls[0]), len(provider.calls[1]), len(provider.calls[2])}; got[0] != 10 || got[1] != 10 || got[2] != 5 {
		t.Errorf("chunk sizes = %v, want [10 10 5]", got)
	}
	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	if len(prices) != 25 {
		t.Errorf("merged %d prices, want 25", len(prices))
	}
}

func TestFetchBatchPartialFailure(t *testing.T) {
	provider := &fakeProvider{failChunks: map[int]bool{1: true}}
	f := NewFetcher(provider, Config{ChunkSize: 10, Logger: zerolog.Nop()})

	prices, failed := f.FetchBatch(context.Background(), tokenRange(25), models.SegmentNFO)

	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	// Every token from the successful chunks is present.
	if len(prices) != 15 {
		t.Errorf("merged %d prices, want 15", len(prices))
	}
	if _, ok := prices["tok00"]; !ok {
		t.Error("chunk 0 results missing")
	}
	if _, ok := prices["tok24"]; !ok {
		t.Error("chunk 2 results missing")
	}
	if _, ok := prices["tok10"]; ok {
		t.Error("failed chunk's tokens should be absent")
	}
}

func TestFetchBatchParallelMerge(t *testing.T) {
	provider := &fakeProvider{failChunks: map[int]bool{0: true}}
	f := NewFetcher(provider, Config{ChunkSize: 5, Parallel: true, Logger: zerolog.Nop()})

	prices, failed := f.FetchBatch(context.Background(), tokenRange(20), models.SegmentNFO)

	if len(provider.calls) != 4 {
		t.Fatalf("chunk calls = %d, want 4", len(provider.calls))
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if len(prices) != 15 {
		t.Errorf("merged %d prices, want 15", len(prices))
	}
}

func TestFetchBatchEmptyTokens(t *testing.T) {
	provider := &fakeProvider{}
	f := NewFetcher(provider, Config{Logger: zerolog.Nop()})

	prices, failed := f.FetchBatch(context.Background(), nil, models.SegmentNFO)
	if len(prices) != 0 || failed != 0 || len(provider.calls) != 0 {
		t.Errorf("expected no calls for empty token list")
	}
}

func TestResolvePrice(t *testing.T) {
	tests := []struct {
		name  string
		entry models.QuoteEntry
		want  float64
	}{
		{"ltp preferred", models.QuoteEntry{LTP: 120.5, Close: 118}, 120.5},
		{"close fallback on zero ltp", models.QuoteEntry{LTP: 0, Close: 118}, 118},
		{"paise scaled down", models.QuoteEntry{LTP: 1205000, Close: 0}, 12050},
		{"threshold not inclusive", models.QuoteEntry{LTP: 50000, Close: 0}, 50000},
		{"both zero", models.QuoteEntry{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePrice(tt.entry); got != tt.want {
				t.Errorf("ResolvePrice(%+v) = %v, want %v", tt.entry, got, tt.want)
			}
		})
	}
}
