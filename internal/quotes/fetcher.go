// Package quotes retrieves last-traded prices for chain windows in
// API-limit-sized batches.
package quotes

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "angel-options/internal/errors"
	"angel-options/internal/models"
)

// DefaultChunkSize is the broker's per-call token limit.
const DefaultChunkSize = 20

// priceScaleThreshold catches quotes that arrive in paise instead of rupees:
// no option premium legitimately trades above it. The divide-by-100
// correction is an empirical upstream unit fix, kept as a threshold heuristic.
const priceScaleThreshold = 50000

// Provider issues one market quote call for one segment's tokens.
type Provider interface {
	MarketQuotes(ctx context.Context, mode models.QuoteMode, segment models.Segment, tokens []string) ([]models.QuoteEntry, error)
}

// Config holds fetcher configuration.
type Config struct {
	ChunkSize int
	// ChunkDelay is the pause between sequential chunk calls, a small fixed
	// rate-limit courtesy. Ignored when Parallel is set.
	ChunkDelay time.Duration
	// Parallel issues chunk calls concurrently. All chunks still complete
	// (or individually fail) before FetchBatch returns.
	Parallel bool
	Logger   zerolog.Logger
}

// Fetcher retrieves quotes in batches and merges them into one token->price
// map per cycle.
type Fetcher struct {
	provider Provider
	cfg      Config
}

// NewFetcher creates a fetcher over the given provider.
func NewFetcher(provider Provider, cfg Config) *Fetcher {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Fetcher{provider: provider, cfg: cfg}
}

// FetchBatch splits tokens into chunks, issues one FULL-mode call per chunk
// and merges the results. It returns the resolved price per token plus the
// number of chunks that failed.
//
// A chunk failure is swallowed for that chunk only; partial results from the
// other chunks are still returned. This is an explicit best-effort policy,
// not an accidental loss of the whole fetch.
func (f *Fetcher) FetchBatch(ctx context.Context, tokens []string, segment models.Segment) (map[string]float64, int) {
	chunks := chunk(tokens, f.cfg.ChunkSize)
	results := make(map[string]float64, len(tokens))
	failed := 0

	if f.cfg.Parallel {
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, ch := range chunks {
			wg.Add(1)
			go func(ch []string) {
				defer wg.Done()
				prices, err := f.fetchChunk(ctx, ch, segment)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					return
				}
				for tok, p := range prices {
					results[tok] = p
				}
			}(ch)
		}
		wg.Wait()
		f.logDegraded(failed, len(chunks))
		return results, failed
	}

	for i, ch := range chunks {
		if i > 0 && f.cfg.ChunkDelay > 0 {
			select {
			case <-time.After(f.cfg.ChunkDelay):
			case <-ctx.Done():
				failed += len(chunks) - i
				f.logDegraded(failed, len(chunks))
				return results, failed
			}
		}
		prices, err := f.fetchChunk(ctx, ch, segment)
		if err != nil {
			failed++
			continue
		}
		for tok, p := range prices {
			results[tok] = p
		}
	}
	f.logDegraded(failed, len(chunks))
	return results, failed
}

func (f *Fetcher) logDegraded(failed, total int) {
	if failed == 0 {
		return
	}
	f.cfg.Logger.Warn().
		Err(apperrors.NewPartialQuoteError(failed, total)).
		Msg("Quote fetch degraded")
}

func (f *Fetcher) fetchChunk(ctx context.Context, tokens []string, segment models.Segment) (map[string]float64, error) {
	entries, err := f.provider.MarketQuotes(ctx, models.QuoteModeFull, segment, tokens)
	if err != nil {
		f.cfg.Logger.Warn().Err(err).
			Str("segment", string(segment)).
			Int("tokens", len(tokens)).
			Msg("Quote chunk failed")
		return nil, err
	}

	prices := make(map[string]float64, len(entries))
	for _, e := range entries {
		if e.Token == "" {
			continue
		}
		prices[e.Token] = ResolvePrice(e)
	}
	return prices, nil
}

// ResolvePrice picks the usable price from a quote entry: last-traded price,
// falling back to previous close when LTP is zero, scaled down when the value
// is implausibly large.
func ResolvePrice(e models.QuoteEntry) float64 {
	price := e.LTP
	if price == 0 {
		price = e.Close
	}
	if price > priceScaleThreshold {
		price /= 100.0
	}
	return price
}

// chunk splits tokens into fixed-size slices, the last one possibly short.
func chunk(tokens []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		out = append(out, tokens[start:end])
	}
	return out
}
