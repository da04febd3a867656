// Package scheduler runs the refresh cycle that ties spot lookup, chain
// selection, quote fetching and pricing together on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"angel-options/internal/chain"
	apperrors "angel-options/internal/errors"
	"angel-options/internal/master"
	"angel-options/internal/models"
	"angel-options/internal/pricing"
	"angel-options/internal/quotes"
)

// DefaultInterval is the polling period between refresh cycles.
const DefaultInterval = 15 * time.Second

// State is the scheduler's lifecycle state.
type State string

const (
	StateIdle    State = "IDLE"
	StatePolling State = "POLLING"
)

// SpotProvider resolves the underlying's current traded price.
type SpotProvider interface {
	SpotPrice(ctx context.Context, symbol string) (float64, error)
}

// Sink receives each completed cycle's result, e.g. for journaling.
type Sink interface {
	SaveCycle(ctx context.Context, res *models.ChainResult) error
}

// Params are the inputs to one refresh cycle. The caller owns them and they
// are read once per cycle, so edits take effect at the next cycle boundary.
type Params struct {
	Underlying string
	Expiry     string
	// ManualSpot overrides the spot lookup when non-zero.
	ManualSpot float64
	Settings   models.Settings
}

// Config holds scheduler configuration.
type Config struct {
	Interval time.Duration
	// Params supplies the current cycle inputs; called once per cycle.
	Params func() Params
	// OnResult receives each completed cycle. Called from the polling
	// goroutine; keep it fast.
	OnResult func(*models.ChainResult)
	// OnError receives failed cycles. A failed cycle is not fatal: the next
	// scheduled cycle retries independently.
	OnError func(error)
	Sink    Sink
	Logger  zerolog.Logger
}

// Scheduler repeats refresh cycles while in the Polling state.
//
// Only one cycle ever runs at a time: scheduled ticks, manual triggers and
// Stop all serialize on the polling goroutine, and cancellation takes effect
// between cycles only — a cycle in flight always completes or fails fully.
type Scheduler struct {
	spot    SpotProvider
	cache   *master.Cache
	fetcher *quotes.Fetcher
	cfg     Config

	mu    sync.Mutex
	state State
	stop  chan struct{}
	done  chan struct{}
	// kick carries coalesced manual refresh requests: buffered at one so a
	// burst of triggers becomes a single extra cycle, never a parallel one.
	kick chan struct{}
}

// New creates a scheduler in the Idle state.
func New(spot SpotProvider, cache *master.Cache, fetcher *quotes.Fetcher, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Scheduler{
		spot:    spot,
		cache:   cache,
		fetcher: fetcher,
		cfg:     cfg,
		state:   StateIdle,
		kick:    make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start transitions Idle -> Polling and begins repeating cycles. Starting an
// already-polling scheduler is an error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePolling {
		return apperrors.ErrAlreadyPolling
	}
	s.state = StatePolling
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
	s.cfg.Logger.Info().Dur("interval", s.cfg.Interval).Msg("Polling started")
	return nil
}

// Stop transitions Polling -> Idle. It is idempotent and returns once the
// in-flight cycle, if any, has completed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StatePolling {
		s.mu.Unlock()
		return
	}
	s.state = StateIdle
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	s.cfg.Logger.Info().Msg("Polling stopped")
}

// TriggerRefresh requests an extra cycle at the next boundary. Triggers
// arriving while a cycle is in flight coalesce into one.
func (s *Scheduler) TriggerRefresh() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.runOnce()
	for {
		// Stop wins over a pending tick or trigger.
		select {
		case <-stop:
			return
		default:
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.runOnce()
		case <-s.kick:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	p := s.cfg.Params()
	res, err := s.RunCycle(context.Background(), p)
	if err != nil {
		s.cfg.Logger.Warn().Err(err).Str("underlying", p.Underlying).Msg("Refresh cycle failed")
		if s.cfg.OnError != nil {
			s.cfg.OnError(err)
		}
		return
	}
	if s.cfg.Sink != nil {
		if err := s.cfg.Sink.SaveCycle(context.Background(), res); err != nil {
			s.cfg.Logger.Warn().Err(err).Msg("Failed to journal cycle")
		}
	}
	if s.cfg.OnResult != nil {
		s.cfg.OnResult(res)
	}
}

// RunCycle executes one refresh cycle: spot lookup, chain selection, batched
// quote fetch per segment, then pricing. Manual refreshes and scheduled polls
// share this function and never run it concurrently.
func (s *Scheduler) RunCycle(ctx context.Context, p Params) (*models.ChainResult, error) {
	if p.Expiry == "" {
		return nil, apperrors.ErrNoExpiry
	}

	spot := p.ManualSpot
	if spot == 0 {
		var err error
		spot, err = s.spot.SpotPrice(ctx, p.Underlying)
		if err != nil {
			return nil, fmt.Errorf("resolving spot for %s: %w", p.Underlying, err)
		}
	}
	if spot == 0 {
		return nil, fmt.Errorf("%s: %w", p.Underlying, apperrors.ErrNoSpot)
	}

	snap := s.cache.Snapshot()
	if snap == nil {
		return nil, apperrors.ErrCacheMiss
	}

	window := chain.SelectWindow(snap.Instruments, p.Underlying, p.Expiry, spot, p.Settings.StrikeRadius)

	prices := make(map[string]float64)
	failed := 0
	for segment, tokens := range window.TokensBySegment() {
		segPrices, segFailed := s.fetcher.FetchBatch(ctx, tokens, segment)
		failed += segFailed
		for tok, price := range segPrices {
			prices[tok] = price
		}
	}

	res := s.priceWindow(window, prices, p.Settings)
	res.FailedChunks = failed

	s.cfg.Logger.Debug().
		Str("underlying", p.Underlying).
		Str("expiry", p.Expiry).
		Float64("spot", spot).
		Int("strikes", len(res.Strikes)).
		Int("flagged", len(res.Flagged)).
		Int("failed_chunks", failed).
		Msg("Refresh cycle completed")
	return res, nil
}

// priceWindow joins quotes against window rows and computes fair value,
// delta and implied volatility for each leg.
func (s *Scheduler) priceWindow(window models.ChainWindow, prices map[string]float64, settings models.Settings) *models.ChainResult {
	now := time.Now()
	tte := chain.TimeToExpiry(window.Expiry, now)

	res := &models.ChainResult{
		Underlying:  window.Underlying,
		Expiry:      window.Expiry,
		Spot:        window.Spot,
		GeneratedAt: now,
	}

	for _, row := range window.Rows {
		priced := models.PricedStrike{Strike: row.Strike}

		if row.Call != nil {
			priced.Call = s.priceLeg(row.Call, models.OptionCall, window.Spot, row.Strike, tte, prices, settings)
		}
		if row.Put != nil {
			priced.Put = s.priceLeg(row.Put, models.OptionPut, window.Spot, row.Strike, tte, prices, settings)
		}

		priced.Discounted = legDiscounted(priced.Call, settings.DiscountAlertThreshold) ||
			legDiscounted(priced.Put, settings.DiscountAlertThreshold)
		if priced.Discounted {
			res.Flagged = append(res.Flagged, row.Strike)
		}
		res.Strikes = append(res.Strikes, priced)
	}
	return res
}

func (s *Scheduler) priceLeg(inst *models.Instrument, typ models.OptionType, spot, strike, tte float64, prices map[string]float64, settings models.Settings) *models.PricedLeg {
	leg := &models.PricedLeg{
		Token: inst.Token,
		LTP:   prices[inst.Token],
		Fair:  pricing.Price(spot, strike, tte, settings.RiskFreeRate, settings.ModelVolatility, typ),
		Delta: pricing.Delta(spot, strike, tte, settings.RiskFreeRate, settings.ModelVolatility, typ),
	}
	if leg.LTP > 0 {
		iv, converged := pricing.ImpliedVolatilityN(leg.LTP, spot, strike, tte, settings.RiskFreeRate, typ, settings.IVIterations)
		leg.IV = iv
		if !converged {
			s.cfg.Logger.Debug().
				Str("token", inst.Token).
				Err(&apperrors.ConvergenceWarning{Iterations: settings.IVIterations, Estimate: iv}).
				Msg("IV solver hit iteration cap")
		}
	}
	return leg
}

// legDiscounted reports whether the leg's theoretical value exceeds its live
// price by more than the alert threshold. Quoteless legs never flag.
func legDiscounted(leg *models.PricedLeg, threshold float64) bool {
	return leg != nil && leg.LTP > 0 && leg.Fair-leg.LTP > threshold
}
