package master

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "angel-options/internal/errors"
)

// Cache is the disk-backed holder of the current instrument snapshot.
//
// Load and Refresh are mutually exclusive around the snapshot slot, so a
// cycle never observes a torn replacement. The cache is refreshed at most
// once per session unless explicitly invalidated.
type Cache struct {
	path   string
	logger zerolog.Logger

	mu   sync.Mutex
	snap *Snapshot
}

// NewCache creates a cache persisting to path.
func NewCache(path string, logger zerolog.Logger) *Cache {
	return &Cache{path: path, logger: logger}
}

// Snapshot returns the snapshot currently held in memory, or nil before the
// first successful Load/Refresh.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Invalidate drops the in-memory snapshot so the next Ensure refreshes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
}

// Load reads the persisted snapshot. It succeeds only while the snapshot's
// age is strictly under maxAge; otherwise it reports ErrCacheMiss and the
// caller must refresh. A cache miss is expected, not exceptional.
func (c *Cache) Load(maxAge time.Duration) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(maxAge)
}

func (c *Cache) loadLocked(maxAge time.Duration) (*Snapshot, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, apperrors.NewParseError(c.path, err)
	}

	// Older cache files carry no timestamp; fall back to file mtime.
	if snap.LoadedAt.IsZero() {
		if info, err := os.Stat(c.path); err == nil {
			snap.LoadedAt = info.ModTime()
		}
	}

	if snap.Age() >= maxAge {
		return nil, apperrors.ErrCacheMiss
	}

	c.snap = &snap
	c.logger.Debug().
		Int("instruments", len(snap.Instruments)).
		Time("loaded_at", snap.LoadedAt).
		Msg("Using cached scrip master")
	return &snap, nil
}

// Refresh downloads the full master through src, filters and normalizes it,
// and atomically replaces the persisted snapshot. The prior valid snapshot
// is never corrupted by a partial write: the new file lands under a
// temporary name and is renamed into place.
func (c *Cache) Refresh(ctx context.Context, src Source, allowedUnderlyings []string) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx, src, allowedUnderlyings)
}

func (c *Cache) refreshLocked(ctx context.Context, src Source, allowedUnderlyings []string) (*Snapshot, error) {
	records, err := src.FetchScripMaster(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		LoadedAt:    time.Now(),
		Instruments: Normalize(records, allowedUnderlyings),
	}

	if err := c.persistLocked(snap); err != nil {
		// The download succeeded; a persistence failure degrades to an
		// in-memory snapshot rather than losing the refresh.
		c.logger.Warn().Err(err).Msg("Failed to persist scrip master snapshot")
	}

	c.snap = snap
	c.logger.Info().
		Int("raw", len(records)).
		Int("instruments", len(snap.Instruments)).
		Msg("Scrip master refreshed")
	return snap, nil
}

// Ensure returns a usable snapshot: the in-memory one, else a fresh-enough
// persisted one, else a full refresh.
func (c *Cache) Ensure(ctx context.Context, src Source, allowedUnderlyings []string, maxAge time.Duration) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil {
		return c.snap, nil
	}
	if snap, err := c.loadLocked(maxAge); err == nil {
		return snap, nil
	}
	return c.refreshLocked(ctx, src, allowedUnderlyings)
}

func (c *Cache) persistLocked(snap *Snapshot) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".master-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
