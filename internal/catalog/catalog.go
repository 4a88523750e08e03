// Package catalog caches problem metadata keyed by title slug. Metadata never
// changes on the site, so entries are kept until the user changes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/leetprob/internal/observability"
	"github.com/abhisek/leetprob/internal/problem"
	"github.com/abhisek/leetprob/internal/store"
)

// ErrNotFound is returned by Get for ids absent from the cache.
var ErrNotFound = errors.New("problem not in catalog")

// Source fetches the metadata of one problem.
type Source interface {
	Problem(ctx context.Context, slug string) (problem.Metadata, error)
}

// Config tunes batch fills.
type Config struct {
	// Concurrency bounds in-flight fetches during FetchAndCache.
	Concurrency int
	// FetchDelay is slept before each fetch to stay polite to the site.
	FetchDelay time.Duration
}

// DefaultConfig returns the defaults: four workers, 100ms between fetches.
func DefaultConfig() Config {
	return Config{Concurrency: 4, FetchDelay: 100 * time.Millisecond}
}

// Catalog is the persistent id → Metadata cache.
type Catalog struct {
	kv     store.KV
	source Source
	cfg    Config
	logger zerolog.Logger

	// mu serializes read-modify-write cycles on the cache key.
	mu sync.Mutex
}

// New returns a Catalog backed by kv, filling misses from source.
func New(kv store.KV, source Source, cfg Config, logger zerolog.Logger) *Catalog {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Catalog{
		kv:     kv,
		source: source,
		cfg:    cfg,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Get returns the cached metadata for id without touching the network.
func (c *Catalog) Get(ctx context.Context, id string) (problem.Metadata, error) {
	cache, err := c.load(ctx)
	if err != nil {
		return problem.Metadata{}, err
	}
	meta, ok := cache[id]
	if !ok {
		return problem.Metadata{}, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return meta, nil
}

// Lookup returns the metadata for id, fetching and persisting it on a miss.
// Fetch errors are returned as-is.
func (c *Catalog) Lookup(ctx context.Context, id string) (problem.Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cache, err := c.load(ctx)
	if err != nil {
		return problem.Metadata{}, err
	}
	if meta, ok := cache[id]; ok {
		return meta, nil
	}

	meta, err := c.source.Problem(ctx, id)
	if err != nil {
		return problem.Metadata{}, err
	}
	cache[id] = meta
	if err := c.save(ctx, cache); err != nil {
		return problem.Metadata{}, err
	}
	observability.CacheFills().WithLabelValues("catalog").Inc()
	return meta, nil
}

// FetchAndCache fetches every id not yet cached, persists the new entries in
// one write and returns the full cache. Ids that fail to fetch are logged and
// left out; they are retried on the next call.
func (c *Catalog) FetchAndCache(ctx context.Context, ids []string) (map[string]problem.Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cache, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	missing := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := cache[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return cache, nil
	}

	c.logger.Info().Int("count", len(missing)).Msg("fetching problem details")

	var (
		resMu   sync.Mutex
		fetched = make(map[string]problem.Metadata, len(missing))
		failed  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for _, id := range missing {
		g.Go(func() error {
			if err := sleepCtx(gctx, c.cfg.FetchDelay); err != nil {
				return err
			}
			meta, err := c.source.Problem(gctx, id)
			resMu.Lock()
			defer resMu.Unlock()
			if err != nil {
				// Cancellation aborts the batch; anything else only drops this id.
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed++
				c.logger.Warn().Err(err).Str("slug", id).Msg("failed to fetch problem details")
				return nil
			}
			fetched[id] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(fetched) > 0 {
		for id, meta := range fetched {
			cache[id] = meta
		}
		if err := c.save(ctx, cache); err != nil {
			return nil, err
		}
		observability.CacheFills().WithLabelValues("catalog").Add(float64(len(fetched)))
	}

	c.logger.Info().
		Int("fetched", len(fetched)).
		Int("failed", failed).
		Int("cached", len(cache)).
		Msg("problem details cached")
	return cache, nil
}

// Clear drops every cached entry.
func (c *Catalog) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Remove(ctx, store.KeyProblemCache)
}

// Len returns the number of cached problems.
func (c *Catalog) Len(ctx context.Context) (int, error) {
	cache, err := c.load(ctx)
	return len(cache), err
}

func (c *Catalog) load(ctx context.Context) (map[string]problem.Metadata, error) {
	cache := make(map[string]problem.Metadata)
	if _, err := store.GetJSON(ctx, c.kv, store.KeyProblemCache, &cache); err != nil {
		return nil, fmt.Errorf("load problem cache: %w", err)
	}
	if cache == nil {
		cache = make(map[string]problem.Metadata)
	}
	return cache, nil
}

func (c *Catalog) save(ctx context.Context, cache map[string]problem.Metadata) error {
	if err := store.SetJSON(ctx, c.kv, store.KeyProblemCache, cache); err != nil {
		return fmt.Errorf("save problem cache: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
