// Package totals caches problem counts per difficulty tier and per (tag, tier)
// pair. Each entry pairs the site-wide total with the signed-in user's solved
// count, so both caches belong to the user and are cleared on a user switch.
package totals

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/jsoncheck"
	"github.com/abhisek/leetprob/internal/observability"
	"github.com/abhisek/leetprob/internal/problem"
	"github.com/abhisek/leetprob/internal/store"
)

// Counter counts problems matching a filter.
type Counter interface {
	CountProblems(ctx context.Context, filter problem.CountFilter) (int, error)
}

func totalsSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"total", "solved"},
		"properties": map[string]any{
			"total":  map[string]any{"type": "integer", "minimum": 0},
			"solved": map[string]any{"type": "integer", "minimum": 0},
		},
	}
}

func difficultyTotalsSchema() map[string]any {
	props := make(map[string]any, len(problem.Difficulties))
	required := make([]any, 0, len(problem.Difficulties))
	for _, d := range problem.Difficulties {
		props[string(d)] = totalsSchema()
		required = append(required, string(d))
	}
	return map[string]any{
		"type":       "object",
		"required":   required,
		"properties": props,
	}
}

// DifficultyIndex caches the per-tier totals.
type DifficultyIndex struct {
	kv      store.KV
	counter Counter
	logger  zerolog.Logger

	mu sync.Mutex
}

// NewDifficultyIndex returns an index over kv that refreshes through counter.
func NewDifficultyIndex(kv store.KV, counter Counter, logger zerolog.Logger) *DifficultyIndex {
	return &DifficultyIndex{
		kv:      kv,
		counter: counter,
		logger:  logger.With().Str("component", "totals").Logger(),
	}
}

// Get returns the cached totals when they are well-formed, refreshing them otherwise.
func (d *DifficultyIndex) Get(ctx context.Context) (problem.DifficultyTotals, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	vals, err := d.kv.Get(ctx, store.KeyDifficultyTotals)
	if err != nil {
		return nil, fmt.Errorf("load difficulty totals: %w", err)
	}

	if raw, ok := vals[store.KeyDifficultyTotals]; ok {
		var totals problem.DifficultyTotals
		err = jsoncheck.Validate("difficulty-totals", difficultyTotalsSchema(), raw)
		if err == nil {
			err = json.Unmarshal(raw, &totals)
		}
		if err == nil {
			return totals, nil
		}
		d.logger.Warn().Err(err).Msg("cached difficulty totals are stale; refreshing")
	}
	return d.refresh(ctx)
}

// Refresh re-fetches all six counts and overwrites the cache.
func (d *DifficultyIndex) Refresh(ctx context.Context) (problem.DifficultyTotals, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refresh(ctx)
}

// Clear drops the cached totals; the next Get refetches them.
func (d *DifficultyIndex) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.kv.Remove(ctx, store.KeyDifficultyTotals)
}

func (d *DifficultyIndex) refresh(ctx context.Context) (problem.DifficultyTotals, error) {
	totals := make(problem.DifficultyTotals, len(problem.Difficulties))
	for _, diff := range problem.Difficulties {
		total, err := d.counter.CountProblems(ctx, problem.CountFilter{Difficulty: diff})
		if err != nil {
			return nil, fmt.Errorf("count %s problems: %w", diff, err)
		}
		solved, err := d.counter.CountProblems(ctx, problem.CountFilter{Difficulty: diff, SolvedOnly: true})
		if err != nil {
			return nil, fmt.Errorf("count solved %s problems: %w", diff, err)
		}
		totals[diff] = problem.Totals{Total: total, Solved: solved}
	}

	if err := store.SetJSON(ctx, d.kv, store.KeyDifficultyTotals, totals); err != nil {
		return nil, fmt.Errorf("save difficulty totals: %w", err)
	}
	observability.CacheFills().WithLabelValues("difficulty_totals").Inc()
	d.logger.Info().Interface("totals", totals).Msg("difficulty totals refreshed")
	return totals, nil
}

// TagIndex caches per-tag totals restricted to a tier. Lookups never fail:
// anything that cannot be fetched is simply absent from the result.
type TagIndex struct {
	kv      store.KV
	counter Counter
	logger  zerolog.Logger

	mu sync.Mutex
}

// NewTagIndex returns a TagIndex over kv that fetches misses through counter.
func NewTagIndex(kv store.KV, counter Counter, logger zerolog.Logger) *TagIndex {
	return &TagIndex{
		kv:      kv,
		counter: counter,
		logger:  logger.With().Str("component", "totals").Logger(),
	}
}

// TagKey is the cache key for a (tag slug, tier) pair.
func TagKey(slug string, d problem.Difficulty) string {
	return slug + "|" + string(d)
}

// Lookup returns totals keyed by tag slug for every tag that is cached or
// could be fetched.
func (t *TagIndex) Lookup(ctx context.Context, tags []string, d problem.Difficulty) map[string]problem.Totals {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]problem.Totals, len(tags))
	cache := make(map[string]problem.Totals)
	if _, err := store.GetJSON(ctx, t.kv, store.KeyTagTotals, &cache); err != nil {
		t.logger.Warn().Err(err).Msg("tag totals cache unreadable; refetching")
		cache = make(map[string]problem.Totals)
	}
	if cache == nil {
		cache = make(map[string]problem.Totals)
	}

	dirty := false
	for _, slug := range tags {
		if slug == "" {
			continue
		}
		key := TagKey(slug, d)
		if tot, ok := cache[key]; ok {
			out[slug] = tot
			continue
		}
		tot, err := t.fetch(ctx, slug, d)
		if err != nil {
			t.logger.Warn().Err(err).Str("tag", slug).Str("difficulty", string(d)).Msg("tag totals unavailable")
			continue
		}
		cache[key] = tot
		out[slug] = tot
		dirty = true
	}

	if dirty {
		if err := store.SetJSON(ctx, t.kv, store.KeyTagTotals, cache); err != nil {
			t.logger.Warn().Err(err).Msg("failed to persist tag totals")
		} else {
			observability.CacheFills().WithLabelValues("tag_totals").Inc()
		}
	}
	return out
}

// Clear drops every cached tag total.
func (t *TagIndex) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.kv.Remove(ctx, store.KeyTagTotals)
}

func (t *TagIndex) fetch(ctx context.Context, slug string, d problem.Difficulty) (problem.Totals, error) {
	total, err := t.counter.CountProblems(ctx, problem.CountFilter{Difficulty: d, TagSlug: slug})
	if err != nil {
		return problem.Totals{}, err
	}
	if total == 0 {
		return problem.Totals{}, nil
	}
	solved, err := t.counter.CountProblems(ctx, problem.CountFilter{Difficulty: d, TagSlug: slug, SolvedOnly: true})
	if err != nil {
		return problem.Totals{}, err
	}
	return problem.Totals{Total: total, Solved: solved}, nil
}
