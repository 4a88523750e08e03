// Package submissions caches the signed-in user's full submission history.
package submissions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/problem"
	"github.com/abhisek/leetprob/internal/store"
)

// Source returns one page of submission history.
type Source interface {
	SubmissionPage(ctx context.Context, offset, limit int) (problem.SubmissionPage, error)
}

// Config controls pagination.
type Config struct {
	PageSize  int
	PageDelay time.Duration
}

// DefaultConfig returns pages of 20 with 200ms between requests.
func DefaultConfig() Config {
	return Config{PageSize: 20, PageDelay: 200 * time.Millisecond}
}

// Store is the persistent submission cache.
type Store struct {
	kv     store.KV
	source Source
	cfg    Config
	logger zerolog.Logger

	// mu serializes fetch-and-save so concurrent callers share one pagination.
	mu sync.Mutex
}

// New returns a Store backed by kv that paginates through source on refresh.
func New(kv store.KV, source Source, cfg Config, logger zerolog.Logger) *Store {
	if cfg.PageSize < 1 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	return &Store{
		kv:     kv,
		source: source,
		cfg:    cfg,
		logger: logger.With().Str("component", "submissions").Logger(),
	}
}

// GetAll returns the cached history when it is non-empty and forceRefresh is
// false. Otherwise it fetches every page, persists the result once and
// returns it in request order.
func (s *Store) GetAll(ctx context.Context, forceRefresh bool) ([]problem.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !forceRefresh {
		cached, err := s.Cached(ctx)
		if err != nil {
			return nil, err
		}
		if len(cached) > 0 {
			s.logger.Debug().Int("count", len(cached)).Msg("using cached submissions")
			return cached, nil
		}
	}

	all, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.SetJSON(ctx, s.kv, store.KeySubmissions, all); err != nil {
		return nil, fmt.Errorf("save submissions: %w", err)
	}
	s.logger.Info().Int("count", len(all)).Msg("submission history cached")
	return all, nil
}

// Cached returns the persisted history without fetching.
func (s *Store) Cached(ctx context.Context) ([]problem.Submission, error) {
	var subs []problem.Submission
	if _, err := store.GetJSON(ctx, s.kv, store.KeySubmissions, &subs); err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	return subs, nil
}

// Clear drops the cached history.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Remove(ctx, store.KeySubmissions)
}

func (s *Store) fetchAll(ctx context.Context) ([]problem.Submission, error) {
	var all []problem.Submission
	for offset := 0; ; offset += s.cfg.PageSize {
		if offset > 0 {
			if err := sleepCtx(ctx, s.cfg.PageDelay); err != nil {
				return nil, err
			}
		}

		page, err := s.source.SubmissionPage(ctx, offset, s.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch submissions at offset %d: %w", offset, err)
		}
		all = append(all, page.Submissions...)
		s.logger.Debug().
			Int("offset", offset).
			Int("rows", len(page.Submissions)).
			Bool("has_more", page.HasMore).
			Msg("fetched submission page")

		if !page.HasMore {
			break
		}
		if len(page.Submissions) == 0 {
			s.logger.Warn().Int("offset", offset).Msg("empty page reported more data; stopping")
			break
		}
	}
	if all == nil {
		all = []problem.Submission{}
	}
	return all, nil
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
