package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/leetprob/internal/catalog"
	"github.com/abhisek/leetprob/internal/config"
	"github.com/abhisek/leetprob/internal/leetcode"
	"github.com/abhisek/leetprob/internal/llm"
	"github.com/abhisek/leetprob/internal/logging"
	"github.com/abhisek/leetprob/internal/predict"
	"github.com/abhisek/leetprob/internal/scoring"
	"github.com/abhisek/leetprob/internal/session"
	"github.com/abhisek/leetprob/internal/store"
	"github.com/abhisek/leetprob/internal/submissions"
	"github.com/abhisek/leetprob/internal/suggest"
	"github.com/abhisek/leetprob/internal/totals"
)

// deps is everything a command may need, built from the configuration.
type deps struct {
	cfg    config.Config
	logger zerolog.Logger

	kv        store.KV
	events    store.EventRepo
	client    *leetcode.Client
	sessions  *session.Manager
	catalog   *catalog.Catalog
	subs      *submissions.Store
	diffIndex *totals.DifficultyIndex
	tagIndex  *totals.TagIndex
	predictor *predict.Predictor

	closers []func() error
}

// openDeps builds the dependency graph. sink may be nil.
func openDeps(cmd *cobra.Command, sink predict.Sink) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	d := &deps{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr),
	}
	if err := d.openStore(ctx, cmd); err != nil {
		return nil, err
	}

	d.client = leetcode.NewClient(cfg.LeetCode, nil, d.logger)
	d.catalog = catalog.New(d.kv, d.client, cfg.Catalog, d.logger)
	d.subs = submissions.New(d.kv, d.client, cfg.Submissions, d.logger)
	d.sessions = session.NewManager(d.kv, d.logger, d.subs, d.catalog)
	d.diffIndex = totals.NewDifficultyIndex(d.kv, d.client, d.logger)
	d.tagIndex = totals.NewTagIndex(d.kv, d.client, d.logger)

	engine, err := scoring.NewEngine(cfg.Scoring)
	if err != nil {
		d.Close()
		return nil, err
	}

	d.predictor = predict.New(predict.Deps{
		Identity:    d.client,
		Sessions:    d.sessions,
		Catalog:     d.catalog,
		Submissions: d.subs,
		Difficulty:  d.diffIndex,
		Tags:        d.tagIndex,
		Suggester:   d.suggester(ctx),
		Engine:      engine,
		Sink:        sink,
		Logger:      d.logger,
	})
	return d, nil
}

func (d *deps) openStore(ctx context.Context, cmd *cobra.Command) error {
	switch d.cfg.StoreBackend {
	case config.BackendMemory:
		d.kv = store.NewMemory()
	case config.BackendRedis:
		client, err := store.ConnectRedis(ctx, d.cfg.RedisURL)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, client.Close)
		d.kv = store.NewRedis(client, "leetprob")
	default:
		dbPath, err := resolveDBPath(cmd, d.cfg)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		d.closers = append(d.closers, st.Close)
		d.kv = st
		d.events = st.EventRepo()
	}
	return nil
}

// suggester returns the AI suggester, or a no-op when AI is disabled or the
// provider cannot be built.
func (d *deps) suggester(ctx context.Context) suggest.Suggester {
	if !d.cfg.AI.Enabled {
		return suggest.Noop{}
	}
	provider, err := llm.NewProvider(ctx, d.cfg.LLM, d.events, d.logger)
	if err != nil {
		d.logger.Warn().Err(err).Msg("LLM provider not configured; tag suggestions unavailable")
		return suggest.Noop{}
	}
	return suggest.New(provider, d.cfg.AI.Suggest, d.logger)
}

// Close releases the store connections.
func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}
