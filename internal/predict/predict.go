// Package predict runs a full calculation: it reconciles the session,
// gathers history and metadata, aggregates and scores, then renders the
// result.
package predict

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/leetprob/internal/catalog"
	"github.com/abhisek/leetprob/internal/leetcode"
	"github.com/abhisek/leetprob/internal/observability"
	"github.com/abhisek/leetprob/internal/problem"
	"github.com/abhisek/leetprob/internal/scoring"
	"github.com/abhisek/leetprob/internal/session"
	"github.com/abhisek/leetprob/internal/stats"
	"github.com/abhisek/leetprob/internal/suggest"
)

// IdentitySource reports who is signed in.
type IdentitySource interface {
	Identity(ctx context.Context) (problem.Identity, error)
}

// Sessions reconciles the stored identity with the current one.
type Sessions interface {
	Reconcile(ctx context.Context, current string) ([]session.Action, error)
}

// Catalog resolves problem metadata.
type Catalog interface {
	Lookup(ctx context.Context, id string) (problem.Metadata, error)
	FetchAndCache(ctx context.Context, ids []string) (map[string]problem.Metadata, error)
}

// Submissions returns the user's history.
type Submissions interface {
	GetAll(ctx context.Context, forceRefresh bool) ([]problem.Submission, error)
}

// DifficultyTotals provides per-tier totals. The solved half belongs to the
// signed-in user.
type DifficultyTotals interface {
	Get(ctx context.Context) (problem.DifficultyTotals, error)
	Refresh(ctx context.Context) (problem.DifficultyTotals, error)
	Clear(ctx context.Context) error
}

// TagTotals provides per-tag totals, user-scoped like DifficultyTotals.
// Lookup never fails.
type TagTotals interface {
	Lookup(ctx context.Context, tags []string, d problem.Difficulty) map[string]problem.Totals
	Clear(ctx context.Context) error
}

// Deps wires a Predictor. Tags, Suggester and Sink are optional.
type Deps struct {
	Identity    IdentitySource
	Sessions    Sessions
	Catalog     Catalog
	Submissions Submissions
	Difficulty  DifficultyTotals
	Tags        TagTotals
	Suggester   suggest.Suggester
	Engine      *scoring.Engine
	Sink        Sink
	Logger      zerolog.Logger
}

// Options controls one calculation.
type Options struct {
	// ForceRefresh refetches the submission history.
	ForceRefresh bool
	// SkipSuggestions scores without AI tag combinations.
	SkipSuggestions bool
}

// Prediction is a successful calculation.
type Prediction struct {
	RunID      string           `json:"runId"`
	User       string           `json:"user"`
	Problem    problem.Metadata `json:"problem"`
	Percent    string           `json:"probability"`
	Result     *scoring.Result  `json:"breakdown"`
	Overall    stats.Summary    `json:"overall"`
	Dropped    int              `json:"dropped"`
	ComputedAt time.Time        `json:"computedAt"`
}

// Predictor runs calculations.
type Predictor struct {
	deps   Deps
	logger zerolog.Logger
}

// New returns a Predictor over deps.
func New(deps Deps) *Predictor {
	if deps.Suggester == nil {
		deps.Suggester = suggest.Noop{}
	}
	return &Predictor{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "predict").Logger(),
	}
}

// ProblemSlug extracts the problem slug from a slug or problem URL.
func ProblemSlug(input string) string {
	return leetcode.SlugFromURL(input)
}

// Calculate computes the probability of solving the problem identified by
// slug. It returns *InsufficientDataError when there is nothing to score and
// wrapped transport errors otherwise.
func (p *Predictor) Calculate(ctx context.Context, slug string, opts Options) (pred *Prediction, err error) {
	runID := uuid.NewString()
	logger := p.logger.With().Str("run_id", runID).Str("slug", slug).Logger()

	ctx, span := observability.Tracer().Start(ctx, "predict.Calculate",
		trace.WithAttributes(
			attribute.String("leetprob.run_id", runID),
			attribute.String("leetprob.slug", slug),
		))
	start := time.Now()
	defer func() {
		outcome := "success"
		switch {
		case errors.Is(err, ErrInsufficientData):
			outcome = "insufficient_data"
			span.SetAttributes(attribute.String("leetprob.outcome", outcome))
		case err != nil:
			outcome = "error"
			observability.RecordError(span, err)
		default:
			observability.PredictionProbability().Observe(pred.Result.Probability)
			span.SetAttributes(attribute.Float64("leetprob.probability", pred.Result.Probability))
		}
		observability.Predictions().WithLabelValues(outcome).Inc()
		observability.PredictionLatency().Observe(time.Since(start).Seconds())
		span.End()
	}()

	if slug == "" {
		return nil, insufficient(ReasonNoProblem, "")
	}

	user, err := p.reconcile(ctx)
	if err != nil {
		return nil, err
	}
	if user == "" {
		logger.Info().Msg("not signed in; skipping calculation")
		return nil, insufficient(ReasonNotAuthenticated, slug)
	}

	target, err := p.deps.Catalog.Lookup(ctx, slug)
	if errors.Is(err, leetcode.ErrNotFound) || errors.Is(err, catalog.ErrNotFound) {
		return nil, insufficient(ReasonUnknownProblem, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch problem %s: %w", slug, err)
	}

	result, err := p.aggregate(ctx, slug, opts.ForceRefresh)
	if err != nil {
		return nil, err
	}
	if result.Empty() {
		return nil, insufficient(ReasonNoResolvable, slug)
	}
	if result.Dropped > 0 {
		logger.Debug().Int("dropped", result.Dropped).Msg("submissions without problem details skipped")
	}

	diffTotals, err := p.deps.Difficulty.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("difficulty totals: %w", err)
	}

	in := scoring.Input{
		Target:           target,
		Stats:            result,
		DifficultyTotals: diffTotals,
	}
	if p.deps.Tags != nil && len(target.Tags) > 0 {
		slugs := make([]string, len(target.Tags))
		for i, t := range target.Tags {
			slugs[i] = t.Slug
		}
		in.TagTotals = p.deps.Tags.Lookup(ctx, slugs, target.Difficulty)
	}
	if !opts.SkipSuggestions {
		names := p.deps.Suggester.Suggest(ctx, target.Title, target.TagNames())
		in.Combinations = suggest.Resolve(names, target.Tags)
	}

	scored, err := p.deps.Engine.Score(in)
	if errors.Is(err, scoring.ErrInsufficientData) {
		return nil, insufficient(ReasonNoResolvable, slug)
	}
	if err != nil {
		return nil, err
	}

	pred = &Prediction{
		RunID:      runID,
		User:       user,
		Problem:    target,
		Percent:    scored.Percent(),
		Result:     scored,
		Overall:    result.Overall,
		Dropped:    result.Dropped,
		ComputedAt: time.Now().UTC(),
	}
	ev := logger.Info().
		Str("probability", pred.Percent).
		Float64("baseline", scored.Baseline).
		Int("combinations", len(scored.Combinations))
	if scored.Chosen != nil {
		ev = ev.Strs("chosen", scored.Chosen.Tags)
	}
	ev.Msg("prediction computed")

	if p.deps.Sink != nil {
		if err := p.deps.Sink.Render(ctx, pred); err != nil {
			logger.Warn().Err(err).Msg("failed to render prediction")
		}
	}
	return pred, nil
}

// reconcile returns the signed-in username ("" when signed out) after
// bringing the caches in line with it.
func (p *Predictor) reconcile(ctx context.Context) (string, error) {
	id, err := p.deps.Identity.Identity(ctx)
	if err != nil {
		return "", fmt.Errorf("identify user: %w", err)
	}
	user := id.User()
	actions, err := p.deps.Sessions.Reconcile(ctx, user)
	if err != nil {
		return "", fmt.Errorf("reconcile session: %w", err)
	}
	for _, a := range actions {
		if a.Kind != session.ClearAll {
			continue
		}
		if err := p.clearTotals(ctx); err != nil {
			return "", fmt.Errorf("clear totals: %w", err)
		}
		break
	}
	return user, nil
}

// clearTotals drops the cached solved counts of the previous user.
func (p *Predictor) clearTotals(ctx context.Context) error {
	errs := []error{p.deps.Difficulty.Clear(ctx)}
	if p.deps.Tags != nil {
		errs = append(errs, p.deps.Tags.Clear(ctx))
	}
	return errors.Join(errs...)
}

// aggregate loads the history, fills the catalog for it and folds it into stats.
func (p *Predictor) aggregate(ctx context.Context, slug string, force bool) (*stats.Result, error) {
	subs, err := p.deps.Submissions.GetAll(ctx, force)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	if len(subs) == 0 {
		return nil, insufficient(ReasonNoSubmissions, slug)
	}

	ids := make([]string, 0, len(subs))
	seen := make(map[string]bool, len(subs))
	for _, s := range subs {
		if !seen[s.ProblemID] {
			seen[s.ProblemID] = true
			ids = append(ids, s.ProblemID)
		}
	}
	cat, err := p.deps.Catalog.FetchAndCache(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fill catalog: %w", err)
	}
	return stats.Aggregate(subs, cat), nil
}

// TagSummary is one tag's difficulty-blind stats.
type TagSummary struct {
	Slug string     `json:"slug"`
	Name string     `json:"name"`
	Stat stats.Stat `json:"stat"`
}

// Report is the user's aggregated history without a target problem.
type Report struct {
	User          string                   `json:"user"`
	Overall       stats.Summary            `json:"overall"`
	PersonalScore float64                  `json:"personalScore"`
	Tags          []TagSummary             `json:"tags"`
	Difficulties  []scoring.DifficultyRow  `json:"difficulties"`
	Totals        problem.DifficultyTotals `json:"totals,omitempty"`
	Dropped       int                      `json:"dropped"`
}

// Summary aggregates the cached history. Difficulty totals are best effort:
// when they cannot be loaded, coverage is reported as 0.
func (p *Predictor) Summary(ctx context.Context) (*Report, error) {
	user, err := p.reconcile(ctx)
	if err != nil {
		return nil, err
	}
	if user == "" {
		return nil, insufficient(ReasonNotAuthenticated, "")
	}

	result, err := p.aggregate(ctx, "", false)
	if err != nil {
		return nil, err
	}

	totals, err := p.deps.Difficulty.Get(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("difficulty totals unavailable")
		totals = nil
	}

	engine := p.deps.Engine
	report := &Report{
		User:          user,
		Overall:       result.Overall,
		PersonalScore: engine.PersonalScore(result.Overall),
		Totals:        totals,
		Dropped:       result.Dropped,
	}
	for slug, st := range result.Tags {
		report.Tags = append(report.Tags, TagSummary{Slug: slug, Name: result.TagName(slug), Stat: st})
	}
	sort.Slice(report.Tags, func(i, j int) bool {
		a, b := report.Tags[i], report.Tags[j]
		if a.Stat.Attempted != b.Stat.Attempted {
			return a.Stat.Attempted > b.Stat.Attempted
		}
		return a.Slug < b.Slug
	})

	coverage := scoring.DifficultyCoverage(totals)
	for _, d := range problem.Difficulties {
		st := result.Difficulties[d]
		report.Difficulties = append(report.Difficulties, scoring.DifficultyRow{
			Difficulty: d,
			Stat:       st,
			Coverage:   coverage[d],
			Score:      engine.DifficultyScore(st, coverage[d]),
		})
	}
	return report, nil
}

// SyncReport describes what Sync refreshed.
type SyncReport struct {
	User        string                   `json:"user"`
	Submissions int                      `json:"submissions"`
	Problems    int                      `json:"problems"`
	Totals      problem.DifficultyTotals `json:"totals"`
}

// Sync refetches the full history, fills the catalog for it, refreshes the
// difficulty totals and drops cached tag totals.
func (p *Predictor) Sync(ctx context.Context) (*SyncReport, error) {
	ctx, span := observability.Tracer().Start(ctx, "predict.Sync")
	defer span.End()

	user, err := p.reconcile(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if user == "" {
		return nil, insufficient(ReasonNotAuthenticated, "")
	}

	subs, err := p.deps.Submissions.GetAll(ctx, true)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ProblemID)
	}
	cat, err := p.deps.Catalog.FetchAndCache(ctx, ids)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("fill catalog: %w", err)
	}

	totals, err := p.deps.Difficulty.Refresh(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("refresh difficulty totals: %w", err)
	}
	if p.deps.Tags != nil {
		if err := p.deps.Tags.Clear(ctx); err != nil {
			p.logger.Warn().Err(err).Msg("failed to clear tag totals")
		}
	}

	p.logger.Info().Str("user", user).Int("submissions", len(subs)).Int("problems", len(cat)).Msg("sync complete")
	return &SyncReport{User: user, Submissions: len(subs), Problems: len(cat), Totals: totals}, nil
}
