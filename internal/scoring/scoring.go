// Package scoring turns aggregated statistics into the probability of
// solving a given problem.
package scoring

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/abhisek/leetprob/internal/problem"
	"github.com/abhisek/leetprob/internal/stats"
)

// ErrInsufficientData is returned by Score when there is nothing to score from.
var ErrInsufficientData = errors.New("insufficient data")

// Input is everything Score needs for one target problem.
type Input struct {
	Target problem.Metadata
	Stats  *stats.Result
	// DifficultyTotals may be nil, in which case every difficulty coverage is 0.
	DifficultyTotals problem.DifficultyTotals
	// TagTotals holds site-wide totals at the target's difficulty, keyed by tag
	// slug. Missing tags use the smoothed coverage.
	TagTotals map[string]problem.Totals
	// Combinations are optional tag slug sets to score in place of the plain
	// tag average.
	Combinations [][]string
}

// TagRow is the score of one of the target's tags at the target's difficulty.
type TagRow struct {
	Slug     string     `json:"slug"`
	Name     string     `json:"name"`
	Stat     stats.Stat `json:"stat"`
	Coverage float64    `json:"coverage"`
	Score    float64    `json:"score"`
}

// DifficultyRow is the score of one difficulty tier.
type DifficultyRow struct {
	Difficulty problem.Difficulty `json:"difficulty"`
	Stat       stats.Stat         `json:"stat"`
	Coverage   float64            `json:"coverage"`
	Score      float64            `json:"score"`
}

// CombinationScore is the result of scoring one tag combination.
type CombinationScore struct {
	Tags        []string   `json:"tags"`
	Stat        stats.Stat `json:"stat"`
	TagScore    float64    `json:"tagScore"`
	Probability float64    `json:"probability"`
}

// Result is the full breakdown behind a probability.
type Result struct {
	Probability     float64 `json:"probability"`
	Baseline        float64 `json:"baseline"`
	AvgTagScore     float64 `json:"avgTagScore"`
	DifficultyScore float64 `json:"difficultyScore"`
	PersonalScore   float64 `json:"personalScore"`

	Tags         []TagRow           `json:"tags"`
	Difficulties []DifficultyRow    `json:"difficulties"`
	Combinations []CombinationScore `json:"combinations,omitempty"`
	// Chosen is the combination that beat the baseline, if any.
	Chosen *CombinationScore `json:"chosen,omitempty"`
}

// Percent renders the probability, e.g. "73.42%".
func (r *Result) Percent() string {
	return FormatPercent(r.Probability)
}

// FormatPercent renders p in [0,1] as a percentage with two decimals.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

// Engine scores problems with a fixed Config.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's weights.
func (e *Engine) Config() Config {
	return e.cfg
}

// TagCoverage is the clamped global solve ratio when totals are known and
// total is positive, else the smoothed (solved+1)/(attempted+2).
func TagCoverage(s stats.Stat, global *problem.Totals) float64 {
	if global != nil && global.Total > 0 {
		return clamp(float64(global.Solved) / float64(global.Total))
	}
	return float64(s.Solved+1) / float64(s.Attempted+2)
}

// TagScore blends familiarity and coverage with Alpha.
func (e *Engine) TagScore(s stats.Stat, global *problem.Totals) float64 {
	return e.cfg.Alpha*s.Familiarity() + (1-e.cfg.Alpha)*TagCoverage(s, global)
}

// DifficultyCoverage computes coverage per tier cumulatively from the
// hardest: a tier counts everything solved at it or above. Each value is
// clamped to [0,1] and is 0 when its denominator is 0.
func DifficultyCoverage(totals problem.DifficultyTotals) map[problem.Difficulty]float64 {
	out := make(map[problem.Difficulty]float64, len(problem.Difficulties))
	var solved, total int
	for _, d := range slices.Backward(problem.Difficulties) {
		t := totals[d]
		solved += t.Solved
		total += t.Total
		if total <= 0 {
			out[d] = 0
			continue
		}
		out[d] = clamp(float64(solved) / float64(total))
	}
	return out
}

// DifficultyScore blends familiarity and coverage with Beta.
func (e *Engine) DifficultyScore(s stats.Stat, coverage float64) float64 {
	return e.cfg.Beta*s.Familiarity() + (1-e.cfg.Beta)*coverage
}

// PersonalScore is the smoothed acceptance rate damped by the average
// number of wrong submissions per attempted problem.
func (e *Engine) PersonalScore(sum stats.Summary) float64 {
	s := e.cfg.Smoothing
	acceptance := (float64(sum.Solved) + s) / (float64(sum.Attempted) + 2*s)
	var wrongRate float64
	if sum.Attempted > 0 {
		wrongRate = float64(sum.Wrong) / float64(sum.Attempted)
	}
	return acceptance / (1 + e.cfg.Gamma*wrongRate)
}

func (e *Engine) combine(tagScore, diffScore, personal float64) float64 {
	return e.cfg.W1*tagScore + e.cfg.W2*diffScore + e.cfg.W3*personal
}

// Score computes the probability for in.Target. The baseline uses the mean
// tag score; each combination with at least one attempted problem is scored
// in its place and the best of all wins.
func (e *Engine) Score(in Input) (*Result, error) {
	if in.Stats.Empty() {
		return nil, ErrInsufficientData
	}
	d := in.Target.Difficulty

	res := &Result{}

	var tagSum float64
	for _, tag := range in.Target.Tags {
		st := in.Stats.TagDifficulty[stats.Key{Tag: tag.Slug, Difficulty: d}]
		var global *problem.Totals
		if t, ok := in.TagTotals[tag.Slug]; ok {
			global = &t
		}
		row := TagRow{
			Slug:     tag.Slug,
			Name:     tag.Name,
			Stat:     st,
			Coverage: TagCoverage(st, global),
			Score:    e.TagScore(st, global),
		}
		tagSum += row.Score
		res.Tags = append(res.Tags, row)
	}
	if len(res.Tags) > 0 {
		res.AvgTagScore = tagSum / float64(len(res.Tags))
	}
	sort.SliceStable(res.Tags, func(i, j int) bool { return res.Tags[i].Score > res.Tags[j].Score })

	coverage := DifficultyCoverage(in.DifficultyTotals)
	for _, diff := range problem.Difficulties {
		st, ok := in.Stats.Difficulties[diff]
		if !ok {
			continue
		}
		res.Difficulties = append(res.Difficulties, DifficultyRow{
			Difficulty: diff,
			Stat:       st,
			Coverage:   coverage[diff],
			Score:      e.DifficultyScore(st, coverage[diff]),
		})
	}
	sort.SliceStable(res.Difficulties, func(i, j int) bool { return res.Difficulties[i].Score > res.Difficulties[j].Score })

	res.DifficultyScore = e.DifficultyScore(in.Stats.Difficulties[d], coverage[d])
	res.PersonalScore = e.PersonalScore(in.Stats.Overall)
	res.Baseline = e.combine(res.AvgTagScore, res.DifficultyScore, res.PersonalScore)
	res.Probability = res.Baseline

	for _, combo := range in.Combinations {
		st := in.Stats.Combination(combo, d)
		if st.Attempted == 0 {
			continue
		}
		tagScore := e.TagScore(st, nil)
		cs := CombinationScore{
			Tags:        slices.Clone(combo),
			Stat:        st,
			TagScore:    tagScore,
			Probability: e.combine(tagScore, res.DifficultyScore, res.PersonalScore),
		}
		res.Combinations = append(res.Combinations, cs)
		if cs.Probability > res.Probability {
			res.Probability = cs.Probability
			chosen := cs
			res.Chosen = &chosen
		}
	}
	return res, nil
}

func clamp(v float64) float64 {
	return min(1, max(0, v))
}
