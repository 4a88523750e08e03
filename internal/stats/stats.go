// Package stats aggregates a submission history into per-tag and
// per-difficulty statistics. Tags are grouped by slug.
package stats

import (
	"github.com/abhisek/leetprob/internal/problem"
)

// Stat counts distinct problems (Attempted, Solved) and submission events
// (TotalSubmissions, CorrectSubmissions) within one grouping.
type Stat struct {
	Attempted          int `json:"attempted"`
	Solved             int `json:"solved"`
	TotalSubmissions   int `json:"totalSubmissions"`
	CorrectSubmissions int `json:"correctSubmissions"`
}

// Familiarity is Solved/Attempted, 0 when nothing was attempted.
func (s Stat) Familiarity() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Solved) / float64(s.Attempted)
}

// Accuracy is CorrectSubmissions/TotalSubmissions, 0 with no submissions.
func (s Stat) Accuracy() float64 {
	if s.TotalSubmissions == 0 {
		return 0
	}
	return float64(s.CorrectSubmissions) / float64(s.TotalSubmissions)
}

// Wrong is the number of non-accepted submission events.
func (s Stat) Wrong() int {
	return s.TotalSubmissions - s.CorrectSubmissions
}

// Key is the compound (tag slug, difficulty) grouping used for scoring.
type Key struct {
	Tag        string
	Difficulty problem.Difficulty
}

// Summary covers every resolved submission regardless of tag or tier.
type Summary struct {
	Solved      int `json:"solved"`
	Attempted   int `json:"attempted"`
	Wrong       int `json:"wrong"`
	Submissions int `json:"submissions"`
}

// Result is the output of Aggregate.
type Result struct {
	Tags          map[string]Stat
	TagDifficulty map[Key]Stat
	Difficulties  map[problem.Difficulty]Stat
	Overall       Summary
	// TagNames maps tag slugs to display names.
	TagNames map[string]string
	// Dropped counts submissions whose problem was not in the catalog.
	Dropped int

	problems map[string]*problemRecord
}

type problemRecord struct {
	meta    problem.Metadata
	total   int
	correct int
}

// Empty reports whether no submission could be resolved.
func (r *Result) Empty() bool {
	return r == nil || r.Overall.Submissions == 0
}

// TagName returns the display name for slug, or slug itself when unknown.
func (r *Result) TagName(slug string) string {
	if name, ok := r.TagNames[slug]; ok && name != "" {
		return name
	}
	return slug
}

// Combination returns stats over the problems at difficulty d that carry
// every tag in slugs. An empty slug set matches nothing.
func (r *Result) Combination(slugs []string, d problem.Difficulty) Stat {
	var s Stat
	if r == nil || len(slugs) == 0 {
		return s
	}
	for _, rec := range r.problems {
		if rec.meta.Difficulty != d || !hasAllTags(rec.meta, slugs) {
			continue
		}
		s.Attempted++
		if rec.correct > 0 {
			s.Solved++
		}
		s.TotalSubmissions += rec.total
		s.CorrectSubmissions += rec.correct
	}
	return s
}

func hasAllTags(meta problem.Metadata, slugs []string) bool {
	for _, want := range slugs {
		found := false
		for _, t := range meta.Tags {
			if t.Slug == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type accumulator struct {
	attempted map[string]struct{}
	solved    map[string]struct{}
	total     int
	correct   int
}

func (a *accumulator) add(problemID string, accepted bool) {
	if a.attempted == nil {
		a.attempted = make(map[string]struct{})
		a.solved = make(map[string]struct{})
	}
	a.attempted[problemID] = struct{}{}
	a.total++
	if accepted {
		a.solved[problemID] = struct{}{}
		a.correct++
	}
}

func (a *accumulator) stat() Stat {
	return Stat{
		Attempted:          len(a.attempted),
		Solved:             len(a.solved),
		TotalSubmissions:   a.total,
		CorrectSubmissions: a.correct,
	}
}

func accumulate[K comparable](m map[K]*accumulator, k K, problemID string, accepted bool) {
	acc, ok := m[k]
	if !ok {
		acc = &accumulator{}
		m[k] = acc
	}
	acc.add(problemID, accepted)
}

func finish[K comparable](m map[K]*accumulator) map[K]Stat {
	out := make(map[K]Stat, len(m))
	for k, acc := range m {
		out[k] = acc.stat()
	}
	return out
}

// Aggregate folds subs into statistics using catalog to resolve each
// submission's tags and difficulty. Submissions whose problem is absent from
// catalog are dropped. The inputs are not modified.
func Aggregate(subs []problem.Submission, catalog map[string]problem.Metadata) *Result {
	var (
		tags     = make(map[string]*accumulator)
		tagDiff  = make(map[Key]*accumulator)
		diffs    = make(map[problem.Difficulty]*accumulator)
		overall  accumulator
		names    = make(map[string]string)
		problems = make(map[string]*problemRecord)
		dropped  int
	)

	for _, sub := range subs {
		meta, ok := catalog[sub.ProblemID]
		if !ok {
			dropped++
			continue
		}
		accepted := sub.Accepted()

		for _, tag := range meta.Tags {
			accumulate(tags, tag.Slug, sub.ProblemID, accepted)
			accumulate(tagDiff, Key{Tag: tag.Slug, Difficulty: meta.Difficulty}, sub.ProblemID, accepted)
			if _, seen := names[tag.Slug]; !seen {
				names[tag.Slug] = tag.Name
			}
		}
		accumulate(diffs, meta.Difficulty, sub.ProblemID, accepted)
		overall.add(sub.ProblemID, accepted)

		rec, ok := problems[sub.ProblemID]
		if !ok {
			rec = &problemRecord{meta: meta}
			problems[sub.ProblemID] = rec
		}
		rec.total++
		if accepted {
			rec.correct++
		}
	}

	o := overall.stat()
	return &Result{
		Tags:          finish(tags),
		TagDifficulty: finish(tagDiff),
		Difficulties:  finish(diffs),
		Overall: Summary{
			Solved:      o.Solved,
			Attempted:   o.Attempted,
			Wrong:       o.Wrong(),
			Submissions: o.TotalSubmissions,
		},
		TagNames: names,
		Dropped:  dropped,
		problems: problems,
	}
}
