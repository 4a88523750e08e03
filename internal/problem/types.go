// Package problem holds the value types shared by the catalog, submission
// store, aggregation and scoring packages.
package problem

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is a problem tier.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties lists every tier from easiest to hardest.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty accepts any casing of a tier name ("EASY", "easy", "Easy").
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Valid reports whether d is one of the three tiers.
func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// Filter returns the upper-case form the site's problem list filter expects.
func (d Difficulty) Filter() string {
	return strings.ToUpper(string(d))
}

// Verdict is the outcome of a single submission.
type Verdict string

const (
	VerdictAccepted Verdict = "accepted"
	VerdictOther    Verdict = "other"
)

// StatusAccepted is the site's numeric status code for an accepted submission.
const StatusAccepted = 10

// VerdictFromStatus maps the site's numeric submission status to a Verdict.
func VerdictFromStatus(status int) Verdict {
	if status == StatusAccepted {
		return VerdictAccepted
	}
	return VerdictOther
}

// TagRef identifies a topic tag. Slug is the grouping key; Name is for display.
type TagRef struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Metadata describes a problem. ID is the problem's title slug.
type Metadata struct {
	ID         string     `json:"id"`
	QuestionID string     `json:"questionId,omitempty"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Tags       []TagRef   `json:"tags"`
}

// TagNames returns the display names of the problem's tags in order.
func (m Metadata) TagNames() []string {
	names := make([]string, len(m.Tags))
	for i, t := range m.Tags {
		names[i] = t.Name
	}
	return names
}

// Submission is a single recorded attempt. ProblemID is the title slug.
type Submission struct {
	ID        string    `json:"id"`
	ProblemID string    `json:"problemId"`
	Verdict   Verdict   `json:"verdict"`
	Timestamp time.Time `json:"timestamp"`
	Lang      string    `json:"lang,omitempty"`
}

// Accepted reports whether the submission was accepted.
func (s Submission) Accepted() bool {
	return s.Verdict == VerdictAccepted
}

// SubmissionPage is one page of the paginated history source.
type SubmissionPage struct {
	Submissions []Submission
	HasMore     bool
}

// Totals is a site-wide problem count and how many of those are solved.
type Totals struct {
	Total  int `json:"total"`
	Solved int `json:"solved"`
}

// DifficultyTotals holds Totals for every tier.
type DifficultyTotals map[Difficulty]Totals

// CountFilter narrows a problem count query. Zero values mean "any".
type CountFilter struct {
	Difficulty Difficulty
	SolvedOnly bool
	TagSlug    string
}

// Identity is the currently authenticated user, if any.
type Identity struct {
	Username   string
	IsSignedIn bool
}

// User returns the username when signed in and "" otherwise.
func (i Identity) User() string {
	if !i.IsSignedIn {
		return ""
	}
	return i.Username
}
