package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/abhisek/leetprob/internal/problem"
	"github.com/abhisek/leetprob/internal/scoring"
	"github.com/abhisek/leetprob/internal/stats"
)

func TestTruncate(t *testing.T) {
	if got := truncate("dynamic-programming", 7); got != "dynamic" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("array", 10); got != "array" {
		t.Errorf("truncate = %q", got)
	}
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		usd  float64
		want string
	}{
		{0.00123, "$0.0012"},
		{0.5, "$0.50"},
		{12.5, "$12.50"},
	}
	for _, tt := range tests {
		if got := formatCost(tt.usd); got != tt.want {
			t.Errorf("formatCost(%v) = %q, want %q", tt.usd, got, tt.want)
		}
	}
}

func TestPrintBreakdown(t *testing.T) {
	r := &scoring.Result{
		Probability:     0.61,
		Baseline:        0.55,
		AvgTagScore:     0.5,
		DifficultyScore: 0.4,
		PersonalScore:   0.7,
		Tags: []scoring.TagRow{
			{Slug: "array", Name: "Array", Stat: stats.Stat{Attempted: 4, Solved: 3}, Coverage: 0.1, Score: 0.5},
		},
		Difficulties: []scoring.DifficultyRow{
			{Difficulty: problem.Easy, Stat: stats.Stat{Attempted: 2, Solved: 2}, Coverage: 0.2, Score: 0.6},
		},
		Chosen: &scoring.CombinationScore{Tags: []string{"array", "hash-table"}, Probability: 0.61},
	}

	var buf bytes.Buffer
	printBreakdown(&buf, r)
	out := buf.String()

	for _, want := range []string{"Array", "Easy", "Baseline:          55.00%", "array + hash-table (61.00%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintBreakdown_NoTags(t *testing.T) {
	var buf bytes.Buffer
	printBreakdown(&buf, &scoring.Result{})
	if !strings.Contains(buf.String(), "(no tags)") {
		t.Errorf("output = %q", buf.String())
	}
	if strings.Contains(buf.String(), "Best combination") {
		t.Error("no combination should be printed without a chosen one")
	}
}
