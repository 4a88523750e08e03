package suggest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/leetprob/internal/llm"
)

const systemPrompt = `You help estimate how likely a programmer is to solve a coding interview problem.

Rules:
- You are given the problem title and its topic tags.
- Return the combinations of those tags that best capture what the problem actually tests.
- Every combination must use only tag names from the given list, spelled exactly as given.
- Prefer combinations of two or three tags. A single tag is fine when it dominates the problem.
- Order combinations from most to least relevant.`

func buildUserMessage(title string, tags []string, maxCombinations int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s\n", title)
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(tags, ", "))
	fmt.Fprintf(&b, "Return at most %d combinations.\n", maxCombinations)
	return b.String()
}

// CombinationsSchema is the structured-output schema for suggestions. It sets
// no item limit: an over-long answer is truncated by Suggest, not rejected.
func CombinationsSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "tag-combinations",
		Description: "Combinations of a problem's topic tags, most relevant first",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"combinations": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items":    map[string]any{"type": "string"},
					},
					"description": "Each entry is a list of tag names taken from the given tags",
				},
			},
			"required":             []any{"combinations"},
			"additionalProperties": false,
		},
	}
}

func sortedCopy(s []string) []string {
	c := slices.Clone(s)
	slices.Sort(c)
	return c
}
