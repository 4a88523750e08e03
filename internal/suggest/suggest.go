// Package suggest asks an LLM which combinations of a problem's tags best
// describe it. Suggestions are optional: every failure yields no suggestions.
package suggest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/llm"
	"github.com/abhisek/leetprob/internal/problem"
)

// Suggester returns tag-name combinations for a problem.
type Suggester interface {
	Suggest(ctx context.Context, title string, tags []string) [][]string
}

// Noop never suggests anything.
type Noop struct{}

// Suggest returns nil.
func (Noop) Suggest(context.Context, string, []string) [][]string { return nil }

// Config tunes LLM requests.
type Config struct {
	MaxCombinations int
	MaxTokens       int
	Temperature     float64
}

// DefaultConfig returns the defaults: five combinations, short answers.
func DefaultConfig() Config {
	return Config{MaxCombinations: 5, MaxTokens: 512, Temperature: 0.2}
}

// LLMSuggester implements Suggester on top of an llm.Provider.
type LLMSuggester struct {
	provider llm.Provider
	config   Config
	logger   zerolog.Logger
}

// New returns an LLMSuggester.
func New(provider llm.Provider, cfg Config, logger zerolog.Logger) *LLMSuggester {
	if cfg.MaxCombinations < 1 {
		cfg.MaxCombinations = DefaultConfig().MaxCombinations
	}
	if cfg.MaxTokens < 1 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	return &LLMSuggester{
		provider: provider,
		config:   cfg,
		logger:   logger.With().Str("component", "suggest").Logger(),
	}
}

type combinationsOutput struct {
	Combinations [][]string `json:"combinations"`
}

// Suggest asks the provider for combinations of tags. Problems without tags
// are not sent.
func (s *LLMSuggester) Suggest(ctx context.Context, title string, tags []string) [][]string {
	if len(tags) == 0 {
		return nil
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeTagSuggestion)

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(title, tags, s.config.MaxCombinations)},
		},
		Schema:      CombinationsSchema(),
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).Str("title", title).Msg("tag suggestions unavailable")
		return nil
	}

	var out combinationsOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		s.logger.Warn().Err(err).Msg("tag suggestions unreadable")
		return nil
	}

	combos := make([][]string, 0, len(out.Combinations))
	for _, c := range out.Combinations {
		if len(combos) == s.config.MaxCombinations {
			break
		}
		if len(c) > 0 {
			combos = append(combos, c)
		}
	}
	s.logger.Debug().Int("count", len(combos)).Str("title", title).Msg("tag suggestions received")
	return combos
}

// Resolve maps suggested tag names onto the slugs of tags, matching names or
// slugs case-insensitively. Unknown names drop the whole combination, as do
// repeats of a combination already kept.
func Resolve(combos [][]string, tags []problem.TagRef) [][]string {
	lookup := make(map[string]string, 2*len(tags))
	for _, t := range tags {
		lookup[strings.ToLower(t.Slug)] = t.Slug
		if t.Name != "" {
			lookup[strings.ToLower(t.Name)] = t.Slug
		}
	}

	var out [][]string
	seen := make(map[string]bool)
outer:
	for _, combo := range combos {
		slugs := make([]string, 0, len(combo))
		inCombo := make(map[string]bool, len(combo))
		for _, name := range combo {
			slug, ok := lookup[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				continue outer
			}
			if !inCombo[slug] {
				inCombo[slug] = true
				slugs = append(slugs, slug)
			}
		}
		if len(slugs) == 0 {
			continue
		}
		key := strings.Join(sortedCopy(slugs), ",")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, slugs)
	}
	return out
}
