package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which backend serves requests.
	Provider string

	Gemini     ProviderConfig
	OpenAI     ProviderConfig
	Anthropic  ProviderConfig
	OpenRouter ProviderConfig
	Retry      RetryConfig

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration
}

// ProviderConfig is the per-backend configuration. BaseURL is honoured by the
// OpenAI-compatible backends only.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults. Gemini Flash is the
// default because tag suggestions are short and latency-sensitive.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderGemini,
		Gemini:     ProviderConfig{Model: "gemini-flash"},
		OpenAI:     ProviderConfig{Model: "gpt-4o-mini"},
		Anthropic:  ProviderConfig{Model: "claude-haiku"},
		OpenRouter: ProviderConfig{Model: "google/gemini-2.0-flash-001", BaseURL: defaultOpenRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     4 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 20 * time.Second,
	}
}

// DiscoverConfig probes the vendors' standard API key variables in priority
// order (Gemini, OpenAI, Anthropic, OpenRouter) and returns a Config for the
// first one set. It reports false when none is.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	probes := []struct {
		env      string
		provider string
		target   *ProviderConfig
	}{
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI},
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg.Provider = p.provider
			p.target.APIKey = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Selected returns the configuration of the chosen provider.
func (c Config) Selected() (ProviderConfig, bool) {
	switch c.Provider {
	case ProviderGemini:
		return c.Gemini, true
	case ProviderOpenAI:
		return c.OpenAI, true
	case ProviderAnthropic:
		return c.Anthropic, true
	case ProviderOpenRouter:
		return c.OpenRouter, true
	}
	return ProviderConfig{}, false
}

// Validate checks that the selected provider has its API key set.
func (c Config) Validate() error {
	if c.Provider == ProviderMock {
		return nil
	}
	pc, ok := c.Selected()
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if pc.APIKey == "" {
		return fmt.Errorf("LEETPROB_LLM_%s_API_KEY is required for the %s provider",
			strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
