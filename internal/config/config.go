// Package config loads runtime settings from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/leetprob/internal/catalog"
	"github.com/abhisek/leetprob/internal/leetcode"
	"github.com/abhisek/leetprob/internal/llm"
	"github.com/abhisek/leetprob/internal/logging"
	"github.com/abhisek/leetprob/internal/scoring"
	"github.com/abhisek/leetprob/internal/submissions"
	"github.com/abhisek/leetprob/internal/suggest"
)

// EnvPrefix prefixes every environment variable, e.g. LEETPROB_LOG_LEVEL.
const EnvPrefix = "LEETPROB"

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultServerAddr is where `leetprob serve` listens by default.
const DefaultServerAddr = "127.0.0.1:8765"

// AIConfig controls tag-combination suggestions.
type AIConfig struct {
	Enabled bool
	Suggest suggest.Config
}

// Config holds every runtime setting.
type Config struct {
	DBPath       string
	StoreBackend string
	RedisURL     string
	LogLevel     string
	LogFormat    string
	ServerAddr   string

	LeetCode    leetcode.Config
	Submissions submissions.Config
	Catalog     catalog.Config
	Scoring     scoring.Config
	AI          AIConfig
	LLM         llm.Config
}

// Load reads configuration. path names an optional YAML file; an empty path
// skips it. A .env file in the working directory is loaded first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		DBPath:       v.GetString("db.path"),
		StoreBackend: strings.ToLower(v.GetString("store.backend")),
		RedisURL:     v.GetString("redis.url"),
		LogLevel:     v.GetString("log.level"),
		LogFormat:    strings.ToLower(v.GetString("log.format")),
		ServerAddr:   v.GetString("server.addr"),
		LeetCode: leetcode.Config{
			Endpoint:  v.GetString("leetcode.endpoint"),
			Session:   v.GetString("leetcode.session"),
			CSRFToken: v.GetString("leetcode.csrf_token"),
			Timeout:   v.GetDuration("leetcode.timeout"),
			UserAgent: leetcode.DefaultConfig().UserAgent,
		},
		Submissions: submissions.Config{
			PageSize:  v.GetInt("submissions.page_size"),
			PageDelay: v.GetDuration("submissions.page_delay"),
		},
		Catalog: catalog.Config{
			Concurrency: v.GetInt("catalog.concurrency"),
			FetchDelay:  v.GetDuration("catalog.fetch_delay"),
		},
		Scoring: scoring.Config{
			Alpha:     v.GetFloat64("scoring.alpha"),
			Beta:      v.GetFloat64("scoring.beta"),
			Gamma:     v.GetFloat64("scoring.gamma"),
			W1:        v.GetFloat64("scoring.w1"),
			W2:        v.GetFloat64("scoring.w2"),
			W3:        v.GetFloat64("scoring.w3"),
			Smoothing: v.GetFloat64("scoring.smoothing"),
		},
	}
	// The cookies are also accepted under the site's own names.
	if cfg.LeetCode.Session == "" {
		cfg.LeetCode.Session = os.Getenv("LEETCODE_SESSION")
	}
	if cfg.LeetCode.CSRFToken == "" {
		cfg.LeetCode.CSRFToken = os.Getenv("LEETCODE_CSRFTOKEN")
	}
	cfg.LLM = loadLLM(v)
	cfg.AI = AIConfig{
		Suggest: suggest.Config{
			MaxCombinations: v.GetInt("ai.max_combinations"),
			MaxTokens:       suggest.DefaultConfig().MaxTokens,
			Temperature:     suggest.DefaultConfig().Temperature,
		},
	}
	if v.IsSet("ai.enabled") {
		cfg.AI.Enabled = v.GetBool("ai.enabled")
	} else {
		cfg.AI.Enabled = cfg.LLM.Validate() == nil
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	lc := leetcode.DefaultConfig()
	sub := submissions.DefaultConfig()
	cat := catalog.DefaultConfig()
	sc := scoring.DefaultConfig()
	lm := llm.DefaultConfig()

	v.SetDefault("store.backend", BackendSQLite)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatConsole)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("leetcode.endpoint", lc.Endpoint)
	v.SetDefault("leetcode.timeout", lc.Timeout)
	v.SetDefault("submissions.page_size", sub.PageSize)
	v.SetDefault("submissions.page_delay", sub.PageDelay)
	v.SetDefault("catalog.concurrency", cat.Concurrency)
	v.SetDefault("catalog.fetch_delay", cat.FetchDelay)
	v.SetDefault("scoring.alpha", sc.Alpha)
	v.SetDefault("scoring.beta", sc.Beta)
	v.SetDefault("scoring.gamma", sc.Gamma)
	v.SetDefault("scoring.w1", sc.W1)
	v.SetDefault("scoring.w2", sc.W2)
	v.SetDefault("scoring.w3", sc.W3)
	v.SetDefault("scoring.smoothing", sc.Smoothing)
	v.SetDefault("ai.max_combinations", suggest.DefaultConfig().MaxCombinations)
	v.SetDefault("llm.timeout", lm.Timeout)
	v.SetDefault("llm.gemini.model", lm.Gemini.Model)
	v.SetDefault("llm.openai.model", lm.OpenAI.Model)
	v.SetDefault("llm.anthropic.model", lm.Anthropic.Model)
	v.SetDefault("llm.openrouter.model", lm.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", lm.OpenRouter.BaseURL)
}

// loadLLM uses llm.* keys when a provider is configured and falls back to the
// vendors' own API key variables otherwise.
func loadLLM(v *viper.Viper) llm.Config {
	provider := strings.ToLower(v.GetString("llm.provider"))
	if provider == "" {
		if discovered, ok := llm.DiscoverConfig(); ok {
			return discovered
		}
	}

	cfg := llm.DefaultConfig()
	if provider != "" {
		cfg.Provider = provider
	}
	cfg.Timeout = v.GetDuration("llm.timeout")
	for name, target := range map[string]*llm.ProviderConfig{
		llm.ProviderGemini:     &cfg.Gemini,
		llm.ProviderOpenAI:     &cfg.OpenAI,
		llm.ProviderAnthropic:  &cfg.Anthropic,
		llm.ProviderOpenRouter: &cfg.OpenRouter,
	} {
		target.APIKey = v.GetString("llm." + name + ".api_key")
		target.Model = v.GetString("llm." + name + ".model")
		if u := v.GetString("llm." + name + ".base_url"); u != "" {
			target.BaseURL = u
		}
	}
	return cfg
}

// Validate checks the settings that have no safe fallback.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.StoreBackend))
	}
	if c.LogFormat != logging.FormatConsole && c.LogFormat != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.Submissions.PageSize < 1 {
		errs = append(errs, fmt.Errorf("submissions.page_size must be positive, got %d", c.Submissions.PageSize))
	}
	if c.Catalog.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("catalog.concurrency must be positive, got %d", c.Catalog.Concurrency))
	}
	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.AI.Enabled {
		if err := c.LLM.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("ai.enabled: %w", err))
		}
	}
	return errors.Join(errs...)
}

// HasSession reports whether a site session cookie is configured.
func (c Config) HasSession() bool {
	return c.LeetCode.Session != ""
}
