package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/observability"
)

// RetryProvider retries transient failures with exponential backoff and
// ±20% jitter. A schema violation is retried at most once per call.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger zerolog.Logger
}

// WithRetry wraps p. MaxAttempts below 1 is treated as 1.
func WithRetry(p Provider, cfg RetryConfig, logger zerolog.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryProvider{inner: p, config: cfg, logger: logger}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)
	invalidSeen := false

	var lastErr error
	for attempt := range r.config.MaxAttempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		reason, retryable := classifyRetry(err)
		if reason == "invalid_response" {
			retryable = !invalidSeen
			invalidSeen = true
		}
		if !retryable || attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		observability.LLMRetries().WithLabelValues(purpose, reason).Inc()
		r.logger.Debug().
			Err(err).
			Str("purpose", purpose).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("retrying LLM request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// classifyRetry labels err and reports whether another attempt may help.
func classifyRetry(err error) (reason string, retryable bool) {
	var (
		maxTok  *ErrMaxTokensExceeded
		auth    *ErrAuth
		invalid *ErrInvalidResponse
		rate    *ErrRateLimit
		down    *ErrProviderUnavailable
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled", false
	case errors.As(err, &maxTok):
		return "max_tokens", false
	case errors.As(err, &auth):
		return "auth", false
	case errors.As(err, &invalid):
		return "invalid_response", true
	case errors.As(err, &rate):
		return "rate_limit", true
	case errors.As(err, &down):
		return "unavailable", true
	default:
		return "transport", true
	}
}

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = math.Min(wait, float64(r.config.MaxWait))
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
