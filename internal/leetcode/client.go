// Package leetcode is a small GraphQL client for the practice site. It only
// knows the handful of queries the probability calculation needs.
package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/observability"
)

const (
	// DefaultEndpoint is the site's GraphQL endpoint.
	DefaultEndpoint = "https://leetcode.com/graphql/"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "leetprob/1 (+https://github.com/abhisek/leetprob)"
	maxErrorBody     = 256
)

// Config configures the client. Session and CSRFToken are the browser's
// LEETCODE_SESSION and csrftoken cookies, passed through verbatim.
type Config struct {
	Endpoint  string
	Session   string
	CSRFToken string
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns the anonymous configuration for the public site.
func DefaultConfig() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		Timeout:   defaultTimeout,
		UserAgent: defaultUserAgent,
	}
}

// Client talks to the site's GraphQL API. Safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger
}

// NewClient builds a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger zerolog.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger.With().Str("component", "leetcode").Logger(),
	}
}

type graphQLRequest struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do sends one GraphQL operation and decodes its data object into out.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		observability.SiteRequests().WithLabelValues(op, outcome).Inc()
		observability.SiteLatency().WithLabelValues(op).Observe(time.Since(start).Seconds())
		c.logger.Debug().
			Str("op", op).
			Dur("latency", time.Since(start)).
			Err(err).
			Msg("graphql request")
	}()

	if vars == nil {
		vars = map[string]any{}
	}
	body, err := json.Marshal(graphQLRequest{OperationName: op, Query: query, Variables: vars})
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if len(envelope.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range envelope.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: gqlErr}
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: missing data", ErrMalformedResponse)}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Referer", siteOrigin(c.cfg.Endpoint))

	var cookies []string
	if c.cfg.Session != "" {
		cookies = append(cookies, "LEETCODE_SESSION="+c.cfg.Session)
	}
	if c.cfg.CSRFToken != "" {
		cookies = append(cookies, "csrftoken="+c.cfg.CSRFToken)
		req.Header.Set("X-CSRFToken", c.cfg.CSRFToken)
	}
	if len(cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(cookies, "; "))
	}
}

// siteOrigin strips the path from the endpoint, e.g.
// https://leetcode.com/graphql/ -> https://leetcode.com/
func siteOrigin(endpoint string) string {
	scheme, rest, ok := strings.Cut(endpoint, "://")
	if !ok {
		return endpoint
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host + "/"
}
