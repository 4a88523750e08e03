package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/leetprob/internal/leetcode"
	"github.com/abhisek/leetprob/internal/predict"
	"github.com/abhisek/leetprob/internal/problem"
	"github.com/abhisek/leetprob/internal/scoring"
	"github.com/abhisek/leetprob/internal/stats"
)

type fakePredictor struct {
	err      error
	lastSlug string
	lastOpts predict.Options
	latest   *predict.LatestSink
}

func (f *fakePredictor) Calculate(ctx context.Context, slug string, opts predict.Options) (*predict.Prediction, error) {
	f.lastSlug, f.lastOpts = slug, opts
	if f.err != nil {
		return nil, f.err
	}
	p := &predict.Prediction{
		RunID:   "run-1",
		User:    "alice",
		Problem: problem.Metadata{ID: slug, Title: "Two Sum"},
		Percent: "64.20%",
		Result:  &scoring.Result{Probability: 0.642},
	}
	if f.latest != nil {
		_ = f.latest.Render(ctx, p)
	}
	return p, nil
}

func (f *fakePredictor) Summary(context.Context) (*predict.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &predict.Report{User: "alice", Overall: stats.Summary{Solved: 3, Attempted: 4}}, nil
}

func (f *fakePredictor) Sync(context.Context) (*predict.SyncReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &predict.SyncReport{User: "alice", Submissions: 12, Problems: 7}, nil
}

func newTestServer(p *fakePredictor) *Server {
	latest := predict.NewLatestSink()
	p.latest = latest
	return New(p, latest, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, target string) (int, Response, http.Header) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out Response
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &out), string(body))
	}
	return resp.StatusCode, out, resp.Header
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakePredictor{})
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestProbability_BySlug(t *testing.T) {
	p := &fakePredictor{}
	s := newTestServer(p)

	status, out, _ := do(t, s, http.MethodGet, "/api/probability/two-sum?refresh=1&skip_ai=true")
	require.Equal(t, fiber.StatusOK, status)
	require.True(t, out.Success)
	require.Equal(t, "two-sum", p.lastSlug)
	require.True(t, p.lastOpts.ForceRefresh)
	require.True(t, p.lastOpts.SkipSuggestions)

	data := out.Data.(map[string]any)
	require.Equal(t, "64.20%", data["probability"])
}

func TestProbability_ByURL(t *testing.T) {
	p := &fakePredictor{}
	s := newTestServer(p)

	status, _, _ := do(t, s, http.MethodGet, "/api/probability?url=https%3A%2F%2Fleetcode.com%2Fproblems%2Fvalid-anagram%2Fdescription%2F")
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "valid-anagram", p.lastSlug)
}

func TestProbability_MissingInput(t *testing.T) {
	status, out, _ := do(t, newTestServer(&fakePredictor{}), http.MethodGet, "/api/probability")
	require.Equal(t, fiber.StatusBadRequest, status)
	require.False(t, out.Success)
}

func TestProbability_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"insufficient", &predict.InsufficientDataError{Reason: predict.ReasonNoSubmissions, Slug: "two-sum"}, fiber.StatusUnprocessableEntity, string(predict.ReasonNoSubmissions)},
		{"transport", &leetcode.TransportError{Op: "question", StatusCode: 503, Err: errors.New("down")}, fiber.StatusBadGateway, ""},
		{"wrapped transport", errors.Join(errors.New("fetch problem"), &leetcode.TransportError{Op: "question"}), fiber.StatusBadGateway, ""},
		{"other", errors.New("disk full"), fiber.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakePredictor{err: tt.err})
			status, out, _ := do(t, s, http.MethodGet, "/api/probability/two-sum")
			require.Equal(t, tt.status, status)
			require.False(t, out.Success)
			require.Equal(t, tt.reason, out.Reason)
		})
	}
}

func TestPredictions_ListsLatest(t *testing.T) {
	s := newTestServer(&fakePredictor{})
	do(t, s, http.MethodGet, "/api/probability/two-sum")
	do(t, s, http.MethodGet, "/api/probability/two-sum")

	status, out, _ := do(t, s, http.MethodGet, "/api/predictions")
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, out.Data.([]any), 1)
}

func TestStatsAndSync(t *testing.T) {
	s := newTestServer(&fakePredictor{})

	status, out, _ := do(t, s, http.MethodGet, "/api/stats")
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "alice", out.Data.(map[string]any)["user"])

	status, out, _ = do(t, s, http.MethodPost, "/api/sync")
	require.Equal(t, fiber.StatusOK, status)
	require.EqualValues(t, 12, out.Data.(map[string]any)["submissions"])

	status, _, _ = do(t, s, http.MethodGet, "/api/sync")
	require.Equal(t, fiber.StatusMethodNotAllowed, status)
}

func TestStats_SignedOut(t *testing.T) {
	s := newTestServer(&fakePredictor{err: &predict.InsufficientDataError{Reason: predict.ReasonNotAuthenticated}})
	status, out, _ := do(t, s, http.MethodGet, "/api/stats")
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.Equal(t, string(predict.ReasonNotAuthenticated), out.Reason)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(&fakePredictor{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", resp.Header.Get(fiber.HeaderXRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakePredictor{})
	do(t, s, http.MethodGet, "/api/stats")

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(body), `leetprob_api_requests_total{method="GET",route="/api/stats",status="200"}`)
}
