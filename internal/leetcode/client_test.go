package leetcode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/leetprob/internal/problem"
)

type gqlCall struct {
	Op        string
	Variables map[string]any
	Header    http.Header
}

// newTestServer answers each operation with the JSON in responses.
func newTestServer(t *testing.T, responses map[string]string) (*Client, *[]gqlCall) {
	t.Helper()
	var calls []gqlCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		calls = append(calls, gqlCall{Op: req.OperationName, Variables: req.Variables, Header: r.Header.Clone()})

		body, ok := responses[req.OperationName]
		if !ok {
			http.Error(w, "unexpected op", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Endpoint = srv.URL + "/graphql/"
	cfg.Session = "sess"
	cfg.CSRFToken = "tok"
	return NewClient(cfg, nil, zerolog.Nop()), &calls
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"signed in", `{"data":{"userStatus":{"username":"alice","isSignedIn":true}}}`, "alice"},
		{"anonymous", `{"data":{"userStatus":{"username":"","isSignedIn":false}}}`, ""},
		{"stale username", `{"data":{"userStatus":{"username":"bob","isSignedIn":false}}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestServer(t, map[string]string{"userStatus": tt.body})
			id, err := c.Identity(context.Background())
			if err != nil {
				t.Fatalf("Identity: %v", err)
			}
			if id.User() != tt.want {
				t.Errorf("User() = %q, want %q", id.User(), tt.want)
			}
			h := (*calls)[0].Header
			if h.Get("X-CSRFToken") != "tok" || h.Get("Cookie") != "LEETCODE_SESSION=sess; csrftoken=tok" {
				t.Errorf("auth headers = %v", h)
			}
		})
	}
}

func TestProblem(t *testing.T) {
	c, calls := newTestServer(t, map[string]string{
		"question": `{"data":{"question":{"questionId":"1","title":"Two Sum","titleSlug":"two-sum","difficulty":"Easy",
			"topicTags":[{"name":"Array","slug":"array"},{"name":"Hash Table","slug":"hash-table"}]}}}`,
	})

	meta, err := c.Problem(context.Background(), "two-sum")
	if err != nil {
		t.Fatalf("Problem: %v", err)
	}
	if meta.ID != "two-sum" || meta.QuestionID != "1" || meta.Difficulty != problem.Easy {
		t.Errorf("meta = %+v", meta)
	}
	if len(meta.Tags) != 2 || meta.Tags[1] != (problem.TagRef{Slug: "hash-table", Name: "Hash Table"}) {
		t.Errorf("tags = %+v", meta.Tags)
	}
	if got := (*calls)[0].Variables["titleSlug"]; got != "two-sum" {
		t.Errorf("titleSlug variable = %v", got)
	}
}

func TestProblem_NotFound(t *testing.T) {
	c, _ := newTestServer(t, map[string]string{"question": `{"data":{"question":null}}`})
	_, err := c.Problem(context.Background(), "no-such-problem")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestProblem_BadDifficulty(t *testing.T) {
	c, _ := newTestServer(t, map[string]string{
		"question": `{"data":{"question":{"questionId":"1","title":"X","titleSlug":"x","difficulty":"Legendary","topicTags":[]}}}`,
	})
	_, err := c.Problem(context.Background(), "x")
	var te *TransportError
	if !errors.As(err, &te) || !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want malformed TransportError", err)
	}
}

func TestSubmissionPage(t *testing.T) {
	c, calls := newTestServer(t, map[string]string{
		"submissionList": `{"data":{"submissionList":{"hasNext":true,"submissions":[
			{"id":"101","titleSlug":"two-sum","status":10,"lang":"golang","timestamp":"1700000000"},
			{"id":102,"titleSlug":"two-sum","status":"11","lang":"python3","timestamp":1700000100}
		]}}}`,
	})

	page, err := c.SubmissionPage(context.Background(), 40, 20)
	if err != nil {
		t.Fatalf("SubmissionPage: %v", err)
	}
	if !page.HasMore || len(page.Submissions) != 2 {
		t.Fatalf("page = %+v", page)
	}
	first, second := page.Submissions[0], page.Submissions[1]
	if first.ID != "101" || !first.Accepted() || first.Timestamp != time.Unix(1700000000, 0).UTC() {
		t.Errorf("first = %+v", first)
	}
	if second.ID != "102" || second.Accepted() || second.Lang != "python3" {
		t.Errorf("second = %+v", second)
	}

	vars := (*calls)[0].Variables
	if vars["offset"] != float64(40) || vars["limit"] != float64(20) {
		t.Errorf("variables = %v", vars)
	}
}

func TestCountProblems(t *testing.T) {
	c, calls := newTestServer(t, map[string]string{
		"problemCount": `{"data":{"problemsetQuestionList":{"total":812}}}`,
	})

	n, err := c.CountProblems(context.Background(), problem.CountFilter{
		Difficulty: problem.Medium,
		SolvedOnly: true,
		TagSlug:    "array",
	})
	if err != nil {
		t.Fatalf("CountProblems: %v", err)
	}
	if n != 812 {
		t.Errorf("n = %d", n)
	}

	filters, _ := (*calls)[0].Variables["filters"].(map[string]any)
	if filters["difficulty"] != "MEDIUM" || filters["status"] != "AC" {
		t.Errorf("filters = %v", filters)
	}
	if tags, _ := filters["tags"].([]any); len(tags) != 1 || tags[0] != "array" {
		t.Errorf("tags filter = %v", filters["tags"])
	}
}

func TestTransportFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{"server error", http.StatusBadGateway, `upstream down`, false},
		{"graphql errors", http.StatusOK, `{"errors":[{"message":"not authenticated"}],"data":null}`, false},
		{"missing data", http.StatusOK, `{}`, true},
		{"not json", http.StatusOK, `<html>`, true},
		{"null list", http.StatusOK, `{"data":{"problemsetQuestionList":null}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{Endpoint: srv.URL}, nil, zerolog.Nop())
			_, err := c.CountProblems(context.Background(), problem.CountFilter{})

			var te *TransportError
			if !errors.As(err, &te) {
				t.Fatalf("err = %v, want *TransportError", err)
			}
			if te.Op != "problemCount" {
				t.Errorf("op = %q", te.Op)
			}
			if errors.Is(err, ErrMalformedResponse) != tt.malformed {
				t.Errorf("malformed = %v, want %v (%v)", !tt.malformed, tt.malformed, err)
			}
		})
	}
}

func TestTransportError_ContextCanceled(t *testing.T) {
	c, _ := newTestServer(t, map[string]string{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Identity(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSlugFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"two-sum", "two-sum"},
		{"Two-Sum", "two-sum"},
		{"https://leetcode.com/problems/two-sum/", "two-sum"},
		{"https://leetcode.com/problems/two-sum/description/?envType=daily", "two-sum"},
		{"/problems/lru-cache", "lru-cache"},
		{"https://leetcode.com/contest/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SlugFromURL(tt.in); got != tt.want {
			t.Errorf("SlugFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSiteOrigin(t *testing.T) {
	if got := siteOrigin("https://leetcode.com/graphql/"); got != "https://leetcode.com/" {
		t.Errorf("siteOrigin = %q", got)
	}
}
