package leetcode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/leetprob/internal/problem"
)

const userStatusQuery = `
query userStatus {
  userStatus {
    username
    isSignedIn
  }
}`

const questionQuery = `
query questionDetail($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    questionId
    title
    titleSlug
    difficulty
    topicTags {
      name
      slug
    }
  }
}`

const submissionListQuery = `
query submissionList($offset: Int!, $limit: Int!, $questionSlug: String) {
  submissionList(offset: $offset, limit: $limit, questionSlug: $questionSlug) {
    hasNext
    submissions {
      id
      titleSlug
      status
      lang
      timestamp
    }
  }
}`

const problemCountQuery = `
query problemCount($filters: QuestionListFilterInput) {
  problemsetQuestionList: questionList(categorySlug: "", limit: 1, skip: 0, filters: $filters) {
    total: totalNum
  }
}`

// Identity returns the signed-in user, or a zero Identity when anonymous.
func (c *Client) Identity(ctx context.Context) (problem.Identity, error) {
	var data struct {
		UserStatus *struct {
			Username   string `json:"username"`
			IsSignedIn bool   `json:"isSignedIn"`
		} `json:"userStatus"`
	}
	if err := c.do(ctx, "userStatus", userStatusQuery, nil, &data); err != nil {
		return problem.Identity{}, err
	}
	if data.UserStatus == nil {
		return problem.Identity{}, &TransportError{Op: "userStatus", Err: fmt.Errorf("%w: missing userStatus", ErrMalformedResponse)}
	}
	return problem.Identity{
		Username:   data.UserStatus.Username,
		IsSignedIn: data.UserStatus.IsSignedIn,
	}, nil
}

// Problem fetches the metadata of one problem. A slug the site does not know
// yields an error wrapping ErrNotFound.
func (c *Client) Problem(ctx context.Context, slug string) (problem.Metadata, error) {
	var data struct {
		Question *struct {
			QuestionID string `json:"questionId"`
			Title      string `json:"title"`
			TitleSlug  string `json:"titleSlug"`
			Difficulty string `json:"difficulty"`
			TopicTags  []struct {
				Name string `json:"name"`
				Slug string `json:"slug"`
			} `json:"topicTags"`
		} `json:"question"`
	}
	if err := c.do(ctx, "question", questionQuery, map[string]any{"titleSlug": slug}, &data); err != nil {
		return problem.Metadata{}, err
	}
	if data.Question == nil {
		return problem.Metadata{}, fmt.Errorf("%q: %w", slug, ErrNotFound)
	}

	q := data.Question
	difficulty, err := problem.ParseDifficulty(q.Difficulty)
	if err != nil {
		return problem.Metadata{}, &TransportError{Op: "question", Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}

	meta := problem.Metadata{
		ID:         q.TitleSlug,
		QuestionID: q.QuestionID,
		Title:      q.Title,
		Difficulty: difficulty,
		Tags:       make([]problem.TagRef, 0, len(q.TopicTags)),
	}
	if meta.ID == "" {
		meta.ID = slug
	}
	for _, t := range q.TopicTags {
		meta.Tags = append(meta.Tags, problem.TagRef{Slug: t.Slug, Name: t.Name})
	}
	return meta, nil
}

// SubmissionPage fetches one page of the signed-in user's submission history,
// newest first.
func (c *Client) SubmissionPage(ctx context.Context, offset, limit int) (problem.SubmissionPage, error) {
	var data struct {
		SubmissionList *struct {
			HasNext     bool `json:"hasNext"`
			Submissions []struct {
				ID        flexString `json:"id"`
				TitleSlug string     `json:"titleSlug"`
				Status    flexString `json:"status"`
				Lang      string     `json:"lang"`
				Timestamp flexString `json:"timestamp"`
			} `json:"submissions"`
		} `json:"submissionList"`
	}
	vars := map[string]any{"offset": offset, "limit": limit, "questionSlug": nil}
	if err := c.do(ctx, "submissionList", submissionListQuery, vars, &data); err != nil {
		return problem.SubmissionPage{}, err
	}
	if data.SubmissionList == nil {
		return problem.SubmissionPage{}, &TransportError{Op: "submissionList", Err: fmt.Errorf("%w: missing submissionList", ErrMalformedResponse)}
	}

	page := problem.SubmissionPage{
		HasMore:     data.SubmissionList.HasNext,
		Submissions: make([]problem.Submission, 0, len(data.SubmissionList.Submissions)),
	}
	for _, s := range data.SubmissionList.Submissions {
		status, _ := strconv.Atoi(string(s.Status))
		sub := problem.Submission{
			ID:        string(s.ID),
			ProblemID: s.TitleSlug,
			Verdict:   problem.VerdictFromStatus(status),
			Lang:      s.Lang,
		}
		if secs, err := strconv.ParseInt(string(s.Timestamp), 10, 64); err == nil {
			sub.Timestamp = time.Unix(secs, 0).UTC()
		}
		page.Submissions = append(page.Submissions, sub)
	}
	return page, nil
}

// CountProblems returns how many problems on the site match the filter.
// SolvedOnly counts the signed-in user's accepted problems.
func (c *Client) CountProblems(ctx context.Context, f problem.CountFilter) (int, error) {
	filters := map[string]any{}
	if f.Difficulty != "" {
		filters["difficulty"] = f.Difficulty.Filter()
	}
	if f.SolvedOnly {
		filters["status"] = "AC"
	}
	if f.TagSlug != "" {
		filters["tags"] = []string{f.TagSlug}
	}

	var data struct {
		List *struct {
			Total *int `json:"total"`
		} `json:"problemsetQuestionList"`
	}
	if err := c.do(ctx, "problemCount", problemCountQuery, map[string]any{"filters": filters}, &data); err != nil {
		return 0, err
	}
	if data.List == nil || data.List.Total == nil {
		return 0, &TransportError{Op: "problemCount", Err: fmt.Errorf("%w: missing totalNum", ErrMalformedResponse)}
	}
	return *data.List.Total, nil
}

// flexString decodes a JSON string or number into its textual form. The site
// is inconsistent about quoting ids, statuses and timestamps.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

var problemPath = regexp.MustCompile(`/problems/([^/?#]+)`)

// SlugFromURL extracts the title slug from a problem URL or path, e.g.
// https://leetcode.com/problems/two-sum/description/ -> two-sum. A bare slug is
// returned unchanged; anything else yields "".
func SlugFromURL(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if m := problemPath.FindStringSubmatch(input); m != nil {
		slug, err := url.PathUnescape(m[1])
		if err != nil {
			return m[1]
		}
		return slug
	}
	if strings.ContainsAny(input, "/:?#. ") {
		return ""
	}
	return strings.ToLower(input)
}
