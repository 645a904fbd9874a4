package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const defaultGitHubBaseURL = "https://api.github.com"

// GitHubSink creates issues through the GitHub REST API. Use a throwaway
// repository and a token scoped to issues.
type GitHubSink struct {
	httpClient *http.Client
	baseURL    string
	token      string
	repo       string // "owner/repo"
}

// GitHubOption configures the sink.
type GitHubOption func(*GitHubSink)

// WithHTTPClient overrides the HTTP client, including its timeout.
func WithHTTPClient(c *http.Client) GitHubOption {
	return func(s *GitHubSink) { s.httpClient = c }
}

// WithBaseURL points the sink at a different API host. Tests use this with
// httptest servers.
func WithBaseURL(u string) GitHubOption {
	return func(s *GitHubSink) { s.baseURL = u }
}

// NewGitHubSink validates configuration up front so a misconfigured sink
// fails at startup, not on the first remediation.
func NewGitHubSink(token, repo string, opts ...GitHubOption) (*GitHubSink, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if repo == "" {
		return nil, fmt.Errorf("github repository (owner/repo) is required")
	}

	s := &GitHubSink{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultGitHubBaseURL,
		token:      token,
		repo:       repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type createIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

type createIssueResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

func (s *GitHubSink) CreateTicket(ctx context.Context, title, body string, labels []string) (*Ticket, error) {
	payload, err := json.Marshal(createIssueRequest{Title: title, Body: body, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("encode issue request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues", s.baseURL, s.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build issue request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create github issue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("github api error: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var issue createIssueResponse
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return nil, fmt.Errorf("decode issue response: %w", err)
	}

	if labels == nil {
		labels = []string{}
	}
	return &Ticket{
		TicketID:  strconv.Itoa(issue.Number),
		TicketURL: issue.HTMLURL,
		Title:     title,
		Labels:    labels,
		Body:      body,
	}, nil
}
