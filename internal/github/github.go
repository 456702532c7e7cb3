package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.github.com"

// Marker identifies the tour comment so later runs update it in place.
const Marker = "<!-- reviewtour -->"

const (
	acceptJSON = "application/vnd.github.v3+json"
	acceptDiff = "application/vnd.github.v3.diff"
)

// Client provides access to the GitHub REST API.
type Client struct {
	token      string
	apiURL     string
	httpCli    *http.Client
	maxRetries int
	backoff    time.Duration
}

// NewClient creates a new GitHub client. Requires GITHUB_TOKEN env var.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Client{
		token:      token,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpCli:    &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
		backoff:    time.Second,
	}, nil
}

// Ref is one side of a pull request.
type Ref struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PullRequest holds the pull request fields a tour needs.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Head   Ref    `json:"head"`
	Base   Ref    `json:"base"`
}

// Comment is an issue comment on a pull request.
type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// APIError is a non-2xx answer of the GitHub API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "authentication failed: " + e.Body
	case http.StatusNotFound:
		return "not found: " + e.Body
	}
	return fmt.Sprintf("GitHub API error (status %d): %s", e.Status, e.Body)
}

// do sends a request and returns the body of a 2xx response. Throttled and
// gateway failures are retried.
func (c *Client) do(ctx context.Context, method, path, accept string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
	}

	var data []byte
	err := c.withRetry(ctx, func() error {
		var err error
		data, err = c.send(ctx, method, path, accept, body)
		return err
	})
	return data, err
}

func (c *Client) send(ctx context.Context, method, path, accept string, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// GetPR fetches pull request metadata.
func (c *Client) GetPR(ctx context.Context, owner, repo string, prNumber int) (PullRequest, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, prNumber), acceptJSON, nil)
	if err != nil {
		return PullRequest{}, prError(err, owner, repo, prNumber)
	}
	var pr PullRequest
	if err := json.Unmarshal(data, &pr); err != nil {
		return PullRequest{}, fmt.Errorf("parsing response: %w", err)
	}
	return pr, nil
}

// GetPRDiff fetches the unified diff of a pull request.
func (c *Client) GetPRDiff(ctx context.Context, owner, repo string, prNumber int) (string, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, prNumber), acceptDiff, nil)
	if err != nil {
		return "", prError(err, owner, repo, prNumber)
	}
	return string(data), nil
}

// GetPRFiles fetches the names of the files changed in a pull request.
func (c *Client) GetPRFiles(ctx context.Context, owner, repo string, prNumber int) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=100", owner, repo, prNumber), acceptJSON, nil)
	if err != nil {
		return nil, prError(err, owner, repo, prNumber)
	}
	var files []struct {
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}
	return names, nil
}

// UpsertTourComment posts body as a pull request comment, or edits the
// comment of an earlier run when one carries Marker. It reports whether an
// existing comment was updated.
func (c *Client) UpsertTourComment(ctx context.Context, owner, repo string, prNumber int, body string) (bool, error) {
	body = CommentBody(body)
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, prNumber)

	data, err := c.do(ctx, http.MethodGet, path+"?per_page=100", acceptJSON, nil)
	if err != nil {
		return false, fmt.Errorf("listing comments: %w", err)
	}
	var comments []Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return false, fmt.Errorf("parsing comments: %w", err)
	}

	payload := map[string]string{"body": body}
	for _, cm := range comments {
		if strings.Contains(cm.Body, Marker) {
			_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/repos/%s/%s/issues/comments/%d", owner, repo, cm.ID), acceptJSON, payload)
			if err != nil {
				return false, fmt.Errorf("updating comment: %w", err)
			}
			return true, nil
		}
	}
	if _, err := c.do(ctx, http.MethodPost, path, acceptJSON, payload); err != nil {
		return false, fmt.Errorf("posting comment: %w", err)
	}
	return false, nil
}

// CommentBody prefixes markdown with Marker unless it is already present.
func CommentBody(markdown string) string {
	if strings.HasPrefix(markdown, Marker) {
		return markdown
	}
	return Marker + "\n" + markdown
}

func prError(err error, owner, repo string, prNumber int) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
	}
	return err
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the origin remote of the repository in
// the current directory.
func DetectRepo(ctx context.Context) (owner, repo string, err error) {
	out, err := exec.CommandContext(ctx, "git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
