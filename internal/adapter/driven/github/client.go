// Package github implements the PullRequestClient port using the go-github library.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/prgate/internal/domain/model"
	"github.com/ericfisherdev/prgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PullRequestClient = (*Client)(nil)

// Options configures a production Client.
type Options struct {
	// Token is the bearer credential. Empty means unauthenticated requests.
	Token string
	// BaseURL overrides the REST API root, e.g. for GitHub Enterprise.
	BaseURL string
	// RequestsPerSecond throttles outgoing calls. Zero or less disables throttling.
	RequestsPerSecond float64
}

// Client implements the driven.PullRequestClient port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub API client over the transport stack built by
// newHTTPClient (bearer token, secondary rate limit handling, ETag caching and
// request throttling).
func NewClient(opts Options) (*Client, error) {
	client := gh.NewClient(newHTTPClient(opts))
	client.UserAgent = "prgate"

	if opts.BaseURL != "" {
		if err := setBaseURL(client, opts.BaseURL); err != nil {
			return nil, err
		}
	}

	if opts.Token == "" {
		slog.Warn("no github token configured, requests are unauthenticated")
	}

	return &Client{gh: client}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if err := setBaseURL(client, baseURL); err != nil {
		return nil, err
	}
	return &Client{gh: client}, nil
}

// ListPullRequests returns the first page of pull requests for owner/repo with
// the provider's default filters. Owner and repo are used as given.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string) ([]model.PullRequest, error) {
	u := fmt.Sprintf("repos/%s/%s/pulls", url.PathEscape(owner), url.PathEscape(repo))

	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building pull request list request for %s/%s: %w: %w", owner, repo, driven.ErrRemoteCall, err)
	}

	var items []json.RawMessage
	resp, err := c.gh.Do(ctx, req, &items)
	if err != nil {
		return nil, fmt.Errorf("listing pull requests for %s/%s: %w: %w", owner, repo, driven.ErrRemoteCall, err)
	}

	logRateLimit(resp, owner+"/"+repo, len(items))

	prs := make([]model.PullRequest, 0, len(items))
	for _, item := range items {
		pr, err := decodePullRequest(item)
		if err != nil {
			return nil, fmt.Errorf("decoding pull request list for %s/%s: %w: %w", owner, repo, driven.ErrRemoteCall, err)
		}
		prs = append(prs, pr)
	}

	return prs, nil
}

// GetPullRequest fetches a single pull request including its labels.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*model.PullRequest, error) {
	u := fmt.Sprintf("repos/%s/%s/pulls/%d", url.PathEscape(owner), url.PathEscape(repo), number)

	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building pull request request for %s/%s#%d: %w: %w", owner, repo, number, driven.ErrRemoteCall, err)
	}

	var raw json.RawMessage
	resp, err := c.gh.Do(ctx, req, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request %s/%s#%d: %w: %w", owner, repo, number, driven.ErrRemoteCall, err)
	}

	logRateLimit(resp, fmt.Sprintf("%s/%s#%d", owner, repo, number), 1)

	pr, err := decodePullRequest(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding pull request %s/%s#%d: %w: %w", owner, repo, number, driven.ErrRemoteCall, err)
	}

	return &pr, nil
}

// decodePullRequest parses the fields prgate inspects and keeps the raw JSON.
func decodePullRequest(raw json.RawMessage) (model.PullRequest, error) {
	var pr gh.PullRequest
	if err := json.Unmarshal(raw, &pr); err != nil {
		return model.PullRequest{}, err
	}
	return mapPullRequest(&pr, raw), nil
}

// mapPullRequest converts a go-github PullRequest to a domain model PullRequest.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapPullRequest(pr *gh.PullRequest, raw json.RawMessage) model.PullRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	return model.PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		State:  pr.GetState(),
		Labels: labels,
		Raw:    raw,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// setBaseURL points client at baseURL, adding the trailing slash go-github requires.
func setBaseURL(client *gh.Client, baseURL string) error {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return nil
}
