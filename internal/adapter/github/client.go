package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bkyoung/inline-reviews/internal/domain"
)

const (
	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second

	// perPage is the page size for list endpoints. 100 is GitHub's
	// maximum.
	perPage = 100
)

// Client is an HTTP client for the GitHub Pull Requests API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retryConf  RetryConfig
}

// NewClient creates a new GitHub API client. token may be empty for
// anonymous access to public repositories; otherwise it should be a
// personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf: RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
	}
}

// SetBaseURL sets a custom base URL, for GitHub Enterprise or testing.
// Trailing slashes are trimmed so path joining never doubles them.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetMaxRetries sets the maximum number of retry attempts.
func (c *Client) SetMaxRetries(maxRetries int) {
	c.retryConf.MaxRetries = maxRetries
}

// SetInitialBackoff sets the initial backoff duration for retries.
func (c *Client) SetInitialBackoff(backoff time.Duration) {
	c.retryConf.InitialBackoff = backoff
}

// SetMaxBackoff caps the per-attempt backoff duration.
func (c *Client) SetMaxBackoff(backoff time.Duration) {
	c.retryConf.MaxBackoff = backoff
}

// SetBackoffMultiplier sets the growth factor between retry attempts.
func (c *Client) SetBackoffMultiplier(multiplier float64) {
	c.retryConf.Multiplier = multiplier
}

// GetPullRequest fetches the pull request, its changed-file listing, and
// its review comments, and assembles the session snapshot.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error) {
	var pull PullResponse
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)
	if err := c.getJSON(ctx, url, &pull); err != nil {
		return nil, err
	}

	files, err := c.ListChangedFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	comments, err := c.ListReviewComments(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	return MapPullRequest(pull, files, comments), nil
}

// ListChangedFiles fetches the pull request's changed-file listing,
// following pagination.
func (c *Client) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]FileResponse, error) {
	var all []FileResponse
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.baseURL, owner, repo, number, perPage, page)
		var batch []FileResponse
		if err := c.getJSON(ctx, url, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			return all, nil
		}
	}
}

// ListReviewComments fetches every review comment on the pull request,
// following pagination. The result is ordered by ascending identifier
// regardless of the order pages arrive in.
func (c *Client) ListReviewComments(ctx context.Context, owner, repo string, number int) ([]CommentResponse, error) {
	var all []CommentResponse
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments?per_page=%d&page=%d",
			c.baseURL, owner, repo, number, perPage, page)
		var batch []CommentResponse
		if err := c.getJSON(ctx, url, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			break
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// getJSON executes a GET with retry and decodes the response body.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	var resp *http.Response
	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, "GET", url, nil)
		if reqErr != nil {
			return &Error{
				Type:      ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
			}
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		var callErr error
		resp, callErr = c.httpClient.Do(req)
		if callErr != nil {
			// Could be timeout or network error.
			return &Error{
				Type:      ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return &Error{
					Type:       ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
				}
			}
			return MapHTTPError(resp.StatusCode, bodyBytes)
		}

		return nil
	}, c.retryConf)

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
