// Package version checks the running DexScript version against the latest
// published one.
package version

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Current is the version of this build.
const Current = "0.4.3.2"

const (
	// BaseURL is the GitHub API base URL.
	BaseURL = "https://api.github.com"

	// Repository holds the published version file.
	Repository = "Dotsian/DexScript"

	// VersionFile is the path of the version file in Repository.
	VersionFile = "version.txt"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit keeps repeated checks well under GitHub's unauthenticated quota.
	RateLimit = 1.0
)

// Errors.
var (
	ErrNotFound     = errors.New("version file not found (404)")
	ErrRateLimited  = errors.New("GitHub API rate limit exceeded")
	ErrUnauthorized = errors.New("GitHub API authentication failed")
	ErrAPIError     = errors.New("GitHub API error")
	ErrNetworkError = errors.New("network error connecting to GitHub")
)

// Client fetches the published version from the GitHub contents API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	token      string
	current    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithToken sets a GitHub token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithCurrent overrides the version compared against.
func WithCurrent(v string) ClientOption {
	return func(c *Client) {
		c.current = v
	}
}

// NewClient creates a new version client.
// It reads GITHUB_TOKEN from the environment for authenticated requests.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 2),
		baseURL:    BaseURL,
		token:      os.Getenv("GITHUB_TOKEN"),
		current:    Current,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Latest returns the version published on ref.
func (c *Client) Latest(ctx context.Context, ref string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, Repository, VersionFile)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	q := req.URL.Query()
	q.Set("ref", ref)
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "dexscript")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return "", ErrRateLimited
		}
		return "", ErrUnauthorized
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	default:
		return "", fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var body contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrAPIError, err)
	}

	// GitHub wraps base64 content at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("%w: decoding content: %v", ErrAPIError, err)
	}

	return strings.TrimRight(string(raw), " \t\r\n"), nil
}

// Status compares the running version to the published one.
type Status struct {
	Current string `json:"current"`
	Latest  string `json:"latest"`
}

// Outdated reports whether a different version is published.
func (s Status) Outdated() bool {
	return s.Latest != "" && s.Latest != s.Current
}

// Label is LATEST or OUTDATED.
func (s Status) Label() string {
	if s.Outdated() {
		return "OUTDATED"
	}
	return "LATEST"
}

// Warning returns the message shown before script output, or "" when the
// running version is the latest.
func (s Status) Warning() string {
	if !s.Outdated() {
		return ""
	}
	return fmt.Sprintf("Your DexScript version (%s) is outdated. Please update to version (%s).", s.Current, s.Latest)
}

// Check fetches the version published on ref and compares it.
func (c *Client) Check(ctx context.Context, ref string) (Status, error) {
	latest, err := c.Latest(ctx, ref)
	if err != nil {
		return Status{Current: c.current}, err
	}
	return Status{Current: c.current, Latest: latest}, nil
}
