package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/repobot/internal/log"
	"golang.org/x/oauth2"
)

const (
	defaultGraphQLEndpoint = "https://api.github.com/graphql"
	// perPage is the page size for REST listings and GraphQL connections.
	perPage = 100
	// maxRESTPages bounds REST page loops the same way paginate bounds cursors.
	maxRESTPages = 100
)

// rateLimitTransport wraps an http.RoundTripper to handle GitHub rate limits
type rateLimitTransport struct {
	base  http.RoundTripper
	state *RateLimitState
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.state.IsLimited() {
		return nil, ErrRateLimited
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	remaining, limit, resetAt := parseRateLimitHeaders(resp)
	if remaining >= 0 && limit > 0 {
		t.state.Update(remaining, limit, resetAt)
	}

	if remaining <= RateLimitLowWatermark && remaining > 0 {
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			t.state.SetLimited(true, resetAt)
			_ = resp.Body.Close()
			return nil, ErrRateLimited
		}
	}

	return resp, err
}

// parseRateLimitHeaders extracts rate limit info from response headers.
func parseRateLimitHeaders(resp *http.Response) (remaining, limit int, resetAt time.Time) {
	remaining = -1
	limit = -1

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if rem, err := strconv.Atoi(remainingStr); err == nil {
			remaining = rem
		}
	}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if lim, err := strconv.Atoi(limitStr); err == nil {
			limit = lim
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetTime, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			resetAt = time.Unix(resetTime, 0)
		}
	}

	return remaining, limit, resetAt
}

// Client wraps the GitHub REST client and the GraphQL endpoint behind one token.
type Client struct {
	client     *gh.Client
	httpClient *http.Client
	graphqlURL string
	rateLimit  *RateLimitState
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL string
}

// WithBaseURL points both the REST and the GraphQL API at baseURL
// (GraphQL at baseURL + "/graphql"). Used for GitHub Enterprise and tests.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewClient creates a new GitHub client using a personal access or installation token.
func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided")
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = 30 * time.Second

	state := &RateLimitState{}
	tc.Transport = &rateLimitTransport{
		base:  tc.Transport,
		state: state,
	}

	client := gh.NewClient(tc)
	graphqlURL := defaultGraphQLEndpoint
	if o.baseURL != "" {
		base, err := url.Parse(o.baseURL + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", o.baseURL, err)
		}
		client.BaseURL = base
		graphqlURL = o.baseURL + "/graphql"
	}

	return &Client{
		client:     client,
		httpClient: tc,
		graphqlURL: graphqlURL,
		rateLimit:  state,
	}, nil
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", err)
	}
	return limits, nil
}

// RateLimitStatus reports the rate limit state observed on responses so far.
func (c *Client) RateLimitStatus() (remaining, limit int, resetAt time.Time, limited bool) {
	return c.rateLimit.Status()
}

// AuthenticatedUser returns the login the token belongs to.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}
