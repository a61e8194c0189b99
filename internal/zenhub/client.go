// Package zenhub queries the Zenhub public GraphQL API for sprint data.
package zenhub

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/spiffcs/repobot/internal/httpjson"
)

// DefaultEndpoint is the Zenhub public GraphQL endpoint.
const DefaultEndpoint = "https://api.zenhub.com/public/graphql"

const defaultIssueLimit = 100

//go:embed queries/workspace.graphql
var workspaceQuerySource string

var workspaceQuery = template.Must(template.New("workspace").Parse(workspaceQuerySource))

// ErrWorkspaceNotFound is returned when no workspace matches the search.
var ErrWorkspaceNotFound = errors.New("no zenhub workspace found")

// Client talks to the Zenhub API with a personal API key.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithHTTPClient overrides httpjson.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("zenhub API key not provided")
	}
	c := &Client{httpClient: httpjson.DefaultClient, endpoint: DefaultEndpoint, token: token}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BuildWorkspaceQuery renders the workspace query for the workspace named podName.
func BuildWorkspaceQuery(podName string) (string, error) {
	var buf bytes.Buffer
	err := workspaceQuery.Execute(&buf, struct {
		PodName    string
		IssueLimit int
	}{podName, defaultIssueLimit})
	if err != nil {
		return "", fmt.Errorf("failed to render workspace query: %w", err)
	}
	return buf.String(), nil
}

type workspaceResponse struct {
	Data *struct {
		Viewer struct {
			SearchWorkspaces struct {
				Nodes []Workspace `json:"nodes"`
			} `json:"searchWorkspaces"`
		} `json:"viewer"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Workspace returns the first workspace matching podName.
func (c *Client) Workspace(ctx context.Context, podName string) (*Workspace, error) {
	query, err := BuildWorkspaceQuery(podName)
	if err != nil {
		return nil, err
	}

	var resp workspaceResponse
	err = httpjson.Do(ctx, c.httpClient, httpjson.Request{
		Method:  http.MethodPost,
		URL:     c.endpoint,
		Headers: map[string]string{"Authorization": "Bearer " + c.token},
		Body:    map[string]any{"query": query, "operationName": nil},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("zenhub request failed: %w", err)
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("zenhub: %s", strings.Join(msgs, "; "))
	}
	if resp.Data == nil || len(resp.Data.Viewer.SearchWorkspaces.Nodes) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrWorkspaceNotFound, podName)
	}
	return &resp.Data.Viewer.SearchWorkspaces.Nodes[0], nil
}
