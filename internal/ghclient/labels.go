package ghclient

import (
	"context"
	"fmt"

	"github.com/spiffcs/repobot/internal/model"
)

type labelConnection struct {
	Edges []struct {
		Node struct {
			Name string `json:"name"`
		} `json:"node"`
	} `json:"edges"`
}

func (l labelConnection) names() []string {
	names := make([]string, 0, len(l.Edges))
	for _, e := range l.Edges {
		names = append(names, e.Node.Name)
	}
	return names
}

type pullRequestLabelsResponse struct {
	Resource *struct {
		Labels                  labelConnection `json:"labels"`
		ClosingIssuesReferences struct {
			Nodes []struct {
				Labels labelConnection `json:"labels"`
			} `json:"nodes"`
		} `json:"closingIssuesReferences"`
	} `json:"resource"`
}

// PullRequestLabels fetches the labels of the pull request at prURL and of every issue it closes.
func (c *Client) PullRequestLabels(ctx context.Context, prURL string) (*model.PullRequestLabels, error) {
	var resp pullRequestLabelsResponse
	if err := c.Query(ctx, pullRequestLabelsQuery, map[string]any{"prUrl": prURL}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch labels for %s: %w", prURL, err)
	}
	if resp.Resource == nil {
		return nil, fmt.Errorf("no pull request found at %s", prURL)
	}

	result := &model.PullRequestLabels{
		PullRequest: resp.Resource.Labels.names(),
	}
	for _, issue := range resp.Resource.ClosingIssuesReferences.Nodes {
		result.ClosingIssues = append(result.ClosingIssues, issue.Labels.names())
	}
	return result, nil
}

// AddLabels adds labels to an issue or pull request.
func (c *Client) AddLabels(ctx context.Context, repo model.Repo, number int, labels []string) error {
	if _, _, err := c.client.Issues.AddLabelsToIssue(ctx, repo.Owner, repo.Name, number, labels); err != nil {
		return fmt.Errorf("failed to add labels to %s#%d: %w", repo, number, err)
	}
	return nil
}
