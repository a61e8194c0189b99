package ghclient

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/repobot/internal/model"
)

// PullRequestHeadSHA returns the head commit SHA of a pull request.
func (c *Client) PullRequestHeadSHA(ctx context.Context, repo model.Repo, number int) (string, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return "", fmt.Errorf("failed to get pull request %s#%d: %w", repo, number, err)
	}
	return pr.GetHead().GetSHA(), nil
}

// ListCheckRuns lists the check runs reported against ref.
func (c *Client) ListCheckRuns(ctx context.Context, repo model.Repo, ref string) ([]model.CheckRun, error) {
	opts := &gh.ListCheckRunsOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var runs []model.CheckRun
	for page := 0; page < maxRESTPages; page++ {
		result, resp, err := c.client.Checks.ListCheckRunsForRef(ctx, repo.Owner, repo.Name, ref, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list check runs for %s@%s: %w", repo, ref, err)
		}
		for _, run := range result.CheckRuns {
			runs = append(runs, model.CheckRun{
				ID:         run.GetID(),
				Name:       run.GetName(),
				Status:     run.GetStatus(),
				Conclusion: run.GetConclusion(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return runs, nil
}

// CreateCompletedCheckRun creates a check run that is already completed.
func (c *Client) CreateCompletedCheckRun(ctx context.Context, repo model.Repo, headSHA, name, conclusion string, output model.CheckOutput) (int64, error) {
	run, _, err := c.client.Checks.CreateCheckRun(ctx, repo.Owner, repo.Name, gh.CreateCheckRunOptions{
		Name:       name,
		HeadSHA:    headSHA,
		Status:     gh.String("completed"),
		Conclusion: gh.String(conclusion),
		Output: &gh.CheckRunOutput{
			Title:   gh.String(output.Title),
			Summary: gh.String(output.Summary),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create check run %q: %w", name, err)
	}
	return run.GetID(), nil
}

// CompleteCheckRun marks an existing check run completed with conclusion.
func (c *Client) CompleteCheckRun(ctx context.Context, repo model.Repo, id int64, name, conclusion string, output model.CheckOutput) error {
	_, _, err := c.client.Checks.UpdateCheckRun(ctx, repo.Owner, repo.Name, id, gh.UpdateCheckRunOptions{
		Name:       name,
		Status:     gh.String("completed"),
		Conclusion: gh.String(conclusion),
		Output: &gh.CheckRunOutput{
			Title:   gh.String(output.Title),
			Summary: gh.String(output.Summary),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update check run %d: %w", id, err)
	}
	return nil
}
