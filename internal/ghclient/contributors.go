package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/repobot/internal/model"
	"github.com/spiffcs/repobot/internal/paginate"
)

type memberNode struct {
	Login string `json:"login"`
}

type orgMembersResponse struct {
	Organization *struct {
		MembersWithRole paginate.Page[memberNode] `json:"membersWithRole"`
	} `json:"organization"`
}

// OrganizationMembers returns the logins of every member of org.
func (c *Client) OrganizationMembers(ctx context.Context, org string) ([]string, error) {
	pager := paginate.New(func(ctx context.Context, after *string) (paginate.Page[memberNode], error) {
		var resp orgMembersResponse
		if err := c.Query(ctx, orgMembersQuery, pageVars(after, map[string]any{"org": org}), &resp); err != nil {
			return paginate.Page[memberNode]{}, err
		}
		if resp.Organization == nil {
			return paginate.Page[memberNode]{}, fmt.Errorf("organization %q not found", org)
		}
		return resp.Organization.MembersWithRole, nil
	}, paginate.WithName("membersWithRole"))

	nodes, err := pager.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %s: %w", org, err)
	}
	logins := make([]string, 0, len(nodes))
	for _, n := range nodes {
		logins = append(logins, n.Login)
	}
	return logins, nil
}

// RepositoryContributors lists the human contributors of repo.
// Bot and organization accounts are dropped.
func (c *Client) RepositoryContributors(ctx context.Context, repo model.Repo) ([]model.Contributor, error) {
	opts := &gh.ListContributorsOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	var contributors []model.Contributor
	for page := 0; page < maxRESTPages; page++ {
		result, resp, err := c.client.Repositories.ListContributors(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list contributors of %s: %w", repo, err)
		}
		for _, u := range result {
			if u.GetType() != "User" {
				continue
			}
			contributors = append(contributors, model.Contributor{
				Login:         u.GetLogin(),
				AvatarURL:     u.GetAvatarURL(),
				ProfileURL:    u.GetHTMLURL(),
				Contributions: u.GetContributions(),
			})
		}
		if resp.NextPage == 0 || len(result) < perPage {
			break
		}
		opts.Page = resp.NextPage
	}
	return contributors, nil
}

// User fetches a single user's public profile as a contributor with no contributions.
func (c *Client) User(ctx context.Context, login string) (model.Contributor, error) {
	u, _, err := c.client.Users.Get(ctx, login)
	if err != nil {
		return model.Contributor{}, fmt.Errorf("failed to get user %s: %w", login, err)
	}
	return model.Contributor{
		Login:      u.GetLogin(),
		AvatarURL:  u.GetAvatarURL(),
		ProfileURL: u.GetHTMLURL(),
	}, nil
}

// ErrFileNotFound is returned by FileContent when the path does not exist.
var ErrFileNotFound = errors.New("file not found")

// FileContent returns the decoded content of path on the default branch and its blob SHA.
func (c *Client) FileContent(ctx context.Context, repo model.Repo, path string) (content, sha string, err error) {
	file, _, resp, err := c.client.Repositories.GetContents(ctx, repo.Owner, repo.Name, path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", "", fmt.Errorf("%s in %s: %w", path, repo, ErrFileNotFound)
		}
		return "", "", fmt.Errorf("failed to get %s from %s: %w", path, repo, err)
	}
	if file == nil {
		return "", "", fmt.Errorf("%s in %s is a directory", path, repo)
	}
	content, err = file.GetContent()
	if err != nil {
		return "", "", fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return content, file.GetSHA(), nil
}

// UpdateFile commits new content for path, replacing the blob identified by sha.
func (c *Client) UpdateFile(ctx context.Context, repo model.Repo, path, message, content, sha string) error {
	_, _, err := c.client.Repositories.UpdateFile(ctx, repo.Owner, repo.Name, path, &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: []byte(content),
		SHA:     gh.String(sha),
	})
	if err != nil {
		return fmt.Errorf("failed to update %s in %s: %w", path, repo, err)
	}
	return nil
}
