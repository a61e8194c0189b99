package ghclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/spiffcs/repobot/internal/model"
	"github.com/spiffcs/repobot/internal/paginate"
)

// ErrMutationRejected is returned when a project mutation answers without its payload.
var ErrMutationRejected = errors.New("mutation returned no result")

type orgProjectsResponse struct {
	Organization *struct {
		ProjectsV2 paginate.Page[model.Project] `json:"projectsV2"`
	} `json:"organization"`
}

// OrganizationProjects lists the projects (v2) owned by org, including their READMEs.
func (c *Client) OrganizationProjects(ctx context.Context, org string) ([]model.Project, error) {
	pager := paginate.New(func(ctx context.Context, after *string) (paginate.Page[model.Project], error) {
		var resp orgProjectsResponse
		if err := c.Query(ctx, orgProjectsQuery, pageVars(after, map[string]any{"org": org}), &resp); err != nil {
			return paginate.Page[model.Project]{}, err
		}
		if resp.Organization == nil {
			return paginate.Page[model.Project]{}, fmt.Errorf("organization %q not found", org)
		}
		return resp.Organization.ProjectsV2, nil
	}, paginate.WithName("projectsV2"))

	projects, err := pager.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects of %s: %w", org, err)
	}
	return projects, nil
}

type nodeID struct {
	ID string `json:"id"`
}

type labeledIssuesResponse struct {
	Repository *struct {
		Issues paginate.Page[nodeID] `json:"issues"`
	} `json:"repository"`
}

// LabeledOpenIssues returns the node IDs of the open issues in repo carrying label.
func (c *Client) LabeledOpenIssues(ctx context.Context, repo model.Repo, label string) (map[string]struct{}, error) {
	pager := paginate.New(func(ctx context.Context, after *string) (paginate.Page[nodeID], error) {
		var resp labeledIssuesResponse
		vars := pageVars(after, map[string]any{
			"owner": repo.Owner,
			"name":  repo.Name,
			"label": label,
		})
		if err := c.Query(ctx, labeledIssuesQuery, vars, &resp); err != nil {
			return paginate.Page[nodeID]{}, err
		}
		if resp.Repository == nil {
			return paginate.Page[nodeID]{}, fmt.Errorf("repository %s not found", repo)
		}
		return resp.Repository.Issues, nil
	}, paginate.WithName("issues"))

	ids, err := paginate.Collect(ctx, pager, func(n nodeID) string { return n.ID })
	if err != nil {
		return nil, fmt.Errorf("failed to list %q issues in %s: %w", label, repo, err)
	}
	return ids, nil
}

type projectItemNode struct {
	ID      string  `json:"id"`
	Content *nodeID `json:"content"`
}

type projectItemsResponse struct {
	Organization *struct {
		ProjectV2 *struct {
			ID    string                         `json:"id"`
			Items paginate.Page[projectItemNode] `json:"items"`
		} `json:"projectV2"`
	} `json:"organization"`
}

// ProjectItems returns the project's node ID and its items. Items whose
// content is hidden from the token (empty content) are skipped.
func (c *Client) ProjectItems(ctx context.Context, org string, number int) (string, []model.ProjectItem, error) {
	var projectID string
	pager := paginate.New(func(ctx context.Context, after *string) (paginate.Page[projectItemNode], error) {
		var resp projectItemsResponse
		vars := pageVars(after, map[string]any{"org": org, "number": number})
		if err := c.Query(ctx, projectItemsQuery, vars, &resp); err != nil {
			return paginate.Page[projectItemNode]{}, err
		}
		if resp.Organization == nil || resp.Organization.ProjectV2 == nil {
			return paginate.Page[projectItemNode]{}, fmt.Errorf("project %s/%d not found", org, number)
		}
		projectID = resp.Organization.ProjectV2.ID
		return resp.Organization.ProjectV2.Items, nil
	}, paginate.WithName("projectItems"))

	nodes, err := pager.All(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list items of project %s/%d: %w", org, number, err)
	}

	items := make([]model.ProjectItem, 0, len(nodes))
	for _, n := range nodes {
		if n.Content == nil || n.Content.ID == "" {
			continue
		}
		items = append(items, model.ProjectItem{ID: n.ID, ContentID: n.Content.ID})
	}
	return projectID, items, nil
}

// AddProjectItem adds the issue, pull request or draft identified by contentID to a project.
func (c *Client) AddProjectItem(ctx context.Context, projectID, contentID string) error {
	var resp struct {
		AddProjectV2ItemByID *struct {
			Item *struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"addProjectV2ItemById"`
	}
	vars := map[string]any{"projectId": projectID, "contentId": contentID}
	if err := c.Query(ctx, addProjectItemMutation, vars, &resp); err != nil {
		return fmt.Errorf("failed to add %s to project %s: %w", contentID, projectID, err)
	}
	if resp.AddProjectV2ItemByID == nil || resp.AddProjectV2ItemByID.Item == nil {
		return fmt.Errorf("failed to add %s to project %s: %w", contentID, projectID, ErrMutationRejected)
	}
	return nil
}

// DeleteProjectItem removes an item from a project.
func (c *Client) DeleteProjectItem(ctx context.Context, projectID, itemID string) error {
	var resp struct {
		DeleteProjectV2Item *struct {
			DeletedItemID string `json:"deletedItemId"`
		} `json:"deleteProjectV2Item"`
	}
	vars := map[string]any{"projectId": projectID, "itemId": itemID}
	if err := c.Query(ctx, deleteProjectItemQuery, vars, &resp); err != nil {
		return fmt.Errorf("failed to delete item %s from project %s: %w", itemID, projectID, err)
	}
	if resp.DeleteProjectV2Item == nil || resp.DeleteProjectV2Item.DeletedItemID == "" {
		return fmt.Errorf("failed to delete item %s from project %s: %w", itemID, projectID, ErrMutationRejected)
	}
	return nil
}
