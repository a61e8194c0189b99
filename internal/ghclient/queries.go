package ghclient

import (
	"embed"
	"fmt"
)

//go:embed queries/*.graphql
var queryFiles embed.FS

// GraphQL documents loaded at init time
var (
	pullRequestLabelsQuery string
	orgMembersQuery        string
	orgProjectsQuery       string
	labeledIssuesQuery     string
	projectItemsQuery      string
	addProjectItemMutation string
	deleteProjectItemQuery string
)

func init() {
	pullRequestLabelsQuery = mustLoadQuery("pr_labels")
	orgMembersQuery = mustLoadQuery("org_members")
	orgProjectsQuery = mustLoadQuery("org_projects")
	labeledIssuesQuery = mustLoadQuery("labeled_issues")
	projectItemsQuery = mustLoadQuery("project_items")
	addProjectItemMutation = mustLoadQuery("add_project_item")
	deleteProjectItemQuery = mustLoadQuery("delete_project_item")
}

func mustLoadQuery(name string) string {
	data, err := queryFiles.ReadFile("queries/" + name + ".graphql")
	if err != nil {
		panic(fmt.Sprintf("failed to load %s.graphql: %v", name, err))
	}
	return string(data)
}

// pageVars builds the variables shared by every paginated query.
func pageVars(after *string, extra map[string]any) map[string]any {
	vars := map[string]any{"first": perPage}
	if after != nil {
		vars["after"] = *after
	}
	for k, v := range extra {
		vars[k] = v
	}
	return vars
}
