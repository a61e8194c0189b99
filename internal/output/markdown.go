package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spiffcs/repobot/internal/credreport"
	"github.com/spiffcs/repobot/internal/model"
	"github.com/spiffcs/repobot/internal/projectsync"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct{}

// Findings outputs one section per user with a bullet per message.
func (f *MarkdownFormatter) Findings(findings []credreport.Finding, w io.Writer) error {
	fmt.Fprintln(w, "# Credential Report")
	if len(findings) == 0 {
		fmt.Fprintln(w, "\nNo credential issues found.")
		return nil
	}
	fmt.Fprintf(w, "\n*%d users need attention*\n", len(findings))
	for _, finding := range findings {
		fmt.Fprintf(w, "\n## %s\n\n", finding.Username)
		for _, msg := range finding.Messages {
			fmt.Fprintf(w, "- %s\n", msg)
		}
	}
	return nil
}

// ProjectResults outputs a summary table followed by the planned changes per project.
func (f *MarkdownFormatter) ProjectResults(results []projectsync.ProjectResult, w io.Writer) error {
	fmt.Fprintln(w, "# Project Sync")
	if len(results) == 0 {
		fmt.Fprintln(w, "\nNo projects opted in to autosync.")
		return nil
	}

	fmt.Fprintln(w, "\n| Project | Label | To add | To remove | Added | Removed | Failed |")
	fmt.Fprintln(w, "|---------|-------|--------|-----------|-------|---------|--------|")
	for _, r := range results {
		fmt.Fprintf(w, "| #%d %s | `%s` | %d | %d | %d | %d | %d |\n",
			r.Project.Number, r.Project.Title, r.Label,
			len(r.Plan.ToAdd), len(r.Plan.ToRemove), r.Added, r.Removed, r.Failed)
	}

	for _, r := range results {
		if r.Plan.Empty() {
			continue
		}
		fmt.Fprintf(w, "\n## #%d %s\n\n", r.Project.Number, r.Project.Title)
		for _, id := range r.Plan.ToAdd {
			fmt.Fprintf(w, "- add `%s`\n", id)
		}
		for _, item := range r.Plan.ToRemove {
			fmt.Fprintf(w, "- remove `%s` (item `%s`)\n", item.ContentID, item.ID)
		}
	}
	return nil
}

// Contributors outputs a ranked table.
func (f *MarkdownFormatter) Contributors(contributors []model.Contributor, w io.Writer) error {
	fmt.Fprintln(w, "# Top Contributors")
	if len(contributors) == 0 {
		fmt.Fprintln(w, "\nNo contributors found.")
		return nil
	}
	fmt.Fprintln(w, "\n| # | Login | Contributions |")
	fmt.Fprintln(w, "|---|-------|---------------|")
	for i, c := range contributors {
		fmt.Fprintf(w, "| %d | [%s](%s) | %d |\n", i+1, escapePipes(c.Login), c.ProfileURL, c.Contributions)
	}
	return nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
