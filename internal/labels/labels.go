// Package labels copies the labels of the issues a pull request closes onto
// the pull request itself.
package labels

import (
	"context"

	"github.com/spiffcs/repobot/internal/actions"
	"github.com/spiffcs/repobot/internal/log"
	"github.com/spiffcs/repobot/internal/model"
)

// Missing returns the labels found on any closing issue that the pull request
// does not carry yet. The result has no duplicates and keeps first-seen order.
func Missing(prLabels []string, issueLabels [][]string) []string {
	existing := make(map[string]struct{}, len(prLabels))
	for _, l := range prLabels {
		existing[l] = struct{}{}
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, issue := range issueLabels {
		for _, l := range issue {
			if _, ok := existing[l]; ok {
				continue
			}
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			missing = append(missing, l)
		}
	}
	return missing
}

// Client is the GitHub access the copier needs.
type Client interface {
	PullRequestLabels(ctx context.Context, prURL string) (*model.PullRequestLabels, error)
	AddLabels(ctx context.Context, repo model.Repo, number int, labels []string) error
}

// Copier runs the label copy for one pull request event.
type Copier struct {
	client Client
}

// NewCopier creates a Copier.
func NewCopier(client Client) *Copier {
	return &Copier{client: client}
}

// Run copies missing labels onto the pull request in actx. It returns the
// labels that were added.
//
// Runs that are not about a pull request return silently. Failures to read
// labels or to add them are logged and swallowed so the workflow stays green.
func (c *Copier) Run(ctx context.Context, actx *actions.Context) ([]string, error) {
	pr := actx.PullRequest
	if pr == nil || pr.GetHTMLURL() == "" {
		log.Debug("no pull request in event, nothing to do")
		return nil, nil
	}

	found, err := c.client.PullRequestLabels(ctx, pr.GetHTMLURL())
	if err != nil {
		log.Warn("error when fetching labels", "pr", pr.GetHTMLURL(), "error", err)
		return nil, nil
	}

	missing := Missing(found.PullRequest, found.ClosingIssues)
	if len(missing) == 0 {
		log.Info("pull request already carries every closing issue label", "pr", pr.GetHTMLURL())
		return nil, nil
	}

	if err := c.client.AddLabels(ctx, actx.Repo, pr.GetNumber(), missing); err != nil {
		log.Warn("error in adding labels", "pr", pr.GetHTMLURL(), "labels", missing, "error", err)
		return nil, nil
	}
	log.Info("added labels", "pr", pr.GetHTMLURL(), "labels", missing)
	return missing, nil
}
