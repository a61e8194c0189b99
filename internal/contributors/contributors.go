// Package contributors keeps the Top Contributors section of a repository
// README in sync with the repository's contributor list.
package contributors

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spiffcs/repobot/internal/log"
	"github.com/spiffcs/repobot/internal/model"
)

// Defaults for Options.
const (
	DefaultTeamBonus      = 1000
	DefaultMinTeamMembers = 100
	DefaultReadmePath     = "README.md"
	DefaultCommitMessage  = "Update top contributors"
)

// ErrTooFewMembers guards against committing a README built from a partial member list.
var ErrTooFewMembers = errors.New("too few team members")

// Merge drops bot accounts and adds bonus to every contributor who is a team
// member. It returns the adjusted contributors and the team members who have
// not contributed, in the order they were given.
func Merge(all []model.Contributor, members []string, bonus int) ([]model.Contributor, []string) {
	pending := make(map[string]bool, len(members))
	for _, m := range members {
		pending[m] = true
	}

	merged := make([]model.Contributor, 0, len(all))
	for _, c := range all {
		if strings.HasSuffix(c.Login, "-bot") {
			continue
		}
		if pending[c.Login] {
			c.Contributions += bonus
			delete(pending, c.Login)
		}
		merged = append(merged, c)
	}

	var missing []string
	for _, m := range members {
		if pending[m] {
			missing = append(missing, m)
			delete(pending, m)
		}
	}
	return merged, missing
}

// Sort orders contributors by contribution count, highest first. Ties keep their order.
func Sort(contributors []model.Contributor) {
	slices.SortStableFunc(contributors, func(a, b model.Contributor) int {
		return cmp.Compare(b.Contributions, a.Contributions)
	})
}

// Client is the GitHub access the syncer needs.
type Client interface {
	OrganizationMembers(ctx context.Context, org string) ([]string, error)
	RepositoryContributors(ctx context.Context, repo model.Repo) ([]model.Contributor, error)
	User(ctx context.Context, login string) (model.Contributor, error)
	FileContent(ctx context.Context, repo model.Repo, path string) (content, sha string, err error)
	UpdateFile(ctx context.Context, repo model.Repo, path, message, content, sha string) error
}

// Options configures a sync run.
type Options struct {
	Org            string
	Repo           model.Repo
	ReadmePath     string
	CommitMessage  string
	TeamBonus      int
	MinTeamMembers int
	// ExtraMembers are treated as team members without belonging to Org.
	ExtraMembers []string
	DryRun       bool
}

func (o *Options) setDefaults() {
	if o.ReadmePath == "" {
		o.ReadmePath = DefaultReadmePath
	}
	if o.CommitMessage == "" {
		o.CommitMessage = DefaultCommitMessage
	}
}

// Result reports the outcome of a sync.
type Result struct {
	Contributors []model.Contributor
	Readme       string
	Changed      bool
	Committed    bool
}

// Syncer regenerates the README section and commits it.
type Syncer struct {
	client Client
	opts   Options
}

// NewSyncer creates a Syncer.
func NewSyncer(client Client, opts Options) *Syncer {
	opts.setDefaults()
	return &Syncer{client: client, opts: opts}
}

// Run builds the contributor list and updates the README when it changed.
// With DryRun set the new README is returned but not committed.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	members, err := s.client.OrganizationMembers(ctx, s.opts.Org)
	if err != nil {
		return nil, err
	}
	log.Info("found team members", "org", s.opts.Org, "count", len(members))
	if len(members) < s.opts.MinTeamMembers {
		return nil, fmt.Errorf("%w: found %d, expected at least %d", ErrTooFewMembers, len(members), s.opts.MinTeamMembers)
	}
	members = append(members, s.opts.ExtraMembers...)

	all, err := s.client.RepositoryContributors(ctx, s.opts.Repo)
	if err != nil {
		return nil, err
	}

	merged, missing := Merge(all, members, s.opts.TeamBonus)
	for _, login := range missing {
		user, err := s.client.User(ctx, login)
		if err != nil {
			return nil, err
		}
		user.Login = login
		user.Contributions = s.opts.TeamBonus
		merged = append(merged, user)
	}
	Sort(merged)
	log.Debug("merged contributors", "count", len(merged), "membersWithoutCommits", len(missing))

	old, sha, err := s.client.FileContent(ctx, s.opts.Repo, s.opts.ReadmePath)
	if err != nil {
		return nil, err
	}
	readme, err := RewriteReadme(old, Lines(merged))
	if err != nil {
		return nil, err
	}

	result := &Result{Contributors: merged, Readme: readme, Changed: readme != old}
	if !result.Changed {
		log.Info("no change to README", "path", s.opts.ReadmePath)
		return result, nil
	}
	if s.opts.DryRun {
		log.Info("dry run, not committing README", "path", s.opts.ReadmePath)
		return result, nil
	}

	if err := s.client.UpdateFile(ctx, s.opts.Repo, s.opts.ReadmePath, s.opts.CommitMessage, readme, sha); err != nil {
		return nil, err
	}
	result.Committed = true
	log.Info("committed README", "repo", s.opts.Repo, "path", s.opts.ReadmePath, "contributors", len(merged))
	return result, nil
}
