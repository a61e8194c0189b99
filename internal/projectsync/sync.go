// Package projectsync keeps organization projects populated with the open
// issues that carry the label named in each project's README.
package projectsync

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/spiffcs/repobot/internal/log"
	"github.com/spiffcs/repobot/internal/model"
	"golang.org/x/sync/errgroup"
)

// ErrMutationsFailed is returned when at least one add or remove failed.
var ErrMutationsFailed = errors.New("project mutations failed")

// Client is the GitHub access the syncer needs.
type Client interface {
	OrganizationProjects(ctx context.Context, org string) ([]model.Project, error)
	LabeledOpenIssues(ctx context.Context, repo model.Repo, label string) (map[string]struct{}, error)
	ProjectItems(ctx context.Context, org string, number int) (string, []model.ProjectItem, error)
	AddProjectItem(ctx context.Context, projectID, contentID string) error
	DeleteProjectItem(ctx context.Context, projectID, itemID string) error
}

// Options configures a sync run.
type Options struct {
	Org   string
	Repos []model.Repo
	// Projects restricts the run to these project numbers. Empty means all.
	Projects []int
	DryRun   bool
}

// ProjectResult is the outcome for one opted-in project.
type ProjectResult struct {
	Project model.Project `json:"project"`
	Label   string        `json:"label"`
	Plan    Plan          `json:"plan"`
	Added   int           `json:"added"`
	Removed int           `json:"removed"`
	Failed  int           `json:"failed"`
}

// Syncer reconciles every opted-in project.
type Syncer struct {
	client Client
	opts   Options
	// progress, when set, is called as each project starts and finishes.
	progress func(ProjectEvent)
}

// ProjectEvent reports progress on one project.
type ProjectEvent struct {
	Number int
	Title  string
	// Index is the 1-based position among the Total opted-in projects.
	Index int
	Total int
	Done  bool
	Err   error
}

// NewSyncer creates a Syncer.
func NewSyncer(client Client, opts Options) *Syncer {
	return &Syncer{client: client, opts: opts}
}

// OnProgress registers fn to receive per-project progress.
func (s *Syncer) OnProgress(fn func(ProjectEvent)) {
	s.progress = fn
}

func (s *Syncer) report(e ProjectEvent) {
	if s.progress != nil {
		s.progress(e)
	}
}

// Run syncs every project whose README opts in. Projects with an invalid
// config are logged and skipped. Mutation failures are counted per project;
// Run returns ErrMutationsFailed after all projects are processed if any occurred.
func (s *Syncer) Run(ctx context.Context) ([]ProjectResult, error) {
	projects, err := s.client.OrganizationProjects(ctx, s.opts.Org)
	if err != nil {
		return nil, err
	}
	log.Info("loaded projects", "org", s.opts.Org, "count", len(projects))

	wanted := make(map[int]bool, len(s.opts.Projects))
	for _, n := range s.opts.Projects {
		wanted[n] = true
	}

	type optedIn struct {
		project model.Project
		label   string
	}
	var selected []optedIn
	for _, p := range projects {
		if len(wanted) > 0 && !wanted[p.Number] {
			continue
		}
		cfg, ok, err := ParseAutosyncConfig(p.Readme)
		if !ok {
			continue
		}
		if err != nil {
			log.Warn("skipping project with invalid autosync config", "project", p.Title, "error", err)
			continue
		}
		selected = append(selected, optedIn{project: p, label: cfg.Label})
	}

	var results []ProjectResult
	failed := 0
	for i, o := range selected {
		p := o.project
		event := ProjectEvent{Number: p.Number, Title: p.Title, Index: i + 1, Total: len(selected)}
		log.Info("syncing project", "project", p.Title, "number", p.Number, "label", o.label)
		s.report(event)

		res, err := s.syncProject(ctx, p, o.label)
		event.Done = true
		if err != nil {
			event.Err = err
			s.report(event)
			return results, fmt.Errorf("project %q: %w", p.Title, err)
		}
		failed += res.Failed
		s.report(event)
		results = append(results, res)
	}

	if failed > 0 {
		return results, fmt.Errorf("%w: %d", ErrMutationsFailed, failed)
	}
	return results, nil
}

func (s *Syncer) syncProject(ctx context.Context, p model.Project, label string) (ProjectResult, error) {
	expected, err := s.expectedIssues(ctx, label)
	if err != nil {
		return ProjectResult{}, err
	}

	projectID, items, err := s.client.ProjectItems(ctx, s.opts.Org, p.Number)
	if err != nil {
		return ProjectResult{}, err
	}

	plan := Reconcile(expected, items)
	log.Info("project plan", "project", p.Title, "expected", len(expected), "present", len(items),
		"toAdd", len(plan.ToAdd), "toRemove", len(plan.ToRemove))

	if log.IsDebug() {
		for _, contentID := range plan.ToAdd {
			log.Debug("plan add", "project", p.Title, "content", contentID)
		}
		for _, item := range plan.ToRemove {
			log.Debug("plan remove", "project", p.Title, "content", item.ContentID, "item", item.ID)
		}
	}

	res := ProjectResult{Project: p, Label: label, Plan: plan}
	if s.opts.DryRun {
		return res, nil
	}

	for _, contentID := range plan.ToAdd {
		if err := s.client.AddProjectItem(ctx, projectID, contentID); err != nil {
			log.Warn("failed to add project item", "project", p.Title, "content", contentID, "error", err)
			res.Failed++
			continue
		}
		res.Added++
	}
	for _, item := range plan.ToRemove {
		if err := s.client.DeleteProjectItem(ctx, projectID, item.ID); err != nil {
			log.Warn("failed to remove project item", "project", p.Title, "item", item.ID, "error", err)
			res.Failed++
			continue
		}
		res.Removed++
	}
	return res, nil
}

// expectedIssues fetches the labeled issues of every repository concurrently.
func (s *Syncer) expectedIssues(ctx context.Context, label string) (map[string]struct{}, error) {
	sets := make([]map[string]struct{}, len(s.opts.Repos))

	g, gctx := errgroup.WithContext(ctx)
	for i, repo := range s.opts.Repos {
		g.Go(func() error {
			ids, err := s.client.LabeledOpenIssues(gctx, repo, label)
			if err != nil {
				return err
			}
			sets[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	expected := make(map[string]struct{})
	for _, set := range sets {
		maps.Copy(expected, set)
	}
	return expected, nil
}
