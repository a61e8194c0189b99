package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spiffcs/repobot/config"
	"github.com/spiffcs/repobot/internal/log"
	"github.com/spiffcs/repobot/internal/projectsync"
	"github.com/spiffcs/repobot/internal/tui"
)

// NewCmdProjects creates the projects command with subcommands.
func NewCmdProjects(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Keep organization project boards in sync with labeled issues",
	}
	cmd.AddCommand(newCmdProjectsSync(opts))
	return cmd
}

func newCmdProjectsSync(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Add and remove project items to match their label",
		Long: `Sync every organization project that opts in with an autosync block in
its README:

    ` + "```autosync" + `
    {"label": "roadmap"}
    ` + "```" + `

Open issues carrying the label in the configured repositories are added to the
project; items whose content no longer carries it are removed. The token is
read from GITHUB_TOKEN_FOR_SYNC_PROJECTS, falling back to GITHUB_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProjectsSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the plan without changing any project")
	cmd.Flags().IntSliceVarP(&opts.Projects, "project", "p", nil, "Only sync these project numbers (repeatable)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (table, json, markdown)")
	addTUIFlag(cmd, opts)

	return cmd
}

func runProjectsSync(cmd *cobra.Command, opts *Options) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repos, err := cfg.ProjectRepos()
	if err != nil {
		return err
	}
	projects := opts.Projects
	if len(projects) == 0 {
		projects = cfg.Projects.Numbers
	}

	rt, cleanup, err := setupRuntime(opts, cmd.CommandPath(), tui.ProjectSyncTasks())
	if err != nil {
		return err
	}
	defer cleanup()

	formatter, err := rt.formatter(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := rt.newGitHubClient(ctx, cfg, cfg.ProjectsToken(), config.EnvProjectsGitHubToken)
	if err != nil {
		rt.sendEvent(tui.TaskAuth, tui.StatusError, tui.WithError(err))
		return err
	}

	syncer := projectsync.NewSyncer(client, projectsync.Options{
		Org:      cfg.Projects.Org,
		Repos:    repos,
		Projects: projects,
		DryRun:   opts.DryRun,
	})

	rt.sendEvent(tui.TaskFetch, tui.StatusRunning, tui.WithMessage(cfg.Projects.Org))
	fetched := false
	syncer.OnProgress(func(e projectsync.ProjectEvent) {
		if !fetched {
			fetched = true
			rt.sendEvent(tui.TaskFetch, tui.StatusComplete, tui.WithCount(e.Total))
		}
		if !rt.useTUI {
			log.Progress("Syncing projects %d/%d", e.Index, e.Total)
			if e.Done && e.Index == e.Total {
				log.ProgressDone()
			}
			return
		}
		msg := fmt.Sprintf("%d/%d %s", e.Index, e.Total, e.Title)
		done := e.Index - 1
		if e.Done {
			done = e.Index
		}
		rt.sendEvent(tui.TaskSync, tui.StatusRunning,
			tui.WithMessage(msg),
			tui.WithProgress(float64(done)/float64(e.Total)))
	})

	results, err := syncer.Run(ctx)
	switch {
	case err != nil && !errors.Is(err, projectsync.ErrMutationsFailed):
		task := tui.TaskSync
		if !fetched {
			task = tui.TaskFetch
		}
		rt.sendEvent(task, tui.StatusError, tui.WithError(err))
		rt.reportRateLimit(client, err)
		return err
	case err != nil:
		// Mutation failures still leave results worth printing.
		rt.sendEvent(tui.TaskSync, tui.StatusError, tui.WithError(err))
	case !fetched:
		rt.sendEvent(tui.TaskFetch, tui.StatusComplete, tui.WithCount(0))
		rt.sendEvent(tui.TaskSync, tui.StatusSkipped)
	default:
		rt.sendEvent(tui.TaskSync, tui.StatusComplete, tui.WithCount(len(results)))
	}

	rt.close()

	if ferr := formatter.ProjectResults(results, cmd.OutOrStdout()); ferr != nil {
		return ferr
	}
	return err
}
