package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spiffcs/repobot/config"
	"github.com/spiffcs/repobot/internal/contributors"
	"github.com/spiffcs/repobot/internal/tui"
)

// NewCmdContributors creates the contributors command with subcommands.
func NewCmdContributors(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contributors",
		Short: "Maintain the top contributors section of a README",
	}
	cmd.AddCommand(newCmdContributorsSync(opts))
	return cmd
}

func newCmdContributorsSync(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Regenerate the top contributors section and commit it",
		Long: `Rank the repository's contributors, boost members of the organization by
the configured team bonus, and rewrite the "Top Contributors" README section.

The README is only committed when the section changed. With --dry-run the new
README is printed instead. The token is read from GITHUB_TOKEN_FOR_CONTRIBUTORS,
falling back to GITHUB_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runContributorsSync(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the new README instead of committing it")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format for the ranking (table, json, markdown)")
	addTUIFlag(cmd, opts)

	return cmd
}

func runContributorsSync(cmd *cobra.Command, opts *Options) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := cfg.ContributorsRepo()
	if err != nil {
		return err
	}

	rt, cleanup, err := setupRuntime(opts, cmd.CommandPath(), tui.ContributorSyncTasks())
	if err != nil {
		return err
	}
	defer cleanup()

	formatter, err := rt.formatter(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := rt.newGitHubClient(ctx, cfg, cfg.ContributorsToken(), config.EnvContributorsGitHubToken)
	if err != nil {
		rt.sendEvent(tui.TaskAuth, tui.StatusError, tui.WithError(err))
		return err
	}

	rt.sendEvent(tui.TaskSync, tui.StatusRunning, tui.WithMessage(repo.String()))
	syncer := contributors.NewSyncer(client, contributors.Options{
		Org:            cfg.Contributors.Org,
		Repo:           repo,
		ReadmePath:     cfg.Contributors.ReadmePath,
		CommitMessage:  cfg.Contributors.CommitMessage,
		TeamBonus:      cfg.Contributors.TeamBonus,
		MinTeamMembers: cfg.Contributors.MinTeamMembers,
		ExtraMembers:   cfg.Contributors.ExtraMembers,
		DryRun:         opts.DryRun,
	})
	result, err := syncer.Run(ctx)
	if err != nil {
		rt.sendEvent(tui.TaskSync, tui.StatusError, tui.WithError(err))
		rt.reportRateLimit(client, err)
		return err
	}

	rt.sendEvent(tui.TaskSync, tui.StatusComplete, tui.WithCount(len(result.Contributors)))

	status := "unchanged"
	switch {
	case result.Committed:
		status = "committed"
	case result.Changed && opts.DryRun:
		status = "changed (dry run)"
	case result.Changed:
		status = "changed, not committed"
	}
	if result.Changed {
		rt.sendEvent(tui.TaskProcess, tui.StatusComplete, tui.WithMessage(status))
	} else {
		rt.sendEvent(tui.TaskProcess, tui.StatusSkipped, tui.WithMessage(status))
	}

	// Let the TUI render its final state before printing.
	rt.close()

	out := cmd.OutOrStdout()
	if opts.DryRun {
		fmt.Fprint(out, result.Readme)
		return nil
	}
	if err := formatter.Contributors(result.Contributors, out); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nREADME %s\n", status)
	return nil
}
