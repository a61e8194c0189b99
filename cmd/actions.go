package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spiffcs/repobot/config"
	"github.com/spiffcs/repobot/internal/actions"
	"github.com/spiffcs/repobot/internal/checks"
	"github.com/spiffcs/repobot/internal/labels"
	"github.com/spiffcs/repobot/internal/log"
)

// inputAccessToken is the step input carrying the GitHub token.
const inputAccessToken = "accessToken"

// NewCmdCopyLabels creates the copy-labels action command.
func NewCmdCopyLabels(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "copy-labels",
		Short: "Copy labels from closing issues onto the pull request",
		Long: `Copy labels from the issues a pull request closes onto the pull request.

Runs as a GitHub Actions step on pull request events. Runs that are not about
a pull request do nothing. The token is read from the accessToken input or
GITHUB_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, opts, runCopyLabels)
		},
	}
}

// NewCmdMarkCheck creates the mark-check action command.
func NewCmdMarkCheck(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-check",
		Short: "Complete a check run on the pull request head",
		Long: `Mark the check run named by the jobName input as completed on the head
commit of the triggering pull request, creating it if it does not exist.

Inputs: accessToken, jobName, checkTitle, conclusion, repository, run_id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAction(cmd, opts, runMarkCheck)
		},
	}
}

type actionFunc func(cmd *cobra.Command, rt *jobRuntime, cfg *config.Config, actx *actions.Context) error

// runAction loads the runner context and reports a failure as an error
// annotation before returning it, so the step exits non-zero.
func runAction(cmd *cobra.Command, opts *Options, fn actionFunc) (err error) {
	rt, cleanup, err := setupRuntime(opts, "", nil)
	if err != nil {
		return err
	}
	defer cleanup()

	defer func() {
		if err != nil {
			actions.Fail(os.Stdout, err)
		}
	}()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	actx, err := actions.Load()
	if err != nil {
		return err
	}
	return fn(cmd, rt, cfg, actx)
}

// actionToken returns the accessToken input, falling back to GITHUB_TOKEN.
func actionToken(cfg *config.Config, actx *actions.Context) string {
	if token := actx.Input(inputAccessToken); token != "" {
		return token
	}
	return cfg.GitHubToken()
}

func runCopyLabels(cmd *cobra.Command, rt *jobRuntime, cfg *config.Config, actx *actions.Context) error {
	if actx.PullRequest == nil {
		log.Info("not a pull request event, nothing to do", "event", actx.EventName)
		return nil
	}

	ctx := cmd.Context()
	client, err := rt.newGitHubClient(ctx, cfg, actionToken(cfg, actx), config.EnvGitHubToken)
	if err != nil {
		return err
	}

	added, err := labels.NewCopier(client).Run(ctx, actx)
	if err != nil {
		return err
	}
	if len(added) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Added labels: %v\n", added)
	}
	return nil
}

func runMarkCheck(cmd *cobra.Command, rt *jobRuntime, cfg *config.Config, actx *actions.Context) error {
	if actx.PullRequest == nil {
		return fmt.Errorf("%w (event %q)", checks.ErrNotPullRequest, actx.EventName)
	}

	req := checks.Request{
		Repo:          actx.Repo,
		PRNumber:      actx.PullRequest.GetNumber(),
		Title:         actx.Input("checkTitle"),
		Conclusion:    actx.Input("conclusion"),
		RunRepository: actx.Input("repository"),
		RunID:         actx.Input("run_id"),
	}
	var err error
	if req.JobName, err = actx.RequiredInput("jobName"); err != nil {
		return err
	}
	if req.RunRepository == "" {
		req.RunRepository = actx.Repo.String()
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := rt.newGitHubClient(ctx, cfg, actionToken(cfg, actx), config.EnvGitHubToken)
	if err != nil {
		return err
	}

	res, err := checks.Mark(ctx, client, req)
	if err != nil {
		if errors.Is(err, checks.ErrNotPullRequest) {
			return err
		}
		return fmt.Errorf("failed to mark check %q: %w", req.JobName, err)
	}

	verb := "Updated"
	if res.Created {
		verb = "Created"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s check run %d (%s: %s)\n", verb, res.CheckRunID, req.JobName, req.Conclusion)
	return nil
}
