package cmd

import (
	"fmt"
	"io"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"
	"github.com/spiffcs/repobot/config"
	"github.com/spiffcs/repobot/internal/ghclient"
)

// NewCmdRateLimit creates the ratelimit command.
func NewCmdRateLimit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Check GitHub API rate limit status",
		Long:  `Display current GitHub API rate limit status including remaining quota and reset time.`,
	}
	cmd.AddCommand(NewCmdRateLimitStatus())
	return cmd
}

// NewCmdRateLimitStatus creates the ratelimit status subcommand.
func NewCmdRateLimitStatus() *cobra.Command {
	var tokenVar string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current rate limit status",
		Long: `Display the current GitHub API rate limit status for the core, search and
GraphQL APIs. Use --token-env to check the token of a specific job.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRateLimitStatus(cmd, tokenVar)
		},
	}
	cmd.Flags().StringVar(&tokenVar, "token-env", config.EnvGitHubToken,
		"Environment variable holding the token to check")
	return cmd
}

func runRateLimitStatus(cmd *cobra.Command, tokenVar string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	token := cfg.TokenFromEnv(tokenVar)
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the %s environment variable", tokenVar)
	}

	var opts []ghclient.Option
	if cfg.GitHub.BaseURL != "" {
		opts = append(opts, ghclient.WithBaseURL(cfg.GitHub.BaseURL))
	}
	client, err := ghclient.NewClient(cmd.Context(), token, opts...)
	if err != nil {
		return err
	}

	limits, err := client.RateLimits(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "GitHub API Rate Limits:")
	fmt.Fprintln(w)
	printRate(w, "Core API:  ", limits.Core)
	printRate(w, "Search API:", limits.Search)
	printRate(w, "GraphQL:   ", limits.GraphQL)
	return nil
}

func printRate(w io.Writer, label string, rate *gh.Rate) {
	if rate == nil {
		return
	}
	resetIn := max(time.Until(rate.Reset.Time).Round(time.Second), 0)
	fmt.Fprintf(w, "%s %d/%d remaining (resets in %s)\n", label, rate.Remaining, rate.Limit, resetIn)
}
