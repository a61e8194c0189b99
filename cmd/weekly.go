package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
	"github.com/spiffcs/repobot/config"
	"github.com/spiffcs/repobot/internal/log"
	"github.com/spiffcs/repobot/internal/server"
	"github.com/spiffcs/repobot/internal/weekly"
	"github.com/spiffcs/repobot/internal/zenhub"
)

// NewCmdWeekly creates the weekly command with subcommands.
func NewCmdWeekly(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Generate the weekly updates report from Zenhub sprints",
		Long: `Generate the weekly updates report for the configured Zenhub workspace:
what the team closed this week and what it is working on.

Subcommands:
  report  Print the report as Markdown
  serve   Run the local development server
  lambda  Serve the report as an AWS Lambda handler

The Zenhub API key is read from ZENHUB_KEY.`,
	}

	cmd.AddCommand(newCmdWeeklyReport(opts))
	cmd.AddCommand(newCmdWeeklyServe(opts))
	cmd.AddCommand(newCmdWeeklyLambda(opts))

	return cmd
}

func newCmdWeeklyReport(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the weekly report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cleanup, err := setupRuntime(opts, "", nil)
			if err != nil {
				return err
			}
			defer cleanup()

			gen, _, err := newWeeklyGenerator()
			if err != nil {
				return err
			}
			report, err := gen.Generate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newCmdWeeklyServe(opts *Options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development server",
		Long: `Run a local HTTP server exposing the report handler:

  ANY /lambda               invoke the handler as API Gateway would
  GET /report?format=html   the report rendered to HTML
  GET /healthz              liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cleanup, err := setupRuntime(opts, "", nil)
			if err != nil {
				return err
			}
			defer cleanup()

			gen, cfg, err := newWeeklyGenerator()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Weekly.Addr
			}
			srv := server.New(server.Config{Addr: addr, HandlerTimeout: cfg.Weekly.HandlerTimeout}, weekly.Handler(gen))

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Warn("server shutdown failed", "error", err)
				}
			}()
			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :3000)")

	return cmd
}

func newCmdWeeklyLambda(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve the report as a Lambda function",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			log.InitializeJSON(max(opts.Verbosity, 1), os.Stderr)
			gen, _, err := newWeeklyGenerator()
			if err != nil {
				return err
			}
			lambda.Start(weekly.Handler(gen))
			return nil
		},
	}
}

func newWeeklyGenerator() (*weekly.Generator, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateWeekly(); err != nil {
		return nil, nil, err
	}
	client, err := zenhub.NewClient(cfg.ZenhubToken())
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set %s)", err, config.EnvZenhubKey)
	}
	return weekly.NewGenerator(client, cfg.Weekly.PodName, cfg.Weekly.Repo), cfg, nil
}
