package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/spf13/cobra"
	"github.com/spiffcs/repobot/config"
	"github.com/spiffcs/repobot/internal/credreport"
	"github.com/spiffcs/repobot/internal/log"
	"github.com/spiffcs/repobot/internal/notify"
	"github.com/spiffcs/repobot/internal/secrets"
)

// NewCmdCredentials creates the credentials command with subcommands.
func NewCmdCredentials(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Check IAM credentials against the rotation policy",
		Long: `Check the IAM credential report for passwords and access keys that are
due for rotation or missing MFA.

Subcommands:
  alert   Message affected users on Slack and send the digest
  report  Print the findings without sending anything
  lambda  Run the alert job as an AWS Lambda handler`,
	}

	cmd.AddCommand(newCmdCredentialsAlert(opts))
	cmd.AddCommand(newCmdCredentialsReport(opts))
	cmd.AddCommand(newCmdCredentialsLambda(opts))

	return cmd
}

func newCmdCredentialsAlert(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "alert",
		Short: "Alert users with credential findings on Slack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cleanup, err := setupRuntime(opts, "", nil)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := runCredentialAlert(cmd.Context())
			printAlertSummary(cmd.OutOrStdout(), summary, err)
			return err
		},
	}
}

// printAlertSummary reports the alert counts. A run that failed before
// finding anything prints nothing.
func printAlertSummary(w io.Writer, summary credreport.Summary, err error) {
	if err != nil && len(summary.Findings) == 0 {
		return
	}
	fmt.Fprintf(w, "%d users with findings: %d alerted, %d skipped, %d digests sent\n",
		len(summary.Findings), summary.Alerted, summary.Skipped, summary.Digests)
}

func newCmdCredentialsReport(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print credential findings without alerting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, cleanup, err := setupRuntime(opts, "", nil)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			formatter, err := rt.formatter(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			fetcher, err := newReportFetcher(ctx, cfg)
			if err != nil {
				return err
			}
			policy := credreport.Policy{PasswordPolicyURL: cfg.Credentials.PasswordPolicyURL}
			findings, err := credreport.Findings(ctx, fetcher, policy, time.Now())
			if err != nil {
				return err
			}
			return formatter.Findings(findings, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (table, json, markdown)")

	return cmd
}

func newCmdCredentialsLambda(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve the alert job as a Lambda function",
		Long: `Start the AWS Lambda runtime loop. Each invocation runs the alert job and
answers with status 200 and body "Done". Logs are written as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			log.InitializeJSON(max(opts.Verbosity, 1), os.Stderr)
			lambda.Start(credentialLambdaHandler)
			return nil
		},
	}
}

func credentialLambdaHandler(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	summary, err := runCredentialAlert(ctx)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	log.Info("credential alerts sent", "users", len(summary.Findings), "alerted", summary.Alerted, "digests", summary.Digests)
	return events.APIGatewayProxyResponse{StatusCode: 200, Body: "Done"}, nil
}

// runCredentialAlert wires the IAM fetcher, the Slack notifier and the
// configured policy into one alert run.
func runCredentialAlert(ctx context.Context) (credreport.Summary, error) {
	cfg, err := loadConfig()
	if err != nil {
		return credreport.Summary{}, err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return credreport.Summary{}, err
	}

	creds, err := secrets.Load(ctx, cfg.Credentials.SecretName)
	if err != nil {
		return credreport.Summary{}, err
	}
	slack, err := notify.NewSlackFromToken(creds.SlackToken,
		notify.WithEmailDomain(cfg.Credentials.EmailDomain),
		notify.WithEmailAliases(cfg.Credentials.EmailAliases),
		notify.WithSignInURL(cfg.Credentials.SignInURL),
		notify.WithHelpChannel(cfg.Credentials.HelpChannel),
	)
	if err != nil {
		return credreport.Summary{}, err
	}

	fetcher, err := newReportFetcher(ctx, cfg)
	if err != nil {
		return credreport.Summary{}, err
	}

	policy := credreport.Policy{PasswordPolicyURL: cfg.Credentials.PasswordPolicyURL}
	return credreport.NewAlerter(fetcher, slack, policy, cfg.Credentials.Recipients).Run(ctx)
}

func newReportFetcher(ctx context.Context, cfg *config.Config) (*credreport.Fetcher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Credentials.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return credreport.NewFetcher(iam.NewFromConfig(awsCfg)), nil
}
