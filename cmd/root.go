package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "repobot",
		Short: "Repository automation jobs",
		Long: `repobot bundles the automation jobs that keep our repositories tidy:
GitHub Actions steps (copy-labels, mark-check), the IAM credential report
alerts, contributor and project board syncs, and the Zenhub weekly report.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	flags.StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	flags.StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	flags.StringVar(&opts.Trace, "trace", "", "Write execution trace to file")

	rootCmd.AddCommand(NewCmdCopyLabels(opts))
	rootCmd.AddCommand(NewCmdMarkCheck(opts))
	rootCmd.AddCommand(NewCmdCredentials(opts))
	rootCmd.AddCommand(NewCmdContributors(opts))
	rootCmd.AddCommand(NewCmdProjects(opts))
	rootCmd.AddCommand(NewCmdWeekly(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdRateLimit())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
