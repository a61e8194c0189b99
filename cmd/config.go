package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spiffcs/repobot/config"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage configuration. Without a subcommand, prints the merged
configuration.

Settings load in order: defaults, ~/.config/repobot/config.yaml, ./.repobot.yaml,
then REPOBOT_* environment variables. A double underscore separates nested keys:
REPOBOT_WEEKLY__POD_NAME sets weekly.pod_name. A .env file in the working
directory is loaded first. Tokens are never read from files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.OutOrStdout(), format)
		},
	}
	addConfigFormatFlag(cmd, &format)

	cmd.AddCommand(newCmdConfigShow())
	cmd.AddCommand(newCmdConfigDefaults())
	cmd.AddCommand(newCmdConfigPath())
	cmd.AddCommand(newCmdConfigEnv())
	cmd.AddCommand(newCmdConfigInit())

	return cmd
}

func addConfigFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", "yaml", "Output format (yaml, json)")
}

func newCmdConfigShow() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.OutOrStdout(), format)
		},
	}
	addConfigFormatFlag(cmd, &format)
	return cmd
}

func newCmdConfigDefaults() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show the built-in defaults",
		Long: `Show a complete configuration holding only built-in defaults. Redirect it to
start a config file:

  repobot config defaults > ~/.config/repobot/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printConfig(cmd.OutOrStdout(), config.DefaultConfig(), format)
		},
	}
	addConfigFormatFlag(cmd, &format)
	return cmd
}

func newCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			paths := config.GetConfigPaths()
			fmt.Fprintf(w, "Global: %s (%s)\n", paths.GlobalPath, existence(paths.GlobalExists))
			fmt.Fprintf(w, "Local:  %s (%s)\n", paths.LocalPath, existence(paths.LocalExists))
			return nil
		},
	}
}

func newCmdConfigEnv() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show which credential environment variables are set",
		Long: `List the environment variables the jobs read credentials from and whether
each one is set. Values are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printEnvStatus(cmd.OutOrStdout(), os.Getenv)
			return nil
		},
	}
}

func newCmdConfigInit() *cobra.Command {
	var global, local bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file",
		Long: `Create a starter config file. Use --global for ~/.config/repobot/config.yaml
or --local for ./.repobot.yaml; without either you are asked which one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if global && local {
				return fmt.Errorf("cannot specify both --global and --local")
			}
			paths := config.GetConfigPaths()
			target := ""
			switch {
			case global:
				target = paths.GlobalPath
			case local:
				target = paths.LocalPath
			default:
				var err error
				if target, err = promptConfigTarget(cmd.InOrStdin(), cmd.OutOrStdout(), paths); err != nil {
					return err
				}
			}
			return initConfig(cmd.OutOrStdout(), target)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create the global config file")
	cmd.Flags().BoolVar(&local, "local", false, "Create the local config file")

	return cmd
}

// credentialEnvVars are the variables printed by config env, with what reads them.
var credentialEnvVars = []struct {
	name, usedBy string
}{
	{config.EnvGitHubToken, "copy-labels, mark-check, fallback for the syncs"},
	{config.EnvContributorsGitHubToken, "contributors sync"},
	{config.EnvProjectsGitHubToken, "projects sync"},
	{config.EnvZenhubKey, "weekly"},
	{"SLACK_TOKEN", "credentials alert (outside Lambda)"},
	{"AWS_SECRET_NAME", "credentials alert (inside Lambda)"},
}

func printEnvStatus(w io.Writer, getenv func(string) string) {
	for _, v := range credentialEnvVars {
		state := "unset"
		if getenv(v.name) != "" {
			state = "set"
		}
		fmt.Fprintf(w, "%-32s %-6s %s\n", v.name, state, v.usedBy)
	}
}

func existence(exists bool) string {
	if exists {
		return "exists"
	}
	return "not found"
}

func promptConfigTarget(in io.Reader, out io.Writer, paths config.ConfigPathInfo) (string, error) {
	fmt.Fprintln(out, "Where would you like to create the config file?")
	fmt.Fprintf(out, "  [1] Global (%s)\n", paths.GlobalPath)
	fmt.Fprintf(out, "  [2] Local (%s)\n", paths.LocalPath)
	fmt.Fprint(out, "Choose [1/2]: ")

	choice, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && choice == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	switch strings.TrimSpace(choice) {
	case "1":
		return paths.GlobalPath, nil
	case "2":
		return paths.LocalPath, nil
	default:
		return "", fmt.Errorf("invalid choice: %q (must be 1 or 2)", strings.TrimSpace(choice))
	}
}

func initConfig(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := config.SaveTo(path, config.MinimalConfig()); err != nil {
		return err
	}
	fmt.Fprintf(w, "Created %s\n", path)
	fmt.Fprintln(w, "Run 'repobot config defaults' to see every option.")
	return nil
}

func showConfig(w io.Writer, format string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return printConfig(w, cfg, format)
}

func printConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		out, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, out)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}
}
