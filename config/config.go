// Package config loads repobot settings from YAML files and REPOBOT_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spiffcs/repobot/internal/model"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: REPOBOT_WEEKLY__POD_NAME sets weekly.pod_name.
const EnvPrefix = "REPOBOT_"

// Token environment variables. Tokens are only ever read from the environment.
const (
	EnvGitHubToken             = "GITHUB_TOKEN"
	EnvContributorsGitHubToken = "GITHUB_TOKEN_FOR_CONTRIBUTORS"
	EnvProjectsGitHubToken     = "GITHUB_TOKEN_FOR_SYNC_PROJECTS"
	EnvZenhubKey               = "ZENHUB_KEY"
)

// Config represents the application configuration
type Config struct {
	DefaultFormat string `yaml:"default_format" koanf:"default_format"`

	GitHub       GitHubConfig       `yaml:"github" koanf:"github"`
	Credentials  CredentialsConfig  `yaml:"credentials" koanf:"credentials"`
	Contributors ContributorsConfig `yaml:"contributors" koanf:"contributors"`
	Projects     ProjectsConfig     `yaml:"projects" koanf:"projects"`
	Weekly       WeeklyConfig       `yaml:"weekly" koanf:"weekly"`
}

// GitHubConfig holds GitHub API settings shared by every GitHub job.
type GitHubConfig struct {
	// BaseURL overrides the REST endpoint, e.g. for GitHub Enterprise.
	BaseURL string `yaml:"base_url,omitempty" koanf:"base_url"`
}

// CredentialsConfig configures the IAM credential report alerts.
type CredentialsConfig struct {
	Region            string            `yaml:"region" koanf:"region"`
	SecretName        string            `yaml:"secret_name,omitempty" koanf:"secret_name"`
	EmailDomain       string            `yaml:"email_domain" koanf:"email_domain"`
	EmailAliases      map[string]string `yaml:"email_aliases,omitempty" koanf:"email_aliases"`
	Recipients        []string          `yaml:"recipients" koanf:"recipients"`
	SignInURL         string            `yaml:"sign_in_url,omitempty" koanf:"sign_in_url"`
	HelpChannel       string            `yaml:"help_channel,omitempty" koanf:"help_channel"`
	PasswordPolicyURL string            `yaml:"password_policy_url,omitempty" koanf:"password_policy_url"`
}

// ContributorsConfig configures the README contributor sync.
type ContributorsConfig struct {
	Org            string   `yaml:"org" koanf:"org"`
	Repo           string   `yaml:"repo" koanf:"repo"`
	ReadmePath     string   `yaml:"readme_path" koanf:"readme_path"`
	CommitMessage  string   `yaml:"commit_message" koanf:"commit_message"`
	TeamBonus      int      `yaml:"team_bonus" koanf:"team_bonus"`
	MinTeamMembers int      `yaml:"min_team_members" koanf:"min_team_members"`
	ExtraMembers   []string `yaml:"extra_members,omitempty" koanf:"extra_members"`
}

// ProjectsConfig configures the project board sync.
type ProjectsConfig struct {
	Org   string   `yaml:"org" koanf:"org"`
	Repos []string `yaml:"repos" koanf:"repos"`
	// Numbers restricts the sync to these projects. Empty means every opted-in project.
	Numbers []int `yaml:"numbers,omitempty" koanf:"numbers"`
}

// WeeklyConfig configures the Zenhub weekly report.
type WeeklyConfig struct {
	PodName        string        `yaml:"pod_name" koanf:"pod_name"`
	Repo           string        `yaml:"repo" koanf:"repo"`
	Addr           string        `yaml:"addr" koanf:"addr"`
	HandlerTimeout time.Duration `yaml:"handler_timeout" koanf:"handler_timeout"`
}

// Error describes an invalid or missing configuration value.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".repobot"
	}
	return filepath.Join(configDir, "repobot")
}

// ConfigPath returns the path to the global config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".repobot.yaml"
}

// DefaultConfig returns a fully populated config with all default values.
func DefaultConfig() *Config {
	return &Config{
		DefaultFormat: "table",
		Credentials: CredentialsConfig{
			Region:     "us-east-1",
			SecretName: "repobot/credential-alerts",
			Recipients: []string{},
		},
		Contributors: ContributorsConfig{
			ReadmePath:     "README.md",
			CommitMessage:  "Update top contributors",
			TeamBonus:      1000,
			MinTeamMembers: 100,
		},
		Projects: ProjectsConfig{
			Repos: []string{},
		},
		Weekly: WeeklyConfig{
			Addr:           ":3000",
			HandlerTimeout: 10 * time.Second,
		},
	}
}

// Load reads .env, the global config, the local .repobot.yaml and REPOBOT_*
// overrides, in increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom merges the given YAML files over the defaults, skipping files that
// don't exist, then applies environment overrides.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to access config %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}
	return cfg, nil
}

// envKey maps REPOBOT_WEEKLY__POD_NAME to weekly.pod_name.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// listKeys are the settings whose environment values are comma-separated lists.
var listKeys = map[string]bool{
	"credentials.recipients": true,
	"projects.repos":         true,
	"projects.numbers":       true,
}

// envValue maps an environment variable to its config key, splitting list
// settings so REPOBOT_PROJECTS__REPOS=a,b becomes [a b].
func envValue(name, value string) (string, any) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	items := []string{}
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			items = append(items, v)
		}
	}
	return key, items
}

// ValidateCredentials checks the settings the credential alert job needs.
func (c *Config) ValidateCredentials() error {
	if c.Credentials.Region == "" {
		return &Error{Field: "credentials.region", Message: "AWS region is required"}
	}
	if c.Credentials.EmailDomain == "" {
		return &Error{Field: "credentials.email_domain", Message: "email domain is required to match IAM users to Slack users"}
	}
	return nil
}

// ContributorsRepo validates the contributor sync settings and returns the target repository.
func (c *Config) ContributorsRepo() (model.Repo, error) {
	if c.Contributors.Org == "" {
		return model.Repo{}, &Error{Field: "contributors.org", Message: "organization is required"}
	}
	if c.Contributors.Repo == "" {
		return model.Repo{}, &Error{Field: "contributors.repo", Message: "repository is required"}
	}
	repo, err := model.ParseRepo(c.Contributors.Repo)
	if err != nil {
		return model.Repo{}, &Error{Field: "contributors.repo", Message: err.Error()}
	}
	if c.Contributors.TeamBonus < 0 {
		return model.Repo{}, &Error{Field: "contributors.team_bonus", Message: "must be non-negative"}
	}
	return repo, nil
}

// ProjectRepos validates the project sync settings and returns the repositories to scan.
func (c *Config) ProjectRepos() ([]model.Repo, error) {
	if c.Projects.Org == "" {
		return nil, &Error{Field: "projects.org", Message: "organization is required"}
	}
	if len(c.Projects.Repos) == 0 {
		return nil, &Error{Field: "projects.repos", Message: "at least one repository is required"}
	}
	repos := make([]model.Repo, 0, len(c.Projects.Repos))
	for _, name := range c.Projects.Repos {
		if !strings.Contains(name, "/") {
			name = c.Projects.Org + "/" + name
		}
		repo, err := model.ParseRepo(name)
		if err != nil {
			return nil, &Error{Field: "projects.repos", Message: err.Error()}
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// ValidateWeekly checks the settings the weekly report needs.
func (c *Config) ValidateWeekly() error {
	if c.Weekly.PodName == "" {
		return &Error{Field: "weekly.pod_name", Message: "Zenhub workspace name is required"}
	}
	if _, err := model.ParseRepo(c.Weekly.Repo); err != nil {
		return &Error{Field: "weekly.repo", Message: err.Error()}
	}
	return nil
}

// TokenFromEnv returns the token held in the named environment variable.
func (c *Config) TokenFromEnv(name string) string {
	return os.Getenv(name)
}

// GitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
func (c *Config) GitHubToken() string {
	return os.Getenv(EnvGitHubToken)
}

// ContributorsToken returns the token for the contributor sync, falling back to GITHUB_TOKEN.
func (c *Config) ContributorsToken() string {
	if t := os.Getenv(EnvContributorsGitHubToken); t != "" {
		return t
	}
	return c.GitHubToken()
}

// ProjectsToken returns the token for the project sync, falling back to GITHUB_TOKEN.
func (c *Config) ProjectsToken() string {
	if t := os.Getenv(EnvProjectsGitHubToken); t != "" {
		return t
	}
	return c.GitHubToken()
}

// ZenhubToken returns the Zenhub API key.
func (c *Config) ZenhubToken() string {
	return os.Getenv(EnvZenhubKey)
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# repobot configuration file
# See: repobot config defaults  (for all available options)
# Tokens are read from the environment only: GITHUB_TOKEN, SLACK_TOKEN, ZENHUB_KEY.

# Output format: table, json or markdown
default_format: table

credentials:
  region: us-east-1
  email_domain: example.com
  # recipients:
  #   - security@example.com

contributors:
  org: my-org
  repo: my-org/my-repo

projects:
  org: my-org
  repos:
    - my-repo

weekly:
  pod_name: My Workspace
  repo: my-org/my-repo
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
