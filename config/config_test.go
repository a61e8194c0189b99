package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	want := DefaultConfig()
	if cfg.DefaultFormat != "table" {
		t.Errorf("DefaultFormat = %q", cfg.DefaultFormat)
	}
	if cfg.Credentials.Region != want.Credentials.Region {
		t.Errorf("Region = %q, want %q", cfg.Credentials.Region, want.Credentials.Region)
	}
	if cfg.Contributors.TeamBonus != 1000 || cfg.Contributors.MinTeamMembers != 100 {
		t.Errorf("contributor defaults = %+v", cfg.Contributors)
	}
	if cfg.Weekly.HandlerTimeout != 10*time.Second || cfg.Weekly.Addr != ":3000" {
		t.Errorf("weekly defaults = %+v", cfg.Weekly)
	}
}

func TestLoadFromMergesLocalOverGlobal(t *testing.T) {
	dir := t.TempDir()
	global := writeFile(t, dir, "global.yaml", `
default_format: json
credentials:
  email_domain: example.com
  recipients: [a@example.com, b@example.com]
contributors:
  org: acme
  team_bonus: 50
`)
	local := writeFile(t, dir, "local.yaml", `
credentials:
  recipients: [c@example.com]
contributors:
  repo: acme/app
`)

	cfg, err := LoadFrom(global, local)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.DefaultFormat != "json" {
		t.Errorf("DefaultFormat = %q, want json", cfg.DefaultFormat)
	}
	if cfg.Credentials.EmailDomain != "example.com" {
		t.Errorf("EmailDomain = %q, global value should survive", cfg.Credentials.EmailDomain)
	}
	if len(cfg.Credentials.Recipients) != 1 || cfg.Credentials.Recipients[0] != "c@example.com" {
		t.Errorf("Recipients = %v, local list should replace global", cfg.Credentials.Recipients)
	}
	if cfg.Contributors.Org != "acme" || cfg.Contributors.Repo != "acme/app" || cfg.Contributors.TeamBonus != 50 {
		t.Errorf("Contributors = %+v", cfg.Contributors)
	}
	if cfg.Contributors.MinTeamMembers != 100 {
		t.Errorf("MinTeamMembers = %d, default should survive", cfg.Contributors.MinTeamMembers)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "weekly:\n  pod_name: From File\n")
	t.Setenv("REPOBOT_WEEKLY__POD_NAME", "From Env")
	t.Setenv("REPOBOT_DEFAULT_FORMAT", "markdown")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Weekly.PodName != "From Env" {
		t.Errorf("PodName = %q, want env override", cfg.Weekly.PodName)
	}
	if cfg.DefaultFormat != "markdown" {
		t.Errorf("DefaultFormat = %q", cfg.DefaultFormat)
	}
}

func TestLoadFromEnvLists(t *testing.T) {
	t.Setenv("REPOBOT_PROJECTS__REPOS", "appsmith, appsmith-ee")
	t.Setenv("REPOBOT_PROJECTS__NUMBERS", "4,7")
	t.Setenv("REPOBOT_CREDENTIALS__RECIPIENTS", "a@example.com,b@example.com,")
	t.Setenv("REPOBOT_WEEKLY__POD_NAME", "Pod, North")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if got := cfg.Projects.Repos; !slices.Equal(got, []string{"appsmith", "appsmith-ee"}) {
		t.Errorf("Projects.Repos = %q", got)
	}
	if got := cfg.Projects.Numbers; !slices.Equal(got, []int{4, 7}) {
		t.Errorf("Projects.Numbers = %v", got)
	}
	if got := cfg.Credentials.Recipients; !slices.Equal(got, []string{"a@example.com", "b@example.com"}) {
		t.Errorf("Credentials.Recipients = %q", got)
	}
	if cfg.Weekly.PodName != "Pod, North" {
		t.Errorf("PodName = %q, scalar values must not be split", cfg.Weekly.PodName)
	}
}

func TestEnvValue(t *testing.T) {
	tests := []struct {
		name, value string
		wantKey     string
		want        any
	}{
		{"REPOBOT_PROJECTS__REPOS", "a,b", "projects.repos", []string{"a", "b"}},
		{"REPOBOT_PROJECTS__REPOS", "", "projects.repos", []string{}},
		{"REPOBOT_CREDENTIALS__EMAIL_DOMAIN", "x.com,y.com", "credentials.email_domain", "x.com,y.com"},
	}
	for _, tt := range tests {
		key, got := envValue(tt.name, tt.value)
		if key != tt.wantKey || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("envValue(%q, %q) = %q, %#v; want %q, %#v", tt.name, tt.value, key, got, tt.wantKey, tt.want)
		}
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "credentials: [unclosed\n")
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should fail on malformed YAML")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"REPOBOT_DEFAULT_FORMAT":            "default_format",
		"REPOBOT_WEEKLY__POD_NAME":          "weekly.pod_name",
		"REPOBOT_CREDENTIALS__EMAIL_DOMAIN": "credentials.email_domain",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		validate  func(*Config) error
		wantField string
	}{
		{
			name:      "credentials without domain",
			mutate:    func(c *Config) {},
			validate:  (*Config).ValidateCredentials,
			wantField: "credentials.email_domain",
		},
		{
			name:      "credentials ok",
			mutate:    func(c *Config) { c.Credentials.EmailDomain = "example.com" },
			validate:  (*Config).ValidateCredentials,
			wantField: "",
		},
		{
			name:   "contributors without org",
			mutate: func(c *Config) { c.Contributors.Repo = "acme/app" },
			validate: func(c *Config) error {
				_, err := c.ContributorsRepo()
				return err
			},
			wantField: "contributors.org",
		},
		{
			name: "contributors bad repo",
			mutate: func(c *Config) {
				c.Contributors.Org = "acme"
				c.Contributors.Repo = "app"
			},
			validate: func(c *Config) error {
				_, err := c.ContributorsRepo()
				return err
			},
			wantField: "contributors.repo",
		},
		{
			name:   "projects without repos",
			mutate: func(c *Config) { c.Projects.Org = "acme" },
			validate: func(c *Config) error {
				_, err := c.ProjectRepos()
				return err
			},
			wantField: "projects.repos",
		},
		{
			name:      "weekly without pod",
			mutate:    func(c *Config) { c.Weekly.Repo = "acme/app" },
			validate:  (*Config).ValidateWeekly,
			wantField: "weekly.pod_name",
		},
		{
			name:      "weekly bad repo",
			mutate:    func(c *Config) { c.Weekly.PodName = "Pod" },
			validate:  (*Config).ValidateWeekly,
			wantField: "weekly.repo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := tt.validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error = %v", err)
				}
				return
			}
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestProjectRepos(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Projects.Org = "acme"
	cfg.Projects.Repos = []string{"app", "other/lib"}

	repos, err := cfg.ProjectRepos()
	if err != nil {
		t.Fatalf("ProjectRepos() error = %v", err)
	}
	if len(repos) != 2 || repos[0].String() != "acme/app" || repos[1].String() != "other/lib" {
		t.Errorf("ProjectRepos() = %v", repos)
	}
}

func TestTokens(t *testing.T) {
	t.Setenv(EnvGitHubToken, "base")
	t.Setenv(EnvContributorsGitHubToken, "")
	t.Setenv(EnvProjectsGitHubToken, "projects")
	t.Setenv(EnvZenhubKey, "zh")

	cfg := DefaultConfig()
	if got := cfg.ContributorsToken(); got != "base" {
		t.Errorf("ContributorsToken() = %q, want fallback to GITHUB_TOKEN", got)
	}
	if got := cfg.ProjectsToken(); got != "projects" {
		t.Errorf("ProjectsToken() = %q", got)
	}
	if got := cfg.ZenhubToken(); got != "zh" {
		t.Errorf("ZenhubToken() = %q", got)
	}
}

func TestToYAML(t *testing.T) {
	out, err := DefaultConfig().ToYAML()
	if err != nil {
		t.Fatalf("ToYAML() error = %v", err)
	}
	for _, want := range []string{"default_format: table", "region: us-east-1", "team_bonus: 1000"} {
		if !strings.Contains(out, want) {
			t.Errorf("ToYAML() missing %q:\n%s", want, out)
		}
	}
}

func TestSaveToAndMinimalConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveTo(path, MinimalConfig()); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("minimal config does not load: %v", err)
	}
	if cfg.Weekly.PodName != "My Workspace" || cfg.Projects.Org != "my-org" {
		t.Errorf("loaded minimal config = %+v", cfg)
	}
}
