// Package actions reads the environment a GitHub Actions runner hands to a
// step: inputs, the triggering event payload and the repository, and writes
// workflow commands back to the log.
package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/repobot/internal/model"
)

// Runner environment variables.
const (
	EnvEventPath  = "GITHUB_EVENT_PATH"
	EnvEventName  = "GITHUB_EVENT_NAME"
	EnvRepository = "GITHUB_REPOSITORY"
)

// Context describes the workflow run that invoked the step.
type Context struct {
	EventName   string
	Repo        model.Repo
	PullRequest *gh.PullRequest
	getenv      func(string) string
}

// Input returns the value of a step input, read from INPUT_<NAME> the way
// the runner exports them. Surrounding whitespace is trimmed.
func (c *Context) Input(name string) string {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	return strings.TrimSpace(c.getenv(key))
}

// RequiredInput is Input that fails when the value is empty.
func (c *Context) RequiredInput(name string) (string, error) {
	v := c.Input(name)
	if v == "" {
		return "", fmt.Errorf("input required and not supplied: %s", name)
	}
	return v, nil
}

// Load builds a Context from the process environment.
func Load() (*Context, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Context using getenv for every lookup.
// A missing event file is not an error: the context simply has no pull request.
func LoadFrom(getenv func(string) string) (*Context, error) {
	c := &Context{
		EventName: getenv(EnvEventName),
		getenv:    getenv,
	}

	if full := getenv(EnvRepository); full != "" {
		repo, err := model.ParseRepo(full)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvRepository, err)
		}
		c.Repo = repo
	}

	path := getenv(EnvEventPath)
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}

	var event gh.PullRequestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	c.PullRequest = event.PullRequest
	return c, nil
}

// Fail writes an error workflow command, which the runner renders as an
// annotation on the run.
func Fail(w io.Writer, err error) {
	msg := strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(err.Error())
	fmt.Fprintf(w, "::error::%s\n", msg)
}
