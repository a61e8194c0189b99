package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spiffcs/repobot/config"
	"github.com/spiffcs/repobot/internal/ghclient"
	"github.com/spiffcs/repobot/internal/log"
	"github.com/spiffcs/repobot/internal/output"
	"github.com/spiffcs/repobot/internal/tui"
)

// jobRuntime bundles the profiling and TUI state threaded through a job command.
type jobRuntime struct {
	opts     *Options
	useTUI   bool
	events   chan tui.Event
	tuiDone  chan error
	profiler *profiler
}

// setupRuntime starts profiling, initializes logging and, when enabled, the
// progress TUI showing tasks under title. The returned cleanup must run before exit.
func setupRuntime(opts *Options, title string, tasks []tui.Task) (*jobRuntime, func(), error) {
	p, err := startProfiling(opts)
	if err != nil {
		return nil, nil, err
	}

	rt := &jobRuntime{opts: opts, useTUI: tasks != nil && shouldUseTUI(opts), profiler: p}

	// Suppress logs during TUI to avoid interleaving with the display
	if rt.useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
		rt.events = make(chan tui.Event, 100)
		rt.tuiDone = make(chan error, 1)
		go func() {
			rt.tuiDone <- tui.Run(rt.events, tui.WithTitle(title), tui.WithTasks(tasks))
		}()
	} else {
		log.Initialize(opts.Verbosity, os.Stderr)
	}

	return rt, func() {
		rt.close()
		p.Stop()
	}, nil
}

// close closes the event channel and waits for the TUI to finish.
func (rt *jobRuntime) close() {
	if rt.events == nil {
		return
	}
	close(rt.events)
	rt.events = nil
	if err := <-rt.tuiDone; err != nil {
		log.Warn("progress display failed", "error", err)
	}
}

// sendEvent sends a task event to the TUI channel if it exists.
func (rt *jobRuntime) sendEvent(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	if rt.events == nil {
		return
	}
	tui.SendTaskEvent(rt.events, task, status, opts...)
}

// reportRateLimit shows a rate limit warning when err came from GitHub throttling.
func (rt *jobRuntime) reportRateLimit(client *ghclient.Client, err error) {
	if rt.events == nil || !errors.Is(err, ghclient.ErrRateLimited) {
		return
	}
	_, _, resetAt, limited := client.RateLimitStatus()
	tui.SendEvent(rt.events, tui.RateLimitEvent{Limited: limited, ResetAt: resetAt})
}

// formatter resolves the output format from the flag, falling back to the config default.
func (rt *jobRuntime) formatter(cfg *config.Config) (output.Formatter, error) {
	name := rt.opts.Format
	if name == "" {
		name = cfg.DefaultFormat
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format), nil
}

// loadConfig loads the merged configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newGitHubClient creates a client for token and reports the authenticated
// user on the auth task.
func (rt *jobRuntime) newGitHubClient(ctx context.Context, cfg *config.Config, token, tokenVar string) (*ghclient.Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not configured. Set the %s environment variable", tokenVar)
	}

	var opts []ghclient.Option
	if cfg.GitHub.BaseURL != "" {
		opts = append(opts, ghclient.WithBaseURL(cfg.GitHub.BaseURL))
	}
	client, err := ghclient.NewClient(ctx, token, opts...)
	if err != nil {
		return nil, err
	}

	if rt.useTUI {
		rt.sendEvent(tui.TaskAuth, tui.StatusRunning)
		login, err := client.AuthenticatedUser(ctx)
		if err != nil {
			// Installation tokens cannot read /user; the job may still succeed.
			log.Debug("could not resolve authenticated user", "error", err)
			rt.sendEvent(tui.TaskAuth, tui.StatusComplete)
		} else {
			rt.sendEvent(tui.TaskAuth, tui.StatusComplete, tui.WithMessage(login))
		}
	}
	return client, nil
}
