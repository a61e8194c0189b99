// Package tui renders job progress inline in the terminal.
//
// The display is drawn on stderr so that a job's formatted result, printed on
// stdout once the display has finished, can be piped.
package tui

import (
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// finalSendTimeout bounds how long a terminal task status waits for room in a
// full event channel.
const finalSendTimeout = time.Second

// ciEnvVars are set by CI systems and job runtimes that have no one watching.
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"BUILDKITE",
	"CIRCLECI",
	"JENKINS_URL",
	"CODEBUILD_BUILD_ID",
	"AWS_LAMBDA_FUNCTION_NAME",
}

// Run starts the display and blocks until the event channel closes or a
// DoneEvent arrives.
func Run(events <-chan Event, opts ...ModelOption) error {
	p := tea.NewProgram(NewModel(events, opts...), tea.WithOutput(os.Stderr))
	_, err := p.Run()
	return err
}

// ShouldUseTUI reports whether stderr is an interactive terminal outside CI.
func ShouldUseTUI() bool {
	return term.IsTerminal(int(os.Stderr.Fd())) && !inCI(os.Getenv)
}

func inCI(getenv func(string) string) bool {
	for _, v := range ciEnvVars {
		if getenv(v) != "" {
			return true
		}
	}
	return false
}

// SendEvent sends e without blocking. The event is dropped when the channel
// is full; a nil channel is a no-op.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
	}
}

// SendTaskEvent builds a TaskEvent from opts and sends it. Progress updates
// are dropped under pressure like any event, but a task's final status
// waits up to finalSendTimeout so the display does not end on a stale state.
func SendTaskEvent(ch chan<- Event, task TaskID, status TaskStatus, opts ...TaskEventOption) {
	e := TaskEvent{Task: task, Status: status}
	for _, opt := range opts {
		opt(&e)
	}
	if ch == nil || status == StatusRunning || status == StatusPending {
		SendEvent(ch, e)
		return
	}

	t := time.NewTimer(finalSendTimeout)
	defer t.Stop()
	select {
	case ch <- e:
	case <-t.C:
	}
}
