package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// Task represents a single task in the TUI progress display.
type Task struct {
	ID       TaskID
	Name     string
	Status   TaskStatus
	Message  string
	Count    int
	Progress float64
	Error    error
}

// NewTask creates a new task with the given ID and name.
func NewTask(id TaskID, name string) Task {
	return Task{
		ID:     id,
		Name:   name,
		Status: StatusPending,
	}
}

// ProjectSyncTasks returns the task list for the project sync.
func ProjectSyncTasks() []Task {
	return []Task{
		NewTask(TaskAuth, "Authenticating"),
		NewTask(TaskFetch, "Loading projects"),
		NewTask(TaskSync, "Syncing projects"),
	}
}

// ContributorSyncTasks returns the task list for the contributor sync.
func ContributorSyncTasks() []Task {
	return []Task{
		NewTask(TaskAuth, "Authenticating"),
		NewTask(TaskSync, "Ranking contributors"),
		NewTask(TaskProcess, "Writing README"),
	}
}

// View renders the task on one line. A running task with progress shows a
// bar and percentage with the message in parentheses.
func (t Task) View(spinnerFrame string, prog progress.Model) string {
	var b strings.Builder
	b.WriteString("  " + StatusIcon(t.Status, spinnerFrame) + " ")

	nameStyle := taskNameStyle
	if t.Status == StatusPending || t.Status == StatusSkipped {
		nameStyle = taskDimStyle
	}
	b.WriteString(nameStyle.Render(t.Name))

	switch {
	case t.Status == StatusRunning && t.Progress > 0:
		fmt.Fprintf(&b, " %s %3d%%", prog.ViewAs(t.Progress), int(t.Progress*100))
		if t.Message != "" {
			b.WriteString(" " + messageStyle.Render("("+t.Message+")"))
		}
	case t.Message != "":
		b.WriteString(" " + messageStyle.Render(t.Message))
	case t.Count > 0:
		b.WriteString(" " + messageStyle.Render(fmt.Sprintf("(%d)", t.Count)))
	}

	if t.Error != nil {
		b.WriteString(" " + errorStyle.Render(t.Error.Error()))
	}
	return b.String()
}
