package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the Bubble Tea model for the TUI progress display.
type Model struct {
	tasks          []Task
	spinner        spinner.Model
	progress       progress.Model
	events         <-chan Event
	title          string
	started        time.Time
	now            func() time.Time
	done           bool
	username       string
	rateLimited    bool
	rateLimitReset time.Time
}

// doneMsg signals that the event channel was closed.
type doneMsg struct{}

// ModelOption is a functional option for configuring a Model.
type ModelOption func(*Model)

// WithTasks sets the tasks to display in the TUI.
func WithTasks(tasks []Task) ModelOption {
	return func(m *Model) {
		m.tasks = tasks
	}
}

// WithTitle sets a heading shown above the tasks, typically the job name.
func WithTitle(title string) ModelOption {
	return func(m *Model) {
		m.title = title
	}
}

// NewModel creates a new TUI model.
func NewModel(events <-chan Event, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	p := progress.New(
		progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
		progress.WithWidth(25),
		progress.WithoutPercentage(),
	)

	m := Model{
		tasks:    ProjectSyncTasks(),
		spinner:  s,
		progress: p,
		events:   events,
		now:      time.Now,
	}
	m.started = m.now()

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case TaskEvent:
		var cmd tea.Cmd
		m, cmd = m.updateTask(msg)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case RateLimitEvent:
		m.rateLimited = msg.Limited
		m.rateLimitReset = msg.ResetAt
		return m, waitForEvent(m.events)

	case DoneEvent, doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// updateTask applies e to the matching task.
func (m Model) updateTask(e TaskEvent) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for i := range m.tasks {
		if m.tasks[i].ID != e.Task {
			continue
		}
		m.tasks[i].Status = e.Status
		if e.Message != "" {
			m.tasks[i].Message = e.Message
		}
		if e.Count > 0 {
			m.tasks[i].Count = e.Count
		}
		if e.Progress > 0 {
			m.tasks[i].Progress = e.Progress
			cmd = m.progress.SetPercent(e.Progress)
		}
		if e.Error != nil {
			m.tasks[i].Error = e.Error
		}
		if e.Task == TaskAuth && e.Status == StatusComplete && e.Message != "" {
			m.username = e.Message
		}
		break
	}
	return m, cmd
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	if m.title != "" {
		b.WriteString(titleStyle.Render(m.title) + "\n")
	}

	for _, task := range m.tasks {
		if task.ID == TaskAuth && task.Status == StatusComplete && m.username != "" {
			fmt.Fprintf(&b, "  %s Authenticated as %s\n", iconComplete, userStyle.Render(m.username))
			continue
		}
		b.WriteString(task.View(m.spinner.View(), m.progress) + "\n")
	}

	if m.rateLimited {
		if wait := m.rateLimitReset.Sub(m.now()).Round(time.Second); wait > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf("\n  Rate limited by GitHub (resets in %s)\n", wait)))
		}
	}

	elapsed := m.now().Sub(m.started).Truncate(time.Second)
	if m.done {
		b.WriteString(footerStyle.Render(fmt.Sprintf("  Finished in %s", elapsed)))
	} else {
		b.WriteString(footerStyle.Render(fmt.Sprintf("  %s elapsed, press Ctrl+C to cancel", elapsed)))
	}
	b.WriteString("\n")

	return b.String()
}

// waitForEvent creates a command that waits for the next event.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}
