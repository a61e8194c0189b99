package tui

import "time"

// TaskID identifies a task in the TUI progress display.
type TaskID int

const (
	TaskAuth    TaskID = iota // Checking the GitHub token
	TaskFetch                 // Fetching source data
	TaskSync                  // Applying changes, one step per project or file
	TaskProcess               // Writing results back
)

// TaskStatus represents the current status of a task.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusComplete
	StatusError
	StatusSkipped
)

// Event is the interface for all TUI events.
type Event interface {
	isEvent()
}

// TaskEvent represents an update to a task's status.
type TaskEvent struct {
	Task     TaskID
	Status   TaskStatus
	Message  string  // Optional message (e.g., "2/5 Roadmap")
	Count    int     // Count of items (e.g., projects loaded)
	Progress float64 // Progress from 0.0 to 1.0
	Error    error   // Error if status is StatusError
}

func (TaskEvent) isEvent() {}

// RateLimitEvent reports that GitHub rate limited the job.
type RateLimitEvent struct {
	Limited bool
	ResetAt time.Time
}

func (RateLimitEvent) isEvent() {}

// DoneEvent signals that all work is complete.
type DoneEvent struct{}

func (DoneEvent) isEvent() {}

// TaskEventOption sets an optional TaskEvent field.
type TaskEventOption func(*TaskEvent)

// WithMessage sets the message shown next to the task.
func WithMessage(msg string) TaskEventOption {
	return func(e *TaskEvent) { e.Message = msg }
}

// WithCount sets the item count.
func WithCount(count int) TaskEventOption {
	return func(e *TaskEvent) { e.Count = count }
}

// WithProgress sets the completed fraction, from 0 to 1.
func WithProgress(progress float64) TaskEventOption {
	return func(e *TaskEvent) { e.Progress = progress }
}

// WithError attaches err; use with StatusError.
func WithError(err error) TaskEventOption {
	return func(e *TaskEvent) { e.Error = err }
}
