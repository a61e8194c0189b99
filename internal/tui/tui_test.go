package tui

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTaskID(t *testing.T) {
	// Verify task IDs are distinct
	ids := []TaskID{TaskAuth, TaskFetch, TaskSync, TaskProcess}
	seen := make(map[TaskID]bool)

	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate task ID: %d", id)
		}
		seen[id] = true
	}
}

func TestTaskStatus(t *testing.T) {
	// Verify statuses are distinct
	statuses := []TaskStatus{StatusPending, StatusRunning, StatusComplete, StatusError, StatusSkipped}
	seen := make(map[TaskStatus]bool)

	for _, status := range statuses {
		if seen[status] {
			t.Errorf("duplicate status: %d", status)
		}
		seen[status] = true
	}
}

func TestNewTask(t *testing.T) {
	task := NewTask(TaskFetch, "Loading projects")

	if task.ID != TaskFetch {
		t.Errorf("expected ID %d, got %d", TaskFetch, task.ID)
	}
	if task.Name != "Loading projects" {
		t.Errorf("expected name 'Loading projects', got %q", task.Name)
	}
	if task.Status != StatusPending {
		t.Errorf("expected status %d, got %d", StatusPending, task.Status)
	}
}

func TestTaskEvent(t *testing.T) {
	event := TaskEvent{
		Task:     TaskSync,
		Status:   StatusRunning,
		Message:  "10/20",
		Count:    10,
		Progress: 0.5,
	}

	// Verify it implements Event interface
	var _ Event = event

	if event.Task != TaskSync {
		t.Errorf("expected task %d, got %d", TaskSync, event.Task)
	}
	if event.Progress != 0.5 {
		t.Errorf("expected progress 0.5, got %f", event.Progress)
	}
}

func TestDoneEvent(t *testing.T) {
	event := DoneEvent{}

	// Verify it implements Event interface
	var _ Event = event
}

func TestSendEvent(t *testing.T) {
	ch := make(chan Event, 1)

	event := TaskEvent{Task: TaskAuth, Status: StatusComplete}
	SendEvent(ch, event)

	select {
	case received := <-ch:
		if te, ok := received.(TaskEvent); ok {
			if te.Task != TaskAuth {
				t.Errorf("expected task %d, got %d", TaskAuth, te.Task)
			}
		} else {
			t.Error("expected TaskEvent type")
		}
	default:
		t.Error("expected event in channel")
	}
}

func TestSendEventNilChannel(t *testing.T) {
	// Should not panic with nil channel
	SendEvent(nil, TaskEvent{})
}

func TestSendTaskEvent(t *testing.T) {
	ch := make(chan Event, 1)

	SendTaskEvent(ch, TaskProcess, StatusRunning,
		WithMessage("processing"),
		WithCount(42),
		WithProgress(0.75),
	)

	select {
	case received := <-ch:
		te, ok := received.(TaskEvent)
		if !ok {
			t.Fatal("expected TaskEvent type")
		}
		if te.Task != TaskProcess {
			t.Errorf("expected task %d, got %d", TaskProcess, te.Task)
		}
		if te.Message != "processing" {
			t.Errorf("expected message 'processing', got %q", te.Message)
		}
		if te.Count != 42 {
			t.Errorf("expected count 42, got %d", te.Count)
		}
		if te.Progress != 0.75 {
			t.Errorf("expected progress 0.75, got %f", te.Progress)
		}
	default:
		t.Error("expected event in channel")
	}
}

func TestWithError(t *testing.T) {
	ch := make(chan Event, 1)
	testErr := errors.New("test error")

	SendTaskEvent(ch, TaskFetch, StatusError, WithError(testErr))

	select {
	case received := <-ch:
		te, ok := received.(TaskEvent)
		if !ok {
			t.Fatal("expected TaskEvent type")
		}
		if te.Error != testErr {
			t.Errorf("expected error %v, got %v", testErr, te.Error)
		}
	default:
		t.Error("expected event in channel")
	}
}

func TestSendTaskEventFinalStatusWaits(t *testing.T) {
	ch := make(chan Event, 1)
	ch <- TaskEvent{Task: TaskSync, Status: StatusRunning}

	// A progress update is dropped while the channel is full.
	SendTaskEvent(ch, TaskSync, StatusRunning, WithProgress(0.5))

	go func() {
		time.Sleep(20 * time.Millisecond)
		<-ch
	}()
	SendTaskEvent(ch, TaskSync, StatusComplete)

	te := (<-ch).(TaskEvent)
	if te.Status != StatusComplete {
		t.Errorf("status = %d, want final status delivered", te.Status)
	}
}

func TestInCI(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"no ci vars", map[string]string{}, false},
		{"github actions", map[string]string{"GITHUB_ACTIONS": "true"}, true},
		{"generic ci", map[string]string{"CI": "1"}, true},
		{"lambda", map[string]string{"AWS_LAMBDA_FUNCTION_NAME": "weekly"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(k string) string { return tt.env[k] }
			if got := inCI(getenv); got != tt.want {
				t.Errorf("inCI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModelUpdate(t *testing.T) {
	ch := make(chan Event)
	m := NewModel(ch, WithTasks(ProjectSyncTasks()))

	updated, _ := m.Update(TaskEvent{Task: TaskAuth, Status: StatusComplete, Message: "octocat"})
	m = updated.(Model)
	updated, _ = m.Update(TaskEvent{Task: TaskSync, Status: StatusRunning, Message: "1/2 Roadmap", Progress: 0.5})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "Authenticated as") || !strings.Contains(view, "octocat") {
		t.Errorf("view missing username:\n%s", view)
	}
	if !strings.Contains(view, "1/2 Roadmap") || !strings.Contains(view, "50%") {
		t.Errorf("view missing sync progress:\n%s", view)
	}
	if !strings.Contains(view, "Ctrl+C") {
		t.Errorf("running view should show cancel hint:\n%s", view)
	}

	updated, cmd := m.Update(DoneEvent{})
	m = updated.(Model)
	if !m.done || cmd == nil {
		t.Error("DoneEvent should finish the model")
	}
	if view := m.View(); strings.Contains(view, "Ctrl+C") || !strings.Contains(view, "Finished in") {
		t.Errorf("finished view should replace the cancel hint:\n%s", view)
	}
}

func TestModelTitleAndRateLimit(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	m := NewModel(make(chan Event), WithTitle("projects sync"))
	m.now = func() time.Time { return now }
	m.started = now.Add(-90 * time.Second)

	updated, _ := m.Update(RateLimitEvent{Limited: true, ResetAt: now.Add(5 * time.Minute)})
	view := updated.(Model).View()
	for _, want := range []string{"projects sync", "resets in 5m0s", "1m30s elapsed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelTaskError(t *testing.T) {
	m := NewModel(make(chan Event), WithTasks(ContributorSyncTasks()))
	updated, _ := m.Update(TaskEvent{Task: TaskSync, Status: StatusError, Error: errors.New("section not found")})
	if view := updated.(Model).View(); !strings.Contains(view, "section not found") {
		t.Errorf("view missing error:\n%s", view)
	}
}

func TestStatusIcon(t *testing.T) {
	// Test that StatusIcon returns non-empty strings for all statuses
	statuses := []TaskStatus{StatusPending, StatusRunning, StatusComplete, StatusError, StatusSkipped}

	for _, status := range statuses {
		icon := StatusIcon(status, ">")
		if icon == "" {
			t.Errorf("StatusIcon returned empty string for status %d", status)
		}
	}
}
