package zenhub

import "time"

// Workspace is a Zenhub workspace with the three sprints the weekly report looks at.
type Workspace struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	ActiveSprint   *Sprint `json:"activeSprint"`
	UpcomingSprint *Sprint `json:"upcomingSprint"`
	PreviousSprint *Sprint `json:"previousSprint"`
}

// Sprint is a time-boxed set of issues.
type Sprint struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
	Issues  struct {
		Nodes []Issue `json:"nodes"`
	} `json:"issues"`
}

// IssueList returns the sprint's issues; a nil sprint has none.
func (s *Sprint) IssueList() []Issue {
	if s == nil {
		return nil
	}
	return s.Issues.Nodes
}

// Issue is a GitHub issue as Zenhub reports it.
type Issue struct {
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	ClosedAt *time.Time `json:"closedAt"`
	Labels   struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
	Assignees struct {
		Nodes []struct {
			Login string `json:"login"`
		} `json:"nodes"`
	} `json:"assignees"`
	PipelineIssue *struct {
		Pipeline struct {
			Name string `json:"name"`
		} `json:"pipeline"`
	} `json:"pipelineIssue"`
	ParentEpics struct {
		Nodes []struct {
			Issue struct {
				Title string `json:"title"`
			} `json:"issue"`
		} `json:"nodes"`
	} `json:"parentEpics"`
}

// LabelNames returns the issue's label names.
func (i Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels.Nodes))
	for _, l := range i.Labels.Nodes {
		names = append(names, l.Name)
	}
	return names
}

// AssigneeLogins returns the logins of the assignees.
func (i Issue) AssigneeLogins() []string {
	logins := make([]string, 0, len(i.Assignees.Nodes))
	for _, a := range i.Assignees.Nodes {
		logins = append(logins, a.Login)
	}
	return logins
}

// PipelineName is the name of the board column the issue sits in, or "".
func (i Issue) PipelineName() string {
	if i.PipelineIssue == nil {
		return ""
	}
	return i.PipelineIssue.Pipeline.Name
}

// EpicTitle is the title of the first parent epic, or "" for issues outside any epic.
func (i Issue) EpicTitle() string {
	if len(i.ParentEpics.Nodes) == 0 {
		return ""
	}
	return i.ParentEpics.Nodes[0].Issue.Title
}

// IsClosed reports whether the issue has a close date.
func (i Issue) IsClosed() bool {
	return i.ClosedAt != nil
}
