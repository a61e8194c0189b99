// Package weekly builds the weekly sprint digest from Zenhub data.
package weekly

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spiffcs/repobot/internal/log"
	"github.com/spiffcs/repobot/internal/zenhub"
)

// AdHocGroup collects issues that belong to no epic.
const AdHocGroup = "Ad-hoc tasks"

// Sprint phase thresholds, in days until the active sprint ends.
const (
	sprintEndingDays  = 3
	sprintStartedDays = 12
)

var priorityOrder = []string{"Critical", "High", "medium", "Low"}

var priorityBadges = map[string]string{
	"Critical": "🔴 Crit-",
	"High":     "🟠 High",
	"medium":   "🔵 Med",
	"Low":      "🟢 Low",
}

const unknownPriorityBadge = "⚪ N/A-"

var typeOrder = []string{"Bug", "Enhancement", "Task", "Chore"}

var typeIcons = map[string]string{
	"Bug":         "🐞",
	"Enhancement": "💡",
	"Task":        "🔨",
	"Chore":       "🔨",
}

const unknownTypeIcon = "⬛"

// SelectSprints picks the sprint planned work comes from and the sprint
// closed work comes from. Near the end of the active sprint the upcoming one
// is planned; right after a sprint starts, closed work comes from the previous one.
func SelectSprints(ws *zenhub.Workspace, now time.Time) (planned, closed *zenhub.Sprint, err error) {
	if ws.ActiveSprint == nil {
		return nil, nil, fmt.Errorf("workspace %q has no active sprint", ws.Name)
	}
	days := int(math.Floor(ws.ActiveSprint.EndAt.Sub(now).Hours() / 24))
	switch {
	case days < sprintEndingDays:
		return ws.UpcomingSprint, ws.ActiveSprint, nil
	case days > sprintStartedDays:
		return ws.ActiveSprint, ws.PreviousSprint, nil
	default:
		return ws.ActiveSprint, ws.ActiveSprint, nil
	}
}

// Week returns the Monday-to-Monday window the report covers. On Mondays the
// previous week is reported.
func Week(now time.Time) (start, end time.Time) {
	ref := now
	if ref.Weekday() == time.Monday {
		ref = ref.AddDate(0, 0, -3)
	}
	offset := (int(ref.Weekday()) + 6) % 7
	start = time.Date(ref.Year(), ref.Month(), ref.Day()-offset, 0, 0, 0, 0, ref.Location())
	return start, start.AddDate(0, 0, 7)
}

// Group is the issues of one epic.
type Group struct {
	Title  string
	Issues []zenhub.Issue
}

// groupByEpic groups issues by first parent epic, keeping first-seen group order.
func groupByEpic(issues []zenhub.Issue) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, is := range issues {
		title := is.EpicTitle()
		if title == "" {
			title = AdHocGroup
		}
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, Group{Title: title})
		}
		groups[i].Issues = append(groups[i].Issues, is)
	}
	for i := range groups {
		slices.SortStableFunc(groups[i].Issues, func(a, b zenhub.Issue) int {
			return priorityRank(a) - priorityRank(b)
		})
	}
	return groups
}

// Planned groups the open issues of sprint.
func Planned(sprint *zenhub.Sprint) []Group {
	var open []zenhub.Issue
	for _, is := range sprint.IssueList() {
		if !is.IsClosed() {
			open = append(open, is)
		}
	}
	return groupByEpic(open)
}

// Closed groups the issues of sprint closed within [start, end).
func Closed(sprint *zenhub.Sprint, start, end time.Time) []Group {
	var closed []zenhub.Issue
	for _, is := range sprint.IssueList() {
		if !is.IsClosed() {
			continue
		}
		if is.ClosedAt.Before(start) || !is.ClosedAt.Before(end) {
			continue
		}
		closed = append(closed, is)
	}
	return groupByEpic(closed)
}

func firstLabel(is zenhub.Issue, order []string) string {
	names := is.LabelNames()
	for _, want := range order {
		if slices.Contains(names, want) {
			return want
		}
	}
	return ""
}

// priorityRank orders issues by priority; issues without one sort last.
func priorityRank(is zenhub.Issue) int {
	if i := slices.Index(priorityOrder, firstLabel(is, priorityOrder)); i >= 0 {
		return i
	}
	return len(priorityOrder)
}

// Row renders one issue as a Markdown list item.
func Row(is zenhub.Issue, repo string, closed bool) string {
	icon := unknownTypeIcon
	if t := firstLabel(is, typeOrder); t != "" {
		icon = typeIcons[t]
	}
	badge := unknownPriorityBadge
	if p := firstLabel(is, priorityOrder); p != "" {
		badge = priorityBadges[p]
	}
	status := ""
	if !closed {
		status = "`" + strings.ToUpper(is.PipelineName()) + "`"
	}

	var assignees []string
	for _, login := range is.AssigneeLogins() {
		assignees = append(assignees, fmt.Sprintf("[%s](https://github.com/%s)", login, login))
	}

	return fmt.Sprintf("- %s [ %s ] [%d](https://github.com/%s/issues/%d): %s %s | **%s**",
		icon, badge, is.Number, repo, is.Number, is.Title, status, strings.Join(assignees, ", "))
}

// Format renders groups as Markdown sections.
func Format(groups []Group, repo string, closed bool) string {
	sections := make([]string, 0, len(groups))
	for _, g := range groups {
		var b strings.Builder
		b.WriteString("\n#### " + g.Title + "\n")
		for _, is := range g.Issues {
			b.WriteString(Row(is, repo, closed) + "\n")
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n")
}

// Render builds the full report for ws as of now.
func Render(ws *zenhub.Workspace, repo string, now time.Time) (string, error) {
	plannedSprint, closedSprint, err := SelectSprints(ws, now)
	if err != nil {
		return "", err
	}
	start, end := Week(now)
	log.Debug("report window", "start", start, "end", end)

	return "\n## What did we close?\n---\n" +
		Format(Closed(closedSprint, start, end), repo, true) +
		"\n## What are we working on?\n---\n" +
		Format(Planned(plannedSprint), repo, false), nil
}

// WorkspaceSource fetches a workspace. *zenhub.Client is the production implementation.
type WorkspaceSource interface {
	Workspace(ctx context.Context, podName string) (*zenhub.Workspace, error)
}

// Generator produces reports for one pod.
type Generator struct {
	source  WorkspaceSource
	podName string
	repo    string
	now     func() time.Time
}

// NewGenerator creates a Generator. repo is the owner/name issue links point to.
func NewGenerator(source WorkspaceSource, podName, repo string) *Generator {
	return &Generator{source: source, podName: podName, repo: repo, now: time.Now}
}

// Generate fetches the workspace and renders the report.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	ws, err := g.source.Workspace(ctx, g.podName)
	if err != nil {
		return "", err
	}
	return Render(ws, g.repo, g.now())
}
