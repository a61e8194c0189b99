package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/spiffcs/repobot/internal/credreport"
	"github.com/spiffcs/repobot/internal/model"
	"github.com/spiffcs/repobot/internal/projectsync"
	"golang.org/x/term"
)

// ansiRegex matches ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// maxMessageWidth bounds a finding message cell.
const maxMessageWidth = 80

// TableFormatter formats output as a terminal table
type TableFormatter struct{}

// hyperlink creates a clickable terminal hyperlink using OSC 8.
func hyperlink(text, url string) string {
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// stripAnsi removes ANSI escape sequences from a string
func stripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// truncateToWidth truncates s to at most maxWidth terminal columns, counting
// wide characters as two and ignoring colour codes.
func truncateToWidth(s string, maxWidth int) string {
	plain := stripAnsi(s)
	if runewidth.StringWidth(plain) <= maxWidth {
		return s
	}
	return runewidth.Truncate(plain, maxWidth, "...")
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	return table
}

// severity colours a finding message by urgency.
func severity(msg string) string {
	switch {
	case strings.Contains(msg, "immediately"):
		return color.RedString("URGENT")
	case strings.Contains(msg, "soon"):
		return color.YellowString("WARN")
	default:
		return color.CyanString("INFO")
	}
}

// Findings outputs one row per message, with the username on the first row of each user.
func (f *TableFormatter) Findings(findings []credreport.Finding, w io.Writer) error {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No credential issues found.")
		return nil
	}

	table := newTable(w, []string{"User", "Severity", "Message"})
	messages := 0
	for _, finding := range findings {
		for i, msg := range finding.Messages {
			user := ""
			if i == 0 {
				user = color.New(color.Bold).Sprint(finding.Username)
			}
			table.Append([]string{user, severity(msg), truncateToWidth(msg, maxMessageWidth)})
			messages++
		}
	}
	table.Render()

	fmt.Fprintf(w, "\n%d users, %d findings\n", len(findings), messages)
	return nil
}

// ProjectResults outputs one row per opted-in project.
func (f *TableFormatter) ProjectResults(results []projectsync.ProjectResult, w io.Writer) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No projects opted in to autosync.")
		return nil
	}

	table := newTable(w, []string{"Project", "Title", "Label", "Add", "Remove", "Status"})
	for _, r := range results {
		table.Append([]string{
			"#" + strconv.Itoa(r.Project.Number),
			truncateToWidth(r.Project.Title, 40),
			r.Label,
			strconv.Itoa(len(r.Plan.ToAdd)),
			strconv.Itoa(len(r.Plan.ToRemove)),
			projectStatus(r),
		})
	}
	table.Render()
	return nil
}

func projectStatus(r projectsync.ProjectResult) string {
	switch {
	case r.Failed > 0:
		return color.RedString("%d failed", r.Failed)
	case r.Plan.Empty():
		return color.GreenString("in sync")
	case r.Added+r.Removed > 0:
		return color.GreenString("+%d/-%d", r.Added, r.Removed)
	default:
		return color.YellowString("pending")
	}
}

// Contributors outputs the ranked contributors.
func (f *TableFormatter) Contributors(contributors []model.Contributor, w io.Writer) error {
	if len(contributors) == 0 {
		fmt.Fprintln(w, "No contributors found.")
		return nil
	}

	table := newTable(w, []string{"#", "Login", "Contributions"})
	for i, c := range contributors {
		table.Append([]string{
			strconv.Itoa(i + 1),
			hyperlink(c.Login, c.ProfileURL),
			strconv.Itoa(c.Contributions),
		})
	}
	table.Render()
	return nil
}
