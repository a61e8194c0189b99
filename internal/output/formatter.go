// Package output renders job results for the terminal.
package output

import (
	"fmt"
	"io"

	"github.com/spiffcs/repobot/internal/credreport"
	"github.com/spiffcs/repobot/internal/model"
	"github.com/spiffcs/repobot/internal/projectsync"
)

// Format represents the output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatMarkdown:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or markdown)", s)
	}
}

// Formatter defines the interface for output formatters
type Formatter interface {
	Findings(findings []credreport.Finding, w io.Writer) error
	ProjectResults(results []projectsync.ProjectResult, w io.Writer) error
	Contributors(contributors []model.Contributor, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}
