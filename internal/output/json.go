package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/repobot/internal/credreport"
	"github.com/spiffcs/repobot/internal/model"
	"github.com/spiffcs/repobot/internal/projectsync"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// Findings outputs credential findings as a JSON array.
func (f *JSONFormatter) Findings(findings []credreport.Finding, w io.Writer) error {
	if findings == nil {
		findings = []credreport.Finding{}
	}
	return f.encode(w, findings)
}

// ProjectResults outputs project sync results as a JSON array.
func (f *JSONFormatter) ProjectResults(results []projectsync.ProjectResult, w io.Writer) error {
	if results == nil {
		results = []projectsync.ProjectResult{}
	}
	return f.encode(w, results)
}

// Contributors outputs the ranked contributors as a JSON array.
func (f *JSONFormatter) Contributors(contributors []model.Contributor, w io.Writer) error {
	if contributors == nil {
		contributors = []model.Contributor{}
	}
	return f.encode(w, contributors)
}
