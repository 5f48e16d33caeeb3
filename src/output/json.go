package output

import (
	"encoding/json"
	"io"

	"github.com/sofmeright/loq/src/lint"
	"github.com/sofmeright/loq/src/version"
)

type jsonReport struct {
	Version    string          `json:"version"`
	Violations []jsonViolation `json:"violations"`
	Summary    jsonSummary     `json:"summary"`
}

type jsonViolation struct {
	Path     string `json:"path"`
	Lines    int    `json:"lines"`
	MaxLines int    `json:"max_lines"`
	Rule     string `json:"rule"`
}

type jsonSummary struct {
	FilesChecked int `json:"files_checked"`
	Violations   int `json:"violations"`
	Skipped      int `json:"skipped"`
}

// WriteJSON writes the report as an indented JSON document.
func WriteJSON(w io.Writer, report *lint.Report) error {
	out := jsonReport{
		Version:    version.Version,
		Violations: make([]jsonViolation, 0, len(report.Violations)),
		Summary: jsonSummary{
			FilesChecked: report.Checked,
			Violations:   len(report.Violations),
			Skipped:      len(report.Skipped),
		},
	}
	for _, v := range report.Violations {
		out.Violations = append(out.Violations, jsonViolation{
			Path:     v.Path,
			Lines:    v.Lines,
			MaxLines: v.MaxLines,
			Rule:     v.Source,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
