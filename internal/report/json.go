package report

import (
	"encoding/json"
	"io"

	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
)

// JSONFormatter writes the ReportSet as an indented JSON document.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

type jsonReport struct {
	*linkcheck.ReportSet
	DurationMS int64  `json:"duration_ms"`
	Summary    string `json:"summary"`
}

// Format implements Formatter.
func (f *JSONFormatter) Format(w io.Writer, rs *linkcheck.ReportSet) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonReport{
		ReportSet:  rs,
		DurationMS: rs.Duration.Milliseconds(),
		Summary:    Summary(rs),
	})
}
