// Package report renders link check results.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/mdlinkcheck/internal/config"
	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
)

// Formatter writes a ReportSet to w.
type Formatter interface {
	Format(w io.Writer, rs *linkcheck.ReportSet) error
}

// NewFormatter returns the formatter for format. Color only affects text output.
func NewFormatter(format config.ReportFormat, useColor bool) Formatter {
	switch format {
	case config.ReportFormatJSON:
		return NewJSONFormatter()
	case config.ReportFormatTable:
		return NewTableFormatter()
	case config.ReportFormatMarkdown:
		return NewMarkdownFormatter()
	default:
		return NewTextFormatter(useColor)
	}
}

// Summary is the final verdict line.
func Summary(rs *linkcheck.ReportSet) string {
	if n := len(rs.Failed); n > 0 {
		return fmt.Sprintf("%d broken link(s) found.", n)
	}
	return "No broken links found."
}

// Stats describes the size of the run, e.g. "Checked 1,204 links in 37 documents (2.1s)".
func Stats(rs *linkcheck.ReportSet) string {
	return fmt.Sprintf("Checked %s in %s (%s)",
		plural(rs.Checked, "link"),
		plural(rs.Documents, "document"),
		rs.Duration.Round(time.Millisecond))
}

func plural(n int, singular string) string {
	word := singular + "s"
	if n == 1 {
		word = singular
	}
	return humanize.Comma(int64(n)) + " " + word
}

// location renders "document:line", or just the document when the line is unknown.
func location(r linkcheck.Result) string {
	if r.Line > 0 {
		return fmt.Sprintf("%s:%d", r.Document, r.Line)
	}
	return r.Document
}

// detail renders the outcome, adding the reason for transport failures
// where the code alone says nothing.
func detail(r linkcheck.Result) string {
	if r.Status == linkcheck.StatusHTTPError && r.Code == 0 && r.Reason != "" {
		return r.Outcome() + ": " + r.Reason
	}
	return r.Outcome()
}
