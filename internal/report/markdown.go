package report

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"

	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
)

// MarkdownFormatter renders a report suitable for pull request comments or
// CI job summaries.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a Markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(w io.Writer, rs *linkcheck.ReportSet) error {
	md := markdown.NewMarkdown(w)

	md.H1("Link Check Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root", "`" + rs.Root + "`"},
			{"Run", "`" + rs.RunID + "`"},
			{"Started", rs.StartedAt.Format(time.RFC3339)},
			{"Documents", humanize.Comma(int64(rs.Documents))},
			{"Links checked", humanize.Comma(int64(rs.Checked))},
			{"Duration", rs.Duration.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	if rs.HasFailures() {
		md.Warningf("%d broken link(s) found.", len(rs.Failed))
	} else {
		md.Tip("No broken links found.")
	}
	md.PlainText("")

	writeResults(md, "Broken Links", rs.Failed)
	writeResults(md, "Warnings", rs.Warnings)

	return md.Build()
}

func writeResults(md *markdown.Markdown, title string, results []linkcheck.Result) {
	if len(results) == 0 {
		return
	}
	md.H2(title)
	md.PlainText("")

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{"`" + r.Document + "`", lineCell(r.Line), "`" + r.Target + "`", detail(r)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Document", "Line", "Target", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}
