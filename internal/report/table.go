package report

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/table"

	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
)

// TableFormatter renders warnings and failures as a rounded terminal table.
type TableFormatter struct{}

// NewTableFormatter creates a table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Format implements Formatter.
func (f *TableFormatter) Format(w io.Writer, rs *linkcheck.ReportSet) error {
	if !rs.Clean() {
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Result", "Document", "Line", "Target", "Status"})
		for _, r := range rs.Warnings {
			t.AppendRow(table.Row{"WARN", r.Document, lineCell(r.Line), r.Target, detail(r)})
		}
		for _, r := range rs.Failed {
			t.AppendRow(table.Row{"FAIL", r.Document, lineCell(r.Line), r.Target, detail(r)})
		}
		t.SetStyle(table.StyleRounded)
		if err := printLines(w, t.Render()); err != nil {
			return err
		}
	}
	return printLines(w, Stats(rs), Summary(rs))
}

func lineCell(line int) string {
	if line <= 0 {
		return "-"
	}
	return strconv.Itoa(line)
}
