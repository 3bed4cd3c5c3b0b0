package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"git.home.luguber.info/inful/mdlinkcheck/internal/linkcheck"
)

// TextFormatter prints one line per warning and failure followed by a summary.
type TextFormatter struct {
	red    *color.Color
	yellow *color.Color
	green  *color.Color
	faint  *color.Color
}

// NewTextFormatter creates a text formatter.
func NewTextFormatter(useColor bool) *TextFormatter {
	f := &TextFormatter{
		red:    color.New(color.FgRed, color.Bold),
		yellow: color.New(color.FgYellow),
		green:  color.New(color.FgGreen, color.Bold),
		faint:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{f.red, f.yellow, f.green, f.faint} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

// Format implements Formatter.
func (f *TextFormatter) Format(w io.Writer, rs *linkcheck.ReportSet) error {
	for _, r := range rs.Warnings {
		if _, err := f.yellow.Fprintf(w, "Warning: %s (%s) found in %s\n", r.Target, detail(r), location(r)); err != nil {
			return err
		}
	}
	for _, r := range rs.Failed {
		if _, err := f.red.Fprintf(w, "Broken link: %s (%s) found in %s\n", r.Target, detail(r), location(r)); err != nil {
			return err
		}
	}

	if _, err := f.faint.Fprintln(w, Stats(rs)); err != nil {
		return err
	}
	summary := f.green
	if rs.HasFailures() {
		summary = f.red
	}
	_, err := summary.Fprintln(w, Summary(rs))
	return err
}

// printLines is shared by formatters that close with the plain summary.
func printLines(w io.Writer, lines ...string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
