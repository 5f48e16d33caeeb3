// Package output renders scan reports as text, JSON, or JUnit XML.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/gookit/color"

	"github.com/sofmeright/loq/src/lint"
)

// Format selects the report renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want text or json)", s)
}

// Printer writes reports for humans.
type Printer struct {
	Writer  io.Writer
	Color   bool
	Verbose bool // show the rule that set each limit
}

// NewPrinter creates a printer writing to w with color auto-detection.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		Writer: w,
		Color:  UseColor(),
	}
}

// Render writes the report in the requested format.
func (p *Printer) Render(report *lint.Report, format Format) error {
	if format == FormatJSON {
		return WriteJSON(p.Writer, report)
	}
	p.Violations(report)
	p.Summary(report)
	return nil
}

// Violations prints one line per violation in report order:
// actual lines, limit, path.
func (p *Printer) Violations(report *lint.Report) {
	for _, v := range report.Violations {
		line := fmt.Sprintf("%6d > %-6d  %s",
			v.Lines, v.MaxLines, p.colorize(v.Path, color.Bold))
		if p.Verbose {
			line += p.colorize(fmt.Sprintf("  (rule: %s)", v.Source), color.Gray)
		}
		fmt.Fprintln(p.Writer, line)
	}
}

// Summary prints the closing count line, preceded by the number of
// unreadable files when there are any.
func (p *Printer) Summary(report *lint.Report) {
	if k := len(report.Skipped); k > 0 {
		fmt.Fprintf(p.Writer, "%d skipped (unreadable)\n", k)
	}
	fmt.Fprintln(p.Writer, SummaryLine(report, p.Color))
}

// SummaryLine returns "N violations (Xms)", green when clean and red
// otherwise. The elapsed time is always whole milliseconds.
func SummaryLine(report *lint.Report, useColor bool) string {
	n := len(report.Violations)
	s := fmt.Sprintf("%d violations", n)
	if useColor {
		if n == 0 {
			s = color.Green.Sprint(s)
		} else {
			s = color.Red.Sprint(s)
		}
	}
	return s + fmt.Sprintf(" (%dms)", report.Elapsed.Milliseconds())
}

func (p *Printer) colorize(text string, c color.Color) string {
	if !p.Color {
		return text
	}
	return c.Sprint(text)
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal()
}
