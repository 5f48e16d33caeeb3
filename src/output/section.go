package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gookit/color"

	"github.com/sofmeright/loq/src/rules"
)

const sectionWidth = 61 // inner width between │ and line end

// Section renders a box-drawing framed output section.
type Section struct {
	w     io.Writer
	name  string
	color bool
}

// NewSection creates a section and writes its header.
// If elapsed is non-zero, it appears right-aligned in the header.
func NewSection(w io.Writer, name string, elapsed time.Duration, useColor bool) *Section {
	s := &Section{w: w, name: name, color: useColor}
	s.writeHeader(elapsed)
	return s
}

// Row writes a content line inside the section frame.
func (s *Section) Row(format string, args ...any) {
	fmt.Fprintf(s.w, "    │ %s\n", fmt.Sprintf(format, args...))
}

// Close writes the section footer.
func (s *Section) Close() {
	fmt.Fprintf(s.w, "    └%s\n", strings.Repeat("─", sectionWidth))
}

// writeHeader renders: ── Name ──────────────────── elapsed ──
func (s *Section) writeHeader(elapsed time.Duration) {
	label := fmt.Sprintf("── %s ", s.name)

	suffix := "──"
	if elapsed > 0 {
		suffix = fmt.Sprintf(" %s ──", formatElapsed(elapsed))
	}

	fill := sectionWidth + 4 - len(label) - len(suffix)
	if fill < 1 {
		fill = 1
	}

	header := label + strings.Repeat("─", fill) + suffix
	if s.color {
		header = color.Cyan.Sprint(header)
	}
	fmt.Fprintf(s.w, "\n    %s\n", header)
}

// RuleTable writes the effective rule set in evaluation order, with the
// scan time in the header. The last matching row wins, so the list reads
// top to bottom as increasing priority.
func RuleTable(w io.Writer, rs *rules.RuleSet, source string, elapsed time.Duration, useColor bool) {
	sec := NewSection(w, "rules", elapsed, useColor)
	defer sec.Close()

	if source == "" {
		source = "built-in defaults"
	}
	sec.Row("%-10s %s", "config", source)
	sec.Row("%-10s %d", "default", rs.DefaultMaxLines())
	sec.Row("%-10s %t", "gitignore", rs.RespectGitignore())

	if ex := rs.Exclude(); len(ex) > 0 {
		sec.Row("%-10s %s", "exclude", strings.Join(ex, ", "))
	}
	for i, r := range rs.Rules() {
		sec.Row("%3d. %6d  %s", i+1, r.MaxLines, r.Pattern)
	}
}

// formatElapsed formats a duration for section headers.
func formatElapsed(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := d.Seconds() - float64(mins*60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}
