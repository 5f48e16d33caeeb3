package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sofmeright/loq/src/lint"
)

// DefaultJUnitPath is where check writes JUnit XML under CI when --junit
// is not given.
const DefaultJUnitPath = ".loq/reports/loq.xml"

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

func IsGitLabCI() bool {
	return os.Getenv("GITLAB_CI") == "true"
}

// GitLab collapsible section helpers.

func SectionStart(w io.Writer, id, name string) {
	if !IsGitLabCI() {
		return
	}
	ts := time.Now().Unix()
	fmt.Fprintf(w, "\033[0Ksection_start:%d:%s\r\033[0K%s\n", ts, id, name)
}

func SectionEnd(w io.Writer, id string) {
	if !IsGitLabCI() {
		return
	}
	ts := time.Now().Unix()
	fmt.Fprintf(w, "\033[0Ksection_end:%d:%s\r\033[0K\n", ts, id)
}

// JUnit XML types for CI test reporting.

type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr"`
}

// BuildJUnit converts a report into a single suite with one test case per
// measured file. Violations are failures; unreadable files are skipped.
func BuildJUnit(report *lint.Report) JUnitTestSuites {
	suite := JUnitTestSuite{
		Name: "loq",
		Time: fmt.Sprintf("%.3f", report.Elapsed.Seconds()),
	}

	for _, r := range report.Results {
		tc := JUnitTestCase{
			Name:      r.Path,
			Classname: "loq." + classname(r.Path),
			Time:      "0.000",
		}
		switch {
		case r.Err != nil:
			tc.Skipped = &JUnitSkipped{Message: r.Err.Error()}
			suite.Skipped++
		case r.Over():
			tc.Failure = &JUnitFailure{
				Message: fmt.Sprintf("%d lines exceeds limit %d", r.Lines, r.Limit.MaxLines),
				Type:    "max_lines",
				Body:    fmt.Sprintf("%s: %d > %d (rule: %s)", r.Path, r.Lines, r.Limit.MaxLines, r.Limit.Source),
			}
			suite.Failures++
		}
		suite.Cases = append(suite.Cases, tc)
		suite.Tests++
	}

	return JUnitTestSuites{
		Name:     "loq",
		Tests:    suite.Tests,
		Failures: suite.Failures,
		Time:     suite.Time,
		Suites:   []JUnitTestSuite{suite},
	}
}

// classname turns a file's directory into a dotted JUnit class name.
func classname(path string) string {
	dir := filepath.ToSlash(filepath.Dir(path))
	if dir == "." {
		return "root"
	}
	return strings.ReplaceAll(dir, "/", ".")
}

// WriteJUnit writes the report as JUnit XML to path, creating parent
// directories as needed.
func WriteJUnit(path string, report *lint.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := EncodeJUnit(f, report); err != nil {
		return err
	}
	return f.Close()
}

// EncodeJUnit writes the XML document for report to w.
func EncodeJUnit(w io.Writer, report *lint.Report) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(BuildJUnit(report)); err != nil {
		return fmt.Errorf("encoding junit xml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
