package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/larkops/bittest/packages/core/runner"
)

// JUnitTestSuite is the root element, one suite per run.
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase is a single executed case.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure marks an assertion or status failure.
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
}

// JUnitError marks a case that never got a response.
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
}

// JUnitFormatter formats run results as JUnit XML for CI systems.
type JUnitFormatter struct {
	writer io.Writer
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatResults(results *runner.Results) {
	suite := JUnitTestSuite{
		Name:      results.RunID,
		Tests:     results.Total,
		Failures:  results.Failed,
		Skipped:   results.Skipped,
		Time:      results.Duration.Seconds(),
		Timestamp: time.Now().Format(time.RFC3339),
		TestCases: make([]JUnitTestCase, 0, len(results.Items)),
	}

	for _, r := range results.Items {
		tc := JUnitTestCase{
			Name:      r.CaseID,
			ClassName: "bittest",
			Time:      r.Elapsed.Seconds(),
		}
		if !r.Passed {
			if r.Status == 0 {
				// No response at all counts as an error, not a failure.
				suite.Errors++
				suite.Failures--
				tc.Error = &JUnitError{Message: r.Err, Type: "TransportError"}
			} else {
				tc.Failure = &JUnitFailure{Message: r.Err, Type: "AssertionError"}
			}
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	_ = encoder.Encode(suite)
	fmt.Fprintln(f.writer)
}

func (f *JUnitFormatter) FormatError(err error) {
	// Errors surface inside individual test cases.
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header for JUnit XML.
}
