// Package report parses the JUnit XML reports that SDCcc writes into the
// test run directory after a run.
package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Status classifies the outcome of a single test case.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

// TestSuite is one `testsuite` element of a report file.
type TestSuite struct {
	XMLName   xml.Name   `xml:"testsuite"`
	Name      string     `xml:"name,attr"`
	Tests     int        `xml:"tests,attr"`
	Failures  int        `xml:"failures,attr"`
	Errors    int        `xml:"errors,attr"`
	Skipped   int        `xml:"skipped,attr"`
	Time      float64    `xml:"time,attr"`
	Timestamp string     `xml:"timestamp,attr"`
	Cases     []TestCase `xml:"testcase"`
}

// TestCase is one executed requirement test. Exactly zero or one of
// Failure, Error and Skipped is set; all nil means the case passed.
type TestCase struct {
	Name      string  `xml:"name,attr"`
	ClassName string  `xml:"classname,attr"`
	Time      float64 `xml:"time,attr"`
	Failure   *Detail `xml:"failure"`
	Error     *Detail `xml:"error"`
	Skipped   *Detail `xml:"skipped"`
	SystemOut string  `xml:"system-out"`
}

// Detail carries the message attached to a failure, error or skip.
type Detail struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

// Status reports the outcome of the case.
func (c *TestCase) Status() Status {
	switch {
	case c.Error != nil:
		return StatusErrored
	case c.Failure != nil:
		return StatusFailed
	case c.Skipped != nil:
		return StatusSkipped
	default:
		return StatusPassed
	}
}

// Passed reports whether the suite completed without failures or errors.
// Skipped cases do not count against it.
func (s *TestSuite) Passed() bool {
	return s.Failures == 0 && s.Errors == 0
}

// Case returns the first case with the given name, or nil.
func (s *TestSuite) Case(name string) *TestCase {
	for i := range s.Cases {
		if s.Cases[i].Name == name {
			return &s.Cases[i]
		}
	}
	return nil
}

// Parse reads a single JUnit test suite. Reports wrapped in a `testsuites`
// root element are accepted as long as they contain exactly one suite.
func Parse(r io.Reader) (*TestSuite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	var suite TestSuite
	if err := xml.Unmarshal(data, &suite); err == nil {
		return &suite, nil
	}

	var wrapper struct {
		XMLName xml.Name    `xml:"testsuites"`
		Suites  []TestSuite `xml:"testsuite"`
	}
	if err := xml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	if len(wrapper.Suites) != 1 {
		return nil, fmt.Errorf("report contains %d test suites, expected exactly one", len(wrapper.Suites))
	}
	return &wrapper.Suites[0], nil
}

// ParseFile parses the report at the given path.
func ParseFile(path string) (*TestSuite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
