package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/larkops/bittest/packages/bitable"
	"github.com/larkops/bittest/packages/format"
	"github.com/larkops/bittest/packages/http"
)

// Column names of the test-case table.
const (
	FieldCaseID         = "case_id"
	FieldPath           = "path"
	FieldMethod         = "method"
	FieldHeaders        = "headers"
	FieldBody           = "body"
	FieldExpectedStatus = "expected_status"
	FieldAssertion      = "assertion"

	// Write-back columns.
	FieldActualStatus = "status_code"
	FieldResponseBody = "response_body"
	FieldResult       = "result"
)

// RequiredFields must be present and non-empty for a row to become a test
// case.
var RequiredFields = []string{FieldCaseID, FieldPath, FieldMethod}

var allowedMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// TestCase is one runnable row from the test-case table.
type TestCase struct {
	RecordID       string
	CaseID         string
	Method         string
	Path           string
	Headers        string
	Body           string
	ExpectedStatus string
	Assertion      string
}

// CaseFromRecord maps a table row onto a TestCase. Heterogeneous cell values
// are rendered to strings; no validation happens here.
func CaseFromRecord(rec bitable.Record) TestCase {
	cell := func(name string) string {
		return strings.TrimSpace(format.ValueString(rec.Fields[name]))
	}
	return TestCase{
		RecordID:       rec.ID,
		CaseID:         cell(FieldCaseID),
		Method:         strings.ToUpper(cell(FieldMethod)),
		Path:           cell(FieldPath),
		Headers:        cell(FieldHeaders),
		Body:           cell(FieldBody),
		ExpectedStatus: cell(FieldExpectedStatus),
		Assertion:      cell(FieldAssertion),
	}
}

// Problems returns the reasons this case cannot run. An empty slice means
// the case is runnable.
func (tc *TestCase) Problems() []string {
	var problems []string

	for name, value := range map[string]string{
		FieldCaseID: tc.CaseID,
		FieldPath:   tc.Path,
		FieldMethod: tc.Method,
	} {
		if value == "" {
			problems = append(problems, fmt.Sprintf("missing required field: %s", name))
		}
	}

	if tc.Method != "" && !allowedMethods[tc.Method] {
		problems = append(problems, fmt.Sprintf("invalid method: %s", tc.Method))
	}

	if tc.Path != "" && !strings.HasPrefix(tc.Path, "/") && !strings.HasPrefix(tc.Path, "http") {
		problems = append(problems, fmt.Sprintf("path must start with / or http: %s", tc.Path))
	}

	if tc.ExpectedStatus != "" {
		code, err := strconv.Atoi(tc.ExpectedStatus)
		if err != nil {
			problems = append(problems, fmt.Sprintf("expected status must be numeric: %q", tc.ExpectedStatus))
		} else if code < 100 || code > 599 {
			problems = append(problems, fmt.Sprintf("expected status out of range: %d", code))
		}
	}

	return problems
}

// Request builds the outgoing request for this case. A JSON body (after
// repair) gets a JSON content type unless the headers cell already set one.
func (tc *TestCase) Request() http.Request {
	headers := format.ParseHeaders(tc.Headers)
	body, isJSON := format.ParseBody(tc.Body)

	if isJSON {
		hasContentType := false
		for k := range headers {
			if strings.EqualFold(k, "Content-Type") {
				hasContentType = true
				break
			}
		}
		if !hasContentType {
			headers["Content-Type"] = "application/json"
		}
	}

	return http.Request{
		Method:  tc.Method,
		URL:     tc.Path,
		Headers: headers,
		Body:    body,
	}
}
