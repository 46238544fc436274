package runner

import (
	"strconv"
	"time"

	"github.com/larkops/bittest/packages/format"
	"github.com/larkops/bittest/packages/metrics"
)

// Result markers written back into the result column.
const (
	MarkerPass = "PASS"
	MarkerFail = "FAIL"
)

// Result is the outcome of one executed case.
type Result struct {
	RecordID string
	CaseID   string
	Status   int
	Body     string
	Elapsed  time.Duration
	Passed   bool
	Err      string
}

// DisplayFields renders the result into the write-back columns. A failed
// case with an error message gets the message prefixed into the body cell so
// it is visible in the table.
func (r *Result) DisplayFields(maxBodyLength int) map[string]any {
	body := format.FormatBody(r.Body, maxBodyLength)
	if !r.Passed && r.Err != "" {
		if body != "" {
			body = "error: " + r.Err + "\n\n" + body
		} else {
			body = "error: " + r.Err
		}
	}

	marker := MarkerFail
	if r.Passed {
		marker = MarkerPass
	}

	return map[string]any{
		FieldActualStatus: strconv.Itoa(r.Status),
		FieldResponseBody: body,
		FieldResult:       marker,
	}
}

// Results aggregates one run.
type Results struct {
	RunID    string
	Items    []Result
	Total    int
	Passed   int
	Failed   int
	Skipped  int // rows excluded by validation, not counted in Total
	Duration time.Duration
	Latency  metrics.Summary
}

// PassRate is passed/total as a percentage, 0 when nothing ran.
func (r *Results) PassRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Total) * 100
}
