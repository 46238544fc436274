package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/larkops/bittest/packages/core/runner"
	"github.com/larkops/bittest/packages/metrics"
)

func sampleResults() *runner.Results {
	return &runner.Results{
		RunID: "run-123",
		Items: []runner.Result{
			{CaseID: "TC-1", Status: 200, Passed: true, Elapsed: 120 * time.Millisecond},
			{CaseID: "TC-2", Status: 500, Passed: false, Err: "status mismatch: expected 201, got 500", Elapsed: 80 * time.Millisecond},
		},
		Total:    2,
		Passed:   1,
		Failed:   1,
		Skipped:  1,
		Duration: 300 * time.Millisecond,
		Latency: metrics.Summary{
			Count: 2,
			P50:   100 * time.Millisecond,
			P95:   120 * time.Millisecond,
			P99:   120 * time.Millisecond,
			Max:   120 * time.Millisecond,
		},
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatResults(sampleResults())

	out := buf.String()
	assert.Contains(t, out, "Run run-123")
	assert.Contains(t, out, "✓ TC-1")
	assert.Contains(t, out, "✗ TC-2")
	assert.Contains(t, out, "status mismatch")
	assert.Contains(t, out, "1 passed")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "1 skipped")
	assert.Contains(t, out, "2 total (50.0%)")
	assert.Contains(t, out, "p95 120ms")
}

func TestConsoleFormatter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	f.FormatResults(sampleResults())

	assert.Contains(t, buf.String(), "Status: 200")
}

func TestConsoleFormatter_Header(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatHeader("1.2.3")
	assert.Equal(t, "bittest 1.2.3\n", buf.String())
}
