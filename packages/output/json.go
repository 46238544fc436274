package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/larkops/bittest/packages/core/runner"
)

// JSONOutput is the complete machine-readable report of one run.
type JSONOutput struct {
	RunID    string      `json:"runId"`
	Summary  JSONSummary `json:"summary"`
	Cases    []JSONCase  `json:"cases"`
	Latency  JSONLatency `json:"latency"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary aggregates the run totals.
type JSONSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	PassRate float64 `json:"passRate"`
}

// JSONCase is one executed case.
type JSONCase struct {
	CaseID   string  `json:"caseId"`
	Status   int     `json:"status"`
	Passed   bool    `json:"passed"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error,omitempty"`
}

// JSONLatency carries the latency percentiles in milliseconds.
type JSONLatency struct {
	Count int64   `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// JSONFormatter emits run results as indented JSON.
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

func (f *JSONFormatter) FormatResults(results *runner.Results) {
	cases := make([]JSONCase, 0, len(results.Items))
	for _, r := range results.Items {
		cases = append(cases, JSONCase{
			CaseID:   r.CaseID,
			Status:   r.Status,
			Passed:   r.Passed,
			Duration: millis(r.Elapsed),
			Error:    r.Err,
		})
	}

	out := JSONOutput{
		RunID: results.RunID,
		Summary: JSONSummary{
			Total:    results.Total,
			Passed:   results.Passed,
			Failed:   results.Failed,
			Skipped:  results.Skipped,
			PassRate: results.PassRate(),
		},
		Cases: cases,
		Latency: JSONLatency{
			Count: results.Latency.Count,
			Min:   millis(results.Latency.Min),
			Max:   millis(results.Latency.Max),
			Mean:  millis(results.Latency.Mean),
			P50:   millis(results.Latency.P50),
			P95:   millis(results.Latency.P95),
			P99:   millis(results.Latency.P99),
		},
		Duration: millis(results.Duration),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(out)
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors surface inside individual case entries.
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header for JSON output.
}
