// Package metrics aggregates per-case latencies for the run summary.
package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Latency collects response times into a histogram. Runs are single-threaded,
// so no locking is needed.
type Latency struct {
	hist *hdrhistogram.Histogram
}

// NewLatency creates a collector covering 1us to 60s at 3 significant digits.
func NewLatency() *Latency {
	return &Latency{hist: hdrhistogram.New(1, 60_000_000, 3)}
}

// Record adds one response time, clamped to the histogram range.
func (l *Latency) Record(d time.Duration) {
	us := d.Microseconds()
	if us < l.hist.LowestTrackableValue() {
		us = l.hist.LowestTrackableValue()
	}
	if us > l.hist.HighestTrackableValue() {
		us = l.hist.HighestTrackableValue()
	}
	_ = l.hist.RecordValue(us)
}

// Summary holds the aggregated latency figures of a run.
type Summary struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

func fromMicros(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}

// Summarize computes the summary over everything recorded so far.
func (l *Latency) Summarize() Summary {
	if l.hist.TotalCount() == 0 {
		return Summary{}
	}
	return Summary{
		Count: l.hist.TotalCount(),
		Min:   fromMicros(l.hist.Min()),
		Max:   fromMicros(l.hist.Max()),
		Mean:  fromMicros(int64(l.hist.Mean())),
		P50:   fromMicros(l.hist.ValueAtQuantile(50)),
		P95:   fromMicros(l.hist.ValueAtQuantile(95)),
		P99:   fromMicros(l.hist.ValueAtQuantile(99)),
	}
}
