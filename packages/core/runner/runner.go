// Package runner loads test cases from a Bitable table, executes them
// against the target API, and writes the outcomes back into the table.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/larkops/bittest/packages/assertions"
	"github.com/larkops/bittest/packages/bitable"
	"github.com/larkops/bittest/packages/http"
	"github.com/larkops/bittest/packages/metrics"
)

// Config holds the knobs of one run.
type Config struct {
	TableID       string
	PageSize      int
	CaseDelay     time.Duration // pause between cases, 0 disables pacing
	MaxBodyLength int           // truncation limit for write-back bodies
	EnsureColumns bool          // create missing write-back columns before running
}

// Runner drives a full load, execute, write-back cycle.
type Runner struct {
	table  *bitable.Client
	exec   *http.Executor
	cfg    Config
	logger *zap.Logger
	pacer  *rate.Limiter
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a runner over one table client and one request executor.
func New(table *bitable.Client, exec *http.Executor, cfg Config, opts ...Option) *Runner {
	if cfg.PageSize <= 0 {
		cfg.PageSize = bitable.DefaultPageSize
	}
	limit := rate.Inf
	if cfg.CaseDelay > 0 {
		limit = rate.Every(cfg.CaseDelay)
	}
	r := &Runner{
		table:  table,
		exec:   exec,
		cfg:    cfg,
		logger: zap.NewNop(),
		pacer:  rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadCases reads every row of the case table and keeps the runnable ones.
// Rows failing validation are logged and counted as skipped.
func (r *Runner) LoadCases(ctx context.Context) (cases []TestCase, skipped int) {
	records := r.table.ListRecords(ctx, r.cfg.TableID, r.cfg.PageSize)
	for _, rec := range records {
		tc := CaseFromRecord(rec)
		if problems := tc.Problems(); len(problems) > 0 {
			r.logger.Warn("skipping case",
				zap.String("record", rec.ID),
				zap.String("case", tc.CaseID),
				zap.Strings("problems", problems))
			skipped++
			continue
		}
		cases = append(cases, tc)
	}
	r.logger.Info("cases loaded",
		zap.Int("runnable", len(cases)),
		zap.Int("skipped", skipped))
	return cases, skipped
}

// ExecuteCase runs one case and judges it. A transport failure fails the
// case without consulting the assertion rule.
func (r *Runner) ExecuteCase(ctx context.Context, tc TestCase) Result {
	outcome := r.exec.Do(ctx, tc.Request())

	res := Result{
		RecordID: tc.RecordID,
		CaseID:   tc.CaseID,
		Status:   outcome.Status,
		Body:     outcome.Body,
		Elapsed:  outcome.Elapsed,
	}

	if outcome.Failed() {
		res.Err = outcome.Err
		r.logger.Warn("case failed to execute",
			zap.String("case", tc.CaseID),
			zap.String("error", outcome.Err))
		return res
	}

	passed, reason := assertions.Validate(outcome.Status, outcome.Body, tc.ExpectedStatus, tc.Assertion)
	res.Passed = passed
	if !passed {
		res.Err = reason
	}

	r.logger.Info("case executed",
		zap.String("case", tc.CaseID),
		zap.Int("status", outcome.Status),
		zap.Duration("elapsed", outcome.Elapsed),
		zap.Bool("passed", passed))
	return res
}

// Run executes every runnable case in table order and writes the results
// back. The returned Results is complete even when write-back partially
// fails; write-back errors are logged and do not abort the run.
func (r *Runner) Run(ctx context.Context) (*Results, error) {
	if r.cfg.EnsureColumns {
		if err := r.EnsureResultColumns(ctx); err != nil {
			return nil, err
		}
	}

	cases, skipped := r.LoadCases(ctx)

	results := &Results{
		RunID:   uuid.NewString(),
		Skipped: skipped,
		Total:   len(cases),
	}
	latency := metrics.NewLatency()
	start := time.Now()

	for _, tc := range cases {
		if err := r.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		res := r.ExecuteCase(ctx, tc)
		if res.Status != 0 {
			// Only cases that got a response carry a real latency.
			latency.Record(res.Elapsed)
		}
		if res.Passed {
			results.Passed++
		} else {
			results.Failed++
		}
		results.Items = append(results.Items, res)
	}

	results.Duration = time.Since(start)
	results.Latency = latency.Summarize()

	r.WriteBack(ctx, results)

	r.logger.Info("run finished",
		zap.String("run", results.RunID),
		zap.Int("total", results.Total),
		zap.Int("passed", results.Passed),
		zap.Int("failed", results.Failed),
		zap.Float64("pass_rate", results.PassRate()),
		zap.Duration("duration", results.Duration))
	return results, nil
}

// EnsureResultColumns creates the write-back columns when the table lacks
// them.
func (r *Runner) EnsureResultColumns(ctx context.Context) error {
	for _, name := range []string{FieldActualStatus, FieldResponseBody, FieldResult} {
		field := bitable.Field{Name: name, Type: bitable.FieldText}
		if _, err := r.table.EnsureFieldExists(ctx, r.cfg.TableID, field); err != nil {
			return err
		}
	}
	return nil
}

// WriteBack updates each executed row with its outcome. Rows without a
// record ID are skipped; update failures are logged and the rest continue.
func (r *Runner) WriteBack(ctx context.Context, results *Results) {
	for _, res := range results.Items {
		if res.RecordID == "" {
			continue
		}
		fields := res.DisplayFields(r.cfg.MaxBodyLength)
		if err := r.table.UpdateRecord(ctx, r.cfg.TableID, res.RecordID, fields); err != nil {
			r.logger.Warn("write-back failed",
				zap.String("case", res.CaseID),
				zap.String("record", res.RecordID),
				zap.Error(err))
		}
	}
}
