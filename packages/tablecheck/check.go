// Package tablecheck inspects a test-case table and reports rows that the
// runner would skip, so table problems are visible before a run.
package tablecheck

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/larkops/bittest/packages/bitable"
	"github.com/larkops/bittest/packages/core/runner"
)

// caseSchema validates one row rendered as a JSON object. It mirrors the
// runner's validation rules so both agree on what is runnable.
const caseSchema = `{
  "type": "object",
  "required": ["case_id", "path", "method"],
  "properties": {
    "case_id": {"type": "string", "minLength": 1},
    "path": {"type": "string", "pattern": "^(/|http)"},
    "method": {"enum": ["GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"]},
    "expected_status": {"type": "string", "pattern": "^([1-5][0-9]{2})?$"}
  }
}`

// RowProblem ties validation messages to one table row.
type RowProblem struct {
	RecordID string
	CaseID   string
	Problems []string
}

// Report is the outcome of checking one table.
type Report struct {
	Total          int
	Runnable       int
	Rows           []RowProblem
	MissingColumns []string
}

// OK reports whether every row is runnable and no column is missing.
func (r *Report) OK() bool {
	return len(r.Rows) == 0 && len(r.MissingColumns) == 0
}

// Checker validates a test-case table.
type Checker struct {
	client *bitable.Client
	schema *gojsonschema.Schema
	logger *zap.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker compiles the row schema once and reuses it per table.
func NewChecker(client *bitable.Client, opts ...Option) (*Checker, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(caseSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling case schema: %w", err)
	}
	c := &Checker{
		client: client,
		schema: schema,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Check reads every row of the table and validates it against the row
// schema. It also reports required columns the table does not define.
func (c *Checker) Check(ctx context.Context, tableID string) (*Report, error) {
	report := &Report{}

	fields, err := c.client.ListFields(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("reading table schema: %w", err)
	}
	defined := make(map[string]bool, len(fields))
	for _, f := range fields {
		defined[f.Name] = true
	}
	for _, name := range runner.RequiredFields {
		if !defined[name] {
			report.MissingColumns = append(report.MissingColumns, name)
		}
	}

	records := c.client.ListRecords(ctx, tableID, bitable.DefaultPageSize)
	report.Total = len(records)

	for _, rec := range records {
		tc := runner.CaseFromRecord(rec)
		problems := c.validateRow(tc)
		if len(problems) == 0 {
			report.Runnable++
			continue
		}
		report.Rows = append(report.Rows, RowProblem{
			RecordID: rec.ID,
			CaseID:   tc.CaseID,
			Problems: problems,
		})
	}

	c.logger.Info("table checked",
		zap.String("table", tableID),
		zap.Int("total", report.Total),
		zap.Int("runnable", report.Runnable),
		zap.Strings("missing_columns", report.MissingColumns))
	return report, nil
}

// validateRow runs the schema over the rendered row and falls back to the
// runner's own messages, which are more specific than schema output.
func (c *Checker) validateRow(tc runner.TestCase) []string {
	doc, err := json.Marshal(map[string]string{
		runner.FieldCaseID:         tc.CaseID,
		runner.FieldPath:           tc.Path,
		runner.FieldMethod:         tc.Method,
		runner.FieldExpectedStatus: tc.ExpectedStatus,
	})
	if err != nil {
		return []string{err.Error()}
	}

	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}
	if problems := tc.Problems(); len(problems) > 0 {
		return problems
	}
	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return problems
}
