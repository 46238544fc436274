package tablecheck

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larkops/bittest/packages/bitable"
)

func newChecker(t *testing.T, fields, rows string) *Checker {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/fields") {
			fmt.Fprintf(w, `{"code": 0, "msg": "success", "data": {"items": %s}}`, fields)
			return
		}
		fmt.Fprintf(w, `{"code": 0, "msg": "success", "data": {"items": %s, "has_more": false}}`, rows)
	}))
	t.Cleanup(server.Close)

	client, err := bitable.NewClient("pt-test", "app",
		bitable.WithDomain(server.URL),
		bitable.WithPageDelay(0),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	checker, err := NewChecker(client)
	require.NoError(t, err)
	return checker
}

const allColumns = `[
	{"field_id": "f1", "field_name": "case_id", "type": 1},
	{"field_id": "f2", "field_name": "path", "type": 1},
	{"field_id": "f3", "field_name": "method", "type": 1}
]`

func TestCheck_AllRowsRunnable(t *testing.T) {
	checker := newChecker(t, allColumns, `[
		{"record_id": "r1", "fields": {"case_id": "TC-1", "path": "/a", "method": "GET", "expected_status": "200"}},
		{"record_id": "r2", "fields": {"case_id": "TC-2", "path": "/b", "method": "POST"}}
	]`)

	report, err := checker.Check(context.Background(), "tbl1")
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Runnable)
}

func TestCheck_ReportsBadRows(t *testing.T) {
	checker := newChecker(t, allColumns, `[
		{"record_id": "r1", "fields": {"case_id": "TC-1", "path": "/a", "method": "GET"}},
		{"record_id": "r2", "fields": {"case_id": "TC-2", "path": "/b", "method": "FETCH"}},
		{"record_id": "r3", "fields": {"case_id": "TC-3", "method": "GET"}}
	]`)

	report, err := checker.Check(context.Background(), "tbl1")
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Runnable)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "TC-2", report.Rows[0].CaseID)
	assert.Contains(t, report.Rows[0].Problems[0], "invalid method")
	assert.Contains(t, report.Rows[1].Problems[0], "missing required field: path")
}

func TestCheck_MissingColumns(t *testing.T) {
	checker := newChecker(t, `[
		{"field_id": "f1", "field_name": "case_id", "type": 1}
	]`, `[]`)

	report, err := checker.Check(context.Background(), "tbl1")
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, []string{"path", "method"}, report.MissingColumns)
}

func TestCheck_BadExpectedStatus(t *testing.T) {
	checker := newChecker(t, allColumns, `[
		{"record_id": "r1", "fields": {"case_id": "TC-1", "path": "/a", "method": "GET", "expected_status": "abc"}}
	]`)

	report, err := checker.Check(context.Background(), "tbl1")
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Contains(t, report.Rows[0].Problems[0], "must be numeric")
}
