// Package configtable reads runtime overrides from a secondary Bitable
// table, so the target API host can be switched by editing a row instead of
// redeploying configuration files.
package configtable

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/larkops/bittest/packages/bitable"
	"github.com/larkops/bittest/packages/format"
)

// Column names in the config table.
const (
	ColumnHost    = "host"
	ColumnEnabled = "enabled"
	ColumnRemark  = "remark"
)

// Reader loads configuration rows from one table.
type Reader struct {
	client  *bitable.Client
	tableID string
	logger  *zap.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a reader over one config table.
func NewReader(client *bitable.Client, tableID string, opts ...Option) *Reader {
	r := &Reader{
		client:  client,
		tableID: tableID,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func enabled(v any) bool {
	switch strings.ToLower(format.ValueString(v)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// APIBaseURL returns the host of the first enabled row, or the empty string
// when no row qualifies or the table cannot be read.
func (r *Reader) APIBaseURL(ctx context.Context) string {
	records := r.client.ListRecords(ctx, r.tableID, bitable.DefaultPageSize)
	for _, rec := range records {
		host := format.ValueString(rec.Fields[ColumnHost])
		if host == "" || !enabled(rec.Fields[ColumnEnabled]) {
			continue
		}
		r.logger.Info("api base url from config table",
			zap.String("host", host),
			zap.String("remark", format.ValueString(rec.Fields[ColumnRemark])))
		return host
	}
	r.logger.Warn("config table has no enabled host row", zap.String("table", r.tableID))
	return ""
}
