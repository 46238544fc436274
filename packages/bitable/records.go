package bitable

import (
	"context"
	"net/http"
	"net/url"
	"reflect"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	// MaxPageSize is the largest page the list endpoint accepts.
	MaxPageSize = 200

	// DefaultPageSize is used when the caller does not ask for one.
	DefaultPageSize = 100
)

// Record is one table row: a stable identifier plus a mapping of field name
// to value. Values are heterogeneous (strings, numbers, option lists, nested
// objects) exactly as the API delivers them.
type Record struct {
	ID     string
	Fields map[string]any
}

func recordFromJSON(g gjson.Result) Record {
	rec := Record{
		ID:     g.Get("record_id").String(),
		Fields: make(map[string]any),
	}
	if fields, ok := g.Get("fields").Value().(map[string]any); ok {
		rec.Fields = fields
	}
	return rec
}

// ListRecords fetches every row of a table, following the page cursor until
// the server reports no further page. Pages are paced by the client's page
// delay. A failed page logs and stops pagination; the rows collected so far
// are returned. An empty table yields an empty slice, never an error.
func (c *Client) ListRecords(ctx context.Context, tableID string, pageSize int) []Record {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var records []Record
	pageToken := ""

	for {
		if err := c.pager.Wait(ctx); err != nil {
			c.logger.Warn("pagination cancelled", zap.Error(err))
			break
		}

		query := url.Values{}
		query.Set("page_size", strconv.Itoa(pageSize))
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		res := c.call(ctx, http.MethodGet, c.recordsPath(tableID), query, nil)
		if !res.OK() {
			c.logger.Error("listing records failed", zap.String("table", tableID), zap.String("msg", res.Msg))
			break
		}

		for _, item := range res.Data.Get("items").Array() {
			records = append(records, recordFromJSON(item))
		}

		if !res.Data.Get("has_more").Bool() {
			break
		}
		pageToken = res.Data.Get("page_token").String()
		if pageToken == "" {
			break
		}
	}

	c.logger.Info("records fetched", zap.String("table", tableID), zap.Int("count", len(records)))
	return records
}

// GetRecord fetches a single row by identifier.
func (c *Client) GetRecord(ctx context.Context, tableID, recordID string) (*Record, error) {
	res := c.call(ctx, http.MethodGet, c.recordsPath(tableID)+"/"+recordID, nil, nil)
	if !res.OK() {
		return nil, res.Err()
	}
	rec := recordFromJSON(res.Data.Get("record"))
	return &rec, nil
}

// CreateRecord appends a row with the given fields and returns it.
func (c *Client) CreateRecord(ctx context.Context, tableID string, fields map[string]any) (*Record, error) {
	body := map[string]any{"fields": fields}
	res := c.call(ctx, http.MethodPost, c.recordsPath(tableID), nil, body)
	if !res.OK() {
		c.logger.Error("creating record failed", zap.String("table", tableID), zap.String("msg", res.Msg))
		return nil, res.Err()
	}
	rec := recordFromJSON(res.Data.Get("record"))
	c.logger.Info("record created", zap.String("record", rec.ID))
	return &rec, nil
}

// UpdateRecord overwrites the given fields of one row.
func (c *Client) UpdateRecord(ctx context.Context, tableID, recordID string, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	res := c.call(ctx, http.MethodPut, c.recordsPath(tableID)+"/"+recordID, nil, body)
	if !res.OK() {
		c.logger.Error("updating record failed", zap.String("record", recordID), zap.String("msg", res.Msg))
		return res.Err()
	}
	c.logger.Debug("record updated", zap.String("record", recordID))
	return nil
}

// DeleteRecord removes one row.
func (c *Client) DeleteRecord(ctx context.Context, tableID, recordID string) error {
	res := c.call(ctx, http.MethodDelete, c.recordsPath(tableID)+"/"+recordID, nil, nil)
	if !res.OK() {
		c.logger.Error("deleting record failed", zap.String("record", recordID), zap.String("msg", res.Msg))
		return res.Err()
	}
	return nil
}

// FindRecordsByField filters the whole table client-side for rows whose named
// field equals the given value.
func (c *Client) FindRecordsByField(ctx context.Context, tableID, fieldName string, value any) []Record {
	var matches []Record
	for _, rec := range c.ListRecords(ctx, tableID, DefaultPageSize) {
		if reflect.DeepEqual(rec.Fields[fieldName], value) {
			matches = append(matches, rec)
		}
	}
	return matches
}
