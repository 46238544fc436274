package bitable

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// FieldType is the integer type code of a column schema.
type FieldType int

const (
	FieldText         FieldType = 1
	FieldNumber       FieldType = 2
	FieldSingleSelect FieldType = 3
	FieldMultiSelect  FieldType = 4
	FieldDate         FieldType = 5
	FieldCheckbox     FieldType = 7
	FieldPerson       FieldType = 11
	FieldPhone        FieldType = 13
	FieldURL          FieldType = 15
	FieldAttachment   FieldType = 17
	FieldSingleLink   FieldType = 18
	FieldLookup       FieldType = 19
	FieldFormula      FieldType = 20
	FieldDuplexLink   FieldType = 21
	FieldLocation     FieldType = 22
	FieldGroupChat    FieldType = 23
	FieldCreatedTime  FieldType = 1001
	FieldModifiedTime FieldType = 1002
	FieldCreatedBy    FieldType = 1003
	FieldModifiedBy   FieldType = 1004
)

var fieldTypeNames = map[FieldType]string{
	FieldText:         "text",
	FieldNumber:       "number",
	FieldSingleSelect: "single_select",
	FieldMultiSelect:  "multi_select",
	FieldDate:         "date",
	FieldCheckbox:     "checkbox",
	FieldPerson:       "person",
	FieldPhone:        "phone",
	FieldURL:          "url",
	FieldAttachment:   "attachment",
	FieldSingleLink:   "single_link",
	FieldLookup:       "lookup",
	FieldFormula:      "formula",
	FieldDuplexLink:   "duplex_link",
	FieldLocation:     "location",
	FieldGroupChat:    "group_chat",
	FieldCreatedTime:  "created_time",
	FieldModifiedTime: "modified_time",
	FieldCreatedBy:    "created_by",
	FieldModifiedBy:   "modified_by",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Field is one column's schema definition.
type Field struct {
	ID          string
	Name        string
	Type        FieldType
	Property    map[string]any
	Description string
}

func fieldFromJSON(g gjson.Result) Field {
	f := Field{
		ID:   g.Get("field_id").String(),
		Name: g.Get("field_name").String(),
		Type: FieldType(g.Get("type").Int()),
	}
	if prop, ok := g.Get("property").Value().(map[string]any); ok {
		f.Property = prop
	}
	f.Description = g.Get("description.text").String()
	return f
}

func (f Field) requestBody(includeType bool) map[string]any {
	body := map[string]any{}
	if f.Name != "" {
		body["field_name"] = f.Name
	}
	if includeType {
		body["type"] = int(f.Type)
	}
	if f.Property != nil {
		body["property"] = f.Property
	}
	if f.Description != "" {
		body["description"] = map[string]any{"text": f.Description}
	}
	return body
}

// ListFields fetches every column definition of a table.
func (c *Client) ListFields(ctx context.Context, tableID string) ([]Field, error) {
	res := c.call(ctx, http.MethodGet, c.fieldsPath(tableID), nil, nil)
	if !res.OK() {
		c.logger.Error("listing fields failed", zap.String("table", tableID), zap.String("msg", res.Msg))
		return nil, res.Err()
	}

	var fields []Field
	for _, item := range res.Data.Get("items").Array() {
		fields = append(fields, fieldFromJSON(item))
	}
	return fields, nil
}

// CreateField adds a column to the table and returns its definition.
func (c *Client) CreateField(ctx context.Context, tableID string, field Field) (*Field, error) {
	res := c.call(ctx, http.MethodPost, c.fieldsPath(tableID), nil, field.requestBody(true))
	if !res.OK() {
		c.logger.Error("creating field failed", zap.String("name", field.Name), zap.String("msg", res.Msg))
		return nil, res.Err()
	}
	created := fieldFromJSON(res.Data.Get("field"))
	c.logger.Info("field created", zap.String("name", created.Name), zap.String("id", created.ID))
	return &created, nil
}

// UpdateField renames or reconfigures a column. At least one of name,
// property, or description must be set.
func (c *Client) UpdateField(ctx context.Context, tableID, fieldID string, field Field) error {
	body := field.requestBody(false)
	if len(body) == 0 {
		c.logger.Warn("field update with nothing to change", zap.String("field", fieldID))
		return nil
	}

	res := c.call(ctx, http.MethodPut, c.fieldsPath(tableID)+"/"+fieldID, nil, body)
	if !res.OK() {
		c.logger.Error("updating field failed", zap.String("field", fieldID), zap.String("msg", res.Msg))
		return res.Err()
	}
	return nil
}

// DeleteField removes a column. Irreversible.
func (c *Client) DeleteField(ctx context.Context, tableID, fieldID string) error {
	res := c.call(ctx, http.MethodDelete, c.fieldsPath(tableID)+"/"+fieldID, nil, nil)
	if !res.OK() {
		c.logger.Error("deleting field failed", zap.String("field", fieldID), zap.String("msg", res.Msg))
		return res.Err()
	}
	return nil
}

// GetFieldByName looks a column up by display name. Returns nil without error
// when no such column exists.
func (c *Client) GetFieldByName(ctx context.Context, tableID, name string) (*Field, error) {
	fields, err := c.ListFields(ctx, tableID)
	if err != nil {
		return nil, err
	}
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i], nil
		}
	}
	return nil, nil
}

// EnsureFieldExists returns the named column, creating it when absent.
func (c *Client) EnsureFieldExists(ctx context.Context, tableID string, field Field) (*Field, error) {
	existing, err := c.GetFieldByName(ctx, tableID, field.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	c.logger.Info("field missing, creating", zap.String("name", field.Name))
	return c.CreateField(ctx, tableID, field)
}
