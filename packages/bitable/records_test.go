package bitable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRecords_FollowsPageCursor(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch r.URL.Query().Get("page_token") {
		case "":
			assert.Equal(t, "100", r.URL.Query().Get("page_size"))
			fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {
				"items": [
					{"record_id": "rec1", "fields": {"case_id": "TC-1"}},
					{"record_id": "rec2", "fields": {"case_id": "TC-2"}}
				],
				"has_more": true,
				"page_token": "page2"
			}}`)
		case "page2":
			fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {
				"items": [{"record_id": "rec3", "fields": {"case_id": "TC-3"}}],
				"has_more": false
			}}`)
		default:
			t.Fatalf("unexpected page token %q", r.URL.Query().Get("page_token"))
		}
	})

	records := client.ListRecords(context.Background(), "tbl1", 0)
	assert.Equal(t, 2, requests)
	require.Len(t, records, 3)
	assert.Equal(t, "rec1", records[0].ID)
	assert.Equal(t, "TC-3", records[2].Fields["case_id"])
}

func TestListRecords_StopsWithoutCursor(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {
			"items": [{"record_id": "rec1", "fields": {}}],
			"has_more": true,
			"page_token": ""
		}}`)
	})

	records := client.ListRecords(context.Background(), "tbl1", 50)
	assert.Equal(t, 1, requests)
	assert.Len(t, records, 1)
}

func TestListRecords_EmptyTable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {"items": [], "has_more": false}}`)
	})

	records := client.ListRecords(context.Background(), "tbl1", 50)
	assert.Empty(t, records)
}

func TestListRecords_FailedPageReturnsPartial(t *testing.T) {
	requests := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {
				"items": [{"record_id": "rec1", "fields": {}}],
				"has_more": true,
				"page_token": "page2"
			}}`)
			return
		}
		fmt.Fprint(w, `{"code": 99991, "msg": "rate limited", "data": {}}`)
	})

	records := client.ListRecords(context.Background(), "tbl1", 50)
	assert.Equal(t, 2, requests)
	assert.Len(t, records, 1)
}

func TestListRecords_ClampsPageSize(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "200", r.URL.Query().Get("page_size"))
		fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {"items": [], "has_more": false}}`)
	})

	client.ListRecords(context.Background(), "tbl1", 1000)
}

func TestGetRecord(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/records/rec1")
		fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {
			"record": {"record_id": "rec1", "fields": {"case_id": "TC-1"}}
		}}`)
	})

	rec, err := client.GetRecord(context.Background(), "tbl1", "rec1")
	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, "TC-1", rec.Fields["case_id"])
}

func TestCreateRecord(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TC-9", body["fields"]["case_id"])
		fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {
			"record": {"record_id": "rec9", "fields": {"case_id": "TC-9"}}
		}}`)
	})

	rec, err := client.CreateRecord(context.Background(), "tbl1", map[string]any{"case_id": "TC-9"})
	require.NoError(t, err)
	assert.Equal(t, "rec9", rec.ID)
}

func TestUpdateRecord(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Contains(t, r.URL.Path, "/records/rec1")
		fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {}}`)
	})

	err := client.UpdateRecord(context.Background(), "tbl1", "rec1", map[string]any{"result": "PASS"})
	assert.NoError(t, err)
}

func TestUpdateRecord_Failure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": 91402, "msg": "NOTEXIST", "data": {}}`)
	})

	err := client.UpdateRecord(context.Background(), "tbl1", "missing", map[string]any{"result": "PASS"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "91402")
}

func TestDeleteRecord(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {}}`)
	})

	assert.NoError(t, client.DeleteRecord(context.Background(), "tbl1", "rec1"))
}

func TestFindRecordsByField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code": 0, "msg": "success", "data": {
			"items": [
				{"record_id": "rec1", "fields": {"result": "PASS"}},
				{"record_id": "rec2", "fields": {"result": "FAIL"}},
				{"record_id": "rec3", "fields": {"result": "PASS"}}
			],
			"has_more": false
		}}`)
	})

	matches := client.FindRecordsByField(context.Background(), "tbl1", "result", "PASS")
	require.Len(t, matches, 2)
	assert.Equal(t, "rec1", matches[0].ID)
	assert.Equal(t, "rec3", matches[1].ID)
}
