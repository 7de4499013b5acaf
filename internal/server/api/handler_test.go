package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/storage"
)

func newTestHandler(t *testing.T) *ChangesHandler {
	t.Helper()

	db, err := database.NewDB(database.NewConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	_, err = storage.NewCompanyRepository(db).Seed(ctx, []models.Company{
		*models.NewCompany("acme", "Acme Cloud"),
	})
	require.NoError(t, err)

	base := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"c1", "c2", "c3"} {
		_, err := db.ExecContext(ctx, `
			INSERT INTO snapshots (id, company_id, kind, url, captured_at, content_hash, raw_html, is_change)
			VALUES (?, 'acme', 'pricing', 'https://acme.example/pricing', ?, ?, '', 1)`,
			id, base.Add(time.Duration(i)*time.Minute), "hash-"+id)
		require.NoError(t, err)
	}

	return NewChangesHandler(storage.NewSnapshotRepository(db))
}

func doRequest(t *testing.T, h *ChangesHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.GetChanges(rec, req)
	return rec
}

func TestGetChangesRequiresSinceOrCursor(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, "/v1/changes")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChangesRejectsBadParams(t *testing.T) {
	h := newTestHandler(t)

	assert.Equal(t, http.StatusBadRequest, doRequest(t, h, "/v1/changes?since=yesterday").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, h, "/v1/changes?since=2026-08-12T00:00:00Z&limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, h, "/v1/changes?since=2026-08-12T00:00:00Z&limit=99999").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, h, "/v1/changes?cursor=not-a-cursor").Code)
}

func TestGetChangesPaginates(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, "/v1/changes?since=2026-08-12T00:00:00Z&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var page ChangesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c1", page.Items[0].ID)
	require.NotNil(t, page.NextCursor)

	rec = doRequest(t, h, "/v1/changes?cursor="+*page.NextCursor)
	require.Equal(t, http.StatusOK, rec.Code)
	page = ChangesResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c3", page.Items[0].ID)
	assert.Nil(t, page.NextCursor)
}

func TestGetChangesEmptyResult(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, "/v1/changes?since=2030-01-01T00:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)

	var page ChangesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}
