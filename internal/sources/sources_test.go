package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForumSourceRecentItems(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour).Unix()
	fresh := time.Now().Add(-time.Hour).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/acmecloud/new.json", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		fmt.Fprintf(w, `{"data":{"children":[
			{"data":{"id":"new1","title":"pricing changed","selftext":"details","permalink":"/r/acmecloud/new1","created_utc":%d,"score":42,"num_comments":7}},
			{"data":{"id":"old1","title":"ancient post","selftext":"","permalink":"/r/acmecloud/old1","created_utc":%d,"score":1,"num_comments":0}}
		]}}`, fresh, old)
	}))
	defer srv.Close()

	src := NewForumSource(5 * time.Second)
	src.SetBaseURL(srv.URL)

	assert.Equal(t, "forum", src.Name())
	assert.True(t, src.Enabled())

	since := time.Now().Add(-24 * time.Hour)
	items, err := src.RecentItems(context.Background(), []string{"acmecloud"}, since)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new1", items[0].ID)
	assert.Equal(t, "pricing changed", items[0].Title)
	assert.Equal(t, srv.URL+"/r/acmecloud/new1", items[0].URL)
	assert.Equal(t, 42, items[0].Score)
	assert.Equal(t, 7, items[0].CommentCount)
}

func TestForumSourceSkipsFailedForums(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/r/broken/new.json" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"data":{"children":[
			{"data":{"id":"ok1","title":"fine","selftext":"","permalink":"/p","created_utc":%d,"score":1,"num_comments":0}}
		]}}`, time.Now().Unix())
	}))
	defer srv.Close()

	src := NewForumSource(5 * time.Second)
	src.SetBaseURL(srv.URL)

	items, err := src.RecentItems(context.Background(), []string{"broken", "working"}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ok1", items[0].ID)
}

func TestTrackerSourceEnabled(t *testing.T) {
	assert.False(t, NewTrackerSource("", time.Second).Enabled())
	assert.True(t, NewTrackerSource("token", time.Second).Enabled())
}

func TestTrackerSourceRecentItems(t *testing.T) {
	created := time.Now().Add(-2 * time.Hour).UTC()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/sdk/issues", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("since"))
		fmt.Fprintf(w, `[
			{"number":17,"title":"rate limit errors","body":"since last week","html_url":"https://tracker.example/17","created_at":%q,"comments":3,"reactions":{"total_count":5}}
		]`, created.Format(time.RFC3339))
	}))
	defer srv.Close()

	src := NewTrackerSource("test-token", 5*time.Second)
	src.SetBaseURL(srv.URL)

	assert.Equal(t, "tracker", src.Name())

	items, err := src.RecentItems(context.Background(), []string{"acme/sdk"}, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "acme/sdk#17", items[0].ID)
	assert.Equal(t, "rate limit errors", items[0].Title)
	assert.Equal(t, "since last week", items[0].Text)
	assert.Equal(t, 5, items[0].Score)
	assert.Equal(t, 3, items[0].CommentCount)
}
