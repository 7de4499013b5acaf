package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/sources"
)

// fakeSignalRepo records inserts in memory.
type fakeSignalRepo struct {
	inserted []*models.Signal
	existing map[string]bool
}

func (f *fakeSignalRepo) Insert(_ context.Context, sig *models.Signal) (bool, error) {
	key := sig.Source + "/" + sig.SourceID
	if f.existing[key] {
		return false, nil
	}
	f.inserted = append(f.inserted, sig)
	return true, nil
}

func (f *fakeSignalRepo) Exists(_ context.Context, source, sourceID string) (bool, error) {
	return f.existing[source+"/"+sourceID], nil
}

func (f *fakeSignalRepo) CountsBySource(context.Context, time.Time, time.Time) (map[string]int, error) {
	return nil, nil
}

func (f *fakeSignalRepo) AverageSentiment(context.Context, time.Time, time.Time) (*float64, error) {
	return nil, nil
}

func (f *fakeSignalRepo) Recent(context.Context, int, *time.Time, *time.Time, *string) ([]models.Signal, error) {
	return nil, nil
}

type stubScorer struct {
	score float64
	ok    bool
}

func (s stubScorer) Score(string) (float64, bool) {
	return s.score, s.ok
}

func newItem(id, title, text string) sources.RawItem {
	return sources.RawItem{
		ID:       id,
		Title:    title,
		Text:     text,
		URL:      "https://forum.example/" + id,
		PostedAt: time.Date(2026, 8, 12, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600)),
		Score:    12,
	}
}

func TestIngestFiltersUnmatchedItems(t *testing.T) {
	repo := &fakeSignalRepo{}
	ing := New(repo, stubScorer{}, []string{"pricing", "outage"}, 0)

	inserted, err := ing.Ingest(context.Background(), "acme", models.SourceForum, newItem("p1", "Nice weather today", "nothing relevant"))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Empty(t, repo.inserted)
}

func TestIngestStoresMatchedItem(t *testing.T) {
	repo := &fakeSignalRepo{}
	ing := New(repo, stubScorer{score: -0.4, ok: true}, []string{"Pricing"}, 0)

	item := newItem("p2", "New PRICING is outrageous", "they doubled it")
	inserted, err := ing.Ingest(context.Background(), "acme", models.SourceForum, item)
	require.NoError(t, err)
	assert.True(t, inserted)

	require.Len(t, repo.inserted, 1)
	sig := repo.inserted[0]
	assert.Equal(t, "acme", sig.CompanyID)
	assert.Equal(t, models.SourceForum, sig.Source)
	assert.Equal(t, "p2", sig.SourceID)
	// Keyword matching is case-insensitive on both sides.
	assert.JSONEq(t, `["pricing"]`, string(sig.KeywordsMatched))
	require.True(t, sig.Sentiment.Valid)
	assert.InDelta(t, -0.4, sig.Sentiment.Float64, 1e-9)
	// Origin timestamp is preserved, normalized to UTC.
	assert.Equal(t, time.UTC, sig.CapturedAt.Location())
	assert.Equal(t, item.PostedAt.UTC(), sig.CapturedAt)
	assert.True(t, sig.Score.Valid)
	assert.EqualValues(t, 12, sig.Score.Int64)
}

func TestIngestSkipsDuplicates(t *testing.T) {
	repo := &fakeSignalRepo{existing: map[string]bool{"forum/p3": true}}
	ing := New(repo, stubScorer{}, []string{"pricing"}, 0)

	inserted, err := ing.Ingest(context.Background(), "acme", models.SourceForum, newItem("p3", "pricing thread", ""))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Empty(t, repo.inserted)
}

func TestIngestWithoutSentiment(t *testing.T) {
	repo := &fakeSignalRepo{}
	ing := New(repo, stubScorer{ok: false}, []string{"pricing"}, 0)

	inserted, err := ing.Ingest(context.Background(), "acme", models.SourceForum, newItem("p4", "pricing question", ""))
	require.NoError(t, err)
	assert.True(t, inserted)
	require.Len(t, repo.inserted, 1)
	// Unavailable sentiment stays NULL, never defaults to 0.0.
	assert.False(t, repo.inserted[0].Sentiment.Valid)
}

func TestIngestTruncatesContent(t *testing.T) {
	repo := &fakeSignalRepo{}
	ing := New(repo, stubScorer{}, []string{"pricing"}, 20)

	long := "pricing " + strings.Repeat("é", 100)
	inserted, err := ing.Ingest(context.Background(), "acme", models.SourceForum, newItem("p5", long, ""))
	require.NoError(t, err)
	assert.True(t, inserted)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, 20, len([]rune(repo.inserted[0].Content)))
}
