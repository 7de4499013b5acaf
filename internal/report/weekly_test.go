package report

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/storage"
)

func TestWeekBounds(t *testing.T) {
	wantStart := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC) // a Monday
	wantEnd := time.Date(2026, 8, 16, 23, 59, 59, 999999999, time.UTC)

	// Every day of the week resolves to the same bounds.
	anchors := []time.Time{
		time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),       // Monday itself
		time.Date(2026, 8, 12, 15, 30, 0, 0, time.UTC),     // midweek
		time.Date(2026, 8, 16, 23, 59, 59, 0, time.UTC),    // Sunday night
		time.Date(2026, 8, 17, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)), // Sunday 23:00 UTC
	}
	for _, anchor := range anchors {
		start, end := WeekBounds(anchor)
		assert.Equal(t, wantStart, start, "anchor %s", anchor)
		assert.Equal(t, wantEnd, end, "anchor %s", anchor)
	}

	// The next Monday starts a new week.
	start, _ := WeekBounds(time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), start)
}

func TestSentimentLabel(t *testing.T) {
	rpt := &Report{}
	assert.Equal(t, "n/a", rpt.SentimentLabel())

	v := 0.4567
	rpt.AvgSentiment = &v
	assert.Equal(t, "0.457", rpt.SentimentLabel())
}

func newTestGenerator(t *testing.T) (*Generator, *database.DB, string) {
	t.Helper()

	db, err := database.NewDB(database.NewConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = storage.NewCompanyRepository(db).Seed(context.Background(), []models.Company{
		*models.NewCompany("acme", "Acme Cloud"),
	})
	require.NoError(t, err)

	reportsDir := t.TempDir()
	gen := NewGenerator(
		storage.NewSnapshotRepository(db),
		storage.NewSignalRepository(db),
		storage.NewEventRepository(db),
		storage.NewReportRepository(db),
		reportsDir,
	)
	return gen, db, reportsDir
}

func TestGenerateEmptyWeek(t *testing.T) {
	gen, _, reportsDir := newTestGenerator(t)

	anchor := time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)
	rpt, path, err := gen.Generate(context.Background(), anchor)
	require.NoError(t, err)

	assert.Equal(t, 0, rpt.PricingChanges)
	assert.Equal(t, 0, rpt.DocsChanges)
	assert.Nil(t, rpt.AvgSentiment)
	assert.Empty(t, rpt.Changes)

	assert.Equal(t, filepath.Join(reportsDir, "weekly_2026-08-10.md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Week: 2026-08-10 to 2026-08-16")
	assert.Contains(t, content, "Average sentiment: n/a")
	assert.Contains(t, content, "No signals captured this week.")
	assert.Contains(t, content, "No events recorded this week.")
}

func TestGeneratePopulatedWeek(t *testing.T) {
	gen, db, _ := newTestGenerator(t)
	ctx := context.Background()

	inWeek := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)

	_, err := db.ExecContext(ctx, `
		INSERT INTO snapshots (id, company_id, kind, url, captured_at, content_hash, raw_html, is_change)
		VALUES ('snap-1', 'acme', 'pricing', 'https://acme.example/pricing', ?, 'h1', '', 1)`, inWeek)
	require.NoError(t, err)

	signals := storage.NewSignalRepository(db)
	sig := models.NewSignal("acme", models.SourceForum, "p1")
	sig.CapturedAt = inWeek
	sig.Content = "pricing went up"
	sig.Sentiment = sql.NullFloat64{Float64: -0.5, Valid: true}
	_, err = signals.Insert(ctx, sig)
	require.NoError(t, err)

	event := models.NewFinancialEvent("acme", "funding_round", inWeek)
	require.NoError(t, storage.NewEventRepository(db).Insert(ctx, event))

	rpt, path, err := gen.Generate(ctx, inWeek)
	require.NoError(t, err)

	assert.Equal(t, 1, rpt.PricingChanges)
	assert.Equal(t, 0, rpt.DocsChanges)
	require.Len(t, rpt.Changes, 1)
	assert.Equal(t, "https://acme.example/pricing", rpt.Changes[0].URL)
	assert.Equal(t, map[string]int{models.SourceForum: 1}, rpt.SignalVolume)
	require.NotNil(t, rpt.AvgSentiment)
	assert.InDelta(t, -0.5, *rpt.AvgSentiment, 1e-9)
	require.Len(t, rpt.KeyEvents, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Pricing changes: 1")
	assert.Contains(t, content, "Average sentiment: -0.500")
	assert.Contains(t, content, "funding_round")

	// Regenerating the same week replaces the stored row, not duplicates it.
	_, _, err = gen.Generate(ctx, inWeek.AddDate(0, 0, 2))
	require.NoError(t, err)
	var rows int
	require.NoError(t, db.GetContext(ctx, &rows, `SELECT COUNT(*) FROM weekly_reports`))
	assert.Equal(t, 1, rows)
}
