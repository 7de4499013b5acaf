package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/storage"
)

// ChangeEntry is one detected change listed in a weekly report.
type ChangeEntry struct {
	CompanyID  string
	Kind       string
	URL        string
	CapturedAt time.Time
}

// Report is the weekly aggregate over snapshots, signals, and events.
// Building it is read-only and idempotent: the same week over unchanged data
// yields identical aggregates, only GeneratedAt differs.
type Report struct {
	WeekStart      time.Time
	WeekEnd        time.Time
	GeneratedAt    time.Time
	PricingChanges int
	DocsChanges    int
	Changes        []ChangeEntry // most recent first
	SignalVolume   map[string]int
	AvgSentiment   *float64 // nil when no scored signals exist in the window
	KeyEvents      []models.FinancialEvent
}

// SentimentLabel renders the average sentiment, or the explicit
// not-available sentinel when no signal in the window was scored.
func (r *Report) SentimentLabel() string {
	if r.AvgSentiment == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *r.AvgSentiment)
}

// WeekBounds normalizes an anchor date to its Monday-aligned week:
// [Monday 00:00:00, Sunday 23:59:59.999999999] in UTC. Any day of a week
// yields the same bounds.
func WeekBounds(anchor time.Time) (time.Time, time.Time) {
	d := anchor.UTC()
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7 // days since Monday
	start := d.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

// Generator builds weekly reports from the stores and renders them to disk.
type Generator struct {
	snapshots  storage.SnapshotRepository
	signals    storage.SignalRepository
	events     storage.EventRepository
	reports    storage.ReportRepository
	reportsDir string
}

// NewGenerator creates a Generator. reportsDir may be empty to skip the
// rendered file.
func NewGenerator(snapshots storage.SnapshotRepository, signals storage.SignalRepository,
	events storage.EventRepository, reports storage.ReportRepository, reportsDir string) *Generator {
	return &Generator{
		snapshots:  snapshots,
		signals:    signals,
		events:     events,
		reports:    reports,
		reportsDir: reportsDir,
	}
}

// Build computes the aggregate report for the week containing anchor.
func (g *Generator) Build(ctx context.Context, anchor time.Time) (*Report, error) {
	start, end := WeekBounds(anchor)

	rpt := &Report{
		WeekStart:   start,
		WeekEnd:     end,
		GeneratedAt: time.Now().UTC(),
	}

	var err error
	if rpt.PricingChanges, err = g.snapshots.CountChangesInWindow(ctx, models.KindPricing, start, end); err != nil {
		return nil, err
	}
	if rpt.DocsChanges, err = g.snapshots.CountChangesInWindow(ctx, models.KindDocs, start, end); err != nil {
		return nil, err
	}

	changes, err := g.snapshots.ChangesInWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for _, snap := range changes {
		rpt.Changes = append(rpt.Changes, ChangeEntry{
			CompanyID:  snap.CompanyID,
			Kind:       snap.Kind,
			URL:        snap.URL,
			CapturedAt: snap.CapturedAt,
		})
	}

	if rpt.SignalVolume, err = g.signals.CountsBySource(ctx, start, end); err != nil {
		return nil, err
	}
	if rpt.AvgSentiment, err = g.signals.AverageSentiment(ctx, start, end); err != nil {
		return nil, err
	}
	if rpt.KeyEvents, err = g.events.InWindow(ctx, start, end); err != nil {
		return nil, err
	}

	return rpt, nil
}

// Generate builds the report for the week containing anchor, persists the
// aggregate row (replacing any prior row for the same week), and writes the
// rendered markdown file. Returns the report and the rendered file path.
func (g *Generator) Generate(ctx context.Context, anchor time.Time) (*Report, string, error) {
	rpt, err := g.Build(ctx, anchor)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build weekly report: %w", err)
	}

	row := models.NewWeeklyReport(rpt.WeekStart, rpt.WeekEnd)
	row.GeneratedAt = rpt.GeneratedAt
	row.PricingChanges = rpt.PricingChanges
	row.DocsChanges = rpt.DocsChanges
	if volume, err := json.Marshal(rpt.SignalVolume); err == nil {
		row.SignalVolume = volume
	}
	if rpt.AvgSentiment != nil {
		row.AvgSentiment.Float64 = *rpt.AvgSentiment
		row.AvgSentiment.Valid = true
	}
	if events, err := json.Marshal(rpt.KeyEvents); err == nil {
		row.KeyEvents = events
	}
	if err := g.reports.Upsert(ctx, row); err != nil {
		return nil, "", fmt.Errorf("failed to store weekly report: %w", err)
	}

	path := ""
	if g.reportsDir != "" {
		path, err = g.render(rpt)
		if err != nil {
			return nil, "", err
		}
		log.Info().Str("path", path).Msg("Weekly report rendered")
	}

	return rpt, path, nil
}
