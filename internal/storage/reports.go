package storage

import (
	"context"
	"fmt"

	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/models"
)

// ReportRepository defines operations for stored weekly report aggregates.
type ReportRepository interface {
	// Upsert stores the report aggregates, replacing any prior row for the
	// same week_start.
	Upsert(ctx context.Context, report *models.WeeklyReport) error
}

// sqlxReportRepository implements ReportRepository using sqlx.
type sqlxReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new repository instance.
func NewReportRepository(db *database.DB) ReportRepository {
	return &sqlxReportRepository{db: db}
}

func (r *sqlxReportRepository) Upsert(ctx context.Context, report *models.WeeklyReport) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO weekly_reports (id, week_start, week_end, generated_at, pricing_changes, docs_changes, signal_volume, avg_sentiment, key_events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(week_start) DO UPDATE SET
			week_end = excluded.week_end,
			generated_at = excluded.generated_at,
			pricing_changes = excluded.pricing_changes,
			docs_changes = excluded.docs_changes,
			signal_volume = excluded.signal_volume,
			avg_sentiment = excluded.avg_sentiment,
			key_events = excluded.key_events`,
		report.ID, report.WeekStart.UTC(), report.WeekEnd.UTC(), report.GeneratedAt.UTC(),
		report.PricingChanges, report.DocsChanges, report.SignalVolume,
		report.AvgSentiment, report.KeyEvents,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly report: %w", err)
	}
	return nil
}
