package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// WeeklyReport represents a row in the 'weekly_reports' table. Reports are
// recomputed on demand; regenerating for the same week replaces the stored
// aggregates (week_start is unique) and overwrites the rendered file.
type WeeklyReport struct {
	ID             string          `db:"id" json:"id"`
	WeekStart      time.Time       `db:"week_start" json:"week_start"`
	WeekEnd        time.Time       `db:"week_end" json:"week_end"`
	GeneratedAt    time.Time       `db:"generated_at" json:"generated_at"`
	PricingChanges int             `db:"pricing_changes" json:"pricing_changes"`
	DocsChanges    int             `db:"docs_changes" json:"docs_changes"`
	SignalVolume   []byte          `db:"signal_volume" json:"signal_volume,omitempty"` // JSON map source -> count
	AvgSentiment   sql.NullFloat64 `db:"avg_sentiment" json:"avg_sentiment,omitempty"`
	KeyEvents      []byte          `db:"key_events" json:"key_events,omitempty"` // JSON array
}

// NewWeeklyReport creates a new WeeklyReport row for the given week bounds.
func NewWeeklyReport(weekStart, weekEnd time.Time) *WeeklyReport {
	return &WeeklyReport{
		ID:          uuid.NewString(),
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		GeneratedAt: time.Now().UTC(),
	}
}
