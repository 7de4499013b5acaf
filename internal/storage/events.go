package storage

import (
	"context"
	"fmt"
	"time"

	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/models"
)

// EventRepository defines operations for manually recorded financial events.
type EventRepository interface {
	Insert(ctx context.Context, event *models.FinancialEvent) error
	InWindow(ctx context.Context, start, end time.Time) ([]models.FinancialEvent, error)
}

// sqlxEventRepository implements EventRepository using sqlx.
type sqlxEventRepository struct {
	db *database.DB
}

// NewEventRepository creates a new repository instance.
func NewEventRepository(db *database.DB) EventRepository {
	return &sqlxEventRepository{db: db}
}

func (r *sqlxEventRepository) Insert(ctx context.Context, event *models.FinancialEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO financial_events (id, company_id, event_date, event_type, amount, valuation, source_url, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.CompanyID, event.EventDate.UTC(), event.EventType,
		event.Amount, event.Valuation, event.SourceURL, event.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert financial event: %w", err)
	}
	return nil
}

func (r *sqlxEventRepository) InWindow(ctx context.Context, start, end time.Time) ([]models.FinancialEvent, error) {
	var events []models.FinancialEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM financial_events
		WHERE event_date >= ? AND event_date <= ?
		ORDER BY event_date ASC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query financial events: %w", err)
	}
	return events, nil
}
