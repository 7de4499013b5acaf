package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// FinancialEvent represents a row in the 'financial_events' table. Events are
// entered manually via the add-event command and surfaced in weekly reports.
type FinancialEvent struct {
	ID        string          `db:"id" json:"id"`
	CompanyID string          `db:"company_id" json:"company_id"`
	EventDate time.Time       `db:"event_date" json:"event_date"`
	EventType string          `db:"event_type" json:"event_type"`
	Amount    sql.NullFloat64 `db:"amount" json:"amount,omitempty"`
	Valuation sql.NullFloat64 `db:"valuation" json:"valuation,omitempty"`
	SourceURL sql.NullString  `db:"source_url" json:"source_url,omitempty"`
	Notes     sql.NullString  `db:"notes" json:"notes,omitempty"`
}

// NewFinancialEvent creates a new FinancialEvent with a generated id.
func NewFinancialEvent(companyID, eventType string, eventDate time.Time) *FinancialEvent {
	return &FinancialEvent{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		EventType: eventType,
		EventDate: eventDate,
	}
}
