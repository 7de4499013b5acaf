package models

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot kinds, one per monitored resource type.
const (
	KindPricing = "pricing"
	KindDocs    = "docs"
)

// Snapshot represents a row in the 'snapshots' table: one persisted capture
// of fetched content for a (company, kind, url) pair. Rows are append-only;
// the most recent row per pair is the comparison baseline for the next fetch.
type Snapshot struct {
	ID          string    `db:"id" json:"id"`
	CompanyID   string    `db:"company_id" json:"company_id"`
	Kind        string    `db:"kind" json:"kind"`
	URL         string    `db:"url" json:"url"`
	CapturedAt  time.Time `db:"captured_at" json:"captured_at"`
	ContentHash string    `db:"content_hash" json:"content_hash"`
	RawHTML     string    `db:"raw_html" json:"-"`
	Extracted   []byte    `db:"extracted" json:"extracted,omitempty"` // JSON, nullable
	IsChange    bool      `db:"is_change" json:"is_change"`
}

// NewSnapshot creates a new Snapshot with a generated id and capture time.
func NewSnapshot(companyID, kind, url string) *Snapshot {
	return &Snapshot{
		ID:         uuid.NewString(),
		CompanyID:  companyID,
		Kind:       kind,
		URL:        url,
		CapturedAt: time.Now().UTC(),
	}
}
