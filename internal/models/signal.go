package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Signal source kinds.
const (
	SourceForum   = "forum"
	SourceTracker = "tracker"
)

// Signal represents a row in the 'signals' table: a normalized community or
// issue-tracker item relevant to a company. (source, source_id) is unique,
// so re-ingesting the same origin item is a no-op.
type Signal struct {
	ID              string          `db:"id" json:"id"`
	CompanyID       string          `db:"company_id" json:"company_id"`
	Source          string          `db:"source" json:"source"`
	SourceID        string          `db:"source_id" json:"source_id"`
	CapturedAt      time.Time       `db:"captured_at" json:"captured_at"` // origin item timestamp, not ingestion time
	Content         string          `db:"content" json:"content"`
	URL             sql.NullString  `db:"url" json:"url,omitempty"`
	Sentiment       sql.NullFloat64 `db:"sentiment" json:"sentiment,omitempty"`
	KeywordsMatched []byte          `db:"keywords_matched" json:"keywords_matched,omitempty"` // JSON array
	Score           sql.NullInt64   `db:"score" json:"score,omitempty"`
	CommentCount    sql.NullInt64   `db:"comment_count" json:"comment_count,omitempty"`
}

// NewSignal creates a new Signal with a generated id.
func NewSignal(companyID, source, sourceID string) *Signal {
	return &Signal{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Source:    source,
		SourceID:  sourceID,
	}
}
