package sources

import (
	"context"
	"time"
)

// RawItem is a timestamped item produced by an external signal source before
// normalization. ID is the origin system's own identifier, unique per source.
type RawItem struct {
	ID           string
	Title        string
	Text         string
	URL          string
	PostedAt     time.Time
	Score        int
	CommentCount int
}

// Source is an external signal source (forum, issue tracker). Implementations
// are source-specific clients; the ingestor is source-agnostic.
type Source interface {
	Name() string

	// Enabled reports whether the source can be used. A source missing
	// credentials is disabled and its collection step is skipped entirely.
	Enabled() bool

	// RecentItems lists items newer than since across the given identifiers
	// (forum names or repository slugs, depending on the source).
	RecentItems(ctx context.Context, identifiers []string, since time.Time) ([]RawItem, error)
}
