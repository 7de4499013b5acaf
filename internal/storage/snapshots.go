package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/models"
)

// SnapshotRepository defines operations for the append-only snapshot log.
type SnapshotRepository interface {
	// Record persists the snapshot unless its fingerprint equals the current
	// baseline's, in which case nothing is written and created is false.
	// The returned baseline is the previous most-recent snapshot for the
	// (company, kind, url) pair, nil when the pair has never been seen.
	Record(ctx context.Context, snap *models.Snapshot) (created bool, baseline *models.Snapshot, err error)

	// Latest returns the most recent snapshot for the pair, nil when none exists.
	Latest(ctx context.Context, companyID, kind, url string) (*models.Snapshot, error)

	// ChangesInWindow returns snapshots with is_change set whose capture time
	// falls in [start, end], most recent first.
	ChangesInWindow(ctx context.Context, start, end time.Time) ([]models.Snapshot, error)

	// CountChangesInWindow returns the number of changed snapshots of the
	// given kind captured in [start, end].
	CountChangesInWindow(ctx context.Context, kind string, start, end time.Time) (int, error)

	// RecentChanges retrieves changed snapshots for the API, ordered by
	// capture time then id, using either a since timestamp or a cursor.
	RecentChanges(ctx context.Context, limit int, since *time.Time, cursorTimestamp *time.Time, cursorID *string) ([]models.Snapshot, error)
}

// sqlxSnapshotRepository implements SnapshotRepository using sqlx.
type sqlxSnapshotRepository struct {
	db *database.DB
}

// NewSnapshotRepository creates a new repository instance.
func NewSnapshotRepository(db *database.DB) SnapshotRepository {
	return &sqlxSnapshotRepository{db: db}
}

// Ordering must break capture-time ties by id so the baseline is the last
// inserted row, never an arbitrary one.
const latestQuery = `
	SELECT * FROM snapshots
	WHERE company_id = ? AND kind = ? AND url = ?
	ORDER BY captured_at DESC, id DESC
	LIMIT 1`

func (r *sqlxSnapshotRepository) Record(ctx context.Context, snap *models.Snapshot) (bool, *models.Snapshot, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	var baseline models.Snapshot
	err = tx.GetContext(ctx, &baseline, latestQuery, snap.CompanyID, snap.Kind, snap.URL)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		snap.IsChange = false
	case err != nil:
		return false, nil, fmt.Errorf("failed to query baseline snapshot: %w", err)
	case baseline.ContentHash == snap.ContentHash:
		// Unchanged fetch: the baseline stays the single source of truth,
		// no duplicate row is written.
		log.Debug().
			Str("company_id", snap.CompanyID).
			Str("kind", snap.Kind).
			Str("url", snap.URL).
			Msg("Content unchanged, skipping snapshot write")
		return false, &baseline, nil
	default:
		snap.IsChange = true
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, company_id, kind, url, captured_at, content_hash, raw_html, extracted, is_change)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.CompanyID, snap.Kind, snap.URL, snap.CapturedAt.UTC(),
		snap.ContentHash, snap.RawHTML, snap.Extracted, snap.IsChange,
	)
	if err != nil {
		return false, nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	if snap.IsChange {
		return true, &baseline, nil
	}
	return true, nil, nil
}

func (r *sqlxSnapshotRepository) Latest(ctx context.Context, companyID, kind, url string) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := r.db.GetContext(ctx, &snap, latestQuery, companyID, kind, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}
	return &snap, nil
}

func (r *sqlxSnapshotRepository) ChangesInWindow(ctx context.Context, start, end time.Time) ([]models.Snapshot, error) {
	var snaps []models.Snapshot
	err := r.db.SelectContext(ctx, &snaps, `
		SELECT * FROM snapshots
		WHERE is_change = 1 AND captured_at >= ? AND captured_at <= ?
		ORDER BY captured_at DESC, id DESC`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes in window: %w", err)
	}
	return snaps, nil
}

func (r *sqlxSnapshotRepository) CountChangesInWindow(ctx context.Context, kind string, start, end time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM snapshots
		WHERE is_change = 1 AND kind = ? AND captured_at >= ? AND captured_at <= ?`,
		kind, start.UTC(), end.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count changes in window: %w", err)
	}
	return count, nil
}

func (r *sqlxSnapshotRepository) RecentChanges(ctx context.Context, limit int, since *time.Time, cursorTimestamp *time.Time, cursorID *string) ([]models.Snapshot, error) {
	var snaps []models.Snapshot
	var query string
	var args []any

	// Consistent ordering is required for cursor pagination.
	const baseQuery = `SELECT * FROM snapshots WHERE is_change = 1 `
	const orderBy = ` ORDER BY captured_at ASC, id ASC LIMIT ?`

	if cursorTimestamp != nil && cursorID != nil {
		query = baseQuery + `AND ((captured_at > ?) OR (captured_at = ? AND id > ?))` + orderBy
		args = append(args, cursorTimestamp.UTC(), cursorTimestamp.UTC(), *cursorID, limit)
	} else if since != nil {
		query = baseQuery + `AND captured_at > ?` + orderBy
		args = append(args, since.UTC(), limit)
	} else {
		return nil, fmt.Errorf("either 'since' or cursor parameters must be provided")
	}

	err := r.db.SelectContext(ctx, &snaps, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Snapshot{}, nil
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	return snaps, nil
}
