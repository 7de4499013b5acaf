package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/models"
)

// SignalRepository defines operations for the signals table.
type SignalRepository interface {
	// Insert persists a signal. Returns false when a signal with the same
	// (source, source_id) already exists; the stored row is left untouched.
	Insert(ctx context.Context, sig *models.Signal) (bool, error)

	// Exists reports whether a signal with the given natural identity is stored.
	Exists(ctx context.Context, source, sourceID string) (bool, error)

	// CountsBySource returns per-source signal counts captured in [start, end].
	CountsBySource(ctx context.Context, start, end time.Time) (map[string]int, error)

	// AverageSentiment returns the mean sentiment over scored signals in
	// [start, end], or nil when no scored signals exist in the window.
	AverageSentiment(ctx context.Context, start, end time.Time) (*float64, error)

	// Recent retrieves signals for the API, ordered by capture time then id,
	// using either a since timestamp or a cursor.
	Recent(ctx context.Context, limit int, since *time.Time, cursorTimestamp *time.Time, cursorID *string) ([]models.Signal, error)
}

// sqlxSignalRepository implements SignalRepository using sqlx.
type sqlxSignalRepository struct {
	db *database.DB
}

// NewSignalRepository creates a new repository instance.
func NewSignalRepository(db *database.DB) SignalRepository {
	return &sqlxSignalRepository{db: db}
}

func (r *sqlxSignalRepository) Insert(ctx context.Context, sig *models.Signal) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO signals (id, company_id, source, source_id, captured_at, content, url, sentiment, keywords_matched, score, comment_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, source_id) DO NOTHING`,
		sig.ID, sig.CompanyID, sig.Source, sig.SourceID, sig.CapturedAt.UTC(),
		sig.Content, sig.URL, sig.Sentiment, sig.KeywordsMatched, sig.Score, sig.CommentCount,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert signal: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected for signal insert: %w", err)
	}
	return affected > 0, nil
}

func (r *sqlxSignalRepository) Exists(ctx context.Context, source, sourceID string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one,
		`SELECT 1 FROM signals WHERE source = ? AND source_id = ? LIMIT 1`,
		source, sourceID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check signal existence: %w", err)
	}
	return true, nil
}

func (r *sqlxSignalRepository) CountsBySource(ctx context.Context, start, end time.Time) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT source, COUNT(*) AS n FROM signals
		WHERE captured_at >= ? AND captured_at <= ?
		GROUP BY source`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("failed to scan signal count row: %w", err)
		}
		counts[source] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate signal count rows: %w", err)
	}
	return counts, nil
}

func (r *sqlxSignalRepository) AverageSentiment(ctx context.Context, start, end time.Time) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.GetContext(ctx, &avg, `
		SELECT AVG(sentiment) FROM signals
		WHERE sentiment IS NOT NULL AND captured_at >= ? AND captured_at <= ?`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query average sentiment: %w", err)
	}
	if !avg.Valid {
		// No scored signals in the window: explicitly unavailable, not 0.0.
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *sqlxSignalRepository) Recent(ctx context.Context, limit int, since *time.Time, cursorTimestamp *time.Time, cursorID *string) ([]models.Signal, error) {
	var sigs []models.Signal
	var query string
	var args []any

	const baseQuery = `SELECT * FROM signals `
	const orderBy = ` ORDER BY captured_at ASC, id ASC LIMIT ?`

	if cursorTimestamp != nil && cursorID != nil {
		query = baseQuery + `WHERE (captured_at > ?) OR (captured_at = ? AND id > ?)` + orderBy
		args = append(args, cursorTimestamp.UTC(), cursorTimestamp.UTC(), *cursorID, limit)
	} else if since != nil {
		query = baseQuery + `WHERE captured_at > ?` + orderBy
		args = append(args, since.UTC(), limit)
	} else {
		return nil, fmt.Errorf("either 'since' or cursor parameters must be provided")
	}

	err := r.db.SelectContext(ctx, &sigs, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Signal{}, nil
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	return sigs, nil
}
