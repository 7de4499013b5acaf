package storage

import (
	"context"
	"fmt"

	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/models"
)

// CompanyRepository defines operations for the companies table.
type CompanyRepository interface {
	// Seed inserts companies that are not yet present. Existing rows are
	// never mutated. Returns the number of newly inserted companies.
	Seed(ctx context.Context, companies []models.Company) (int, error)

	// List returns all companies ordered by id.
	List(ctx context.Context) ([]models.Company, error)
}

// sqlxCompanyRepository implements CompanyRepository using sqlx.
type sqlxCompanyRepository struct {
	db *database.DB
}

// NewCompanyRepository creates a new repository instance.
func NewCompanyRepository(db *database.DB) CompanyRepository {
	return &sqlxCompanyRepository{db: db}
}

func (r *sqlxCompanyRepository) Seed(ctx context.Context, companies []models.Company) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO companies (id, name, metadata, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare company insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, company := range companies {
		res, err := stmt.ExecContext(ctx, company.ID, company.Name, company.Metadata, company.CreatedAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("failed to insert company %s: %w", company.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected for company %s: %w", company.ID, err)
		}
		if affected > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit company seed: %w", err)
	}
	return inserted, nil
}

func (r *sqlxCompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.SelectContext(ctx, &companies, `SELECT * FROM companies ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}
