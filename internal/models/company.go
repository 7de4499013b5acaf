package models

import (
	"database/sql"
	"time"
)

// Company represents a row in the 'companies' table. Companies are seeded
// from the sources config at init time and are never deleted.
type Company struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Metadata  sql.NullString `db:"metadata" json:"-"` // free-form JSON
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// NewCompany creates a new Company with default values
func NewCompany(id, name string) *Company {
	return &Company{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}
