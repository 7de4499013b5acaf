package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/models"
)

// newTestDB opens a fresh migrated database under a temp dir and seeds one
// company so foreign keys resolve.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewDB(database.NewConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = NewCompanyRepository(db).Seed(context.Background(), []models.Company{
		*models.NewCompany("acme", "Acme Cloud"),
	})
	require.NoError(t, err)

	return db
}
