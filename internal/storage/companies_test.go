package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compwatch/monitor/internal/models"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := newTestDB(t) // already seeds "acme"
	repo := NewCompanyRepository(db)
	ctx := context.Background()

	inserted, err := repo.Seed(ctx, []models.Company{
		*models.NewCompany("acme", "Acme Renamed"),
		*models.NewCompany("globex", "Globex"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	companies, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "acme", companies[0].ID)
	// Existing rows are never mutated by re-seeding.
	assert.Equal(t, "Acme Cloud", companies[0].Name)
	assert.Equal(t, "globex", companies[1].ID)
}
