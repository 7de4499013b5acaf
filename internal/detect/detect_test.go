package detect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/storage"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("<html>$20/mo</html>")
	b := Fingerprint("<html>$20/mo</html>")
	c := Fingerprint("<html>$25/mo</html>")

	assert.Equal(t, a, b, "same content must yield the same fingerprint")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestSlug(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://acme.example/pricing", "acme.example_pricing"},
		{"http://acme.example/docs/api", "acme.example_docs_api"},
		{"acme.example", "acme.example"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slug(tc.url))
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "first_seen", FirstSeen.String())
	assert.Equal(t, "changed", Changed.String())
	assert.Equal(t, "unchanged", Unchanged.String())
}

func newTestDetector(t *testing.T) (*Detector, string) {
	t.Helper()

	db, err := database.NewDB(database.NewConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = storage.NewCompanyRepository(db).Seed(context.Background(), []models.Company{
		*models.NewCompany("acme", "Acme Cloud"),
	})
	require.NoError(t, err)

	diffsDir := t.TempDir()
	return NewDetector(storage.NewSnapshotRepository(db), diffsDir), diffsDir
}

func TestProcessPriceChange(t *testing.T) {
	detector, diffsDir := newTestDetector(t)
	ctx := context.Background()
	const url = "https://acme.example/pricing"

	pageV1 := "<html><body>Pro plan: $20/mo</body></html>"
	pageV2 := "<html><body>Pro plan: $25/mo</body></html>"

	// First fetch establishes the baseline.
	outcome, err := detector.Process(ctx, "acme", models.KindPricing, url, pageV1, nil)
	require.NoError(t, err)
	assert.Equal(t, FirstSeen, outcome.Decision)
	require.NotNil(t, outcome.Snapshot)
	assert.Nil(t, outcome.Baseline)
	assert.Empty(t, outcome.DiffPath)

	// Same content again: no write, no diff.
	outcome, err = detector.Process(ctx, "acme", models.KindPricing, url, pageV1, nil)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome.Decision)
	assert.Nil(t, outcome.Snapshot)

	// Price bump: change detected, diff artifact written.
	outcome, err = detector.Process(ctx, "acme", models.KindPricing, url, pageV2, nil)
	require.NoError(t, err)
	assert.Equal(t, Changed, outcome.Decision)
	require.NotNil(t, outcome.Baseline)
	require.NotEmpty(t, outcome.DiffPath)

	data, err := os.ReadFile(outcome.DiffPath)
	require.NoError(t, err)
	diff := string(data)
	assert.Contains(t, diff, "$20/mo")
	assert.Contains(t, diff, "$25/mo")
	assert.Equal(t, diffsDir, filepath.Dir(outcome.DiffPath))
}

func TestProcessWithoutDiffsDir(t *testing.T) {
	detector, _ := newTestDetector(t)
	detector.diffsDir = ""
	ctx := context.Background()
	const url = "https://acme.example/docs"

	_, err := detector.Process(ctx, "acme", models.KindDocs, url, "v1", nil)
	require.NoError(t, err)

	outcome, err := detector.Process(ctx, "acme", models.KindDocs, url, "v2", nil)
	require.NoError(t, err)
	assert.Equal(t, Changed, outcome.Decision)
	assert.Empty(t, outcome.DiffPath)
}
