package detect

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"compwatch/monitor/internal/models"
)

const diffTimeFormat = "20060102T150405Z"

// WriteDiff renders a unified diff between the baseline and the new snapshot
// and writes it to dir, returning the artifact path. Best-effort audit trail:
// callers treat failures as non-fatal.
func WriteDiff(dir string, snap, baseline *models.Snapshot) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(baseline.RawHTML),
		B:        difflib.SplitLines(snap.RawHTML),
		FromFile: fmt.Sprintf("%s@%s", snap.URL, baseline.CapturedAt.UTC().Format(diffTimeFormat)),
		ToFile:   fmt.Sprintf("%s@%s", snap.URL, snap.CapturedAt.UTC().Format(diffTimeFormat)),
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to render unified diff: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s_%s.diff",
		snap.CompanyID, snap.Kind, Slug(snap.URL), snap.CapturedAt.UTC().Format(diffTimeFormat))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write diff artifact %s: %w", path, err)
	}
	return path, nil
}
