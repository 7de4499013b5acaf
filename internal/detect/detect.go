package detect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog/log"

	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/storage"
)

// Decision classifies a fetched page against the stored baseline.
type Decision int

const (
	FirstSeen Decision = iota
	Changed
	Unchanged
)

func (d Decision) String() string {
	switch d {
	case FirstSeen:
		return "first_seen"
	case Changed:
		return "changed"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Fingerprint returns the deterministic content hash used for baseline
// comparison: same bytes in, same fingerprint out, across runs and platforms.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Slug derives a filesystem-safe fragment from a URL for artifact names.
func Slug(url string) string {
	s := strings.TrimPrefix(url, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.ReplaceAll(s, "/", "_")
}

// Outcome is the result of processing one fetched page.
type Outcome struct {
	Decision Decision
	Snapshot *models.Snapshot // nil on Unchanged
	Baseline *models.Snapshot // nil on FirstSeen
	DiffPath string           // set when a diff artifact was written
}

// Detector decides whether fetched content represents a meaningful change
// versus the last stored snapshot for the same (company, kind, url) pair.
type Detector struct {
	snapshots storage.SnapshotRepository
	diffsDir  string
}

// NewDetector creates a Detector. diffsDir may be empty to disable diff artifacts.
func NewDetector(snapshots storage.SnapshotRepository, diffsDir string) *Detector {
	return &Detector{snapshots: snapshots, diffsDir: diffsDir}
}

// Process fingerprints the content, records it against the baseline, and on a
// change writes a unified diff artifact. Only storage failures are returned
// as errors; a failed diff write is logged and ignored.
func (d *Detector) Process(ctx context.Context, companyID, kind, url, content string, extracted []byte) (*Outcome, error) {
	snap := models.NewSnapshot(companyID, kind, url)
	snap.ContentHash = Fingerprint(content)
	snap.RawHTML = content
	snap.Extracted = extracted

	created, baseline, err := d.snapshots.Record(ctx, snap)
	if err != nil {
		return nil, err
	}

	if !created {
		return &Outcome{Decision: Unchanged, Baseline: baseline}, nil
	}

	if baseline == nil {
		return &Outcome{Decision: FirstSeen, Snapshot: snap}, nil
	}

	outcome := &Outcome{Decision: Changed, Snapshot: snap, Baseline: baseline}
	if d.diffsDir != "" {
		diffPath, err := WriteDiff(d.diffsDir, snap, baseline)
		if err != nil {
			log.Warn().Err(err).
				Str("company_id", companyID).
				Str("url", url).
				Msg("Failed to write diff artifact")
		} else {
			outcome.DiffPath = diffPath
		}
	}
	return outcome, nil
}
