package collect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"compwatch/monitor/internal/config"
	"compwatch/monitor/internal/detect"
	"compwatch/monitor/internal/extract"
	"compwatch/monitor/internal/fetch"
	"compwatch/monitor/internal/ingest"
	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/sources"
)

// PageFetcher retrieves raw content for a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Status of one (company, kind, url) pair after a collection pass.
type Status string

const (
	StatusFirstSeen Status = "first_seen"
	StatusChanged   Status = "changed"
	StatusUnchanged Status = "unchanged"
	StatusError     Status = "error"
)

// Pair identifies one monitored resource.
type Pair struct {
	CompanyID string
	Kind      string
	URL       string
}

// Outcome is the per-pair result of a snapshot collection pass. Pair failures
// are reported here, never raised past the collection loop.
type Outcome struct {
	Pair
	Status   Status
	DiffPath string
	Err      error
}

// Collector runs the fetch -> detect -> store pipeline across all monitored
// pairs, and feeds external signal sources through the ingestor.
type Collector struct {
	fetcher      PageFetcher
	detector     *detect.Detector
	ingestor     *ingest.Ingestor
	signalSrcs   []sources.Source
	companies    map[string]config.CompanySources
	snapshotsDir string
	workers      int

	ingested atomic.Int64
	skipped  atomic.Int64
}

// New creates a Collector. workers bounds concurrency across distinct pairs;
// each pair is always processed by a single worker, so the read-then-write
// sequence per (company, kind, url) stays serialized.
func New(fetcher PageFetcher, detector *detect.Detector, ingestor *ingest.Ingestor,
	signalSrcs []sources.Source, companies map[string]config.CompanySources,
	snapshotsDir string, workers int) *Collector {
	if workers <= 0 {
		workers = 1
	}
	return &Collector{
		fetcher:      fetcher,
		detector:     detector,
		ingestor:     ingestor,
		signalSrcs:   signalSrcs,
		companies:    companies,
		snapshotsDir: snapshotsDir,
		workers:      workers,
	}
}

// Pairs expands the configured companies into monitored pairs, optionally
// restricted to the given kinds (empty means all).
func (c *Collector) Pairs(kinds ...string) []Pair {
	wanted := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}
	include := func(kind string) bool {
		return len(wanted) == 0 || wanted[kind]
	}

	var pairs []Pair
	for companyID, info := range c.companies {
		if include(models.KindPricing) {
			for _, url := range info.PricingURLs {
				pairs = append(pairs, Pair{CompanyID: companyID, Kind: models.KindPricing, URL: url})
			}
		}
		if include(models.KindDocs) {
			for _, url := range info.DocsURLs {
				pairs = append(pairs, Pair{CompanyID: companyID, Kind: models.KindDocs, URL: url})
			}
		}
	}
	return pairs
}

// CollectSnapshots processes the given pairs and returns one outcome per
// pair. Fetch failures are isolated; a storage failure aborts the run and is
// returned as the error alongside the outcomes gathered so far.
func (c *Collector) CollectSnapshots(ctx context.Context, pairs []Pair) ([]Outcome, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pairQueue := make(chan Pair)
	outcomeCh := make(chan Outcome, len(pairs))

	var fatal atomic.Pointer[error]
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range pairQueue {
				outcome := c.processPair(runCtx, pair)
				outcomeCh <- outcome

				// Storage failures are fatal to the run: stop issuing
				// writes, but keep already committed snapshots valid.
				if outcome.Err != nil && !isFetchError(outcome.Err) {
					err := outcome.Err
					fatal.CompareAndSwap(nil, &err)
					cancel()
				}
			}
		}()
	}

queueLoop:
	for _, pair := range pairs {
		select {
		case pairQueue <- pair:
		case <-runCtx.Done():
			break queueLoop
		}
	}
	close(pairQueue)
	wg.Wait()
	close(outcomeCh)

	outcomes := make([]Outcome, 0, len(pairs))
	for outcome := range outcomeCh {
		outcomes = append(outcomes, outcome)
	}

	logSummary(outcomes)

	if errPtr := fatal.Load(); errPtr != nil {
		return outcomes, fmt.Errorf("collection aborted: %w", *errPtr)
	}
	return outcomes, nil
}

func (c *Collector) processPair(ctx context.Context, pair Pair) Outcome {
	log.Info().
		Str("company_id", pair.CompanyID).
		Str("kind", pair.Kind).
		Str("url", pair.URL).
		Msg("Collecting snapshot")

	content, err := c.fetcher.Fetch(ctx, pair.URL)
	if err != nil {
		log.Warn().Err(err).
			Str("company_id", pair.CompanyID).
			Str("url", pair.URL).
			Msg("Fetch failed, pair abandoned for this run")
		return Outcome{Pair: pair, Status: StatusError, Err: err}
	}

	var extracted []byte
	if pair.Kind == models.KindPricing {
		extracted = extract.FromHTML(content).JSON()
	}

	result, err := c.detector.Process(ctx, pair.CompanyID, pair.Kind, pair.URL, content, extracted)
	if err != nil {
		return Outcome{Pair: pair, Status: StatusError, Err: err}
	}

	if result.Snapshot != nil {
		c.mirrorSnapshot(result.Snapshot)
	}

	outcome := Outcome{Pair: pair, DiffPath: result.DiffPath}
	switch result.Decision {
	case detect.FirstSeen:
		outcome.Status = StatusFirstSeen
	case detect.Changed:
		outcome.Status = StatusChanged
	default:
		outcome.Status = StatusUnchanged
	}
	return outcome
}

// mirrorSnapshot writes the raw content to a plain file for human inspection.
// Best-effort: the database row is the source of truth.
func (c *Collector) mirrorSnapshot(snap *models.Snapshot) {
	if c.snapshotsDir == "" {
		return
	}
	name := fmt.Sprintf("%s_%s_%s_%s.html",
		snap.CompanyID, snap.Kind, detect.Slug(snap.URL),
		snap.CapturedAt.UTC().Format("20060102T150405Z"))
	path := filepath.Join(c.snapshotsDir, name)
	if err := os.WriteFile(path, []byte(snap.RawHTML), 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to mirror snapshot to file")
	}
}

// CollectSignals runs enabled signal sources for every company and feeds the
// results through the ingestor. only restricts the run to the named sources;
// empty means all. Each source fails independently: an unreachable or
// unconfigured source is skipped with a warning while the others continue.
// Only a storage failure is returned as an error.
func (c *Collector) CollectSignals(ctx context.Context, since time.Time, only ...string) error {
	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = true
	}

	for _, src := range c.signalSrcs {
		if len(wanted) > 0 && !wanted[src.Name()] {
			continue
		}
		if !src.Enabled() {
			log.Warn().Str("source", src.Name()).Msg("Source not configured, skipping collection step")
			continue
		}

		for companyID, info := range c.companies {
			identifiers := identifiersFor(src.Name(), info)
			if len(identifiers) == 0 {
				continue
			}

			items, err := src.RecentItems(ctx, identifiers, since)
			if err != nil {
				log.Warn().Err(err).
					Str("source", src.Name()).
					Str("company_id", companyID).
					Msg("Source collection failed, continuing with remaining sources")
				continue
			}

			for _, item := range items {
				inserted, err := c.ingestor.Ingest(ctx, companyID, src.Name(), item)
				if err != nil {
					return fmt.Errorf("signal ingestion failed: %w", err)
				}
				if inserted {
					c.ingested.Add(1)
				} else {
					c.skipped.Add(1)
				}
			}
		}
	}

	log.Info().
		Int64("ingested", c.ingested.Load()).
		Int64("skipped", c.skipped.Load()).
		Msg("Signal collection finished")
	return nil
}

// Stats returns ingested/skipped signal counters.
func (c *Collector) Stats() (ingested, skipped int64) {
	return c.ingested.Load(), c.skipped.Load()
}

func identifiersFor(sourceName string, info config.CompanySources) []string {
	switch sourceName {
	case models.SourceForum:
		return info.Forums
	case models.SourceTracker:
		return info.Repos
	default:
		return nil
	}
}

func isFetchError(err error) bool {
	var fe *fetch.Error
	return errors.As(err, &fe)
}

func logSummary(outcomes []Outcome) {
	counts := make(map[Status]int)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	log.Info().
		Int("first_seen", counts[StatusFirstSeen]).
		Int("changed", counts[StatusChanged]).
		Int("unchanged", counts[StatusUnchanged]).
		Int("errors", counts[StatusError]).
		Msg("Snapshot collection finished")
}
