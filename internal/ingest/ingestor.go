package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/sources"
	"compwatch/monitor/internal/storage"
)

// Scorer produces a sentiment score in [-1, 1] for text; ok is false when no
// usable score exists.
type Scorer interface {
	Score(text string) (score float64, ok bool)
}

// Ingestor normalizes heterogeneous source items into signal records. Items
// matching no configured keyword are discarded before persistence, and the
// (source, source_id) pair deduplicates re-ingested items.
type Ingestor struct {
	signals    storage.SignalRepository
	scorer     Scorer
	keywords   []string
	maxContent int
}

// New creates an Ingestor. maxContent bounds stored content length in runes.
func New(signals storage.SignalRepository, scorer Scorer, keywords []string, maxContent int) *Ingestor {
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Ingestor{
		signals:    signals,
		scorer:     scorer,
		keywords:   lowered,
		maxContent: maxContent,
	}
}

// Ingest stores one item for a company. Returns true only when a new signal
// row was written; filtered and duplicate items return false without error.
func (ing *Ingestor) Ingest(ctx context.Context, companyID, source string, item sources.RawItem) (bool, error) {
	text := item.Title
	if item.Text != "" {
		text += "\n\n" + item.Text
	}

	matched := ing.matchKeywords(text)
	if len(matched) == 0 {
		return false, nil
	}

	exists, err := ing.signals.Exists(ctx, source, item.ID)
	if err != nil {
		return false, err
	}
	if exists {
		log.Debug().
			Str("source", source).
			Str("source_id", item.ID).
			Msg("Duplicate signal, skipping")
		return false, nil
	}

	sig := models.NewSignal(companyID, source, item.ID)
	sig.CapturedAt = item.PostedAt.UTC()
	sig.Content = truncate(text, ing.maxContent)
	if item.URL != "" {
		sig.URL = sql.NullString{String: item.URL, Valid: true}
	}
	if score, ok := ing.scorer.Score(text); ok {
		sig.Sentiment = sql.NullFloat64{Float64: score, Valid: true}
	}
	if kws, err := json.Marshal(matched); err == nil {
		sig.KeywordsMatched = kws
	}
	sig.Score = sql.NullInt64{Int64: int64(item.Score), Valid: true}
	sig.CommentCount = sql.NullInt64{Int64: int64(item.CommentCount), Valid: true}

	return ing.signals.Insert(ctx, sig)
}

func (ing *Ingestor) matchKeywords(text string) []string {
	lowered := strings.ToLower(text)
	var matched []string
	for _, kw := range ing.keywords {
		if strings.Contains(lowered, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
