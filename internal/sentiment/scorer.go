package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"
)

// Scorer wraps a VADER sentiment analyzer. Construct once at startup and
// pass into components that need scoring.
type Scorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewScorer creates a Scorer with the default VADER lexicon.
func NewScorer() *Scorer {
	return &Scorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound sentiment in [-1, 1] for text, and false when
// no usable score could be produced.
func (s *Scorer) Score(text string) (float64, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	return s.analyzer.PolarityScores(text).Compound, true
}
