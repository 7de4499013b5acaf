package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	s := NewScorer()

	score, ok := s.Score("This release is great, I love the new pricing!")
	assert.True(t, ok)
	assert.Greater(t, score, 0.0)

	score, ok = s.Score("Terrible outage, worst support experience ever.")
	assert.True(t, ok)
	assert.Less(t, score, 0.0)
}

func TestScoreEmptyText(t *testing.T) {
	s := NewScorer()
	_, ok := s.Score("")
	assert.False(t, ok)
}

func TestScoreBounds(t *testing.T) {
	s := NewScorer()
	for _, text := range []string{"amazing fantastic wonderful", "awful horrible disaster"} {
		score, ok := s.Score(text)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, score, -1.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}
