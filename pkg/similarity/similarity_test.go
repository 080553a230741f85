package similarity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicemind/voicemind-go/pkg/similarity"
)

func TestScoreIdenticalTexts(t *testing.T) {
	score := similarity.Score("worked on the deadline", "worked on the deadline")
	assert.Equal(t, 1.0, score, "Identical texts should score 1.0")
}

func TestScoreNoOverlap(t *testing.T) {
	score := similarity.Score("morning meditation session", "quarterly budget review")
	assert.Equal(t, 0.0, score, "Disjoint texts should score 0.0")
}

func TestScoreCaseInsensitive(t *testing.T) {
	a := similarity.Score("Worked Overtime Tonight", "worked overtime tonight")
	assert.Equal(t, 1.0, a, "Scoring should be case-insensitive")
}

func TestScorePartialOverlap(t *testing.T) {
	// Shared: {worked, overtime} = 2, max word count = 5.
	score := similarity.Score("worked overtime on the deadline", "worked overtime again")
	assert.InDelta(t, 2.0/5.0, score, 1e-9)
}

func TestScoreSymmetry(t *testing.T) {
	a := "stressed about the project deadline"
	b := "the deadline is stressing me out"
	assert.Equal(t, similarity.Score(a, b), similarity.Score(b, a),
		"Score should be symmetric")
}

func TestScoreEmptyInputs(t *testing.T) {
	assert.Equal(t, 0.0, similarity.Score("", "anything"))
	assert.Equal(t, 0.0, similarity.Score("anything", ""))
	assert.Equal(t, 0.0, similarity.Score("", ""))
}

func TestScoreDuplicateWords(t *testing.T) {
	// Repeated words must not inflate the shared count.
	score := similarity.Score("work work work", "work life balance")
	assert.InDelta(t, 1.0/3.0, score, 1e-9)
}

func TestTopMatchesThresholdAndLimit(t *testing.T) {
	candidates := map[string]string{
		"a": "worked on the deadline today",
		"b": "worked overtime on the big deadline",
		"c": "completely unrelated grocery list",
		"d": "deadline deadline deadline",
	}

	matches := similarity.TopMatches("worked on the deadline", candidates, 0.2, 2)
	assert.Len(t, matches, 2)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score,
		"Matches should be sorted by score descending")
	for _, m := range matches {
		assert.Greater(t, m.Score, 0.2)
		assert.NotEqual(t, "c", m.ID, "Unrelated candidate should be filtered out")
	}
}

func TestTopMatchesDeterministicOrder(t *testing.T) {
	candidates := map[string]string{
		"b": "same words here",
		"a": "same words here",
	}

	first := similarity.TopMatches("same words here", candidates, 0.1, 0)
	for i := 0; i < 10; i++ {
		again := similarity.TopMatches("same words here", candidates, 0.1, 0)
		assert.Equal(t, first, again, "Tied scores should order deterministically")
	}
	assert.Equal(t, "a", first[0].ID)
}
