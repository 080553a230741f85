package emotion_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicemind/voicemind-go/pkg/emotion"
)

func TestValenceZeroWhenAllZero(t *testing.T) {
	state := emotion.NewState()
	assert.Equal(t, 0.0, state.Valence(),
		"Valence should be exactly 0 when all primaries are 0")
}

func TestValenceBounds(t *testing.T) {
	testCases := []struct {
		name     string
		primary  map[emotion.Emotion]float64
	}{
		{"all positive", map[emotion.Emotion]float64{
			emotion.Joy: 1.0, emotion.Trust: 1.0, emotion.Anticipation: 1.0,
		}},
		{"all negative", map[emotion.Emotion]float64{
			emotion.Fear: 1.0, emotion.Sadness: 1.0, emotion.Anger: 1.0, emotion.Disgust: 1.0,
		}},
		{"mixed", map[emotion.Emotion]float64{
			emotion.Joy: 0.5, emotion.Sadness: 0.3, emotion.Surprise: 0.7,
		}},
		{"neutral only", map[emotion.Emotion]float64{
			emotion.Surprise: 0.9,
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state := emotion.NewState()
			for e, v := range tc.primary {
				state.Primary[e] = v
			}
			valence := state.Valence()
			assert.GreaterOrEqual(t, valence, -1.0)
			assert.LessOrEqual(t, valence, 1.0)
		})
	}
}

func TestValenceSign(t *testing.T) {
	happy := emotion.NewState()
	happy.Primary[emotion.Joy] = 0.8
	assert.Greater(t, happy.Valence(), 0.0)

	sad := emotion.NewState()
	sad.Primary[emotion.Sadness] = 0.8
	assert.Less(t, sad.Valence(), 0.0)
}

func TestSecondariesDerivedFromPrimaries(t *testing.T) {
	state := emotion.NewState()
	state.Primary[emotion.Joy] = 0.8
	state.Primary[emotion.Trust] = 0.4

	secondaries := state.Secondaries()
	assert.InDelta(t, 0.6, secondaries["love"], 1e-9,
		"love = mean(joy, trust)")

	// Mutating a primary must be reflected on the next derivation.
	state.Primary[emotion.Joy] = 0.0
	secondaries = state.Secondaries()
	assert.InDelta(t, 0.2, secondaries["love"], 1e-9,
		"Secondaries must be recomputed from current primaries")
}

func TestSecondariesComplete(t *testing.T) {
	state := emotion.NewState()
	secondaries := state.Secondaries()
	for _, name := range []string{
		"love", "submission", "awe", "disapproval",
		"remorse", "contempt", "aggressiveness", "optimism",
	} {
		_, ok := secondaries[name]
		assert.True(t, ok, "missing secondary emotion %q", name)
	}
}

func TestDominant(t *testing.T) {
	state := emotion.NewState()
	state.Primary[emotion.Anger] = 0.9
	state.Primary[emotion.Joy] = 0.3

	dominant, score := state.Dominant()
	assert.Equal(t, emotion.Anger, dominant)
	assert.Equal(t, 0.9, score)
}

func TestCloneIsDeep(t *testing.T) {
	state := emotion.NewState()
	state.Primary[emotion.Joy] = 0.5
	state.StressIndicators = []string{"deadline"}

	clone := state.Clone()
	clone.Primary[emotion.Joy] = 0.1
	clone.StressIndicators[0] = "changed"

	assert.Equal(t, 0.5, state.Primary[emotion.Joy])
	assert.Equal(t, "deadline", state.StressIndicators[0])
}
