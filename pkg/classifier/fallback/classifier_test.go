package fallback_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicemind/voicemind-go/pkg/classifier"
	"github.com/voicemind/voicemind-go/pkg/classifier/fallback"
)

func classify(t *testing.T, transcript string) *classifier.Result {
	t.Helper()
	result, err := fallback.New().Classify(context.Background(), transcript, nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func assertComplete(t *testing.T, result *classifier.Result) {
	t.Helper()
	assert.NotEmpty(t, result.Intent)
	assert.NotEmpty(t, result.ContentTypes)
	assert.NotEmpty(t, result.Tone)
	assert.NotEmpty(t, result.Complexity)
	assert.NotEmpty(t, result.TemporalFocus)
	assert.NotNil(t, result.Confidence)
	assert.NotNil(t, result.Entities)
	assert.NotEmpty(t, result.Themes)
	assert.NotNil(t, result.SuggestedActions)
	assert.NotEmpty(t, result.PrimaryTarget)
	assert.NotNil(t, result.SecondaryTargets)
	assert.NotEmpty(t, result.ProcessingStrategy)
	assert.NotNil(t, result.UserStateIndicators)
	assert.NotNil(t, result.AnomalyFlags)
	assert.False(t, result.ClassifiedAt.IsZero())
}

func TestFallbackCompleteness(t *testing.T) {
	result := classify(t, "Worked late on the project deadline again")
	assertComplete(t, result)
	assert.LessOrEqual(t, result.OverallConfidence, 0.5,
		"Fallback results must signal degraded quality")
}

func TestFallbackEmptyTranscript(t *testing.T) {
	result := classify(t, "")
	assertComplete(t, result)
	assert.Equal(t, classifier.ToneNeutral, result.Tone)
	assert.Equal(t, classifier.IntentReflection, result.Intent)
}

func TestFallbackDeterministic(t *testing.T) {
	transcript := "I have an idea for an app that tracks my workouts"
	first := classify(t, transcript)
	for i := 0; i < 5; i++ {
		again := classify(t, transcript)
		assert.Equal(t, first.Intent, again.Intent)
		assert.Equal(t, first.Tone, again.Tone)
		assert.Equal(t, first.Themes, again.Themes)
		assert.Equal(t, first.Entities, again.Entities)
		assert.Equal(t, first.PrimaryTarget, again.PrimaryTarget)
	}
}

func TestFallbackIntentMapping(t *testing.T) {
	testCases := []struct {
		transcript string
		intent     classifier.Intent
		target     string
	}{
		{
			"Worked on the quarterly report and finished the migration task",
			classifier.IntentDocumentation,
			classifier.TargetWorkJournal,
		},
		{
			"I have an idea, imagine an app for plant care, could build a concept around it",
			classifier.IntentIdeation,
			classifier.TargetIdeaVault,
		},
		{
			"Tomorrow I plan to schedule the dentist and I will need to buy groceries",
			classifier.IntentPlanning,
			classifier.TargetMemoryArchive,
		},
		{
			"I feel grateful when I remember my grandmother",
			classifier.IntentReflection,
			classifier.TargetMemoryArchive,
		},
	}

	for _, tc := range testCases {
		t.Run(string(tc.intent), func(t *testing.T) {
			result := classify(t, tc.transcript)
			assert.Equal(t, tc.intent, result.Intent)
			assert.Equal(t, tc.target, result.PrimaryTarget)
		})
	}
}

func TestFallbackToneMapping(t *testing.T) {
	assert.Equal(t, classifier.ToneExcited,
		classify(t, "This is amazing, I am so excited about it").Tone)
	assert.Equal(t, classifier.ToneFrustrated,
		classify(t, "I am so frustrated and stressed with this").Tone)
	assert.Equal(t, classifier.ToneNeutral,
		classify(t, "Picked up the dry cleaning").Tone)
}

func TestFallbackStressIndicator(t *testing.T) {
	calm := classify(t, "Had a nice quiet evening")
	stressed := classify(t, "Overwhelmed by the deadline pressure, completely exhausted")

	assert.Greater(t, stressed.UserStateIndicators["stress_level"],
		calm.UserStateIndicators["stress_level"])
}

func TestFallbackEntityExtraction(t *testing.T) {
	result := classify(t, "Had lunch with Sarah to discuss the Phoenix launch")

	var sarah, phoenix *classifier.Entity
	for i := range result.Entities {
		switch result.Entities[i].Name {
		case "Sarah":
			sarah = &result.Entities[i]
		case "Phoenix":
			phoenix = &result.Entities[i]
		}
	}
	require.NotNil(t, sarah, "Sarah should be extracted")
	assert.Equal(t, classifier.EntityPerson, sarah.Type,
		"Entity after a person cue should be typed person")
	require.NotNil(t, phoenix, "Phoenix should be extracted")
}
