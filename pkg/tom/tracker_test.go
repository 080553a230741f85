package tom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicemind/voicemind-go/pkg/classifier"
	"github.com/voicemind/voicemind-go/pkg/pattern"
	"github.com/voicemind/voicemind-go/pkg/storage"
)

// memStateStore is an in-memory StateStore for tests.
type memStateStore struct {
	records map[string]*storage.UserState
}

func newMemStateStore() *memStateStore {
	return &memStateStore{records: make(map[string]*storage.UserState)}
}

func (m *memStateStore) LoadUserState(_ context.Context, userID string) (*storage.UserState, error) {
	rec, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (m *memStateStore) SaveUserState(_ context.Context, state *storage.UserState) error {
	m.records[state.UserID] = state
	return nil
}

func (m *memStateStore) Close() error { return nil }

func neutralResult() *classifier.Result {
	return &classifier.Result{
		Intent:            classifier.IntentReflection,
		ContentTypes:      []string{"personal"},
		Tone:              classifier.ToneNeutral,
		Complexity:        classifier.ComplexityModerate,
		TemporalFocus:     classifier.FocusPresent,
		OverallConfidence: 0.4,
	}
}

func TestCheckAnomaliesDeterministic(t *testing.T) {
	state := &UserState{
		EmotionalVolatility: 0.9,
		StressLevel:         0.9,
		InteractionLevel:    0.1,
		KeyRelationships:    []Relationship{{Name: "Sam", Mentions: 3}},
	}
	ts := time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC)

	first := CheckAnomalies(state, ts)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, CheckAnomalies(state, ts), "pure function must be repeatable")
	}
	assert.Equal(t, []string{
		AnomalyLateNight,
		AnomalyHighVolatility,
		AnomalyHighStress,
		AnomalyIsolationRisk,
	}, first)
}

func TestCheckAnomaliesQuietState(t *testing.T) {
	state := &UserState{StressLevel: 0.3, EmotionalVolatility: 0.2, InteractionLevel: 0.5}
	ts := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)
	assert.Empty(t, CheckAnomalies(state, ts))
}

func TestNoIsolationFlagWithoutKnownRelationships(t *testing.T) {
	state := &UserState{InteractionLevel: 0.0}
	ts := time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC)
	assert.Empty(t, CheckAnomalies(state, ts), "a brand-new user is not isolated")
}

func TestFreshUserHasZeroFrequencyAndAttention(t *testing.T) {
	tracker := NewTracker(context.Background(), "user-1", nil)

	state := tracker.State()
	assert.Equal(t, 0.0, state.InteractionFrequency)
	assert.Equal(t, 0.0, state.AttentionNeededScore)
	assert.Equal(t, 0, state.TotalInteractions)
}

func TestProcessInteractionUpdatesState(t *testing.T) {
	tracker := NewTracker(context.Background(), "user-1", nil)
	ts := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	res := tracker.ProcessInteraction(context.Background(), "caught up on email and planned the week", neutralResult(), ts)

	require.NotNil(t, res)
	state := res.State
	assert.Equal(t, 1, state.TotalInteractions)
	assert.Equal(t, ts, state.LastInteraction)
	assert.InDelta(t, 1.0/7.0, state.InteractionFrequency, 1e-9)
	assert.NotNil(t, res.Predictions)
	assert.NotNil(t, res.Analysis)
}

func TestBehavioralDistributionsStayNormalized(t *testing.T) {
	tracker := NewTracker(context.Background(), "user-1", nil)
	result := neutralResult()
	result.Themes = []string{"work"}

	base := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		ts := base.Add(time.Duration(i) * 13 * time.Hour)
		tracker.ProcessInteraction(context.Background(), "work memo", result, ts)

		p := tracker.Patterns().Get("behavior_work")
		require.NotNil(t, p)

		var hourSum, daySum float64
		for _, v := range p.TimePatterns {
			hourSum += v
		}
		for _, v := range p.DayPatterns {
			daySum += v
		}
		assert.InDelta(t, 1.0, hourSum, 1e-9, "hour distribution after update %d", i+1)
		assert.InDelta(t, 1.0, daySum, 1e-9, "day distribution after update %d", i+1)
	}
}

func TestRelationshipTracking(t *testing.T) {
	tracker := NewTracker(context.Background(), "user-1", nil)
	ts := time.Now()

	for i := 0; i < 12; i++ {
		result := neutralResult()
		result.Entities = []classifier.Entity{
			{Name: fmt.Sprintf("Person%02d", i), Type: classifier.EntityPerson},
			{Name: "Acme", Type: classifier.EntityProject},
		}
		if i < 3 {
			result.Entities = append(result.Entities, classifier.Entity{Name: "Alice", Type: classifier.EntityPerson})
		}
		tracker.ProcessInteraction(context.Background(), "met some people", result, ts)
	}

	state := tracker.State()
	require.Len(t, state.KeyRelationships, 10, "key relationships are capped at 10")
	assert.Equal(t, "Alice", state.KeyRelationships[0].Name, "most-mentioned person ranks first")
	assert.Equal(t, 3, state.KeyRelationships[0].Mentions)
	assert.Equal(t, 1.0, state.InteractionLevel, "13 recent relationships saturate the level")
}

func TestHighStressInteractionIsEpisodic(t *testing.T) {
	tracker := NewTracker(context.Background(), "user-1", nil)
	result := neutralResult()
	result.UserStateIndicators = map[string]float64{"stress_level": 0.9}

	res := tracker.ProcessInteraction(context.Background(), "everything is falling apart at once",
		result, time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC))

	assert.Contains(t, res.Anomalies, AnomalyHighStress)
	require.Len(t, tracker.EpisodicMemory(), 1)
	rec := tracker.EpisodicMemory()[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 0.9, rec.StressLevel)
	assert.GreaterOrEqual(t, res.State.AttentionNeededScore, 0.5, "stress flag plus anomaly flag")
}

// failingDeep always errors, exercising the degradation path.
type failingDeep struct{}

func (failingDeep) PredictNeeds(context.Context, string) ([]string, error) {
	return nil, errors.New("model unavailable")
}

// stubDeep returns fixed needs.
type stubDeep struct{}

func (stubDeep) PredictNeeds(context.Context, string) ([]string, error) {
	return []string{"schedule downtime"}, nil
}

func TestDeepPredictionFailureDegradesGracefully(t *testing.T) {
	tracker := NewTracker(context.Background(), "user-1", nil, WithDeepAnalyzer(failingDeep{}))

	res := tracker.ProcessInteraction(context.Background(), "routine check-in", neutralResult(), time.Now())

	require.NotNil(t, res.Predictions)
	assert.Empty(t, res.Predictions.AnticipatedNeeds)
	assert.NotEmpty(t, res.Predictions.MoodTrajectory, "extrapolation still runs")
}

func TestDeepPredictionEnrichesNeeds(t *testing.T) {
	tracker := NewTracker(context.Background(), "user-1", nil, WithDeepAnalyzer(stubDeep{}))

	res := tracker.ProcessInteraction(context.Background(), "routine check-in", neutralResult(), time.Now())

	assert.Equal(t, []string{"schedule downtime"}, res.Predictions.AnticipatedNeeds)
}

func TestStatePersistsAcrossTrackers(t *testing.T) {
	store := newMemStateStore()
	ts := time.Now().Add(-time.Hour)

	first := NewTracker(context.Background(), "user-1", store)
	result := neutralResult()
	result.Themes = []string{"work"}
	first.ProcessInteraction(context.Background(), "first memo about work", result, ts)
	first.ProcessInteraction(context.Background(), "second memo about work", result, ts.Add(time.Minute))
	require.NoError(t, first.Close())

	second := NewTracker(context.Background(), "user-1", store)
	state := second.State()
	assert.Equal(t, 2, state.TotalInteractions)

	p := second.Patterns().Get("behavior_work")
	require.NotNil(t, p, "behavioral patterns survive reload")
	assert.Equal(t, 2, p.Occurrences)

	var hourSum float64
	for _, v := range p.TimePatterns {
		hourSum += v
	}
	assert.InDelta(t, 1.0, hourSum, 1e-9, "restored distributions are renormalized")
}

func TestRestoredPatternWithoutTriggersIsTolerated(t *testing.T) {
	store := newMemStateStore()
	now := time.Now()

	// Persisted patterns omit empty trigger_conditions, so a restored
	// pattern can come back with a nil slice.
	doc := persistedState{
		State: &UserState{UserID: "user-1", CurrentMood: "neutral"},
		Patterns: []persistedPattern{{
			Pattern: &pattern.BehavioralPattern{
				ID:           "behavior_work",
				Name:         "Recurring work activity",
				Occurrences:  6,
				LastObserved: now,
			},
			HourCounts: map[int]int{9: 6},
			DayCounts:  map[time.Weekday]int{time.Monday: 6},
		}},
	}
	payload, err := json.Marshal(doc)
	require.NoError(t, err)
	store.records["user-1"] = &storage.UserState{UserID: "user-1", Payload: payload}

	tracker := NewTracker(context.Background(), "user-1", store)

	result := tracker.ProcessInteraction(context.Background(), "checking in", neutralResult(), now)
	require.NotNil(t, result.Predictions)
	assert.Empty(t, result.Predictions.NextLikelyTopic,
		"a triggerless strongest pattern yields no topic prediction")
}

func TestLoadFailureStartsFresh(t *testing.T) {
	store := newMemStateStore()
	store.records["user-1"] = &storage.UserState{UserID: "user-1", Payload: []byte("{not json")}

	tracker := NewTracker(context.Background(), "user-1", store)
	assert.Equal(t, 0, tracker.State().TotalInteractions)
}

func TestHistoriesAreBounded(t *testing.T) {
	tracker := NewTracker(context.Background(), "user-1", nil)
	result := neutralResult()

	now := time.Now()
	for i := 0; i < 1100; i++ {
		tracker.ProcessInteraction(context.Background(), "memo", result, now)
	}

	assert.Len(t, tracker.history, 1000)
	assert.Len(t, tracker.shortTerm, 50)
}
