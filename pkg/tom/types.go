// Package tom implements the per-user Theory-of-Mind tracker: the live
// behavioral and emotional model maintained across a user's interaction
// stream to predict needs and detect anomalies.
package tom

import (
	"time"

	"github.com/voicemind/voicemind-go/pkg/classifier"
	"github.com/voicemind/voicemind-go/pkg/emotion"
)

// Relationship tracks mentions of one named person.
type Relationship struct {
	// Name is the person's surface form as extracted by the classifier.
	Name string `json:"name"`

	// Mentions is the total mention count.
	Mentions int `json:"mentions"`

	// LastMentioned is when the person was last mentioned.
	LastMentioned time.Time `json:"last_mentioned"`
}

// Predictions is the forward-looking output of one processed interaction.
type Predictions struct {
	// NextLikelyTopic is the topic of the strongest recently active
	// behavioral pattern.
	NextLikelyTopic string `json:"next_likely_topic,omitempty"`

	// LikelyTopics ranks recent topics by recency-weighted counts.
	LikelyTopics []string `json:"likely_topics,omitempty"`

	// MoodTrajectory is the emotional trajectory direction.
	MoodTrajectory string `json:"mood_trajectory"`

	// AnticipatedNeeds lists model-driven need predictions. Empty when the
	// deep analyzer is unavailable; simple extrapolation still fills the
	// other fields.
	AnticipatedNeeds []string `json:"anticipated_needs,omitempty"`
}

// UserState is the live summary of one user.
type UserState struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// CurrentMood is the dominant emotion or classified tone.
	CurrentMood string `json:"current_mood"`

	// EnergyLevel is the current energy estimate (0.0-1.0).
	EnergyLevel float64 `json:"energy_level"`

	// StressLevel is the current stress estimate (0.0-1.0).
	StressLevel float64 `json:"stress_level"`

	// DominantThemes ranks the themes of the last 7 days.
	DominantThemes []string `json:"dominant_themes,omitempty"`

	// InteractionFrequency is interactions per day over the last 7 days.
	InteractionFrequency float64 `json:"interaction_frequency"`

	// EmotionalVolatility is the valence standard deviation over the
	// recent emotional window (0.0-1.0).
	EmotionalVolatility float64 `json:"emotional_volatility"`

	// PersonalityIndicators accumulates long-term trait signals.
	PersonalityIndicators map[string]float64 `json:"personality_indicators,omitempty"`

	// KeyRelationships lists the top 10 relationships by mention count.
	KeyRelationships []Relationship `json:"key_relationships,omitempty"`

	// InteractionLevel is min(1, relationships mentioned in the last
	// 7 days / 10).
	InteractionLevel float64 `json:"interaction_level"`

	// Predictions is the latest prediction bundle.
	Predictions *Predictions `json:"predictions,omitempty"`

	// AttentionNeededScore is the fraction of the four risk factors
	// (high stress, high volatility, any anomaly, declining forecast)
	// currently true (0.0-1.0).
	AttentionNeededScore float64 `json:"attention_needed_score"`

	// LastInteraction is when the user last interacted.
	LastInteraction time.Time `json:"last_interaction"`

	// TotalInteractions counts all processed interactions.
	TotalInteractions int `json:"total_interactions"`

	// UpdatedAt is when the state was last recomputed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Interaction is one processed transcript with its classification.
type Interaction struct {
	// Transcript is the raw transcript text.
	Transcript string `json:"transcript"`

	// Result is the classification.
	Result *classifier.Result `json:"result"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`
}

// EpisodicRecord is a full snapshot of a significant interaction.
type EpisodicRecord struct {
	// ID is a unique record identifier.
	ID string `json:"id"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`

	// Transcript is the raw transcript text.
	Transcript string `json:"transcript"`

	// Anomalies lists the anomaly flags raised by the interaction.
	Anomalies []string `json:"anomalies,omitempty"`

	// Intensity is the emotional intensity at snapshot time.
	Intensity float64 `json:"intensity"`

	// StressLevel is the stress level at snapshot time.
	StressLevel float64 `json:"stress_level"`
}

// InteractionResult is the bundle returned for each processed interaction.
type InteractionResult struct {
	// State is the updated user state.
	State *UserState `json:"state"`

	// Anomalies lists the anomaly flags raised by this interaction.
	Anomalies []string `json:"anomalies,omitempty"`

	// Predictions is the prediction bundle.
	Predictions *Predictions `json:"predictions"`

	// Recommendations lists rule-triggered suggestions from the emotional
	// analysis.
	Recommendations []emotion.Recommendation `json:"recommendations,omitempty"`

	// PatternInsights describes the currently active behavioral patterns.
	PatternInsights []string `json:"pattern_insights,omitempty"`

	// Analysis is the full emotional analysis.
	Analysis *emotion.Analysis `json:"analysis"`
}
