package emotion

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Source weights for the emotional synthesis. When voice features are
// absent their weight is split evenly between the remaining sources
// (linguistic 0.4, classifier 0.6); when the classifier signal is absent
// the remaining weights are normalized proportionally.
const (
	weightLinguistic = 0.3
	weightVoice      = 0.2
	weightClassifier = 0.5
)

// Trajectory direction classifications.
const (
	TrajectoryStable           = "stable"
	TrajectoryImproving        = "improving"
	TrajectoryDeclining        = "declining"
	TrajectoryVolatile         = "volatile"
	TrajectoryInsufficientData = "insufficient_data"
)

// historyLimit bounds the retained analysis history (ring-buffer semantics).
const historyLimit = 100

// trajectoryWindow is the maximum number of recent states used for trend
// fitting.
const trajectoryWindow = 10

// VoiceFeatures carries paralinguistic measurements extracted from the
// audio by an upstream collaborator. All fields are normalized to 0.0-1.0
// by the extractor.
type VoiceFeatures struct {
	// Pitch is the normalized mean fundamental frequency.
	Pitch float64 `json:"pitch"`

	// PitchVariance is the normalized pitch variability.
	PitchVariance float64 `json:"pitch_variance"`

	// Energy is the normalized speech energy (loudness).
	Energy float64 `json:"energy"`

	// SpeakingRate is the normalized words-per-minute rate.
	SpeakingRate float64 `json:"speaking_rate"`

	// PauseRatio is the fraction of the recording spent in silence.
	PauseRatio float64 `json:"pause_ratio"`
}

// Trajectory describes the direction of emotional change over the recent
// window of analyzed states.
type Trajectory struct {
	// Direction is one of the Trajectory* classification constants.
	Direction string `json:"direction"`

	// TrendStrength is the absolute slope of the fitted valence trend.
	TrendStrength float64 `json:"trend_strength"`

	// Volatility is the standard deviation of windowed valence values.
	Volatility float64 `json:"volatility"`

	// InterventionNeeded is raised when the trajectory or current state
	// crosses the configured risk thresholds.
	InterventionNeeded bool `json:"intervention_needed"`
}

// Recommendation is a rule-triggered suggestion derived from the analysis.
type Recommendation struct {
	// Type identifies the rule that fired (e.g. "stress_relief").
	Type string `json:"type"`

	// Suggestion is the recommended action.
	Suggestion string `json:"suggestion"`

	// Reason explains why the rule fired.
	Reason string `json:"reason"`

	// Priority is "high", "medium", or "low".
	Priority string `json:"priority"`
}

// Analysis is the complete result of analyzing one transcript.
type Analysis struct {
	// State is the synthesized emotional state.
	State *State `json:"state"`

	// Trajectory describes the recent emotional trend.
	Trajectory *Trajectory `json:"trajectory"`

	// Recommendations lists rule-triggered suggestions.
	Recommendations []Recommendation `json:"recommendations"`

	// EmpatheticResponse is a short response keyed to the dominant emotion.
	EmpatheticResponse string `json:"empathetic_response"`
}

// Model is the emotional intelligence engine for one user.
//
// It combines up to three weighted signal sources into a unified state and
// maintains a bounded history for trajectory analysis:
//   - Linguistic lexicon scoring of the transcript (weight 0.3)
//   - Voice-feature heuristics, when features are supplied (weight 0.2)
//   - External classifier emotion signal, when available (weight 0.5)
//
// Absent sources have their weight redistributed over the sources present:
// missing voice features split their weight evenly (linguistic 0.4,
// classifier 0.6), any other absence normalizes the remaining weights
// proportionally, so a linguistic-only analysis still produces a fully
// weighted state.
//
// The model is not safe for concurrent use; each user's interaction stream
// is processed sequentially (one invocation at a time).
type Model struct {
	// history holds the most recent analyzed states, oldest first.
	// Bounded at historyLimit; older entries are silently evicted.
	history []*State

	// logger records degraded-path events. Never nil.
	logger *zap.Logger
}

// NewModel creates a new emotional intelligence engine.
//
// Parameters:
//   - logger: Logger for degraded-path events (nil means no-op logger)
//
// Returns a Model with empty history.
func NewModel(logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{logger: logger}
}

// Analyze synthesizes an emotional state from the transcript and optional
// signals, appends it to the rolling history, and derives the trajectory
// and recommendations.
//
// Parameters:
//   - transcript: Raw transcript text (empty input yields a neutral state)
//   - voice: Optional paralinguistic features (nil if unavailable)
//   - classifierSignal: Optional per-emotion scores from the external
//     classifier (nil if unavailable or failed)
//
// Returns the complete Analysis. Never returns an error: degraded inputs
// degrade to fewer weighted sources, not to failure.
func (m *Model) Analyze(transcript string, voice *VoiceFeatures, classifierSignal map[Emotion]float64) *Analysis {
	state := m.synthesize(transcript, voice, classifierSignal)

	m.history = append(m.history, state)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}

	trajectory := m.AnalyzeTrajectory()
	trajectory.InterventionNeeded = m.needsIntervention(state, trajectory)

	return &Analysis{
		State:              state,
		Trajectory:         trajectory,
		Recommendations:    m.recommend(state, trajectory),
		EmpatheticResponse: empatheticResponse(state),
	}
}

// CurrentState returns the most recently analyzed state, or nil if no
// analysis has run yet.
func (m *Model) CurrentState() *State {
	if len(m.history) == 0 {
		return nil
	}
	return m.history[len(m.history)-1]
}

// HistoryLen returns the number of retained historical states.
func (m *Model) HistoryLen() int {
	return len(m.history)
}

// synthesize blends the weighted signal sources into one state.
func (m *Model) synthesize(transcript string, voice *VoiceFeatures, classifierSignal map[Emotion]float64) *State {
	linguistic := scoreLinguistic(transcript)

	sources := []struct {
		scores map[Emotion]float64
		weight float64
	}{
		{linguistic, weightLinguistic},
	}
	if voice != nil {
		sources = append(sources, struct {
			scores map[Emotion]float64
			weight float64
		}{scoreVoice(voice), weightVoice})
	}
	if classifierSignal != nil {
		sources = append(sources, struct {
			scores map[Emotion]float64
			weight float64
		}{classifierSignal, weightClassifier})
	} else {
		m.logger.Debug("classifier signal unavailable, reweighting linguistic and voice sources")
	}

	// Missing voice weight splits evenly between linguistic and classifier.
	if voice == nil && classifierSignal != nil {
		sources[0].weight = weightLinguistic + weightVoice/2
		sources[1].weight = weightClassifier + weightVoice/2
	}

	var totalWeight float64
	for _, src := range sources {
		totalWeight += src.weight
	}

	state := NewState()
	for _, src := range sources {
		normalized := src.weight / totalWeight
		for _, e := range Primaries {
			state.Primary[e] += src.scores[e] * normalized
		}
	}
	for _, e := range Primaries {
		state.Primary[e] = clamp01(state.Primary[e])
	}

	state.StressIndicators = scanPhrases(transcript, stressPhrases)
	state.CopingMechanisms = scanPhrases(transcript, copingPhrases)
	state.Triggers = scanPhrases(transcript, triggerPhrases)

	state.Intensity = computeIntensity(state)
	state.Clarity = computeClarity(state)
	state.Stability = m.computeStability(state)

	return state
}

// AnalyzeTrajectory fits a linear trend over the valence values of the last
// trajectoryWindow states.
//
// Classification:
//   - fewer than 3 historical states: insufficient_data, strength 0.0
//   - slope > 0.1: improving
//   - slope < -0.1: declining
//   - otherwise: volatile when valence stddev > 0.3, else stable
func (m *Model) AnalyzeTrajectory() *Trajectory {
	if len(m.history) < 3 {
		return &Trajectory{
			Direction:     TrajectoryInsufficientData,
			TrendStrength: 0.0,
		}
	}

	window := m.history
	if len(window) > trajectoryWindow {
		window = window[len(window)-trajectoryWindow:]
	}

	valences := make([]float64, len(window))
	for i, s := range window {
		valences[i] = s.Valence()
	}

	slope := linearSlope(valences)
	volatility := stddev(valences)

	direction := TrajectoryStable
	switch {
	case slope > 0.1:
		direction = TrajectoryImproving
	case slope < -0.1:
		direction = TrajectoryDeclining
	case volatility > 0.3:
		direction = TrajectoryVolatile
	}

	return &Trajectory{
		Direction:     direction,
		TrendStrength: math.Abs(slope),
		Volatility:    volatility,
	}
}

// needsIntervention evaluates the intervention predicate:
//   - declining trajectory with |slope| > 0.2, OR
//   - more than 2 stress indicators present, OR
//   - intensity > 0.8 and valence < -0.5
func (m *Model) needsIntervention(state *State, trajectory *Trajectory) bool {
	if trajectory.Direction == TrajectoryDeclining && trajectory.TrendStrength > 0.2 {
		return true
	}
	if len(state.StressIndicators) > 2 {
		return true
	}
	if state.Intensity > 0.8 && state.Valence() < -0.5 {
		return true
	}
	return false
}

// recommend evaluates the independent recommendation rules. Multiple rules
// may fire for one analysis; no deduplication beyond rule identity.
func (m *Model) recommend(state *State, trajectory *Trajectory) []Recommendation {
	var recs []Recommendation

	if len(state.StressIndicators) > 0 {
		recs = append(recs, Recommendation{
			Type:       "stress_relief",
			Suggestion: "Take a short break and try a breathing exercise",
			Reason:     fmt.Sprintf("detected %d stress indicator(s)", len(state.StressIndicators)),
			Priority:   "high",
		})
	}
	if state.Primary[Sadness] > 0.7 {
		recs = append(recs, Recommendation{
			Type:       "emotional_support",
			Suggestion: "Consider reaching out to someone you trust",
			Reason:     "elevated sadness",
			Priority:   "high",
		})
	}
	if state.Primary[Anger] > 0.7 {
		recs = append(recs, Recommendation{
			Type:       "anger_management",
			Suggestion: "Step away from the situation before responding",
			Reason:     "elevated anger",
			Priority:   "medium",
		})
	}
	if state.Primary[Joy] > 0.7 || state.Secondaries()["optimism"] > 0.7 {
		recs = append(recs, Recommendation{
			Type:       "positive_reinforcement",
			Suggestion: "Note what went well today so you can repeat it",
			Reason:     "strong positive affect",
			Priority:   "low",
		})
	}
	if trajectory.Direction == TrajectoryDeclining {
		recs = append(recs, Recommendation{
			Type:       "preventive_care",
			Suggestion: "Schedule some downtime before things build up",
			Reason:     "declining emotional trajectory",
			Priority:   "medium",
		})
	}

	return recs
}

// computeStability compares the new state against the previous one: large
// swings in valence lower stability.
func (m *Model) computeStability(state *State) float64 {
	if len(m.history) == 0 {
		return 1.0
	}
	prev := m.history[len(m.history)-1]
	delta := math.Abs(state.Valence() - prev.Valence())
	return clamp01(1.0 - delta/2.0)
}

// scoreVoice maps paralinguistic features to emotion scores via fixed
// heuristics. The mapping is coarse; the 0.2 synthesis weight reflects that.
func scoreVoice(v *VoiceFeatures) map[Emotion]float64 {
	scores := make(map[Emotion]float64, len(Primaries))
	for _, e := range Primaries {
		scores[e] = 0.0
	}

	if v.Energy > 0.7 && v.Pitch > 0.6 {
		scores[Joy] = 0.6
		scores[Anticipation] = 0.4
	}
	if v.Energy > 0.7 && v.SpeakingRate > 0.7 {
		scores[Anger] = clamp01(scores[Anger] + 0.5)
	}
	if v.Energy < 0.3 && v.SpeakingRate < 0.4 {
		scores[Sadness] = 0.6
	}
	if v.PitchVariance > 0.7 {
		scores[Surprise] = 0.4
		scores[Fear] = 0.3
	}
	if v.PauseRatio > 0.5 {
		scores[Fear] = clamp01(scores[Fear] + 0.3)
	}

	return scores
}

// computeIntensity is the maximum primary intensity.
func computeIntensity(state *State) float64 {
	_, max := state.Dominant()
	return max
}

// computeClarity measures how concentrated the signal is on the dominant
// emotion: 1.0 when a single emotion carries all the weight, lower when
// the signal is spread across many emotions.
func computeClarity(state *State) float64 {
	var total float64
	for _, e := range Primaries {
		total += state.Primary[e]
	}
	if total == 0 {
		return 0.0
	}
	_, max := state.Dominant()
	return clamp01(max / total)
}

// empatheticResponse returns a short template response keyed to the
// dominant emotion. Placeholder text; the delivery layer may replace it
// with generated content.
func empatheticResponse(state *State) string {
	dominant, score := state.Dominant()
	if score < 0.2 {
		return "Thanks for sharing. I've noted this."
	}
	switch dominant {
	case Joy, Anticipation:
		return "That sounds like a real bright spot. Glad to hear it."
	case Sadness:
		return "That sounds heavy. I've recorded it, and I'm keeping an eye on how you're doing."
	case Anger:
		return "That sounds genuinely frustrating. Noted."
	case Fear:
		return "That sounds stressful. I've made a note so we can track how it develops."
	case Trust:
		return "Good to hear things feel steady there."
	default:
		return "Thanks for sharing. I've noted this."
	}
}

// linearSlope fits a least-squares line over values indexed 0..n-1 and
// returns its slope.
func linearSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0.0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0.0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// stddev computes the population standard deviation.
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// clamp01 clamps a value to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
