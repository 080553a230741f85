// Package emotion provides the emotional intelligence engine: it synthesizes
// a multi-dimensional emotional state from linguistic, paralinguistic, and
// external classifier signals, and tracks the state's trajectory over a
// rolling window.
//
// The state model follows Plutchik's wheel: 8 primary emotions, with
// secondary emotions derived as pairwise averages of adjacent primaries.
package emotion

import "time"

// Emotion identifies one of the 8 primary Plutchik emotions.
type Emotion string

const (
	Joy          Emotion = "joy"
	Trust        Emotion = "trust"
	Fear         Emotion = "fear"
	Surprise     Emotion = "surprise"
	Sadness      Emotion = "sadness"
	Disgust      Emotion = "disgust"
	Anger        Emotion = "anger"
	Anticipation Emotion = "anticipation"
)

// Primaries lists all primary emotions in canonical order.
var Primaries = []Emotion{Joy, Trust, Fear, Surprise, Sadness, Disgust, Anger, Anticipation}

// positive and negative partition the primaries for valence computation.
// Surprise is treated as neutral.
var (
	positive = []Emotion{Joy, Trust, Anticipation}
	negative = []Emotion{Fear, Sadness, Disgust, Anger}
)

// State is a snapshot of a user's emotional state at a point in time.
//
// Secondary emotions are never stored: they are always derived from the
// current primaries via Secondaries(). This keeps the two representations
// from drifting apart.
type State struct {
	// Primary holds the intensity of each primary emotion (0.0-1.0).
	Primary map[Emotion]float64 `json:"primary"`

	// Clarity is how clearly the emotional signal reads (0.0-1.0).
	Clarity float64 `json:"clarity"`

	// Intensity is the overall emotional intensity (0.0-1.0).
	Intensity float64 `json:"intensity"`

	// Stability is how stable the state is versus recent history (0.0-1.0).
	Stability float64 `json:"stability"`

	// StressIndicators lists detected stress-related phrases.
	StressIndicators []string `json:"stress_indicators,omitempty"`

	// CopingMechanisms lists detected coping-related phrases.
	CopingMechanisms []string `json:"coping_mechanisms,omitempty"`

	// Triggers lists detected emotional trigger phrases.
	Triggers []string `json:"triggers,omitempty"`

	// Timestamp is when this state was captured.
	Timestamp time.Time `json:"timestamp"`
}

// NewState creates an empty State with all primaries at zero.
func NewState() *State {
	primary := make(map[Emotion]float64, len(Primaries))
	for _, e := range Primaries {
		primary[e] = 0.0
	}
	return &State{
		Primary:   primary,
		Timestamp: time.Now(),
	}
}

// Secondaries derives the 8 secondary emotions from the current primaries.
//
// Each secondary is the mean of a fixed pair of primaries (Plutchik dyads):
//
//	love           = mean(joy, trust)
//	submission     = mean(trust, fear)
//	awe            = mean(fear, surprise)
//	disapproval    = mean(surprise, sadness)
//	remorse        = mean(sadness, disgust)
//	contempt       = mean(disgust, anger)
//	aggressiveness = mean(anger, anticipation)
//	optimism       = mean(anticipation, joy)
//
// The result is recomputed on every call; secondaries are never cached.
func (s *State) Secondaries() map[string]float64 {
	mean := func(a, b Emotion) float64 {
		return (s.Primary[a] + s.Primary[b]) / 2.0
	}
	return map[string]float64{
		"love":           mean(Joy, Trust),
		"submission":     mean(Trust, Fear),
		"awe":            mean(Fear, Surprise),
		"disapproval":    mean(Surprise, Sadness),
		"remorse":        mean(Sadness, Disgust),
		"contempt":       mean(Disgust, Anger),
		"aggressiveness": mean(Anger, Anticipation),
		"optimism":       mean(Anticipation, Joy),
	}
}

// Valence summarizes the state as a single positivity scalar in [-1, 1].
//
// The formula is:
//
//	valence = (sum of positive primaries - sum of negative primaries) / total
//
// where total is the sum of all primaries. Returns exactly 0.0 when every
// primary is zero.
func (s *State) Valence() float64 {
	var pos, neg, total float64
	for _, e := range Primaries {
		total += s.Primary[e]
	}
	if total == 0 {
		return 0.0
	}
	for _, e := range positive {
		pos += s.Primary[e]
	}
	for _, e := range negative {
		neg += s.Primary[e]
	}
	return (pos - neg) / total
}

// Dominant returns the strongest primary emotion and its intensity.
//
// Ties are broken by canonical primary order. Returns ("", 0) only when the
// primary map is empty, which does not occur for states built via NewState.
func (s *State) Dominant() (Emotion, float64) {
	var best Emotion
	bestScore := -1.0
	for _, e := range Primaries {
		if s.Primary[e] > bestScore {
			best = e
			bestScore = s.Primary[e]
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	clone := &State{
		Primary:   make(map[Emotion]float64, len(s.Primary)),
		Clarity:   s.Clarity,
		Intensity: s.Intensity,
		Stability: s.Stability,
		Timestamp: s.Timestamp,
	}
	for k, v := range s.Primary {
		clone.Primary[k] = v
	}
	clone.StressIndicators = append([]string(nil), s.StressIndicators...)
	clone.CopingMechanisms = append([]string(nil), s.CopingMechanisms...)
	clone.Triggers = append([]string(nil), s.Triggers...)
	return clone
}
