package tom

import "time"

// Anomaly flags. Multiple flags may co-occur on one interaction.
const (
	AnomalyLateNight      = "unusual_timing_late_night"
	AnomalyHighVolatility = "high_emotional_volatility"
	AnomalyHighStress     = "high_stress_level"
	AnomalyIsolationRisk  = "social_isolation_risk"
)

const (
	lateNightStartHour = 2
	lateNightEndHour   = 5

	volatilityThreshold = 0.8
	stressThreshold     = 0.8
	isolationThreshold  = 0.2
)

// CheckAnomalies evaluates the anomaly rules against a state and an
// interaction timestamp.
//
// This is a pure function: it reads the state, mutates nothing, and returns
// the same flag set for the same inputs on every call. The isolation rule
// only applies once relationships are known; a brand-new user with no
// social history is not flagged as isolated.
//
// Parameters:
//   - state: The current user state
//   - ts: The interaction timestamp
//
// Returns the raised anomaly flags in fixed order (possibly empty).
func CheckAnomalies(state *UserState, ts time.Time) []string {
	var flags []string

	hour := ts.Hour()
	if hour >= lateNightStartHour && hour <= lateNightEndHour {
		flags = append(flags, AnomalyLateNight)
	}
	if state.EmotionalVolatility > volatilityThreshold {
		flags = append(flags, AnomalyHighVolatility)
	}
	if state.StressLevel > stressThreshold {
		flags = append(flags, AnomalyHighStress)
	}
	if len(state.KeyRelationships) > 0 && state.InteractionLevel < isolationThreshold {
		flags = append(flags, AnomalyIsolationRisk)
	}

	return flags
}
