package core

import (
	"time"

	"github.com/voicemind/voicemind-go/pkg/classifier"
	"github.com/voicemind/voicemind-go/pkg/emotion"
	"github.com/voicemind/voicemind-go/pkg/tom"
)

// ProcessResult is the complete output of processing one transcript.
//
// Every field is always populated: a degraded run (fallback classification,
// unavailable storage) lowers confidence scores but never leaves holes in
// the structure.
type ProcessResult struct {
	// RunID uniquely identifies this processing invocation.
	RunID string `json:"run_id"`

	// UserID is the user the interaction was attributed to.
	UserID string `json:"user_id"`

	// Category is the delivery-envelope category tag, passed through.
	Category string `json:"category,omitempty"`

	// Classification is the multi-dimensional classification.
	Classification *classifier.Result `json:"classification"`

	// State is the updated user state summary.
	State *tom.UserState `json:"state"`

	// Anomalies lists the anomaly flags raised by this interaction.
	Anomalies []string `json:"anomalies,omitempty"`

	// Predictions is the forward-looking prediction bundle.
	Predictions *tom.Predictions `json:"predictions"`

	// Recommendations lists rule-triggered suggestions.
	Recommendations []emotion.Recommendation `json:"recommendations,omitempty"`

	// PatternInsights describes the currently active behavioral patterns.
	PatternInsights []string `json:"pattern_insights,omitempty"`

	// EmpatheticResponse is a short response keyed to the dominant emotion.
	EmpatheticResponse string `json:"empathetic_response"`

	// ProcessedAt is when processing completed.
	ProcessedAt time.Time `json:"processed_at"`
}
