// Package classifier defines the classification capability boundary.
//
// It provides the Classifier interface that all implementations must
// satisfy, the ClassificationResult schema, and total parsing functions for
// the closed enums. The core never implements AI analysis itself: it depends
// on a Classifier selected once at construction — a remote-backed
// implementation, a deterministic local fallback, or the remote one wrapped
// by WithFallback so the contract ("always a fully populated result") holds
// even when the remote dependency fails.
package classifier

import (
	"context"
	"time"
)

// Intent is the primary intent of a transcript (closed enum of 8 values).
type Intent string

const (
	IntentDocumentation  Intent = "documentation"
	IntentReflection     Intent = "reflection"
	IntentIdeation       Intent = "ideation"
	IntentPlanning       Intent = "planning"
	IntentVenting        Intent = "venting"
	IntentCelebration    Intent = "celebration"
	IntentProblemSolving Intent = "problem_solving"
	IntentQuestion       Intent = "question"
)

// Tone is the emotional tone of a transcript (closed enum of 8 values).
type Tone string

const (
	ToneExcited       Tone = "excited"
	ToneFrustrated    Tone = "frustrated"
	ToneNeutral       Tone = "neutral"
	ToneAnxious       Tone = "anxious"
	ToneContemplative Tone = "contemplative"
	ToneJoyful        Tone = "joyful"
	ToneSomber        Tone = "somber"
	ToneUrgent        Tone = "urgent"
)

// Complexity is the 4-level ordinal complexity of a transcript.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityLayered  Complexity = "layered"
)

// TemporalFocus is the time orientation of a transcript.
type TemporalFocus string

const (
	FocusPast    TemporalFocus = "past"
	FocusPresent TemporalFocus = "present"
	FocusFuture  TemporalFocus = "future"
	FocusMixed   TemporalFocus = "mixed"
)

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntityPerson  EntityType = "person"
	EntityPlace   EntityType = "place"
	EntityProject EntityType = "project"
	EntityConcept EntityType = "concept"
)

// Routing targets for classified transcripts.
const (
	TargetWorkJournal   = "work_journal"
	TargetMemoryArchive = "memory_archive"
	TargetIdeaVault     = "idea_vault"
)

// Entity is a typed entity extracted from a transcript.
type Entity struct {
	// Name is the entity's surface form.
	Name string `json:"name"`

	// Type is the entity type (person, place, project, concept).
	Type EntityType `json:"type"`
}

// Result is a fully populated multi-dimensional classification.
//
// Every implementation must return a complete Result: no field may be left
// at a zero value that downstream consumers cannot interpret. Degraded
// classifications signal quality through Confidence, never through missing
// fields.
type Result struct {
	// Intent is the primary intent.
	Intent Intent `json:"intent"`

	// ContentTypes holds one or more content-type tags.
	ContentTypes []string `json:"content_types"`

	// Tone is the emotional tone.
	Tone Tone `json:"tone"`

	// Complexity is the complexity level.
	Complexity Complexity `json:"complexity"`

	// TemporalFocus is the time orientation.
	TemporalFocus TemporalFocus `json:"temporal_focus"`

	// Confidence holds per-dimension confidence scores (0.0-1.0).
	Confidence map[string]float64 `json:"confidence"`

	// OverallConfidence summarizes classification quality (0.0-1.0).
	// Fallback classifications use a fixed low value so consumers can
	// distinguish degraded results.
	OverallConfidence float64 `json:"overall_confidence"`

	// Entities lists extracted typed entities.
	Entities []Entity `json:"entities"`

	// Themes lists detected themes.
	Themes []string `json:"themes"`

	// SuggestedActions lists follow-up actions for the delivery layer.
	SuggestedActions []string `json:"suggested_actions"`

	// PrimaryTarget is the main routing target.
	PrimaryTarget string `json:"primary_target"`

	// SecondaryTargets lists additional routing targets.
	SecondaryTargets []string `json:"secondary_targets"`

	// ProcessingStrategy hints how the handler should process the
	// transcript (e.g. "standard", "deep_analysis").
	ProcessingStrategy string `json:"processing_strategy"`

	// UserStateIndicators carries scalar state signals (stress_level,
	// energy_level, ...) inferred from the transcript.
	UserStateIndicators map[string]float64 `json:"user_state_indicators"`

	// AnomalyFlags lists anomalies the classifier itself noticed.
	AnomalyFlags []string `json:"anomaly_flags"`

	// ClassifiedAt is when the classification was produced.
	ClassifiedAt time.Time `json:"classified_at"`
}

// Classifier maps raw transcript text to a structured classification.
//
// Implementations must treat the call as bounded: no unbounded retries.
// A remote implementation may return an error; callers that need the
// never-fails contract wrap it with WithFallback.
type Classifier interface {
	// Classify classifies a transcript.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - transcript: Raw transcript text (may be empty)
	//   - userContext: Optional prior context to bias classification
	//
	// Returns a fully populated Result, or an error if classification
	// could not be performed.
	Classify(ctx context.Context, transcript string, userContext map[string]interface{}) (*Result, error)

	// Close closes the classifier and releases resources.
	Close() error
}

// DeepAnalyzer is the optional deep-prediction capability.
//
// The Theory-of-Mind tracker uses it to enrich simple extrapolation with
// model-driven predictions; when it is unavailable or fails, predictions
// degrade to extrapolation only.
type DeepAnalyzer interface {
	// PredictNeeds predicts likely next actions/needs from a compact
	// state summary.
	PredictNeeds(ctx context.Context, stateSummary string) ([]string, error)
}

// ParseIntent maps a string to an Intent.
//
// The mapping is total: unrecognized input yields IntentReflection and
// ok=false so the caller can log the substitution once per invocation.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentDocumentation, IntentReflection, IntentIdeation, IntentPlanning,
		IntentVenting, IntentCelebration, IntentProblemSolving, IntentQuestion:
		return Intent(s), true
	}
	return IntentReflection, false
}

// ParseTone maps a string to a Tone. Unrecognized input yields ToneNeutral
// and ok=false.
func ParseTone(s string) (Tone, bool) {
	switch Tone(s) {
	case ToneExcited, ToneFrustrated, ToneNeutral, ToneAnxious,
		ToneContemplative, ToneJoyful, ToneSomber, ToneUrgent:
		return Tone(s), true
	}
	return ToneNeutral, false
}

// ParseComplexity maps a string to a Complexity. Unrecognized input yields
// ComplexityModerate and ok=false.
func ParseComplexity(s string) (Complexity, bool) {
	switch Complexity(s) {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityLayered:
		return Complexity(s), true
	}
	return ComplexityModerate, false
}

// ParseTemporalFocus maps a string to a TemporalFocus. Unrecognized input
// yields FocusPresent and ok=false.
func ParseTemporalFocus(s string) (TemporalFocus, bool) {
	switch TemporalFocus(s) {
	case FocusPast, FocusPresent, FocusFuture, FocusMixed:
		return TemporalFocus(s), true
	}
	return FocusPresent, false
}

// ParseEntityType maps a string to an EntityType. Unrecognized input yields
// EntityConcept and ok=false.
func ParseEntityType(s string) (EntityType, bool) {
	switch EntityType(s) {
	case EntityPerson, EntityPlace, EntityProject, EntityConcept:
		return EntityType(s), true
	}
	return EntityConcept, false
}
