// Package fallback provides the deterministic local classifier.
//
// It satisfies the Classifier contract with keyword matching and heuristics
// only: no network calls, no model dependency, and a fixed low confidence
// score (0.4) so downstream consumers can distinguish fallback results from
// AI-derived ones. It never returns an error.
package fallback

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/voicemind/voicemind-go/pkg/classifier"
)

// FallbackConfidence is the fixed confidence assigned to every dimension
// of a fallback classification.
const FallbackConfidence = 0.4

// intentKeywords maps keywords to the fallback intent set.
// The fallback intent vocabulary is deliberately smaller than the full
// enum: documentation, reflection, ideation, planning.
var intentKeywords = map[classifier.Intent][]string{
	classifier.IntentDocumentation: {
		"worked", "meeting", "finished", "completed", "shipped", "fixed",
		"deadline", "project", "task", "report",
	},
	classifier.IntentIdeation: {
		"idea", "what if", "concept", "invent", "imagine", "brainstorm",
		"could build", "app for",
	},
	classifier.IntentPlanning: {
		"plan", "tomorrow", "next week", "schedule", "going to", "will",
		"need to", "todo", "remind",
	},
	classifier.IntentReflection: {
		"feel", "feeling", "felt", "realize", "thinking about", "grateful",
		"remember", "wonder", "miss",
	},
}

// toneKeywords maps keywords to the fallback tone set:
// excited, frustrated, neutral.
var toneKeywords = map[classifier.Tone][]string{
	classifier.ToneExcited: {
		"excited", "amazing", "great", "awesome", "can't wait", "thrilled",
		"fantastic", "love",
	},
	classifier.ToneFrustrated: {
		"frustrated", "annoyed", "stressed", "angry", "tired of", "sick of",
		"overwhelmed", "hate",
	},
}

// themeKeywords maps transcript keywords to theme tags.
var themeKeywords = map[string][]string{
	"work":          {"work", "meeting", "deadline", "project", "boss", "office", "overtime"},
	"health":        {"sleep", "exercise", "tired", "doctor", "workout", "run"},
	"relationships": {"friend", "family", "partner", "wife", "husband", "mom", "dad"},
	"stress":        {"stressed", "anxious", "overwhelmed", "pressure", "worried"},
	"creativity":    {"idea", "create", "design", "build", "write"},
}

// Classifier is the deterministic local classifier.
type Classifier struct{}

// New creates a new fallback classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify produces a complete classification from keyword matching.
//
// The result is deterministic for a given transcript, every field is
// populated, and OverallConfidence is fixed at 0.4. An empty transcript
// yields a valid neutral classification.
func (c *Classifier) Classify(ctx context.Context, transcript string, userContext map[string]interface{}) (*classifier.Result, error) {
	lower := strings.ToLower(transcript)

	intent := matchIntent(lower)
	tone := matchTone(lower)
	themes := matchThemes(lower)

	result := &classifier.Result{
		Intent:        intent,
		ContentTypes:  contentTypes(intent),
		Tone:          tone,
		Complexity:    complexityFor(transcript),
		TemporalFocus: temporalFocusFor(lower),
		Confidence: map[string]float64{
			"intent":         FallbackConfidence,
			"tone":           FallbackConfidence,
			"complexity":     FallbackConfidence,
			"temporal_focus": FallbackConfidence,
		},
		OverallConfidence:  FallbackConfidence,
		Entities:           extractEntities(transcript),
		Themes:             themes,
		SuggestedActions:   []string{},
		PrimaryTarget:      routeFor(intent),
		SecondaryTargets:   []string{},
		ProcessingStrategy: "standard",
		UserStateIndicators: map[string]float64{
			"stress_level": stressLevel(lower),
			"energy_level": energyLevel(tone),
		},
		AnomalyFlags: []string{},
		ClassifiedAt: time.Now(),
	}

	return result, nil
}

// Close is a no-op for the local classifier.
func (c *Classifier) Close() error {
	return nil
}

// matchIntent picks the intent with the most keyword hits; ties and no-hit
// cases resolve to reflection. Iteration is over a fixed order so the
// result is deterministic.
func matchIntent(lower string) classifier.Intent {
	order := []classifier.Intent{
		classifier.IntentDocumentation,
		classifier.IntentIdeation,
		classifier.IntentPlanning,
		classifier.IntentReflection,
	}

	best := classifier.IntentReflection
	bestHits := 0
	for _, intent := range order {
		hits := 0
		for _, kw := range intentKeywords[intent] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = intent
			bestHits = hits
		}
	}
	return best
}

// matchTone picks excited or frustrated on keyword hits, else neutral.
func matchTone(lower string) classifier.Tone {
	excited, frustrated := 0, 0
	for _, kw := range toneKeywords[classifier.ToneExcited] {
		if strings.Contains(lower, kw) {
			excited++
		}
	}
	for _, kw := range toneKeywords[classifier.ToneFrustrated] {
		if strings.Contains(lower, kw) {
			frustrated++
		}
	}
	switch {
	case excited > frustrated:
		return classifier.ToneExcited
	case frustrated > excited:
		return classifier.ToneFrustrated
	default:
		return classifier.ToneNeutral
	}
}

// matchThemes returns theme tags in a fixed order for determinism.
func matchThemes(lower string) []string {
	order := []string{"work", "health", "relationships", "stress", "creativity"}
	var themes []string
	for _, theme := range order {
		for _, kw := range themeKeywords[theme] {
			if strings.Contains(lower, kw) {
				themes = append(themes, theme)
				break
			}
		}
	}
	if themes == nil {
		themes = []string{"general"}
	}
	return themes
}

// contentTypes derives at least one content-type tag from the intent.
func contentTypes(intent classifier.Intent) []string {
	switch intent {
	case classifier.IntentDocumentation:
		return []string{"work_log"}
	case classifier.IntentIdeation:
		return []string{"idea"}
	case classifier.IntentPlanning:
		return []string{"plan"}
	default:
		return []string{"personal_note"}
	}
}

// complexityFor grades complexity by transcript length.
func complexityFor(transcript string) classifier.Complexity {
	words := len(strings.Fields(transcript))
	switch {
	case words < 15:
		return classifier.ComplexitySimple
	case words < 60:
		return classifier.ComplexityModerate
	case words < 200:
		return classifier.ComplexityComplex
	default:
		return classifier.ComplexityLayered
	}
}

// temporalFocusFor detects the time orientation from marker words.
func temporalFocusFor(lower string) classifier.TemporalFocus {
	past := containsAny(lower, []string{"yesterday", "was", "did", "worked", "finished", "remember"})
	future := containsAny(lower, []string{"tomorrow", "will", "going to", "plan", "next week", "soon"})
	switch {
	case past && future:
		return classifier.FocusMixed
	case past:
		return classifier.FocusPast
	case future:
		return classifier.FocusFuture
	default:
		return classifier.FocusPresent
	}
}

// routeFor maps intent to the primary routing target.
func routeFor(intent classifier.Intent) string {
	switch intent {
	case classifier.IntentDocumentation:
		return classifier.TargetWorkJournal
	case classifier.IntentIdeation:
		return classifier.TargetIdeaVault
	default:
		return classifier.TargetMemoryArchive
	}
}

// stressLevel estimates stress from keyword density.
func stressLevel(lower string) float64 {
	markers := []string{"stressed", "overwhelmed", "anxious", "pressure", "deadline", "overtime", "exhausted"}
	level := 0.0
	for _, m := range markers {
		if strings.Contains(lower, m) {
			level += 0.2
		}
	}
	if level > 1.0 {
		level = 1.0
	}
	return level
}

// energyLevel maps tone to a coarse energy scalar.
func energyLevel(tone classifier.Tone) float64 {
	switch tone {
	case classifier.ToneExcited:
		return 0.8
	case classifier.ToneFrustrated:
		return 0.4
	default:
		return 0.5
	}
}

// extractEntities pulls capitalized tokens as concept entities, tagging
// those after a person cue ("with", "told", "met") as persons. A crude but
// deterministic approximation of entity extraction.
func extractEntities(transcript string) []classifier.Entity {
	tokens := strings.Fields(transcript)
	var entities []classifier.Entity
	seen := make(map[string]struct{})

	personCues := map[string]struct{}{"with": {}, "told": {}, "met": {}, "called": {}, "and": {}}

	for i, token := range tokens {
		word := strings.Trim(token, ".,!?;:'\"()")
		if len(word) < 2 || i == 0 {
			// Sentence-initial capitals are too noisy to treat as entities.
			continue
		}
		runes := []rune(word)
		if !unicode.IsUpper(runes[0]) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}

		entityType := classifier.EntityConcept
		prev := strings.ToLower(strings.Trim(tokens[i-1], ".,!?;:'\"()"))
		if _, ok := personCues[prev]; ok {
			entityType = classifier.EntityPerson
		}
		entities = append(entities, classifier.Entity{Name: word, Type: entityType})
	}

	if entities == nil {
		entities = []classifier.Entity{}
	}
	return entities
}

// containsAny reports whether any of the substrings occurs in s.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
