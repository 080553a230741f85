package tom

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/voicemind/voicemind-go/pkg/classifier"
	"github.com/voicemind/voicemind-go/pkg/emotion"
	"github.com/voicemind/voicemind-go/pkg/pattern"
	"github.com/voicemind/voicemind-go/pkg/storage"
)

const (
	// historyLimit bounds the full interaction history.
	historyLimit = 1000

	// shortTermLimit bounds the short-term interaction window.
	shortTermLimit = 50

	// recentWindow is the window for frequency, themes, and interaction
	// level.
	recentWindow = 7 * 24 * time.Hour

	// keyRelationshipLimit caps the key-relationship list.
	keyRelationshipLimit = 10

	// themeLimit caps the dominant-theme list.
	themeLimit = 5

	// significantIntensity and significantStress are the episodic-memory
	// thresholds: an interaction is significant when it raised an anomaly
	// or crossed either of these.
	significantIntensity = 0.7
	significantStress    = 0.7
)

// Option configures a tracker.
type Option func(*Tracker)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithDeepAnalyzer sets the optional deep-prediction capability. When
// absent or failing, predictions degrade to simple extrapolation.
func WithDeepAnalyzer(deep classifier.DeepAnalyzer) Option {
	return func(t *Tracker) {
		t.deep = deep
	}
}

// Tracker is the Theory-of-Mind aggregator for one user.
//
// It owns all per-user state: the emotional model, the behavioral pattern
// engine, the relationship map, and the live UserState summary. State
// updates are applied in delivery order; the tracker never reorders or
// batches. One tracker instance per user ID; the tracker is not safe for
// concurrent use.
type Tracker struct {
	userID string

	emotions      *emotion.Model
	patterns      *pattern.Engine
	relationships map[string]*Relationship

	history   []Interaction
	shortTerm []Interaction
	recent    []time.Time
	episodic  []EpisodicRecord

	state *UserState

	store  storage.StateStore
	deep   classifier.DeepAnalyzer
	idNode *snowflake.Node
	logger *zap.Logger
}

// persistedState is the JSON document stored per user: the state summary,
// the behavioral patterns with their raw distribution counts, the
// relationship map, and the episodic memory.
type persistedState struct {
	State         *UserState               `json:"state"`
	Patterns      []persistedPattern       `json:"patterns,omitempty"`
	Relationships map[string]*Relationship `json:"relationships,omitempty"`
	Episodic      []EpisodicRecord         `json:"episodic,omitempty"`
	Recent        []time.Time              `json:"recent,omitempty"`
}

type persistedPattern struct {
	Pattern    *pattern.BehavioralPattern `json:"pattern"`
	HourCounts map[int]int                `json:"hour_counts,omitempty"`
	DayCounts  map[time.Weekday]int       `json:"day_counts,omitempty"`
}

// NewTracker creates a Theory-of-Mind tracker for one user and hydrates it
// from the state store.
//
// A load failure is logged and the tracker starts with a default state;
// construction never fails because of storage.
//
// Parameters:
//   - ctx: Context for the initial load
//   - userID: The user this tracker models
//   - store: State persistence backend (may be nil for memory-only use)
//   - opts: Optional configuration
//
// Returns:
//   - *Tracker: The tracker instance
func NewTracker(ctx context.Context, userID string, store storage.StateStore, opts ...Option) *Tracker {
	t := &Tracker{
		userID:        userID,
		patterns:      pattern.NewEngine(),
		relationships: make(map[string]*Relationship),
		store:         store,
		logger:        zap.NewNop(),
		state: &UserState{
			UserID:                userID,
			CurrentMood:           "neutral",
			EnergyLevel:           0.5,
			PersonalityIndicators: make(map[string]float64),
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.emotions = emotion.NewModel(t.logger)

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.logger.Warn("tom: snowflake node init failed, using timestamp IDs", zap.Error(err))
	}
	t.idNode = node

	t.load(ctx)
	return t
}

// load hydrates the tracker from the store. Fail-open: any error leaves the
// tracker with its default state.
func (t *Tracker) load(ctx context.Context) {
	if t.store == nil {
		return
	}
	rec, err := t.store.LoadUserState(ctx, t.userID)
	if err != nil {
		t.logger.Warn("tom: state load failed, starting fresh", zap.String("user_id", t.userID), zap.Error(err))
		return
	}
	if rec == nil {
		return
	}

	var doc persistedState
	if err := json.Unmarshal(rec.Payload, &doc); err != nil {
		t.logger.Warn("tom: state payload malformed, starting fresh", zap.String("user_id", t.userID), zap.Error(err))
		return
	}

	if doc.State != nil {
		t.state = doc.State
		if t.state.PersonalityIndicators == nil {
			t.state.PersonalityIndicators = make(map[string]float64)
		}
	}
	for _, pp := range doc.Patterns {
		if pp.Pattern != nil {
			t.patterns.Restore(pp.Pattern, pp.HourCounts, pp.DayCounts)
		}
	}
	if doc.Relationships != nil {
		t.relationships = doc.Relationships
	}
	t.episodic = doc.Episodic
	t.recent = doc.Recent
}

// ProcessInteraction applies one classified interaction to the user model.
//
// Update order is fixed: histories, emotional model, behavioral model,
// social model, state summary, anomaly check, predictions, episodic memory,
// persistence. Later interactions see the cumulative effect of earlier
// ones.
//
// Parameters:
//   - ctx: Context for the deep analyzer call and persistence
//   - transcript: Raw transcript text
//   - result: The classification (a nil result is treated as neutral)
//   - ts: Interaction timestamp (zero means now)
//
// Returns the updated state with anomalies, predictions, and
// recommendations. Never returns an error: degraded dependencies degrade
// the output, not the call.
func (t *Tracker) ProcessInteraction(ctx context.Context, transcript string, result *classifier.Result, ts time.Time) *InteractionResult {
	if ts.IsZero() {
		ts = time.Now()
	}
	if result == nil {
		result = &classifier.Result{Intent: classifier.IntentReflection, Tone: classifier.ToneNeutral}
	}

	interaction := Interaction{Transcript: transcript, Result: result, Timestamp: ts}
	t.history = appendBounded(t.history, interaction, historyLimit)
	t.shortTerm = appendBounded(t.shortTerm, interaction, shortTermLimit)
	t.recent = trimRecent(append(t.recent, ts), ts)

	analysis := t.emotions.Analyze(transcript, nil, classifierSignal(result))

	topic := interactionTopic(result)
	t.patterns.Observe(pattern.Observation{Topic: topic, Mood: string(result.Tone), Timestamp: ts})

	for _, ent := range result.Entities {
		if ent.Type != classifier.EntityPerson {
			continue
		}
		rel, ok := t.relationships[ent.Name]
		if !ok {
			rel = &Relationship{Name: ent.Name}
			t.relationships[ent.Name] = rel
		}
		rel.Mentions++
		rel.LastMentioned = ts
	}

	t.updateState(analysis, result, ts)

	anomalies := CheckAnomalies(t.state, ts)

	preds := t.predict(ctx, analysis, ts)
	t.state.Predictions = preds
	t.state.AttentionNeededScore = attentionScore(t.state, anomalies, analysis.Trajectory)

	if t.isSignificant(anomalies, analysis) {
		t.episodic = append(t.episodic, EpisodicRecord{
			ID:          t.nextEpisodicID(ts),
			Timestamp:   ts,
			Transcript:  transcript,
			Anomalies:   anomalies,
			Intensity:   analysis.State.Intensity,
			StressLevel: t.state.StressLevel,
		})
	}

	t.save(ctx)

	return &InteractionResult{
		State:           t.state,
		Anomalies:       anomalies,
		Predictions:     preds,
		Recommendations: analysis.Recommendations,
		PatternInsights: t.patternInsights(ts),
		Analysis:        analysis,
	}
}

// updateState recomputes the live state summary from the latest analysis
// and classification.
func (t *Tracker) updateState(analysis *emotion.Analysis, result *classifier.Result, ts time.Time) {
	s := t.state

	if dominant, score := analysis.State.Dominant(); score >= 0.2 {
		s.CurrentMood = string(dominant)
	} else {
		s.CurrentMood = string(result.Tone)
	}

	if v, ok := result.UserStateIndicators["stress_level"]; ok {
		s.StressLevel = clamp01(v)
	} else {
		s.StressLevel = clamp01(0.2 * float64(len(analysis.State.StressIndicators)))
	}
	if v, ok := result.UserStateIndicators["energy_level"]; ok {
		s.EnergyLevel = clamp01(v)
	}

	s.EmotionalVolatility = analysis.Trajectory.Volatility
	s.DominantThemes = t.dominantThemes(ts)
	s.InteractionFrequency = float64(len(t.recent)) / 7.0
	s.KeyRelationships = t.keyRelationships()
	s.InteractionLevel = t.interactionLevel(ts)
	s.LastInteraction = ts
	s.TotalInteractions++
	s.UpdatedAt = ts

	reinforceTrait(s.PersonalityIndicators, result.Intent)
}

// reinforceTrait nudges the long-term trait signal associated with an
// intent, capped at 1.0.
func reinforceTrait(traits map[string]float64, intent classifier.Intent) {
	trait := ""
	switch intent {
	case classifier.IntentReflection:
		trait = "introspective"
	case classifier.IntentIdeation:
		trait = "creative"
	case classifier.IntentPlanning:
		trait = "organized"
	case classifier.IntentVenting:
		trait = "expressive"
	case classifier.IntentCelebration:
		trait = "positive"
	case classifier.IntentProblemSolving:
		trait = "analytical"
	}
	if trait == "" {
		return
	}
	traits[trait] = clamp01(traits[trait] + 0.05)
}

// dominantThemes ranks themes from the last 7 days of interactions by
// recency-weighted counts.
func (t *Tracker) dominantThemes(now time.Time) []string {
	weights := make(map[string]float64)
	for _, interaction := range t.history {
		age := now.Sub(interaction.Timestamp)
		if age < 0 || age > recentWindow {
			continue
		}
		weight := 1.0 / (1.0 + age.Hours()/24)
		for _, theme := range interaction.Result.Themes {
			weights[theme] += weight
		}
	}

	themes := make([]string, 0, len(weights))
	for theme := range weights {
		themes = append(themes, theme)
	}
	sort.Slice(themes, func(i, j int) bool {
		if weights[themes[i]] != weights[themes[j]] {
			return weights[themes[i]] > weights[themes[j]]
		}
		return themes[i] < themes[j]
	})
	if len(themes) > themeLimit {
		themes = themes[:themeLimit]
	}
	return themes
}

// keyRelationships returns the top relationships by mention count.
func (t *Tracker) keyRelationships() []Relationship {
	rels := make([]Relationship, 0, len(t.relationships))
	for _, rel := range t.relationships {
		rels = append(rels, *rel)
	}
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].Mentions != rels[j].Mentions {
			return rels[i].Mentions > rels[j].Mentions
		}
		return rels[i].Name < rels[j].Name
	})
	if len(rels) > keyRelationshipLimit {
		rels = rels[:keyRelationshipLimit]
	}
	return rels
}

// interactionLevel is min(1, relationships mentioned in the last 7 days / 10).
func (t *Tracker) interactionLevel(now time.Time) float64 {
	count := 0
	for _, rel := range t.relationships {
		if now.Sub(rel.LastMentioned) <= recentWindow {
			count++
		}
	}
	return clamp01(float64(count) / 10.0)
}

// predict combines simple extrapolation with the optional deep analyzer.
// A deep-analyzer failure is logged and predictions degrade to
// extrapolation only; no error propagates.
func (t *Tracker) predict(ctx context.Context, analysis *emotion.Analysis, now time.Time) *Predictions {
	preds := &Predictions{
		MoodTrajectory: analysis.Trajectory.Direction,
		LikelyTopics:   t.state.DominantThemes,
	}

	var strongest *pattern.BehavioralPattern
	for _, p := range t.patterns.Active(now, recentWindow) {
		if strongest == nil || p.Strength() > strongest.Strength() ||
			(p.Strength() == strongest.Strength() && p.ID < strongest.ID) {
			strongest = p
		}
	}
	// Restored patterns may carry no trigger conditions.
	if strongest != nil && len(strongest.TriggerConditions) > 0 {
		preds.NextLikelyTopic = strongest.TriggerConditions[0]
	}

	if t.deep != nil {
		summary := fmt.Sprintf("mood=%s stress=%.2f energy=%.2f trajectory=%s themes=%v",
			t.state.CurrentMood, t.state.StressLevel, t.state.EnergyLevel,
			analysis.Trajectory.Direction, t.state.DominantThemes)
		needs, err := t.deep.PredictNeeds(ctx, summary)
		if err != nil {
			t.logger.Warn("tom: deep prediction failed, using extrapolation only",
				zap.String("user_id", t.userID), zap.Error(err))
		} else {
			preds.AnticipatedNeeds = needs
		}
	}

	return preds
}

// attentionScore is the fraction of the four risk factors currently true:
// high stress, high volatility, any anomaly, declining forecast.
func attentionScore(state *UserState, anomalies []string, trajectory *emotion.Trajectory) float64 {
	raised := 0
	if state.StressLevel > stressThreshold {
		raised++
	}
	if state.EmotionalVolatility > volatilityThreshold {
		raised++
	}
	if len(anomalies) > 0 {
		raised++
	}
	if trajectory.Direction == emotion.TrajectoryDeclining {
		raised++
	}
	return float64(raised) / 4.0
}

// isSignificant is the episodic-memory predicate: an interaction is
// significant when it raised at least one anomaly, or its emotional
// intensity or stress level crossed 0.7. Deterministic by construction.
func (t *Tracker) isSignificant(anomalies []string, analysis *emotion.Analysis) bool {
	if len(anomalies) > 0 {
		return true
	}
	if analysis.State.Intensity > significantIntensity {
		return true
	}
	return t.state.StressLevel > significantStress
}

// patternInsights describes the currently active behavioral patterns.
func (t *Tracker) patternInsights(now time.Time) []string {
	active := t.patterns.Active(now, recentWindow)
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	insights := make([]string, 0, len(active))
	for _, p := range active {
		insights = append(insights, fmt.Sprintf("%s: %d occurrence(s), strength %.1f", p.Name, p.Occurrences, p.Strength()))
	}
	return insights
}

// nextEpisodicID generates a unique episodic record ID.
func (t *Tracker) nextEpisodicID(ts time.Time) string {
	if t.idNode != nil {
		return t.idNode.Generate().String()
	}
	return fmt.Sprintf("ep_%d", ts.UnixNano())
}

// State returns the live user state summary.
func (t *Tracker) State() *UserState {
	return t.state
}

// EpisodicMemory returns the recorded significant interactions.
func (t *Tracker) EpisodicMemory() []EpisodicRecord {
	return t.episodic
}

// Patterns returns the behavioral pattern engine.
func (t *Tracker) Patterns() *pattern.Engine {
	return t.patterns
}

// Close persists the tracker state one final time. A save failure is
// logged, not returned.
func (t *Tracker) Close() error {
	t.save(context.Background())
	return nil
}

// save writes the persisted document. Fail-open: failures are logged and
// in-memory state is never rolled back.
func (t *Tracker) save(ctx context.Context) {
	if t.store == nil {
		return
	}

	doc := persistedState{
		State:         t.state,
		Relationships: t.relationships,
		Episodic:      t.episodic,
		Recent:        t.recent,
	}
	for _, p := range t.patterns.Patterns() {
		hours, days := t.patterns.Counts(p.ID)
		doc.Patterns = append(doc.Patterns, persistedPattern{Pattern: p, HourCounts: hours, DayCounts: days})
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		t.logger.Warn("tom: state encode failed", zap.String("user_id", t.userID), zap.Error(err))
		return
	}
	if err := t.store.SaveUserState(ctx, &storage.UserState{UserID: t.userID, Payload: payload}); err != nil {
		t.logger.Warn("tom: state save failed", zap.String("user_id", t.userID), zap.Error(err))
	}
}

// classifierSignal maps the classified tone to per-emotion scores, scaled
// by overall classification confidence. A neutral tone is still a signal
// (the classifier saw no strong emotion), so it contributes zeros rather
// than being treated as absent.
func classifierSignal(result *classifier.Result) map[emotion.Emotion]float64 {
	scale := result.OverallConfidence
	if scale <= 0 {
		scale = 0.5
	}

	sig := make(map[emotion.Emotion]float64, len(emotion.Primaries))
	switch result.Tone {
	case classifier.ToneExcited:
		sig[emotion.Joy] = 0.7 * scale
		sig[emotion.Anticipation] = 0.6 * scale
	case classifier.ToneJoyful:
		sig[emotion.Joy] = 0.9 * scale
	case classifier.ToneFrustrated:
		sig[emotion.Anger] = 0.8 * scale
	case classifier.ToneAnxious:
		sig[emotion.Fear] = 0.8 * scale
	case classifier.ToneSomber:
		sig[emotion.Sadness] = 0.8 * scale
	case classifier.ToneContemplative:
		sig[emotion.Trust] = 0.5 * scale
		sig[emotion.Anticipation] = 0.3 * scale
	case classifier.ToneUrgent:
		sig[emotion.Anticipation] = 0.7 * scale
		sig[emotion.Fear] = 0.4 * scale
	}
	return sig
}

// interactionTopic picks the behavioral-pattern topic for a classification:
// the first theme, falling back to the first content type, then the intent.
func interactionTopic(result *classifier.Result) string {
	if len(result.Themes) > 0 {
		return result.Themes[0]
	}
	if len(result.ContentTypes) > 0 {
		return result.ContentTypes[0]
	}
	return string(result.Intent)
}

// appendBounded appends to a slice bounded at limit, dropping the oldest
// entries.
func appendBounded(list []Interaction, item Interaction, limit int) []Interaction {
	list = append(list, item)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	return list
}

// trimRecent drops timestamps older than the recency window.
func trimRecent(times []time.Time, now time.Time) []time.Time {
	out := times[:0]
	for _, ts := range times {
		if now.Sub(ts) <= recentWindow {
			out = append(out, ts)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0.0
	}
	if v > 1 {
		return 1.0
	}
	return v
}
