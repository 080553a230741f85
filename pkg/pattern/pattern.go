// Package pattern provides the behavioral pattern engine: it detects
// recurring structures in a stream of tagged observations and maintains
// per-pattern strength and probability distributions over time.
package pattern

import (
	"fmt"
	"time"
)

// strengthDivisor scales occurrence count into pattern strength:
// strength = min(1, occurrences/10).
const strengthDivisor = 10.0

// Observation is one tagged event in a user's interaction stream.
type Observation struct {
	// Topic is the content topic or category of the interaction.
	Topic string

	// Mood is the dominant mood label at observation time (optional).
	Mood string

	// Timestamp is when the interaction occurred.
	Timestamp time.Time
}

// BehavioralPattern is a recurring behavior detected for one user.
//
// The hour and weekday distributions are probability distributions: after
// every update each is renormalized so its values sum to 1.0. This is an
// explicit invariant, not an incidental property.
type BehavioralPattern struct {
	// ID is the stable identifier of the pattern.
	ID string `json:"id"`

	// Name is a human-readable pattern name.
	Name string `json:"name"`

	// TriggerConditions lists the conditions that trigger this pattern.
	TriggerConditions []string `json:"trigger_conditions,omitempty"`

	// ActionSequence is the typical action sequence for this pattern.
	ActionSequence []string `json:"action_sequence,omitempty"`

	// Occurrences is the total observation count.
	Occurrences int `json:"occurrences"`

	// TimePatterns is the probability distribution over hour-of-day (0-23).
	// Sums to 1.0 whenever non-empty.
	TimePatterns map[int]float64 `json:"time_patterns"`

	// DayPatterns is the probability distribution over weekday.
	// Sums to 1.0 whenever non-empty.
	DayPatterns map[time.Weekday]float64 `json:"day_patterns"`

	// AssociatedMoods counts the moods seen with this pattern.
	AssociatedMoods map[string]int `json:"associated_moods,omitempty"`

	// FirstObserved is when the pattern was first detected.
	FirstObserved time.Time `json:"first_observed"`

	// LastObserved is when the pattern was most recently reinforced.
	LastObserved time.Time `json:"last_observed"`
}

// Strength returns the pattern strength: min(1.0, occurrences/10).
//
// Strength grows monotonically with re-observation and never exceeds 1.0.
func (p *BehavioralPattern) Strength() float64 {
	strength := float64(p.Occurrences) / strengthDivisor
	if strength > 1.0 {
		return 1.0
	}
	return strength
}

// Frequency returns the average occurrences per week over the observation
// window. A window shorter than one week counts as one week, so frequency
// never overstates a brand-new pattern.
func (p *BehavioralPattern) Frequency() float64 {
	weeks := p.LastObserved.Sub(p.FirstObserved).Hours() / (24 * 7)
	if weeks < 1.0 {
		weeks = 1.0
	}
	return float64(p.Occurrences) / weeks
}

// hourCounts and dayCounts back the probability distributions. Counts are
// the source of truth; the distributions are renormalized from them.
type patternCounters struct {
	hours map[int]int
	days  map[time.Weekday]int
}

// Engine detects and maintains behavioral patterns for one user.
//
// The engine is order-sensitive: later observations see the cumulative
// effect of earlier ones. It is not safe for concurrent use; each user's
// stream is processed sequentially.
type Engine struct {
	// patterns maps pattern ID to the live pattern.
	patterns map[string]*BehavioralPattern

	// counters holds the raw per-pattern hour/day counts.
	counters map[string]*patternCounters
}

// NewEngine creates an empty pattern engine.
func NewEngine() *Engine {
	return &Engine{
		patterns: make(map[string]*BehavioralPattern),
		counters: make(map[string]*patternCounters),
	}
}

// Observe records an observation, creating a pattern on the first
// qualifying occurrence of its topic and strengthening it on every
// subsequent one. The pattern's hour and weekday distributions are
// renormalized after the update.
//
// Returns the created or updated pattern.
func (e *Engine) Observe(obs Observation) *BehavioralPattern {
	id := fmt.Sprintf("behavior_%s", obs.Topic)

	p, ok := e.patterns[id]
	if !ok {
		p = &BehavioralPattern{
			ID:                id,
			Name:              fmt.Sprintf("Recurring %s activity", obs.Topic),
			TriggerConditions: []string{obs.Topic},
			TimePatterns:      make(map[int]float64),
			DayPatterns:       make(map[time.Weekday]float64),
			AssociatedMoods:   make(map[string]int),
			FirstObserved:     obs.Timestamp,
		}
		e.patterns[id] = p
		e.counters[id] = &patternCounters{
			hours: make(map[int]int),
			days:  make(map[time.Weekday]int),
		}
	}

	c := e.counters[id]
	c.hours[obs.Timestamp.Hour()]++
	c.days[obs.Timestamp.Weekday()]++

	p.Occurrences++
	p.LastObserved = obs.Timestamp
	if obs.Mood != "" {
		p.AssociatedMoods[obs.Mood]++
	}

	e.renormalize(p, c)

	return p
}

// Get returns the pattern with the given ID, or nil if absent.
func (e *Engine) Get(id string) *BehavioralPattern {
	return e.patterns[id]
}

// Patterns returns all detected patterns.
func (e *Engine) Patterns() []*BehavioralPattern {
	out := make([]*BehavioralPattern, 0, len(e.patterns))
	for _, p := range e.patterns {
		out = append(out, p)
	}
	return out
}

// Active returns patterns observed within the given window before now.
func (e *Engine) Active(now time.Time, window time.Duration) []*BehavioralPattern {
	var out []*BehavioralPattern
	for _, p := range e.patterns {
		if now.Sub(p.LastObserved) <= window {
			out = append(out, p)
		}
	}
	return out
}

// Restore reinstates a previously persisted pattern along with the raw
// counts backing its distributions. Used when loading user state.
func (e *Engine) Restore(p *BehavioralPattern, hourCounts map[int]int, dayCounts map[time.Weekday]int) {
	e.patterns[p.ID] = p
	c := &patternCounters{
		hours: make(map[int]int, len(hourCounts)),
		days:  make(map[time.Weekday]int, len(dayCounts)),
	}
	for h, n := range hourCounts {
		c.hours[h] = n
	}
	for d, n := range dayCounts {
		c.days[d] = n
	}
	e.counters[p.ID] = c
	e.renormalize(p, c)
}

// Counts exposes the raw hour/day counts for persistence.
func (e *Engine) Counts(id string) (map[int]int, map[time.Weekday]int) {
	c, ok := e.counters[id]
	if !ok {
		return nil, nil
	}
	hours := make(map[int]int, len(c.hours))
	for h, n := range c.hours {
		hours[h] = n
	}
	days := make(map[time.Weekday]int, len(c.days))
	for d, n := range c.days {
		days[d] = n
	}
	return hours, days
}

// renormalize rebuilds the probability distributions from the raw counts
// so each sums to exactly 1.0.
func (e *Engine) renormalize(p *BehavioralPattern, c *patternCounters) {
	var hourTotal int
	for _, n := range c.hours {
		hourTotal += n
	}
	p.TimePatterns = make(map[int]float64, len(c.hours))
	if hourTotal > 0 {
		for h, n := range c.hours {
			p.TimePatterns[h] = float64(n) / float64(hourTotal)
		}
	}

	var dayTotal int
	for _, n := range c.days {
		dayTotal += n
	}
	p.DayPatterns = make(map[time.Weekday]float64, len(c.days))
	if dayTotal > 0 {
		for d, n := range c.days {
			p.DayPatterns[d] = float64(n) / float64(dayTotal)
		}
	}
}
