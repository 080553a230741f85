// Package graph provides the shared knowledge graph: a mutable collection
// of typed nodes with weighted associative edges, cross-agent insights, and
// temporal patterns, grown incrementally from classified interactions.
package graph

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// NodeType classifies a knowledge node.
type NodeType string

const (
	NodeConcept NodeType = "concept"
	NodeEntity  NodeType = "entity"
	NodePattern NodeType = "pattern"
	NodeInsight NodeType = "insight"
)

// InsightType classifies a cross-agent insight.
type InsightType string

const (
	InsightBehavioral InsightType = "behavioral"
	InsightTemporal   InsightType = "temporal"
	InsightRelational InsightType = "relational"
	InsightSystemic   InsightType = "systemic"
)

// PatternType classifies a unified pattern.
type PatternType string

const (
	PatternBehavioral    PatternType = "behavioral"
	PatternCyclical      PatternType = "cyclical"
	PatternCausal        PatternType = "causal"
	PatternCorrelational PatternType = "correlational"
)

// Source agent names with dedicated cross-agent insight rules.
const (
	AgentExecutiveAssistant = "ExecutiveAssistant"
	AgentSpiritualAdvisor   = "SpiritualAdvisor"
)

// EvolutionRecord is one entry in a node's ordered evolution history.
type EvolutionRecord struct {
	// At is when the event occurred.
	At time.Time `json:"at"`

	// Event describes what happened (e.g. "created", "reinforced").
	Event string `json:"event"`

	// Agent is the source agent that caused the event.
	Agent string `json:"agent,omitempty"`
}

// KnowledgeNode is a unit of knowledge in the graph.
//
// Node identity is deterministic: the ID is derived from content and type,
// so re-adding equivalent content reinforces the existing node instead of
// creating a duplicate. Connections are stored as ID references, never as
// embedded node pointers; edges are resolved through the owning graph.
type KnowledgeNode struct {
	// ID is the deterministic identifier derived from content and type.
	ID string `json:"id"`

	// Type is the node type (concept, entity, pattern, insight).
	Type NodeType `json:"type"`

	// Content is the textual content of the node.
	Content string `json:"content"`

	// CreatedAt is when the node was first created.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessedAt is when the node was last referenced.
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// AccessCount is how many times the node has been referenced.
	AccessCount int `json:"access_count"`

	// Importance is the current importance score (0.0-1.0). Recomputed
	// from recency and frequency on every access; never persisted stale.
	Importance float64 `json:"importance"`

	// Confidence is how confident the system is in this knowledge (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// Connections maps connected node ID to edge strength (0.0-1.0).
	Connections map[string]float64 `json:"connections"`

	// SourceAgents lists the agents that contributed this knowledge
	// (deduplicated).
	SourceAgents []string `json:"source_agents"`

	// SourceContexts holds serialized source contexts.
	SourceContexts []string `json:"source_contexts,omitempty"`

	// Evolution is the ordered history of events on this node.
	Evolution []EvolutionRecord `json:"evolution,omitempty"`
}

// CrossAgentInsight is a cross-cutting observation spanning multiple
// source agents.
//
// Confidence only increases through corroboration: each re-observation
// increments ObservationCount, and confidence = min(1.0, count/5).
type CrossAgentInsight struct {
	// ID is the stable identifier of the insight.
	ID string `json:"id"`

	// Type is the insight type.
	Type InsightType `json:"type"`

	// Description is the human-readable description.
	Description string `json:"description"`

	// SupportingPatterns lists IDs of patterns supporting this insight.
	SupportingPatterns []string `json:"supporting_patterns,omitempty"`

	// ContributingAgents lists the agents whose content produced the
	// insight.
	ContributingAgents []string `json:"contributing_agents"`

	// Confidence is min(1.0, ObservationCount/5). Monotonic.
	Confidence float64 `json:"confidence"`

	// FirstObserved is when the insight was first detected.
	FirstObserved time.Time `json:"first_observed"`

	// LastObserved is when the insight was most recently corroborated.
	LastObserved time.Time `json:"last_observed"`

	// ObservationCount is how many times the insight has been observed.
	ObservationCount int `json:"observation_count"`

	// AffectedAreas lists the life areas the insight touches.
	AffectedAreas []string `json:"affected_areas,omitempty"`

	// Actionability scores how actionable the insight is (0.0-1.0).
	Actionability float64 `json:"actionability"`

	// Recommendations lists recommendation strings for affected agents.
	Recommendations []string `json:"recommendations,omitempty"`
}

// UnifiedPattern is a recurring structure detected across time and agents.
//
// Patterns are created on the first qualifying observation, strengthened
// monotonically on each re-observation, and never deleted.
type UnifiedPattern struct {
	// ID is the stable identifier (e.g. "temporal_9_concept").
	ID string `json:"id"`

	// Name is the human-readable pattern name.
	Name string `json:"name"`

	// Type is the pattern type.
	Type PatternType `json:"type"`

	// TriggerConditions lists the conditions that trigger this pattern.
	TriggerConditions []string `json:"trigger_conditions,omitempty"`

	// Manifestations maps agent name to observed manifestations.
	Manifestations map[string][]string `json:"manifestations,omitempty"`

	// Occurrences is the total observation count.
	Occurrences int `json:"occurrences"`

	// Strength is min(1.0, Occurrences/10).
	Strength float64 `json:"strength"`

	// LastObserved is when the pattern was most recently reinforced.
	LastObserved time.Time `json:"last_observed"`

	// RelevantAgents lists agents this pattern is relevant to.
	RelevantAgents []string `json:"relevant_agents,omitempty"`

	// CrossRefs maps agent name to related record IDs.
	CrossRefs map[string][]string `json:"cross_refs,omitempty"`

	// PredictionHits counts correct predictions made from this pattern.
	PredictionHits int `json:"prediction_hits"`

	// PredictionMisses counts incorrect predictions.
	PredictionMisses int `json:"prediction_misses"`
}

// PredictiveConfidence derives the pattern's prediction accuracy.
// Returns 0.5 (uninformative) until at least one prediction has resolved.
func (p *UnifiedPattern) PredictiveConfidence() float64 {
	total := p.PredictionHits + p.PredictionMisses
	if total == 0 {
		return 0.5
	}
	return float64(p.PredictionHits) / float64(total)
}

// QueryResponse is the result of a knowledge graph query.
type QueryResponse struct {
	// Nodes lists matched nodes.
	Nodes []*KnowledgeNode `json:"nodes,omitempty"`

	// Insights lists matched insights.
	Insights []*CrossAgentInsight `json:"insights,omitempty"`

	// Patterns lists matched patterns.
	Patterns []*UnifiedPattern `json:"patterns,omitempty"`

	// Recommendations lists aggregated recommendation strings.
	Recommendations []string `json:"recommendations,omitempty"`
}

// Stats summarizes the current graph contents.
type Stats struct {
	// Nodes is the number of nodes currently held in memory.
	Nodes int `json:"nodes"`

	// Insights is the number of cross-agent insights.
	Insights int `json:"insights"`

	// Patterns is the number of unified patterns.
	Patterns int `json:"patterns"`

	// Evictions is how many nodes have been evicted since open.
	Evictions int `json:"evictions"`
}

// NodeID derives the deterministic node ID for content of a given type.
//
// Equivalent content of the same type always maps to the same ID; this is
// how re-submission reinforces existing knowledge. Cross-user collisions
// are intentional (shared concepts live in the shared graph).
func NodeID(content string, nodeType NodeType) string {
	sum := sha1.Sum([]byte(string(nodeType) + ":" + content))
	return string(nodeType) + "_" + hex.EncodeToString(sum[:8])
}
