package graph

import (
	"encoding/json"

	"github.com/voicemind/voicemind-go/pkg/storage"
)

// Conversions between domain types and storage records. Evolution history
// entries are serialized individually so the storage layer stays free of
// domain types.

func nodeToRecord(node *KnowledgeNode) *storage.Node {
	evolution := make([]string, 0, len(node.Evolution))
	for _, rec := range node.Evolution {
		if data, err := json.Marshal(rec); err == nil {
			evolution = append(evolution, string(data))
		}
	}
	return &storage.Node{
		ID:             node.ID,
		NodeType:       string(node.Type),
		Content:        node.Content,
		CreatedAt:      node.CreatedAt,
		LastAccessedAt: node.LastAccessedAt,
		AccessCount:    node.AccessCount,
		Importance:     node.Importance,
		Confidence:     node.Confidence,
		Connections:    node.Connections,
		SourceAgents:   node.SourceAgents,
		SourceContexts: node.SourceContexts,
		Evolution:      evolution,
	}
}

func nodeFromRecord(rec *storage.Node) *KnowledgeNode {
	evolution := make([]EvolutionRecord, 0, len(rec.Evolution))
	for _, raw := range rec.Evolution {
		var entry EvolutionRecord
		if err := json.Unmarshal([]byte(raw), &entry); err == nil {
			evolution = append(evolution, entry)
		}
	}
	node := &KnowledgeNode{
		ID:             rec.ID,
		Type:           NodeType(rec.NodeType),
		Content:        rec.Content,
		CreatedAt:      rec.CreatedAt,
		LastAccessedAt: rec.LastAccessedAt,
		AccessCount:    rec.AccessCount,
		Importance:     rec.Importance,
		Confidence:     rec.Confidence,
		Connections:    rec.Connections,
		SourceAgents:   rec.SourceAgents,
		SourceContexts: rec.SourceContexts,
		Evolution:      evolution,
	}
	if node.Connections == nil {
		node.Connections = make(map[string]float64)
	}
	return node
}

func insightToRecord(ins *CrossAgentInsight) *storage.Insight {
	return &storage.Insight{
		ID:                 ins.ID,
		InsightType:        string(ins.Type),
		Description:        ins.Description,
		SupportingPatterns: ins.SupportingPatterns,
		ContributingAgents: ins.ContributingAgents,
		Confidence:         ins.Confidence,
		FirstObserved:      ins.FirstObserved,
		LastObserved:       ins.LastObserved,
		ObservationCount:   ins.ObservationCount,
		AffectedAreas:      ins.AffectedAreas,
		Actionability:      ins.Actionability,
		Recommendations:    ins.Recommendations,
	}
}

func insightFromRecord(rec *storage.Insight) *CrossAgentInsight {
	return &CrossAgentInsight{
		ID:                 rec.ID,
		Type:               InsightType(rec.InsightType),
		Description:        rec.Description,
		SupportingPatterns: rec.SupportingPatterns,
		ContributingAgents: rec.ContributingAgents,
		Confidence:         rec.Confidence,
		FirstObserved:      rec.FirstObserved,
		LastObserved:       rec.LastObserved,
		ObservationCount:   rec.ObservationCount,
		AffectedAreas:      rec.AffectedAreas,
		Actionability:      rec.Actionability,
		Recommendations:    rec.Recommendations,
	}
}

func patternToRecord(p *UnifiedPattern) *storage.Pattern {
	return &storage.Pattern{
		ID:                p.ID,
		Name:              p.Name,
		PatternType:       string(p.Type),
		TriggerConditions: p.TriggerConditions,
		Manifestations:    p.Manifestations,
		Occurrences:       p.Occurrences,
		Strength:          p.Strength,
		LastObserved:      p.LastObserved,
		RelevantAgents:    p.RelevantAgents,
		CrossRefs:         p.CrossRefs,
		PredictionHits:    p.PredictionHits,
		PredictionMisses:  p.PredictionMisses,
	}
}

func patternFromRecord(rec *storage.Pattern) *UnifiedPattern {
	return &UnifiedPattern{
		ID:                rec.ID,
		Name:              rec.Name,
		Type:              PatternType(rec.PatternType),
		TriggerConditions: rec.TriggerConditions,
		Manifestations:    rec.Manifestations,
		Occurrences:       rec.Occurrences,
		Strength:          rec.Strength,
		LastObserved:      rec.LastObserved,
		RelevantAgents:    rec.RelevantAgents,
		CrossRefs:         rec.CrossRefs,
		PredictionHits:    rec.PredictionHits,
		PredictionMisses:  rec.PredictionMisses,
	}
}
