package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/voicemind/voicemind-go/pkg/similarity"
	"github.com/voicemind/voicemind-go/pkg/storage"
)

const (
	// DefaultMaxNodes is the default in-memory node capacity before the
	// least-recently-accessed nodes are evicted.
	DefaultMaxNodes = 10000

	// linkThreshold is the minimum similarity (exclusive) for auto-linking.
	linkThreshold = 0.2

	// linkLimit caps how many existing nodes a new node links to.
	linkLimit = 5

	// activeWindow is the recency window for active patterns and insight
	// corroboration.
	activeWindow = 7 * 24 * time.Hour

	// recommendationLimit caps recommendation query results.
	recommendationLimit = 5
)

// WorkLifeBalanceInsightID is the stable ID of the built-in insight rule
// correlating work content with stress content across agents.
const WorkLifeBalanceInsightID = "work_life_balance_concern"

var workMarkers = []string{"work", "worked", "working", "overtime", "deadline", "meeting", "project"}

var stressMarkers = []string{"stress", "stressed", "anxious", "anxiety", "overwhelmed", "exhausted", "burnout", "burned out"}

// Option configures a graph service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxNodes sets the in-memory node capacity. Values below 1 keep the
// default.
func WithMaxNodes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxNodes = n
		}
	}
}

// Service is the shared knowledge graph service.
//
// Nodes live in one owned collection keyed by ID; edges are ID references
// resolved through that collection, never embedded pointers. The service is
// safe for concurrent use, though the intended deployment is one invocation
// at a time per store.
//
// Mutations are written through to the store per entity as they happen.
// Store failures are logged and never abort or roll back the in-memory
// mutation; a failed load degrades to an empty graph.
type Service struct {
	mu       sync.RWMutex
	nodes    map[string]*KnowledgeNode
	insights map[string]*CrossAgentInsight
	patterns map[string]*UnifiedPattern

	// access tracks node recency for eviction. Adding beyond capacity
	// evicts the least-recently-accessed node from memory and the store.
	access *lru.Cache[string, struct{}]

	store     storage.GraphStore
	logger    *zap.Logger
	maxNodes  int
	evictions int
}

// Open creates a knowledge graph service backed by the given store and
// hydrates it with the persisted nodes, insights, and patterns.
//
// Load failures are logged and the service starts empty; startup never
// fails because of storage.
//
// Parameters:
//   - ctx: Context for the initial load
//   - store: Persistence backend (may be nil for a memory-only graph)
//   - opts: Optional configuration
//
// Returns:
//   - *Service: The graph service instance
//
// Example:
//
//	svc := graph.Open(ctx, store, graph.WithLogger(logger))
//	defer svc.Close()
func Open(ctx context.Context, store storage.GraphStore, opts ...Option) *Service {
	s := &Service{
		nodes:    make(map[string]*KnowledgeNode),
		insights: make(map[string]*CrossAgentInsight),
		patterns: make(map[string]*UnifiedPattern),
		store:    store,
		logger:   zap.NewNop(),
		maxNodes: DefaultMaxNodes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.access, _ = lru.NewWithEvict[string, struct{}](s.maxNodes, s.onEvict)

	s.load(ctx)
	return s
}

// load hydrates in-memory state from the store. Fail-open: any error leaves
// the corresponding collection empty.
func (s *Service) load(ctx context.Context) {
	if s.store == nil {
		return
	}

	nodes, err := s.store.LoadNodes(ctx)
	if err != nil {
		s.logger.Warn("graph: node load failed, starting empty", zap.Error(err))
	}
	for _, rec := range nodes {
		node := nodeFromRecord(rec)
		s.nodes[node.ID] = node
		s.access.Add(node.ID, struct{}{})
	}

	insights, err := s.store.LoadInsights(ctx)
	if err != nil {
		s.logger.Warn("graph: insight load failed, starting empty", zap.Error(err))
	}
	for _, rec := range insights {
		ins := insightFromRecord(rec)
		s.insights[ins.ID] = ins
	}

	patterns, err := s.store.LoadPatterns(ctx)
	if err != nil {
		s.logger.Warn("graph: pattern load failed, starting empty", zap.Error(err))
	}
	for _, rec := range patterns {
		p := patternFromRecord(rec)
		s.patterns[p.ID] = p
	}
}

// onEvict removes an evicted node from memory and the store. Edges held by
// other nodes may keep referencing the evicted ID; lookups resolve through
// the node collection and skip missing IDs.
func (s *Service) onEvict(id string, _ struct{}) {
	delete(s.nodes, id)
	s.evictions++
	if s.store != nil {
		if err := s.store.DeleteNode(context.Background(), id); err != nil {
			s.logger.Warn("graph: evicted node delete failed", zap.String("node_id", id), zap.Error(err))
		}
	}
}

// AddKnowledge adds content to the graph, or reinforces the existing node
// when equivalent content was seen before.
//
// For a new node the linking algorithm scores the content against every
// existing node, keeps similarities above 0.2, takes the top 5, and creates
// bidirectional edges of equal weight (additive on repeat, capped at 1.0).
// When the context carries a timestamp, a temporal co-occurrence pattern
// keyed by (hour, node type) is created or strengthened. Cross-agent insight
// rules run on every add.
//
// Parameters:
//   - ctx: Context for persistence writes
//   - content: The textual content to add
//   - nodeType: The node type (concept, entity, pattern, insight)
//   - sourceAgent: The agent contributing this knowledge
//   - interactionContext: Optional context map; a "timestamp" entry
//     (time.Time or RFC 3339 string) enables temporal pattern detection
//
// Returns:
//   - *KnowledgeNode: The created or reinforced node
func (s *Service) AddKnowledge(ctx context.Context, content string, nodeType NodeType, sourceAgent string, interactionContext map[string]interface{}) *KnowledgeNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := NodeID(content, nodeType)

	node, exists := s.nodes[id]
	if exists {
		node.AccessCount++
		node.LastAccessedAt = now
		node.Importance = importanceScore(node, now)
		if !containsString(node.SourceAgents, sourceAgent) {
			node.SourceAgents = append(node.SourceAgents, sourceAgent)
		}
		node.Evolution = append(node.Evolution, EvolutionRecord{At: now, Event: "reinforced", Agent: sourceAgent})
	} else {
		node = &KnowledgeNode{
			ID:             id,
			Type:           nodeType,
			Content:        content,
			CreatedAt:      now,
			LastAccessedAt: now,
			AccessCount:    1,
			Confidence:     0.5,
			Connections:    make(map[string]float64),
			SourceAgents:   []string{sourceAgent},
			Evolution:      []EvolutionRecord{{At: now, Event: "created", Agent: sourceAgent}},
		}
		node.Importance = importanceScore(node, now)
		if len(interactionContext) > 0 {
			if data, err := json.Marshal(interactionContext); err == nil {
				node.SourceContexts = append(node.SourceContexts, string(data))
			}
		}
		s.linkNode(ctx, node)
		s.nodes[id] = node
	}

	// Touching the LRU may evict the least-recently-accessed node when the
	// graph is at capacity.
	s.access.Add(id, struct{}{})

	if ts, ok := contextTime(interactionContext); ok {
		s.observeTemporalPattern(ctx, node, sourceAgent, ts)
	}
	s.evaluateInsightRules(ctx, node, sourceAgent, now)

	s.saveNode(ctx, node)
	return node
}

// linkNode creates bidirectional edges between the new node and its most
// similar existing nodes.
func (s *Service) linkNode(ctx context.Context, node *KnowledgeNode) {
	candidates := make(map[string]string, len(s.nodes))
	for id, existing := range s.nodes {
		candidates[id] = existing.Content
	}

	for _, match := range similarity.TopMatches(node.Content, candidates, linkThreshold, linkLimit) {
		other, ok := s.nodes[match.ID]
		if !ok {
			continue
		}
		strengthenConnection(node, other.ID, match.Score)
		strengthenConnection(other, node.ID, match.Score)
		s.saveNode(ctx, other)
	}
}

// strengthenConnection adds weight to an edge, creating it when absent.
// Edge strength is capped at 1.0.
func strengthenConnection(node *KnowledgeNode, targetID string, weight float64) {
	if node.Connections == nil {
		node.Connections = make(map[string]float64)
	}
	strength := node.Connections[targetID] + weight
	if strength > 1.0 {
		strength = 1.0
	}
	node.Connections[targetID] = strength
}

// importanceScore recomputes importance from recency and frequency.
// Recency is the inverse of age in days; frequency is the access count
// capped at 100. Never persisted stale.
func importanceScore(node *KnowledgeNode, now time.Time) float64 {
	ageDays := now.Sub(node.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	recency := 1.0 / (1.0 + ageDays)

	count := node.AccessCount
	if count > 100 {
		count = 100
	}
	frequency := float64(count) / 100.0

	return 0.5*recency + 0.5*frequency
}

// observeTemporalPattern creates or strengthens the cyclical pattern keyed
// by (hour of day, node type).
func (s *Service) observeTemporalPattern(ctx context.Context, node *KnowledgeNode, sourceAgent string, ts time.Time) {
	hour := ts.Hour()
	id := fmt.Sprintf("temporal_%d_%s", hour, node.Type)

	p, ok := s.patterns[id]
	if !ok {
		p = &UnifiedPattern{
			ID:                id,
			Name:              fmt.Sprintf("%s activity around %02d:00", node.Type, hour),
			Type:              PatternCyclical,
			TriggerConditions: []string{fmt.Sprintf("hour=%d", hour)},
			Manifestations:    make(map[string][]string),
		}
		s.patterns[id] = p
	}

	p.Occurrences++
	p.Strength = patternStrength(p.Occurrences)
	p.LastObserved = time.Now()
	if !containsString(p.RelevantAgents, sourceAgent) {
		p.RelevantAgents = append(p.RelevantAgents, sourceAgent)
	}
	if p.Manifestations == nil {
		p.Manifestations = make(map[string][]string)
	}
	p.Manifestations[sourceAgent] = append(p.Manifestations[sourceAgent], node.Content)

	s.savePattern(ctx, p)
}

// patternStrength derives strength from the occurrence count.
func patternStrength(occurrences int) float64 {
	strength := float64(occurrences) / 10.0
	if strength > 1.0 {
		strength = 1.0
	}
	return strength
}

// evaluateInsightRules runs cross-agent insight rules against the add.
//
// The work/life balance rule fires in both directions: stress content sees
// recent work content from the executive assistant, and work content sees
// recent stress content from the spiritual advisor. Each firing corroborates
// the insight, so confidence only ever increases.
func (s *Service) evaluateInsightRules(ctx context.Context, node *KnowledgeNode, sourceAgent string, now time.Time) {
	content := strings.ToLower(node.Content)

	observed := false
	if matchesAny(content, workMarkers) && sourceAgent == AgentExecutiveAssistant {
		if s.hasRecentNode(stressMarkers, AgentSpiritualAdvisor, node.ID, now) {
			observed = true
		}
	}
	if matchesAny(content, stressMarkers) && sourceAgent == AgentSpiritualAdvisor {
		if s.hasRecentNode(workMarkers, AgentExecutiveAssistant, node.ID, now) {
			observed = true
		}
	}
	if !observed {
		return
	}

	ins, ok := s.insights[WorkLifeBalanceInsightID]
	if !ok {
		ins = &CrossAgentInsight{
			ID:                 WorkLifeBalanceInsightID,
			Type:               InsightBehavioral,
			Description:        "Work pressure is correlating with elevated stress",
			ContributingAgents: []string{AgentExecutiveAssistant, AgentSpiritualAdvisor},
			FirstObserved:      now,
			AffectedAreas:      []string{"work", "wellbeing"},
			Actionability:      0.8,
			Recommendations: []string{
				"Suggest scheduling recovery time after intense work periods",
				"Surface stress check-ins when overtime is detected",
			},
		}
		s.insights[ins.ID] = ins
	}

	ins.ObservationCount++
	ins.Confidence = insightConfidence(ins.ObservationCount)
	ins.LastObserved = now

	s.saveInsight(ctx, ins)
}

// insightConfidence derives confidence from the corroboration count.
func insightConfidence(observations int) float64 {
	confidence := float64(observations) / 5.0
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// hasRecentNode reports whether any other node observed within the recency
// window matches one of the markers and was contributed by the given agent.
func (s *Service) hasRecentNode(markers []string, agent string, excludeID string, now time.Time) bool {
	for id, node := range s.nodes {
		if id == excludeID {
			continue
		}
		if now.Sub(node.LastAccessedAt) > activeWindow {
			continue
		}
		if !containsString(node.SourceAgents, agent) {
			continue
		}
		if matchesAny(strings.ToLower(node.Content), markers) {
			return true
		}
	}
	return false
}

// Query runs a read query against the graph.
//
// Supported query types:
//   - "related_to": similarity search over node content; params["content"]
//     holds the query text
//   - "insights_for_agent": insights contributed by the requesting agent or
//     touching params["area"]
//   - "active_patterns": patterns observed within the last 7 days
//   - "recommendations": aggregated insight recommendations (confidence
//     > 0.6) plus pattern-triggered suggestions (strength > 0.7),
//     deduplicated and capped at 5
//
// Unknown query types return an empty response.
func (s *Service) Query(queryType string, params map[string]interface{}, requestingAgent string) *QueryResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := &QueryResponse{}
	now := time.Now()

	switch queryType {
	case "related_to":
		content, _ := params["content"].(string)
		candidates := make(map[string]string, len(s.nodes))
		for id, node := range s.nodes {
			candidates[id] = node.Content
		}
		for _, match := range similarity.TopMatches(content, candidates, linkThreshold, recommendationLimit) {
			if node, ok := s.nodes[match.ID]; ok {
				resp.Nodes = append(resp.Nodes, node)
			}
		}

	case "insights_for_agent":
		area, _ := params["area"].(string)
		for _, ins := range s.insights {
			if containsString(ins.ContributingAgents, requestingAgent) ||
				(area != "" && containsString(ins.AffectedAreas, area)) {
				resp.Insights = append(resp.Insights, ins)
			}
		}

	case "active_patterns":
		for _, p := range s.patterns {
			if now.Sub(p.LastObserved) <= activeWindow {
				resp.Patterns = append(resp.Patterns, p)
			}
		}

	case "recommendations":
		seen := make(map[string]struct{})
		for _, ins := range s.insights {
			if ins.Confidence <= 0.6 {
				continue
			}
			if !containsString(ins.ContributingAgents, requestingAgent) {
				continue
			}
			for _, rec := range ins.Recommendations {
				if _, dup := seen[rec]; dup {
					continue
				}
				seen[rec] = struct{}{}
				resp.Recommendations = append(resp.Recommendations, rec)
			}
		}
		for _, p := range s.patterns {
			if p.Strength <= 0.7 {
				continue
			}
			rec := fmt.Sprintf("Recurring pattern detected: %s", p.Name)
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			resp.Recommendations = append(resp.Recommendations, rec)
		}
		if len(resp.Recommendations) > recommendationLimit {
			resp.Recommendations = resp.Recommendations[:recommendationLimit]
		}
	}

	return resp
}

// Node returns the node with the given ID, or nil when absent.
func (s *Service) Node(id string) *KnowledgeNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id]
}

// Insight returns the insight with the given ID, or nil when absent.
func (s *Service) Insight(id string) *CrossAgentInsight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insights[id]
}

// Pattern returns the pattern with the given ID, or nil when absent.
func (s *Service) Pattern(id string) *UnifiedPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patterns[id]
}

// Stats returns counts of the current graph contents.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Nodes:     len(s.nodes),
		Insights:  len(s.insights),
		Patterns:  len(s.patterns),
		Evictions: s.evictions,
	}
}

// Close flushes all in-memory entities to the store one final time.
// Flush failures are logged, not returned; Close itself never fails.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	for _, node := range s.nodes {
		s.saveNode(ctx, node)
	}
	for _, ins := range s.insights {
		s.saveInsight(ctx, ins)
	}
	for _, p := range s.patterns {
		s.savePattern(ctx, p)
	}
	return nil
}

func (s *Service) saveNode(ctx context.Context, node *KnowledgeNode) {
	if s.store == nil {
		return
	}
	if err := s.store.UpsertNode(ctx, nodeToRecord(node)); err != nil {
		s.logger.Warn("graph: node save failed", zap.String("node_id", node.ID), zap.Error(err))
	}
}

func (s *Service) saveInsight(ctx context.Context, ins *CrossAgentInsight) {
	if s.store == nil {
		return
	}
	if err := s.store.UpsertInsight(ctx, insightToRecord(ins)); err != nil {
		s.logger.Warn("graph: insight save failed", zap.String("insight_id", ins.ID), zap.Error(err))
	}
}

func (s *Service) savePattern(ctx context.Context, p *UnifiedPattern) {
	if s.store == nil {
		return
	}
	if err := s.store.UpsertPattern(ctx, patternToRecord(p)); err != nil {
		s.logger.Warn("graph: pattern save failed", zap.String("pattern_id", p.ID), zap.Error(err))
	}
}

// contextTime extracts a timestamp from an interaction context map.
// Accepts time.Time values and RFC 3339 strings under the "timestamp" key.
func contextTime(interactionContext map[string]interface{}) (time.Time, bool) {
	raw, ok := interactionContext["timestamp"]
	if !ok {
		return time.Time{}, false
	}
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func matchesAny(content string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(content, m) {
			return true
		}
	}
	return false
}
