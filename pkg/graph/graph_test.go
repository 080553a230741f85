package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicemind/voicemind-go/pkg/storage"
)

func TestNodeIDDeterministic(t *testing.T) {
	a := NodeID("morning standup notes", NodeConcept)
	b := NodeID("morning standup notes", NodeConcept)
	c := NodeID("morning standup notes", NodeEntity)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "different types must produce different IDs")
}

func TestAddKnowledgeIdempotentResubmission(t *testing.T) {
	svc := Open(context.Background(), nil)

	first := svc.AddKnowledge(context.Background(), "Today I worked overtime on the deadline", NodeConcept, AgentExecutiveAssistant, nil)
	second := svc.AddKnowledge(context.Background(), "Today I worked overtime on the deadline", NodeConcept, AgentExecutiveAssistant, nil)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.AccessCount)
	assert.Equal(t, 1, svc.Stats().Nodes, "re-submission must not create a duplicate node")
	assert.Equal(t, []string{AgentExecutiveAssistant}, second.SourceAgents, "source agents are deduplicated")
}

func TestImportanceNeverDecreasesUnderAccess(t *testing.T) {
	svc := Open(context.Background(), nil)

	node := svc.AddKnowledge(context.Background(), "quarterly budget review", NodeConcept, AgentExecutiveAssistant, nil)
	prev := node.Importance

	for i := 0; i < 20; i++ {
		node = svc.AddKnowledge(context.Background(), "quarterly budget review", NodeConcept, AgentExecutiveAssistant, nil)
		assert.GreaterOrEqual(t, node.Importance, prev)
		prev = node.Importance
	}
}

func TestLinkingCreatesSymmetricEdges(t *testing.T) {
	svc := Open(context.Background(), nil)

	a := svc.AddKnowledge(context.Background(), "project alpha planning meeting", NodeConcept, AgentExecutiveAssistant, nil)
	b := svc.AddKnowledge(context.Background(), "project alpha planning review", NodeConcept, AgentExecutiveAssistant, nil)

	weightAB, ok := a.Connections[b.ID]
	require.True(t, ok, "edge a->b missing")
	weightBA, ok := b.Connections[a.ID]
	require.True(t, ok, "edge b->a missing")

	assert.Equal(t, weightAB, weightBA)
	assert.InDelta(t, 0.75, weightAB, 1e-9)
}

func TestLinkingSkipsDissimilarNodes(t *testing.T) {
	svc := Open(context.Background(), nil)

	a := svc.AddKnowledge(context.Background(), "grocery shopping list", NodeConcept, AgentExecutiveAssistant, nil)
	b := svc.AddKnowledge(context.Background(), "kernel scheduler internals", NodeConcept, AgentExecutiveAssistant, nil)

	assert.Empty(t, a.Connections)
	assert.Empty(t, b.Connections)
}

func TestTemporalPatternStrengthBound(t *testing.T) {
	svc := Open(context.Background(), nil)
	ts := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)
	ctx := map[string]interface{}{"timestamp": ts}

	for i := 0; i < 15; i++ {
		svc.AddKnowledge(context.Background(), "daily standup", NodeConcept, AgentExecutiveAssistant, ctx)
	}

	p := svc.Pattern("temporal_9_concept")
	require.NotNil(t, p)
	assert.Equal(t, 15, p.Occurrences)
	assert.Equal(t, 1.0, p.Strength, "strength is capped at 1.0")
	assert.Equal(t, PatternCyclical, p.Type)

	// Below the cap, strength tracks occurrences/10.
	svc2 := Open(context.Background(), nil)
	for i := 0; i < 4; i++ {
		svc2.AddKnowledge(context.Background(), "daily standup", NodeConcept, AgentExecutiveAssistant, ctx)
	}
	p2 := svc2.Pattern("temporal_9_concept")
	require.NotNil(t, p2)
	assert.InDelta(t, 0.4, p2.Strength, 1e-9)
}

func TestWorkLifeBalanceInsightScenario(t *testing.T) {
	svc := Open(context.Background(), nil)

	svc.AddKnowledge(context.Background(), "Today I worked overtime on the deadline", NodeConcept, AgentExecutiveAssistant, nil)
	svc.AddKnowledge(context.Background(), "I feel very stressed and anxious", NodeConcept, AgentSpiritualAdvisor, nil)
	svc.AddKnowledge(context.Background(), "Worked overtime again tonight", NodeConcept, AgentExecutiveAssistant, nil)

	ins := svc.Insight(WorkLifeBalanceInsightID)
	require.NotNil(t, ins, "work/life balance insight should exist after the sequence")
	assert.GreaterOrEqual(t, ins.ObservationCount, 2)
	assert.Equal(t, insightConfidence(ins.ObservationCount), ins.Confidence)
	assert.InDelta(t, float64(ins.ObservationCount)/5.0, ins.Confidence, 1e-9)
	assert.Contains(t, ins.ContributingAgents, AgentExecutiveAssistant)
	assert.Contains(t, ins.ContributingAgents, AgentSpiritualAdvisor)
}

func TestInsightConfidenceMonotonicAndCapped(t *testing.T) {
	svc := Open(context.Background(), nil)

	svc.AddKnowledge(context.Background(), "worked overtime on the deadline", NodeConcept, AgentExecutiveAssistant, nil)

	prev := 0.0
	for i := 0; i < 8; i++ {
		svc.AddKnowledge(context.Background(), "feeling stressed and overwhelmed again today", NodeConcept, AgentSpiritualAdvisor, nil)
		ins := svc.Insight(WorkLifeBalanceInsightID)
		require.NotNil(t, ins)
		assert.GreaterOrEqual(t, ins.Confidence, prev, "confidence never decreases")
		prev = ins.Confidence
	}
	assert.Equal(t, 1.0, prev, "confidence caps at 1.0")
}

func TestQueryRelatedTo(t *testing.T) {
	svc := Open(context.Background(), nil)
	svc.AddKnowledge(context.Background(), "team offsite planning", NodeConcept, AgentExecutiveAssistant, nil)
	svc.AddKnowledge(context.Background(), "vacation photo archive", NodeConcept, AgentExecutiveAssistant, nil)

	resp := svc.Query("related_to", map[string]interface{}{"content": "offsite planning agenda"}, AgentExecutiveAssistant)
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, "team offsite planning", resp.Nodes[0].Content)
}

func TestQueryActivePatterns(t *testing.T) {
	svc := Open(context.Background(), nil)
	ts := time.Now().Add(-1 * time.Hour)
	svc.AddKnowledge(context.Background(), "evening journaling", NodeConcept, AgentSpiritualAdvisor,
		map[string]interface{}{"timestamp": ts})

	resp := svc.Query("active_patterns", nil, AgentSpiritualAdvisor)
	require.Len(t, resp.Patterns, 1)

	// Age the pattern out of the window.
	resp.Patterns[0].LastObserved = time.Now().Add(-8 * 24 * time.Hour)
	resp = svc.Query("active_patterns", nil, AgentSpiritualAdvisor)
	assert.Empty(t, resp.Patterns)
}

func TestQueryRecommendations(t *testing.T) {
	svc := Open(context.Background(), nil)

	// Corroborate the insight 4 times so confidence crosses 0.6.
	svc.AddKnowledge(context.Background(), "worked overtime on the deadline", NodeConcept, AgentExecutiveAssistant, nil)
	for i := 0; i < 4; i++ {
		svc.AddKnowledge(context.Background(), "stressed and overwhelmed by everything lately", NodeConcept, AgentSpiritualAdvisor, nil)
	}
	require.Greater(t, svc.Insight(WorkLifeBalanceInsightID).Confidence, 0.6)

	resp := svc.Query("recommendations", nil, AgentSpiritualAdvisor)
	assert.NotEmpty(t, resp.Recommendations)
	assert.LessOrEqual(t, len(resp.Recommendations), 5)

	// No duplicates.
	seen := make(map[string]struct{})
	for _, rec := range resp.Recommendations {
		_, dup := seen[rec]
		assert.False(t, dup, "recommendation %q duplicated", rec)
		seen[rec] = struct{}{}
	}
}

func TestUnknownQueryTypeReturnsEmptyResponse(t *testing.T) {
	svc := Open(context.Background(), nil)
	resp := svc.Query("time_travel", nil, AgentExecutiveAssistant)
	assert.Empty(t, resp.Nodes)
	assert.Empty(t, resp.Insights)
	assert.Empty(t, resp.Patterns)
	assert.Empty(t, resp.Recommendations)
}

func TestEvictionKeepsGraphBounded(t *testing.T) {
	svc := Open(context.Background(), nil, WithMaxNodes(2))

	svc.AddKnowledge(context.Background(), "first memo", NodeConcept, AgentExecutiveAssistant, nil)
	svc.AddKnowledge(context.Background(), "second memo", NodeConcept, AgentExecutiveAssistant, nil)
	svc.AddKnowledge(context.Background(), "third memo", NodeConcept, AgentExecutiveAssistant, nil)

	stats := svc.Stats()
	assert.Equal(t, 2, stats.Nodes)
	assert.Equal(t, 1, stats.Evictions)
	assert.Nil(t, svc.Node(NodeID("first memo", NodeConcept)), "least-recently-accessed node is evicted")
}

// failingStore errors on every operation, exercising the fail-open path.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) LoadNodes(context.Context) ([]*storage.Node, error)       { return nil, errStoreDown }
func (failingStore) UpsertNode(context.Context, *storage.Node) error          { return errStoreDown }
func (failingStore) DeleteNode(context.Context, string) error                 { return errStoreDown }
func (failingStore) LoadInsights(context.Context) ([]*storage.Insight, error) { return nil, errStoreDown }
func (failingStore) UpsertInsight(context.Context, *storage.Insight) error    { return errStoreDown }
func (failingStore) LoadPatterns(context.Context) ([]*storage.Pattern, error) { return nil, errStoreDown }
func (failingStore) UpsertPattern(context.Context, *storage.Pattern) error    { return errStoreDown }
func (failingStore) Close() error                                             { return nil }

func TestStorageFailuresAreNonFatal(t *testing.T) {
	svc := Open(context.Background(), failingStore{})

	assert.Equal(t, 0, svc.Stats().Nodes, "load failure degrades to an empty graph")

	node := svc.AddKnowledge(context.Background(), "still works without storage", NodeConcept, AgentExecutiveAssistant, nil)
	require.NotNil(t, node)
	assert.Equal(t, 1, svc.Stats().Nodes, "save failure does not roll back the in-memory mutation")
	assert.NoError(t, svc.Close())
}
