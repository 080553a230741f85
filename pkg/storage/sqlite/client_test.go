package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicemind/voicemind-go/pkg/storage"
)

func newTestStore(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(&Config{DBPath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNodeUpsertRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)

	node := &storage.Node{
		ID:             "concept_abc123",
		NodeType:       "concept",
		Content:        "quarterly planning",
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    3,
		Importance:     0.52,
		Confidence:     0.5,
		Connections:    map[string]float64{"concept_def456": 0.75},
		SourceAgents:   []string{"ExecutiveAssistant"},
	}
	require.NoError(t, store.UpsertNode(ctx, node))

	// Upsert again with updated mutable fields.
	node.AccessCount = 4
	node.Connections["concept_xyz789"] = 0.3
	require.NoError(t, store.UpsertNode(ctx, node))

	nodes, err := store.LoadNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1, "upsert by ID must not duplicate")

	got := nodes[0]
	assert.Equal(t, node.ID, got.ID)
	assert.Equal(t, 4, got.AccessCount)
	assert.Equal(t, now, got.CreatedAt)
	assert.Equal(t, 0.75, got.Connections["concept_def456"])
	assert.Equal(t, 0.3, got.Connections["concept_xyz789"])
	assert.Equal(t, []string{"ExecutiveAssistant"}, got.SourceAgents)
}

func TestInsightAndPatternRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	insight := &storage.Insight{
		ID:                 "work_life_balance_concern",
		InsightType:        "behavioral",
		Description:        "Work pressure is correlating with elevated stress",
		ContributingAgents: []string{"ExecutiveAssistant", "SpiritualAdvisor"},
		Confidence:         0.4,
		FirstObserved:      now,
		LastObserved:       now,
		ObservationCount:   2,
		AffectedAreas:      []string{"work", "wellbeing"},
		Actionability:      0.8,
	}
	require.NoError(t, store.UpsertInsight(ctx, insight))

	pattern := &storage.Pattern{
		ID:           "temporal_9_concept",
		Name:         "concept activity around 09:00",
		PatternType:  "cyclical",
		Occurrences:  4,
		Strength:     0.4,
		LastObserved: now,
	}
	require.NoError(t, store.UpsertPattern(ctx, pattern))

	insights, err := store.LoadInsights(ctx)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, 2, insights[0].ObservationCount)
	assert.Equal(t, insight.ContributingAgents, insights[0].ContributingAgents)

	patterns, err := store.LoadPatterns(ctx)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, 0.4, patterns[0].Strength)
}

func TestUserStateRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	absent, err := store.LoadUserState(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, absent, "missing record loads as nil, not an error")

	require.NoError(t, store.SaveUserState(ctx, &storage.UserState{
		UserID:  "user-1",
		Payload: []byte(`{"total_interactions":3}`),
	}))
	require.NoError(t, store.SaveUserState(ctx, &storage.UserState{
		UserID:  "user-1",
		Payload: []byte(`{"total_interactions":4}`),
	}))

	got, err := store.LoadUserState(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"total_interactions":4}`, string(got.Payload))
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestDeleteNode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertNode(ctx, &storage.Node{
		ID: "concept_gone", NodeType: "concept", Content: "ephemeral",
		CreatedAt: time.Now(), LastAccessedAt: time.Now(),
	}))
	require.NoError(t, store.DeleteNode(ctx, "concept_gone"))
	require.NoError(t, store.DeleteNode(ctx, "concept_missing"), "deleting a missing node is not an error")

	nodes, err := store.LoadNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}
