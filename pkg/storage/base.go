// Package storage provides interfaces and record types for the persistence
// backends.
//
// It defines the GraphStore and StateStore interfaces that all storage
// implementations must satisfy. Records mirror the domain types to avoid
// circular dependencies with the graph and tracker packages, and every
// record is round-trippable to a flat key-value representation with
// ISO-8601 (RFC 3339) timestamps.
//
// Persistence is incremental: mutations are upserted per entity ID rather
// than rewriting whole collections, so concurrent invocations racing on the
// same store can only lose updates at single-entity granularity.
package storage

import (
	"context"
	"time"
)

// Node mirrors a knowledge graph node for persistence.
type Node struct {
	// ID is the deterministic node identifier.
	ID string

	// NodeType is the node type string (concept, entity, pattern, insight).
	NodeType string

	// Content is the textual content.
	Content string

	// CreatedAt is when the node was created.
	CreatedAt time.Time

	// LastAccessedAt is when the node was last referenced.
	LastAccessedAt time.Time

	// AccessCount is the reference count.
	AccessCount int

	// Importance is the importance score (0.0-1.0).
	Importance float64

	// Confidence is the confidence score (0.0-1.0).
	Confidence float64

	// Connections maps connected node ID to edge strength.
	Connections map[string]float64

	// SourceAgents lists contributing agents.
	SourceAgents []string

	// SourceContexts holds serialized source contexts.
	SourceContexts []string

	// Evolution holds serialized evolution history entries.
	Evolution []string
}

// Insight mirrors a cross-agent insight for persistence.
type Insight struct {
	// ID is the stable insight identifier.
	ID string

	// InsightType is the insight type string.
	InsightType string

	// Description is the human-readable description.
	Description string

	// SupportingPatterns lists supporting pattern IDs.
	SupportingPatterns []string

	// ContributingAgents lists contributing agent names.
	ContributingAgents []string

	// Confidence is the corroboration-derived confidence (0.0-1.0).
	Confidence float64

	// FirstObserved is when the insight was first detected.
	FirstObserved time.Time

	// LastObserved is when the insight was last corroborated.
	LastObserved time.Time

	// ObservationCount is the corroboration count.
	ObservationCount int

	// AffectedAreas lists affected life areas.
	AffectedAreas []string

	// Actionability is the actionability score (0.0-1.0).
	Actionability float64

	// Recommendations lists recommendation strings.
	Recommendations []string
}

// Pattern mirrors a unified pattern for persistence.
type Pattern struct {
	// ID is the stable pattern identifier.
	ID string

	// Name is the human-readable name.
	Name string

	// PatternType is the pattern type string.
	PatternType string

	// TriggerConditions lists trigger conditions.
	TriggerConditions []string

	// Manifestations maps agent name to observed manifestations.
	Manifestations map[string][]string

	// Occurrences is the observation count.
	Occurrences int

	// Strength is min(1, Occurrences/10).
	Strength float64

	// LastObserved is when the pattern was last reinforced.
	LastObserved time.Time

	// RelevantAgents lists relevant agent names.
	RelevantAgents []string

	// CrossRefs maps agent name to related record IDs.
	CrossRefs map[string][]string

	// PredictionHits counts correct predictions.
	PredictionHits int

	// PredictionMisses counts incorrect predictions.
	PredictionMisses int
}

// UserState is the persisted per-user record: the serialized user state,
// behavioral patterns, and relationship map, keyed by user ID.
type UserState struct {
	// UserID identifies the user.
	UserID string

	// Payload is the serialized state document (JSON).
	Payload []byte

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time
}

// GraphStore defines the interface for knowledge graph persistence.
//
// All storage implementations (SQLite, PostgreSQL, MySQL) must implement
// this interface. Load operations return complete collections for startup
// hydration; write operations are per-entity upserts.
type GraphStore interface {
	// LoadNodes loads all persisted nodes.
	LoadNodes(ctx context.Context) ([]*Node, error)

	// UpsertNode inserts or updates one node by ID.
	UpsertNode(ctx context.Context, node *Node) error

	// DeleteNode removes one node by ID. Deleting a missing node is not
	// an error.
	DeleteNode(ctx context.Context, id string) error

	// LoadInsights loads all persisted insights.
	LoadInsights(ctx context.Context) ([]*Insight, error)

	// UpsertInsight inserts or updates one insight by ID.
	UpsertInsight(ctx context.Context, insight *Insight) error

	// LoadPatterns loads all persisted patterns.
	LoadPatterns(ctx context.Context) ([]*Pattern, error)

	// UpsertPattern inserts or updates one pattern by ID.
	UpsertPattern(ctx context.Context, pattern *Pattern) error

	// Close closes the store and releases resources.
	Close() error
}

// StateStore defines the interface for per-user state persistence.
type StateStore interface {
	// LoadUserState loads the state record for a user.
	// Returns (nil, nil) when no record exists.
	LoadUserState(ctx context.Context, userID string) (*UserState, error)

	// SaveUserState inserts or updates the state record for a user.
	SaveUserState(ctx context.Context, state *UserState) error

	// Close closes the store and releases resources.
	Close() error
}

// Store combines graph and user-state persistence; the SQL backends
// implement both over one database handle.
type Store interface {
	GraphStore
	StateStore
}
