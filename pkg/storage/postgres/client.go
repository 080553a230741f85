// Package postgres provides the PostgreSQL persistence backend.
//
// Collection-valued fields are stored as JSON strings in TEXT columns and
// timestamps as ISO-8601 text, matching the layout used by the SQLite and
// MySQL backends so records stay portable across stores.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/voicemind/voicemind-go/pkg/storage"
)

// Client implements storage.Store using PostgreSQL as the backend.
type Client struct {
	// db is the PostgreSQL database connection pool.
	db *sql.DB
}

// Config contains configuration for creating a PostgreSQL store.
type Config struct {
	// Host is the database host.
	Host string

	// Port is the database port.
	Port int

	// User is the database user.
	User string

	// Password is the database password.
	Password string

	// DBName is the database name.
	DBName string

	// SSLMode is the SSL mode (default "disable").
	SSLMode string
}

// NewClient creates a new PostgreSQL store client.
//
// Parameters:
//   - cfg: Configuration containing connection parameters
//
// Returns:
//   - *Client: The PostgreSQL client instance
//   - error: Error if connection or schema creation fails
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	client := &Client{db: db}
	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database schema.
func (c *Client) initTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			node_type TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL,
			last_accessed_at TEXT NOT NULL,
			access_count INTEGER DEFAULT 0,
			importance DOUBLE PRECISION DEFAULT 0,
			confidence DOUBLE PRECISION DEFAULT 0,
			connections TEXT,
			source_agents TEXT,
			source_contexts TEXT,
			evolution TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS insights (
			id TEXT PRIMARY KEY,
			insight_type TEXT NOT NULL,
			description TEXT,
			supporting_patterns TEXT,
			contributing_agents TEXT,
			confidence DOUBLE PRECISION DEFAULT 0,
			first_observed TEXT,
			last_observed TEXT,
			observation_count INTEGER DEFAULT 0,
			affected_areas TEXT,
			actionability DOUBLE PRECISION DEFAULT 0,
			recommendations TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS patterns (
			id TEXT PRIMARY KEY,
			name TEXT,
			pattern_type TEXT NOT NULL,
			trigger_conditions TEXT,
			manifestations TEXT,
			occurrences INTEGER DEFAULT 0,
			strength DOUBLE PRECISION DEFAULT 0,
			last_observed TEXT,
			relevant_agents TEXT,
			cross_refs TEXT,
			prediction_hits INTEGER DEFAULT 0,
			prediction_misses INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_states (
			user_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(node_type)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}
	return nil
}

// LoadNodes loads all persisted nodes.
func (c *Client) LoadNodes(ctx context.Context) ([]*storage.Node, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, node_type, content, created_at, last_accessed_at,
		       access_count, importance, confidence, connections,
		       source_agents, source_contexts, evolution
		FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("LoadNodes: %w", err)
	}
	defer rows.Close()

	var nodes []*storage.Node
	for rows.Next() {
		var n storage.Node
		var createdAt, lastAccessedAt string
		var connections, sourceAgents, sourceContexts, evolution sql.NullString
		if err := rows.Scan(&n.ID, &n.NodeType, &n.Content, &createdAt, &lastAccessedAt,
			&n.AccessCount, &n.Importance, &n.Confidence, &connections,
			&sourceAgents, &sourceContexts, &evolution); err != nil {
			return nil, fmt.Errorf("LoadNodes: %w", err)
		}
		n.CreatedAt = storage.DecodeTime(createdAt)
		n.LastAccessedAt = storage.DecodeTime(lastAccessedAt)
		storage.DecodeJSON(connections.String, &n.Connections)
		storage.DecodeJSON(sourceAgents.String, &n.SourceAgents)
		storage.DecodeJSON(sourceContexts.String, &n.SourceContexts)
		storage.DecodeJSON(evolution.String, &n.Evolution)
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}

// UpsertNode inserts or updates one node by ID.
func (c *Client) UpsertNode(ctx context.Context, node *storage.Node) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO nodes (id, node_type, content, created_at, last_accessed_at,
		                   access_count, importance, confidence, connections,
		                   source_agents, source_contexts, evolution)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			last_accessed_at = EXCLUDED.last_accessed_at,
			access_count = EXCLUDED.access_count,
			importance = EXCLUDED.importance,
			confidence = EXCLUDED.confidence,
			connections = EXCLUDED.connections,
			source_agents = EXCLUDED.source_agents,
			source_contexts = EXCLUDED.source_contexts,
			evolution = EXCLUDED.evolution`,
		node.ID, node.NodeType, node.Content,
		storage.EncodeTime(node.CreatedAt), storage.EncodeTime(node.LastAccessedAt),
		node.AccessCount, node.Importance, node.Confidence,
		storage.EncodeJSON(node.Connections),
		storage.EncodeJSON(node.SourceAgents),
		storage.EncodeJSON(node.SourceContexts),
		storage.EncodeJSON(node.Evolution),
	)
	if err != nil {
		return fmt.Errorf("UpsertNode: %w", err)
	}
	return nil
}

// DeleteNode removes one node by ID.
func (c *Client) DeleteNode(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("DeleteNode: %w", err)
	}
	return nil
}

// LoadInsights loads all persisted insights.
func (c *Client) LoadInsights(ctx context.Context) ([]*storage.Insight, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, insight_type, description, supporting_patterns,
		       contributing_agents, confidence, first_observed, last_observed,
		       observation_count, affected_areas, actionability, recommendations
		FROM insights`)
	if err != nil {
		return nil, fmt.Errorf("LoadInsights: %w", err)
	}
	defer rows.Close()

	var insights []*storage.Insight
	for rows.Next() {
		var ins storage.Insight
		var firstObserved, lastObserved sql.NullString
		var supporting, agents, areas, recommendations sql.NullString
		if err := rows.Scan(&ins.ID, &ins.InsightType, &ins.Description, &supporting,
			&agents, &ins.Confidence, &firstObserved, &lastObserved,
			&ins.ObservationCount, &areas, &ins.Actionability, &recommendations); err != nil {
			return nil, fmt.Errorf("LoadInsights: %w", err)
		}
		ins.FirstObserved = storage.DecodeTime(firstObserved.String)
		ins.LastObserved = storage.DecodeTime(lastObserved.String)
		storage.DecodeJSON(supporting.String, &ins.SupportingPatterns)
		storage.DecodeJSON(agents.String, &ins.ContributingAgents)
		storage.DecodeJSON(areas.String, &ins.AffectedAreas)
		storage.DecodeJSON(recommendations.String, &ins.Recommendations)
		insights = append(insights, &ins)
	}
	return insights, rows.Err()
}

// UpsertInsight inserts or updates one insight by ID.
func (c *Client) UpsertInsight(ctx context.Context, insight *storage.Insight) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO insights (id, insight_type, description, supporting_patterns,
		                      contributing_agents, confidence, first_observed,
		                      last_observed, observation_count, affected_areas,
		                      actionability, recommendations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			supporting_patterns = EXCLUDED.supporting_patterns,
			contributing_agents = EXCLUDED.contributing_agents,
			confidence = EXCLUDED.confidence,
			last_observed = EXCLUDED.last_observed,
			observation_count = EXCLUDED.observation_count,
			affected_areas = EXCLUDED.affected_areas,
			actionability = EXCLUDED.actionability,
			recommendations = EXCLUDED.recommendations`,
		insight.ID, insight.InsightType, insight.Description,
		storage.EncodeJSON(insight.SupportingPatterns),
		storage.EncodeJSON(insight.ContributingAgents),
		insight.Confidence,
		storage.EncodeTime(insight.FirstObserved),
		storage.EncodeTime(insight.LastObserved),
		insight.ObservationCount,
		storage.EncodeJSON(insight.AffectedAreas),
		insight.Actionability,
		storage.EncodeJSON(insight.Recommendations),
	)
	if err != nil {
		return fmt.Errorf("UpsertInsight: %w", err)
	}
	return nil
}

// LoadPatterns loads all persisted patterns.
func (c *Client) LoadPatterns(ctx context.Context) ([]*storage.Pattern, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, pattern_type, trigger_conditions, manifestations,
		       occurrences, strength, last_observed, relevant_agents,
		       cross_refs, prediction_hits, prediction_misses
		FROM patterns`)
	if err != nil {
		return nil, fmt.Errorf("LoadPatterns: %w", err)
	}
	defer rows.Close()

	var patterns []*storage.Pattern
	for rows.Next() {
		var p storage.Pattern
		var lastObserved sql.NullString
		var triggers, manifestations, agents, crossRefs sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.PatternType, &triggers, &manifestations,
			&p.Occurrences, &p.Strength, &lastObserved, &agents,
			&crossRefs, &p.PredictionHits, &p.PredictionMisses); err != nil {
			return nil, fmt.Errorf("LoadPatterns: %w", err)
		}
		p.LastObserved = storage.DecodeTime(lastObserved.String)
		storage.DecodeJSON(triggers.String, &p.TriggerConditions)
		storage.DecodeJSON(manifestations.String, &p.Manifestations)
		storage.DecodeJSON(agents.String, &p.RelevantAgents)
		storage.DecodeJSON(crossRefs.String, &p.CrossRefs)
		patterns = append(patterns, &p)
	}
	return patterns, rows.Err()
}

// UpsertPattern inserts or updates one pattern by ID.
func (c *Client) UpsertPattern(ctx context.Context, pattern *storage.Pattern) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO patterns (id, name, pattern_type, trigger_conditions,
		                      manifestations, occurrences, strength, last_observed,
		                      relevant_agents, cross_refs, prediction_hits,
		                      prediction_misses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			trigger_conditions = EXCLUDED.trigger_conditions,
			manifestations = EXCLUDED.manifestations,
			occurrences = EXCLUDED.occurrences,
			strength = EXCLUDED.strength,
			last_observed = EXCLUDED.last_observed,
			relevant_agents = EXCLUDED.relevant_agents,
			cross_refs = EXCLUDED.cross_refs,
			prediction_hits = EXCLUDED.prediction_hits,
			prediction_misses = EXCLUDED.prediction_misses`,
		pattern.ID, pattern.Name, pattern.PatternType,
		storage.EncodeJSON(pattern.TriggerConditions),
		storage.EncodeJSON(pattern.Manifestations),
		pattern.Occurrences, pattern.Strength,
		storage.EncodeTime(pattern.LastObserved),
		storage.EncodeJSON(pattern.RelevantAgents),
		storage.EncodeJSON(pattern.CrossRefs),
		pattern.PredictionHits, pattern.PredictionMisses,
	)
	if err != nil {
		return fmt.Errorf("UpsertPattern: %w", err)
	}
	return nil
}

// LoadUserState loads the state record for a user. Returns (nil, nil) when
// no record exists.
func (c *Client) LoadUserState(ctx context.Context, userID string) (*storage.UserState, error) {
	var state storage.UserState
	var payload string
	var updatedAt string
	err := c.db.QueryRowContext(ctx,
		`SELECT user_id, payload, updated_at FROM user_states WHERE user_id = $1`,
		userID).Scan(&state.UserID, &payload, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LoadUserState: %w", err)
	}
	state.Payload = []byte(payload)
	state.UpdatedAt = storage.DecodeTime(updatedAt)
	return &state, nil
}

// SaveUserState inserts or updates the state record for a user.
func (c *Client) SaveUserState(ctx context.Context, state *storage.UserState) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO user_states (user_id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		state.UserID, string(state.Payload), storage.EncodeTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("SaveUserState: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}
