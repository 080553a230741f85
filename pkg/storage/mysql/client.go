// Package mysql provides the MySQL persistence backend.
//
// The schema mirrors the SQLite and PostgreSQL backends: collection-valued
// fields as JSON text and timestamps as ISO-8601 strings, so records stay
// portable across stores.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/voicemind/voicemind-go/pkg/storage"
)

// Client implements storage.Store using MySQL as the backend.
type Client struct {
	// db is the MySQL database connection pool.
	db *sql.DB
}

// Config contains configuration for creating a MySQL store.
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
}

// NewClient creates a new MySQL store client.
//
// Parameters:
//   - cfg: Configuration containing connection parameters
//
// Returns:
//   - *Client: The MySQL client instance
//   - error: Error if connection or schema creation fails
func NewClient(cfg *Config) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=false",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
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
			id VARCHAR(128) PRIMARY KEY,
			node_type VARCHAR(32) NOT NULL,
			content TEXT NOT NULL,
			created_at VARCHAR(64) NOT NULL,
			last_accessed_at VARCHAR(64) NOT NULL,
			access_count INT DEFAULT 0,
			importance DOUBLE DEFAULT 0,
			confidence DOUBLE DEFAULT 0,
			connections TEXT,
			source_agents TEXT,
			source_contexts TEXT,
			evolution TEXT,
			INDEX idx_nodes_type (node_type)
		)`,
		`CREATE TABLE IF NOT EXISTS insights (
			id VARCHAR(128) PRIMARY KEY,
			insight_type VARCHAR(32) NOT NULL,
			description TEXT,
			supporting_patterns TEXT,
			contributing_agents TEXT,
			confidence DOUBLE DEFAULT 0,
			first_observed VARCHAR(64),
			last_observed VARCHAR(64),
			observation_count INT DEFAULT 0,
			affected_areas TEXT,
			actionability DOUBLE DEFAULT 0,
			recommendations TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS patterns (
			id VARCHAR(128) PRIMARY KEY,
			name VARCHAR(255),
			pattern_type VARCHAR(32) NOT NULL,
			trigger_conditions TEXT,
			manifestations TEXT,
			occurrences INT DEFAULT 0,
			strength DOUBLE DEFAULT 0,
			last_observed VARCHAR(64),
			relevant_agents TEXT,
			cross_refs TEXT,
			prediction_hits INT DEFAULT 0,
			prediction_misses INT DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_states (
			user_id VARCHAR(128) PRIMARY KEY,
			payload MEDIUMTEXT NOT NULL,
			updated_at VARCHAR(64) NOT NULL
		)`,
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			last_accessed_at = VALUES(last_accessed_at),
			access_count = VALUES(access_count),
			importance = VALUES(importance),
			confidence = VALUES(confidence),
			connections = VALUES(connections),
			source_agents = VALUES(source_agents),
			source_contexts = VALUES(source_contexts),
			evolution = VALUES(evolution)`,
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
	if _, err := c.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			description = VALUES(description),
			supporting_patterns = VALUES(supporting_patterns),
			contributing_agents = VALUES(contributing_agents),
			confidence = VALUES(confidence),
			last_observed = VALUES(last_observed),
			observation_count = VALUES(observation_count),
			affected_areas = VALUES(affected_areas),
			actionability = VALUES(actionability),
			recommendations = VALUES(recommendations)`,
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			trigger_conditions = VALUES(trigger_conditions),
			manifestations = VALUES(manifestations),
			occurrences = VALUES(occurrences),
			strength = VALUES(strength),
			last_observed = VALUES(last_observed),
			relevant_agents = VALUES(relevant_agents),
			cross_refs = VALUES(cross_refs),
			prediction_hits = VALUES(prediction_hits),
			prediction_misses = VALUES(prediction_misses)`,
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
		`SELECT user_id, payload, updated_at FROM user_states WHERE user_id = ?`,
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
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			payload = VALUES(payload),
			updated_at = VALUES(updated_at)`,
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
