package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voicemind/voicemind-go/pkg/classifier"
	"github.com/voicemind/voicemind-go/pkg/classifier/fallback"
	openaiclassifier "github.com/voicemind/voicemind-go/pkg/classifier/openai"
	"github.com/voicemind/voicemind-go/pkg/graph"
	"github.com/voicemind/voicemind-go/pkg/storage"
	"github.com/voicemind/voicemind-go/pkg/storage/mysql"
	"github.com/voicemind/voicemind-go/pkg/storage/postgres"
	"github.com/voicemind/voicemind-go/pkg/storage/sqlite"
	"github.com/voicemind/voicemind-go/pkg/tom"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is the VoiceMind pipeline client.
//
// One Client owns the shared knowledge graph, the storage backend, the
// classifier, and one Theory-of-Mind tracker per user. Processing is
// single-threaded per invocation: one transcript runs start-to-finish
// through classification, state update, and graph update.
type Client struct {
	config *Config

	classifier classifier.Classifier
	deep       classifier.DeepAnalyzer

	store    storage.Store
	graph    *graph.Service
	trackers map[string]*tom.Tracker

	logger *zap.Logger
}

// NewClient creates a new VoiceMind client from the configuration.
//
// The classifier is selected once at construction: the "openai" provider is
// wrapped with the deterministic fallback so classification never fails,
// and the "fallback" provider skips the remote call entirely. The knowledge
// graph is hydrated from storage; a load failure degrades to an empty graph
// rather than failing construction.
//
// Parameters:
//   - config: Client configuration (see Config)
//   - opts: Optional configuration
//
// Returns:
//   - *Client: The client instance
//   - error: Error if the configuration is invalid or the storage backend
//     cannot be reached
//
// Example:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, err := core.NewClient(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func NewClient(config *Config, opts ...ClientOption) (*Client, error) {
	if config == nil {
		return nil, NewPipelineError("NewClient", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config:   config,
		trackers: make(map[string]*tom.Tracker),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	store, err := newStore(&config.Storage)
	if err != nil {
		return nil, NewPipelineError("NewClient", err)
	}
	c.store = store

	cls, deep, err := c.newClassifier(&config.Classifier)
	if err != nil {
		store.Close()
		return nil, NewPipelineError("NewClient", err)
	}
	c.classifier = cls
	c.deep = deep

	c.graph = graph.Open(context.Background(), store,
		graph.WithLogger(c.logger),
		graph.WithMaxNodes(config.Graph.MaxNodes),
	)

	return c, nil
}

// newStore creates the storage backend for the configured provider.
// Backend construction failures are surfaced as ErrConnectionFailed.
func newStore(cfg *StorageConfig) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)
	switch cfg.Provider {
	case "sqlite":
		store, err = sqlite.NewClient(&sqlite.Config{
			DBPath: strSetting(cfg.Config, "db_path"),
		})
	case "postgres":
		store, err = postgres.NewClient(&postgres.Config{
			Host:     strSetting(cfg.Config, "host"),
			Port:     intSetting(cfg.Config, "port"),
			User:     strSetting(cfg.Config, "user"),
			Password: strSetting(cfg.Config, "password"),
			DBName:   strSetting(cfg.Config, "db_name"),
			SSLMode:  strSetting(cfg.Config, "ssl_mode"),
		})
	case "mysql":
		store, err = mysql.NewClient(&mysql.Config{
			Host:     strSetting(cfg.Config, "host"),
			Port:     intSetting(cfg.Config, "port"),
			User:     strSetting(cfg.Config, "user"),
			Password: strSetting(cfg.Config, "password"),
			DBName:   strSetting(cfg.Config, "db_name"),
		})
	default:
		return nil, ErrInvalidConfig
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return store, nil
}

// newClassifier creates the classifier for the configured provider.
// The deep analyzer is only available with the remote provider.
func (c *Client) newClassifier(cfg *ClassifierConfig) (classifier.Classifier, classifier.DeepAnalyzer, error) {
	local := fallback.New()

	if cfg.Provider == "fallback" {
		return local, nil, nil
	}

	remote, err := openaiclassifier.NewClient(&openaiclassifier.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return classifier.WithFallback(remote, local, c.logger), remote, nil
}

// Process runs one transcript through the pipeline: classification, user
// model update, and knowledge graph update.
//
// A degraded run still returns a complete result: classification falls back
// to the deterministic local path, and persistence failures are logged
// without failing the call.
//
// Parameters:
//   - ctx: Context for the classifier call and persistence
//   - transcript: Raw transcript text (empty input yields a neutral result)
//   - opts: Optional configuration (user ID, source agent, timestamp, ...)
//
// Returns:
//   - *ProcessResult: The complete processing result
//   - error: Error only when classification fails with no fallback path
//
// Example:
//
//	result, err := client.Process(ctx, "Worked late on the launch again",
//	    core.WithUserID("user_001"),
//	    core.WithSourceAgent("ExecutiveAssistant"),
//	)
func (c *Client) Process(ctx context.Context, transcript string, opts ...ProcessOption) (*ProcessResult, error) {
	options := applyProcessOptions(opts)

	ts := options.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	result, err := c.classifier.Classify(ctx, transcript, options.Context)
	if err != nil {
		return nil, NewPipelineError("Process", fmt.Errorf("%w: %v", ErrClassificationFailed, err))
	}

	tracker := c.trackerFor(ctx, options.UserID)
	interaction := tracker.ProcessInteraction(ctx, transcript, result, ts)

	c.updateGraph(ctx, transcript, result, options, ts)

	return &ProcessResult{
		RunID:              uuid.NewString(),
		UserID:             options.UserID,
		Category:           options.Category,
		Classification:     result,
		State:              interaction.State,
		Anomalies:          interaction.Anomalies,
		Predictions:        interaction.Predictions,
		Recommendations:    interaction.Recommendations,
		PatternInsights:    interaction.PatternInsights,
		EmpatheticResponse: interaction.Analysis.EmpatheticResponse,
		ProcessedAt:        time.Now(),
	}, nil
}

// updateGraph feeds the classified interaction into the shared knowledge
// graph: the transcript as a concept node, plus one node per extracted
// theme and entity.
func (c *Client) updateGraph(ctx context.Context, transcript string, result *classifier.Result, options *ProcessOptions, ts time.Time) {
	graphContext := map[string]interface{}{
		"timestamp": ts,
		"user_id":   options.UserID,
	}

	if transcript != "" {
		c.graph.AddKnowledge(ctx, transcript, graph.NodeConcept, options.SourceAgent, graphContext)
	}
	for _, theme := range result.Themes {
		c.graph.AddKnowledge(ctx, theme, graph.NodeConcept, options.SourceAgent, graphContext)
	}
	for _, ent := range result.Entities {
		c.graph.AddKnowledge(ctx, ent.Name, graph.NodeEntity, options.SourceAgent, graphContext)
	}
}

// trackerFor returns the Theory-of-Mind tracker for a user, creating and
// hydrating it on first use.
func (c *Client) trackerFor(ctx context.Context, userID string) *tom.Tracker {
	if tracker, ok := c.trackers[userID]; ok {
		return tracker
	}

	trackerOpts := []tom.Option{tom.WithLogger(c.logger)}
	if c.deep != nil {
		trackerOpts = append(trackerOpts, tom.WithDeepAnalyzer(c.deep))
	}
	tracker := tom.NewTracker(ctx, userID, c.store, trackerOpts...)
	c.trackers[userID] = tracker
	return tracker
}

// QueryKnowledge runs a read query against the shared knowledge graph.
//
// See graph.Service.Query for the supported query types.
func (c *Client) QueryKnowledge(queryType string, params map[string]interface{}, requestingAgent string) *graph.QueryResponse {
	return c.graph.Query(queryType, params, requestingAgent)
}

// UserState returns the live state summary for a user, hydrating the
// tracker from storage if needed.
func (c *Client) UserState(ctx context.Context, userID string) *tom.UserState {
	return c.trackerFor(ctx, userID).State()
}

// GraphStats returns counts of the current knowledge graph contents.
func (c *Client) GraphStats() graph.Stats {
	return c.graph.Stats()
}

// Close flushes and closes the trackers, the graph, the classifier, and the
// storage backend. A storage close failure is surfaced as
// ErrStorageOperation.
func (c *Client) Close() error {
	for _, tracker := range c.trackers {
		_ = tracker.Close()
	}
	_ = c.graph.Close()
	_ = c.classifier.Close()
	if err := c.store.Close(); err != nil {
		return NewPipelineError("Close", fmt.Errorf("%w: %v", ErrStorageOperation, err))
	}
	return nil
}
