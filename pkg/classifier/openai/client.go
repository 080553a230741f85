// Package openai provides an OpenAI-backed classifier.
//
// It implements the classifier.Classifier and classifier.DeepAnalyzer
// interfaces using chat completions. Any OpenAI-compatible endpoint (Qwen,
// DeepSeek, Ollama) can be used by setting BaseURL.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/voicemind/voicemind-go/pkg/classifier"
)

// systemPrompt instructs the model to emit the classification schema.
const systemPrompt = `You are a voice-memo classifier. Classify the transcript and respond with JSON only:
{"intent": "documentation|reflection|ideation|planning|venting|celebration|problem_solving|question",
"content_types": ["..."],
"tone": "excited|frustrated|neutral|anxious|contemplative|joyful|somber|urgent",
"complexity": "simple|moderate|complex|layered",
"temporal_focus": "past|present|future|mixed",
"confidence": {"intent": 0.0, "tone": 0.0, "complexity": 0.0, "temporal_focus": 0.0},
"entities": [{"name": "...", "type": "person|place|project|concept"}],
"themes": ["..."],
"suggested_actions": ["..."],
"primary_target": "work_journal|memory_archive|idea_vault",
"secondary_targets": ["..."],
"processing_strategy": "standard|deep_analysis",
"user_state_indicators": {"stress_level": 0.0, "energy_level": 0.5},
"anomaly_flags": ["..."]}`

// Client is an OpenAI-backed classifier.
// It implements the classifier.Classifier interface and classifies
// transcripts via the chat completion API.
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config is the configuration for the OpenAI classifier.
// APIKey: API key (required)
// Model: Model name to use, defaults to "gpt-4o-mini"
// BaseURL: API base URL for OpenAI-compatible endpoints (optional)
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  *zap.Logger
}

// NewClient creates a new OpenAI classifier client.
//
// Args:
//   - cfg: Configuration containing APIKey, Model, and BaseURL
//
// Returns:
//   - *Client: Classifier client instance
//   - error: Returns an error if the configuration is invalid
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai classifier: api key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}, nil
}

// Classify classifies a transcript via the chat completion API.
//
// The response is parsed at a strict boundary: unexpected enum values are
// mapped to safe defaults (with the substitution logged once per call) and
// missing collections become empty ones, so the caller always receives a
// fully populated result. A transport or parse failure returns an error;
// wrap with classifier.WithFallback for the never-fails contract.
func (c *Client) Classify(ctx context.Context, transcript string, userContext map[string]interface{}) (*classifier.Result, error) {
	userPrompt := "Transcript:\n" + transcript
	if len(userContext) > 0 {
		if ctxJSON, err := json.Marshal(userContext); err == nil {
			userPrompt += "\n\nPrior user context:\n" + string(ctxJSON)
		}
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.2,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("classification failed: no choices returned")
	}

	return c.parseResponse(resp.Choices[0].Message.Content)
}

// PredictNeeds implements classifier.DeepAnalyzer: it predicts likely next
// actions from a compact user-state summary.
func (c *Client) PredictNeeds(ctx context.Context, stateSummary string) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: `Given a user state summary, predict up to 3 likely next actions or needs. Respond with JSON only: {"predictions": ["..."]}`,
			},
			{Role: openai.ChatMessageRoleUser, Content: stateSummary},
		},
		Temperature: 0.3,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("prediction failed: no choices returned")
	}

	var parsed struct {
		Predictions []string `json:"predictions"`
	}
	if err := json.Unmarshal([]byte(extractJSON(resp.Choices[0].Message.Content)), &parsed); err != nil {
		return nil, err
	}
	return parsed.Predictions, nil
}

// Close closes the client connection.
// The OpenAI SDK client does not require explicit closing; this method is
// retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}

// rawResult mirrors the model's JSON response with string-typed enums so
// parsing can substitute defaults instead of failing.
type rawResult struct {
	Intent              string              `json:"intent"`
	ContentTypes        []string            `json:"content_types"`
	Tone                string              `json:"tone"`
	Complexity          string              `json:"complexity"`
	TemporalFocus       string              `json:"temporal_focus"`
	Confidence          map[string]float64  `json:"confidence"`
	Entities            []rawEntity         `json:"entities"`
	Themes              []string            `json:"themes"`
	SuggestedActions    []string            `json:"suggested_actions"`
	PrimaryTarget       string              `json:"primary_target"`
	SecondaryTargets    []string            `json:"secondary_targets"`
	ProcessingStrategy  string              `json:"processing_strategy"`
	UserStateIndicators map[string]float64  `json:"user_state_indicators"`
	AnomalyFlags        []string            `json:"anomaly_flags"`
}

type rawEntity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// parseResponse converts the model output into a complete Result.
func (c *Client) parseResponse(content string) (*classifier.Result, error) {
	var raw rawResult
	if err := json.Unmarshal([]byte(extractJSON(content)), &raw); err != nil {
		return nil, err
	}

	// Track enum substitutions so degraded model output is logged once
	// per invocation rather than per field.
	var substituted []string

	intent, ok := classifier.ParseIntent(raw.Intent)
	if !ok {
		substituted = append(substituted, "intent")
	}
	tone, ok := classifier.ParseTone(raw.Tone)
	if !ok {
		substituted = append(substituted, "tone")
	}
	complexity, ok := classifier.ParseComplexity(raw.Complexity)
	if !ok {
		substituted = append(substituted, "complexity")
	}
	focus, ok := classifier.ParseTemporalFocus(raw.TemporalFocus)
	if !ok {
		substituted = append(substituted, "temporal_focus")
	}

	entities := make([]classifier.Entity, 0, len(raw.Entities))
	for _, e := range raw.Entities {
		if e.Name == "" {
			continue
		}
		entityType, _ := classifier.ParseEntityType(e.Type)
		entities = append(entities, classifier.Entity{Name: e.Name, Type: entityType})
	}

	if len(substituted) > 0 {
		c.logger.Warn("classifier returned unrecognized enum values, substituted defaults",
			zap.Strings("dimensions", substituted))
	}

	result := &classifier.Result{
		Intent:              intent,
		ContentTypes:        orDefault(raw.ContentTypes, []string{"personal_note"}),
		Tone:                tone,
		Complexity:          complexity,
		TemporalFocus:       focus,
		Confidence:          raw.Confidence,
		Entities:            entities,
		Themes:              orDefault(raw.Themes, []string{"general"}),
		SuggestedActions:    orDefault(raw.SuggestedActions, []string{}),
		PrimaryTarget:       raw.PrimaryTarget,
		SecondaryTargets:    orDefault(raw.SecondaryTargets, []string{}),
		ProcessingStrategy:  raw.ProcessingStrategy,
		UserStateIndicators: raw.UserStateIndicators,
		AnomalyFlags:        orDefault(raw.AnomalyFlags, []string{}),
		ClassifiedAt:        time.Now(),
	}

	if result.Confidence == nil {
		result.Confidence = map[string]float64{}
	}
	if result.UserStateIndicators == nil {
		result.UserStateIndicators = map[string]float64{}
	}
	if result.PrimaryTarget == "" {
		result.PrimaryTarget = classifier.TargetMemoryArchive
	}
	if result.ProcessingStrategy == "" {
		result.ProcessingStrategy = "standard"
	}

	var total float64
	for _, v := range result.Confidence {
		total += v
	}
	if len(result.Confidence) > 0 {
		result.OverallConfidence = total / float64(len(result.Confidence))
	} else {
		result.OverallConfidence = 0.5
	}

	return result, nil
}

// extractJSON pulls the first JSON object out of a response that may be
// wrapped in prose or code fences.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// orDefault substitutes a default slice for a nil one.
func orDefault(s, def []string) []string {
	if s == nil {
		return def
	}
	return s
}
