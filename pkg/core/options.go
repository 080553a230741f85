package core

import "time"

// ProcessOption is a function type for configuring Process operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type ProcessOption func(*ProcessOptions)

// ProcessOptions contains configuration options for Process operations.
type ProcessOptions struct {
	// UserID identifies the user whose model this interaction updates.
	UserID string

	// SourceAgent is the agent attributed with the resulting knowledge.
	SourceAgent string

	// Timestamp is when the interaction occurred. Zero means now.
	Timestamp time.Time

	// Context is a free-form map supplied by the host to bias
	// classification (recent activity summary, known themes, ...).
	Context map[string]interface{}

	// Category is an optional category tag from the delivery envelope,
	// passed through to the output document.
	Category string
}

// WithUserID sets the user ID for Process operations.
//
// Example:
//
//	result, _ := client.Process(ctx, transcript, core.WithUserID("user_001"))
func WithUserID(userID string) ProcessOption {
	return func(opts *ProcessOptions) {
		opts.UserID = userID
	}
}

// WithSourceAgent sets the source agent for Process operations.
//
// Example:
//
//	result, _ := client.Process(ctx, transcript,
//	    core.WithSourceAgent("ExecutiveAssistant"))
func WithSourceAgent(agent string) ProcessOption {
	return func(opts *ProcessOptions) {
		opts.SourceAgent = agent
	}
}

// WithTimestamp sets the interaction timestamp for Process operations.
//
// Example:
//
//	result, _ := client.Process(ctx, transcript, core.WithTimestamp(recordedAt))
func WithTimestamp(ts time.Time) ProcessOption {
	return func(opts *ProcessOptions) {
		opts.Timestamp = ts
	}
}

// WithContext sets the prior user context for Process operations.
//
// Example:
//
//	result, _ := client.Process(ctx, transcript,
//	    core.WithContext(map[string]interface{}{"recent_theme": "work"}),
//	)
func WithContext(context map[string]interface{}) ProcessOption {
	return func(opts *ProcessOptions) {
		opts.Context = context
	}
}

// WithCategory sets the delivery-envelope category tag for Process
// operations.
//
// Example:
//
//	result, _ := client.Process(ctx, transcript, core.WithCategory("work"))
func WithCategory(category string) ProcessOption {
	return func(opts *ProcessOptions) {
		opts.Category = category
	}
}

// applyProcessOptions applies Process options to create ProcessOptions.
func applyProcessOptions(opts []ProcessOption) *ProcessOptions {
	options := &ProcessOptions{
		UserID:      "default",
		SourceAgent: "VoiceMind",
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
