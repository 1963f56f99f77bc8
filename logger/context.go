package logger

import (
	"context"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

// Context keys for common logging fields. Values stored under these keys
// are automatically extracted and added to log entries.
const (
	// ContextKeyRequestID identifies the individual synthesis request.
	ContextKeyRequestID contextKey = "request_id"

	// ContextKeyProvider identifies the TTS provider handling the attempt.
	ContextKeyProvider contextKey = "provider"

	// ContextKeyAgentName identifies the calling agent.
	ContextKeyAgentName contextKey = "agent"

	// ContextKeyAgentInstanceID identifies the calling agent instance.
	ContextKeyAgentInstanceID contextKey = "agent_instance"

	// ContextKeyEnvironment identifies the deployment environment.
	ContextKeyEnvironment contextKey = "environment"
)

// allContextKeys lists all context keys the handler extracts for logging.
var allContextKeys = []contextKey{
	ContextKeyRequestID,
	ContextKeyProvider,
	ContextKeyAgentName,
	ContextKeyAgentInstanceID,
	ContextKeyEnvironment,
}

// WithRequestID returns a context carrying the synthesis request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// WithProvider returns a context carrying the provider name.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ContextKeyProvider, provider)
}

// WithAgent returns a context carrying the agent diagnostic tags. Empty
// values are not stored.
func WithAgent(ctx context.Context, name, instanceID string) context.Context {
	if name != "" {
		ctx = context.WithValue(ctx, ContextKeyAgentName, name)
	}
	if instanceID != "" {
		ctx = context.WithValue(ctx, ContextKeyAgentInstanceID, instanceID)
	}
	return ctx
}
