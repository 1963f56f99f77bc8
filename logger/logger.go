// Package logger provides structured logging with automatic API key
// redaction.
//
// This package wraps Go's standard log/slog with convenience functions for:
//   - Synthesis attempt logging (provider, outcome, timing)
//   - Circuit breaker and key pool state-change logging
//   - Automatic API key redaction in URLs and messages
//   - Contextual logging with request correlation
//
// All exported functions use the global DefaultLogger which can be
// configured for different output formats and log levels.
package logger

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"
)

// DefaultLogger is the global structured logger instance.
// It is safe for concurrent use and initialized with slog.LevelInfo by default.
var DefaultLogger *slog.Logger

func init() {
	// Check LOG_LEVEL environment variable
	level := slog.LevelInfo
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		switch strings.ToLower(envLevel) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn", "warning":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(NewContextHandler(handler))
}

// SetLevel changes the logging level for all subsequent log operations.
// This is safe for concurrent use as it replaces the entire logger instance.
func SetLevel(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	DefaultLogger = slog.New(NewContextHandler(handler))
}

// SetVerbose enables debug-level logging when verbose is true, otherwise
// sets info-level.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
	} else {
		SetLevel(slog.LevelInfo)
	}
}

// Info logs an informational message with structured key-value attributes.
// Args should be provided in key-value pairs: key1, value1, key2, value2, ...
func Info(msg string, args ...any) {
	DefaultLogger.Info(msg, args...)
}

// InfoContext logs an informational message with context attributes.
func InfoContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.InfoContext(ctx, msg, args...)
}

// Debug logs a debug-level message with structured attributes.
func Debug(msg string, args ...any) {
	DefaultLogger.Debug(msg, args...)
}

// DebugContext logs a debug message with context attributes.
func DebugContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.DebugContext(ctx, msg, args...)
}

// Warn logs a warning message with structured attributes.
// Use for recoverable conditions such as skipped providers.
func Warn(msg string, args ...any) {
	DefaultLogger.Warn(msg, args...)
}

// WarnContext logs a warning message with context attributes.
func WarnContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.WarnContext(ctx, msg, args...)
}

// Error logs an error message with structured attributes.
func Error(msg string, args ...any) {
	DefaultLogger.Error(msg, args...)
}

// ErrorContext logs an error message with context attributes.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	DefaultLogger.ErrorContext(ctx, msg, args...)
}

// SynthesisCall logs the start of a synthesis attempt against a provider.
func SynthesisCall(ctx context.Context, provider string, chars int, voice string, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"chars", chars,
		"voice", voice,
	)
	allAttrs = append(allAttrs, attrs...)
	DebugContext(ctx, "synthesis attempt", allAttrs...)
}

// SynthesisSuccess logs a completed synthesis with its timing.
func SynthesisSuccess(ctx context.Context, provider string, duration time.Duration, attempts int, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"duration", duration,
		"failed_attempts", attempts,
	)
	allAttrs = append(allAttrs, attrs...)
	InfoContext(ctx, "synthesis succeeded", allAttrs...)
}

// SynthesisFailure logs a failed synthesis attempt.
func SynthesisFailure(ctx context.Context, provider, message string, duration time.Duration, attrs ...any) {
	allAttrs := make([]any, 0, 6+len(attrs))
	allAttrs = append(allAttrs,
		"provider", provider,
		"error", RedactSensitiveData(message),
		"duration", duration,
	)
	allAttrs = append(allAttrs, attrs...)
	WarnContext(ctx, "synthesis attempt failed", allAttrs...)
}

// CircuitStateChange logs a breaker transition for a provider.
func CircuitStateChange(provider, state string, consecutiveFailures int) {
	Warn("circuit state change",
		"provider", provider,
		"state", state,
		"consecutive_failures", consecutiveFailures,
	)
}

// apiKeyPatterns contains compiled regular expressions for detecting
// sensitive data in log output.
var apiKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{10,}`),        // Google API keys
	regexp.MustCompile(`sk-[a-zA-Z0-9]{32,}`),           // OpenAI-style keys
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`),      // Bearer tokens
	regexp.MustCompile(`[?&]key=[^&\s]+`),               // key query parameters
}

// RedactSensitiveData removes API keys and other sensitive information
// from strings before they reach log output. Matched patterns keep their
// first few characters for debugging context.
func RedactSensitiveData(input string) string {
	result := input

	for _, pattern := range apiKeyPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if strings.HasPrefix(match, "Bearer ") {
				return "Bearer [REDACTED]"
			}
			if strings.HasPrefix(match, "?key=") || strings.HasPrefix(match, "&key=") {
				return match[:5] + "[REDACTED]"
			}
			if len(match) > 8 {
				return match[:4] + "...[REDACTED]"
			}
			return "[REDACTED]"
		})
	}

	return result
}
