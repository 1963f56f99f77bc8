package tts

import "errors"

// Validation errors. These are returned before any provider is touched.
var (
	// ErrEmptyText is returned when the request text is empty after trimming.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong is returned when the trimmed text exceeds MaxTextLength.
	ErrTextTooLong = errors.New("text exceeds maximum length")

	// ErrRateOutOfRange is returned when Rate is outside [-100, +100].
	ErrRateOutOfRange = errors.New("rate out of range")

	// ErrPitchOutOfRange is returned when Pitch is outside [-100, +100].
	ErrPitchOutOfRange = errors.New("pitch out of range")
)

// Synthesis errors.
var (
	// ErrRateLimited indicates an API rate limit was hit.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates an account quota was exhausted.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrInvalidCredentials indicates an API key was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrServiceUnavailable indicates the backend returned a server error.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// SynthesisError carries provider-attributed failure detail.
type SynthesisError struct {
	// Provider is the backend that produced the error.
	Provider string

	// Code is the provider-specific error code, if any.
	Code string

	// Message is the human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates the error is transient and another attempt
	// (on a different key or provider) may succeed.
	Retryable bool
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	if e.Cause != nil {
		return e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Provider + ": " + e.Message
}

// Unwrap returns the underlying error.
func (e *SynthesisError) Unwrap() error {
	return e.Cause
}

// NewSynthesisError creates a SynthesisError.
func NewSynthesisError(provider, code, message string, cause error, retryable bool) *SynthesisError {
	return &SynthesisError{
		Provider:  provider,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: retryable,
	}
}
