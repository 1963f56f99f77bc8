package tts

import (
	"context"
	"strings"
	"time"
)

// Limits on synthesis requests.
const (
	// MaxTextLength is the maximum accepted text length after trimming.
	MaxTextLength = 10000

	// RateMin and RateMax bound the speaking-rate adjustment scale.
	RateMin = -100
	RateMax = 100

	// PitchMin and PitchMax bound the pitch adjustment scale.
	PitchMin = -100
	PitchMax = 100
)

// SynthesisRequest describes one text-to-speech request.
// Rate and Pitch use a backend-neutral [-100, +100] scale; each backend
// normalizes them to its own units (see the normalization helpers).
type SynthesisRequest struct {
	// Text is the text to synthesize. Required.
	Text string

	// Voice is a backend-specific voice identifier. Optional.
	Voice string

	// Rate adjusts speaking speed in [-100, +100]; 0 means backend default.
	Rate int

	// Pitch adjusts voice pitch in [-100, +100]; 0 means backend default.
	Pitch int

	// PreferredProvider, when set, is hoisted to the front of the default
	// provider order for this request only.
	PreferredProvider string

	// FallbackChain, when non-empty, replaces the default provider order
	// for this request. Unknown or disabled names are skipped.
	FallbackChain []string

	// AgentName and AgentInstanceID are optional diagnostic tags carried
	// through logs.
	AgentName       string
	AgentInstanceID string
}

// Validate checks the request invariants. It returns a taxonomy error
// (ErrEmptyText, ErrTextTooLong, ErrRateOutOfRange, ErrPitchOutOfRange)
// for the first violated invariant.
func (r SynthesisRequest) Validate() error {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return ErrEmptyText
	}
	if len([]rune(text)) > MaxTextLength {
		return ErrTextTooLong
	}
	if r.Rate < RateMin || r.Rate > RateMax {
		return ErrRateOutOfRange
	}
	if r.Pitch < PitchMin || r.Pitch > PitchMax {
		return ErrPitchOutOfRange
	}
	return nil
}

// Audio is the synthesized audio payload. Exactly one of Data or Path is
// set: backends that synthesize in memory fill Data, backends that write
// to disk fill Path.
type Audio struct {
	// Data holds the audio bytes for in-memory results.
	Data []byte

	// Path is the file location for on-disk results.
	Path string

	// ContentType is the MIME type of the audio (e.g., "audio/mpeg").
	ContentType string
}

// MemoryAudio builds an in-memory audio payload.
func MemoryAudio(data []byte, contentType string) Audio {
	return Audio{Data: data, ContentType: contentType}
}

// FileAudio builds a file-backed audio payload.
func FileAudio(path, contentType string) Audio {
	return Audio{Path: path, ContentType: contentType}
}

// InMemory reports whether the audio is held in memory.
func (a Audio) InMemory() bool {
	return len(a.Data) > 0
}

// Empty reports whether the payload carries no audio at all.
func (a Audio) Empty() bool {
	return len(a.Data) == 0 && a.Path == ""
}

// AttemptRecord describes one failed or skipped provider attempt during a
// chain request.
type AttemptRecord struct {
	// Provider is the name of the attempted provider.
	Provider string

	// Error is the diagnostic message ("circuit open" for skipped
	// candidates, otherwise the provider's failure message).
	Error string

	// Duration is the elapsed time of the attempt. Exactly zero for
	// circuit-open skips.
	Duration time.Duration
}

// SynthesisResult is the outcome of a synthesis call, from a single
// provider or from the whole chain.
type SynthesisResult struct {
	// Success indicates whether audio was produced.
	Success bool

	// Audio is the payload; only meaningful when Success is true.
	Audio Audio

	// ProviderUsed names the provider that produced the result.
	ProviderUsed string

	// GenerationTime is the elapsed time from request entry to result.
	// On chain failure it is the sum of all attempt durations.
	GenerationTime time.Duration

	// AudioDuration is a best-effort estimate of the audio length.
	// Zero when unknown.
	AudioDuration time.Duration

	// ErrorMessage is set iff Success is false.
	ErrorMessage string

	// Attempts lists every provider tried before the winner, in order.
	// Empty when the first candidate succeeds.
	Attempts []AttemptRecord
}

// Failure builds a failed result attributed to the given provider.
func Failure(provider, message string) SynthesisResult {
	return SynthesisResult{
		Success:      false,
		ProviderUsed: provider,
		ErrorMessage: message,
	}
}

// ProviderStatus describes the availability of a provider.
type ProviderStatus string

// Provider availability states.
const (
	StatusAvailable   ProviderStatus = "available"
	StatusUnavailable ProviderStatus = "unavailable"
	StatusDegraded    ProviderStatus = "degraded"
	StatusDisabled    ProviderStatus = "disabled"
)

// Voice describes a voice offered by a provider.
type Voice struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is a human-readable voice name.
	Name string

	// Language is the primary language code (e.g., "cs-CZ").
	Language string

	// Gender is the voice gender ("male", "female", "neutral").
	Gender string
}

// ProviderInfo is a diagnostic snapshot of one provider.
type ProviderInfo struct {
	// Name is the provider identifier.
	Name string

	// Status is the current availability.
	Status ProviderStatus

	// LastSuccessTime is the time of the last successful synthesis.
	// Zero when the provider has not succeeded yet.
	LastSuccessTime time.Time

	// SupportedVoices lists the voices the provider offers.
	SupportedVoices []Voice
}

// Provider is the contract every TTS backend implements.
//
// Synthesize reports expected failures (network errors, auth errors,
// exhausted credentials) through the returned SynthesisResult with
// Success=false, ProviderUsed set to the provider's name and a non-empty
// ErrorMessage; the error return is reserved for exceptional conditions
// and context cancellation. Implementations must honor ctx and return
// promptly when it is canceled.
type Provider interface {
	// Name returns the stable provider identifier. Names are compared
	// case-insensitively and must be unique within a registry.
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisResult, error)

	// Info returns a diagnostic snapshot of the provider.
	Info() ProviderInfo
}
