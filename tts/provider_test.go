package tts

import (
	"errors"
	"strings"
	"testing"
)

func TestSynthesisRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SynthesisRequest
		wantErr error
	}{
		{
			name:    "valid minimal",
			req:     SynthesisRequest{Text: "hello"},
			wantErr: nil,
		},
		{
			name:    "empty text",
			req:     SynthesisRequest{Text: ""},
			wantErr: ErrEmptyText,
		},
		{
			name:    "whitespace only",
			req:     SynthesisRequest{Text: "   \t\n"},
			wantErr: ErrEmptyText,
		},
		{
			name:    "text too long",
			req:     SynthesisRequest{Text: strings.Repeat("a", MaxTextLength+1)},
			wantErr: ErrTextTooLong,
		},
		{
			name:    "text at limit",
			req:     SynthesisRequest{Text: strings.Repeat("a", MaxTextLength)},
			wantErr: nil,
		},
		{
			name:    "rate too low",
			req:     SynthesisRequest{Text: "hi", Rate: -101},
			wantErr: ErrRateOutOfRange,
		},
		{
			name:    "rate too high",
			req:     SynthesisRequest{Text: "hi", Rate: 101},
			wantErr: ErrRateOutOfRange,
		},
		{
			name:    "rate at bounds",
			req:     SynthesisRequest{Text: "hi", Rate: 100, Pitch: -100},
			wantErr: nil,
		},
		{
			name:    "pitch too low",
			req:     SynthesisRequest{Text: "hi", Pitch: -101},
			wantErr: ErrPitchOutOfRange,
		},
		{
			name:    "pitch too high",
			req:     SynthesisRequest{Text: "hi", Pitch: 101},
			wantErr: ErrPitchOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAudio_InMemory(t *testing.T) {
	mem := MemoryAudio([]byte("abc"), "audio/mpeg")
	if !mem.InMemory() {
		t.Error("MemoryAudio should be in memory")
	}
	if mem.Empty() {
		t.Error("MemoryAudio should not be empty")
	}

	file := FileAudio("/tmp/out.wav", "audio/wav")
	if file.InMemory() {
		t.Error("FileAudio should not be in memory")
	}
	if file.Empty() {
		t.Error("FileAudio should not be empty")
	}

	var zero Audio
	if !zero.Empty() {
		t.Error("zero Audio should be empty")
	}
}

func TestFailure(t *testing.T) {
	result := Failure("google", "boom")
	if result.Success {
		t.Error("Failure() result should not be successful")
	}
	if result.ProviderUsed != "google" {
		t.Errorf("ProviderUsed = %v, want google", result.ProviderUsed)
	}
	if result.ErrorMessage != "boom" {
		t.Errorf("ErrorMessage = %v, want boom", result.ErrorMessage)
	}
}

func TestSynthesisError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewSynthesisError("google", "503", "request failed", cause, true)

	if got := err.Error(); got != "google: request failed: connection refused" {
		t.Errorf("Error() = %v", got)
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}

	bare := NewSynthesisError("google", "", "no audio", nil, false)
	if got := bare.Error(); got != "google: no audio" {
		t.Errorf("Error() = %v", got)
	}
}
