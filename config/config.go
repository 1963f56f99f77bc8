// Package config defines the configuration value objects consumed by the
// orchestration chain and the Google multi-key client.
//
// The package only models and validates configuration; loading it from
// files, environment variables or vaults is the embedding application's
// concern. Struct tags follow the yaml convention used across the project
// so loaders can unmarshal directly into these types.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like "5m"
// or "1h30m", and from plain integers interpreted as nanoseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	case int:
		*d = Duration(v)
		return nil
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Audio encodings accepted by the Google client.
const (
	EncodingMP3      = "MP3"
	EncodingLinear16 = "LINEAR16"
	EncodingOggOpus  = "OGG_OPUS"
)

// Default cooldowns for the multi-key client.
const (
	DefaultRateLimitCooldown     = time.Hour
	DefaultQuotaExceededCooldown = 24 * time.Hour
)

// Bounds from the Google Cloud TTS API.
const (
	speakingRateMin = 0.25
	speakingRateMax = 4.0
	pitchMin        = -20.0
	pitchMax        = 20.0
	volumeGainMin   = -96.0
	volumeGainMax   = 16.0
)

// BreakerConfig wires a provider's circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker. Must be at least 1.
	FailureThreshold int `yaml:"failureThreshold"`

	// ResetTimeout is how long the breaker stays open before a trial call.
	ResetTimeout Duration `yaml:"resetTimeout"`

	// UseExponentialBackoff doubles the reset timeout per open cycle.
	UseExponentialBackoff bool `yaml:"useExponentialBackoff"`

	// MaxResetTimeout caps the exponential reset timeout.
	MaxResetTimeout Duration `yaml:"maxResetTimeout"`
}

// ProviderConfig is the static wiring for one provider in the chain.
type ProviderConfig struct {
	// Name identifies the provider; matched case-insensitively.
	Name string `yaml:"name"`

	// Priority orders providers; lower values are tried earlier.
	Priority int `yaml:"priority"`

	// Enabled gates participation in the default candidate order.
	Enabled bool `yaml:"enabled"`

	// Breaker configures the provider's circuit breaker.
	Breaker BreakerConfig `yaml:"breaker"`
}

// OrchestrationConfig configures the provider chain.
type OrchestrationConfig struct {
	// Providers lists all configured providers, enabled or not.
	Providers []ProviderConfig `yaml:"providers"`
}

// Validate checks the orchestration wiring.
func (c OrchestrationConfig) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider %d: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("provider %q: duplicate name", p.Name)
		}
		seen[p.Name] = true
		if p.Breaker.FailureThreshold < 1 {
			return fmt.Errorf("provider %q: breaker failureThreshold must be >= 1", p.Name)
		}
		if p.Breaker.ResetTimeout <= 0 {
			return fmt.Errorf("provider %q: breaker resetTimeout must be positive", p.Name)
		}
	}
	return nil
}

// APIKeySecret names one API key by its symbolic secret key. The value is
// resolved at construction; only DisplayName ever appears in logs.
type APIKeySecret struct {
	// SecretKey is the symbolic name looked up from the secret source.
	SecretKey string `yaml:"secretKey"`

	// DisplayName is the log-safe label for this key.
	DisplayName string `yaml:"displayName"`
}

// GoogleTTSConfig configures the multi-key Google Cloud TTS client.
type GoogleTTSConfig struct {
	// APIKeySecrets lists the keys to rotate among, in preference order.
	APIKeySecrets []APIKeySecret `yaml:"apiKeySecrets"`

	// Voice is the default voice name (e.g., "cs-CZ-Wavenet-A").
	Voice string `yaml:"voice"`

	// AudioEncoding is one of MP3, LINEAR16, OGG_OPUS.
	AudioEncoding string `yaml:"audioEncoding"`

	// SpeakingRate is the default speaking rate in [0.25, 4.0].
	SpeakingRate float64 `yaml:"speakingRate"`

	// Pitch is the default pitch in semitones [-20, +20].
	Pitch float64 `yaml:"pitch"`

	// VolumeGainDb is the volume gain in [-96, +16] dB.
	VolumeGainDb float64 `yaml:"volumeGainDb"`

	// SampleRateHertz is the output sample rate.
	SampleRateHertz int `yaml:"sampleRateHertz"`

	// Timeout bounds each HTTP request.
	Timeout Duration `yaml:"timeout"`

	// RateLimitCooldown is how long a rate-limited key rests.
	RateLimitCooldown Duration `yaml:"rateLimitCooldown"`

	// QuotaExceededCooldown is how long a quota-exhausted key rests.
	QuotaExceededCooldown Duration `yaml:"quotaExceededCooldown"`
}

// DefaultGoogleTTSConfig returns the defaults documented for the Google
// client. APIKeySecrets must still be supplied by the caller.
func DefaultGoogleTTSConfig() GoogleTTSConfig {
	return GoogleTTSConfig{
		Voice:                 "cs-CZ-Wavenet-A",
		AudioEncoding:         EncodingMP3,
		SpeakingRate:          1.0,
		Pitch:                 0.0,
		VolumeGainDb:          0.0,
		SampleRateHertz:       24000,
		Timeout:               Duration(30 * time.Second),
		RateLimitCooldown:     Duration(DefaultRateLimitCooldown),
		QuotaExceededCooldown: Duration(DefaultQuotaExceededCooldown),
	}
}

// Validate checks ranges against the Google Cloud TTS API limits.
func (c GoogleTTSConfig) Validate() error {
	if len(c.APIKeySecrets) == 0 {
		return fmt.Errorf("at least one apiKeySecret is required")
	}
	for i, s := range c.APIKeySecrets {
		if s.SecretKey == "" {
			return fmt.Errorf("apiKeySecret %d: secretKey is required", i)
		}
	}
	switch c.AudioEncoding {
	case EncodingMP3, EncodingLinear16, EncodingOggOpus:
	default:
		return fmt.Errorf("unsupported audioEncoding %q", c.AudioEncoding)
	}
	if c.SpeakingRate < speakingRateMin || c.SpeakingRate > speakingRateMax {
		return fmt.Errorf("speakingRate %v out of range [%v, %v]", c.SpeakingRate, speakingRateMin, speakingRateMax)
	}
	if c.Pitch < pitchMin || c.Pitch > pitchMax {
		return fmt.Errorf("pitch %v out of range [%v, %v]", c.Pitch, pitchMin, pitchMax)
	}
	if c.VolumeGainDb < volumeGainMin || c.VolumeGainDb > volumeGainMax {
		return fmt.Errorf("volumeGainDb %v out of range [%v, %v]", c.VolumeGainDb, volumeGainMin, volumeGainMax)
	}
	return nil
}

// WithDefaults returns a copy with zero fields replaced by the documented
// defaults. APIKeySecrets are never defaulted.
func (c GoogleTTSConfig) WithDefaults() GoogleTTSConfig {
	defaults := DefaultGoogleTTSConfig()
	if c.Voice == "" {
		c.Voice = defaults.Voice
	}
	if c.AudioEncoding == "" {
		c.AudioEncoding = defaults.AudioEncoding
	}
	if c.SpeakingRate == 0 {
		c.SpeakingRate = defaults.SpeakingRate
	}
	if c.SampleRateHertz == 0 {
		c.SampleRateHertz = defaults.SampleRateHertz
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.RateLimitCooldown <= 0 {
		c.RateLimitCooldown = defaults.RateLimitCooldown
	}
	if c.QuotaExceededCooldown <= 0 {
		c.QuotaExceededCooldown = defaults.QuotaExceededCooldown
	}
	return c
}
