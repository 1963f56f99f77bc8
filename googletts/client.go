// Package googletts implements a Google Cloud Text-to-Speech provider
// that rotates among multiple API keys.
//
// The client presents a single tts.Provider to the orchestration chain
// while internally running a per-key state machine: rate-limited and
// quota-exhausted keys rest for configurable cooldowns, invalid keys are
// retired permanently, and server errors rest a key just long enough for
// the current request to move on. The chain's circuit breaker therefore
// sees the whole cloud service as one unit while credential-level faults
// are absorbed here.
package googletts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/SpeechKit/clock"
	"github.com/AltairaLabs/SpeechKit/config"
	"github.com/AltairaLabs/SpeechKit/credentials"
	"github.com/AltairaLabs/SpeechKit/logger"
	metrics "github.com/AltairaLabs/SpeechKit/metrics/prometheus"
	"github.com/AltairaLabs/SpeechKit/tts"
)

const (
	// ProviderName is the identifier the chain and registry use.
	ProviderName = "google"

	// defaultEndpoint is the Google Cloud TTS synthesis endpoint.
	defaultEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"
)

// MultiKeyClient is a tts.Provider backed by the Google Cloud TTS REST
// API with API key rotation.
type MultiKeyClient struct {
	cfg      config.GoogleTTSConfig
	pool     *keyPool
	client   *http.Client
	ownsHTTP bool
	endpoint string
	clk      clock.Clock
	tracer   trace.Tracer

	mu          sync.Mutex
	lastSuccess time.Time
}

// Option configures the MultiKeyClient.
type Option func(*MultiKeyClient)

// WithHTTPClient injects an HTTP client. An injected client is owned by
// the caller and is not closed by Close.
func WithHTTPClient(c *http.Client) Option {
	return func(m *MultiKeyClient) {
		m.client = c
		m.ownsHTTP = false
	}
}

// WithEndpoint overrides the synthesis endpoint URL.
func WithEndpoint(url string) Option {
	return func(m *MultiKeyClient) {
		m.endpoint = url
	}
}

// WithClock injects a clock for deterministic cooldown tests.
func WithClock(clk clock.Clock) Option {
	return func(m *MultiKeyClient) {
		m.clk = clk
	}
}

// New creates a MultiKeyClient. Every symbolic secret name in the
// configuration is resolved eagerly; an unresolvable name is a fatal
// configuration error and construction fails.
func New(cfg config.GoogleTTSConfig, resolver *credentials.Resolver, opts ...Option) (*MultiKeyClient, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("googletts config: %w", err)
	}

	m := &MultiKeyClient{
		cfg:      cfg,
		ownsHTTP: true,
		endpoint: defaultEndpoint,
		clk:      clock.System(),
		tracer:   otel.Tracer("speechkit/googletts"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.client == nil {
		m.client = &http.Client{Timeout: cfg.Timeout.Std()}
	}

	keys := make([]*apiKey, 0, len(cfg.APIKeySecrets))
	for i, s := range cfg.APIKeySecrets {
		value, err := resolver.Resolve(s.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("resolving api key secret %q: %w", s.SecretKey, err)
		}
		display := s.DisplayName
		if display == "" {
			display = fmt.Sprintf("key-%d", i+1)
		}
		keys = append(keys, &apiKey{index: i, displayName: display, secret: value})
	}
	m.pool = newKeyPool(keys, m.clk, cfg.RateLimitCooldown.Std(), cfg.QuotaExceededCooldown.Std())
	metrics.SetAPIKeysUsable(ProviderName, m.pool.usableCount())

	return m, nil
}

// Name returns the provider identifier.
func (m *MultiKeyClient) Name() string {
	return ProviderName
}

// synthesizeRequest is the Google Cloud TTS request body.
type synthesizeRequest struct {
	Input       synthesisInput  `json:"input"`
	Voice       voiceSelection  `json:"voice"`
	AudioConfig audioConfig     `json:"audioConfig"`
}

type synthesisInput struct {
	Text string `json:"text"`
}

type voiceSelection struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

type audioConfig struct {
	AudioEncoding   string  `json:"audioEncoding"`
	SpeakingRate    float64 `json:"speakingRate"`
	Pitch           float64 `json:"pitch"`
	VolumeGainDb    float64 `json:"volumeGainDb"`
	SampleRateHertz int     `json:"sampleRateHertz"`
}

// synthesizeResponse is the success response body.
type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// errorResponse is the Google API error envelope.
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// buildBody maps the request onto the wire format, applying the
// configured defaults for untouched parameters.
func (m *MultiKeyClient) buildBody(req tts.SynthesisRequest) ([]byte, error) {
	voice := req.Voice
	if voice == "" {
		voice = m.cfg.Voice
	}

	pitch := m.cfg.Pitch
	if req.Pitch != 0 {
		pitch = tts.SemitonePitch(req.Pitch)
	}

	body := synthesizeRequest{
		Input: synthesisInput{Text: req.Text},
		Voice: voiceSelection{
			LanguageCode: tts.LanguageFromVoice(voice),
			Name:         voice,
		},
		AudioConfig: audioConfig{
			AudioEncoding:   m.cfg.AudioEncoding,
			SpeakingRate:    tts.MultiplierRate(req.Rate, m.cfg.SpeakingRate),
			Pitch:           pitch,
			VolumeGainDb:    m.cfg.VolumeGainDb,
			SampleRateHertz: m.cfg.SampleRateHertz,
		},
	}
	return json.Marshal(body)
}

// contentType derives the MIME type from the configured encoding.
func (m *MultiKeyClient) contentType() string {
	if m.cfg.AudioEncoding == config.EncodingMP3 {
		return "audio/mpeg"
	}
	return "audio/wav"
}

// Synthesize converts text to audio, rotating keys on rate-limit, quota
// and auth errors. Expected failures (exhausted keys, malformed success
// bodies) are reported through the result; the error return carries only
// context cancellation and request-building faults.
func (m *MultiKeyClient) Synthesize(ctx context.Context, req tts.SynthesisRequest) (tts.SynthesisResult, error) {
	ctx, span := m.tracer.Start(ctx, "googletts.Synthesize",
		trace.WithAttributes(attribute.Int("text_chars", len(req.Text))))
	defer span.End()

	start := m.clk.Now()

	body, err := m.buildBody(req)
	if err != nil {
		return tts.SynthesisResult{}, fmt.Errorf("building request body: %w", err)
	}

	// One extra iteration so a key whose cooldown expires mid-request
	// still gets a chance after the initial walk.
	for attempt := 0; attempt <= m.pool.size(); attempt++ {
		key := m.pool.nextAvailable()
		if key == nil {
			break
		}

		logger.SynthesisCall(ctx, ProviderName, len(req.Text), req.Voice, "key", key.displayName)

		result, retry, err := m.tryKey(ctx, key, body)
		metrics.SetAPIKeysUsable(ProviderName, m.pool.usableCount())
		if err != nil {
			return tts.SynthesisResult{}, err
		}
		if retry {
			continue
		}

		result.GenerationTime = m.clk.Now().Sub(start)
		if result.Success {
			m.mu.Lock()
			m.lastSuccess = m.clk.Now()
			m.mu.Unlock()
		}
		return result, nil
	}

	span.SetAttributes(attribute.Bool("keys_exhausted", true))
	result := tts.Failure(ProviderName, "all API keys exhausted")
	result.GenerationTime = m.clk.Now().Sub(start)
	return result, nil
}

// tryKey issues one HTTP call with the given key and classifies the
// response. retry reports that the caller should move on to the next key.
func (m *MultiKeyClient) tryKey(ctx context.Context, key *apiKey, body []byte) (result tts.SynthesisResult, retry bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return tts.SynthesisResult{}, false, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	cred := credentials.NewQueryAPIKeyCredential(key.secret, "key")
	if err := cred.Apply(ctx, httpReq); err != nil {
		return tts.SynthesisResult{}, false, err
	}

	resp, err := m.client.Do(httpReq)
	if err != nil {
		// Cancellation is never a key fault.
		if ctx.Err() != nil {
			return tts.SynthesisResult{}, false, ctx.Err()
		}
		logger.SynthesisFailure(ctx, ProviderName, err.Error(), 0, "key", key.displayName)
		m.pool.markTemporaryError(key)
		return tts.SynthesisResult{}, true, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return m.decodeSuccess(resp)

	case resp.StatusCode == http.StatusTooManyRequests:
		m.logAPIError(ctx, resp, key, tts.ErrRateLimited)
		m.pool.markRateLimited(key)
		return tts.SynthesisResult{}, true, nil

	case resp.StatusCode == http.StatusForbidden:
		m.logAPIError(ctx, resp, key, tts.ErrQuotaExceeded)
		m.pool.markQuotaExceeded(key)
		return tts.SynthesisResult{}, true, nil

	case resp.StatusCode == http.StatusUnauthorized:
		m.logAPIError(ctx, resp, key, tts.ErrInvalidCredentials)
		m.pool.markInvalid(key)
		return tts.SynthesisResult{}, true, nil

	default:
		m.logAPIError(ctx, resp, key, tts.ErrServiceUnavailable)
		m.pool.markTemporaryError(key)
		return tts.SynthesisResult{}, true, nil
	}
}

// decodeSuccess decodes a 200 response. A 200 without audio content is a
// malformed body and fails the whole request; no other key will do better.
func (m *MultiKeyClient) decodeSuccess(resp *http.Response) (tts.SynthesisResult, bool, error) {
	var decoded synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return tts.Failure(ProviderName, "malformed response body: "+err.Error()), false, nil
	}
	if decoded.AudioContent == "" {
		return tts.Failure(ProviderName, "no audio content in response"), false, nil
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.AudioContent)
	if err != nil {
		return tts.Failure(ProviderName, "decoding audio content: "+err.Error()), false, nil
	}

	return tts.SynthesisResult{
		Success:      true,
		Audio:        tts.MemoryAudio(audio, m.contentType()),
		ProviderUsed: ProviderName,
	}, false, nil
}

// logAPIError extracts the Google error envelope for diagnostics.
func (m *MultiKeyClient) logAPIError(ctx context.Context, resp *http.Response, key *apiKey, cause error) {
	var envelope errorResponse
	message := "request rejected"
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
	synthErr := tts.NewSynthesisError(ProviderName, fmt.Sprintf("%d", resp.StatusCode), message, cause, retryable)
	logger.SynthesisFailure(ctx, ProviderName, synthErr.Error(), 0,
		"key", key.displayName,
		"status_code", resp.StatusCode,
	)
}

// Info reports the client status: unavailable without keys, available
// while any key is usable, degraded while every key is resting or
// retired.
func (m *MultiKeyClient) Info() tts.ProviderInfo {
	m.mu.Lock()
	lastSuccess := m.lastSuccess
	m.mu.Unlock()

	status := tts.StatusAvailable
	switch {
	case m.pool.size() == 0:
		status = tts.StatusUnavailable
	case m.pool.usableCount() == 0:
		status = tts.StatusDegraded
	}

	return tts.ProviderInfo{
		Name:            ProviderName,
		Status:          status,
		LastSuccessTime: lastSuccess,
		SupportedVoices: supportedVoices,
	}
}

// Keys returns a log-safe snapshot of the key pool for diagnostic UIs.
func (m *MultiKeyClient) Keys() []KeyInfo {
	return m.pool.snapshot()
}

// Close releases the HTTP client when it is owned by this client.
// Injected clients belong to their caller and are left untouched.
func (m *MultiKeyClient) Close() error {
	if m.ownsHTTP {
		m.client.CloseIdleConnections()
	}
	return nil
}

// supportedVoices lists commonly used Google Cloud voices. The API offers
// many more; this is the subset surfaced in diagnostics.
var supportedVoices = []tts.Voice{
	{ID: "cs-CZ-Wavenet-A", Name: "Wavenet A", Language: "cs-CZ", Gender: "female"},
	{ID: "cs-CZ-Standard-A", Name: "Standard A", Language: "cs-CZ", Gender: "female"},
	{ID: "en-US-Wavenet-D", Name: "Wavenet D", Language: "en-US", Gender: "male"},
	{ID: "en-US-Wavenet-F", Name: "Wavenet F", Language: "en-US", Gender: "female"},
	{ID: "de-DE-Wavenet-B", Name: "Wavenet B", Language: "de-DE", Gender: "male"},
}

// compile-time interface assertion
var _ tts.Provider = (*MultiKeyClient)(nil)
