package googletts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/SpeechKit/clock"
	"github.com/AltairaLabs/SpeechKit/config"
	"github.com/AltairaLabs/SpeechKit/credentials"
	"github.com/AltairaLabs/SpeechKit/tts"
)

// scriptedServer routes each request by its key query parameter and
// records the order of keys seen.
type scriptedServer struct {
	mu        sync.Mutex
	responses map[string]func(w http.ResponseWriter)
	keysSeen  []string
}

func newScriptedServer() *scriptedServer {
	return &scriptedServer{responses: make(map[string]func(w http.ResponseWriter))}
}

func (s *scriptedServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		s.mu.Lock()
		s.keysSeen = append(s.keysSeen, key)
		respond := s.responses[key]
		s.mu.Unlock()
		if respond == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		respond(w)
	}
}

func (s *scriptedServer) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keysSeen...)
}

func respondAudio(audio []byte) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString(audio),
		})
	}
}

func respondStatus(code int, message string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": code, "message": message},
		})
	}
}

func newTestClient(t *testing.T, server *httptest.Server, clk clock.Clock, secrets ...string) *MultiKeyClient {
	t.Helper()

	cfg := config.DefaultGoogleTTSConfig()
	source := credentials.MapSource{}
	for i, secret := range secrets {
		name := "google_tts_key_" + string(rune('1'+i))
		source[name] = secret
		cfg.APIKeySecrets = append(cfg.APIKeySecrets, config.APIKeySecret{
			SecretKey:   name,
			DisplayName: "key-" + string(rune('1'+i)),
		})
	}

	client, err := New(cfg, credentials.NewResolver(source),
		WithEndpoint(server.URL),
		WithHTTPClient(server.Client()),
		WithClock(clk),
	)
	require.NoError(t, err)
	return client
}

func TestNew_UnresolvableSecretIsFatal(t *testing.T) {
	cfg := config.DefaultGoogleTTSConfig()
	cfg.APIKeySecrets = []config.APIKeySecret{{SecretKey: "missing_key"}}

	_, err := New(cfg, credentials.NewResolver(credentials.MapSource{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_key")
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultGoogleTTSConfig()
	cfg.APIKeySecrets = []config.APIKeySecret{{SecretKey: "k"}}
	cfg.AudioEncoding = "FLAC"

	_, err := New(cfg, credentials.NewResolver(credentials.MapSource{"k": "v"}))
	assert.Error(t, err)
}

func TestSynthesize_Success(t *testing.T) {
	audio := []byte("mp3-bytes")
	script := newScriptedServer()
	script.responses["K1"] = respondAudio(audio)
	server := httptest.NewServer(script.handler())
	defer server.Close()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := newTestClient(t, server, clk, "K1")

	result, err := client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "ahoj"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, ProviderName, result.ProviderUsed)
	assert.Equal(t, audio, result.Audio.Data)
	assert.Equal(t, "audio/mpeg", result.Audio.ContentType)

	info := client.Info()
	assert.Equal(t, tts.StatusAvailable, info.Status)
	assert.Equal(t, clk.Now(), info.LastSuccessTime)
}

func TestSynthesize_KeyRotation(t *testing.T) {
	// K1 rate limited, K2 quota exhausted, K3 healthy.
	script := newScriptedServer()
	script.responses["K1"] = respondStatus(http.StatusTooManyRequests, "rate limit")
	script.responses["K2"] = respondStatus(http.StatusForbidden, "quota")
	script.responses["K3"] = respondAudio([]byte("audio"))
	server := httptest.NewServer(script.handler())
	defer server.Close()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := newTestClient(t, server, clk, "K1", "K2", "K3")

	result, err := client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "ahoj"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"K1", "K2", "K3"}, script.seen())

	keys := client.Keys()
	assert.Equal(t, KeyRateLimited, keys[0].Status)
	assert.Equal(t, clk.Now().Add(config.DefaultRateLimitCooldown), keys[0].CooldownUntil)
	assert.Equal(t, KeyQuotaExceeded, keys[1].Status)
	assert.Equal(t, clk.Now().Add(config.DefaultQuotaExceededCooldown), keys[1].CooldownUntil)
	assert.Equal(t, KeyAvailable, keys[2].Status)

	// Second request at the same instant goes straight to K3.
	result, err = client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "znovu"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"K1", "K2", "K3", "K3"}, script.seen())
}

func TestSynthesize_InvalidKeyIsTerminal(t *testing.T) {
	script := newScriptedServer()
	script.responses["K1"] = respondStatus(http.StatusUnauthorized, "bad key")
	server := httptest.NewServer(script.handler())
	defer server.Close()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := newTestClient(t, server, clk, "K1")

	result, err := client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "ahoj"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "all API keys exhausted", result.ErrorMessage)

	// Much later: invalid keys never come back, and no HTTP call is made.
	clk.Advance(30 * 24 * time.Hour)
	result, err = client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "ahoj"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, []string{"K1"}, script.seen(), "invalid key must not be retried")

	assert.Equal(t, tts.StatusDegraded, client.Info().Status)
}

func TestSynthesize_CooldownExpiryReusesKey(t *testing.T) {
	script := newScriptedServer()
	script.responses["K1"] = respondStatus(http.StatusTooManyRequests, "rate limit")
	server := httptest.NewServer(script.handler())
	defer server.Close()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := newTestClient(t, server, clk, "K1")

	result, err := client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "ahoj"})
	require.NoError(t, err)
	require.False(t, result.Success)

	// After the cooldown the key is selectable again.
	clk.Advance(config.DefaultRateLimitCooldown)
	script.responses["K1"] = respondAudio([]byte("audio"))

	result, err = client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "ahoj"})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestSynthesize_MissingAudioContentFailsFast(t *testing.T) {
	script := newScriptedServer()
	script.responses["K1"] = func(w http.ResponseWriter) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}
	script.responses["K2"] = respondAudio([]byte("audio"))
	server := httptest.NewServer(script.handler())
	defer server.Close()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := newTestClient(t, server, clk, "K1", "K2")

	result, err := client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "ahoj"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "no audio content")
	assert.Equal(t, []string{"K1"}, script.seen(), "malformed 200 must not rotate keys")
}

func TestSynthesize_ServerErrorRotates(t *testing.T) {
	script := newScriptedServer()
	script.responses["K1"] = respondStatus(http.StatusServiceUnavailable, "overloaded")
	script.responses["K2"] = respondAudio([]byte("audio"))
	server := httptest.NewServer(script.handler())
	defer server.Close()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := newTestClient(t, server, clk, "K1", "K2")

	result, err := client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "ahoj"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"K1", "K2"}, script.seen())

	keys := client.Keys()
	assert.Equal(t, KeyTemporaryError, keys[0].Status)
}

func TestSynthesize_CancellationPropagates(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := newTestClient(t, server, clk, "K1")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.Synthesize(ctx, tts.SynthesisRequest{Text: "ahoj"})
	require.ErrorIs(t, err, context.Canceled)

	// Cancellation is not a key fault.
	keys := client.Keys()
	assert.Equal(t, KeyAvailable, keys[0].Status)
}

func TestSynthesize_WireFormat(t *testing.T) {
	var captured synthesizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		respondAudio([]byte("audio"))(w)
	}))
	defer server.Close()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := newTestClient(t, server, clk, "K1")

	_, err := client.Synthesize(context.Background(), tts.SynthesisRequest{
		Text:  "Dobrý den",
		Voice: "en-US-Wavenet-D",
		Rate:  100,
		Pitch: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, "Dobrý den", captured.Input.Text)
	assert.Equal(t, "en-US-Wavenet-D", captured.Voice.Name)
	assert.Equal(t, "en-US", captured.Voice.LanguageCode)
	assert.Equal(t, "MP3", captured.AudioConfig.AudioEncoding)
	assert.InDelta(t, 4.0, captured.AudioConfig.SpeakingRate, 1e-9)
	assert.InDelta(t, 10.0, captured.AudioConfig.Pitch, 1e-9)
	assert.Equal(t, 24000, captured.AudioConfig.SampleRateHertz)
}

func TestSynthesize_DefaultVoiceAndLanguage(t *testing.T) {
	var captured synthesizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		respondAudio([]byte("audio"))(w)
	}))
	defer server.Close()

	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	client := newTestClient(t, server, clk, "K1")

	_, err := client.Synthesize(context.Background(), tts.SynthesisRequest{Text: "ahoj"})
	require.NoError(t, err)

	assert.Equal(t, "cs-CZ-Wavenet-A", captured.Voice.Name)
	assert.Equal(t, "cs-CZ", captured.Voice.LanguageCode)
	assert.InDelta(t, 1.0, captured.AudioConfig.SpeakingRate, 1e-9)
	assert.InDelta(t, 0.0, captured.AudioConfig.Pitch, 1e-9)
}
