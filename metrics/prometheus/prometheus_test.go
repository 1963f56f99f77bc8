package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecordProviderAttempt(t *testing.T) {
	RecordProviderAttempt("google", StatusSuccess, 0.42)
	RecordProviderAttempt("google", StatusFailure, 0.1)
	RecordProviderAttempt("google", StatusCircuitOpen, 0)

	exporter := NewExporter(":0")
	server := httptest.NewServer(exporter.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := string(body)

	for _, want := range []string{
		`speechkit_provider_attempts_total{provider="google",status="success"}`,
		`speechkit_provider_attempts_total{provider="google",status="failure"}`,
		`speechkit_provider_attempts_total{provider="google",status="circuit_open"}`,
		"speechkit_provider_attempt_duration_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("google", 2)
	SetAPIKeysUsable("google", 3)
	RecordSynthesis(StatusSuccess, 1.5)

	exporter := NewExporter(":0")
	server := httptest.NewServer(exporter.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	for _, want := range []string{
		`speechkit_circuit_breaker_state{provider="google"} 2`,
		`speechkit_api_keys_usable{provider="google"} 3`,
		`speechkit_synthesis_requests_total{status="success"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
