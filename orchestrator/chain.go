// Package orchestrator sequences synthesis requests across an ordered
// list of TTS providers with an independent circuit breaker per provider.
//
// For each request the chain selects a candidate order (the configured
// priority order, optionally overridden per request), skips providers
// whose breaker is open, and returns the first success. Every failed or
// skipped provider leaves an attempt record in the result for
// diagnostics.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/SpeechKit/breaker"
	"github.com/AltairaLabs/SpeechKit/clock"
	"github.com/AltairaLabs/SpeechKit/config"
	"github.com/AltairaLabs/SpeechKit/logger"
	metrics "github.com/AltairaLabs/SpeechKit/metrics/prometheus"
	"github.com/AltairaLabs/SpeechKit/tts"
)

// circuitOpenMessage is the attempt-record text for skipped candidates.
const circuitOpenMessage = "circuit open"

// Chain orchestrates synthesis across providers. It is safe for
// concurrent callers; each breaker serializes its own state and there is
// no global lock.
type Chain struct {
	registry *Registry
	breakers map[string]*breaker.Breaker
	clk      clock.Clock
	tracer   trace.Tracer
}

// Option configures a Chain.
type Option func(*Chain)

// WithClock injects a clock shared by every breaker, for deterministic
// recovery tests.
func WithClock(clk clock.Clock) Option {
	return func(c *Chain) {
		c.clk = clk
	}
}

// New creates a Chain over the configured providers. Each configured
// provider gets its own breaker, including disabled providers so that
// ProvidersStatus can report every configured provider.
func New(cfg config.OrchestrationConfig, providers []tts.Provider, opts ...Option) (*Chain, error) {
	registry, err := NewRegistry(cfg, providers)
	if err != nil {
		return nil, err
	}

	c := &Chain{
		registry: registry,
		clk:      clock.System(),
		tracer:   otel.Tracer("speechkit/orchestrator"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breakers = make(map[string]*breaker.Breaker, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		c.breakers[strings.ToLower(pc.Name)] = breaker.New(breaker.Config{
			FailureThreshold:      pc.Breaker.FailureThreshold,
			ResetTimeout:          pc.Breaker.ResetTimeout.Std(),
			UseExponentialBackoff: pc.Breaker.UseExponentialBackoff,
			MaxResetTimeout:       pc.Breaker.MaxResetTimeout.Std(),
		}, c.clk)
	}

	return c, nil
}

// candidates selects the ordered provider list for one request: the
// request's fallback chain when it filters to something non-empty,
// otherwise the default priority order, with the preferred provider
// hoisted to the front when it matches.
func (c *Chain) candidates(req tts.SynthesisRequest) []*entry {
	var cands []*entry

	if len(req.FallbackChain) > 0 {
		for _, name := range req.FallbackChain {
			e, ok := c.registry.lookup(name)
			if !ok {
				logger.Warn("fallback chain entry unknown, skipping", "provider", name)
				continue
			}
			if !e.cfg.Enabled {
				logger.Warn("fallback chain entry disabled, skipping", "provider", name)
				continue
			}
			cands = append(cands, e)
		}
		if len(cands) == 0 {
			logger.Warn("fallback chain filtered to nothing, using default order")
		}
	}
	if len(cands) == 0 {
		cands = append(cands, c.registry.enabledOrdered()...)
	}

	if req.PreferredProvider != "" {
		hoisted := false
		for i, e := range cands {
			if strings.EqualFold(e.cfg.Name, req.PreferredProvider) {
				if i > 0 {
					moved := cands[i]
					copy(cands[1:i+1], cands[0:i])
					cands[0] = moved
				}
				hoisted = true
				break
			}
		}
		if !hoisted {
			logger.Warn("preferred provider not in candidate list",
				"provider", req.PreferredProvider)
		}
	}

	return cands
}

// Synthesize runs the request through the provider chain and returns the
// first success, or a composite failure describing every attempt.
//
// Validation errors and context cancellation are returned through the
// error value before/without updating any breaker; provider-level
// failures are absorbed into the result.
func (c *Chain) Synthesize(ctx context.Context, req tts.SynthesisRequest) (tts.SynthesisResult, error) {
	if err := req.Validate(); err != nil {
		return tts.SynthesisResult{}, err
	}

	ctx = logger.WithRequestID(ctx, uuid.NewString())
	ctx = logger.WithAgent(ctx, req.AgentName, req.AgentInstanceID)

	ctx, span := c.tracer.Start(ctx, "orchestrator.Synthesize",
		trace.WithAttributes(attribute.Int("text_chars", len(req.Text))))
	defer span.End()

	cands := c.candidates(req)
	if len(cands) == 0 {
		logger.WarnContext(ctx, "no providers available")
		metrics.RecordSynthesis(metrics.StatusFailure, 0)
		return tts.SynthesisResult{
			Success:      false,
			ErrorMessage: "No providers available",
		}, nil
	}
	span.SetAttributes(attribute.Int("candidates", len(cands)))

	var attempts []tts.AttemptRecord
	for _, e := range cands {
		name := e.cfg.Name
		br := c.breakers[strings.ToLower(name)]

		status := br.Status()
		metrics.SetCircuitBreakerState(name, circuitGauge(status))
		if status == breaker.StateOpen {
			logger.DebugContext(ctx, "provider skipped, circuit open", "provider", name)
			attempts = append(attempts, tts.AttemptRecord{
				Provider: name,
				Error:    circuitOpenMessage,
				Duration: 0,
			})
			metrics.RecordProviderAttempt(name, metrics.StatusCircuitOpen, 0)
			continue
		}

		logger.SynthesisCall(ctx, name, len(req.Text), req.Voice)
		attemptStart := c.clk.Now()
		result, err := e.provider.Synthesize(logger.WithProvider(ctx, name), req)
		elapsed := c.clk.Now().Sub(attemptStart)

		if err != nil {
			// Cancellations are not provider faults; no breaker update.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				span.SetAttributes(attribute.Bool("canceled", true))
				return tts.SynthesisResult{}, err
			}
			c.recordFailure(br, name)
			logger.SynthesisFailure(ctx, name, err.Error(), elapsed)
			attempts = append(attempts, tts.AttemptRecord{Provider: name, Error: err.Error(), Duration: elapsed})
			metrics.RecordProviderAttempt(name, metrics.StatusFault, elapsed.Seconds())
			continue
		}

		if result.Success && !result.Audio.Empty() {
			br.RecordSuccess()
			metrics.SetCircuitBreakerState(name, circuitGauge(breaker.StateClosed))
			metrics.RecordProviderAttempt(name, metrics.StatusSuccess, elapsed.Seconds())

			result.ProviderUsed = name
			result.Attempts = attempts
			if result.GenerationTime == 0 {
				result.GenerationTime = elapsed
			}
			logger.SynthesisSuccess(ctx, name, result.GenerationTime, len(attempts))
			metrics.RecordSynthesis(metrics.StatusSuccess, result.GenerationTime.Seconds())
			span.SetAttributes(attribute.String("provider_used", name))
			return result, nil
		}

		message := result.ErrorMessage
		if message == "" {
			message = "no audio"
		}
		c.recordFailure(br, name)
		logger.SynthesisFailure(ctx, name, message, elapsed)
		attempts = append(attempts, tts.AttemptRecord{Provider: name, Error: message, Duration: elapsed})
		metrics.RecordProviderAttempt(name, metrics.StatusFailure, elapsed.Seconds())
	}

	var total time.Duration
	for _, a := range attempts {
		total += a.Duration
	}
	logger.ErrorContext(ctx, "all providers failed", "providers", len(cands), "duration", total)
	metrics.RecordSynthesis(metrics.StatusFailure, total.Seconds())
	span.SetAttributes(attribute.Bool("exhausted", true))

	return tts.SynthesisResult{
		Success:        false,
		ErrorMessage:   fmt.Sprintf("All %d providers failed", len(cands)),
		Attempts:       attempts,
		GenerationTime: total,
	}, nil
}

// recordFailure updates the breaker and logs the transition when the
// failure opened it.
func (c *Chain) recordFailure(br *breaker.Breaker, name string) {
	br.RecordFailure()
	status := br.Status()
	metrics.SetCircuitBreakerState(name, circuitGauge(status))
	if status == breaker.StateOpen {
		failures, _ := br.Snapshot()
		logger.CircuitStateChange(name, status.String(), failures)
	}
}

// ProviderStatusSnapshot describes one provider for diagnostics.
type ProviderStatusSnapshot struct {
	// Name is the configured provider name.
	Name string

	// Priority is the configured ordering value; lower runs earlier.
	Priority int

	// Enabled reports whether the provider participates in the default
	// order.
	Enabled bool

	// CircuitStatus is the breaker state at snapshot time.
	CircuitStatus breaker.State

	// OpenUntil is the breaker reset deadline; zero while closed.
	OpenUntil time.Time

	// ConsecutiveFailures is the breaker's current failure count.
	ConsecutiveFailures int
}

// ProvidersStatus returns a snapshot of every configured provider in
// priority order, including disabled ones. Safe for concurrent callers.
func (c *Chain) ProvidersStatus() []ProviderStatusSnapshot {
	names := c.registry.Names()

	snapshots := make([]ProviderStatusSnapshot, 0, len(names))
	for _, name := range names {
		e, _ := c.registry.lookup(name)
		br := c.breakers[strings.ToLower(name)]
		failures, openUntil := br.Snapshot()
		snapshots = append(snapshots, ProviderStatusSnapshot{
			Name:                e.cfg.Name,
			Priority:            e.cfg.Priority,
			Enabled:             e.cfg.Enabled,
			CircuitStatus:       br.Status(),
			OpenUntil:           openUntil,
			ConsecutiveFailures: failures,
		})
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Priority < snapshots[j].Priority
	})
	return snapshots
}

// circuitGauge maps breaker states onto the metric encoding
// (0=closed, 1=half-open, 2=open).
func circuitGauge(s breaker.State) float64 {
	switch s {
	case breaker.StateHalfOpen:
		return 1
	case breaker.StateOpen:
		return 2
	default:
		return 0
	}
}
