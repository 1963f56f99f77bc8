// Package breaker implements a per-provider three-state circuit breaker
// with optional exponential backoff on repeated open cycles.
//
// The breaker is passive: there is no timer. An Open breaker transitions to
// HalfOpen the first time its state is observed at or after the reset
// deadline; a single trial call then adjudicates recovery.
package breaker

import (
	"math"
	"sync"
	"time"

	"github.com/AltairaLabs/SpeechKit/clock"
)

// Default configuration values applied by New.
const (
	defaultFailureThreshold = 5
	defaultResetTimeout     = 60 * time.Second
)

// DisabledThreshold effectively disables a breaker: the failure count can
// never reach it in practice. Used for terminal fallback providers that
// must always be attempted.
const DisabledThreshold = math.MaxInt32

// State is the observable breaker state.
type State int

// Breaker states.
const (
	// StateClosed indicates normal operation; calls flow through.
	StateClosed State = iota
	// StateOpen indicates the breaker is rejecting calls.
	StateOpen
	// StateHalfOpen indicates one trial call is permitted.
	StateHalfOpen
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds breaker thresholds and timeouts.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker. Must be at least 1.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before permitting
	// a trial call.
	ResetTimeout time.Duration

	// UseExponentialBackoff doubles the reset timeout on each successive
	// open cycle, capped by MaxResetTimeout.
	UseExponentialBackoff bool

	// MaxResetTimeout caps the exponential reset timeout.
	MaxResetTimeout time.Duration
}

// Breaker tracks consecutive failures for one provider and derives the
// circuit state from the injected clock. All methods are safe for
// concurrent use; the mutex covers only field access, never provider I/O.
type Breaker struct {
	mu  sync.Mutex
	cfg Config
	clk clock.Clock

	consecutiveFailures int
	failureMultiplier   int
	openUntil           time.Time // zero means the breaker is closed
}

// New creates a Breaker. Zero config fields fall back to defaults, and a
// nil clock falls back to the system clock.
func New(cfg Config, clk clock.Clock) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaultResetTimeout
	}
	if cfg.MaxResetTimeout <= 0 {
		cfg.MaxResetTimeout = cfg.ResetTimeout
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Breaker{
		cfg:               cfg,
		clk:               clk,
		failureMultiplier: 1,
	}
}

// Status derives the current state from the clock: closed when no reset
// deadline is pending, half-open once the deadline has passed, open before
// it.
func (b *Breaker) Status() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusLocked(b.clk.Now())
}

func (b *Breaker) statusLocked(now time.Time) State {
	if b.openUntil.IsZero() {
		return StateClosed
	}
	if !now.Before(b.openUntil) {
		return StateHalfOpen
	}
	return StateOpen
}

// RecordSuccess closes the breaker unconditionally, resetting the failure
// count, the backoff multiplier and the reset deadline in one transition.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.failureMultiplier = 1
	b.openUntil = time.Time{}
}

// RecordFailure increments the consecutive-failure count and opens the
// breaker once the count reaches the threshold. With exponential backoff
// the multiplier is applied before doubling, so the first open uses x1,
// the next x2, then x4, capped by MaxResetTimeout. A failure while
// half-open lands here with the count already past the threshold and
// re-opens the breaker with the next timeout.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	if b.consecutiveFailures < b.cfg.FailureThreshold {
		return
	}

	timeout := b.cfg.ResetTimeout
	if b.cfg.UseExponentialBackoff {
		timeout = b.cfg.ResetTimeout * time.Duration(b.failureMultiplier)
		if timeout > b.cfg.MaxResetTimeout {
			timeout = b.cfg.MaxResetTimeout
		}
		b.failureMultiplier *= 2
	}
	b.openUntil = b.clk.Now().Add(timeout)
}

// Snapshot returns the current failure count and reset deadline for
// diagnostics. The deadline is zero when the breaker is closed.
func (b *Breaker) Snapshot() (consecutiveFailures int, openUntil time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures, b.openUntil
}
