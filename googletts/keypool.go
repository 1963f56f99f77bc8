package googletts

import (
	"sync"
	"time"

	"github.com/AltairaLabs/SpeechKit/clock"
	"github.com/AltairaLabs/SpeechKit/logger"
)

// tempErrorCooldown rests a key just long enough that the current request
// moves on to the next key while subsequent requests can reuse it almost
// immediately.
const tempErrorCooldown = 5 * time.Second

// KeyStatus is the state of one API key in the pool.
type KeyStatus int

// Key states.
const (
	// KeyAvailable means the key can be used now.
	KeyAvailable KeyStatus = iota
	// KeyRateLimited means the key hit a 429 and is cooling down.
	KeyRateLimited
	// KeyQuotaExceeded means the key hit a 403 and is cooling down.
	KeyQuotaExceeded
	// KeyInvalid means the key was rejected with a 401. Terminal.
	KeyInvalid
	// KeyTemporaryError means the key saw a server error and rests briefly.
	KeyTemporaryError
)

// String returns the snake_case status name.
func (s KeyStatus) String() string {
	switch s {
	case KeyAvailable:
		return "available"
	case KeyRateLimited:
		return "rate_limited"
	case KeyQuotaExceeded:
		return "quota_exceeded"
	case KeyInvalid:
		return "invalid"
	case KeyTemporaryError:
		return "temporary_error"
	default:
		return "unknown"
	}
}

// apiKey is one credential with its rotation state. The secret never
// leaves the package; logs carry only the display name.
type apiKey struct {
	index         int
	displayName   string
	secret        string
	status        KeyStatus
	cooldownUntil time.Time // zero when no cooldown applies
}

// KeyInfo is a log-safe snapshot of one key's state.
type KeyInfo struct {
	// DisplayName is the configured label for the key.
	DisplayName string

	// Status is the key's current state.
	Status KeyStatus

	// CooldownUntil is when the key becomes usable again; zero for
	// available and invalid keys.
	CooldownUntil time.Time
}

// keyPool holds the API keys in fixed order with per-key rotation state.
// One mutex covers the whole pool; selection and transitions are quick
// field updates and HTTP I/O always happens outside the lock.
type keyPool struct {
	mu                sync.Mutex
	keys              []*apiKey
	clk               clock.Clock
	rateLimitCooldown time.Duration
	quotaCooldown     time.Duration
}

func newKeyPool(keys []*apiKey, clk clock.Clock, rateLimitCooldown, quotaCooldown time.Duration) *keyPool {
	return &keyPool{
		keys:              keys,
		clk:               clk,
		rateLimitCooldown: rateLimitCooldown,
		quotaCooldown:     quotaCooldown,
	}
}

// nextAvailable selects the next usable key: the first available key in
// index order, or failing that the first key whose cooldown has expired
// (which is flipped back to available). Returns nil when every key is
// invalid or still cooling down.
func (p *keyPool) nextAvailable() *apiKey {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, k := range p.keys {
		if k.status == KeyInvalid {
			continue
		}
		if k.status == KeyAvailable {
			return k
		}
	}

	now := p.clk.Now()
	for _, k := range p.keys {
		if k.status == KeyInvalid {
			continue
		}
		if !k.cooldownUntil.After(now) {
			k.status = KeyAvailable
			k.cooldownUntil = time.Time{}
			logger.Debug("api key cooldown expired", "key", k.displayName)
			return k
		}
	}
	return nil
}

// markRateLimited rests the key for the configured rate-limit cooldown.
func (p *keyPool) markRateLimited(k *apiKey) {
	p.mark(k, KeyRateLimited, p.rateLimitCooldown)
}

// markQuotaExceeded rests the key for the configured quota cooldown.
func (p *keyPool) markQuotaExceeded(k *apiKey) {
	p.mark(k, KeyQuotaExceeded, p.quotaCooldown)
}

// markInvalid retires the key permanently.
func (p *keyPool) markInvalid(k *apiKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k.status = KeyInvalid
	k.cooldownUntil = time.Time{}
	logger.Warn("api key marked invalid", "key", k.displayName)
}

// markTemporaryError rests the key briefly.
func (p *keyPool) markTemporaryError(k *apiKey) {
	p.mark(k, KeyTemporaryError, tempErrorCooldown)
}

func (p *keyPool) mark(k *apiKey, status KeyStatus, cooldown time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k.status = status
	k.cooldownUntil = p.clk.Now().Add(cooldown)
	logger.Warn("api key cooling down",
		"key", k.displayName,
		"status", status.String(),
		"until", k.cooldownUntil,
	)
}

// usableCount counts keys that are available or whose cooldown has
// expired.
func (p *keyPool) usableCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clk.Now()
	n := 0
	for _, k := range p.keys {
		switch {
		case k.status == KeyInvalid:
		case k.status == KeyAvailable:
			n++
		case !k.cooldownUntil.After(now):
			n++
		}
	}
	return n
}

// size returns the number of configured keys.
func (p *keyPool) size() int {
	return len(p.keys)
}

// snapshot returns a log-safe view of every key.
func (p *keyPool) snapshot() []KeyInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	infos := make([]KeyInfo, len(p.keys))
	for i, k := range p.keys {
		infos[i] = KeyInfo{
			DisplayName:   k.displayName,
			Status:        k.status,
			CooldownUntil: k.cooldownUntil,
		}
	}
	return infos
}
