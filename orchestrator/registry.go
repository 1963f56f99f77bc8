package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AltairaLabs/SpeechKit/config"
	"github.com/AltairaLabs/SpeechKit/tts"
)

// entry pairs a provider with its static configuration.
type entry struct {
	provider tts.Provider
	cfg      config.ProviderConfig
}

// Registry is an immutable name-to-provider mapping built at startup.
// Lookups are case-insensitive. Membership does not imply enabled status;
// the enabled bit is preserved on each entry and re-checked by the chain.
type Registry struct {
	byName  map[string]*entry
	ordered []*entry // enabled entries, ascending priority
}

// NewRegistry builds a Registry from the orchestration configuration and
// the supplied provider implementations. Every configured provider must
// be supplied; names are matched case-insensitively.
func NewRegistry(cfg config.OrchestrationConfig, providers []tts.Provider) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("orchestration config: %w", err)
	}

	supplied := make(map[string]tts.Provider, len(providers))
	for _, p := range providers {
		key := strings.ToLower(p.Name())
		if _, dup := supplied[key]; dup {
			return nil, fmt.Errorf("duplicate provider %q", p.Name())
		}
		supplied[key] = p
	}

	r := &Registry{byName: make(map[string]*entry, len(cfg.Providers))}
	for _, pc := range cfg.Providers {
		key := strings.ToLower(pc.Name)
		p, ok := supplied[key]
		if !ok {
			return nil, fmt.Errorf("provider %q configured but not supplied", pc.Name)
		}
		e := &entry{provider: p, cfg: pc}
		r.byName[key] = e
		if pc.Enabled {
			r.ordered = append(r.ordered, e)
		}
	}

	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].cfg.Priority < r.ordered[j].cfg.Priority
	})

	return r, nil
}

// Get returns the provider registered under name, case-insensitively.
func (r *Registry) Get(name string) (tts.Provider, bool) {
	e, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return e.provider, true
}

// lookup returns the full entry for name.
func (r *Registry) lookup(name string) (*entry, bool) {
	e, ok := r.byName[strings.ToLower(name)]
	return e, ok
}

// enabledOrdered returns the enabled entries in ascending priority order.
// Callers must not mutate the returned slice.
func (r *Registry) enabledOrdered() []*entry {
	return r.ordered
}

// Names returns all registered provider names, sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for _, e := range r.byName {
		names = append(names, e.cfg.Name)
	}
	sort.Strings(names)
	return names
}
