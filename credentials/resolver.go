package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source supplies secret values by symbolic name.
type Source interface {
	// Lookup returns the value for name and whether it was found.
	Lookup(name string) (string, bool)
}

// MapSource resolves secrets from an in-memory map, typically populated by
// the embedding application's configuration loader.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok && v != ""
}

// EnvSource resolves secrets from environment variables. The symbolic name
// is upper-cased, so "google_tts_key_1" reads GOOGLE_TTS_KEY_1.
type EnvSource struct {
	// Prefix is prepended to the variable name, e.g. "SPEECHKIT_".
	Prefix string
}

// Lookup implements Source.
func (e EnvSource) Lookup(name string) (string, bool) {
	v := os.Getenv(e.Prefix + strings.ToUpper(name))
	return v, v != ""
}

// FileSource resolves secrets from files named after the symbolic name in
// a directory, the layout used by mounted secret volumes.
type FileSource struct {
	// Dir is the directory holding one file per secret.
	Dir string
}

// Lookup implements Source.
func (f FileSource) Lookup(name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(f.Dir, name))
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(string(data))
	return v, v != ""
}

// Resolver resolves symbolic secret names through an ordered source chain.
// The first source that knows a name wins.
type Resolver struct {
	sources []Source
}

// NewResolver creates a Resolver over the given sources.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

// Resolve returns the value for the symbolic name. A name no source can
// supply is a configuration error; callers treat it as fatal.
func (r *Resolver) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("secret name is empty")
	}
	for _, s := range r.sources {
		if v, ok := s.Lookup(name); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("secret %q could not be resolved", name)
}
