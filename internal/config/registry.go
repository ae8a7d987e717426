package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kalpana-health/vaakya/pkg/provider/asr"
	"github.com/kalpana-health/vaakya/pkg/provider/severity"
	"github.com/kalpana-health/vaakya/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	asr      map[string]func(ProviderEntry) (asr.Provider, error)
	tts      map[string]func(ProviderEntry) (tts.Provider, error)
	severity map[string]func(ProviderEntry) (severity.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		asr:      make(map[string]func(ProviderEntry) (asr.Provider, error)),
		tts:      make(map[string]func(ProviderEntry) (tts.Provider, error)),
		severity: make(map[string]func(ProviderEntry) (severity.Provider, error)),
	}
}

// RegisterASR registers an ASR provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterASR(name string, factory func(ProviderEntry) (asr.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asr[name] = factory
}

// RegisterTTS registers a TTS provider factory under name.
func (r *Registry) RegisterTTS(name string, factory func(ProviderEntry) (tts.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// RegisterSeverity registers a severity estimator factory under name.
func (r *Registry) RegisterSeverity(name string, factory func(ProviderEntry) (severity.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.severity[name] = factory
}

// CreateASR instantiates an ASR provider using the factory registered under entry.Name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateASR(entry ProviderEntry) (asr.Provider, error) {
	r.mu.RLock()
	factory, ok := r.asr[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: asr/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTTS instantiates a TTS provider using the factory registered under entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	r.mu.RLock()
	factory, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSeverity instantiates a severity estimator using the factory registered under entry.Name.
func (r *Registry) CreateSeverity(entry ProviderEntry) (severity.Provider, error) {
	r.mu.RLock()
	factory, ok := r.severity[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: severity/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
