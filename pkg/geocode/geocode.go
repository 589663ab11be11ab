// Package geocode resolves a city name to coordinates and elevation.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/pvsizer/pkg/types"
)

// ErrNotFound is returned when the geocoder has no match for the query.
var ErrNotFound = errors.New("location not found")

// Provider looks up a place by name.
type Provider interface {
	Lookup(ctx context.Context, query string) (types.Location, error)
}

// Configured sets up the geocoding providers based on flags.
func Configured() *Map {
	m := NewMap()
	m.SetProvider("openmeteo", configuredOpenMeteo())
	m.SetProvider("nominatim", configuredNominatim())

	def := lflag.String("geocode-provider", "openmeteo", "Default geocoding provider (available: openmeteo, nominatim)")
	lflag.Do(func() {
		if _, err := m.Provider(*def); err != nil {
			panic(fmt.Sprintf("invalid geocode-provider: %v", err))
		}
		m.mu.Lock()
		m.defaultName = *def
		m.mu.Unlock()
	})
	return m
}

// Map manages multiple geocoding providers.
type Map struct {
	mu          sync.Mutex
	providers   map[string]Provider
	defaultName string
}

// NewMap creates a new geocode Map.
func NewMap() *Map {
	return &Map{
		providers: make(map[string]Provider),
	}
}

// Provider returns the provider for the given name. An empty name returns
// the default provider.
func (m *Map) Provider(name string) (Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		name = m.defaultName
	}
	if prov, ok := m.providers[name]; ok {
		return prov, nil
	}
	return nil, fmt.Errorf("unknown geocode provider: %q", name)
}

// Names lists the registered providers.
func (m *Map) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.providers))
	for n := range m.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetProvider sets the provider for the given name. The first provider set
// becomes the default until one is configured.
func (m *Map) SetProvider(name string, provider Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = provider
	if m.defaultName == "" {
		m.defaultName = name
	}
}
