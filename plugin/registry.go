package plugin

import (
	"context"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/model"
)

// Registry manages all processors
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Processor
	version string // annogen version
}

// NewRegistry creates a new processor registry
func NewRegistry(annogenVersion string) *Registry {
	return &Registry{
		plugins: make(map[string]Processor),
		version: annogenVersion,
	}
}

// Register registers a processor
// Returns error if the name conflicts or the version is incompatible
func (r *Registry) Register(p Processor) error {
	if model.IsNil(p) {
		return errors.NewInvalidArgumentError("processor is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	metadata := p.Metadata()
	if metadata.Name == "" {
		return errors.NewInvalidArgumentError("processor has no name")
	}

	// Check for name conflicts
	if _, exists := r.plugins[metadata.Name]; exists {
		return errors.Newf("processor already registered: %s", metadata.Name)
	}

	// Validate version compatibility
	if err := r.validateVersion(metadata); err != nil {
		return errors.Wrapf(err, "version incompatible for %s", metadata.Name)
	}

	r.plugins[metadata.Name] = p
	return nil
}

// MustRegister registers p and panics on failure. Meant for wiring built-in
// processors at startup.
func (r *Registry) MustRegister(p Processor) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get retrieves a processor by name
func (r *Registry) Get(name string) (Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// List returns all registered processor names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every processor, sorted by name
func (r *Registry) All() []Processor {
	names := r.List()
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Processor, 0, len(names))
	for _, name := range names {
		result = append(result, r.plugins[name])
	}
	return result
}

// Enabled returns the processors named in names, in that order. An empty
// list enables every processor in name order.
func (r *Registry) Enabled(names []string) ([]Processor, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(names))
	result := make([]Processor, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		p, ok := r.plugins[name]
		if !ok {
			return nil, errors.WithHintf(errors.NewNotFoundError("processor %q is not registered", name),
				"available processors: %v", r.namesLocked())
		}
		result = append(result, p)
	}
	return result, nil
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InitializeAll initializes the given processors that need it, in order
func InitializeAll(ctx context.Context, processors []Processor, services Services) error {
	for _, p := range processors {
		ip, ok := p.(InitializableProcessor)
		if !ok {
			continue
		}
		if err := ip.Initialize(ctx, services); err != nil {
			return errors.Wrapf(err, "failed to initialize processor %s", p.Metadata().Name)
		}
	}
	return nil
}

// validateVersion checks if the processor is compatible with the annogen version
func (r *Registry) validateVersion(metadata Metadata) error {
	if metadata.AnnogenVersion == "" {
		// No version constraint specified
		return nil
	}

	current, err := semver.NewVersion(r.version)
	if err != nil {
		return errors.Wrapf(err, "invalid annogen version %s", r.version)
	}

	constraint, err := semver.NewConstraint(metadata.AnnogenVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", metadata.AnnogenVersion)
	}

	if !constraint.Check(current) {
		return errors.Wrapf(errors.ErrIncompatible, "processor requires annogen %s, but running %s", metadata.AnnogenVersion, r.version)
	}

	return nil
}

// Global registry instance
var (
	defaultRegistry *Registry
	registryMu      sync.RWMutex
)

// SetDefaultRegistry sets the global registry. It panics when called twice.
func SetDefaultRegistry(registry *Registry) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if defaultRegistry != nil {
		panic("default registry already initialized - call SetDefaultRegistry only once")
	}
	defaultRegistry = registry
}

// GetDefaultRegistry returns the global registry
func GetDefaultRegistry() *Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return defaultRegistry
}

// Register registers a processor with the global registry
func Register(p Processor) error {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if defaultRegistry == nil {
		return errors.New("default registry not initialized")
	}
	return defaultRegistry.Register(p)
}

// Get retrieves a processor from the global registry
func Get(name string) (Processor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if defaultRegistry == nil {
		return nil, false
	}
	return defaultRegistry.Get(name)
}

// List returns all processor names from the global registry
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if defaultRegistry == nil {
		return nil
	}
	return defaultRegistry.List()
}
