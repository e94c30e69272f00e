package discovery

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the static table of available probes, assembled at startup.
// Probes are looked up by name or grouped by environment.
type Registry struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

// NewRegistry creates an empty probe registry.
func NewRegistry() *Registry {
	return &Registry{
		probes: make(map[string]Probe),
	}
}

// Register adds a probe to the registry.
func (r *Registry) Register(probe Probe) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := probe.Name()
	if name == "" {
		return fmt.Errorf("probe name is required")
	}
	if _, exists := r.probes[name]; exists {
		return fmt.Errorf("probe %q already registered", name)
	}

	r.probes[name] = probe
	return nil
}

// Get returns a registered probe by name.
func (r *Registry) Get(name string) (Probe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	probe, exists := r.probes[name]
	return probe, exists
}

// List returns all registered probe names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.probes))
	for name := range r.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForEnv returns the probes for an environment, sorted by name.
func (r *Registry) ForEnv(env string) []Probe {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var probes []Probe
	for _, probe := range r.probes {
		if probe.Env() == env {
			probes = append(probes, probe)
		}
	}
	sort.Slice(probes, func(i, j int) bool {
		return probes[i].Name() < probes[j].Name()
	})
	return probes
}

// Envs returns every environment with at least one probe, sorted.
func (r *Registry) Envs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var envs []string
	for _, probe := range r.probes {
		if !seen[probe.Env()] {
			seen[probe.Env()] = true
			envs = append(envs, probe.Env())
		}
	}
	sort.Strings(envs)
	return envs
}

// Select returns the probes for env, narrowed to names when names is
// non-empty. Unknown names and names registered for another environment
// are errors.
func (r *Registry) Select(env string, names []string) ([]Probe, error) {
	if len(names) == 0 {
		return r.ForEnv(env), nil
	}

	seen := make(map[string]bool)
	var probes []Probe
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		probe, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProbe, name)
		}
		if probe.Env() != env {
			return nil, fmt.Errorf("probe %q belongs to environment %q, not %q", name, probe.Env(), env)
		}
		probes = append(probes, probe)
	}
	sort.Slice(probes, func(i, j int) bool {
		return probes[i].Name() < probes[j].Name()
	})
	return probes, nil
}
