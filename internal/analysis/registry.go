package analysis

import (
	"fmt"
	"sort"
	"sync"

	"github.com/steveyegge/probe/internal/logging"
	"github.com/steveyegge/probe/internal/types"
)

// Factory constructs a fresh analyzer.
type Factory func() Analyzer

// Registry maps analyzer names to constructors. It is assembled at startup;
// there is no runtime discovery.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty analyzer registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a registry with the built-in analyzers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// Names are distinct constants; registration cannot collide.
	_ = r.Register(EntityModelName, func() Analyzer { return NewEntityModelAnalyzer() })
	_ = r.Register(StateMachineName, func() Analyzer { return NewStateMachineAnalyzer() })
	return r
}

// Register adds an analyzer constructor under name.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("analyzer name is required")
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("analyzer %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Names returns all registered analyzer names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the named analyzer.
func (r *Registry) New(name string) (Analyzer, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalyzer, name)
	}
	return factory(), nil
}

// RunAll runs the named analyzers in order over the same findings. An
// empty names list runs every registered analyzer. The first error aborts
// the run and is returned unmasked.
func (r *Registry) RunAll(names []string, findings []types.Finding) ([]*types.AnalysisResult, error) {
	if len(names) == 0 {
		names = r.Names()
	}

	logger := logging.New("analysis")
	results := make([]*types.AnalysisResult, 0, len(names))
	for _, name := range names {
		a, err := r.New(name)
		if err != nil {
			return nil, err
		}
		result, err := a.Analyze(findings)
		if err != nil {
			return nil, fmt.Errorf("analyzer %s: %w", name, err)
		}
		logger.Debug("analyzer finished", "analyzer", name, "findings", len(findings))
		results = append(results, result)
	}
	return results, nil
}
