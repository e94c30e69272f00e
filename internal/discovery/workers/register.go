package workers

import (
	"github.com/steveyegge/probe/internal/discovery"
)

// RegisterAll registers the built-in probes with the given registry.
func RegisterAll(registry *discovery.Registry) error {
	probes := []discovery.Probe{
		NewEndpointCensus(),
		NewExpectedStatus(),
		NewAssertionRules(),
		NewAuthPatterns(),
		NewTestSequence(),
	}

	for _, probe := range probes {
		if err := registry.Register(probe); err != nil {
			return err
		}
	}

	return nil
}
