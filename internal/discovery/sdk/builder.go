package sdk

import (
	"github.com/steveyegge/probe/internal/types"
)

// FindingSet accumulates the findings of one probe run.
//
// Example:
//
//	set := sdk.NewFindingSet("ra-endpoint-census", "test")
//	set.Add("GET /movements", types.FactEndpointTested, &types.EndpointTested{...},
//		types.WithLocation(src.Location(line)),
//		types.WithTags("api", "endpoint", "read"))
//	return set.Build()
type FindingSet struct {
	probe    string
	env      string
	findings []types.Finding
	err      error
}

// NewFindingSet creates an empty set for the given probe.
func NewFindingSet(probe, env string) *FindingSet {
	return &FindingSet{
		probe:    probe,
		env:      env,
		findings: []types.Finding{},
	}
}

// Add constructs a finding and appends it. The first construction error is
// kept and reported by Build; later calls become no-ops.
func (s *FindingSet) Add(entity, fact string, data types.Payload, opts ...types.FindingOption) *FindingSet {
	if s.err != nil {
		return s
	}
	f, err := types.NewFinding(s.probe, s.env, entity, fact, data, opts...)
	if err != nil {
		s.err = err
		return s
	}
	s.findings = append(s.findings, f)
	return s
}

// Len returns the number of findings added so far.
func (s *FindingSet) Len() int {
	return len(s.findings)
}

// Build returns the accumulated findings, or the first error.
func (s *FindingSet) Build() ([]types.Finding, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.findings, nil
}
