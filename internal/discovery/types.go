package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/steveyegge/probe/internal/types"
)

var (
	// ErrProbeFailed wraps every failure reported in a CollectionResult.
	ErrProbeFailed = errors.New("probe failed")

	// ErrUnknownProbe is returned when a selected probe is not registered.
	ErrUnknownProbe = errors.New("unknown probe")
)

// Probe scans a target and reports atomic findings about it.
//
// A probe runs exactly once per scan, independently of every other probe.
// An empty result is normal. A returned error (or a panic) only discards
// this probe's findings; it never affects its siblings.
type Probe interface {
	// Name returns the unique identifier for this probe.
	// Example: "ra-endpoint-census"
	Name() string

	// Env returns the environment category the probe understands.
	// Example: "test", "db", "api"
	Env() string

	// Scan examines the target (a path or URL) and returns findings.
	Scan(ctx context.Context, target string) ([]types.Finding, error)
}

// ProbeError records why a probe contributed nothing to a dossier.
type ProbeError struct {
	Probe string
	Err   error
}

// Error implements error.
func (e ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Probe, e.Err)
}

// Unwrap returns the underlying error.
func (e ProbeError) Unwrap() error {
	return e.Err
}

// CollectionStats tracks aggregate statistics for one collection run.
type CollectionStats struct {
	ProbesRun         int
	ProbesFailed      int
	FindingsCollected int
	Duration          time.Duration

	// Findings per successful probe
	PerProbe map[string]int
}

// CollectionResult contains the merged dossier and per-probe outcomes.
type CollectionResult struct {
	Dossier *types.Dossier

	// Errors encountered (non-fatal), in completion order
	Errors []ProbeError

	Stats CollectionStats
}

// Summary returns a human-readable summary of the collection run.
func (r *CollectionResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Collection completed in %v\n", r.Stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Probes run: %d (failed: %d)\n", r.Stats.ProbesRun, r.Stats.ProbesFailed)
	fmt.Fprintf(&b, "Findings: %d", r.Stats.FindingsCollected)

	names := make([]string, 0, len(r.Stats.PerProbe))
	for name := range r.Stats.PerProbe {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s: %d", name, r.Stats.PerProbe[name])
	}
	return b.String()
}
