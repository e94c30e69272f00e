package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/probe/internal/logging"
	"github.com/steveyegge/probe/internal/types"
)

// DefaultWorkers is the worker pool size used when none is configured.
const DefaultWorkers = 8

// Orchestrator runs a set of probes over a bounded worker pool and merges
// their findings into one dossier.
type Orchestrator struct {
	workers int
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator running at most workers probes at
// once. Non-positive values fall back to DefaultWorkers.
func NewOrchestrator(workers int) *Orchestrator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Orchestrator{
		workers: workers,
		logger:  logging.New("discovery"),
	}
}

// probeOutcome is owned by exactly one task until it is sent to the merger.
type probeOutcome struct {
	probe    string
	findings []types.Finding
	err      error
}

// Run executes every probe once and blocks until all of them have finished.
//
// Each task owns its findings until it hands them over on the results
// channel; the merge below is the only writer of the dossier. Findings are
// appended in completion order, which varies from run to run.
func (o *Orchestrator) Run(ctx context.Context, probes []Probe, target, env string) *CollectionResult {
	start := time.Now()
	result := &CollectionResult{
		Dossier: types.NewDossier(target, env),
		Stats: CollectionStats{
			PerProbe: make(map[string]int),
		},
	}

	results := make(chan probeOutcome, len(probes))

	var g errgroup.Group
	g.SetLimit(o.workers)
	for _, probe := range probes {
		g.Go(func() error {
			results <- o.runProbe(ctx, probe, target)
			return nil
		})
	}
	_ = g.Wait() // failures travel in probeOutcome.err
	close(results)

	for outcome := range results {
		result.Stats.ProbesRun++
		if outcome.err != nil {
			result.Stats.ProbesFailed++
			result.Errors = append(result.Errors, ProbeError{Probe: outcome.probe, Err: outcome.err})
			o.logger.Error("probe failed", "probe", outcome.probe, "error", outcome.err)
			continue
		}

		result.Dossier.Findings = append(result.Dossier.Findings, outcome.findings...)
		result.Stats.PerProbe[outcome.probe] = len(outcome.findings)
		o.logger.Info("probe finished", "probe", outcome.probe, "findings", len(outcome.findings))
	}

	result.Stats.FindingsCollected = len(result.Dossier.Findings)
	result.Stats.Duration = time.Since(start)
	return result
}

// runProbe executes a single probe, converting errors, panics and invalid
// findings into a failed outcome.
func (o *Orchestrator) runProbe(ctx context.Context, probe Probe, target string) (outcome probeOutcome) {
	name := probe.Name()
	outcome.probe = name

	defer func() {
		if r := recover(); r != nil {
			outcome.findings = nil
			outcome.err = fmt.Errorf("%w: panic: %v", ErrProbeFailed, r)
		}
	}()

	o.logger.Debug("starting probe", "probe", name, "target", target)

	findings, err := probe.Scan(ctx, target)
	if err != nil {
		outcome.err = fmt.Errorf("%w: %w", ErrProbeFailed, err)
		return outcome
	}

	for i, f := range findings {
		if err := f.Validate(); err != nil {
			outcome.err = fmt.Errorf("%w: finding %d: %w", ErrProbeFailed, i, err)
			return outcome
		}
	}

	outcome.findings = findings
	return outcome
}
