// Package discovery collects findings about a target by running probes.
//
// A probe is any collaborator that reads one kind of source (test code,
// schemas, live APIs) and reports atomic, evidence-backed Findings. Probes
// are registered statically in a Registry and grouped by environment:
//
//	registry := discovery.NewRegistry()
//	if err := workers.RegisterAll(registry); err != nil {
//		return err
//	}
//
//	orch := discovery.NewOrchestrator(cfg.Workers)
//	result := orch.Run(ctx, registry.ForEnv("test"), "./src/test/java", "test")
//	fmt.Println(result.Summary())
//
// The Orchestrator runs one task per probe over a bounded worker pool. Tasks
// share nothing: each keeps its findings private and hands them to a single
// merge point after it finishes. A failing or panicking probe is logged with
// its name, recorded in CollectionResult.Errors and contributes zero findings.
//
// Merge order is completion order. Consumers must not depend on it for
// correctness; the correlator uses it only for display numbering.
package discovery
