// Package analysis derives structured knowledge from a dossier's findings.
//
// Two analyzers are built in:
//
//   - entity-model: entities, typed fields and Id-based relations, inferred
//     from business_rule assertions and endpoint paths
//   - state-machine: one lifecycle automaton per recorded workflow, obtained
//     by replaying its steps against the entity's status vocabulary
//
// Analyzers are pure: they read findings and never fail on missing or
// contradictory evidence. They are looked up through a static Registry:
//
//	results, err := analysis.DefaultRegistry().RunAll(cfg.Analyzers, dossier.Findings)
//
// BuildEntityModels and BuildStateMachines expose the typed structures
// behind each AnalysisResult.
package analysis
