// Package sdk provides helpers for writing probes over source trees.
//
// Probes built on the SDK load files with LoadSources, locate code with
// FindPattern and the method helpers (Methods, TestMethods, OrderedMethods,
// EnclosingMethod), and collect results in a FindingSet:
//
//	func (p *MyProbe) Scan(ctx context.Context, target string) ([]types.Finding, error) {
//		files, err := sdk.LoadSources(ctx, target, sdk.DefaultPatternOptions())
//		if err != nil {
//			return nil, err
//		}
//
//		set := sdk.NewFindingSet(p.Name(), p.Env())
//		for _, src := range files {
//			for _, m := range sdk.FindPattern(src, todoRe) {
//				set.Add("todo:"+src.Class, "todo_comment", types.Opaque{"text": m.Text},
//					types.WithLocation(src.Location(m.Line)))
//			}
//		}
//		return set.Build()
//	}
//
// The helpers are lexical: they understand brackets, string and char
// literals and comments, not the full Java grammar. Malformed input yields
// fewer matches, never an error.
//
// # YAML probes
//
// Simple regex probes can be declared in YAML and loaded with
// LoadYAMLProbesFromDir; see YAMLProbe for the file format.
package sdk
