package workers

import (
	"context"
	"strings"

	"github.com/steveyegge/probe/internal/discovery"
	"github.com/steveyegge/probe/internal/discovery/sdk"
	"github.com/steveyegge/probe/internal/types"
)

// EndpointCensus records every HTTP call made by RestAssured tests.
//
// Extracts:
// - Method and path of each .get/.post/... call
// - Whether the path carries placeholders
// - The test class and method issuing the call
//
// Confidence reflects how much of the URL is literal: 1.0 for a string
// literal, 0.8 for a concatenation, 0.3 for a variable or call.
type EndpointCensus struct{}

// NewEndpointCensus creates the ra-endpoint-census probe.
func NewEndpointCensus() discovery.Probe {
	return &EndpointCensus{}
}

// Name implements discovery.Probe.
func (p *EndpointCensus) Name() string {
	return "ra-endpoint-census"
}

// Env implements discovery.Probe.
func (p *EndpointCensus) Env() string {
	return EnvTest
}

// Scan implements discovery.Probe.
func (p *EndpointCensus) Scan(ctx context.Context, target string) ([]types.Finding, error) {
	files, err := sdk.LoadSources(ctx, target, sdk.DefaultPatternOptions())
	if err != nil {
		return nil, err
	}

	set := sdk.NewFindingSet(p.Name(), p.Env())
	for _, src := range files {
		p.scanFile(src, set)
	}
	return set.Build()
}

func (p *EndpointCensus) scanFile(src sdk.SourceFile, set *sdk.FindingSet) {
	methods := sdk.Methods(src.Content)

	for _, m := range sdk.FindPattern(src, httpCallRe) {
		open := m.Offset + len(m.Text) - 1
		args, ok := sdk.CallArgs(src.Content, open)
		if !ok {
			continue
		}
		argv := sdk.SplitArgs(args)
		if len(argv) == 0 {
			continue
		}

		url, confidence, ok := extractURL(argv[0])
		if !ok {
			continue
		}
		url = normalizeURL(url)

		method := strings.ToUpper(m.Groups[0])
		hasParams := strings.Contains(url, "{")

		tags := []string{"api", "endpoint"}
		if isWriteMethod(method) {
			tags = append(tags, "write")
		} else {
			tags = append(tags, "read")
		}
		if hasParams {
			tags = append(tags, "path-param")
		}

		set.Add(method+" "+url, types.FactEndpointTested,
			&types.EndpointTested{
				Method:        method,
				Path:          url,
				HasPathParams: hasParams,
				TestClass:     src.Class,
				TestMethod:    sdk.EnclosingMethod(methods, m.Offset),
			},
			types.WithLocation(src.Location(m.Line)),
			types.WithConfidence(confidence),
			types.WithTags(tags...))
	}
}

// extractURL resolves the first argument of an HTTP call into a path.
func extractURL(arg string) (string, float64, bool) {
	if s, ok := sdk.StringLiteral(arg); ok {
		return s, 1.0, true
	}

	if operands := sdk.SplitTopLevel(arg, '+'); len(operands) > 1 {
		var b strings.Builder
		for _, operand := range operands {
			if s, ok := sdk.StringLiteral(operand); ok {
				b.WriteString(s)
			} else {
				b.WriteString("{param}")
			}
		}
		return placeholderRe.ReplaceAllString(b.String(), "{param}"), 0.8, true
	}

	if identifierRe.MatchString(arg) {
		return "{dynamic}", 0.3, true
	}
	if _, _, ok := parseCall(arg); ok {
		return "{dynamic}", 0.3, true
	}
	return "", 0, false
}
