package workers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/steveyegge/probe/internal/discovery"
	"github.com/steveyegge/probe/internal/discovery/sdk"
	"github.com/steveyegge/probe/internal/types"
)

var bodyCallRe = regexp.MustCompile(`\.body\(`)

// Keywords in a test name that mark a negative scenario.
var negativeKeywords = []string{
	"negative", "invalid", "error", "fail", "bad", "wrong",
	"forbidden", "unauthorized", "notfound", "missing",
}

// ruleTemplates renders a matcher as readable rule text. %[1]s is the
// field, %[2]s the expected value.
var ruleTemplates = map[string]string{
	"equalTo":              "field %[1]s = %[2]s",
	"is":                   "field %[1]s = %[2]s",
	"notNullValue":         "field %[1]s is not null",
	"notNull":              "field %[1]s is not null",
	"nullValue":            "field %[1]s must be null",
	"hasSize":              "collection %[1]s has %[2]s elements",
	"greaterThan":          "field %[1]s > %[2]s",
	"greaterThanOrEqualTo": "field %[1]s >= %[2]s",
	"lessThan":             "field %[1]s < %[2]s",
	"lessThanOrEqualTo":    "field %[1]s <= %[2]s",
	"containsString":       "field %[1]s contains substring %[2]s",
	"startsWith":           "field %[1]s starts with %[2]s",
	"endsWith":             "field %[1]s ends with %[2]s",
	"not":                  "field %[1]s does not match %[2]s",
	"emptyString":          "field %[1]s is an empty string",
	"everyItem":            "every item of %[1]s matches %[2]s",
	"hasItem":              "collection %[1]s contains %[2]s",
}

// AssertionRules turns .body(path, matcher) assertions into business rules.
//
// The entity of each rule is "<Entity>.<field>", where Entity comes from
// the test class name and field is the JSON path up to the first "." or
// "[". Rules found in negative tests are tagged "constraint".
type AssertionRules struct{}

// NewAssertionRules creates the ra-assertion-rules probe.
func NewAssertionRules() discovery.Probe {
	return &AssertionRules{}
}

// Name implements discovery.Probe.
func (p *AssertionRules) Name() string {
	return "ra-assertion-rules"
}

// Env implements discovery.Probe.
func (p *AssertionRules) Env() string {
	return EnvTest
}

// Scan implements discovery.Probe.
func (p *AssertionRules) Scan(ctx context.Context, target string) ([]types.Finding, error) {
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

func (p *AssertionRules) scanFile(src sdk.SourceFile, set *sdk.FindingSet) {
	methods := sdk.Methods(src.Content)
	entityBase := entityFromClass(src.Class)

	for _, m := range sdk.FindPattern(src, bodyCallRe) {
		args, ok := sdk.CallArgs(src.Content, m.Offset+len(m.Text)-1)
		if !ok {
			continue
		}
		argv := sdk.SplitArgs(args)
		if len(argv) < 2 {
			continue
		}

		field, ok := sdk.StringLiteral(argv[0])
		if !ok {
			continue
		}
		matcher, expected := extractMatcher(argv[1])

		testMethod := sdk.EnclosingMethod(methods, m.Offset)
		negative := isNegative(testMethod, src.Class)

		tags := []string{"rule", "business-rule"}
		if negative {
			tags = []string{"rule", "constraint"}
		}

		set.Add(entityBase+"."+fieldRoot(field), types.FactBusinessRule,
			&types.BusinessRule{
				Field:          field,
				Matcher:        matcher,
				Expected:       types.Literal(expected),
				RuleText:       ruleText(field, matcher, expected),
				TestClass:      src.Class,
				TestMethod:     testMethod,
				IsNegativeTest: negative,
			},
			types.WithLocation(src.Location(m.Line)),
			types.WithTags(tags...))
	}
}

// fieldRoot returns the top-level name of a JSON path (items[0].sku -> items).
func fieldRoot(field string) string {
	if i := strings.IndexAny(field, ".["); i >= 0 {
		return field[:i]
	}
	return field
}

// extractMatcher returns the matcher name and the text of its first
// argument.
func extractMatcher(expr string) (matcher, expected string) {
	if name, args, ok := parseCall(expr); ok {
		if argv := sdk.SplitArgs(args); len(argv) > 0 {
			expected = literalValue(argv[0])
		}
		return name, expected
	}
	if identifierRe.MatchString(expr) {
		return memberName(expr), ""
	}
	return "unknown", ""
}

// literalValue renders an expected-value expression as text. Nested
// matchers keep only their first argument: hasSize(greaterThan(0)) yields
// "greaterThan(0)" at the outer level.
func literalValue(expr string) string {
	expr = strings.TrimSpace(expr)
	if s, ok := sdk.StringLiteral(expr); ok {
		return s
	}
	if scalarLitRe.MatchString(expr) {
		return expr
	}
	if identifierRe.MatchString(expr) {
		return memberName(expr)
	}
	if name, args, ok := parseCall(expr); ok {
		inner := ""
		if argv := sdk.SplitArgs(args); len(argv) > 0 {
			inner = literalValue(argv[0])
		}
		return fmt.Sprintf("%s(%s)", name, inner)
	}
	return ""
}

func ruleText(field, matcher, expected string) string {
	tmpl, ok := ruleTemplates[matcher]
	if !ok {
		return fmt.Sprintf("field %s matches %s(%s)", field, matcher, expected)
	}
	return fmt.Sprintf(tmpl, field, expected)
}

// isNegative reports whether the method or class name suggests a negative
// scenario.
func isNegative(testMethod, class string) bool {
	name := strings.ToLower(testMethod + class)
	for _, kw := range negativeKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
