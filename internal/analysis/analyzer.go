package analysis

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/steveyegge/probe/internal/types"
)

var (
	// ErrNotImplemented is returned by Base.Analyze. It marks a missing
	// analyzer implementation, not a data problem, and must not be masked.
	ErrNotImplemented = errors.New("analyzer not implemented")

	// ErrUnknownAnalyzer is returned when a registry lookup fails.
	ErrUnknownAnalyzer = errors.New("unknown analyzer")
)

// Analyzer derives one AnalysisResult from a set of findings.
//
// Analyzers keep no state between calls and never fail on sparse or
// contradictory input: missing signal produces empty output. A returned
// error always indicates a programming fault.
type Analyzer interface {
	// Name returns the registry identifier.
	// Example: "entity-model"
	Name() string

	// Description returns a one-line human-readable description.
	Description() string

	// Analyze reads findings and returns the derived result.
	Analyze(findings []types.Finding) (*types.AnalysisResult, error)
}

// Base carries analyzer metadata. Its Analyze reports ErrNotImplemented;
// concrete analyzers embed Base and define their own Analyze.
type Base struct {
	ID   string
	Desc string
}

// Name implements Analyzer.
func (b Base) Name() string {
	return b.ID
}

// Description implements Analyzer.
func (b Base) Description() string {
	return b.Desc
}

// Analyze implements Analyzer.
func (b Base) Analyze([]types.Finding) (*types.AnalysisResult, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotImplemented, b.ID)
}

// enumValueRe matches upper-case identifiers such as DRAFT or IN_TRANSIT.
var enumValueRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]+$`)

// isEqualityMatcher reports whether a matcher asserts a concrete value.
func isEqualityMatcher(matcher string) bool {
	switch matcher {
	case "equalTo", "is", "hasItem":
		return true
	}
	return false
}

// splitEntity splits "Entity.field.path" at the first dot.
func splitEntity(entity string) (name, path string, ok bool) {
	return strings.Cut(entity, ".")
}

// capitalize upper-cases the first letter and lower-cases the rest
// (warehouse -> Warehouse, productSku -> Productsku).
func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
}
