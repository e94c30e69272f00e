package workers

import (
	"regexp"
	"strings"

	"github.com/steveyegge/probe/internal/discovery/sdk"
)

// EnvTest is the environment of probes that read test source code.
const EnvTest = "test"

var (
	// Any HTTP verb call: .get( .POST( ...
	httpCallRe = regexp.MustCompile(`(?i)\.(get|post|put|delete|patch|head|options)\(`)

	// HTTP verb call with a literal path as first argument
	httpLiteralRe = regexp.MustCompile(`(?i)\.(get|post|put|delete|patch|head|options)\(\s*"([^"]+)"`)

	// .statusCode(201) with a numeric literal
	statusLiteralRe = regexp.MustCompile(`\.statusCode\(\s*(\d+)\s*\)`)

	hostPrefixRe    = regexp.MustCompile(`^https?://[^/]+`)
	repeatedSlashRe = regexp.MustCompile(`/+`)
	placeholderRe   = regexp.MustCompile(`\{[^}]*\}`)
	stringLitRe     = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	identifierRe    = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*$`)
	callExprRe      = regexp.MustCompile(`^([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*)\s*\(`)
	scalarLitRe     = regexp.MustCompile(`^(?:-?\d+(?:\.\d+)?[lLfFdD]?|true|false|null|'(?:[^'\\]|\\.)*')$`)
	entityBaseRe    = regexp.MustCompile(`^([A-Z][a-z]+)`)
)

// normalizeURL strips scheme and host and collapses repeated slashes.
func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	url = hostPrefixRe.ReplaceAllString(url, "")
	url = repeatedSlashRe.ReplaceAllString(url, "/")
	if url == "" {
		return "/"
	}
	return url
}

// isWriteMethod reports whether the verb modifies server state.
func isWriteMethod(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

// entityFromClass derives a business entity from a test class name:
// MovementCreateTest -> Movement, StockTest -> Stock.
func entityFromClass(class string) string {
	if m := entityBaseRe.FindStringSubmatch(class); m != nil {
		return m[1]
	}
	return class
}

// memberName returns the last segment of a dotted reference
// (Matchers.equalTo -> equalTo).
func memberName(ref string) string {
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// parseCall splits "name(args)" into the member name and its argument text.
func parseCall(expr string) (name, args string, ok bool) {
	expr = strings.TrimSpace(expr)
	m := callExprRe.FindStringSubmatchIndex(expr)
	if m == nil {
		return "", "", false
	}
	open := m[1] - 1
	end, ok := sdk.MatchBalanced(expr, open)
	if !ok || end != len(expr)-1 {
		return "", "", false
	}
	return memberName(expr[m[2]:m[3]]), expr[open+1 : end], true
}

// methodLabel formats an enclosing method name for entities.
func methodLabel(method string) string {
	if method == "" {
		return "?"
	}
	return method
}
