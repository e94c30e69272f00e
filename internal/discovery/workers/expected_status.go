package workers

import (
	"context"
	"regexp"
	"strconv"

	"github.com/steveyegge/probe/internal/discovery"
	"github.com/steveyegge/probe/internal/discovery/sdk"
	"github.com/steveyegge/probe/internal/types"
)

var (
	statusCallRe  = regexp.MustCompile(`\.(?:statusCode|statusLine)\(`)
	statusTokenRe = regexp.MustCompile(`\b(\d+)\b|\b(SC_[A-Z_]+)\b`)
)

// httpStatusConstants maps Apache HttpStatus constants to codes.
var httpStatusConstants = map[string]int{
	"SC_OK":                    200,
	"SC_CREATED":               201,
	"SC_ACCEPTED":              202,
	"SC_NO_CONTENT":            204,
	"SC_MOVED_PERMANENTLY":     301,
	"SC_NOT_MODIFIED":          304,
	"SC_BAD_REQUEST":           400,
	"SC_UNAUTHORIZED":          401,
	"SC_FORBIDDEN":             403,
	"SC_NOT_FOUND":             404,
	"SC_METHOD_NOT_ALLOWED":    405,
	"SC_CONFLICT":              409,
	"SC_UNPROCESSABLE_ENTITY":  422,
	"SC_INTERNAL_SERVER_ERROR": 500,
	"SC_SERVICE_UNAVAILABLE":   503,
}

// ExpectedStatus records the HTTP status codes tests assert on.
//
// Literal codes (statusCode(201), is(200), anyOf(is(200), is(204))) are
// reported with confidence 1.0; HttpStatus constants with 0.9.
type ExpectedStatus struct{}

// NewExpectedStatus creates the ra-expected-status probe.
func NewExpectedStatus() discovery.Probe {
	return &ExpectedStatus{}
}

// Name implements discovery.Probe.
func (p *ExpectedStatus) Name() string {
	return "ra-expected-status"
}

// Env implements discovery.Probe.
func (p *ExpectedStatus) Env() string {
	return EnvTest
}

// Scan implements discovery.Probe.
func (p *ExpectedStatus) Scan(ctx context.Context, target string) ([]types.Finding, error) {
	files, err := sdk.LoadSources(ctx, target, sdk.DefaultPatternOptions())
	if err != nil {
		return nil, err
	}

	set := sdk.NewFindingSet(p.Name(), p.Env())
	for _, src := range files {
		methods := sdk.Methods(src.Content)

		for _, m := range sdk.FindPattern(src, statusCallRe) {
			args, ok := sdk.CallArgs(src.Content, m.Offset+len(m.Text)-1)
			if !ok {
				continue
			}

			testMethod := sdk.EnclosingMethod(methods, m.Offset)
			for _, code := range statusCodes(args) {
				kind := statusContext(code.value)
				set.Add(src.Class+"::"+methodLabel(testMethod), types.FactExpectedStatus,
					&types.ExpectedStatus{
						StatusCode: code.value,
						IsSuccess:  code.value >= 200 && code.value < 300,
						TestClass:  src.Class,
						TestMethod: testMethod,
						Context:    kind,
					},
					types.WithLocation(src.Location(m.Line)),
					types.WithConfidence(code.confidence),
					types.WithTags("api", "status", "contract", kind))
			}
		}
	}
	return set.Build()
}

type statusCode struct {
	value      int
	confidence float64
}

// statusCodes extracts codes from the argument text of a status assertion,
// in source order. String literals are ignored.
func statusCodes(args string) []statusCode {
	args = stringLitRe.ReplaceAllString(args, `""`)

	var codes []statusCode
	for _, m := range statusTokenRe.FindAllStringSubmatch(args, -1) {
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err == nil && n >= 100 && n < 600 {
				codes = append(codes, statusCode{value: n, confidence: 1.0})
			}
			continue
		}
		if n, ok := httpStatusConstants[m[2]]; ok {
			codes = append(codes, statusCode{value: n, confidence: 0.9})
		}
	}
	return codes
}

// statusContext classifies a status code by what it usually means in a test.
func statusContext(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "happy_path"
	case code == 400:
		return "validation_error"
	case code == 401, code == 403:
		return "auth"
	case code == 404:
		return "not_found"
	case code == 409, code == 422:
		return "conflict"
	case code >= 500:
		return "server_error"
	default:
		return "other"
	}
}
