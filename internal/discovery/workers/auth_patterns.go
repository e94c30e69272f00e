package workers

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/steveyegge/probe/internal/discovery"
	"github.com/steveyegge/probe/internal/discovery/sdk"
	"github.com/steveyegge/probe/internal/types"
)

var (
	specRe       = regexp.MustCompile(`\.spec\(\s*(\w+)\s*\)`)
	basicAuthRe  = regexp.MustCompile(`\.auth\(\)\.basic\(\s*"([^"]+)"\s*,\s*"([^"]+)"\s*\)`)
	oauth2Re     = regexp.MustCompile(`\.auth\(\)\.oauth2\(\s*(\w+)\s*\)`)
	bearerLitRe  = regexp.MustCompile(`\.header\(\s*"Authorization"\s*,\s*"Bearer\s+([^"]+)"\s*\)`)
	bearerVarRe  = regexp.MustCompile(`\.header\(\s*"Authorization"\s*,\s*(\w+)\s*\)`)
	roleKeywords = []string{"operator", "manager", "admin", "user", "guest", "viewer"}
)

// specRoles maps well-known request spec variables to roles. An empty role
// marks an unauthenticated spec.
var specRoles = map[string]string{
	"operatorspec": "OPERATOR",
	"managerspec":  "MANAGER",
	"adminspec":    "ADMIN",
	"userspec":     "USER",
	"guestspec":    "GUEST",
	"viewerspec":   "VIEWER",
	"basespec":     "",
}

// AuthPatterns records how each test authenticates its HTTP calls.
//
// Every @Test method is classified once (basic, oauth2, bearer header,
// role spec, or none) and one finding is emitted per literal HTTP call in
// it: auth_required, or public_endpoint when no credentials are used and
// the test does not expect 401/403.
type AuthPatterns struct{}

// NewAuthPatterns creates the ra-auth-patterns probe.
func NewAuthPatterns() discovery.Probe {
	return &AuthPatterns{}
}

// Name implements discovery.Probe.
func (p *AuthPatterns) Name() string {
	return "ra-auth-patterns"
}

// Env implements discovery.Probe.
func (p *AuthPatterns) Env() string {
	return EnvTest
}

// Scan implements discovery.Probe.
func (p *AuthPatterns) Scan(ctx context.Context, target string) ([]types.Finding, error) {
	files, err := sdk.LoadSources(ctx, target, sdk.DefaultPatternOptions())
	if err != nil {
		return nil, err
	}

	set := sdk.NewFindingSet(p.Name(), p.Env())
	for _, src := range files {
		if !strings.Contains(src.Content, "@Test") {
			continue
		}
		for _, method := range sdk.TestMethods(src.Content) {
			p.scanMethod(src, method, set)
		}
	}
	return set.Build()
}

func (p *AuthPatterns) scanMethod(src sdk.SourceFile, method sdk.Method, set *sdk.FindingSet) {
	auth := parseAuth(method.Body)
	auth.TestClass = src.Class
	auth.TestMethod = method.Name
	if m := statusLiteralRe.FindStringSubmatch(method.Body); m != nil {
		auth.StatusCode, _ = strconv.Atoi(m[1])
	}

	if auth.IsPublic && (auth.StatusCode == 401 || auth.StatusCode == 403) {
		auth.IsPublic = false
	}

	fact := types.FactAuthRequired
	if auth.IsPublic {
		fact = types.FactPublicEndpoint
	}

	confidence := 0.7
	if auth.AuthType == "basic" || auth.AuthType == "bearer" {
		confidence = 1.0
	}

	tags := []string{"auth", "security"}
	if auth.Role != "" {
		tags = append(tags, "role:"+strings.ToLower(auth.Role))
	}

	for _, m := range httpLiteralRe.FindAllStringSubmatch(method.Body, -1) {
		data := auth
		set.Add(strings.ToUpper(m[1])+" "+m[2], fact, &data,
			types.WithLocation(src.Location(method.Line)),
			types.WithConfidence(confidence),
			types.WithTags(tags...))
	}
}

// parseAuth classifies the authentication used in a method body. The first
// matching mechanism wins, in the order basic, oauth2, bearer literal,
// bearer variable, spec.
func parseAuth(body string) types.AuthPattern {
	if m := basicAuthRe.FindStringSubmatch(body); m != nil {
		return types.AuthPattern{AuthType: "basic", Role: strings.ToUpper(m[1]), Username: m[1]}
	}

	if m := oauth2Re.FindStringSubmatch(body); m != nil {
		return types.AuthPattern{AuthType: "oauth2", Role: roleFromVar(m[1]), TokenVariable: m[1]}
	}

	if bearerLitRe.MatchString(body) {
		return types.AuthPattern{AuthType: "bearer", TokenVariable: "literal"}
	}

	if m := bearerVarRe.FindStringSubmatch(body); m != nil {
		return types.AuthPattern{AuthType: "bearer", Role: roleFromVar(m[1]), TokenVariable: m[1]}
	}

	for _, m := range specRe.FindAllStringSubmatch(body, -1) {
		role, known := specRoles[strings.ToLower(m[1])]
		if !known {
			role = "UNKNOWN"
		}
		if role != "" {
			return types.AuthPattern{AuthType: "bearer", Role: role, TokenVariable: m[1]}
		}
	}

	return types.AuthPattern{AuthType: "none", IsPublic: true}
}

// roleFromVar guesses a role from a token variable name (adminToken -> ADMIN).
func roleFromVar(name string) string {
	key := strings.ToLower(name)
	for _, role := range roleKeywords {
		if strings.Contains(key, role) {
			return strings.ToUpper(role)
		}
	}
	return ""
}
